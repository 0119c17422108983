package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/TansyBytes/tidytab-cli/internal/clean"
	cfgpkg "github.com/TansyBytes/tidytab-cli/internal/config"
	"github.com/TansyBytes/tidytab-cli/internal/infer"
	"github.com/TansyBytes/tidytab-cli/internal/profile"
	"github.com/TansyBytes/tidytab-cli/internal/table"
	"github.com/TansyBytes/tidytab-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	cleanOut      string
	cleanModel    string
	cleanNoAdvice bool
	cleanJSON     bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Clean a dataset and write the result as CSV",
	Long: `Clean profiles the dataset, asks the local model to narrate the work
(unless --no-advice), then applies the deterministic policy: drop
duplicate rows, drop rows for sparsely-null columns, impute
heavily-null columns with median, mode, or "Unknown". The cleaned copy
is written as cleaned_<timestamp>_<name>.csv; the input is untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		model := cleanModel
		if model == "" {
			model = c.CleanModel
		}
		if model == "" {
			model = infer.RecommendModel(infer.TaskClean)
		}
		var q clean.Querier
		if !cleanNoAdvice {
			q = newInferClient(c)
			if !cleanJSON {
				fmt.Printf("⚙ Cleaning %s (model=%s) ...\n", filepath.Base(path), model)
			}
		}
		out, err := runClean(cmd.Context(), q, c, path, model, cleanOut)
		if err != nil {
			return friendly(err)
		}
		if cleanJSON {
			b, err := utils.PrettyJSON(out)
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		}
		fmt.Println(clean.Summary(out.Result, out.Advisory))
		fmt.Printf("✓ Wrote cleaned dataset to %s\n", out.Output)
		return nil
	},
}

// cleanOutcome carries everything one cleaning run produced, for the
// text printer and the --json encoder alike.
type cleanOutcome struct {
	Input    string        `json:"input"`
	Output   string        `json:"output"`
	Advisory string        `json:"advisory,omitempty"`
	Result   *clean.Result `json:"result"`
}

// runClean profiles path, asks the model to narrate (when q is not
// nil), runs the cleaning policy, and writes the cleaned CSV
// atomically. outPath may be empty (a name is generated in the
// configured output dir) or an existing directory (the name is
// generated inside it). The input file is never modified.
func runClean(ctx context.Context, q clean.Querier, c *cfgpkg.Global, path, model, outPath string) (*cleanOutcome, error) {
	t, err := table.ReadFile(path, table.ReadOptions{})
	if err != nil {
		return nil, err
	}
	rep, err := profile.Profile(t, configProfileOptions())
	if err != nil {
		return nil, err
	}
	advisory := ""
	if q != nil {
		prompt := clean.AdvisoryPrompt(t, rep)
		debugf("advisory prompt: %d chars, ≈%d tokens, model %s", len(prompt), utils.CountTokens(prompt), model)
		advisory = clean.Advise(ctx, q, t, rep, model)
	}
	res, err := clean.Clean(t)
	if err != nil {
		return nil, err
	}
	if outPath == "" {
		dir := "."
		if c != nil && c.OutputDir != "" {
			dir = c.OutputDir
		}
		outPath = utils.CleanedOutputPath(dir, path, time.Now())
	} else if info, err := os.Stat(outPath); err == nil && info.IsDir() {
		outPath = utils.CleanedOutputPath(outPath, path, time.Now())
	}
	if dir := filepath.Dir(outPath); dir != "." {
		if err := utils.EnsureDir(dir); err != nil {
			return nil, err
		}
	}
	var buf bytes.Buffer
	if err := table.WriteCSV(res.Table, &buf); err != nil {
		return nil, err
	}
	if err := utils.SafeWriteFile(outPath, buf.Bytes()); err != nil {
		return nil, err
	}
	return &cleanOutcome{Input: path, Output: outPath, Advisory: advisory, Result: res}, nil
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVarP(&cleanOut, "output", "o", "", "output file or directory (default: cleaned_<timestamp>_<name>.csv in output_dir)")
	cleanCmd.Flags().StringVar(&cleanModel, "model", "", "model for the cleaning advisory (default from config)")
	cleanCmd.Flags().BoolVar(&cleanNoAdvice, "no-advice", false, "skip the model advisory and clean deterministically")
	cleanCmd.Flags().BoolVar(&cleanJSON, "json", false, "emit the outcome as JSON")
}
