package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/TansyBytes/tidytab-cli/internal/profile"
	"github.com/TansyBytes/tidytab-cli/internal/table"
	"github.com/TansyBytes/tidytab-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	profJSON       bool
	profDelimiter  string
	profSheet      string
	profMaxRows    int
	profMaxCols    int
	profSampleRows int
)

var profileCmd = &cobra.Command{
	Use:   "profile <path>...",
	Short: "Profile one or more datasets",
	Long:  `Profile reads each dataset (CSV, TSV, JSON, XLSX, or Parquet) and reports its shape, per-column types and statistics, null counts, and duplicate rows. Directory arguments are walked for supported files.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := collectInputs(args)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no supported input files found")
		}
		ropt, err := readOptions(profDelimiter, profSheet)
		if err != nil {
			return err
		}
		popt := profileOptions()
		total := len(files)
		for i, path := range files {
			t, err := table.ReadFile(path, ropt)
			if err != nil {
				return friendly(err)
			}
			rep, err := profile.Profile(t, popt)
			if err != nil {
				return friendly(err)
			}
			if profJSON {
				b, err := utils.PrettyJSON(rep)
				if err != nil {
					return err
				}
				fmt.Println(string(b))
				continue
			}
			if total > 1 {
				fmt.Printf("[%d/%d] %s\n", i+1, total, filepath.Base(path))
			}
			fmt.Println(rep.Text())
		}
		return nil
	},
}

// collectInputs expands directory arguments by walking for supported
// files. Explicit file arguments are kept as-is so an unsupported path
// fails with a proper error instead of being silently skipped.
func collectInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat input: %w", err)
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if table.CanReadFile(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
	}
	return files, nil
}

// readOptions maps the delimiter and sheet flags onto reader options.
func readOptions(delimiter, sheet string) (table.ReadOptions, error) {
	opt := table.ReadOptions{Sheet: sheet}
	switch delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	default:
		return table.ReadOptions{}, fmt.Errorf("unsupported --delimiter: %s", delimiter)
	}
	return opt, nil
}

// configProfileOptions builds profiler gates from configuration alone.
func configProfileOptions() profile.Options {
	var opt profile.Options
	if cfg != nil {
		opt.MaxRows = cfg.MaxRows
		opt.MaxCols = cfg.MaxCols
	}
	return opt
}

// profileOptions layers the profile command's flags over the config.
func profileOptions() profile.Options {
	opt := configProfileOptions()
	opt.SampleRows = profSampleRows
	if profMaxRows > 0 {
		opt.MaxRows = profMaxRows
	}
	if profMaxCols > 0 {
		opt.MaxCols = profMaxCols
	}
	return opt
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().BoolVar(&profJSON, "json", false, "emit the report as JSON")
	profileCmd.Flags().StringVar(&profDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	profileCmd.Flags().StringVar(&profSheet, "sheet", "", "XLSX: sheet name to profile (default first sheet)")
	profileCmd.Flags().IntVar(&profMaxRows, "max-rows", 0, "maximum rows accepted (overrides config)")
	profileCmd.Flags().IntVar(&profMaxCols, "max-cols", 0, "maximum columns accepted (overrides config)")
	profileCmd.Flags().IntVar(&profSampleRows, "sample-rows", 5, "number of sample rows to include")
}
