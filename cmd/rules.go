package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/TansyBytes/tidytab-cli/internal/profile"
	"github.com/TansyBytes/tidytab-cli/internal/schema"
	"github.com/TansyBytes/tidytab-cli/internal/table"
	"github.com/TansyBytes/tidytab-cli/internal/utils"
	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage schema rules files",
}

var rulesInitOut string

var rulesInitCmd = &cobra.Command{
	Use:   "init <file>",
	Short: "Infer a starter rules file from a dataset",
	Long:  `Rules init profiles the dataset and writes a tidytab.rules.yaml capturing what it sees: column types, nullability, uniqueness, numeric ranges, and allowed values for categorical columns. Edit the file to tighten or drop rules before validating.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		t, err := table.ReadFile(path, table.ReadOptions{})
		if err != nil {
			return friendly(err)
		}
		rep, err := profile.Profile(t, configProfileOptions())
		if err != nil {
			return friendly(err)
		}
		rc := schema.InferConfig(t, rep)
		out := rulesInitOut
		if out == "" {
			out = filepath.Join(filepath.Dir(path), utils.RulesFileName)
		}
		// Refuse to overwrite hand-edited rules.
		if _, err := os.Stat(out); err == nil {
			return fmt.Errorf("rules file already exists at %s (choose another path with -o)", out)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("stat rules file: %w", err)
		}
		if err := rc.Save(out); err != nil {
			return err
		}
		fmt.Printf("✓ Wrote rules for %d columns to %s\n", len(rc.Columns), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesInitCmd)
	rulesInitCmd.Flags().StringVarP(&rulesInitOut, "output", "o", "", "where to write the rules file (default: tidytab.rules.yaml next to the dataset)")
}
