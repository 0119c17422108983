package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/TansyBytes/tidytab-cli/internal/schema"
	"github.com/TansyBytes/tidytab-cli/internal/table"
	"github.com/TansyBytes/tidytab-cli/internal/utils"
	"github.com/spf13/cobra"
)

var validateRulesPath string

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a dataset against a schema rules file",
	Long:  `Validate applies the column rules from a tidytab.rules.yaml file to the dataset and reports every violation. When --rules is not given the file is discovered by walking up from the dataset's directory. Rules never modify the data.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		rulesPath := validateRulesPath
		if rulesPath == "" {
			rp, err := utils.FindRulesFile(filepath.Dir(path))
			if err != nil {
				return err
			}
			rulesPath = rp
		}
		rules, err := schema.Load(rulesPath)
		if err != nil {
			return err
		}
		t, err := table.ReadFile(path, table.ReadOptions{})
		if err != nil {
			return friendly(err)
		}
		violations := rules.Validate(t)
		if len(violations) == 0 {
			fmt.Printf("✓ %s conforms to %s\n", filepath.Base(path), filepath.Base(rulesPath))
			return nil
		}
		for _, v := range violations {
			fmt.Printf("- %s\n", v)
		}
		return fmt.Errorf("%d rule violations in %s", len(violations), filepath.Base(path))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&validateRulesPath, "rules", "", "rules file (default: discover tidytab.rules.yaml upward from the dataset)")
}
