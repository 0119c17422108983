package cmd

import (
	"fmt"
	"os"

	"github.com/TansyBytes/tidytab-cli/internal/infer"
	"github.com/TansyBytes/tidytab-cli/internal/utils"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models installed on the local Ollama host",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		client := newInferClient(c)
		names, err := client.ListModels(cmd.Context())
		if err != nil {
			return friendly(err)
		}
		if len(names) == 0 {
			fmt.Println("(no models installed)")
			return nil
		}
		for _, name := range names {
			mi, known := infer.LookupModel(name)
			switch {
			case known && mi.Notes != "":
				fmt.Printf("- %s (ctx %d): %s\n", name, mi.ContextTokens, mi.Notes)
			case known:
				fmt.Printf("- %s (ctx %d)\n", name, mi.ContextTokens)
			default:
				fmt.Printf("- %s\n", name)
			}
		}
		return nil
	},
}

var modelsCatalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Show built-in model metadata as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := utils.PrettyJSON(infer.Catalog())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(os.Stdout, string(b))
		return err
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsCatalogCmd)
}
