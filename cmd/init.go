package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	cfgpkg "github.com/TansyBytes/tidytab-cli/internal/config"
	"github.com/TansyBytes/tidytab-cli/internal/utils"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create ~/.tidytab with a default config and state directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := cfgpkg.Dir()
		if err != nil {
			return err
		}
		path := cfgFile
		if path == "" {
			path = filepath.Join(dir, "config.yaml")
		}
		// Refuse to overwrite an existing config.
		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
		} else if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("stat config: %w", err)
		}
		if err := utils.EnsureDir(dir); err != nil {
			return err
		}
		if err := utils.EnsureDir(filepath.Join(dir, "state")); err != nil {
			return err
		}
		c, err := cfgpkg.Default()
		if err != nil {
			return err
		}
		if err := cfgpkg.Save(c, path); err != nil {
			return err
		}
		fmt.Printf("✓ Initialized %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}
