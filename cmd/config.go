package cmd

import (
	"fmt"
	"strconv"

	cfgpkg "github.com/TansyBytes/tidytab-cli/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set TidyTab configuration",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		fmt.Printf("ollama_host: %s\n", c.OllamaHost)
		fmt.Printf("ollama_bin: %s\n", c.OllamaBin)
		fmt.Printf("gen_timeout_sec: %d\n", c.GenTimeoutSec)
		fmt.Printf("max_retries: %d\n", c.MaxRetries)
		fmt.Printf("retry_base_delay_ms: %d\n", c.RetryBaseDelayMs)
		fmt.Printf("clean_model: %s\n", c.CleanModel)
		fmt.Printf("chat_model: %s\n", c.ChatModel)
		if c.SystemPrompt != "" {
			fmt.Printf("system_prompt: %s\n", c.SystemPrompt)
		}
		fmt.Printf("context_budget: %d\n", c.ContextBudget)
		fmt.Printf("history_limit: %d\n", c.HistoryLimit)
		fmt.Printf("max_rows: %d\n", c.MaxRows)
		fmt.Printf("max_cols: %d\n", c.MaxCols)
		fmt.Printf("default_user: %s\n", c.DefaultUser)
		if c.OutputDir != "" {
			fmt.Printf("output_dir: %s\n", c.OutputDir)
		}
		fmt.Printf("db_path: %s\n", c.DBPath)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a single config value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		v, err := configValue(c, args[0])
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		if err := applyConfigValue(c, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Println("Saved config")
		return nil
	},
}

func configValue(c *cfgpkg.Global, key string) (string, error) {
	switch key {
	case "ollama_host":
		return c.OllamaHost, nil
	case "ollama_bin":
		return c.OllamaBin, nil
	case "gen_timeout_sec":
		return strconv.Itoa(c.GenTimeoutSec), nil
	case "max_retries":
		return strconv.Itoa(c.MaxRetries), nil
	case "retry_base_delay_ms":
		return strconv.Itoa(c.RetryBaseDelayMs), nil
	case "clean_model":
		return c.CleanModel, nil
	case "chat_model":
		return c.ChatModel, nil
	case "system_prompt":
		return c.SystemPrompt, nil
	case "context_budget":
		return strconv.Itoa(c.ContextBudget), nil
	case "history_limit":
		return strconv.Itoa(c.HistoryLimit), nil
	case "max_rows":
		return strconv.Itoa(c.MaxRows), nil
	case "max_cols":
		return strconv.Itoa(c.MaxCols), nil
	case "default_user":
		return c.DefaultUser, nil
	case "output_dir":
		return c.OutputDir, nil
	case "db_path":
		return c.DBPath, nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

func applyConfigValue(c *cfgpkg.Global, key, val string) error {
	positiveInt := func(name string) (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i <= 0 {
			return 0, fmt.Errorf("invalid int for %s: %v", name, val)
		}
		return i, nil
	}
	switch key {
	case "ollama_host":
		c.OllamaHost = val
	case "ollama_bin":
		c.OllamaBin = val
	case "gen_timeout_sec":
		i, err := positiveInt(key)
		if err != nil {
			return err
		}
		c.GenTimeoutSec = i
	case "max_retries":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for max_retries: %v", val)
		}
		c.MaxRetries = i
	case "retry_base_delay_ms":
		i, err := positiveInt(key)
		if err != nil {
			return err
		}
		c.RetryBaseDelayMs = i
	case "clean_model":
		c.CleanModel = val
	case "chat_model":
		c.ChatModel = val
	case "system_prompt":
		c.SystemPrompt = val
	case "context_budget":
		i, err := positiveInt(key)
		if err != nil {
			return err
		}
		c.ContextBudget = i
	case "history_limit":
		i, err := positiveInt(key)
		if err != nil {
			return err
		}
		c.HistoryLimit = i
	case "max_rows":
		i, err := positiveInt(key)
		if err != nil {
			return err
		}
		c.MaxRows = i
	case "max_cols":
		i, err := positiveInt(key)
		if err != nil {
			return err
		}
		c.MaxCols = i
	case "default_user":
		c.DefaultUser = val
	case "output_dir":
		c.OutputDir = val
	case "db_path":
		c.DBPath = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}
