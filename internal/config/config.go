package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Inference host
	OllamaHost       string `mapstructure:"ollama_host" yaml:"ollama_host"`
	OllamaBin        string `mapstructure:"ollama_bin" yaml:"ollama_bin"`
	GenTimeoutSec    int    `mapstructure:"gen_timeout_sec" yaml:"gen_timeout_sec"`
	MaxRetries       int    `mapstructure:"max_retries" yaml:"max_retries"`
	RetryBaseDelayMs int    `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`

	// Models and prompting
	CleanModel   string `mapstructure:"clean_model" yaml:"clean_model"`
	ChatModel    string `mapstructure:"chat_model" yaml:"chat_model"`
	SystemPrompt string `mapstructure:"system_prompt" yaml:"system_prompt"`

	// Conversation window
	ContextBudget int `mapstructure:"context_budget" yaml:"context_budget"`
	HistoryLimit  int `mapstructure:"history_limit" yaml:"history_limit"`

	// Profiler gates
	MaxRows int `mapstructure:"max_rows" yaml:"max_rows"`
	MaxCols int `mapstructure:"max_cols" yaml:"max_cols"`

	// Identity and storage
	DefaultUser string `mapstructure:"default_user" yaml:"default_user"`
	OutputDir   string `mapstructure:"output_dir" yaml:"output_dir"`
	DBPath      string `mapstructure:"db_path" yaml:"db_path"`
}

// Dir returns the tidytab config directory (~/.tidytab).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".tidytab"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is
// empty, it writes to ~/.tidytab/config.yaml, creating the directory if
// necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ollama_host", "http://localhost:11434")
	v.SetDefault("ollama_bin", "ollama")
	v.SetDefault("gen_timeout_sec", 60)
	v.SetDefault("max_retries", 2)
	v.SetDefault("retry_base_delay_ms", 2000)
	v.SetDefault("clean_model", "deepseek-r1:1.5b")
	v.SetDefault("chat_model", "llama3.2:3b")
	v.SetDefault("system_prompt", "")
	v.SetDefault("context_budget", 15000)
	v.SetDefault("history_limit", 20)
	v.SetDefault("max_rows", 1_000_000)
	v.SetDefault("max_cols", 100)
	v.SetDefault("default_user", "local")
	v.SetDefault("output_dir", "")
	v.SetDefault("db_path", "")
}

// Default returns the built-in configuration without consulting the
// environment or any config file. Used by `tidytab init`.
func Default() (*Global, error) {
	v := viper.New()
	setDefaults(v)
	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal defaults: %w", err)
	}
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	c.DBPath = filepath.Join(dir, "state", "history.db")
	return &c, nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	// Optional .env next to the working directory, read before viper
	// consults the environment.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TIDYTAB")
	v.AutomaticEnv()
	setDefaults(v)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Resolve db_path default: ~/.tidytab/state/history.db
	if c.DBPath == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		c.DBPath = filepath.Join(dir, "state", "history.db")
	}
	return &c, nil
}
