package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Model   Model   `yaml:"model"`
	Scrape  Scrape  `yaml:"scrape"`
	Files   Files   `yaml:"files"`
	Output  Output  `yaml:"output"`
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
}

type Model struct {
	Provider      string  `yaml:"provider"`
	Name          string  `yaml:"name"`
	APIKeyEnv     string  `yaml:"api_key_env"`
	OpenAIModel   string  `yaml:"openai_model"`
	OpenAIKeyEnv  string  `yaml:"openai_api_key_env"`
	MaxTokens     int     `yaml:"max_tokens"`
	Temperature   float64 `yaml:"temperature"`
	RateDelaySecs int     `yaml:"rate_limit_delay"`
}

type Scrape struct {
	TimeoutSecs int `yaml:"timeout"`
	MaxRetries  int `yaml:"max_retries"`
	TextLimit   int `yaml:"text_limit"`
}

type Files struct {
	Instructions string `yaml:"instructions"`
	LearningDir  string `yaml:"learning_dir"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for benchcrawl.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "benchcrawl")
}

// DataDir returns the XDG data directory for benchcrawl.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "benchcrawl")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/benchcrawl/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'benchcrawl init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file. A .env file in the working
// directory is loaded first so the api_key_env variables can live there.
func Load(path string) (*Config, error) {
	godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Model: Model{
			Provider:      "gemini",
			Name:          "gemini-2.0-flash",
			APIKeyEnv:     "GEMINI_API_KEY",
			OpenAIModel:   "gpt-4o-mini",
			OpenAIKeyEnv:  "OPENAI_API_KEY",
			MaxTokens:     1024,
			Temperature:   0.3,
			RateDelaySecs: 5,
		},
		Scrape: Scrape{
			TimeoutSecs: 15,
			MaxRetries:  3,
			TextLimit:   6000,
		},
		Files: Files{
			Instructions: "task_instructions.txt",
			LearningDir:  "learning",
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
