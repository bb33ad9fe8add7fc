package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tsawler/finsight/llm"
)

// Config is the YAML configuration file. Every field has a workable default;
// the file itself is optional.
type Config struct {
	DataDir string `yaml:"data_dir"`
	Listen  string `yaml:"listen"`
	OCR     bool   `yaml:"ocr"`

	LLM struct {
		APIKey         string `yaml:"api_key"`
		BaseURL        string `yaml:"base_url"`
		EmbeddingModel string `yaml:"embedding_model"`
		ChatModel      string `yaml:"chat_model"`
	} `yaml:"llm"`
}

// loadConfig reads the config file and applies environment overrides. A
// missing file at the default location is not an error; a missing file named
// explicitly is.
func loadConfig(path string) (*Config, error) {
	cfg := &Config{Listen: ":8080"}

	explicit := path != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, ".finsight", "config.yaml")
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
			// No config file, defaults apply.
		default:
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	if v := os.Getenv("FINSIGHT_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = v
	}

	return cfg, nil
}

func (c *Config) llmConfig() llm.Config {
	return llm.Config{
		APIKey:         c.LLM.APIKey,
		BaseURL:        c.LLM.BaseURL,
		EmbeddingModel: c.LLM.EmbeddingModel,
		ChatModel:      c.LLM.ChatModel,
	}
}
