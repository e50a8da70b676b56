package commands

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Config is the serve command's YAML configuration file.
type Config struct {
	// Listen is the HTTP listen address, e.g. ":8080".
	Listen string `yaml:"listen,omitempty"`

	// DataDir is where uploaded audio is stored.
	DataDir string `yaml:"data_dir,omitempty"`

	// BadgerDir is the session store directory.
	BadgerDir string `yaml:"badger_dir,omitempty"`

	Completer   CompleterConfig   `yaml:"completer"`
	Transcriber TranscriberConfig `yaml:"transcriber"`
}

// CompleterConfig selects and configures the text generation engine.
type CompleterConfig struct {
	// Engine is "openai" or "gemini".
	Engine string `yaml:"engine"`

	APIKey string `yaml:"api_key"`

	// BaseURL overrides the OpenAI endpoint; used for compatible gateways.
	BaseURL string `yaml:"base_url,omitempty"`

	// Model is the completion model name, e.g. "gpt-4" or "gemini-2.0-flash".
	Model string `yaml:"model"`
}

// TranscriberConfig selects and configures the transcription engine.
type TranscriberConfig struct {
	// Engine is "assemblyai" or "whisper".
	Engine string `yaml:"engine"`

	APIKey string `yaml:"api_key"`

	// Model applies to the whisper engine only.
	Model string `yaml:"model,omitempty"`

	// SpeakersExpected hints the assemblyai diarizer; 0 leaves it unset.
	SpeakersExpected int `yaml:"speakers_expected,omitempty"`
}

// LoadConfig reads and decodes the YAML config file at path, applying
// defaults for optional fields.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &Config{
		Listen:    ":8080",
		DataDir:   "data",
		BadgerDir: "badger",
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Completer.Engine == "" {
		return nil, fmt.Errorf("config: completer.engine is required")
	}
	if cfg.Transcriber.Engine == "" {
		return nil, fmt.Errorf("config: transcriber.engine is required")
	}
	return cfg, nil
}
