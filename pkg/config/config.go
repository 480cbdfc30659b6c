// Package config loads earful settings from defaults, an optional TOML file
// and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/earful/pkg/dashscope"
	"github.com/papercomputeco/earful/pkg/llm"
)

// Defaults for the multimodal conversation call.
const (
	DefaultModel        = "qwen-audio-turbo-latest"
	DefaultSystemPrompt = "You are a helpful assistant."
	DefaultPrompt       = "音频里在说什么? "
	DefaultBaseURL      = "https://dashscope.aliyuncs.com/api/v1"
)

// Environment variables recognized by Load.
const (
	EnvAudioPath    = "AUDIO_PATH"
	EnvAPIKey       = "API_KEY"
	EnvModel        = "MODEL"
	EnvPrompt       = "PROMPT"
	EnvSystemPrompt = "SYSTEM_PROMPT"
	EnvBaseURL      = "BASE_URL"
	EnvSQLitePath   = "SQLITE_PATH"
)

// Config is the earful configuration.
type Config struct {
	// AudioPath is the file to transcribe.
	AudioPath string `toml:"audio_path"`

	// APIKey is the inference service credential.
	APIKey string `toml:"api_key"`

	Model        string `toml:"model"`
	Prompt       string `toml:"prompt"`
	SystemPrompt string `toml:"system_prompt"`
	BaseURL      string `toml:"base_url"`

	// Optional generation parameters; unset values use the service defaults.
	Temperature *float64 `toml:"temperature"`
	MaxTokens   *int     `toml:"max_tokens"`

	// SQLitePath records transcriptions when set.
	SQLitePath string `toml:"sqlite_path"`

	Debug bool `toml:"debug"`
}

var (
	// ErrMissingAPIKey wraps dashscope.ErrMissingCredential so callers can
	// classify it with dashscope.IsAuthError.
	ErrMissingAPIKey    = fmt.Errorf("%w (set API_KEY or api_key)", dashscope.ErrMissingCredential)
	ErrMissingAudioPath = errors.New("audio path is required (set AUDIO_PATH or pass a path)")
	ErrMissingModel     = errors.New("model must not be empty")
	ErrMissingPrompt    = errors.New("prompt must not be empty")
)

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		Model:        DefaultModel,
		Prompt:       DefaultPrompt,
		SystemPrompt: DefaultSystemPrompt,
		BaseURL:      DefaultBaseURL,
	}
}

// Load builds a Config from defaults, the TOML file at path (skipped when path
// is empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv(os.LookupEnv)
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	for key, field := range map[string]*string{
		EnvAudioPath:    &c.AudioPath,
		EnvAPIKey:       &c.APIKey,
		EnvModel:        &c.Model,
		EnvPrompt:       &c.Prompt,
		EnvSystemPrompt: &c.SystemPrompt,
		EnvBaseURL:      &c.BaseURL,
		EnvSQLitePath:   &c.SQLitePath,
	} {
		if v, ok := lookup(key); ok && v != "" {
			*field = v
		}
	}
}

// Parameters returns the generation parameters, or nil when none are set.
func (c *Config) Parameters() *llm.Parameters {
	if c.Temperature == nil && c.MaxTokens == nil {
		return nil
	}
	return &llm.Parameters{
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
	}
}

// Validate checks the settings every remote call needs.
func (c *Config) Validate() error {
	switch {
	case c.APIKey == "":
		return ErrMissingAPIKey
	case c.Model == "":
		return ErrMissingModel
	case c.Prompt == "":
		return ErrMissingPrompt
	}
	return nil
}

// ValidateAudio is Validate plus a non-empty audio path.
func (c *Config) ValidateAudio() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.AudioPath == "" {
		return ErrMissingAudioPath
	}
	return nil
}
