package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

const EnvPrefix = "SPEECH_COACH"

type Generator struct {
	Backend         string  `mapstructure:"backend"` // "gemini", "http" or "mock"
	Model           string  `mapstructure:"model"`
	APIKey          string  `mapstructure:"api_key"`
	Endpoint        string  `mapstructure:"endpoint"`
	Location        string  `mapstructure:"location"`
	Temperature     float32 `mapstructure:"temperature"`
	TopK            float32 `mapstructure:"top_k"`
	TopP            float32 `mapstructure:"top_p"`
	MaxOutputTokens int32   `mapstructure:"max_output_tokens"`
}

type Analysis struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	MinSeconds      float64       `mapstructure:"min_seconds"`
	ContextCapacity int           `mapstructure:"context_capacity"`
}

type History struct {
	Capacity   int     `mapstructure:"capacity"`
	MinSeconds float64 `mapstructure:"min_seconds"`
}

type Storage struct {
	Backend    string `mapstructure:"backend"` // "memory", "sqlite" or "firestore"
	SQLitePath string `mapstructure:"sqlite_path"`
	GCPProject string `mapstructure:"gcp_project"`
	Collection string `mapstructure:"collection"`
}

type Speech struct {
	Socket string `mapstructure:"socket"`
	Locale string `mapstructure:"locale"`
}

type Metrics struct {
	FillerWords     []string `mapstructure:"filler_words"`
	FillerWordsFile string   `mapstructure:"filler_words_file"`
}

type Config struct {
	Mode     Mode   `mapstructure:"mode"`
	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	Generator Generator `mapstructure:"generator"`
	Analysis  Analysis  `mapstructure:"analysis"`
	History   History   `mapstructure:"history"`
	Storage   Storage   `mapstructure:"storage"`
	Speech    Speech    `mapstructure:"speech"`
	Metrics   Metrics   `mapstructure:"metrics"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", string(ModeLocal))
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")

	v.SetDefault("generator.backend", "mock")
	v.SetDefault("generator.model", "gemini-2.5-flash")
	v.SetDefault("generator.api_key", "")
	v.SetDefault("generator.endpoint", "")
	v.SetDefault("generator.location", "us-central1")
	v.SetDefault("generator.temperature", 0.7)
	v.SetDefault("generator.top_k", 40)
	v.SetDefault("generator.top_p", 0.95)
	v.SetDefault("generator.max_output_tokens", 1024)

	v.SetDefault("analysis.timeout", "45s")
	v.SetDefault("analysis.min_seconds", 10)
	v.SetDefault("analysis.context_capacity", 10)

	v.SetDefault("history.capacity", 20)
	v.SetDefault("history.min_seconds", 5)

	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.sqlite_path", "speech-coach.db")
	v.SetDefault("storage.gcp_project", "")
	v.SetDefault("storage.collection", "speech_coach_kv")

	v.SetDefault("speech.socket", "")
	v.SetDefault("speech.locale", "en-US")
	v.SetDefault("metrics.filler_words", []string{})
	v.SetDefault("metrics.filler_words_file", "")
}

// Load builds the config from defaults, an optional YAML file and
// SPEECH_COACH_* environment variables, in increasing precedence. An empty
// path falls back to $SPEECH_COACH_CONFIG.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if cfg.Metrics.FillerWordsFile != "" {
		words, err := LoadFillerWords(cfg.Metrics.FillerWordsFile)
		if err != nil {
			return nil, err
		}
		cfg.Metrics.FillerWords = append(cfg.Metrics.FillerWords, words...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFillerWords reads a YAML list of filler words or phrases.
func LoadFillerWords(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading filler words: %w", err)
	}

	var words []string
	if err := yaml.Unmarshal(data, &words); err != nil {
		return nil, fmt.Errorf("parsing filler words %s: %w", path, err)
	}
	return words, nil
}

// Validate rejects unknown backends and missing required settings.
func (c *Config) Validate() error {
	var errs []error

	switch c.Mode {
	case ModeLocal, ModeGCP:
	default:
		errs = append(errs, fmt.Errorf("unknown mode %q", c.Mode))
	}

	switch c.Generator.Backend {
	case "gemini", "mock":
	case "http":
		if c.Generator.Endpoint == "" {
			errs = append(errs, errors.New("generator.endpoint is required for the http backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown generator backend %q", c.Generator.Backend))
	}

	switch c.Storage.Backend {
	case "memory":
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("storage.sqlite_path is required for the sqlite backend"))
		}
	case "firestore":
		if c.Storage.GCPProject == "" {
			errs = append(errs, errors.New("storage.gcp_project is required for the firestore backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}

	if c.Mode == ModeGCP && c.Storage.GCPProject == "" {
		errs = append(errs, errors.New("storage.gcp_project must be set in gcp mode"))
	}
	if c.Analysis.Timeout <= 0 {
		errs = append(errs, errors.New("analysis.timeout must be positive"))
	}

	return errors.Join(errs...)
}
