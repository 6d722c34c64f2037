package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

// Storage backends.
const (
	StorageMemory    = "memory"
	StorageFirestore = "firestore"
	StorageSQLite    = "sqlite"
)

type Config struct {
	Mode     Mode   `mapstructure:"mode"`
	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	GCPProjectID string `mapstructure:"gcp_project"`
	GCPLocation  string `mapstructure:"gcp_location"`
	APIKey       string `mapstructure:"api_key"`

	ModelOrder     []string      `mapstructure:"model_order"`
	UseMockLLM     bool          `mapstructure:"use_mock_llm"` // true = use mock even on GCP
	PerCallTimeout time.Duration `mapstructure:"per_call_timeout"`
	HistoryLimit   int           `mapstructure:"history_limit"`

	StorageBackend string `mapstructure:"storage_backend"` // "memory", "firestore" or "sqlite"
	SQLitePath     string `mapstructure:"sqlite_path"`

	KnowledgePath     string   `mapstructure:"knowledge_path"`
	KnowledgeKeywords []string `mapstructure:"knowledge_keywords"`
	KnowledgeMaxChars int      `mapstructure:"knowledge_max_chars"`

	Locale          string `mapstructure:"locale"`
	CaptureCommand  string `mapstructure:"capture_command"`
	PlaybackCommand string `mapstructure:"playback_command"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", string(ModeLocal))
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")

	v.SetDefault("gcp_project", "")
	v.SetDefault("gcp_location", "us-central1")
	v.SetDefault("api_key", "")

	v.SetDefault("model_order", []string{"gemini-2.5-flash", "gemini-2.5-flash-latest", "gemini-pro", "gemini-2.0-pro"})
	v.SetDefault("per_call_timeout", 30*time.Second)
	v.SetDefault("history_limit", 20)

	v.SetDefault("storage_backend", StorageMemory)
	v.SetDefault("sqlite_path", "healthai.db")

	v.SetDefault("knowledge_path", "")
	v.SetDefault("knowledge_keywords", []string{"estrés", "ansiedad", "depresión", "tristeza", "miedo", "preocupación", "angustia"})
	v.SetDefault("knowledge_max_chars", 12000)

	v.SetDefault("locale", "es-ES")
	v.SetDefault("capture_command", "")
	v.SetDefault("playback_command", "")
}

// Load reads defaults, an optional YAML file and HEALTHAI_* env vars, in
// increasing precedence. An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("HEALTHAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	// use_mock_llm defaults to true only in local mode.
	v.SetDefault("use_mock_llm", Mode(v.GetString("mode")) != ModeGCP)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Comma-separated lists arrive as a single element from env vars.
	cfg.ModelOrder = splitList(cfg.ModelOrder)
	cfg.KnowledgeKeywords = splitList(cfg.KnowledgeKeywords)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate performs the minimal checks needed to start.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeLocal, ModeGCP:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}

	switch c.StorageBackend {
	case StorageMemory, StorageSQLite:
	case StorageFirestore:
		if c.GCPProjectID == "" {
			return errors.New("HEALTHAI_GCP_PROJECT is required for the firestore storage backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}

	if c.Mode == ModeGCP && c.GCPProjectID == "" {
		return errors.New("HEALTHAI_GCP_PROJECT must be set in gcp mode")
	}
	if !c.UseMockLLM && c.GCPProjectID == "" && c.APIKey == "" {
		return errors.New("HEALTHAI_GCP_PROJECT or HEALTHAI_API_KEY is required unless the mock LLM is used")
	}
	if len(c.ModelOrder) == 0 {
		return errors.New("model_order must list at least one model")
	}
	return nil
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
