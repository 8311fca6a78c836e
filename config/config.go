package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Server configures the HTTP listener.
type Server struct {
	Addr string `yaml:"addr"`
}

// Model configures the invoker backing every persona turn.
type Model struct {
	// Provider selects the adapter: mock, ollama, openai, anthropic or
	// bedrock.
	Provider string `yaml:"provider"`
	// ID is the provider-specific model identifier.
	ID string `yaml:"id"`
	// OllamaHost is the Ollama base URL when Provider is "ollama".
	OllamaHost string `yaml:"ollama_host"`
	// Region is the AWS region when Provider is "bedrock".
	Region      string  `yaml:"region"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// Round configures how rounds are assembled.
type Round struct {
	// Personas pins the roster subset used for every round. Empty means a
	// random pick of PersonaCount names per round.
	Personas     []string `yaml:"personas"`
	PersonaCount int      `yaml:"persona_count"`
	// TopicPrefix prefixes every round's topic base.
	TopicPrefix string `yaml:"topic_prefix"`
}

// Objectives configures the hidden-objective selector.
type Objectives struct {
	Enabled           bool    `yaml:"enabled"`
	ChancePerRound    float64 `yaml:"chance_per_round"`
	MaxActivePerRound int     `yaml:"max_active_per_round"`
	DurationMessages  int     `yaml:"duration_messages"`
	CooldownRounds    int     `yaml:"cooldown_rounds"`
}

// Logging configures the structured logger.
type Logging struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

// Config is the full runtime configuration.
type Config struct {
	Server     Server     `yaml:"server"`
	Model      Model      `yaml:"model"`
	Round      Round      `yaml:"round"`
	Objectives Objectives `yaml:"objectives"`
	Logging    Logging    `yaml:"logging"`
}

// Default returns the configuration used when no file or environment
// overrides are present: a local Ollama deployment with the full random
// roster and objectives on.
func Default() Config {
	return Config{
		Server: Server{Addr: ":8080"},
		Model: Model{
			Provider:    "ollama",
			ID:          "qwen2.5:14b",
			OllamaHost:  "http://ollama:11434",
			Region:      "ap-southeast-2",
			Temperature: 0.7,
			MaxTokens:   1024,
		},
		Round: Round{
			PersonaCount: 3,
			TopicPrefix:  "rounds",
		},
		Objectives: Objectives{
			Enabled:           true,
			ChancePerRound:    0.33,
			MaxActivePerRound: 1,
			DurationMessages:  2,
			CooldownRounds:    4,
		},
		Logging: Logging{Level: "info", Format: "text"},
	}
}

// Load reads a YAML file over the defaults and applies environment
// overrides. The path must exist; call FromEnv when running without a file.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv returns the defaults with environment overrides applied.
func FromEnv() (Config, error) {
	cfg := Default()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv maps the deployment environment onto the config. MODEL_ID wins
// over OLLAMA_MODEL when both are set.
func (c *Config) applyEnv() {
	if v := os.Getenv("PARLEY_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("MODEL_PROVIDER"); v != "" {
		c.Model.Provider = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		c.Model.OllamaHost = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" && c.Model.Provider == "ollama" {
		c.Model.ID = v
	}
	if v := os.Getenv("MODEL_ID"); v != "" {
		c.Model.ID = v
	}
	if v := os.Getenv("AWS_DEFAULT_REGION"); v != "" {
		c.Model.Region = v
	}
}

// Validate reports the first configuration error found.
func (c Config) Validate() error {
	switch c.Model.Provider {
	case "mock", "ollama", "openai", "anthropic", "bedrock":
	default:
		return fmt.Errorf("config: unknown model provider %q", c.Model.Provider)
	}
	if c.Model.ID == "" && c.Model.Provider != "mock" && c.Model.Provider != "bedrock" {
		return fmt.Errorf("config: model id is required for provider %q", c.Model.Provider)
	}
	if c.Model.MaxTokens <= 0 {
		return fmt.Errorf("config: max_tokens must be positive, got %d", c.Model.MaxTokens)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("config: server addr is required")
	}
	if c.Round.PersonaCount < 1 {
		return fmt.Errorf("config: persona_count must be >= 1, got %d", c.Round.PersonaCount)
	}
	if c.Round.TopicPrefix == "" {
		return fmt.Errorf("config: topic_prefix is required")
	}
	if c.Objectives.ChancePerRound < 0 || c.Objectives.ChancePerRound > 1 {
		return fmt.Errorf("config: chance_per_round must be within [0,1], got %v", c.Objectives.ChancePerRound)
	}
	if c.Objectives.MaxActivePerRound < 0 {
		return fmt.Errorf("config: max_active_per_round must be >= 0, got %d", c.Objectives.MaxActivePerRound)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Logging.Format)
	}
	return nil
}
