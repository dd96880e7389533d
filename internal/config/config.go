package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ExtractorConfig holds the settings for the replay processing pipeline.
type ExtractorConfig struct {
	WtExtCliPath string   `yaml:"wt_ext_cli"`
	Timeout      string   `yaml:"timeout"`
	Formats      []string `yaml:"formats"`
	OutputDir    string   `yaml:"output_dir"`
	NumWorkers   int      `yaml:"num_workers"`
	Verbose      bool     `yaml:"verbose"`

	// KeepUnmatchedPlayers keeps battle stats that have no player profile,
	// with an identity holding only the user id.
	KeepUnmatchedPlayers bool `yaml:"keep_unmatched_players"`
}

// WriterDef defines a single output writer from the config file.
type WriterDef struct {
	Type    string `yaml:"type"`
	Enabled bool   `yaml:"enabled"`
}

// ClickHouseConfig holds the connection settings for ClickHouse.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// NATSConfig holds the NATS connection and subject settings.
type NATSConfig struct {
	URL           string `yaml:"url"`
	RawSubject    string `yaml:"raw_subject"`
	RecordSubject string `yaml:"record_subject"`
}

// APIConfig holds the settings for the HTTP API server.
type APIConfig struct {
	ListenAddr     string `yaml:"listen_addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// EngineConfig holds the settings for the long-running engine.
type EngineConfig struct {
	HealthAddr string `yaml:"health_addr"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Extractor  ExtractorConfig  `yaml:"extractor"`
	Writers    []WriterDef      `yaml:"writers"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	NATS       NATSConfig       `yaml:"nats"`
	API        APIConfig        `yaml:"api"`
	Engine     EngineConfig     `yaml:"engine"`
}

// Default returns a configuration usable without any config file.
func Default() *Config {
	return &Config{
		Extractor: ExtractorConfig{
			WtExtCliPath: "./wt_ext_cli",
			Timeout:      "30s",
			Formats:      []string{"json"},
			NumWorkers:   4,
		},
		ClickHouse: ClickHouseConfig{
			Host:     "localhost",
			Port:     9000,
			Database: "default",
			Username: "default",
		},
		NATS: NATSConfig{
			URL:           "nats://127.0.0.1:4222",
			RawSubject:    "wrpl.replays.raw",
			RecordSubject: "wrpl.replays.records",
		},
		API: APIConfig{
			ListenAddr:     ":8080",
			MaxUploadBytes: 64 << 20,
		},
		Engine: EngineConfig{
			HealthAddr: ":50051",
		},
	}
}

// LoadConfig reads the configuration from a YAML file and returns a Config struct.
// Values missing from the file keep their defaults.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be defaulted silently.
func (c *Config) Validate() error {
	timeout, err := c.Extractor.TimeoutDuration()
	if err != nil {
		return err
	}
	if timeout <= 0 {
		return fmt.Errorf("extractor timeout must be a positive duration")
	}
	if c.Extractor.NumWorkers <= 0 {
		return fmt.Errorf("extractor num_workers must be positive, got %d", c.Extractor.NumWorkers)
	}
	for _, format := range c.Extractor.Formats {
		if format != "json" && format != "txt" {
			return fmt.Errorf("unsupported output format: '%s'", format)
		}
	}
	return nil
}

// TimeoutDuration parses the decoding service timeout.
func (e ExtractorConfig) TimeoutDuration() (time.Duration, error) {
	d, err := time.ParseDuration(e.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid extractor timeout: %w", err)
	}
	return d, nil
}
