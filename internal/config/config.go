package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIAddr           string        `yaml:"api_addr"`
	ServiceBaseURL    string        `yaml:"service_base_url"`
	ServiceMode       string        `yaml:"service"`
	IngestTimeout     time.Duration `yaml:"ingest_timeout"`
	DetailTimeout     time.Duration `yaml:"detail_timeout"`
	MaxUploadBytes    int64         `yaml:"max_upload_bytes"`
	RawOutputLimit    int           `yaml:"raw_output_limit"`
	DefaultLicID      string        `yaml:"default_lic_id"`
	RequireLicID      bool          `yaml:"require_lic_id"`
	TemporalAddress   string        `yaml:"temporal_address"`
	TemporalTaskQueue string        `yaml:"temporal_task_queue"`
	LogLevel          string        `yaml:"log_level"`
	LogFormat         string        `yaml:"log_format"`
	MetricsEnabled    bool          `yaml:"metrics_enabled"`
}

func Default() Config {
	return Config{
		APIAddr:           ":8080",
		ServiceBaseURL:    "http://localhost:8000/api/v1",
		ServiceMode:       "http",
		IngestTimeout:     10 * time.Minute,
		DetailTimeout:     60 * time.Second,
		MaxUploadBytes:    64 << 20,
		RawOutputLimit:    1 << 20,
		DefaultLicID:      "LIC-TEST-001",
		TemporalAddress:   "localhost:7233",
		TemporalTaskQueue: "licitaflow",
		LogLevel:          "info",
		LogFormat:         "text",
		MetricsEnabled:    true,
	}
}

// Load starts from the defaults, applies the YAML file named by LICITA_CONFIG
// (if any) and then the LICITA_* environment variables.
func Load() (Config, error) {
	cfg := Default()
	if path := strings.TrimSpace(os.Getenv("LICITA_CONFIG")); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceBaseURL) == "" {
		return fmt.Errorf("service base url is required")
	}
	switch strings.ToLower(c.ServiceMode) {
	case "http", "mock":
	default:
		return fmt.Errorf("unsupported service mode %q", c.ServiceMode)
	}
	if c.MaxUploadBytes < 0 || c.RawOutputLimit < 0 {
		return fmt.Errorf("size limits must not be negative")
	}
	return nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.APIAddr = getenv("LICITA_API_ADDR", cfg.APIAddr)
	cfg.ServiceBaseURL = getenv("LICITA_SERVICE_BASE_URL", cfg.ServiceBaseURL)
	cfg.ServiceMode = getenv("LICITA_SERVICE", cfg.ServiceMode)
	cfg.IngestTimeout = getenvDuration("LICITA_INGEST_TIMEOUT", cfg.IngestTimeout)
	cfg.DetailTimeout = getenvDuration("LICITA_DETAIL_TIMEOUT", cfg.DetailTimeout)
	cfg.MaxUploadBytes = int64(getenvInt("LICITA_MAX_UPLOAD_BYTES", int(cfg.MaxUploadBytes)))
	cfg.RawOutputLimit = getenvInt("LICITA_RAW_OUTPUT_LIMIT", cfg.RawOutputLimit)
	cfg.DefaultLicID = getenv("LICITA_DEFAULT_LIC_ID", cfg.DefaultLicID)
	cfg.RequireLicID = getenvBool("LICITA_REQUIRE_LIC_ID", cfg.RequireLicID)
	cfg.TemporalAddress = getenv("LICITA_TEMPORAL_ADDRESS", cfg.TemporalAddress)
	cfg.TemporalTaskQueue = getenv("LICITA_TEMPORAL_TASK_QUEUE", cfg.TemporalTaskQueue)
	cfg.LogLevel = getenv("LICITA_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getenv("LICITA_LOG_FORMAT", cfg.LogFormat)
	cfg.MetricsEnabled = getenvBool("LICITA_METRICS_ENABLED", cfg.MetricsEnabled)
}

func getenv(k, fallback string) string {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(k string, fallback bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvDuration(k string, fallback time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
