package config

// #region imports
import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// #endregion

// #region config-struct

// Config is the full configuration surface of the reliability layer.
// Values come from an optional YAML file, overridden by environment
// variables. API keys are environment-only and never read from the file.
type Config struct {
	QualityThreshold          float64 `yaml:"quality_threshold"`
	MaxRetries                int     `yaml:"max_retries"`
	MaxAttempts               int     `yaml:"max_attempts"`
	InitialDelaySecs          float64 `yaml:"initial_delay_secs"`
	MaxDelaySecs              float64 `yaml:"max_delay_secs"`
	ExponentialBase           float64 `yaml:"exponential_base"`
	Jitter                    bool    `yaml:"jitter"`
	ProgressiveSimplification bool    `yaml:"progressive_simplification"`

	OracleAddr   string `yaml:"oracle_addr"`
	OracleModel  string `yaml:"oracle_model"`
	OracleAPIKey string `yaml:"-"`

	BackendAddr   string `yaml:"backend_addr"`
	BackendAPIKey string `yaml:"-"`

	DBPath     string `yaml:"db_path"`
	ReportsDir string `yaml:"reports_dir"`
}

// #endregion config-struct

// #region defaults

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		QualityThreshold:          0.7,
		MaxRetries:                2,
		MaxAttempts:               3,
		InitialDelaySecs:          2,
		MaxDelaySecs:              60,
		ExponentialBase:           2.0,
		Jitter:                    true,
		ProgressiveSimplification: true,
		OracleModel:               "gemini-1.5-flash",
		DBPath:                    "reliability.db",
		ReportsDir:                "reports",
	}
}

// #endregion defaults

// #region load

// Load builds the configuration from defaults, an optional YAML file, and
// environment overrides, then validates it. Configuration errors are fatal
// at startup; callers should not attempt recovery.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// #endregion load

// #region env-overrides

func (c *Config) applyEnv() {
	if v := os.Getenv("QUALITY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.QualityThreshold = f
		}
	}
	if v := os.Getenv("MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = n
		}
	}
	if v := os.Getenv("MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxAttempts = n
		}
	}
	if v := os.Getenv("INITIAL_DELAY_SECS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.InitialDelaySecs = f
		}
	}
	if v := os.Getenv("MAX_DELAY_SECS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.MaxDelaySecs = f
		}
	}
	if v := os.Getenv("EXPONENTIAL_BASE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.ExponentialBase = f
		}
	}
	if v := os.Getenv("RETRY_JITTER"); v != "" {
		c.Jitter = v == "true" || v == "1"
	}
	if v := os.Getenv("PROGRESSIVE_SIMPLIFICATION"); v != "" {
		c.ProgressiveSimplification = v == "true" || v == "1"
	}
	if v := os.Getenv("ORACLE_ADDR"); v != "" {
		c.OracleAddr = v
	}
	if v := os.Getenv("ORACLE_MODEL"); v != "" {
		c.OracleModel = v
	}
	if v := os.Getenv("ORACLE_API_KEY"); v != "" {
		c.OracleAPIKey = v
	}
	if v := os.Getenv("BACKEND_ADDR"); v != "" {
		c.BackendAddr = v
	}
	if v := os.Getenv("BACKEND_API_KEY"); v != "" {
		c.BackendAPIKey = v
	}
	if v := os.Getenv("RELIABILITY_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("REPORTS_DIR"); v != "" {
		c.ReportsDir = v
	}
}

// #endregion env-overrides

// #region validate

// Validate checks thresholds, budgets, and credentials.
func (c Config) Validate() error {
	if c.QualityThreshold <= 0 || c.QualityThreshold > 1 {
		return fmt.Errorf("quality_threshold %.2f must be in (0, 1]", c.QualityThreshold)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries %d must be >= 0", c.MaxRetries)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts %d must be >= 1", c.MaxAttempts)
	}
	if c.InitialDelaySecs <= 0 {
		return fmt.Errorf("initial_delay_secs %.2f must be > 0", c.InitialDelaySecs)
	}
	if c.MaxDelaySecs < c.InitialDelaySecs {
		return fmt.Errorf("max_delay_secs %.2f must be >= initial_delay_secs %.2f", c.MaxDelaySecs, c.InitialDelaySecs)
	}
	if c.ExponentialBase <= 1 {
		return fmt.Errorf("exponential_base %.2f must be > 1", c.ExponentialBase)
	}
	if c.OracleAPIKey == "" {
		return fmt.Errorf("oracle api key is required (set ORACLE_API_KEY)")
	}
	if c.BackendAPIKey == "" {
		return fmt.Errorf("backend api key is required (set BACKEND_API_KEY)")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if c.ReportsDir == "" {
		return fmt.Errorf("reports_dir must not be empty")
	}
	return nil
}

// #endregion validate

// #region durations

// InitialDelay returns the initial backoff delay as a duration.
func (c Config) InitialDelay() time.Duration {
	return time.Duration(c.InitialDelaySecs * float64(time.Second))
}

// MaxDelay returns the backoff delay cap as a duration.
func (c Config) MaxDelay() time.Duration {
	return time.Duration(c.MaxDelaySecs * float64(time.Second))
}

// #endregion durations
