package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultBaseDir = ".interviewd"

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so API keys can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.Providers.Recognition.Primary.APIKey = expandEnvVars(cfg.Providers.Recognition.Primary.APIKey)
	cfg.Providers.Recognition.Secondary.APIKey = expandEnvVars(cfg.Providers.Recognition.Secondary.APIKey)
	cfg.Providers.Generation.Primary.APIKey = expandEnvVars(cfg.Providers.Generation.Primary.APIKey)
	cfg.Providers.Generation.Secondary.APIKey = expandEnvVars(cfg.Providers.Generation.Secondary.APIKey)
	cfg.Providers.Synthesis.APIKey = expandEnvVars(cfg.Providers.Synthesis.APIKey)
	cfg.Store.RedisURL = expandEnvVars(cfg.Store.RedisURL)
}

// DefaultPath returns the default config file location, honoring
// INTERVIEWD_HOME when set.
func DefaultPath() (string, error) {
	base := os.Getenv("INTERVIEWD_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, defaultBaseDir)
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyDefaults(&cfg)
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// applyDefaults fills zero-value fields with the documented policy values.
func applyDefaults(cfg *Config) {
	if cfg.Session.DefaultDurationMinutes == 0 {
		cfg.Session.DefaultDurationMinutes = 30
	}
	if cfg.Session.WarningLeadSeconds == 0 {
		cfg.Session.WarningLeadSeconds = 120
	}
	if cfg.Session.TickIntervalSeconds == 0 {
		cfg.Session.TickIntervalSeconds = 5
	}
	if cfg.Session.PostCloseGraceSeconds == 0 {
		cfg.Session.PostCloseGraceSeconds = 3
	}
	if cfg.History.MaxTokens == 0 {
		cfg.History.MaxTokens = 4000
	}
	if cfg.History.MaxMessages == 0 {
		cfg.History.MaxMessages = 20
	}
	if cfg.History.MinMessages == 0 {
		cfg.History.MinMessages = 6
	}
	if cfg.Providers.Recognition.FailureThreshold == 0 {
		cfg.Providers.Recognition.FailureThreshold = 3
	}
	if cfg.Providers.Generation.FailureThreshold == 0 {
		cfg.Providers.Generation.FailureThreshold = 3
	}
	// Call timeouts must stay well under a few tick intervals so a hung
	// provider cannot starve the timer.
	if cfg.Providers.Recognition.CallTimeoutSeconds == 0 {
		cfg.Providers.Recognition.CallTimeoutSeconds = 10
	}
	if cfg.Providers.Generation.CallTimeoutSeconds == 0 {
		cfg.Providers.Generation.CallTimeoutSeconds = 10
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "sqlite"
	}
	if cfg.Signal.Port == 0 {
		cfg.Signal.Port = 18790
	}
	if cfg.Signal.Bind == "" {
		cfg.Signal.Bind = "127.0.0.1"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// applyEnvOverrides reads INTERVIEWD_* environment variables and overrides
// config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("INTERVIEWD_SIGNAL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Signal.Port = port
		}
	}
	if v := os.Getenv("INTERVIEWD_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("INTERVIEWD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}
