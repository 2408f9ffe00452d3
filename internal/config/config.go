// Package config loads interviewd configuration from YAML with environment
// overrides.
package config

// Config is the root configuration for interviewd.
type Config struct {
	Session   SessionConfig   `yaml:"session,omitempty"`
	History   HistoryConfig   `yaml:"history,omitempty"`
	Providers ProvidersConfig `yaml:"providers,omitempty"`
	Store     StoreConfig     `yaml:"store,omitempty"`
	Signal    SignalConfig    `yaml:"signal,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
}

// SessionConfig holds the session timing policy. Values are policy
// constants, not hidden defaults: a booking whose slot lookup fails runs
// for DefaultDurationMinutes.
type SessionConfig struct {
	DefaultDurationMinutes int `yaml:"defaultDurationMinutes,omitempty"`
	WarningLeadSeconds     int `yaml:"warningLeadSeconds,omitempty"`
	TickIntervalSeconds    int `yaml:"tickIntervalSeconds,omitempty"`
	PostCloseGraceSeconds  int `yaml:"postCloseGraceSeconds,omitempty"`
}

// HistoryConfig bounds the conversation window handed to the generation
// provider.
type HistoryConfig struct {
	MaxTokens   int `yaml:"maxTokens,omitempty"`
	MaxMessages int `yaml:"maxMessages,omitempty"`
	MinMessages int `yaml:"minMessages,omitempty"`
}

// ProvidersConfig configures the redundant capability providers.
type ProvidersConfig struct {
	Recognition CapabilityConfig `yaml:"recognition,omitempty"`
	Generation  CapabilityConfig `yaml:"generation,omitempty"`
	Synthesis   SynthesisConfig  `yaml:"synthesis,omitempty"`
}

// CapabilityConfig is the failover policy for one capability.
type CapabilityConfig struct {
	Primary            ProviderEntry `yaml:"primary,omitempty"`
	Secondary          ProviderEntry `yaml:"secondary,omitempty"`
	FailureThreshold   int           `yaml:"failureThreshold,omitempty"`
	CallTimeoutSeconds int           `yaml:"callTimeoutSeconds,omitempty"`
}

// ProviderEntry identifies one provider implementation and its credentials.
type ProviderEntry struct {
	Name   string `yaml:"name,omitempty"`   // "gemini" | "google-stt" | "mock"
	APIKey string `yaml:"apiKey,omitempty"` // supports ${ENV_VAR} expansion
	Model  string `yaml:"model,omitempty"`
}

// SynthesisConfig configures the fire-and-forget speech synthesis hand-off.
type SynthesisConfig struct {
	Name   string `yaml:"name,omitempty"`
	APIKey string `yaml:"apiKey,omitempty"`
	Voice  string `yaml:"voice,omitempty"`
}

// StoreConfig selects the durable transcript store driver.
type StoreConfig struct {
	Driver   string `yaml:"driver,omitempty"` // "sqlite" | "redis" | "memory"
	Path     string `yaml:"path,omitempty"`   // sqlite database path
	RedisURL string `yaml:"redisUrl,omitempty"`
}

// SignalConfig controls the WebSocket signal server.
type SignalConfig struct {
	Port int    `yaml:"port,omitempty"`
	Bind string `yaml:"bind,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
}
