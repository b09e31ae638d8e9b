package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"martisim/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Log        LogConfig
	Simulation SimulationConfig
	Output     OutputConfig
	Server     ServerConfig
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
}

// SimulationConfig holds trial execution settings
type SimulationConfig struct {
	Workers int
	// Seed is nil when runs draw their seed from OS entropy
	Seed *int64
	// Trials and SampleSize override every mode when positive
	Trials     int
	SampleSize int
	ModesFile  string
	Confidence float64
}

// OutputConfig holds report and export settings
type OutputConfig struct {
	ExportXLSX   string
	MarkdownFile string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// RunCapacity bounds the runs kept in memory
	RunCapacity int
}

// HasSeed reports whether a fixed base seed was configured
func (s SimulationConfig) HasSeed() bool {
	return s.Seed != nil
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Log: LogConfig{
			Level: strings.ToUpper(getEnvOrDefault("LOG_LEVEL", "INFO")),
		},
		Output: OutputConfig{
			ExportXLSX:   getEnvOrDefault("EXPORT_XLSX", ""),
			MarkdownFile: getEnvOrDefault("EXPORT_MARKDOWN", ""),
		},
		Server: ServerConfig{
			Port:         getEnvOrDefault("PORT", "8080"),
			ReadTimeout:  getEnvDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDurationOrDefault("SERVER_WRITE_TIMEOUT", 10*time.Minute),
			RunCapacity:  getEnvIntOrDefault("SERVER_RUN_CAPACITY", 64),
		},
	}

	simConfig, err := loadSimulationConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load simulation configuration")
	}
	config.Simulation = *simConfig

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadSimulationConfig() (*SimulationConfig, error) {
	sim := &SimulationConfig{
		Workers:    getEnvIntOrDefault("SIM_WORKERS", runtime.NumCPU()),
		Trials:     getEnvIntOrDefault("SIM_TRIALS", 0),
		SampleSize: getEnvIntOrDefault("SIM_SAMPLE_SIZE", 0),
		ModesFile:  getEnvOrDefault("MODES_FILE", ""),
		Confidence: getEnvFloatOrDefault("SIM_CONFIDENCE", 0.95),
	}

	// A malformed seed must not silently turn a reproducible run into a random one
	if value := os.Getenv("SIM_SEED"); value != "" {
		seed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, errors.ConfigInvalid("SIM_SEED must be an integer, got " + strconv.Quote(value))
		}
		sim.Seed = &seed
	}

	return sim, nil
}

func validateConfig(config *Config) error {
	switch config.Log.Level {
	case "ERROR", "WARN", "INFO", "DEBUG":
	default:
		return errors.ConfigInvalid("LOG_LEVEL must be one of ERROR, WARN, INFO, DEBUG")
	}
	if config.Simulation.Workers <= 0 {
		return errors.ConfigInvalid("SIM_WORKERS must be positive")
	}
	if config.Simulation.Trials < 0 {
		return errors.ConfigInvalid("SIM_TRIALS cannot be negative")
	}
	if config.Simulation.SampleSize < 0 {
		return errors.ConfigInvalid("SIM_SAMPLE_SIZE cannot be negative")
	}
	if c := config.Simulation.Confidence; c <= 0 || c >= 1 {
		return errors.ConfigInvalid("SIM_CONFIDENCE must be in (0, 1)")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if config.Server.RunCapacity <= 0 {
		return errors.ConfigInvalid("SERVER_RUN_CAPACITY must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
