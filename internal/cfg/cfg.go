// Package cfg loads and validates the pipeline configuration. A YAML
// file named by CONFIG_FILE is preferred; every value can be overridden
// (or supplied outright) through MDPOST_* environment variables, with a
// .env file honored when present.
package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	OutDir         string
	DataPath       string
	TrainingURL    string
	WatchURL       string
	Models         []string
	StatMethods    []string
	VarianceCutoff float64
	CompatShift    bool
	MetricsPort    int
	RESTTimeout    time.Duration
}

type ConfigFile struct {
	Output struct {
		Dir string `yaml:"dir"`
	} `yaml:"output"`

	Artifacts struct {
		DataPath    string `yaml:"dataPath"`
		TrainingURL string `yaml:"trainingURL"`
		WatchURL    string `yaml:"watchURL"`
		RESTTimeout string `yaml:"restTimeout"`
	} `yaml:"artifacts"`

	Processing struct {
		Models         []string `yaml:"models"`
		StatMethods    []string `yaml:"statMethods"`
		VarianceCutoff float64  `yaml:"varianceCutoff"`
		CompatShift    bool     `yaml:"compatShift"`
	} `yaml:"processing"`

	System struct {
		MetricsPort int `yaml:"metricsPort"`
	} `yaml:"system"`
}

func Load() (Settings, error) {
	// Local .env files are a convenience for development; absence is fine.
	_ = godotenv.Load()

	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	restTimeout, err := time.ParseDuration(config.Artifacts.RESTTimeout)
	if err != nil {
		restTimeout = 10 * time.Second
	}

	settings := Settings{
		OutDir:         getEnvOrDefault("MDPOST_OUT_DIR", config.Output.Dir),
		DataPath:       getEnvOrDefault("MDPOST_DATA_PATH", config.Artifacts.DataPath),
		TrainingURL:    getEnvOrDefault("MDPOST_TRAINING_URL", config.Artifacts.TrainingURL),
		WatchURL:       getEnvOrDefault("MDPOST_WATCH_URL", config.Artifacts.WatchURL),
		Models:         splitOrDefault(os.Getenv("MDPOST_MODELS"), config.Processing.Models),
		StatMethods:    splitOrDefault(os.Getenv("MDPOST_STAT_METHODS"), config.Processing.StatMethods),
		VarianceCutoff: getFloatFromEnvOrConfig("MDPOST_VARIANCE_CUTOFF", config.Processing.VarianceCutoff),
		CompatShift:    getBoolFromEnvOrConfig("MDPOST_COMPAT_SHIFT", config.Processing.CompatShift),
		MetricsPort:    getIntFromEnvOrConfig("MDPOST_METRICS_PORT", config.System.MetricsPort),
		RESTTimeout:    restTimeout,
	}
	applyDefaults(&settings)

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		OutDir:         getEnvOrDefault("MDPOST_OUT_DIR", "post_processing"),
		DataPath:       os.Getenv("MDPOST_DATA_PATH"), // optional, empty disables the store
		TrainingURL:    os.Getenv("MDPOST_TRAINING_URL"),
		WatchURL:       os.Getenv("MDPOST_WATCH_URL"),
		Models:         splitOrDefault(os.Getenv("MDPOST_MODELS"), nil),
		StatMethods:    splitOrDefault(os.Getenv("MDPOST_STAT_METHODS"), nil),
		VarianceCutoff: getFloatOrDefault("MDPOST_VARIANCE_CUTOFF", 0.95),
		CompatShift:    getBoolOrDefault("MDPOST_COMPAT_SHIFT", false),
		MetricsPort:    getIntOrDefault("MDPOST_METRICS_PORT", 8080),
		RESTTimeout:    getDurationOrDefault("MDPOST_REST_TIMEOUT", 10*time.Second),
	}
	applyDefaults(&settings)

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func applyDefaults(s *Settings) {
	if s.OutDir == "" {
		s.OutDir = "post_processing"
	}
	if s.VarianceCutoff == 0 {
		s.VarianceCutoff = 0.95
	}
	if s.MetricsPort == 0 {
		s.MetricsPort = 8080
	}
}

func validateSettings(s *Settings) error {
	if s.VarianceCutoff <= 0 || s.VarianceCutoff >= 1 {
		return fmt.Errorf("variance cutoff must be in (0, 1), got %v", s.VarianceCutoff)
	}
	if s.MetricsPort < 0 || s.MetricsPort > 65535 {
		return fmt.Errorf("metrics port %d out of range", s.MetricsPort)
	}
	if s.TrainingURL == "" && s.DataPath == "" {
		return fmt.Errorf("either a training service URL or an artifact data path is required")
	}
	for _, m := range s.StatMethods {
		switch m {
		case "jensen_shannon", "mutual_information", "linear_correlation":
		default:
			return fmt.Errorf("unknown statistical method %q", m)
		}
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue int) int {
	return getIntOrDefault(key, configValue)
}

func getFloatFromEnvOrConfig(key string, configValue float64) float64 {
	return getFloatOrDefault(key, configValue)
}

func getBoolFromEnvOrConfig(key string, configValue bool) bool {
	return getBoolOrDefault(key, configValue)
}

func splitOrDefault(v string, defaultValue []string) []string {
	if v == "" {
		return defaultValue
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
