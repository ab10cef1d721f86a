package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"wiastat/domain/category"
	"wiastat/internal/errors"
	"wiastat/internal/subtype"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Logging  LoggingConfig
	Analysis AnalysisConfig
}

// DatabaseConfig holds the run store connection settings. An empty URL
// disables persistence.
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// LoggingConfig selects the zap level and encoder.
type LoggingConfig struct {
	Level  string
	Format string
}

// AnalysisConfig holds the settings that change statistical results. It is
// the part of the configuration that may come from a YAML file.
type AnalysisConfig struct {
	Alpha            float64             `yaml:"alpha"`
	Thresholds       subtype.Thresholds  `yaml:"thresholds"`
	TreatmentAliases map[string][]string `yaml:"treatment_aliases"`
	SkipDiameters    bool                `yaml:"skip_diameters"`
	Workers          int                 `yaml:"workers"`
}

// DefaultAnalysis returns the analysis settings used when nothing overrides them.
func DefaultAnalysis() AnalysisConfig {
	return AnalysisConfig{
		Alpha:      0.05,
		Thresholds: subtype.DefaultThresholds(),
		Workers:    runtime.NumCPU(),
	}
}

// Load reads configuration from environment variables and validates it.
// When WIA_CONFIG_FILE is set, the file is applied before the environment so
// that individual variables still win.
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{URL: getEnvOrDefault("DATABASE_URL", "")},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("WIA_LOG_LEVEL", "info"),
			Format: getEnvOrDefault("WIA_LOG_FORMAT", "console"),
		},
		Analysis: DefaultAnalysis(),
	}

	if path := os.Getenv("WIA_CONFIG_FILE"); path != "" {
		analysis, err := LoadAnalysisFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load analysis configuration")
		}
		config.Analysis = *analysis
	}

	config.Analysis.Alpha = getEnvFloatOrDefault("WIA_ALPHA", config.Analysis.Alpha)
	config.Analysis.Workers = getEnvIntOrDefault("WIA_WORKERS", config.Analysis.Workers)
	config.Analysis.SkipDiameters = getEnvBoolOrDefault("WIA_SKIP_DIAMETERS", config.Analysis.SkipDiameters)

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// LoadAnalysisFile reads analysis settings from a YAML file. Fields the file
// leaves out keep their defaults.
func LoadAnalysisFile(path string) (*AnalysisConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("reading config file: %w", err))
	}

	loaded := DefaultAnalysis()
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("parsing config file: %w", err))
	}
	if err := validateAnalysis(&loaded); err != nil {
		return nil, err
	}
	return &loaded, nil
}

// AliasTable returns the treatment alias table: the defaults with every type
// named in the configuration replaced by the configured aliases.
func (a AnalysisConfig) AliasTable() (category.AliasTable, error) {
	table := category.DefaultAliases()
	for name, aliases := range a.TreatmentAliases {
		typ, err := category.ParseTreatmentType(name)
		if err != nil {
			return nil, errors.ConfigInvalid(fmt.Sprintf("unknown treatment type %q in treatment_aliases", name))
		}
		cleaned := make([]string, 0, len(aliases))
		for _, alias := range aliases {
			if alias = strings.ToLower(strings.TrimSpace(alias)); alias != "" {
				cleaned = append(cleaned, alias)
			}
		}
		table[typ] = cleaned
	}
	return table, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	return validateAnalysis(&config.Analysis)
}

func validateAnalysis(a *AnalysisConfig) error {
	if a.Alpha <= 0 || a.Alpha >= 1 {
		return errors.ConfigInvalid(fmt.Sprintf("alpha must be between 0 and 1, got %g", a.Alpha))
	}
	th := a.Thresholds
	if th.FlowReserveCutoff <= 0 || th.ResistanceCutoff <= 0 {
		return errors.ConfigInvalid("thresholds cfr_cutoff and hmr_cutoff must be positive")
	}
	if a.Workers < 1 {
		a.Workers = 1
	}
	if _, err := a.AliasTable(); err != nil {
		return err
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
