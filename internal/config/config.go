package config

import (
	"os"
	"strconv"
	"strings"

	"trialstat/internal/errors"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Data     DataConfig     `yaml:"data"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Output   OutputConfig   `yaml:"output"`
	LogLevel string         `yaml:"log_level"`
}

// DataConfig holds input settings
type DataConfig struct {
	File  string `yaml:"file"`
	Sheet string `yaml:"sheet"`
}

// AnalysisConfig names the columns and levels each step works on
type AnalysisConfig struct {
	GroupColumn      string  `yaml:"group_column"`
	GroupA           string  `yaml:"group_a"`
	GroupB           string  `yaml:"group_b"`
	OutcomeColumn    string  `yaml:"outcome_column"`
	SuccessValue     string  `yaml:"success_value"`
	CountColumn      string  `yaml:"count_column"`
	ContinuousColumn string  `yaml:"continuous_column"`
	Alpha            float64 `yaml:"alpha"`
	Alternative      string  `yaml:"alternative"`
	YatesCorrection  bool    `yaml:"yates_correction"`
}

// OutputConfig holds artifact paths
type OutputConfig struct {
	Histogram  string `yaml:"histogram"`
	HistBins   int    `yaml:"hist_bins"`
	Report     string `yaml:"report"`
	ReportJSON string `yaml:"report_json"`
}

// Default returns the configuration for the drug-safety trial
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			GroupColumn:      "trx",
			GroupA:           "Drug",
			GroupB:           "Placebo",
			OutcomeColumn:    "adverse_effects",
			SuccessValue:     "Yes",
			CountColumn:      "num_effects",
			ContinuousColumn: "age",
			Alpha:            0.05,
			Alternative:      "two-sided",
			YatesCorrection:  true,
		},
		Output: OutputConfig{
			Histogram: "age_histogram.png",
			HistBins:  30,
		},
		LogLevel: "INFO",
	}
}

// Load builds configuration from defaults, then the YAML file named by
// TRIALSTAT_CONFIG (if any), then environment variables. The data file is not
// required here; callers that need it use RequireDataFile.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv("TRIALSTAT_CONFIG"))
}

// LoadFrom is Load with an explicit YAML path; an empty path skips the file
func LoadFrom(path string) (*Config, error) {
	config := Default()

	if path != "" {
		if err := loadYAML(path, config); err != nil {
			return nil, err
		}
	}

	applyEnv(config)

	if err := Validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadYAML(path string, config *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.IOError("failed to read config file "+path, err)
	}
	if err := yaml.Unmarshal(raw, config); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, errors.Wrapf(err, "failed to parse config file %s", path))
	}
	return nil
}

func applyEnv(config *Config) {
	config.Data.File = getEnvOrDefault("DATA_FILE", config.Data.File)
	config.Data.Sheet = getEnvOrDefault("DATA_SHEET", config.Data.Sheet)

	a := &config.Analysis
	a.GroupColumn = getEnvOrDefault("GROUP_COLUMN", a.GroupColumn)
	a.GroupA = getEnvOrDefault("GROUP_A", a.GroupA)
	a.GroupB = getEnvOrDefault("GROUP_B", a.GroupB)
	a.OutcomeColumn = getEnvOrDefault("OUTCOME_COLUMN", a.OutcomeColumn)
	a.SuccessValue = getEnvOrDefault("SUCCESS_VALUE", a.SuccessValue)
	a.CountColumn = getEnvOrDefault("COUNT_COLUMN", a.CountColumn)
	a.ContinuousColumn = getEnvOrDefault("CONTINUOUS_COLUMN", a.ContinuousColumn)
	a.Alpha = getEnvFloatOrDefault("ALPHA", a.Alpha)
	a.Alternative = getEnvOrDefault("ALTERNATIVE", a.Alternative)
	a.YatesCorrection = getEnvBoolOrDefault("YATES_CORRECTION", a.YatesCorrection)

	o := &config.Output
	o.Histogram = getEnvOrDefault("HIST_OUTPUT", o.Histogram)
	o.HistBins = getEnvIntOrDefault("HIST_BINS", o.HistBins)
	o.Report = getEnvOrDefault("REPORT_OUTPUT", o.Report)
	o.ReportJSON = getEnvOrDefault("REPORT_JSON", o.ReportJSON)

	config.LogLevel = getEnvOrDefault("LOG_LEVEL", config.LogLevel)
}

// Validate checks ranges and required column names
func Validate(config *Config) error {
	a := config.Analysis
	if a.Alpha <= 0 || a.Alpha >= 1 {
		return errors.ConfigInvalid("alpha must be in (0, 1), got " + strconv.FormatFloat(a.Alpha, 'g', -1, 64))
	}
	if a.GroupA == "" || a.GroupB == "" {
		return errors.ConfigInvalid("both group levels are required")
	}
	if a.GroupA == a.GroupB {
		return errors.ConfigInvalid("group levels must differ, both are " + a.GroupA)
	}
	for name, col := range map[string]string{
		"group column":      a.GroupColumn,
		"outcome column":    a.OutcomeColumn,
		"count column":      a.CountColumn,
		"continuous column": a.ContinuousColumn,
	} {
		if strings.TrimSpace(col) == "" {
			return errors.ConfigInvalid(name + " is required")
		}
	}
	switch a.Alternative {
	case "two-sided", "less", "greater":
	default:
		return errors.ConfigInvalid("alternative must be two-sided, less or greater, got " + a.Alternative)
	}
	if config.Output.HistBins <= 0 {
		return errors.ConfigInvalid("hist bins must be positive")
	}
	return nil
}

// RequireDataFile returns the input path or a CONFIG_INVALID error
func (c *Config) RequireDataFile() (string, error) {
	if c.Data.File == "" {
		return "", errors.ConfigInvalid("DATA_FILE is required")
	}
	return c.Data.File, nil
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
