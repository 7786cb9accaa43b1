package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// ExcelCellLimit is the longest text an xlsx cell holds.
const ExcelCellLimit = 32767

type Config struct {
	ReportFile      string   `yaml:"report_file"`
	JSONReportFile  string   `yaml:"json_report_file"`
	Mode            string   `yaml:"mode"`
	Truncate        bool     `yaml:"truncate"`
	TruncateLength  int      `yaml:"truncate_length"`
	Exclude         []string `yaml:"exclude"`
	Workers         int      `yaml:"workers"`
	ContinueOnError bool     `yaml:"continue_on_error"`
}

func DefaultConfig() *Config {
	return &Config{
		ReportFile:     "delta_report.xlsx",
		Mode:           "content",
		TruncateLength: ExcelCellLimit,
		Exclude:        []string{},
	}
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	// Initialize Exclude slice if nil (for configs with an explicit null)
	if cfg.Exclude == nil {
		cfg.Exclude = []string{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	switch c.Mode {
	case "timestamp", "ts", "content":
	default:
		return fmt.Errorf("%w: mode must be timestamp or content, got %q", ErrInvalidConfig, c.Mode)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidConfig)
	}
	if c.TruncateLength <= 0 {
		return fmt.Errorf("%w: truncate_length must be positive", ErrInvalidConfig)
	}
	if c.ReportFile == "" {
		return fmt.Errorf("%w: report_file is required", ErrInvalidConfig)
	}
	return nil
}

// TruncateAt returns the cell length limit for report text, or zero when
// truncation is off.
func (c *Config) TruncateAt() int {
	if !c.Truncate {
		return 0
	}
	return c.TruncateLength
}
