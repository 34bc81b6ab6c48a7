package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for a churn-rfm run
type Config struct {
	Input   InputConfig  `yaml:"input"`
	Model   ModelConfig  `yaml:"model"`
	Output  OutputConfig `yaml:"output"`
	AWS     AWSConfig    `yaml:"aws"`
	Predict *bool        `yaml:"predict"`
	Verbose bool         `yaml:"verbose"`
}

// InputConfig selects where customer records come from: a CSV URI or a
// MySQL/MariaDB table.
type InputConfig struct {
	CSV   string `yaml:"csv"`   // local path, "-" or s3://bucket/key
	DSN   string `yaml:"dsn"`   // mysql:// or mariadb:// URL, or native DSN
	Table string `yaml:"table"` // table read when DSN is set
}

// ModelConfig locates the predictor artifact
type ModelConfig struct {
	Path string `yaml:"path"`
}

// OutputConfig holds export destinations
type OutputConfig struct {
	Path        string `yaml:"path"`         // full enriched table
	SummaryPath string `yaml:"summary_path"` // Churn Prediction, RFM_Score, Customer_Segment; optional
}

// AWSConfig is used for s3:// URIs
type AWSConfig struct {
	Region string `yaml:"region"`
}

// PredictEnabled reports whether prediction should run (default true).
func (c *Config) PredictEnabled() bool {
	return c.Predict == nil || *c.Predict
}

// Validate checks that exactly one input source is configured.
func (c *Config) Validate() error {
	switch {
	case c.Input.CSV == "" && c.Input.DSN == "":
		return errors.New("no input: set input.csv or input.dsn")
	case c.Input.CSV != "" && c.Input.DSN != "":
		return errors.New("ambiguous input: set only one of input.csv and input.dsn")
	}
	return nil
}

// Load reads configuration from a YAML file. An empty path yields defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}

	// Set defaults
	if cfg.Input.Table == "" {
		cfg.Input.Table = "customers"
	}
	if cfg.Model.Path == "" {
		cfg.Model.Path = "churn_model.json"
	}
	if cfg.Output.Path == "" {
		cfg.Output.Path = "churn_predictions.csv"
	}
	if cfg.AWS.Region == "" {
		cfg.AWS.Region = "us-east-1"
	}
	return &cfg, nil
}

// LoadFromEnv loads .env (if present), the YAML file, then applies
// environment overrides.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("CHURN_RFM_INPUT"); v != "" {
		cfg.Input.CSV = v
	}
	if v := os.Getenv("CHURN_RFM_DSN"); v != "" {
		cfg.Input.DSN = v
	}
	if v := os.Getenv("CHURN_RFM_TABLE"); v != "" {
		cfg.Input.Table = v
	}
	if v := os.Getenv("CHURN_RFM_MODEL"); v != "" {
		cfg.Model.Path = v
	}
	if v := os.Getenv("CHURN_RFM_OUTPUT"); v != "" {
		cfg.Output.Path = v
	}
	if v := os.Getenv("CHURN_RFM_SUMMARY"); v != "" {
		cfg.Output.SummaryPath = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.AWS.Region = v
	}
	return cfg, nil
}
