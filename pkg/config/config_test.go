package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
input:
  dsn: "mysql://churn:pw@db:3306/shop"
  table: "ecommerce_customers"

model:
  path: "s3://models/churn/xgb_for_churn.json"

output:
  path: "s3://exports/churn_predictions.csv"
  summary_path: "summary.csv"

aws:
  region: "eu-west-3"

predict: false
verbose: true
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "mysql://churn:pw@db:3306/shop", cfg.Input.DSN)
	assert.Equal(t, "ecommerce_customers", cfg.Input.Table)
	assert.Equal(t, "s3://models/churn/xgb_for_churn.json", cfg.Model.Path)
	assert.Equal(t, "s3://exports/churn_predictions.csv", cfg.Output.Path)
	assert.Equal(t, "summary.csv", cfg.Output.SummaryPath)
	assert.Equal(t, "eu-west-3", cfg.AWS.Region)
	assert.False(t, cfg.PredictEnabled())
	assert.True(t, cfg.Verbose)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "customers", cfg.Input.Table)
	assert.Equal(t, "churn_model.json", cfg.Model.Path)
	assert.Equal(t, "churn_predictions.csv", cfg.Output.Path)
	assert.Equal(t, "us-east-1", cfg.AWS.Region)
	assert.True(t, cfg.PredictEnabled())
	assert.Error(t, cfg.Validate())
}

func TestLoad_InvalidFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("input: [unclosed"), 0644))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("CHURN_RFM_INPUT", "customers.csv")
	t.Setenv("CHURN_RFM_MODEL", "model.yaml")
	t.Setenv("CHURN_RFM_OUTPUT", "-")
	t.Setenv("AWS_REGION", "ap-southeast-1")

	cfg, err := LoadFromEnv("")
	require.NoError(t, err)

	assert.Equal(t, "customers.csv", cfg.Input.CSV)
	assert.Equal(t, "model.yaml", cfg.Model.Path)
	assert.Equal(t, "-", cfg.Output.Path)
	assert.Equal(t, "ap-southeast-1", cfg.AWS.Region)
	assert.NoError(t, cfg.Validate())
}

func TestValidate_Ambiguous(t *testing.T) {
	cfg := &Config{Input: InputConfig{CSV: "a.csv", DSN: "mysql://u:p@h/db"}}
	assert.Error(t, cfg.Validate())
}
