package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("should use defaults when there is no file", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		require.NoError(t, err)
		assert.Equal(t, Defaults().Paths, cfg.Paths)
		assert.True(t, cfg.Billing.Categories)
		assert.Equal(t, "target", cfg.Billing.ExtraPolicy)
		assert.False(t, cfg.Database.Enabled)
		assert.Equal(t, ":8181", cfg.Server.Addr)
	})

	t.Run("should override defaults from the file and the environment", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "revenue.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
month: "2025-01"
paths:
  ledger: data/logins_{month}.csv
billing:
  categories: false
  uplifts:
    UGVCL: "7.5"
`), 0o644))
		t.Setenv("REVENUE_BILLING_EXTRAPOLICY", "daily")
		t.Setenv("REVENUE_DB_ENABLED", "true")

		cfg, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "2025-01", cfg.Month)
		assert.Equal(t, "data/logins_{month}.csv", cfg.Paths.Ledger)
		assert.Equal(t, "map.csv", cfg.Paths.Map)
		assert.False(t, cfg.Billing.Categories)
		assert.Equal(t, map[string]string{"UGVCL": "7.5"}, cfg.Billing.Uplifts)
		assert.Equal(t, "daily", cfg.Billing.ExtraPolicy)
		assert.True(t, cfg.Database.Enabled)
	})
}
