package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/revenue/internal/config"
	"github.com/klokku/revenue/internal/test_utils"
	"github.com/klokku/revenue/internal/utils"
	"github.com/klokku/revenue/pkg/billing"
	"github.com/klokku/revenue/pkg/period"
	"github.com/klokku/revenue/pkg/report"
	"github.com/klokku/revenue/pkg/revenue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(t *testing.T) config.Application {
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.Paths.Map = writeFile(t, dir, "map.csv", "Process,Location,Cluster Head,Billable,Cost1,ExtraBilling\nX,Noida,Asha,240,100,\n")
	cfg.Paths.Meta = writeFile(t, dir, "meta.csv", "Process,Month,FTE Cap,Mandays\nX,jun,2,22\n")
	cfg.Paths.Cost = writeFile(t, dir, "cost.csv", "EmpCode,Category,Process,Month,Cost\n")
	writeFile(t, dir, "logins_jun2025.csv", "EmpCode,Date,Process,Minutes\n"+
		"E1,06-02-2025,X,250\n"+
		"E2,06-02-2025,X,130\n"+
		"E3,13-02-2025,X,250\n")
	cfg.Paths.Ledger = filepath.Join(dir, "logins_{month}.csv")
	cfg.Paths.Quarantine = filepath.Join(dir, "fail_logins_{month}.csv")
	cfg.Paths.Report = filepath.Join(dir, "revenue_{month}.csv")
	return cfg
}

func TestBuildDependencies_RunReport(t *testing.T) {
	// given
	cfg := testConfig(t)
	clock := &utils.MockClock{FixedNow: time.Date(2025, time.June, 20, 0, 0, 0, 0, time.UTC)}
	deps, err := BuildDependencies(test_utils.SetupTestDB(t), cfg, clock)
	require.NoError(t, err)
	a := &Application{cfg: cfg, deps: deps}

	// when
	summary, err := a.RunReport(context.Background(), "")

	// then
	require.NoError(t, err)
	assert.Equal(t, period.NewMonth(2025, time.June), summary.Month)
	assert.Equal(t, 1, summary.Rows)
	assert.Equal(t, 1, summary.Quarantined)
	assert.FileExists(t, summary.QuarantineFile)

	content, err := os.ReadFile(summary.ReportFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "02-06-2025,X,Noida,Asha,100,240,2,200,22,7,7,7,-0.05")

	t.Run("should serve the stored report", func(t *testing.T) {
		r := mux.NewRouter()
		SetupMiddleware(r)
		RegisterRoutes(r, deps)

		req := httptest.NewRequest(http.MethodGet, "/api/reports/2025-06", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
		var dto report.ReportDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&dto))
		assert.Equal(t, summary.RunID, dto.Run.ID)
		assert.Len(t, dto.Rows, 1)
	})
}

func TestReportOptions(t *testing.T) {
	t.Run("should map the billing configuration", func(t *testing.T) {
		opts, err := ReportOptions(config.Billing{
			Categories:  true,
			ExtraPolicy: "daily",
			DisplayPay:  "weighted",
			Duplicates:  "reject",
			Uplifts:     map[string]string{"UGVCL": "7.5"},
		})

		require.NoError(t, err)
		assert.Equal(t, revenue.ExtraDaily, opts.ExtraPolicy)
		assert.Equal(t, billing.Options{
			Categories: true,
			DisplayPay: billing.DisplayPayWeighted,
			Duplicates: billing.DuplicateReject,
		}, opts.Billing)
		assert.IsType(t, billing.PercentUplift{}, opts.Adjuster)
	})

	tests := []struct {
		name string
		cfg  config.Billing
	}{
		{"unknown extra policy", config.Billing{ExtraPolicy: "weekly"}},
		{"unknown display pay", config.Billing{DisplayPay: "median"}},
		{"unknown duplicates policy", config.Billing{Duplicates: "last"}},
		{"invalid uplift", config.Billing{Uplifts: map[string]string{"X": "a lot"}}},
	}
	for _, tt := range tests {
		t.Run("should reject "+tt.name, func(t *testing.T) {
			_, err := ReportOptions(tt.cfg)
			assert.Error(t, err)
		})
	}
}
