package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wiastat/domain/category"
	"wiastat/internal/errors"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wia.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WIA_CONFIG_FILE", "")
	t.Setenv("WIA_ALPHA", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.InDelta(t, 0.05, cfg.Analysis.Alpha, 1e-12)
	assert.InDelta(t, 2.5, cfg.Analysis.Thresholds.FlowReserveCutoff, 1e-12)
	assert.GreaterOrEqual(t, cfg.Analysis.Workers, 1)
}

func TestLoadAnalysisFileMergesDefaults(t *testing.T) {
	path := writeFile(t, `
alpha: 0.01
thresholds:
  cfr_cutoff: 2.0
treatment_aliases:
  rest: [Baseline, " pre "]
`)
	a, err := LoadAnalysisFile(path)
	require.NoError(t, err)

	assert.InDelta(t, 0.01, a.Alpha, 1e-12)
	assert.InDelta(t, 2.0, a.Thresholds.FlowReserveCutoff, 1e-12)
	assert.InDelta(t, 1.9, a.Thresholds.ResistanceCutoff, 1e-12)
	assert.InDelta(t, 50, a.Thresholds.FlowIncreaseCutoff, 1e-12)

	table, err := a.AliasTable()
	require.NoError(t, err)
	assert.Equal(t, []string{"baseline", "pre"}, table[category.TreatmentRest])
	assert.Contains(t, table[category.TreatmentVasodilator], "adenosine")
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, "alpha: 0.01\n")
	t.Setenv("WIA_CONFIG_FILE", path)
	t.Setenv("WIA_ALPHA", "0.1")
	t.Setenv("WIA_SKIP_DIAMETERS", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.InDelta(t, 0.1, cfg.Analysis.Alpha, 1e-12)
	assert.True(t, cfg.Analysis.SkipDiameters)
}

func TestInvalidAnalysisFile(t *testing.T) {
	tests := map[string]string{
		"alpha out of range": "alpha: 1.5\n",
		"unknown type":       "treatment_aliases:\n  placebo: [saline]\n",
		"bad yaml":           "alpha: [\n",
		"negative cutoff":    "thresholds:\n  hmr_cutoff: -1\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadAnalysisFile(writeFile(t, content))
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestMissingAnalysisFile(t *testing.T) {
	_, err := LoadAnalysisFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
