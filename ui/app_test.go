package ui

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"wiastat/adapters/excel"
	"wiastat/adapters/store"
	"wiastat/domain/comparison"
	"wiastat/domain/core"
	"wiastat/ports"
)

func newTestApp(t *testing.T, api http.Handler) (*App, *store.RunRepository) {
	t.Helper()
	db, err := store.Open(context.Background(), "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	runs := store.NewRunRepository(db)

	app, err := NewApp(Config{Runs: runs, Alpha: 0.05, API: api})
	require.NoError(t, err)
	return app, runs
}

func savedRun(t *testing.T, runs ports.RunRepository) *ports.RunRecord {
	t.Helper()
	o := comparison.NewOutcome("Avg Flow", []string{"Rest", "Adenosine"}, comparison.Continuous, false)
	for _, v := range []float64{10, 11, 12} {
		o.Collections[0].Add(v)
	}
	for _, v := range []float64{30, 31, 33} {
		o.Collections[1].Add(v)
	}
	o.Result = &comparison.Statistics{Tests: []comparison.TestResult{{Name: "Welch t-test", Statistic: -20.1, DF: 3.9, PValue: 0.001}}}
	run := &ports.RunRecord{
		CohortHash:  core.ComputeCohortHash([]string{"a"}),
		SampleCount: 6,
		Comparisons: []*comparison.Comparison{{Name: "Rest vs Adenosine", Groups: []string{"Rest", "Adenosine"}, Outcomes: []*comparison.Outcome{o}}},
	}
	require.NoError(t, runs.SaveRun(context.Background(), run))
	return run
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRunsPage(t *testing.T) {
	app, runs := newTestApp(t, nil)

	w := get(app, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No runs yet")

	run := savedRun(t, runs)
	w = get(app, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/runs/"+run.ID.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
}

func TestRunPageRendersReport(t *testing.T) {
	app, runs := newTestApp(t, nil)
	run := savedRun(t, runs)

	w := get(app, "/runs/"+run.ID.String())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()
	assert.Contains(t, body, "Rest vs Adenosine")
	assert.Contains(t, body, "<table>")
	assert.Contains(t, body, "Avg Flow")
	assert.Contains(t, body, "report.xlsx")
}

func TestRunPageErrors(t *testing.T) {
	app, _ := newTestApp(t, nil)

	assert.Equal(t, http.StatusBadRequest, get(app, "/runs/not-an-id").Code)
	assert.Equal(t, http.StatusNotFound, get(app, "/runs/"+core.NewRunID().String()).Code)

	bare, err := NewApp(Config{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotImplemented, get(bare, "/runs/"+core.NewRunID().String()).Code)
	assert.Equal(t, http.StatusOK, get(bare, "/").Code)
}

func TestRunWorkbookDownload(t *testing.T) {
	app, runs := newTestApp(t, nil)
	run := savedRun(t, runs)

	w := get(app, "/runs/"+run.ID.String()+"/report.xlsx")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(excel.ReportSheet)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "Rest vs Adenosine", rows[0][0])
}

func TestAPIMounted(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte(r.URL.Path))
	})
	app, _ := newTestApp(t, api)

	w := get(app, "/api/runs")
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "/api/runs", w.Body.String())
}
