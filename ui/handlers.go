package ui

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"wiastat/adapters/excel"
	"wiastat/adapters/markdown"
	"wiastat/domain/core"
	"wiastat/internal/errors"
	"wiastat/internal/report"
	"wiastat/ports"
)

const runsPerPage = 100

func (a *App) handleRuns(w http.ResponseWriter, r *http.Request) {
	var runs []ports.RunSummary
	if a.runs != nil {
		var err error
		runs, err = a.runs.ListRuns(r.Context(), runsPerPage, 0)
		if err != nil {
			a.fail(w, "Failed to list runs", err)
			return
		}
	}
	a.render(w, "runs.html", map[string]interface{}{
		"Title": "Analysis runs",
		"Runs":  runs,
	})
}

func (a *App) handleRun(w http.ResponseWriter, r *http.Request) {
	run, ok := a.loadRun(w, r)
	if !ok {
		return
	}

	md := markdown.NewWriter("")
	if err := report.NewWriter(a.alpha).WriteReport(md, run.Comparisons); err != nil {
		a.fail(w, "Failed to render report", err)
		return
	}
	a.render(w, "run.html", map[string]interface{}{
		"Title":  "Run " + run.ID.String(),
		"Run":    run,
		"Report": template.HTML(markdown.ToHTML(md.Bytes())),
	})
}

func (a *App) handleWorkbook(w http.ResponseWriter, r *http.Request) {
	run, ok := a.loadRun(w, r)
	if !ok {
		return
	}

	sheet, err := excel.NewSheetWriter("", excel.ReportSheet)
	if err != nil {
		a.fail(w, "Failed to create workbook", err)
		return
	}
	defer sheet.Close()
	if err := report.NewWriter(a.alpha).WriteReport(sheet, run.Comparisons); err != nil {
		a.fail(w, "Failed to write workbook", err)
		return
	}

	var buf bytes.Buffer
	if _, err := sheet.WriteTo(&buf); err != nil {
		a.fail(w, "Failed to write workbook", err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="run-`+run.ID.String()+`.xlsx"`)
	w.Write(buf.Bytes())
}

func (a *App) loadRun(w http.ResponseWriter, r *http.Request) (*ports.RunRecord, bool) {
	if a.runs == nil {
		http.Error(w, "Run persistence is not configured", http.StatusNotImplemented)
		return nil, false
	}
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	run, err := a.runs.GetRun(r.Context(), id)
	if errors.GetCode(err) == errors.CodeNotFound {
		http.Error(w, "Run not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		a.fail(w, "Failed to load run", err)
		return nil, false
	}
	return run, true
}

func (a *App) render(w http.ResponseWriter, name string, data interface{}) {
	var buf bytes.Buffer
	if err := a.templates.ExecuteTemplate(&buf, name, data); err != nil {
		a.fail(w, "Failed to render page", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (a *App) fail(w http.ResponseWriter, message string, err error) {
	a.logger.Error(message, zap.Error(err))
	http.Error(w, message, http.StatusInternalServerError)
}
