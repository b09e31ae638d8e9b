package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"martisim/adapters/excel"
	"martisim/adapters/report"
	"martisim/app"
	"martisim/domain/core"
	"martisim/domain/run"
	"martisim/internal"
	apperrors "martisim/internal/errors"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// reportRouter serves the rendered reports of completed runs
type reportRouter struct {
	runs     *app.RunService
	markdown *report.MarkdownRenderer
	excel    *excel.TrajectoryWriter
	logger   *internal.Logger
}

func newReportRouter(runs *app.RunService, markdown *report.MarkdownRenderer, xlsx *excel.TrajectoryWriter, logger *internal.Logger) http.Handler {
	h := &reportRouter{runs: runs, markdown: markdown, excel: xlsx, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/{id}", h.handleHTML)
	r.Get("/{id}/markdown", h.handleMarkdown)
	r.Get("/{id}/xlsx", h.handleXLSX)
	return r
}

func (h *reportRouter) handleHTML(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.completedReport(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(h.markdown.RenderHTML(rep.Manifest, rep.Results))
}

func (h *reportRouter) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.completedReport(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(h.markdown.Render(rep.Manifest, rep.Results)))
}

func (h *reportRouter) handleXLSX(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.completedReport(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "martingale-"+chi.URLParam(r, "id")+".xlsx"))
	if err := h.excel.Write(w, rep.Manifest, rep.Results); err != nil {
		h.logger.Error("[%s] failed to write workbook: %v", middleware.GetReqID(r.Context()), err)
	}
}

// completedReport loads the report of the run named by {id}, answering with
// an error when the run is unknown or not finished
func (h *reportRouter) completedReport(w http.ResponseWriter, r *http.Request) (*run.Report, bool) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, apperrors.InvalidInput(err.Error()))
		return nil, false
	}
	rec, err := h.runs.Get(r.Context(), id)
	if err != nil {
		writeJSONError(w, statusFor(err), err)
		return nil, false
	}
	switch {
	case rec.State == run.StateError:
		writeJSONError(w, http.StatusConflict, apperrors.Newf(apperrors.CodeInvalidInput, "run %s failed: %s", id, rec.Error))
		return nil, false
	case !rec.Done() || rec.Report == nil:
		writeJSONError(w, http.StatusConflict, apperrors.Newf(apperrors.CodeInvalidInput, "run %s is still %s", id, rec.State))
		return nil, false
	}
	return rec.Report, true
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: err.Error(), Code: apperrors.GetCode(err)})
}
