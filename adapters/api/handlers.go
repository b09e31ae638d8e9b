package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"martisim/domain/core"
	"martisim/domain/mode"
	"martisim/domain/run"
	apperrors "martisim/internal/errors"
	"martisim/ports"
)

const (
	defaultRunListLimit = 20
	maxRunListLimit     = 200
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "streaming_runs": len(s.hub.GetActiveRuns())})
}

// handleModes lists the configured modes
func (s *Server) handleModes(c *gin.Context) {
	c.JSON(http.StatusOK, ModesResponse{Modes: s.modes})
}

// handleSimulate runs the requested modes and answers with the report
func (s *Server) handleSimulate(c *gin.Context) {
	modes, ok := s.bindModes(c)
	if !ok {
		return
	}

	rep, err := s.sim.RunModes(c.Request.Context(), modes)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReportResponse(rep))
}

// handleSubmitRun starts the requested modes in the background
func (s *Server) handleSubmitRun(c *gin.Context) {
	modes, ok := s.bindModes(c)
	if !ok {
		return
	}

	rec, err := s.runs.Submit(c.Request.Context(), modes)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Header("Location", "/api/runs/"+rec.ID.String())
	c.JSON(http.StatusAccepted, toRunResponse(rec))
}

func (s *Server) handleListRuns(c *gin.Context) {
	limit := defaultRunListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(c, apperrors.InvalidInput("limit must be a positive integer"))
			return
		}
		limit = min(n, maxRunListLimit)
	}

	recs, err := s.runs.List(c.Request.Context(), limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	resp := RunListResponse{Runs: make([]RunResponse, len(recs)), Count: len(recs)}
	for i, rec := range recs {
		resp.Runs[i] = toRunResponse(rec)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGetRun(c *gin.Context) {
	rec, ok := s.lookupRun(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toRunResponse(rec))
}

// handleRunEvents streams a run's events over SSE. It subscribes before
// reading the record so no event falls between the two; a finished run gets
// its terminal event straight away.
func (s *Server) handleRunEvents(c *gin.Context) {
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		s.writeError(c, apperrors.InvalidInput(err.Error()))
		return
	}

	events, unsubscribe := s.hub.Subscribe(id.String())
	defer unsubscribe()

	rec, err := s.runs.Get(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.hub.StreamUntil(c, []ports.RunEvent{snapshotEvent(rec)}, events)
}

// bindModes decodes the request modes, falling back to the configured ones
func (s *Server) bindModes(c *gin.Context) ([]mode.Mode, bool) {
	var req SimulateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			s.writeError(c, apperrors.InvalidInput(err.Error()))
			return nil, false
		}
	}
	if len(req.Modes) == 0 {
		return s.modes, true
	}
	return toModes(req.Modes), true
}

func (s *Server) lookupRun(c *gin.Context) (*run.Record, bool) {
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		s.writeError(c, apperrors.InvalidInput(err.Error()))
		return nil, false
	}
	rec, err := s.runs.Get(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return nil, false
	}
	return rec, true
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Code: apperrors.GetCode(err)})
}

// statusFor maps an error code to an HTTP status
func statusFor(err error) int {
	if core.IsValidationError(err) {
		return http.StatusBadRequest
	}
	switch apperrors.GetCode(err) {
	case apperrors.CodeValidationError, apperrors.CodeInvalidInput:
		return http.StatusBadRequest
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, core.ErrRunNotFound) || errors.Is(err, core.ErrModeNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// snapshotEvent describes the stored state of a run as an event
func snapshotEvent(rec *run.Record) ports.RunEvent {
	ev := ports.RunEvent{
		RunID:     rec.ID.String(),
		EventType: ports.EventProgress,
		Mode:      rec.CurrentMode,
		Progress:  rec.Progress,
		Timestamp: time.Now(),
	}
	switch rec.State {
	case run.StateComplete:
		ev.EventType = ports.EventRunFinished
	case run.StateError:
		ev.EventType = ports.EventRunFailed
		ev.Data = map[string]interface{}{"error": rec.Error}
	}
	return ev
}
