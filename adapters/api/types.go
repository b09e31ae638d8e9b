package api

import (
	"time"

	"martisim/domain/mode"
	"martisim/domain/run"
	"martisim/domain/trial"
)

// ModeRequest describes one mode in a simulate or submit request.
// Zero trials and sample sizes take the same defaults as a modes file. An
// absent initial_balance or win_probability takes the trial default; an
// explicit value, zero included, is kept and validated.
type ModeRequest struct {
	Name           string   `json:"name"`
	BaseBet        float64  `json:"base_bet" binding:"gte=0"`
	StreakCap      int      `json:"streak_cap" binding:"gte=0"`
	MaxRounds      int      `json:"max_rounds" binding:"gte=0,lte=1000000"`
	InitialBalance *float64 `json:"initial_balance,omitempty" binding:"omitempty,gte=0"`
	WinProbability *float64 `json:"win_probability,omitempty" binding:"omitempty,gte=0,lt=1"`
	Trials         int      `json:"trials" binding:"gte=0,lte=1000000"`
	SampleSize     int      `json:"sample_size" binding:"gte=0,lte=1000"`
}

// SimulateRequest is the body of POST /api/simulate and POST /api/runs.
// An empty mode list runs the configured modes.
type SimulateRequest struct {
	Modes []ModeRequest `json:"modes" binding:"omitempty,dive"`
}

// ModesResponse lists the configured modes
type ModesResponse struct {
	Modes []mode.Mode `json:"modes"`
}

// ReportResponse is a finished run without its sampled balance series
type ReportResponse struct {
	RunID        string        `json:"run_id"`
	Fingerprint  string        `json:"fingerprint"`
	Seed         int64         `json:"seed,omitempty"`
	Reproducible bool          `json:"reproducible"`
	Workers      int           `json:"workers"`
	DurationMS   int64         `json:"duration_ms"`
	Results      []mode.Result `json:"results"`
}

// RunResponse is the public view of a submitted run
type RunResponse struct {
	ID          string          `json:"id"`
	State       run.State       `json:"state"`
	Progress    float64         `json:"progress"`
	CurrentMode string          `json:"current_mode,omitempty"`
	Modes       []string        `json:"modes"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Error       string          `json:"error,omitempty"`
	Report      *ReportResponse `json:"report,omitempty"`
	Links       RunLinks        `json:"links"`
}

// RunLinks points at the endpoints serving a run
type RunLinks struct {
	Self   string `json:"self"`
	Events string `json:"events"`
	Report string `json:"report,omitempty"`
	XLSX   string `json:"xlsx,omitempty"`
}

// RunListResponse is the body of GET /api/runs
type RunListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Count int           `json:"count"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// toModes turns request modes into normalized domain modes. Sample sizes are
// clamped to the trial count.
func toModes(reqs []ModeRequest) []mode.Mode {
	modes := make([]mode.Mode, len(reqs))
	for i, r := range reqs {
		cfg := trial.NewConfig(r.BaseBet, r.StreakCap, r.MaxRounds)
		if r.InitialBalance != nil {
			cfg.InitialBalance = *r.InitialBalance
		}
		if r.WinProbability != nil {
			cfg.WinProbability = *r.WinProbability
		}
		modes[i] = mode.Mode{
			Name:       r.Name,
			Config:     cfg,
			Trials:     r.Trials,
			SampleSize: r.SampleSize,
		}
	}

	modes = mode.Normalize(modes)
	for i := range modes {
		if modes[i].SampleSize > modes[i].Trials {
			modes[i].SampleSize = modes[i].Trials
		}
	}
	return modes
}

func toReportResponse(rep *run.Report) *ReportResponse {
	if rep == nil {
		return nil
	}
	out := &ReportResponse{
		DurationMS: rep.Duration.Milliseconds(),
		Results:    make([]mode.Result, len(rep.Results)),
	}
	if m := rep.Manifest; m != nil {
		out.RunID = m.RunID.String()
		out.Fingerprint = m.Fingerprint.Fingerprint.String()
		out.Reproducible = m.Reproducible
		out.Workers = m.Workers
		if m.Reproducible {
			out.Seed = m.Seed
		}
	}
	for i, res := range rep.Results {
		res.Samples = nil
		out.Results[i] = res
	}
	return out
}

func toRunResponse(rec *run.Record) RunResponse {
	id := rec.ID.String()
	resp := RunResponse{
		ID:          id,
		State:       rec.State,
		Progress:    rec.Progress,
		CurrentMode: rec.CurrentMode,
		Modes:       make([]string, len(rec.Modes)),
		StartedAt:   rec.StartedAt,
		CompletedAt: rec.CompletedAt,
		Error:       rec.Error,
		Report:      toReportResponse(rec.Report),
		Links: RunLinks{
			Self:   "/api/runs/" + id,
			Events: "/api/runs/" + id + "/events",
		},
	}
	for i, m := range rec.Modes {
		resp.Modes[i] = m.Name
	}
	if rec.State == run.StateComplete {
		resp.Links.Report = "/reports/" + id
		resp.Links.XLSX = "/reports/" + id + "/xlsx"
	}
	return resp
}
