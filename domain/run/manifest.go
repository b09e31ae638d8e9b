package run

import (
	"martisim/domain/core"
	"martisim/domain/mode"
)

// RunManifest records what a simulation run executed and how to replay it
type RunManifest struct {
	RunID        core.RunID     `json:"run_id"`
	Modes        []mode.Mode    `json:"modes"`
	Seed         int64          `json:"seed"`
	Reproducible bool           `json:"reproducible"`
	Workers      int            `json:"workers"`
	CodeVersion  string         `json:"code_version"`
	Fingerprint  RunFingerprint `json:"fingerprint"`
	CreatedAt    core.Timestamp `json:"created_at"`
}

// NewRunManifest creates a manifest for a run over the given modes
func NewRunManifest(runID core.RunID, modes []mode.Mode, seed int64, reproducible bool, workers int) *RunManifest {
	return &RunManifest{
		RunID:        runID,
		Modes:        modes,
		Seed:         seed,
		Reproducible: reproducible,
		Workers:      workers,
		CodeVersion:  CodeVersion,
		Fingerprint:  NewRunFingerprint(modes, seed, CodeVersion),
		CreatedAt:    core.Now(),
	}
}

// Validate checks if the manifest is complete
func (r *RunManifest) Validate() error {
	if core.ID(r.RunID).IsEmpty() {
		return core.NewModeError("run_manifest", "run_id cannot be empty")
	}
	if r.Workers <= 0 {
		return core.NewModeError("run_manifest", "workers must be positive")
	}
	if r.Fingerprint.Fingerprint.IsEmpty() {
		return core.NewModeError("run_manifest", "fingerprint cannot be empty")
	}
	return mode.ValidateAll(r.Modes)
}
