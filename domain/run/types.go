package run

import (
	"martisim/domain/core"
	"martisim/domain/mode"
)

// CodeVersion is recorded in every manifest so replays can detect engine changes
const CodeVersion = "0.3.0"

// RunFingerprint ensures deterministic replay: two runs with the same
// fingerprint and a reproducible seed produce identical results.
type RunFingerprint struct {
	ModesHash   core.Hash `json:"modes_hash"`
	Seed        int64     `json:"seed"`
	CodeVersion string    `json:"code_version"`
	Fingerprint core.Hash `json:"fingerprint"`
}

// NewRunFingerprint creates a fingerprint from determinism parameters
func NewRunFingerprint(modes []mode.Mode, seed int64, codeVersion string) RunFingerprint {
	modesHash := ComputeModesHash(modes)
	return RunFingerprint{
		ModesHash:   modesHash,
		Seed:        seed,
		CodeVersion: codeVersion,
		Fingerprint: core.ComputeFingerprint("modes:"+modesHash.String(), seed, "code:"+codeVersion),
	}
}

// ComputeModesHash hashes the ordered mode list, including every trial parameter
func ComputeModesHash(modes []mode.Mode) core.Hash {
	parts := make([]interface{}, 0, len(modes))
	for _, m := range modes {
		c := m.Config
		parts = append(parts, struct {
			Name                           string
			BaseBet, Initial, P            float64
			Cap, Rounds, Trials, SampleLen int
		}{m.Name, c.BaseBet, c.InitialBalance, c.WinProbability, c.StreakCap, c.MaxRounds, m.Trials, m.SampleSize})
	}
	return core.ComputeFingerprint(parts...)
}
