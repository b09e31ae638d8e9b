package config

import (
	"bytes"
	"os"

	"gopkg.in/yaml.v3"

	"martisim/domain/mode"
	"martisim/domain/trial"
	"martisim/internal/errors"
)

// ModesFile is the on-disk layout of a modes definition
//
//	modes:
//	  - name: cautious
//	    base_bet: 0.05
//	    streak_cap: 15
//	    max_rounds: 100000
type ModesFile struct {
	Modes []ModeEntry `yaml:"modes"`
}

// ModeEntry is one mode of a modes file. An absent initial_balance or
// win_probability takes the trial default; an explicit value, zero included,
// is kept and validated.
type ModeEntry struct {
	Name           string   `yaml:"name"`
	BaseBet        float64  `yaml:"base_bet"`
	StreakCap      int      `yaml:"streak_cap"`
	MaxRounds      int      `yaml:"max_rounds"`
	InitialBalance *float64 `yaml:"initial_balance,omitempty"`
	WinProbability *float64 `yaml:"win_probability,omitempty"`
	Trials         int      `yaml:"trials,omitempty"`
	SampleSize     int      `yaml:"sample_size,omitempty"`
}

// NewModesFile lays out resolved modes with every field written
func NewModesFile(modes []mode.Mode) ModesFile {
	file := ModesFile{Modes: make([]ModeEntry, len(modes))}
	for i, m := range modes {
		balance, p := m.Config.InitialBalance, m.Config.WinProbability
		file.Modes[i] = ModeEntry{
			Name:           m.Name,
			BaseBet:        m.Config.BaseBet,
			StreakCap:      m.Config.StreakCap,
			MaxRounds:      m.Config.MaxRounds,
			InitialBalance: &balance,
			WinProbability: &p,
			Trials:         m.Trials,
			SampleSize:     m.SampleSize,
		}
	}
	return file
}

// Mode converts the entry, filling only the fields the file left out
func (e ModeEntry) Mode() mode.Mode {
	cfg := trial.NewConfig(e.BaseBet, e.StreakCap, e.MaxRounds)
	if e.InitialBalance != nil {
		cfg.InitialBalance = *e.InitialBalance
	}
	if e.WinProbability != nil {
		cfg.WinProbability = *e.WinProbability
	}
	return mode.Mode{
		Name:       e.Name,
		Config:     cfg,
		Trials:     e.Trials,
		SampleSize: e.SampleSize,
	}
}

// LoadModes returns the modes to simulate. An empty path yields the built-in
// modes; otherwise the YAML file at path is parsed and normalized. Positive
// trials and sampleSize override every mode.
func LoadModes(path string, trials, sampleSize int) ([]mode.Mode, error) {
	var modes []mode.Mode
	if path == "" {
		modes = mode.Defaults()
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read modes file %s", path)
		}
		modes, err = ParseModes(data)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse modes file %s", path)
		}
	}

	for i := range modes {
		if trials > 0 {
			modes[i].Trials = trials
		}
		if sampleSize > 0 {
			modes[i].SampleSize = sampleSize
		}
	}

	if err := mode.ValidateAll(modes); err != nil {
		return nil, err
	}
	return modes, nil
}

// ParseModes decodes a YAML modes definition. Unknown keys are rejected.
func ParseModes(data []byte) ([]mode.Mode, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file ModesFile
	if err := dec.Decode(&file); err != nil {
		return nil, errors.InvalidInput("malformed modes YAML: " + err.Error())
	}
	modes := make([]mode.Mode, len(file.Modes))
	for i, e := range file.Modes {
		modes[i] = e.Mode()
	}
	return mode.Normalize(modes), nil
}
