package mode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"martisim/domain/core"
	"martisim/domain/trial"
	apperrors "martisim/internal/errors"
)

func TestDefaults(t *testing.T) {
	modes := Defaults()
	require.Len(t, modes, 4)
	require.NoError(t, ValidateAll(modes))

	assert.Equal(t, "Mode 1", modes[0].Name)
	assert.Equal(t, 0.05, modes[0].Config.BaseBet)
	assert.Equal(t, 15, modes[0].Config.StreakCap)
	assert.Equal(t, 0.5, modes[2].Config.BaseBet)
	assert.Equal(t, 99, modes[2].Config.StreakCap)
	assert.Equal(t, 5, modes[3].Config.StreakCap)
	for _, m := range modes {
		assert.Equal(t, DefaultMaxRounds, m.Config.MaxRounds)
		assert.Equal(t, DefaultTrials, m.Trials)
		assert.Equal(t, DefaultSampleSize, m.SampleSize)
		assert.Equal(t, trial.DefaultInitialBalance, m.Config.InitialBalance)
	}
}

func TestNormalize(t *testing.T) {
	in := []Mode{
		{Config: trial.Config{BaseBet: 1, StreakCap: 4, MaxRounds: 10}},
		{Name: "custom", Trials: 5, SampleSize: -1, Config: trial.Config{BaseBet: 2, StreakCap: 4, MaxRounds: 10, WinProbability: 0.4}},
	}
	out := Normalize(in)

	assert.Equal(t, "Mode 1", out[0].Name)
	assert.Equal(t, DefaultTrials, out[0].Trials)
	assert.Equal(t, DefaultSampleSize, out[0].SampleSize)
	assert.Zero(t, out[0].Config.WinProbability, "the trial config is left as given")
	assert.ErrorIs(t, out[0].Validate(), core.ErrInvalidTrialConfig)

	assert.Equal(t, "custom", out[1].Name)
	assert.Equal(t, 5, out[1].Trials)
	assert.Equal(t, -1, out[1].SampleSize)
	assert.Equal(t, 0.4, out[1].Config.WinProbability)

	assert.Empty(t, in[0].Name, "input is not modified")
}

func TestValidateAll(t *testing.T) {
	err := ValidateAll(nil)
	assert.True(t, errors.Is(err, core.ErrEmptyModeList))

	bad := Defaults()
	bad[1].Config.BaseBet = 0
	err = ValidateAll(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidTrialConfig))
	assert.Equal(t, apperrors.CodeValidationError, apperrors.GetCode(err))
	assert.Contains(t, err.Error(), "Mode 2")

	dup := Defaults()
	dup[3].Name = "Mode 1"
	err = ValidateAll(dup)
	assert.True(t, errors.Is(err, core.ErrInvalidMode))

	noTrials := Defaults()
	noTrials[0].Trials = 0
	assert.True(t, errors.Is(ValidateAll(noTrials), core.ErrInvalidMode))

	negSample := Defaults()
	negSample[0].SampleSize = -3
	assert.True(t, errors.Is(ValidateAll(negSample), core.ErrInvalidMode))
}

func TestFind(t *testing.T) {
	m, err := Find(Defaults(), " mode 3 ")
	require.NoError(t, err)
	assert.Equal(t, 0.5, m.Config.BaseBet)

	_, err = Find(Defaults(), "Mode 9")
	assert.True(t, errors.Is(err, core.ErrModeNotFound))
}
