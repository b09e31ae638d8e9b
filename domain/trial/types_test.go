package trial

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"martisim/domain/core"
)

func TestNewConfig_Defaults(t *testing.T) {
	c := NewConfig(0.1, 12, 100000)

	assert.Equal(t, 2000.0, c.InitialBalance)
	assert.Equal(t, 0.495, c.WinProbability)
	assert.NoError(t, c.Validate())
}

func TestConfig_Validate(t *testing.T) {
	valid := NewConfig(1, 10, 100)

	cases := []struct {
		name  string
		mut   func(*Config)
		field string
	}{
		{"zero base bet", func(c *Config) { c.BaseBet = 0 }, "base_bet"},
		{"negative base bet", func(c *Config) { c.BaseBet = -1 }, "base_bet"},
		{"nan base bet", func(c *Config) { c.BaseBet = math.NaN() }, "base_bet"},
		{"zero streak cap", func(c *Config) { c.StreakCap = 0 }, "streak_cap"},
		{"zero rounds", func(c *Config) { c.MaxRounds = 0 }, "max_rounds"},
		{"negative balance", func(c *Config) { c.InitialBalance = -5 }, "initial_balance"},
		{"probability zero", func(c *Config) { c.WinProbability = 0 }, "win_probability"},
		{"probability one", func(c *Config) { c.WinProbability = 1 }, "win_probability"},
		{"probability above one", func(c *Config) { c.WinProbability = 1.5 }, "win_probability"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid
			tc.mut(&c)
			err := c.Validate()
			if assert.Error(t, err) {
				assert.True(t, errors.Is(err, core.ErrInvalidTrialConfig))
				assert.Contains(t, err.Error(), tc.field)
			}
			assert.Panics(t, func() { MustValidate(c) })
		})
	}

	assert.NotPanics(t, func() { MustValidate(valid) })
}

func TestOutcome_Helpers(t *testing.T) {
	o := Outcome{
		BalanceSeries:      []float64{1990, 2010},
		SignificantStreaks: []Streak{{Round: 20, Length: 11}, {Round: 90, Length: 14}},
		AbortReason:        AbortNone,
		InitialBalance:     2000,
	}
	assert.Equal(t, 2010.0, o.FinalBalance())
	assert.Equal(t, 14, o.LongestStreak())
	assert.False(t, o.Aborted())

	o.AbortReason = AbortStreakCap
	assert.True(t, o.Aborted())

	assert.Equal(t, 0, Outcome{}.LongestStreak())
	assert.False(t, Outcome{}.Aborted())
}
