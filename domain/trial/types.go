package trial

import (
	"fmt"
	"math"

	"martisim/domain/core"
)

const (
	// DefaultInitialBalance is the starting bankroll of every player
	DefaultInitialBalance = 2000.0
	// DefaultWinProbability is the per-round win chance of the biased coin
	DefaultWinProbability = 0.495
	// SignificantStreakLength is the shortest loss streak recorded in an outcome
	SignificantStreakLength = 11
)

// Config is the immutable input of one trial. It is shared read-only by every
// trial of a batch.
type Config struct {
	BaseBet        float64 `json:"base_bet" yaml:"base_bet"`
	StreakCap      int     `json:"streak_cap" yaml:"streak_cap"`
	MaxRounds      int     `json:"max_rounds" yaml:"max_rounds"`
	InitialBalance float64 `json:"initial_balance" yaml:"initial_balance"`
	WinProbability float64 `json:"win_probability" yaml:"win_probability"`
}

// NewConfig builds a config with the default initial balance and win probability
func NewConfig(baseBet float64, streakCap, maxRounds int) Config {
	return Config{
		BaseBet:        baseBet,
		StreakCap:      streakCap,
		MaxRounds:      maxRounds,
		InitialBalance: DefaultInitialBalance,
		WinProbability: DefaultWinProbability,
	}
}

// Validate checks the preconditions RunTrial relies on. RunTrial itself never validates.
func (c Config) Validate() error {
	if !(c.BaseBet > 0) || math.IsInf(c.BaseBet, 0) {
		return core.NewValidationError("base_bet", fmt.Sprintf("must be a positive finite number, got %v", c.BaseBet))
	}
	if c.StreakCap <= 0 {
		return core.NewValidationError("streak_cap", fmt.Sprintf("must be positive, got %d", c.StreakCap))
	}
	if c.MaxRounds <= 0 {
		return core.NewValidationError("max_rounds", fmt.Sprintf("must be positive, got %d", c.MaxRounds))
	}
	if !(c.InitialBalance > 0) || math.IsInf(c.InitialBalance, 0) {
		return core.NewValidationError("initial_balance", fmt.Sprintf("must be a positive finite number, got %v", c.InitialBalance))
	}
	if !(c.WinProbability > 0 && c.WinProbability < 1) {
		return core.NewValidationError("win_probability", fmt.Sprintf("must be in (0,1), got %v", c.WinProbability))
	}
	return nil
}

// MustValidate panics when the config violates a precondition
func MustValidate(c Config) {
	if err := c.Validate(); err != nil {
		panic(err)
	}
}

// Streak is a loss streak of at least SignificantStreakLength rounds.
// Round is the index of the round that ended it (the winning round, or the
// round that aborted the trial).
type Streak struct {
	Round  int `json:"round"`
	Length int `json:"length"`
}

// AbortReason says why a trial stopped before MaxRounds
type AbortReason string

const (
	AbortNone                AbortReason = "none"
	AbortStreakCap           AbortReason = "streak_cap"
	AbortInsufficientBalance AbortReason = "insufficient_balance"
)

// Outcome is the result of one trial. It is owned by the trial that produced
// it until handed to the aggregator, which only reads it.
type Outcome struct {
	BalanceSeries      []float64   `json:"balance_series"`
	SignificantStreaks []Streak    `json:"significant_streaks"`
	RoundsPlayed       int         `json:"rounds_played"`
	AbortReason        AbortReason `json:"abort_reason"`
	InitialBalance     float64     `json:"initial_balance"`
}

// Aborted reports whether an abort condition ended the trial
func (o Outcome) Aborted() bool {
	return o.AbortReason != AbortNone && o.AbortReason != ""
}

// FinalBalance is the last recorded balance, or the initial balance when no
// round was recorded.
func (o Outcome) FinalBalance() float64 {
	if len(o.BalanceSeries) == 0 {
		return o.InitialBalance
	}
	return o.BalanceSeries[len(o.BalanceSeries)-1]
}

// LongestStreak returns the longest significant streak, or 0 when there is none
func (o Outcome) LongestStreak() int {
	longest := 0
	for _, s := range o.SignificantStreaks {
		if s.Length > longest {
			longest = s.Length
		}
	}
	return longest
}
