package trial

import (
	"math"
)

// UniformSource yields uniform samples in [0, 1). *math/rand.Rand satisfies it.
type UniformSource interface {
	Float64() float64
}

// player is the mutable state of one trial
type player struct {
	cfg        Config
	balance    float64
	bet        float64
	lossStreak int
	streaks    []Streak
	abort      AbortReason
}

func newPlayer(cfg Config) *player {
	return &player{
		cfg:     cfg,
		balance: cfg.InitialBalance,
		bet:     cfg.BaseBet,
		abort:   AbortNone,
	}
}

// play settles one round and reports whether the round ended the trial.
//
// Order on a loss: debit, count, double (capped at balance), then the abort
// checks. The aborting round's balance is never recorded by the caller.
func (p *player) play(round int, win bool) bool {
	if win {
		if p.lossStreak >= SignificantStreakLength {
			p.streaks = append(p.streaks, Streak{Round: round, Length: p.lossStreak})
		}
		p.balance += p.bet
		p.bet = p.cfg.BaseBet
		p.lossStreak = 0
		return false
	}

	p.balance -= p.bet
	p.lossStreak++
	if p.lossStreak >= 2 {
		p.bet = math.Min(p.bet*2, p.balance)
	}

	switch {
	case p.lossStreak > p.cfg.StreakCap:
		p.abort = AbortStreakCap
	case p.balance < p.bet:
		p.abort = AbortInsufficientBalance
	default:
		return false
	}
	if p.lossStreak >= SignificantStreakLength {
		p.streaks = append(p.streaks, Streak{Round: round, Length: p.lossStreak})
	}
	return true
}

// RunTrial plays one player's game until MaxRounds rounds are recorded or an
// abort condition fires. A round is won when the sample drawn from src is at
// least 1-WinProbability. cfg is not validated here.
func RunTrial(cfg Config, src UniformSource) Outcome {
	p := newPlayer(cfg)
	series := make([]float64, 0, initialCapacity(cfg.MaxRounds))

	rounds := 0
	for i := 0; i < cfg.MaxRounds; i++ {
		rounds++
		win := src.Float64() >= 1-cfg.WinProbability
		if p.play(i, win) {
			break
		}
		series = append(series, p.balance)
	}

	return Outcome{
		BalanceSeries:      series,
		SignificantStreaks: p.streaks,
		RoundsPlayed:       rounds,
		AbortReason:        p.abort,
		InitialBalance:     cfg.InitialBalance,
	}
}

// initialCapacity bounds the up-front allocation for long trials
func initialCapacity(maxRounds int) int {
	const limit = 1 << 16
	if maxRounds < 0 {
		return 0
	}
	if maxRounds > limit {
		return limit
	}
	return maxRounds
}
