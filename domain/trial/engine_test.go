package trial_test

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"martisim/domain/trial"
	"martisim/internal/testkit"
)

func cfg(baseBet float64, streakCap, maxRounds int, initial, p float64) trial.Config {
	return trial.Config{
		BaseBet:        baseBet,
		StreakCap:      streakCap,
		MaxRounds:      maxRounds,
		InitialBalance: initial,
		WinProbability: p,
	}
}

func TestRunTrial_SingleCertainWin(t *testing.T) {
	out := trial.RunTrial(cfg(1, 99, 1, 2000, 1.0), testkit.ConstantSource(0.3))

	assert.Equal(t, []float64{2001}, out.BalanceSeries)
	assert.Empty(t, out.SignificantStreaks)
	assert.False(t, out.Aborted())
	assert.Equal(t, 1, out.RoundsPlayed)
}

func TestRunTrial_SingleCertainLoss(t *testing.T) {
	out := trial.RunTrial(cfg(1, 99, 1, 2000, 0.0), rand.New(rand.NewSource(1)))

	assert.Equal(t, []float64{1999}, out.BalanceSeries)
	assert.Empty(t, out.SignificantStreaks)
	assert.False(t, out.Aborted())
}

func TestRunTrial_ZeroBalanceFixedPoint(t *testing.T) {
	// Doubling is capped at the remaining balance, so the bankroll drains to
	// exactly 0 and the bet is capped to 0. Neither abort condition can fire
	// from there and the trial records 0 until MaxRounds.
	out := trial.RunTrial(cfg(1, 99, 20, 10, 0.0), testkit.ConstantSource(0.5))

	want := []float64{9, 8, 6, 2}
	for len(want) < 20 {
		want = append(want, 0)
	}
	assert.Equal(t, want, out.BalanceSeries)
	assert.False(t, out.Aborted())
	assert.Empty(t, out.SignificantStreaks, "an unresolved streak is only recorded on abort")
}

func TestRunTrial_StreakCapAbort(t *testing.T) {
	out := trial.RunTrial(cfg(1, 3, 100, 2000, 0.495), testkit.Losses(4))

	assert.Equal(t, []float64{1999, 1998, 1996}, out.BalanceSeries)
	assert.Equal(t, trial.AbortStreakCap, out.AbortReason)
	assert.Equal(t, 4, out.RoundsPlayed)
	assert.Empty(t, out.SignificantStreaks)
}

func TestRunTrial_SignificantStreakRecordedOnAbort(t *testing.T) {
	out := trial.RunTrial(cfg(1, 11, 100, 2000, 0.0), testkit.ConstantSource(0.5))

	require.Len(t, out.BalanceSeries, 11)
	// 10 losses cost 1+1+2+...+256 = 512; the 11th bet of 512 leaves 976 and
	// the next doubled bet is capped to 976.
	assert.Equal(t, 1488.0, out.BalanceSeries[9])
	assert.Equal(t, 976.0, out.FinalBalance())
	assert.Equal(t, []trial.Streak{{Round: 11, Length: 12}}, out.SignificantStreaks)
	assert.Equal(t, trial.AbortStreakCap, out.AbortReason)
	assert.Equal(t, 12, out.RoundsPlayed)
}

func TestRunTrial_SignificantStreakEndedByWin(t *testing.T) {
	src := testkit.Pattern(strings.Repeat("L", 11) + "W")
	out := trial.RunTrial(cfg(1, 99, 12, 2000, 0.5), src)

	require.Len(t, out.BalanceSeries, 12)
	assert.Equal(t, 976.0, out.BalanceSeries[10])
	assert.Equal(t, 1952.0, out.FinalBalance())
	assert.Equal(t, []trial.Streak{{Round: 11, Length: 11}}, out.SignificantStreaks)
	assert.False(t, out.Aborted())
	assert.Equal(t, 12, src.Consumed())
}

func TestRunTrial_ShortStreakNotRecorded(t *testing.T) {
	src := testkit.Pattern(strings.Repeat("L", 10) + "W")
	out := trial.RunTrial(cfg(1, 99, 11, 2000, 0.5), src)

	assert.Empty(t, out.SignificantStreaks)
	assert.Equal(t, 2000.0, out.FinalBalance(), "the first loss does not double, so the win only recovers the streak")
}

func TestRunTrial_InsufficientBalanceAbortSkipsAppend(t *testing.T) {
	src := testkit.Pattern("WL")
	out := trial.RunTrial(cfg(4, 99, 5, 3, 0.5), src)

	// The losing round leaves 3 < bet 4; that balance is never recorded.
	assert.Equal(t, []float64{7}, out.BalanceSeries)
	assert.Equal(t, trial.AbortInsufficientBalance, out.AbortReason)
	assert.Equal(t, 2, out.RoundsPlayed)
	assert.Equal(t, 7.0, out.FinalBalance())
}

func TestRunTrial_StreakCapCheckedBeforeBalance(t *testing.T) {
	// The first loss leaves -1 < bet 4 and also exceeds a cap of 0.
	out := trial.RunTrial(cfg(4, 0, 10, 3, 0.5), testkit.Pattern("L"))

	assert.Empty(t, out.BalanceSeries)
	assert.Equal(t, trial.AbortStreakCap, out.AbortReason)
	assert.Equal(t, 3.0, out.FinalBalance())
}

func TestRunTrial_TwoStreaksAcrossFixedPoint(t *testing.T) {
	src := testkit.Pattern(strings.Repeat("L", 11) + "W" + strings.Repeat("L", 12) + "W")
	out := trial.RunTrial(cfg(1, 99, 25, 2000, 0.5), src)

	assert.Equal(t, []trial.Streak{{Round: 11, Length: 11}, {Round: 24, Length: 12}}, out.SignificantStreaks)
	assert.Equal(t, 12, out.LongestStreak())
	// The second streak drains 1952 to exactly 0; the win then pays the capped bet of 0.
	assert.Equal(t, 0.0, out.FinalBalance())
	assert.Len(t, out.BalanceSeries, 25)
}

func TestRunTrial_ZeroMaxRounds(t *testing.T) {
	out := trial.RunTrial(cfg(1, 99, 0, 2000, 0.5), testkit.NewScript())

	assert.Empty(t, out.BalanceSeries)
	assert.Equal(t, 0, out.RoundsPlayed)
	assert.False(t, out.Aborted())
	assert.Equal(t, 2000.0, out.FinalBalance())
}

func TestRunTrial_Properties(t *testing.T) {
	configs := []trial.Config{
		trial.NewConfig(0.05, 15, 5000),
		trial.NewConfig(0.1, 12, 5000),
		trial.NewConfig(0.5, 99, 5000),
		trial.NewConfig(0.1, 5, 5000),
		trial.NewConfig(50, 8, 2000),
	}

	for ci, c := range configs {
		for seed := int64(0); seed < 40; seed++ {
			out := trial.RunTrial(c, rand.New(rand.NewSource(seed*31+int64(ci))))

			require.LessOrEqual(t, len(out.BalanceSeries), c.MaxRounds)
			if len(out.BalanceSeries) < c.MaxRounds {
				require.True(t, out.Aborted(), "short series without abort: config %d seed %d", ci, seed)
				require.Equal(t, len(out.BalanceSeries)+1, out.RoundsPlayed)
			} else {
				require.False(t, out.Aborted())
			}

			lastRound := -1
			for _, s := range out.SignificantStreaks {
				require.GreaterOrEqual(t, s.Length, trial.SignificantStreakLength)
				require.Greater(t, s.Round, lastRound)
				lastRound = s.Round
			}
		}
	}
}

func TestRunTrial_SameSeedSameOutcome(t *testing.T) {
	c := trial.NewConfig(0.1, 12, 10000)
	a := trial.RunTrial(c, rand.New(rand.NewSource(99)))
	b := trial.RunTrial(c, rand.New(rand.NewSource(99)))

	assert.Equal(t, a, b)
}
