package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"martisim/domain/mode"
)

// Separator closes every mode block of the console report
var Separator = strings.Repeat("-", 50)

// ConsoleReporter prints the per-mode summary block
type ConsoleReporter struct {
	// Detailed appends the distribution and streak lines to each block
	Detailed bool
}

// NewConsoleReporter creates a reporter printing the summary lines only
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{}
}

// Write prints one block per result, in order
func (r *ConsoleReporter) Write(w io.Writer, results []mode.Result) error {
	for _, res := range results {
		if err := r.writeMode(w, res); err != nil {
			return err
		}
	}
	return nil
}

func (r *ConsoleReporter) writeMode(w io.Writer, res mode.Result) error {
	s := res.Stats
	lines := []string{
		fmt.Sprintf("%s stats:", res.Mode.Name),
		fmt.Sprintf("  Number of players with profit: %d", s.NumProfitable),
		fmt.Sprintf("  Number of players with loss: %d", s.NumLossy),
		fmt.Sprintf("  Average profit (for those who profited): %s", Money(s.AvgProfit)),
		fmt.Sprintf("  Average loss (for those who lost): %s", Money(s.AvgLoss)),
		fmt.Sprintf("  Best case scenario (highest balance): %s", Money(s.BestCase)),
		fmt.Sprintf("  Chance to profit using this case: %s%%", Fixed(s.ProfitChancePercent)),
		fmt.Sprintf("  Number of players who lost everything: %d", s.LostEverything),
	}

	if r.Detailed {
		d := res.Distribution
		lines = append(lines,
			fmt.Sprintf("  Final balance mean / median: %s / %s", Money(d.Mean), Money(d.Median)),
			fmt.Sprintf("  Final balance 5th-95th percentile: %s - %s", Money(d.P05), Money(d.P95)),
			fmt.Sprintf("  Profit chance %s%% interval: %s%% - %s%%",
				Fixed(d.Confidence*100), Fixed(d.ProfitChanceLow), Fixed(d.ProfitChanceHigh)),
			fmt.Sprintf("  Aborted trials: %d (mean rounds played %s)", d.AbortedTrials, Fixed(d.MeanRoundsPlayed)),
			fmt.Sprintf("  Significant loss streaks: %d in %d trials (longest %d)",
				res.Streaks.TotalStreaks, res.Streaks.TrialsAffected, res.Streaks.Longest),
		)
	}
	lines = append(lines, Separator)

	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

// Money formats an amount as dollars with two decimals, e.g. $1234.57
func Money(v float64) string {
	return "$" + Fixed(v)
}

// Fixed formats v with two decimals, rounding half away from zero
func Fixed(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprintf("%.2f", v)
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}
