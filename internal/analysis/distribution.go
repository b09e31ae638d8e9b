package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	domstats "martisim/domain/stats"
	"martisim/domain/trial"
)

// DefaultConfidence is the coverage of the profit chance interval
const DefaultConfidence = 0.95

// DistributionAnalyzer describes the spread of final balances in a batch
type DistributionAnalyzer struct {
	confidence float64
}

// NewDistributionAnalyzer creates an analyzer; confidence must be in (0,1)
func NewDistributionAnalyzer(confidence float64) (*DistributionAnalyzer, error) {
	if !(confidence > 0 && confidence < 1) {
		return nil, fmt.Errorf("confidence must be in (0,1), got %v", confidence)
	}
	return &DistributionAnalyzer{confidence: confidence}, nil
}

// AnalyzeBatch computes the final balance distribution of a batch. An empty
// batch yields a zero Distribution.
func (da *DistributionAnalyzer) AnalyzeBatch(batch []trial.Outcome) (domstats.Distribution, error) {
	d := domstats.Distribution{Confidence: da.confidence}
	if len(batch) == 0 {
		return d, nil
	}

	finals := domstats.FinalBalances(batch)

	mean, err := stats.Mean(finals)
	if err != nil {
		return d, err
	}
	stdDev, err := stats.StandardDeviation(finals)
	if err != nil {
		return d, err
	}
	min, err := stats.Min(finals)
	if err != nil {
		return d, err
	}
	max, err := stats.Max(finals)
	if err != nil {
		return d, err
	}
	median, err := stats.Median(finals)
	if err != nil {
		return d, err
	}

	sorted := append([]float64(nil), finals...)
	sort.Float64s(sorted)

	d.Mean = mean
	d.StdDev = stdDev
	d.Min = min
	d.Max = max
	d.Median = median
	d.P05 = stat.Quantile(0.05, stat.Empirical, sorted, nil)
	d.P95 = stat.Quantile(0.95, stat.Empirical, sorted, nil)

	profitable := 0
	rounds := make([]float64, len(batch))
	for i, o := range batch {
		if o.FinalBalance() > domstats.ReferenceBalance {
			profitable++
		}
		if o.Aborted() {
			d.AbortedTrials++
		}
		rounds[i] = float64(o.RoundsPlayed)
	}
	d.MeanRoundsPlayed = stat.Mean(rounds, nil)
	d.ProfitChanceLow, d.ProfitChanceHigh = WilsonInterval(profitable, len(batch), da.confidence)

	return d, nil
}

// WilsonInterval returns the Wilson score interval, in percent, for k
// successes out of n at the given confidence. n == 0 yields (0, 0).
func WilsonInterval(k, n int, confidence float64) (low, high float64) {
	if n <= 0 {
		return 0, 0
	}
	z := distuv.UnitNormal.Quantile(1 - (1-confidence)/2)
	nf := float64(n)
	phat := float64(k) / nf
	z2 := z * z

	denom := 1 + z2/nf
	center := (phat + z2/(2*nf)) / denom
	half := z * math.Sqrt(phat*(1-phat)/nf+z2/(4*nf*nf)) / denom

	low = math.Max(0, center-half) * 100
	high = math.Min(1, center+half) * 100
	return low, high
}
