package stats

import (
	"sort"

	"martisim/domain/trial"
)

// FinalBalances returns the final balance of each outcome, in batch order
func FinalBalances(batch []trial.Outcome) []float64 {
	finals := make([]float64, len(batch))
	for i, o := range batch {
		finals[i] = o.FinalBalance()
	}
	return finals
}

// Aggregate computes BatchStatistics over the final balance of each outcome.
//
// Profit and loss use strict inequalities against ReferenceBalance, so an
// outcome ending exactly at the reference counts in neither bucket.
// LostEverything counts final balances strictly below baseBet and overlaps the
// loss bucket. Empty populations yield zero values.
//
// Balances are reduced in ascending order so the floating point sums, and
// therefore the result, do not depend on batch order.
func Aggregate(batch []trial.Outcome, baseBet float64) BatchStatistics {
	finals := FinalBalances(batch)
	sort.Float64s(finals)

	var (
		numProfitable  int
		numLossy       int
		numBreakeven   int
		lostEverything int
		profitSum      float64
		lossSum        float64
	)

	for _, final := range finals {
		switch {
		case final > ReferenceBalance:
			numProfitable++
			profitSum += final - ReferenceBalance
		case final < ReferenceBalance:
			numLossy++
			lossSum += ReferenceBalance - final
		default:
			numBreakeven++
		}

		if final < baseBet {
			lostEverything++
		}
	}

	s := BatchStatistics{
		BatchSize:      len(finals),
		NumProfitable:  numProfitable,
		NumLossy:       numLossy,
		NumBreakeven:   numBreakeven,
		LostEverything: lostEverything,
	}
	if len(finals) > 0 {
		s.BestCase = finals[len(finals)-1]
		s.ProfitChancePercent = 100 * float64(numProfitable) / float64(len(finals))
	}
	if numProfitable > 0 {
		s.AvgProfit = profitSum / float64(numProfitable)
	}
	if numLossy > 0 {
		s.AvgLoss = lossSum / float64(numLossy)
	}
	return s
}
