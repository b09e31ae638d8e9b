package analysis

import (
	domstats "martisim/domain/stats"
	"martisim/domain/trial"
)

// SummarizeStreaks counts the significant loss streaks across a batch
func SummarizeStreaks(batch []trial.Outcome) domstats.StreakSummary {
	summary := domstats.StreakSummary{CountByLength: make(map[int]int)}
	for _, o := range batch {
		if len(o.SignificantStreaks) == 0 {
			continue
		}
		summary.TrialsAffected++
		for _, s := range o.SignificantStreaks {
			summary.TotalStreaks++
			summary.CountByLength[s.Length]++
			if s.Length > summary.Longest {
				summary.Longest = s.Length
			}
		}
	}
	return summary
}
