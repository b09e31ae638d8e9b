package stats

// ReferenceBalance is the fixed breakeven point every final balance is
// compared against, independent of a trial's configured initial balance.
const ReferenceBalance = 2000.0

// BatchStatistics summarises the final balances of one batch of trials.
// It is computed once and never mutated.
type BatchStatistics struct {
	BatchSize           int     `json:"batch_size"`
	NumProfitable       int     `json:"num_profitable"`
	NumLossy            int     `json:"num_lossy"`
	NumBreakeven        int     `json:"num_breakeven"`
	AvgProfit           float64 `json:"avg_profit"`
	AvgLoss             float64 `json:"avg_loss"`
	BestCase            float64 `json:"best_case"`
	ProfitChancePercent float64 `json:"profit_chance_percent"`
	LostEverything      int     `json:"lost_everything"`
}

// Distribution describes the spread of final balances across a batch
type Distribution struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	P05    float64 `json:"p05"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
	Max    float64 `json:"max"`

	// Wilson score interval for the profit chance, in percent
	ProfitChanceLow  float64 `json:"profit_chance_low"`
	ProfitChanceHigh float64 `json:"profit_chance_high"`
	Confidence       float64 `json:"confidence"`

	MeanRoundsPlayed float64 `json:"mean_rounds_played"`
	AbortedTrials    int     `json:"aborted_trials"`
}

// StreakSummary describes the significant loss streaks seen across a batch
type StreakSummary struct {
	TotalStreaks   int `json:"total_streaks"`
	TrialsAffected int `json:"trials_affected"`
	Longest        int `json:"longest"`

	// CountByLength maps a streak length to how many times it occurred
	CountByLength map[int]int `json:"count_by_length"`
}
