package excel

// WriterConfig controls the size of exported trajectory sheets
type WriterConfig struct {
	// MaxPoints caps the rows of a trajectory sheet; longer series are
	// sampled at a fixed stride and always keep their last balance
	MaxPoints int `json:"max_points"`
	// ChartSeries is how many players are drawn in each mode's chart
	ChartSeries int `json:"chart_series"`
}

// DefaultWriterConfig keeps 2000 points per series and charts 10 players
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		MaxPoints:   2000,
		ChartSeries: 10,
	}
}
