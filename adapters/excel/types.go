package excel

// RawRowData represents a row of a sheet as header -> cell text
type RawRowData map[string]string

// SheetData represents one sheet read back from a workbook
type SheetData struct {
	Name    string       // Sheet name
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}

// Trajectory is one player's sampled balance series
type Trajectory struct {
	Player   string    // Column header, e.g. "Player 1"
	Rounds   []int     // 1-based round numbers of the sampled rows
	Balances []float64 // Balance at each sampled round
}
