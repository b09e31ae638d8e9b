package excel

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"martisim/domain/mode"
	"martisim/domain/run"
)

// SummarySheet is the first sheet of every exported workbook
const SummarySheet = "Summary"

// SummaryHeaders are the column titles of the summary sheet, one row per mode
var SummaryHeaders = []string{
	"Mode", "Base bet", "Streak cap", "Max rounds", "Trials",
	"Profitable", "Lossy", "Breakeven", "Avg profit", "Avg loss", "Best case",
	"Profit chance %", "Lost everything",
	"Mean", "Median", "P05", "P95", "Aborted", "Longest streak",
}

// TrajectoryWriter exports run results as an xlsx workbook: a summary sheet
// plus one sheet per mode holding the sampled balance series (column per
// player, row per round) and a line chart of them.
type TrajectoryWriter struct {
	config WriterConfig
}

// NewTrajectoryWriter creates a writer, replacing non-positive limits with defaults
func NewTrajectoryWriter(config WriterConfig) *TrajectoryWriter {
	def := DefaultWriterConfig()
	if config.MaxPoints <= 1 {
		config.MaxPoints = def.MaxPoints
	}
	if config.ChartSeries <= 0 {
		config.ChartSeries = def.ChartSeries
	}
	return &TrajectoryWriter{config: config}
}

// WriteFile builds the workbook and saves it to path
func (w *TrajectoryWriter) WriteFile(path string, manifest *run.RunManifest, results []mode.Result) error {
	f, err := w.Build(manifest, results)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

// Write builds the workbook and streams it to out
func (w *TrajectoryWriter) Write(out io.Writer, manifest *run.RunManifest, results []mode.Result) error {
	f, err := w.Build(manifest, results)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Build assembles the workbook in memory. manifest may be nil.
func (w *TrajectoryWriter) Build(manifest *run.RunManifest, results []mode.Result) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSummary(f, manifest, results); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write summary sheet: %w", err)
	}

	used := map[string]bool{strings.ToLower(SummarySheet): true}
	for _, res := range results {
		sheet := uniqueSheetName(res.Mode.Name, used)
		if err := w.writeTrajectories(f, sheet, res); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write trajectories of %q: %w", res.Mode.Name, err)
		}
	}

	if idx, err := f.GetSheetIndex(SummarySheet); err == nil && idx != -1 {
		f.SetActiveSheet(idx)
	}
	return f, nil
}

func writeSummary(f *excelize.File, manifest *run.RunManifest, results []mode.Result) error {
	header := make([]interface{}, len(SummaryHeaders))
	for i, h := range SummaryHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(SummarySheet, "A1", &header); err != nil {
		return err
	}

	for r, res := range results {
		c, s, d := res.Mode.Config, res.Stats, res.Distribution
		row := []interface{}{
			res.Mode.Name, c.BaseBet, c.StreakCap, c.MaxRounds, s.BatchSize,
			s.NumProfitable, s.NumLossy, s.NumBreakeven, s.AvgProfit, s.AvgLoss, s.BestCase,
			s.ProfitChancePercent, s.LostEverything,
			d.Mean, d.Median, d.P05, d.P95, d.AbortedTrials, res.Streaks.Longest,
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return err
		}
	}

	if manifest == nil {
		return nil
	}

	// Run metadata goes two rows below the table
	meta := [][]interface{}{
		{"Run ID", manifest.RunID.String()},
		{"Seed", manifest.Seed},
		{"Reproducible", manifest.Reproducible},
		{"Workers", manifest.Workers},
		{"Fingerprint", manifest.Fingerprint.Fingerprint.String()},
		{"Engine version", manifest.CodeVersion},
	}
	start := len(results) + 3
	for i, row := range meta {
		cell, err := excelize.CoordinatesToCellName(1, start+i)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func (w *TrajectoryWriter) writeTrajectories(f *excelize.File, sheet string, res mode.Result) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	header := make([]interface{}, 0, len(res.Samples)+1)
	header = append(header, "Round")
	for i := range res.Samples {
		header = append(header, fmt.Sprintf("Player %d", i+1))
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	longest := 0
	for _, s := range res.Samples {
		longest = max(longest, len(s))
	}
	rounds := SampleRounds(longest, w.config.MaxPoints)

	for r, round := range rounds {
		row := make([]interface{}, len(res.Samples)+1)
		row[0] = round + 1
		for p, series := range res.Samples {
			if round < len(series) {
				row[p+1] = series[round]
			} else if isLastOf(round, len(series), rounds, r) {
				row[p+1] = series[len(series)-1]
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	if len(rounds) == 0 || len(res.Samples) == 0 {
		return nil
	}
	return w.addChart(f, sheet, res, len(rounds))
}

// isLastOf reports whether the sampled row r is the first one past the end of
// a series of length n, so a series cut short by the stride still shows its
// final balance.
func isLastOf(round, n int, rounds []int, r int) bool {
	if n == 0 || r == 0 {
		return false
	}
	return rounds[r-1] < n-1 && round >= n-1
}

func (w *TrajectoryWriter) addChart(f *excelize.File, sheet string, res mode.Result, rows int) error {
	quoted := "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	lastRow := rows + 1

	n := min(len(res.Samples), w.config.ChartSeries)
	series := make([]excelize.ChartSeries, 0, n)
	for p := 0; p < n; p++ {
		col, err := excelize.ColumnNumberToName(p + 2)
		if err != nil {
			return err
		}
		series = append(series, excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", quoted, col),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", quoted, lastRow),
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", quoted, col, col, lastRow),
		})
	}

	anchor, err := excelize.CoordinatesToCellName(len(res.Samples)+3, 2)
	if err != nil {
		return err
	}
	return f.AddChart(sheet, anchor, &excelize.Chart{
		Type:   excelize.Line,
		Series: series,
		Title:  []excelize.RichTextRun{{Text: "Player Balances Over Time - " + res.Mode.Name}},
		Legend: excelize.ChartLegend{Position: "none"},
		XAxis: excelize.ChartAxis{
			Title: []excelize.RichTextRun{{Text: "Number of Games"}},
		},
		YAxis: excelize.ChartAxis{
			Title: []excelize.RichTextRun{{Text: "Balance"}},
		},
		Dimension:    excelize.ChartDimension{Width: 960, Height: 480},
		ShowBlanksAs: "gap",
	})
}

// SampleRounds returns the 0-based round indexes written for series up to
// length n: every round when n <= maxPoints, otherwise every stride-th round
// plus the last one.
func SampleRounds(n, maxPoints int) []int {
	if n <= 0 {
		return nil
	}
	stride := 1
	if maxPoints > 1 && n > maxPoints {
		stride = (n - 1 + maxPoints - 2) / (maxPoints - 1)
	}

	rounds := make([]int, 0, min(n, maxPoints))
	for i := 0; i < n; i += stride {
		rounds = append(rounds, i)
	}
	if rounds[len(rounds)-1] != n-1 {
		rounds = append(rounds, n-1)
	}
	return rounds
}

// uniqueSheetName strips characters Excel rejects, truncates to 31 runes and
// appends a counter on collisions (case-insensitive).
func uniqueSheetName(name string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	clean = strings.Trim(clean, "'")
	if clean == "" {
		clean = "Mode"
	}

	candidate := truncateRunes(clean, 31)
	for i := 2; used[strings.ToLower(candidate)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		candidate = truncateRunes(clean, 31-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
