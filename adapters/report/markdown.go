package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"martisim/domain/mode"
	"martisim/domain/run"
)

// ReportTitle heads the markdown and HTML reports
const ReportTitle = "Martingale simulation report"

// MarkdownRenderer renders a run as a markdown document
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a markdown renderer
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render builds the markdown report. manifest may be nil.
func (r *MarkdownRenderer) Render(manifest *run.RunManifest, results []mode.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", ReportTitle)
	if manifest != nil {
		writeManifest(&b, manifest)
	}

	b.WriteString("## Summary\n\n")
	b.WriteString("| Mode | Base bet | Streak cap | Max rounds | Trials | Profit | Loss | Avg profit | Avg loss | Best case | Profit chance | Lost everything |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|---:|---:|---:|---:|---:|---:|\n")
	for _, res := range results {
		c, s := res.Mode.Config, res.Stats
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %d | %d | %d | %s | %s | %s | %s%% | %d |\n",
			escapeCell(res.Mode.Name), Money(c.BaseBet), c.StreakCap, c.MaxRounds, s.BatchSize,
			s.NumProfitable, s.NumLossy, Money(s.AvgProfit), Money(s.AvgLoss), Money(s.BestCase),
			Fixed(s.ProfitChancePercent), s.LostEverything)
	}
	b.WriteString("\n")

	for _, res := range results {
		writeModeSection(&b, res)
	}
	return b.String()
}

// RenderHTML renders the markdown report into a complete HTML page
func (r *MarkdownRenderer) RenderHTML(manifest *run.RunManifest, results []mode.Result) []byte {
	md := []byte(r.Render(manifest, results))

	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: ReportTitle,
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML(md, p, renderer)
}

func writeManifest(b *strings.Builder, m *run.RunManifest) {
	fmt.Fprintf(b, "- Run: `%s`\n", m.RunID)
	fmt.Fprintf(b, "- Created: %s\n", m.CreatedAt)
	if m.Reproducible {
		fmt.Fprintf(b, "- Seed: %d (reproducible)\n", m.Seed)
	} else {
		b.WriteString("- Seed: OS entropy (not reproducible)\n")
	}
	fmt.Fprintf(b, "- Workers: %d\n", m.Workers)
	fmt.Fprintf(b, "- Fingerprint: `%s` (engine %s)\n\n", m.Fingerprint.Fingerprint.Short(), m.CodeVersion)
}

func writeModeSection(b *strings.Builder, res mode.Result) {
	d := res.Distribution
	c := res.Mode.Config

	fmt.Fprintf(b, "## %s\n\n", res.Mode.Name)
	fmt.Fprintf(b, "Initial balance %s, win probability %v, %d trials.\n\n",
		Money(c.InitialBalance), c.WinProbability, res.Mode.Trials)

	b.WriteString("### Final balance distribution\n\n")
	b.WriteString("| Mean | Std dev | Min | P05 | Median | P95 | Max |\n")
	b.WriteString("|---:|---:|---:|---:|---:|---:|---:|\n")
	fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s | %s |\n\n",
		Money(d.Mean), Fixed(d.StdDev), Money(d.Min), Money(d.P05), Money(d.Median), Money(d.P95), Money(d.Max))

	fmt.Fprintf(b, "Chance to profit: **%s%%** (%s%% confidence interval %s%% to %s%%).\n\n",
		Fixed(res.Stats.ProfitChancePercent), Fixed(d.Confidence*100), Fixed(d.ProfitChanceLow), Fixed(d.ProfitChanceHigh))
	fmt.Fprintf(b, "Aborted trials: %d. Mean rounds played: %s.\n\n", d.AbortedTrials, Fixed(d.MeanRoundsPlayed))

	b.WriteString("### Significant loss streaks\n\n")
	st := res.Streaks
	if st.TotalStreaks == 0 {
		b.WriteString("None.\n\n")
		return
	}
	fmt.Fprintf(b, "%d streaks in %d trials, longest %d.\n\n", st.TotalStreaks, st.TrialsAffected, st.Longest)

	lengths := make([]int, 0, len(st.CountByLength))
	for l := range st.CountByLength {
		lengths = append(lengths, l)
	}
	sort.Ints(lengths)

	b.WriteString("| Length | Count |\n|---:|---:|\n")
	for _, l := range lengths {
		fmt.Fprintf(b, "| %d | %d |\n", l, st.CountByLength[l])
	}
	b.WriteString("\n")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
