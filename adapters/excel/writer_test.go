package excel

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"martisim/domain/core"
	"martisim/domain/mode"
	"martisim/domain/run"
	"martisim/domain/stats"
	"martisim/domain/trial"
	"martisim/internal/testkit"
)

func result(name string, samples ...[]float64) mode.Result {
	m := mode.New(name, trial.NewConfig(1, 12, 100))
	batch := testkit.OutcomesWithFinal(2500, 1500, 2000)
	return mode.Result{
		Mode:    m,
		Stats:   stats.Aggregate(batch, 1),
		Streaks: stats.StreakSummary{Longest: 13},
		Samples: samples,
	}
}

func TestSampleRounds(t *testing.T) {
	assert.Nil(t, SampleRounds(0, 10))
	assert.Equal(t, []int{0, 1, 2, 3}, SampleRounds(4, 10))
	assert.Equal(t, []int{0}, SampleRounds(1, 10))

	rounds := SampleRounds(100000, 2000)
	assert.LessOrEqual(t, len(rounds), 2000)
	assert.Equal(t, 0, rounds[0])
	assert.Equal(t, 99999, rounds[len(rounds)-1])
	for i := 1; i < len(rounds); i++ {
		require.Greater(t, rounds[i], rounds[i-1])
	}

	assert.Equal(t, []int{0, 3, 6, 9}, SampleRounds(10, 4))
	assert.Equal(t, []int{0, 4, 8, 10}, SampleRounds(11, 4))
}

func TestUniqueSheetName(t *testing.T) {
	used := map[string]bool{"summary": true}

	assert.Equal(t, "Mode 1", uniqueSheetName("Mode 1", used))
	assert.Equal(t, "mode 1 (2)", uniqueSheetName("mode 1", used))
	assert.Equal(t, "a_b_c", uniqueSheetName("a/b:c", used))
	assert.Equal(t, "Summary (2)", uniqueSheetName("Summary", used))
	assert.Equal(t, "Mode", uniqueSheetName("  ", used))

	long := uniqueSheetName("a very long mode name that exceeds excel limits", used)
	assert.Len(t, []rune(long), 31)
}

func TestTrajectoryWriter_RoundTrip(t *testing.T) {
	results := []mode.Result{
		result("Mode 1", []float64{2001, 2002, 2003}, []float64{1999}),
		result("Mode 2"),
	}
	manifest := run.NewRunManifest(core.NewRunID(), []mode.Mode{results[0].Mode, results[1].Mode}, 42, true, 2)

	path := filepath.Join(t.TempDir(), "run.xlsx")
	require.NoError(t, NewTrajectoryWriter(DefaultWriterConfig()).WriteFile(path, manifest, results))

	r, err := OpenWorkbook(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{SummarySheet, "Mode 1", "Mode 2"}, r.Sheets())
	assert.Equal(t, []string{"Mode 1", "Mode 2"}, r.ModeSheets())

	summary, err := r.ReadSheet(SummarySheet)
	require.NoError(t, err)
	assert.Equal(t, SummaryHeaders, summary.Headers)
	require.Len(t, summary.Rows, 2)
	assert.Equal(t, "Mode 1", summary.Rows[0]["Mode"])
	assert.Equal(t, "1", summary.Rows[0]["Profitable"])
	assert.Equal(t, "2500", summary.Rows[0]["Best case"])
	assert.Equal(t, "13", summary.Rows[1]["Longest streak"])

	meta, err := r.ReadMetadata()
	require.NoError(t, err)
	assert.Equal(t, manifest.RunID.String(), meta["Run ID"])
	assert.Equal(t, "42", meta["Seed"])
	assert.Equal(t, manifest.Fingerprint.Fingerprint.String(), meta["Fingerprint"])

	traj, err := r.ReadTrajectories("Mode 1")
	require.NoError(t, err)
	require.Len(t, traj, 2)
	assert.Equal(t, "Player 1", traj[0].Player)
	assert.Equal(t, []int{1, 2, 3}, traj[0].Rounds)
	assert.Equal(t, []float64{2001, 2002, 2003}, traj[0].Balances)
	assert.Equal(t, []float64{1999}, traj[1].Balances, "rounds after a trial ended stay blank")

	empty, err := r.ReadTrajectories("Mode 2")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = r.ReadTrajectories(SummarySheet)
	assert.Error(t, err)
}

func TestTrajectoryWriter_DownsamplesLongSeries(t *testing.T) {
	long := make([]float64, 1000)
	for i := range long {
		long[i] = float64(2000 + i)
	}
	short := []float64{1, 2, 3, 4, 5, 6, 7}

	var buf bytes.Buffer
	w := NewTrajectoryWriter(WriterConfig{MaxPoints: 10, ChartSeries: 1})
	require.NoError(t, w.Write(&buf, nil, []mode.Result{result("long", long, short)}))

	r, err := ReadWorkbook(&buf)
	require.NoError(t, err)
	defer r.Close()

	traj, err := r.ReadTrajectories("long")
	require.NoError(t, err)
	require.Len(t, traj, 2)

	assert.LessOrEqual(t, len(traj[0].Rounds), 10)
	assert.Equal(t, 1, traj[0].Rounds[0])
	assert.Equal(t, 1000, traj[0].Rounds[len(traj[0].Rounds)-1])
	assert.Equal(t, 2999.0, traj[0].Balances[len(traj[0].Balances)-1])

	// The short series ends between two sampled rows; its last balance is
	// carried onto the next sampled row.
	assert.Equal(t, 7.0, traj[1].Balances[len(traj[1].Balances)-1])

	meta, err := r.ReadMetadata()
	require.NoError(t, err)
	assert.Empty(t, meta)
}

func TestNewTrajectoryWriter_Defaults(t *testing.T) {
	w := NewTrajectoryWriter(WriterConfig{})
	assert.Equal(t, DefaultWriterConfig(), w.config)
}
