package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"martisim/domain/trial"
)

func TestSummarizeStreaks(t *testing.T) {
	batch := []trial.Outcome{
		{SignificantStreaks: []trial.Streak{{Round: 30, Length: 11}, {Round: 400, Length: 13}}},
		{},
		{SignificantStreaks: []trial.Streak{{Round: 12, Length: 11}}},
	}

	s := SummarizeStreaks(batch)
	assert.Equal(t, 3, s.TotalStreaks)
	assert.Equal(t, 2, s.TrialsAffected)
	assert.Equal(t, 13, s.Longest)
	assert.Equal(t, map[int]int{11: 2, 13: 1}, s.CountByLength)
}

func TestSummarizeStreaks_Empty(t *testing.T) {
	s := SummarizeStreaks(nil)
	assert.Zero(t, s.TotalStreaks)
	assert.Zero(t, s.Longest)
	assert.Empty(t, s.CountByLength)
}
