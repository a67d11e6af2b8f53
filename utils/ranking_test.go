package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func rankingFixture() []RankEntry {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local)
	return []RankEntry{
		{ID: 1, Name: "A", Count: 5, CreatedAt: t0.Add(time.Hour)},
		{ID: 2, Name: "B", Count: 5, CreatedAt: t0},
		{ID: 3, Name: "C", Count: 3, CreatedAt: t0.Add(2 * time.Hour)},
		{ID: 4, Name: "D", Count: 0, CreatedAt: t0.Add(3 * time.Hour)},
	}
}

func TestRankOrderingAndTieBreak(t *testing.T) {
	ranked := Rank(rankingFixture())

	assert.Len(t, ranked, 4)
	// Equal counts break by earlier registration.
	assert.Equal(t, uint(2), ranked[0].ID)
	assert.Equal(t, uint(1), ranked[1].ID)
	assert.Equal(t, uint(3), ranked[2].ID)
	assert.Equal(t, uint(4), ranked[3].ID)
	for i, e := range ranked {
		assert.Equal(t, i+1, e.Rank)
	}
}

func TestRankIsDeterministic(t *testing.T) {
	first := Rank(rankingFixture())
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Rank(rankingFixture()))
	}
}

func TestRankOfAgreesWithRank(t *testing.T) {
	entries := rankingFixture()
	ranked := Rank(entries)

	for _, want := range ranked {
		for _, e := range entries {
			if e.ID == want.ID {
				assert.Equal(t, want.Rank, RankOf(e, entries), "entry %d", e.ID)
			}
		}
	}
}

func TestTopNFiltersZeroCounts(t *testing.T) {
	top := TopN(rankingFixture(), 50)
	assert.Len(t, top, 3)
	for _, e := range top {
		assert.Greater(t, e.Count, 0)
	}

	truncated := TopN(rankingFixture(), 2)
	assert.Len(t, truncated, 2)
	assert.Equal(t, uint(2), truncated[0].ID)
}

func TestPercentile(t *testing.T) {
	assert.Equal(t, 100, Percentile(1, 10))
	assert.Equal(t, 10, Percentile(10, 10))
	assert.Equal(t, 50, Percentile(51, 100))
	assert.Equal(t, 100, Percentile(1, 1))
	assert.Equal(t, 0, Percentile(1, 0))
	assert.Equal(t, 0, Percentile(0, 10))
}

func TestRankLevels(t *testing.T) {
	assert.Equal(t, "champion", UserRankLevel(1).Level)
	assert.Equal(t, "top10", UserRankLevel(7).Level)
	assert.Equal(t, "top50", UserRankLevel(50).Level)
	assert.Equal(t, "normal", UserRankLevel(51).Level)
	assert.Equal(t, "冠军群组", GroupRankLevel(1).Name)
}
