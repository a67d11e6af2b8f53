package utils

import (
	"math"
	"sort"
	"time"
)

// RankEntry is the snapshot the ranking calculator works on: an entity id, its
// counter value, and its creation time (the tie-break key).
type RankEntry struct {
	ID        uint
	Name      string
	Count     int
	CreatedAt time.Time
}

// RankedEntry is a RankEntry with its assigned competition rank.
type RankedEntry struct {
	Rank      int
	ID        uint
	Name      string
	Count     int
	CreatedAt time.Time
}

// rankLess is the single ordering used everywhere: counter descending, then
// earlier creation first. CreatedAt is unique per entity, so the order is
// total and every entity receives a distinct rank.
func rankLess(a, b RankEntry) bool {
	if a.Count != b.Count {
		return a.Count > b.Count
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// Rank orders entries by count descending with earlier CreatedAt winning ties
// and assigns sequential ranks starting at 1. The input slice is not modified.
func Rank(entries []RankEntry) []RankedEntry {
	sorted := make([]RankEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return rankLess(sorted[i], sorted[j]) })

	ranked := make([]RankedEntry, len(sorted))
	for i, e := range sorted {
		ranked[i] = RankedEntry{Rank: i + 1, ID: e.ID, Name: e.Name, Count: e.Count, CreatedAt: e.CreatedAt}
	}
	return ranked
}

// RankOf computes the rank of target within all: one plus the number of
// entries that order ahead of it. It uses the same comparator as Rank, so
// both always agree on the same snapshot.
func RankOf(target RankEntry, all []RankEntry) int {
	rank := 1
	for _, e := range all {
		if e.ID == target.ID {
			continue
		}
		if rankLess(e, target) {
			rank++
		}
	}
	return rank
}

// TopN filters out zero-count entries, ranks the rest, and truncates to n.
func TopN(entries []RankEntry, n int) []RankedEntry {
	eligible := make([]RankEntry, 0, len(entries))
	for _, e := range entries {
		if e.Count > 0 {
			eligible = append(eligible, e)
		}
	}
	ranked := Rank(eligible)
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Percentile expresses a rank as the share of the population it outperforms,
// rounded to an integer 0-100. An empty population reports 0.
func Percentile(rank, total int) int {
	if total <= 0 || rank <= 0 {
		return 0
	}
	return int(math.Round(float64(total-rank+1) / float64(total) * 100))
}

// RankLevel is a display label attached to a rank on the leaderboard.
type RankLevel struct {
	Level string `json:"level"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
}

// UserRankLevel maps a rank to its leaderboard badge.
func UserRankLevel(rank int) RankLevel {
	switch {
	case rank == 1:
		return RankLevel{Level: "champion", Name: "冠军", Icon: "👑"}
	case rank == 2:
		return RankLevel{Level: "second", Name: "亚军", Icon: "🥈"}
	case rank == 3:
		return RankLevel{Level: "third", Name: "季军", Icon: "🥉"}
	case rank <= 10:
		return RankLevel{Level: "top10", Name: "前十强", Icon: "🏆"}
	case rank <= 20:
		return RankLevel{Level: "top20", Name: "前二十", Icon: "🏅"}
	case rank <= 50:
		return RankLevel{Level: "top50", Name: "前五十", Icon: "⭐"}
	default:
		return RankLevel{Level: "normal", Name: "普通", Icon: "👤"}
	}
}

// GroupRankLevel is the group leaderboard analog of UserRankLevel.
func GroupRankLevel(rank int) RankLevel {
	switch {
	case rank == 1:
		return RankLevel{Level: "champion", Name: "冠军群组", Icon: "👑"}
	case rank == 2:
		return RankLevel{Level: "second", Name: "亚军群组", Icon: "🥈"}
	case rank == 3:
		return RankLevel{Level: "third", Name: "季军群组", Icon: "🥉"}
	case rank <= 10:
		return RankLevel{Level: "top10", Name: "十强群组", Icon: "🏆"}
	case rank <= 20:
		return RankLevel{Level: "top20", Name: "二十强", Icon: "🏅"}
	case rank <= 50:
		return RankLevel{Level: "top50", Name: "五十强", Icon: "⭐"}
	default:
		return RankLevel{Level: "normal", Name: "普通", Icon: "👥"}
	}
}
