// Package ranking computes seeding ranks from recorded seeding-match scores.
package ranking

import (
	"sort"

	"github.com/google/uuid"

	"github.com/tannerhall/bracketeer/internal/domain/model"
)

// Composite score weights: ordinal rank dominates raw score magnitude so
// score-scale differences across events stay contained.
const (
	rankWeight      = 0.75
	magnitudeWeight = 0.25
)

// TeamScores maps a team to its recorded seeding-match scores, up to three.
type TeamScores map[uuid.UUID][]float64

// Calculate produces the full seeding ranking for a score table. The result
// replaces any previous ranking wholesale; nothing is patched incrementally.
//
// Per team: the seed average is the mean of the top two scores; the
// tiebreaker is the third-highest score when one exists, otherwise the sum
// of all recorded scores. A single score serves as both. Teams without any
// scores are unranked: nil rank, sorted last.
//
// Ranked teams order by seed average, then tiebreaker, both descending, then
// team id for determinism. rawSeedScore blends ordinal position with raw
// average magnitude.
func Calculate(scores TeamScores) []model.SeedingRanking {
	rankings := make([]model.SeedingRanking, 0, len(scores))
	for teamID, recorded := range scores {
		rankings = append(rankings, summarize(teamID, recorded))
	}

	sort.Slice(rankings, func(i, j int) bool {
		a, b := rankings[i], rankings[j]
		if c := compareDesc(a.SeedAverage, b.SeedAverage); c != 0 {
			return c < 0
		}
		if c := compareDesc(a.Tiebreaker, b.Tiebreaker); c != 0 {
			return c < 0
		}
		return a.TeamID.String() < b.TeamID.String()
	})

	ranked := 0
	maxAverage := 0.0
	for _, r := range rankings {
		if r.SeedAverage == nil {
			continue
		}
		ranked++
		if *r.SeedAverage > maxAverage {
			maxAverage = *r.SeedAverage
		}
	}

	for i := range rankings {
		if rankings[i].SeedAverage == nil {
			continue
		}
		rank := i + 1
		rankings[i].SeedRank = &rank

		raw := rankWeight * float64(ranked-rank+1) / float64(ranked)
		if maxAverage > 0 {
			raw += magnitudeWeight * *rankings[i].SeedAverage / maxAverage
		}
		rankings[i].RawSeedScore = &raw
	}

	return rankings
}

func summarize(teamID uuid.UUID, recorded []float64) model.SeedingRanking {
	r := model.SeedingRanking{TeamID: teamID}
	if len(recorded) == 0 {
		return r
	}

	sorted := append([]float64(nil), recorded...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	switch {
	case len(sorted) == 1:
		r.SeedAverage = ptr(sorted[0])
		r.Tiebreaker = ptr(sorted[0])
	default:
		r.SeedAverage = ptr((sorted[0] + sorted[1]) / 2)
		if len(sorted) >= 3 {
			r.Tiebreaker = ptr(sorted[2])
		} else {
			sum := 0.0
			for _, s := range sorted {
				sum += s
			}
			r.Tiebreaker = ptr(sum)
		}
	}
	return r
}

// compareDesc orders two optional values descending with nil last.
func compareDesc(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a > *b:
		return -1
	case *a < *b:
		return 1
	}
	return 0
}

func ptr(v float64) *float64 {
	return &v
}
