package bracket

import (
	"fmt"
	"math/bits"

	"github.com/tannerhall/bracketeer/internal/domain/model"
)

// Bracket size bounds.
const (
	MinBracketSize = 4
	MaxBracketSize = 64
)

// SupportedSize reports whether templates can be built for the given size.
func SupportedSize(size int) bool {
	switch size {
	case 4, 8, 16, 32, 64:
		return true
	}
	return false
}

// BuildTemplate generates the full double-elimination game graph for a
// bracket of the given size. The graph is emitted in play order, one round
// at a time, so every WinnerOf/LoserOf reference points at a strictly
// earlier game; the championship reset is the single exception, referencing
// the grand final it may replay.
//
// For a bracket of 2^k slots the rounds are:
//
//	winners rounds 1..k, halving each round;
//	losers round 1 pairing the round-one losers, then alternating minor
//	rounds (a losers-bracket survivor meets a freshly dropped winners-bracket
//	loser) and major rounds (two survivors meet) until one finalist remains;
//	the grand final and the conditional championship reset.
//
// The result is a pure value: callers may cache it per size and share it.
func BuildTemplate(size int) ([]model.GameTemplate, error) {
	if !SupportedSize(size) {
		return nil, fmt.Errorf("build template for size %d: %w", size, ErrUnsupportedSize)
	}
	order, err := SeedOrder(size)
	if err != nil {
		return nil, err
	}
	k := bits.Len(uint(size)) - 1

	games := make([]model.GameTemplate, 0, 2*size-1)
	round := 0

	// appendRound emits one round of count games and returns their numbers.
	appendRound := func(name string, side model.Side, count int, src func(i int) (model.SlotSource, model.SlotSource)) []int {
		round++
		nums := make([]int, count)
		for i := 1; i <= count; i++ {
			s1, s2 := src(i)
			n := len(games) + 1
			nums[i-1] = n
			games = append(games, model.GameTemplate{
				BracketSize: size,
				GameNumber:  n,
				RoundName:   name,
				RoundNumber: round,
				Side:        side,
				Team1Source: s1,
				Team2Source: s2,
			})
		}
		return nums
	}

	wNums := make([][]int, k+1)
	lNums := make([][]int, 2*k-1) // losers rounds 1..2k-2

	// Winners round 1 from the seed-order pairs.
	wNums[1] = appendRound(winnersRoundName(1, k), model.SideWinners, size/2, func(i int) (model.SlotSource, model.SlotSource) {
		return model.SeedSource(order[2*i-2]), model.SeedSource(order[2*i-1])
	})

	// Losers round 1 pairs adjacent round-one losers.
	lNums[1] = appendRound(losersRoundName(1, k), model.SideLosers, size/4, func(i int) (model.SlotSource, model.SlotSource) {
		return model.LoserSource(wNums[1][2*i-2]), model.LoserSource(wNums[1][2*i-1])
	})

	for m := 2; m <= k; m++ {
		mm := m
		wNums[m] = appendRound(winnersRoundName(m, k), model.SideWinners, size>>m, func(i int) (model.SlotSource, model.SlotSource) {
			return model.WinnerSource(wNums[mm-1][2*i-2]), model.WinnerSource(wNums[mm-1][2*i-1])
		})

		// Minor round: previous losers-round survivors meet the losers
		// dropping from winners round m. The feeder order flips on even
		// rounds so dropped teams land away from opponents they already
		// played on the winners side.
		minor := 2*m - 2
		minorCount := size >> m
		lNums[minor] = appendRound(losersRoundName(minor, k), model.SideLosers, minorCount, func(j int) (model.SlotSource, model.SlotSource) {
			feeder := dropFeeder(mm, j, minorCount)
			return model.WinnerSource(lNums[2*mm-3][j-1]), model.LoserSource(wNums[mm][feeder-1])
		})

		if m < k {
			major := 2*m - 1
			lNums[major] = appendRound(losersRoundName(major, k), model.SideLosers, size>>(m+1), func(i int) (model.SlotSource, model.SlotSource) {
				return model.WinnerSource(lNums[2*mm-2][2*i-2]), model.WinnerSource(lNums[2*mm-2][2*i-1])
			})
		}
	}

	// Winners champion holds slot 1 of the grand final; the losers-bracket
	// finalist takes slot 2. Advance relies on this slot assignment to tell
	// which side the grand-final winner entered from.
	gf := appendRound("Grand Final", model.SideFinals, 1, func(int) (model.SlotSource, model.SlotSource) {
		return model.WinnerSource(wNums[k][0]), model.WinnerSource(lNums[2*k-2][0])
	})
	games[gf[0]-1].GrandFinal = true

	reset := appendRound("Championship Reset", model.SideFinals, 1, func(int) (model.SlotSource, model.SlotSource) {
		return model.LoserSource(gf[0]), model.WinnerSource(gf[0])
	})
	games[reset[0]-1].ResetGame = true

	// Derive the forward advancement edges from the sources: every
	// WinnerOf/LoserOf reference is exactly one edge out of the referenced
	// game, so the reset game ends up terminal by construction.
	for gi := range games {
		g := games[gi]
		for _, slot := range []model.Slot{model.Slot1, model.Slot2} {
			src := g.Team1Source
			if slot == model.Slot2 {
				src = g.Team2Source
			}
			switch src.Kind {
			case model.SourceWinner:
				games[src.Game-1].WinnerTo = &model.Advancement{Game: g.GameNumber, Slot: slot}
			case model.SourceLoser:
				games[src.Game-1].LoserTo = &model.Advancement{Game: g.GameNumber, Slot: slot}
			}
		}
	}

	return games, nil
}

// dropFeeder maps a minor-round game index to the winners-round game whose
// loser drops into it. Odd winners rounds feed in order, even rounds in
// reverse; the mapping is its own inverse either way.
func dropFeeder(m, j, count int) int {
	if m%2 == 0 {
		return count - j + 1
	}
	return j
}

func winnersRoundName(m, k int) string {
	if m == k {
		return "Winners Final"
	}
	return fmt.Sprintf("Winners Round %d", m)
}

func losersRoundName(r, k int) string {
	if r == 2*k-2 {
		return "Losers Final"
	}
	return fmt.Sprintf("Losers Round %d", r)
}
