package bracket

import (
	"fmt"

	"github.com/tannerhall/bracketeer/internal/domain/model"
)

// Resolve propagates byes and already-decided winners forward through the
// advancement edges until the game set stops changing. It is idempotent and
// pure: the input snapshot is never mutated. Callers re-run it after every
// advancement, since completing a game can expose a new bye downstream.
//
// Only winner edges propagate here; byes produce no loser, and loser-side
// propagation of real results belongs to Advance. A pending game becomes a
// bye itself when one slot is filled and the other slot's source chain can
// never produce a team (a round-one bye entry, or a loser reference into a
// game that was itself a bye).
func Resolve(games []model.Game) ([]model.Game, error) {
	out, _, err := ResolveCounted(games)
	return out, err
}

// ResolveCounted is Resolve, also reporting how many fixpoint passes ran.
func ResolveCounted(games []model.Game) ([]model.Game, int, error) {
	out := model.CloneGames(games)
	byNumber := make(map[int]*model.Game, len(out))
	for i := range out {
		byNumber[out[i].GameNumber] = &out[i]
	}

	// The graph is acyclic, so a fixpoint is reached in at most one pass per
	// game. More passes than that means the template is malformed.
	maxPasses := len(out) + 1
	for pass := 0; ; pass++ {
		if pass >= maxPasses {
			return nil, pass, fmt.Errorf("no fixpoint after %d passes: %w", pass, ErrCycleDetected)
		}
		changed := false

		// Push decided winners along their advancement edge.
		for i := range out {
			g := &out[i]
			if g.WinnerID == nil || g.WinnerTo == nil {
				continue
			}
			if g.GrandFinal && !losersRepWon(g) {
				// Winners-bracket champion took the grand final: the reset
				// game is never populated.
				continue
			}
			dest := byNumber[g.WinnerTo.Game]
			if dest == nil {
				return nil, pass, fmt.Errorf("game %d advances to missing game %d: %w", g.GameNumber, g.WinnerTo.Game, ErrGameNotFound)
			}
			if dest.TeamIn(g.WinnerTo.Slot) == nil {
				dest.SetTeam(g.WinnerTo.Slot, *g.WinnerID)
				changed = true
			}
		}

		// Re-derive statuses for games still waiting on participants.
		for i := range out {
			g := &out[i]
			if g.Status != model.StatusPending && g.Status != model.StatusReady {
				continue
			}
			switch {
			case g.Team1ID != nil && g.Team2ID != nil:
				if g.Status != model.StatusReady {
					g.Status = model.StatusReady
					changed = true
				}
			case g.Team1ID != nil && slotStarved(byNumber, g, model.Slot2):
				g.Status = model.StatusBye
				g.WinnerID = g.Team1ID
				changed = true
			case g.Team2ID != nil && slotStarved(byNumber, g, model.Slot1):
				g.Status = model.StatusBye
				g.WinnerID = g.Team2ID
				changed = true
			}
		}

		if !changed {
			return out, pass + 1, nil
		}
	}
}

// losersRepWon reports whether the grand final was taken by the team that
// entered from the losers bracket (slot 2 by template construction).
func losersRepWon(g *model.Game) bool {
	return g.WinnerID != nil && g.Team2ID != nil && *g.WinnerID == *g.Team2ID
}

// slotStarved reports whether a game slot can never receive a team.
func slotStarved(byNumber map[int]*model.Game, g *model.Game, slot model.Slot) bool {
	if g.TeamIn(slot) != nil {
		return false
	}
	return sourceStarved(byNumber, g.Source(slot), make(map[int]bool))
}

// sourceStarved walks a slot source backwards. A seed slot with no team was
// a declared bye. A loser reference starves when the feeder was a bye (byes
// have no loser). A winner reference starves only when the feeder itself is
// void, both of its own slots being starved in turn.
func sourceStarved(byNumber map[int]*model.Game, src model.SlotSource, visiting map[int]bool) bool {
	switch src.Kind {
	case model.SourceSeed:
		return true
	case model.SourceWinner, model.SourceLoser:
		feeder := byNumber[src.Game]
		if feeder == nil || visiting[src.Game] {
			// Unknown feeders and cycles are template bugs; Resolve's pass
			// bound surfaces them. Treat the slot as still waiting.
			return false
		}
		if src.Kind == model.SourceLoser {
			if feeder.Status == model.StatusBye {
				return true
			}
			if feeder.Status == model.StatusCompleted && feeder.LoserID == nil {
				return true
			}
		}
		visiting[src.Game] = true
		defer delete(visiting, src.Game)
		return gameVoid(byNumber, feeder, visiting)
	}
	return false
}

// gameVoid reports whether a game will never have any participant at all.
func gameVoid(byNumber map[int]*model.Game, g *model.Game, visiting map[int]bool) bool {
	if g.Team1ID != nil || g.Team2ID != nil {
		return false
	}
	return sourceStarved(byNumber, g.Team1Source, visiting) &&
		sourceStarved(byNumber, g.Team2Source, visiting)
}
