package bracket

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/tannerhall/bracketeer/internal/domain/model"
)

// Advance records the result of one game and routes its winner and loser to
// the destination slots named by the template edges, then re-runs Resolve so
// any newly exposed bye chains propagate. All preconditions are checked
// before anything is touched; on error the input snapshot is unchanged and
// no partial update escapes.
//
// loserID is optional. When the game has both participants the loser is the
// other team, and a supplied loserID must agree with it.
//
// Grand-final special case: when the winners-bracket representative (slot 1)
// wins, the championship reset stays empty and the tournament is over. When
// the losers-bracket representative wins, both finalists move into the reset
// game, which must then be played as the decider.
func Advance(games []model.Game, gameNumber int, winnerID uuid.UUID, loserID *uuid.UUID) ([]model.Game, error) {
	var target *model.Game
	for i := range games {
		if games[i].GameNumber == gameNumber {
			target = &games[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("advance game %d: %w", gameNumber, ErrGameNotFound)
	}
	if target.Status == model.StatusCompleted {
		return nil, fmt.Errorf("advance game %d: %w", gameNumber, ErrAlreadyCompleted)
	}

	matched := matchTeam(target, winnerID)
	if matched == 0 {
		return nil, fmt.Errorf("advance game %d: team %s is not a participant: %w", gameNumber, winnerID, ErrInvalidWinner)
	}
	other := target.TeamIn(otherSlot(matched))
	if loserID != nil && (other == nil || *loserID != *other) {
		return nil, fmt.Errorf("advance game %d: loser %s is not the other participant: %w", gameNumber, *loserID, ErrInvalidWinner)
	}

	out := model.CloneGames(games)
	byNumber := make(map[int]*model.Game, len(out))
	for i := range out {
		byNumber[out[i].GameNumber] = &out[i]
	}
	g := byNumber[gameNumber]

	g.Status = model.StatusCompleted
	win := winnerID
	g.WinnerID = &win
	g.LoserID = nil
	if other != nil {
		lose := *other
		g.LoserID = &lose
	}

	propagateWinner := g.WinnerTo != nil
	propagateLoser := g.LoserTo != nil && g.LoserID != nil
	if g.GrandFinal {
		// Loser-bracket win forces the reset game; a winners-bracket win
		// ends the tournament with the reset game left unpopulated.
		forced := matched == model.Slot2
		propagateWinner = forced
		propagateLoser = forced && g.LoserID != nil
	}

	if propagateWinner {
		fillSlot(byNumber, g.WinnerTo, *g.WinnerID)
	}
	if propagateLoser {
		fillSlot(byNumber, g.LoserTo, *g.LoserID)
	}

	return Resolve(out)
}

// matchTeam returns the slot the team occupies in the game, or 0.
func matchTeam(g *model.Game, id uuid.UUID) model.Slot {
	if g.Team1ID != nil && *g.Team1ID == id {
		return model.Slot1
	}
	if g.Team2ID != nil && *g.Team2ID == id {
		return model.Slot2
	}
	return 0
}

func otherSlot(s model.Slot) model.Slot {
	if s == model.Slot1 {
		return model.Slot2
	}
	return model.Slot1
}

func fillSlot(byNumber map[int]*model.Game, to *model.Advancement, id uuid.UUID) {
	dest := byNumber[to.Game]
	if dest == nil {
		return
	}
	dest.SetTeam(to.Slot, id)
	if dest.Team1ID != nil && dest.Team2ID != nil && dest.Status == model.StatusPending {
		dest.Status = model.StatusReady
	}
}
