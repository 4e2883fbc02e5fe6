package bracket

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/tannerhall/bracketeer/internal/domain/model"
)

// Instantiate produces concrete games from a template and an ordered entry
// list. Seed references resolve to team ids immediately; WinnerOf/LoserOf
// slots stay empty until Resolve or Advance fills them. Callers should run
// Resolve on the result to propagate first-round byes forward.
func Instantiate(template []model.GameTemplate, entries []model.Entry) ([]model.Game, error) {
	if len(template) == 0 {
		return nil, fmt.Errorf("instantiate: empty template: %w", ErrUnsupportedSize)
	}
	size := template[0].BracketSize
	byPosition, err := validateEntries(entries, size)
	if err != nil {
		return nil, err
	}

	games := make([]model.Game, 0, len(template))
	for _, t := range template {
		g := model.Game{
			GameNumber:  t.GameNumber,
			RoundName:   t.RoundName,
			RoundNumber: t.RoundNumber,
			Side:        t.Side,
			Status:      model.StatusPending,
			Team1Source: t.Team1Source,
			Team2Source: t.Team2Source,
			WinnerTo:    t.WinnerTo,
			LoserTo:     t.LoserTo,
			GrandFinal:  t.GrandFinal,
			ResetGame:   t.ResetGame,
		}

		team1, bye1 := resolveSeed(t.Team1Source, byPosition)
		team2, bye2 := resolveSeed(t.Team2Source, byPosition)
		if bye1 && bye2 {
			return nil, fmt.Errorf("game %d: two byes meet at seeds %d and %d: %w",
				t.GameNumber, t.Team1Source.Seed, t.Team2Source.Seed, ErrInvalidEntry)
		}
		if team1 != nil {
			g.SetTeam(model.Slot1, *team1)
		}
		if team2 != nil {
			g.SetTeam(model.Slot2, *team2)
		}

		switch {
		case team1 != nil && team2 != nil:
			g.Status = model.StatusReady
		case team1 != nil && bye2:
			g.Status = model.StatusBye
			g.WinnerID = g.Team1ID
		case team2 != nil && bye1:
			g.Status = model.StatusBye
			g.WinnerID = g.Team2ID
		}

		games = append(games, g)
	}
	return games, nil
}

// EntriesFromRankings builds the ordered entry list for a bracket of the
// given size from a computed seeding ranking: ranked teams fill seed
// positions in rank order and the remainder are declared byes.
func EntriesFromRankings(rankings []model.SeedingRanking, size int) ([]model.Entry, error) {
	if !SupportedSize(size) {
		return nil, fmt.Errorf("entries for size %d: %w", size, ErrUnsupportedSize)
	}
	var ranked []model.SeedingRanking
	for _, r := range rankings {
		if r.SeedRank != nil {
			ranked = append(ranked, r)
		}
	}
	// Callers may hand over storage-ordered rows; seed positions follow rank.
	sort.SliceStable(ranked, func(i, j int) bool { return *ranked[i].SeedRank < *ranked[j].SeedRank })
	if len(ranked) < 2 {
		return nil, fmt.Errorf("need at least 2 ranked teams, have %d: %w", len(ranked), ErrInvalidEntry)
	}
	if len(ranked) > size {
		ranked = ranked[:size]
	}

	entries := make([]model.Entry, 0, size)
	for pos := 1; pos <= size; pos++ {
		if pos <= len(ranked) {
			entries = append(entries, model.Entry{SeedPosition: pos, TeamID: ranked[pos-1].TeamID})
			continue
		}
		entries = append(entries, model.Entry{SeedPosition: pos, Bye: true})
	}
	return entries, nil
}

func validateEntries(entries []model.Entry, size int) (map[int]model.Entry, error) {
	if len(entries) != size {
		return nil, fmt.Errorf("have %d entries for a %d-slot bracket: %w", len(entries), size, ErrInvalidEntry)
	}
	byPosition := make(map[int]model.Entry, len(entries))
	for _, e := range entries {
		if e.SeedPosition < 1 || e.SeedPosition > size {
			return nil, fmt.Errorf("seed position %d out of range 1..%d: %w", e.SeedPosition, size, ErrInvalidEntry)
		}
		if _, dup := byPosition[e.SeedPosition]; dup {
			return nil, fmt.Errorf("duplicate seed position %d: %w", e.SeedPosition, ErrInvalidEntry)
		}
		if e.Bye != (e.TeamID == uuid.Nil) {
			return nil, fmt.Errorf("seed position %d: bye flag and team id disagree: %w", e.SeedPosition, ErrInvalidEntry)
		}
		byPosition[e.SeedPosition] = e
	}
	return byPosition, nil
}

// resolveSeed returns the team for a seed source, or whether that seed is a
// declared bye. Non-seed sources resolve later.
func resolveSeed(src model.SlotSource, byPosition map[int]model.Entry) (*uuid.UUID, bool) {
	if src.Kind != model.SourceSeed {
		return nil, false
	}
	e := byPosition[src.Seed]
	if e.Bye {
		return nil, true
	}
	id := e.TeamID
	return &id, false
}
