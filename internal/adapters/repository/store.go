// Package repository persists teams, seeding scores, rankings and bracket
// state in SQLite. The engine itself never touches storage; the service
// loads snapshots here, runs the pure engine, and writes results back.
package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tannerhall/bracketeer/internal/domain/model"
)

// Team is a registered team.
type Team struct {
	ID   uuid.UUID
	Name string
}

// Bracket is the stored bracket header.
type Bracket struct {
	ID        uuid.UUID
	Name      string
	Size      int
	CreatedAt time.Time
}

// Store provides read/write access to tournament state.
type Store interface {
	UpsertTeam(ctx context.Context, team Team) error
	ListTeams(ctx context.Context) ([]Team, error)

	// InsertSeedScore appends one recorded seeding-match score for a team.
	InsertSeedScore(ctx context.Context, teamID uuid.UUID, score float64) error
	// SeedScores returns every recorded score grouped by team, including
	// teams with no scores yet.
	SeedScores(ctx context.Context) (map[uuid.UUID][]float64, error)

	// ReplaceRankings swaps the full seeding ranking in one transaction.
	ReplaceRankings(ctx context.Context, rankings []model.SeedingRanking) error
	ListRankings(ctx context.Context) ([]model.SeedingRanking, error)

	// CreateBracket stores the header, entry list and initial game set
	// atomically.
	CreateBracket(ctx context.Context, b Bracket, entries []model.Entry, games []model.Game) error
	GetBracket(ctx context.Context, id uuid.UUID) (Bracket, error)
	ListEntries(ctx context.Context, bracketID uuid.UUID) ([]model.Entry, error)
	ListGames(ctx context.Context, bracketID uuid.UUID) ([]model.Game, error)
	// SaveGames replaces the bracket's game snapshot in one transaction, so
	// an advancement and all its cascaded bye updates land together.
	SaveGames(ctx context.Context, bracketID uuid.UUID, games []model.Game) error

	Close() error
}

// encodeSource serializes a slot source as kind:number text.
func encodeSource(s model.SlotSource) string {
	switch s.Kind {
	case model.SourceSeed:
		return fmt.Sprintf("seed:%d", s.Seed)
	case model.SourceWinner:
		return fmt.Sprintf("winner:%d", s.Game)
	case model.SourceLoser:
		return fmt.Sprintf("loser:%d", s.Game)
	}
	return ""
}

func decodeSource(raw string) (model.SlotSource, error) {
	kind, numText, ok := strings.Cut(raw, ":")
	if !ok {
		return model.SlotSource{}, fmt.Errorf("malformed slot source %q: %w", raw, ErrCorruptRow)
	}
	n, err := strconv.Atoi(numText)
	if err != nil {
		return model.SlotSource{}, fmt.Errorf("malformed slot source %q: %w", raw, ErrCorruptRow)
	}
	switch kind {
	case "seed":
		return model.SeedSource(n), nil
	case "winner":
		return model.WinnerSource(n), nil
	case "loser":
		return model.LoserSource(n), nil
	}
	return model.SlotSource{}, fmt.Errorf("unknown slot source kind %q: %w", kind, ErrCorruptRow)
}
