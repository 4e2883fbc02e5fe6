// Package model contains domain models passed between layers.
package model

import "github.com/google/uuid"

// Side identifies which half of a double-elimination bracket a game sits in.
type Side string

// Bracket sides.
const (
	SideWinners Side = "winners"
	SideLosers  Side = "losers"
	SideFinals  Side = "finals"
)

// GameStatus is the lifecycle state of an instantiated game.
type GameStatus string

// Game statuses.
const (
	StatusPending   GameStatus = "pending"
	StatusReady     GameStatus = "ready"
	StatusBye       GameStatus = "bye"
	StatusCompleted GameStatus = "completed"
)

// Slot addresses one of the two team positions in a game.
type Slot int

// Team slots.
const (
	Slot1 Slot = 1
	Slot2 Slot = 2
)

// SourceKind tags the variants of SlotSource.
type SourceKind string

// Slot source kinds.
const (
	SourceSeed   SourceKind = "seed"
	SourceWinner SourceKind = "winner"
	SourceLoser  SourceKind = "loser"
)

// SlotSource describes where a game slot's team comes from: a seed position
// for round-one games, or the winner/loser of an earlier game.
type SlotSource struct {
	Kind SourceKind
	Seed int // seed position, set when Kind == SourceSeed
	Game int // feeder game number, set otherwise
}

// SeedSource references the entry at the given seed position.
func SeedSource(position int) SlotSource {
	return SlotSource{Kind: SourceSeed, Seed: position}
}

// WinnerSource references the winner of an earlier game.
func WinnerSource(gameNumber int) SlotSource {
	return SlotSource{Kind: SourceWinner, Game: gameNumber}
}

// LoserSource references the loser of an earlier game.
func LoserSource(gameNumber int) SlotSource {
	return SlotSource{Kind: SourceLoser, Game: gameNumber}
}

// Advancement names the destination slot a team moves into after a game.
type Advancement struct {
	Game int
	Slot Slot
}

// GameTemplate is one node of the double-elimination game graph for a given
// bracket size. Templates are pure values: generated once per size, never
// mutated, safe to cache and share.
type GameTemplate struct {
	BracketSize int
	GameNumber  int // 1-based, topologically ordered
	RoundName   string
	RoundNumber int
	Side        Side
	Team1Source SlotSource
	Team2Source SlotSource
	WinnerTo    *Advancement // nil for terminal games
	LoserTo     *Advancement // nil when a loss eliminates
	GrandFinal  bool
	ResetGame   bool
}

// Entry is one seeded slot of a bracket: a team, or a declared bye.
// Invariant: Bye is true exactly when TeamID is uuid.Nil.
type Entry struct {
	SeedPosition int
	TeamID       uuid.UUID
	Bye          bool
}

// Game is an instantiated bracket game. Template routing is copied in so the
// engines can operate on a Game slice alone.
type Game struct {
	GameNumber  int
	RoundName   string
	RoundNumber int
	Side        Side
	Team1ID     *uuid.UUID
	Team2ID     *uuid.UUID
	Status      GameStatus
	WinnerID    *uuid.UUID
	LoserID     *uuid.UUID
	Team1Source SlotSource
	Team2Source SlotSource
	WinnerTo    *Advancement
	LoserTo     *Advancement
	GrandFinal  bool
	ResetGame   bool
}

// TeamIn returns the team occupying the given slot, or nil.
func (g *Game) TeamIn(slot Slot) *uuid.UUID {
	if slot == Slot1 {
		return g.Team1ID
	}
	return g.Team2ID
}

// SetTeam writes a team into the given slot.
func (g *Game) SetTeam(slot Slot, id uuid.UUID) {
	v := id
	if slot == Slot1 {
		g.Team1ID = &v
		return
	}
	g.Team2ID = &v
}

// Source returns the slot's template source.
func (g *Game) Source(slot Slot) SlotSource {
	if slot == Slot1 {
		return g.Team1Source
	}
	return g.Team2Source
}

// Clone returns a deep copy of the game.
func (g *Game) Clone() Game {
	out := *g
	out.Team1ID = cloneID(g.Team1ID)
	out.Team2ID = cloneID(g.Team2ID)
	out.WinnerID = cloneID(g.WinnerID)
	out.LoserID = cloneID(g.LoserID)
	out.WinnerTo = cloneAdvancement(g.WinnerTo)
	out.LoserTo = cloneAdvancement(g.LoserTo)
	return out
}

// CloneGames deep-copies a game snapshot so engines never mutate their input.
func CloneGames(games []Game) []Game {
	out := make([]Game, len(games))
	for i := range games {
		out[i] = games[i].Clone()
	}
	return out
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneAdvancement(a *Advancement) *Advancement {
	if a == nil {
		return nil
	}
	v := *a
	return &v
}

// SeedingRanking is one team's computed seeding rank. Pointer fields are nil
// for unranked teams (no recorded scores).
type SeedingRanking struct {
	TeamID       uuid.UUID
	SeedAverage  *float64
	SeedRank     *int
	Tiebreaker   *float64
	RawSeedScore *float64
}

// ScoreReport is a seeding-match score submitted for a team. ReportID makes
// submissions idempotent across retries.
type ScoreReport struct {
	ReportID string
	TeamID   uuid.UUID
	Score    float64
}
