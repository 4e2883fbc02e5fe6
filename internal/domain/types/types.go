// Package types contains common read shapes shared by the service and API.
package types

// RankingEntry is one row of the seeding ranking as exposed to clients.
type RankingEntry struct {
	TeamID       string   `json:"team_id"`
	SeedRank     *int     `json:"seed_rank"`
	SeedAverage  *float64 `json:"seed_average"`
	Tiebreaker   *float64 `json:"tiebreaker"`
	RawSeedScore *float64 `json:"raw_seed_score"`
}

// GameView is one bracket game as exposed to clients.
type GameView struct {
	GameNumber  int    `json:"game_number"`
	RoundName   string `json:"round_name"`
	RoundNumber int    `json:"round_number"`
	Side        string `json:"side"`
	Team1ID     string `json:"team1_id,omitempty"`
	Team2ID     string `json:"team2_id,omitempty"`
	Status      string `json:"status"`
	WinnerID    string `json:"winner_id,omitempty"`
	LoserID     string `json:"loser_id,omitempty"`
	GrandFinal  bool   `json:"grand_final,omitempty"`
	ResetGame   bool   `json:"reset_game,omitempty"`
}

// BracketView is a full bracket snapshot as exposed to clients.
type BracketView struct {
	BracketID string     `json:"bracket_id"`
	Name      string     `json:"name"`
	Size      int        `json:"size"`
	Games     []GameView `json:"games"`
}
