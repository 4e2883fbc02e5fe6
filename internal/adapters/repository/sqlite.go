package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/tannerhall/bracketeer/internal/domain/model"
	"github.com/tannerhall/bracketeer/pkg/metrics"
)

const pingTimeout = 5 * time.Second

// Open opens the SQLite database at path. A single connection keeps writes
// serialized; this is a single-instance service.
func Open(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// Migrate creates the schema.
func Migrate(db *sqlx.DB) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA foreign_keys=ON;`,
		`CREATE TABLE IF NOT EXISTS teams (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS seed_scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			team_id TEXT NOT NULL REFERENCES teams(id),
			score REAL NOT NULL,
			recorded_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		);`,
		`CREATE INDEX IF NOT EXISTS idx_seed_scores_team ON seed_scores(team_id);`,
		`CREATE TABLE IF NOT EXISTS seeding_rankings (
			team_id TEXT PRIMARY KEY,
			seed_average REAL,
			seed_rank INTEGER,
			tiebreaker REAL,
			raw_seed_score REAL
		);`,
		`CREATE TABLE IF NOT EXISTS brackets (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			size INTEGER NOT NULL,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		);`,
		`CREATE TABLE IF NOT EXISTS bracket_entries (
			bracket_id TEXT NOT NULL REFERENCES brackets(id),
			seed_position INTEGER NOT NULL,
			team_id TEXT,
			is_bye INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (bracket_id, seed_position)
		);`,
		`CREATE TABLE IF NOT EXISTS bracket_games (
			bracket_id TEXT NOT NULL REFERENCES brackets(id),
			game_number INTEGER NOT NULL,
			round_name TEXT NOT NULL,
			round_number INTEGER NOT NULL,
			side TEXT NOT NULL,
			team1_id TEXT,
			team2_id TEXT,
			status TEXT NOT NULL,
			winner_id TEXT,
			loser_id TEXT,
			team1_source TEXT NOT NULL,
			team2_source TEXT NOT NULL,
			winner_to_game INTEGER,
			winner_to_slot INTEGER,
			loser_to_game INTEGER,
			loser_to_slot INTEGER,
			grand_final INTEGER NOT NULL DEFAULT 0,
			reset_game INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (bracket_id, game_number)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// SQLiteStore implements Store over SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore wraps an opened database.
func NewSQLiteStore(db *sqlx.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpsertTeam(ctx context.Context, team Team) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO teams (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, team.ID.String(), team.Name)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("upsert team: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListTeams(ctx context.Context) ([]Team, error) {
	var rows []struct {
		ID   string `db:"id"`
		Name string `db:"name"`
	}
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, name FROM teams ORDER BY name ASC`); err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("list teams: %w", err)
	}
	teams := make([]Team, 0, len(rows))
	for _, r := range rows {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return nil, fmt.Errorf("team id %q: %w", r.ID, ErrCorruptRow)
		}
		teams = append(teams, Team{ID: id, Name: r.Name})
	}
	return teams, nil
}

func (s *SQLiteStore) InsertSeedScore(ctx context.Context, teamID uuid.UUID, score float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO seed_scores (team_id, score) VALUES (?, ?)
	`, teamID.String(), score)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("insert seed score: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SeedScores(ctx context.Context) (map[uuid.UUID][]float64, error) {
	scores := make(map[uuid.UUID][]float64)

	// Teams without scores still rank (as unranked), so start from teams.
	teams, err := s.ListTeams(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range teams {
		scores[t.ID] = nil
	}

	var rows []struct {
		TeamID string  `db:"team_id"`
		Score  float64 `db:"score"`
	}
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT team_id, score FROM seed_scores ORDER BY id ASC
	`); err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("list seed scores: %w", err)
	}
	for _, r := range rows {
		id, err := uuid.Parse(r.TeamID)
		if err != nil {
			return nil, fmt.Errorf("seed score team id %q: %w", r.TeamID, ErrCorruptRow)
		}
		scores[id] = append(scores[id], r.Score)
	}
	return scores, nil
}

func (s *SQLiteStore) ReplaceRankings(ctx context.Context, rankings []model.SeedingRanking) error {
	start := time.Now()
	defer func() {
		metrics.ObserveStoreLatency("replace_rankings", float64(time.Since(start).Milliseconds()))
	}()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("replace rankings: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM seeding_rankings`); err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("replace rankings: %w", err)
	}
	for _, r := range rankings {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO seeding_rankings (team_id, seed_average, seed_rank, tiebreaker, raw_seed_score)
			VALUES (?, ?, ?, ?, ?)
		`, r.TeamID.String(), nullFloat(r.SeedAverage), nullInt(r.SeedRank), nullFloat(r.Tiebreaker), nullFloat(r.RawSeedScore))
		if err != nil {
			metrics.RecordStoreError()
			return fmt.Errorf("replace rankings: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("replace rankings: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListRankings(ctx context.Context) ([]model.SeedingRanking, error) {
	var rows []struct {
		TeamID       string          `db:"team_id"`
		SeedAverage  sql.NullFloat64 `db:"seed_average"`
		SeedRank     sql.NullInt64   `db:"seed_rank"`
		Tiebreaker   sql.NullFloat64 `db:"tiebreaker"`
		RawSeedScore sql.NullFloat64 `db:"raw_seed_score"`
	}
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT team_id, seed_average, seed_rank, tiebreaker, raw_seed_score
		FROM seeding_rankings
		ORDER BY seed_rank IS NULL, seed_rank ASC, team_id ASC
	`); err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("list rankings: %w", err)
	}

	rankings := make([]model.SeedingRanking, 0, len(rows))
	for _, r := range rows {
		id, err := uuid.Parse(r.TeamID)
		if err != nil {
			return nil, fmt.Errorf("ranking team id %q: %w", r.TeamID, ErrCorruptRow)
		}
		rankings = append(rankings, model.SeedingRanking{
			TeamID:       id,
			SeedAverage:  floatPtr(r.SeedAverage),
			SeedRank:     intPtr(r.SeedRank),
			Tiebreaker:   floatPtr(r.Tiebreaker),
			RawSeedScore: floatPtr(r.RawSeedScore),
		})
	}
	return rankings, nil
}

func (s *SQLiteStore) CreateBracket(ctx context.Context, b Bracket, entries []model.Entry, games []model.Game) error {
	start := time.Now()
	defer func() {
		metrics.ObserveStoreLatency("create_bracket", float64(time.Since(start).Milliseconds()))
	}()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("create bracket: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO brackets (id, name, size) VALUES (?, ?, ?)
	`, b.ID.String(), b.Name, b.Size); err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("create bracket: %w", err)
	}
	for _, e := range entries {
		teamID := sql.NullString{}
		if !e.Bye {
			teamID = sql.NullString{String: e.TeamID.String(), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO bracket_entries (bracket_id, seed_position, team_id, is_bye)
			VALUES (?, ?, ?, ?)
		`, b.ID.String(), e.SeedPosition, teamID, e.Bye); err != nil {
			metrics.RecordStoreError()
			return fmt.Errorf("create bracket entries: %w", err)
		}
	}
	if err := insertGames(ctx, tx, b.ID, games); err != nil {
		metrics.RecordStoreError()
		return err
	}
	if err := tx.Commit(); err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("create bracket: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetBracket(ctx context.Context, id uuid.UUID) (Bracket, error) {
	var row struct {
		ID        string `db:"id"`
		Name      string `db:"name"`
		Size      int    `db:"size"`
		CreatedAt string `db:"created_at"`
	}
	err := s.db.GetContext(ctx, &row, `
		SELECT id, name, size, created_at FROM brackets WHERE id = ?
	`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return Bracket{}, fmt.Errorf("bracket %s: %w", id, ErrNotFound)
	}
	if err != nil {
		metrics.RecordStoreError()
		return Bracket{}, fmt.Errorf("get bracket: %w", err)
	}
	createdAt, _ := time.Parse(time.RFC3339Nano, row.CreatedAt)
	return Bracket{ID: id, Name: row.Name, Size: row.Size, CreatedAt: createdAt}, nil
}

func (s *SQLiteStore) ListEntries(ctx context.Context, bracketID uuid.UUID) ([]model.Entry, error) {
	var rows []struct {
		SeedPosition int            `db:"seed_position"`
		TeamID       sql.NullString `db:"team_id"`
		IsBye        bool           `db:"is_bye"`
	}
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT seed_position, team_id, is_bye FROM bracket_entries
		WHERE bracket_id = ?
		ORDER BY seed_position ASC
	`, bracketID.String()); err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("list entries: %w", err)
	}
	entries := make([]model.Entry, 0, len(rows))
	for _, r := range rows {
		e := model.Entry{SeedPosition: r.SeedPosition, Bye: r.IsBye}
		if r.TeamID.Valid {
			id, err := uuid.Parse(r.TeamID.String)
			if err != nil {
				return nil, fmt.Errorf("entry team id %q: %w", r.TeamID.String, ErrCorruptRow)
			}
			e.TeamID = id
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *SQLiteStore) ListGames(ctx context.Context, bracketID uuid.UUID) ([]model.Game, error) {
	var rows []gameRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT game_number, round_name, round_number, side, team1_id, team2_id,
		       status, winner_id, loser_id, team1_source, team2_source,
		       winner_to_game, winner_to_slot, loser_to_game, loser_to_slot,
		       grand_final, reset_game
		FROM bracket_games
		WHERE bracket_id = ?
		ORDER BY game_number ASC
	`, bracketID.String()); err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("list games: %w", err)
	}
	games := make([]model.Game, 0, len(rows))
	for _, r := range rows {
		g, err := r.toGame()
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, nil
}

func (s *SQLiteStore) SaveGames(ctx context.Context, bracketID uuid.UUID, games []model.Game) error {
	start := time.Now()
	defer func() {
		metrics.ObserveStoreLatency("save_games", float64(time.Since(start).Milliseconds()))
	}()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("save games: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM bracket_games WHERE bracket_id = ?`, bracketID.String()); err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("save games: %w", err)
	}
	if err := insertGames(ctx, tx, bracketID, games); err != nil {
		metrics.RecordStoreError()
		return err
	}
	if err := tx.Commit(); err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("save games: %w", err)
	}
	return nil
}

func insertGames(ctx context.Context, tx *sqlx.Tx, bracketID uuid.UUID, games []model.Game) error {
	for i := range games {
		g := &games[i]
		wtGame, wtSlot := nullAdvancement(g.WinnerTo)
		ltGame, ltSlot := nullAdvancement(g.LoserTo)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO bracket_games (
				bracket_id, game_number, round_name, round_number, side,
				team1_id, team2_id, status, winner_id, loser_id,
				team1_source, team2_source,
				winner_to_game, winner_to_slot, loser_to_game, loser_to_slot,
				grand_final, reset_game
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, bracketID.String(), g.GameNumber, g.RoundName, g.RoundNumber, string(g.Side),
			nullID(g.Team1ID), nullID(g.Team2ID), string(g.Status), nullID(g.WinnerID), nullID(g.LoserID),
			encodeSource(g.Team1Source), encodeSource(g.Team2Source),
			wtGame, wtSlot, ltGame, ltSlot,
			g.GrandFinal, g.ResetGame)
		if err != nil {
			return fmt.Errorf("insert game %d: %w", g.GameNumber, err)
		}
	}
	return nil
}

type gameRow struct {
	GameNumber   int             `db:"game_number"`
	RoundName    string          `db:"round_name"`
	RoundNumber  int             `db:"round_number"`
	Side         string          `db:"side"`
	Team1ID      sql.NullString  `db:"team1_id"`
	Team2ID      sql.NullString  `db:"team2_id"`
	Status       string          `db:"status"`
	WinnerID     sql.NullString  `db:"winner_id"`
	LoserID      sql.NullString  `db:"loser_id"`
	Team1Source  string          `db:"team1_source"`
	Team2Source  string          `db:"team2_source"`
	WinnerToGame sql.NullInt64   `db:"winner_to_game"`
	WinnerToSlot sql.NullInt64   `db:"winner_to_slot"`
	LoserToGame  sql.NullInt64   `db:"loser_to_game"`
	LoserToSlot  sql.NullInt64   `db:"loser_to_slot"`
	GrandFinal   bool            `db:"grand_final"`
	ResetGame    bool            `db:"reset_game"`
}

func (r *gameRow) toGame() (model.Game, error) {
	src1, err := decodeSource(r.Team1Source)
	if err != nil {
		return model.Game{}, err
	}
	src2, err := decodeSource(r.Team2Source)
	if err != nil {
		return model.Game{}, err
	}
	team1, err := idPtr(r.Team1ID)
	if err != nil {
		return model.Game{}, err
	}
	team2, err := idPtr(r.Team2ID)
	if err != nil {
		return model.Game{}, err
	}
	winner, err := idPtr(r.WinnerID)
	if err != nil {
		return model.Game{}, err
	}
	loser, err := idPtr(r.LoserID)
	if err != nil {
		return model.Game{}, err
	}
	return model.Game{
		GameNumber:  r.GameNumber,
		RoundName:   r.RoundName,
		RoundNumber: r.RoundNumber,
		Side:        model.Side(r.Side),
		Team1ID:     team1,
		Team2ID:     team2,
		Status:      model.GameStatus(r.Status),
		WinnerID:    winner,
		LoserID:     loser,
		Team1Source: src1,
		Team2Source: src2,
		WinnerTo:    advancementPtr(r.WinnerToGame, r.WinnerToSlot),
		LoserTo:     advancementPtr(r.LoserToGame, r.LoserToSlot),
		GrandFinal:  r.GrandFinal,
		ResetGame:   r.ResetGame,
	}, nil
}

func nullID(id *uuid.UUID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

func idPtr(v sql.NullString) (*uuid.UUID, error) {
	if !v.Valid {
		return nil, nil
	}
	id, err := uuid.Parse(v.String)
	if err != nil {
		return nil, fmt.Errorf("team id %q: %w", v.String, ErrCorruptRow)
	}
	return &id, nil
}

func nullAdvancement(a *model.Advancement) (sql.NullInt64, sql.NullInt64) {
	if a == nil {
		return sql.NullInt64{}, sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(a.Game), Valid: true}, sql.NullInt64{Int64: int64(a.Slot), Valid: true}
}

func advancementPtr(game, slot sql.NullInt64) *model.Advancement {
	if !game.Valid || !slot.Valid {
		return nil
	}
	return &model.Advancement{Game: int(game.Int64), Slot: model.Slot(slot.Int64)}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
