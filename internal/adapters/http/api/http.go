// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/tannerhall/bracketeer/internal/adapters/repository"
	"github.com/tannerhall/bracketeer/internal/domain/model"
	"github.com/tannerhall/bracketeer/internal/domain/types"
)

// Dependencies required by HTTP handlers. An interface bundle keeps the
// handler layer loosely coupled to the service implementation.
type Dependencies interface {
	RegisterTeam(ctx context.Context, id uuid.UUID, name string) error
	Teams(ctx context.Context) ([]repository.Team, error)

	SubmitScore(ctx context.Context, r model.ScoreReport) (accepted, duplicate bool)
	Rankings(ctx context.Context) ([]types.RankingEntry, error)

	CreateBracket(ctx context.Context, name string, size int) (types.BracketView, error)
	Bracket(ctx context.Context, id uuid.UUID) (types.BracketView, error)
	RecordResult(ctx context.Context, bracketID uuid.UUID, gameNumber int, winnerID uuid.UUID, loserID *uuid.UUID) (types.BracketView, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	teamsHandler    *TeamsHandler
	scoresHandler   *ScoresHandler
	rankingsHandler *RankingsHandler
	bracketsHandler *BracketsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		teamsHandler:    NewTeamsHandler(deps),
		scoresHandler:   NewScoresHandler(deps),
		rankingsHandler: NewRankingsHandler(deps),
		bracketsHandler: NewBracketsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/teams", MetricsMiddleware(s.teamsHandler.HandleTeams, "teams"))
	mux.HandleFunc("/scores", MetricsMiddleware(s.scoresHandler.HandlePostScore, "scores"))
	mux.HandleFunc("/rankings", MetricsMiddleware(s.rankingsHandler.HandleGetRankings, "rankings"))
	mux.HandleFunc("/brackets", MetricsMiddleware(s.bracketsHandler.HandleBrackets, "brackets"))
	mux.HandleFunc("/brackets/", MetricsMiddleware(s.bracketsHandler.HandleBracket, "bracket"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
