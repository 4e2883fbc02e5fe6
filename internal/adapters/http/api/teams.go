package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// TeamsHandler handles team registration and listing.
type TeamsHandler struct {
	deps Dependencies
}

// NewTeamsHandler creates a new teams handler.
func NewTeamsHandler(deps Dependencies) *TeamsHandler {
	return &TeamsHandler{deps: deps}
}

type teamRequest struct {
	TeamID string `json:"team_id,omitempty"`
	Name   string `json:"name"`
}

type teamResponse struct {
	TeamID string `json:"team_id"`
	Name   string `json:"name"`
}

// HandleTeams handles GET /teams and POST /teams requests.
func (h *TeamsHandler) HandleTeams(w http.ResponseWriter, r *http.Request) {
	const op = "api.teams"
	switch r.Method {
	case http.MethodGet:
		teams, err := h.deps.Teams(r.Context())
		if err != nil {
			writeEngineError(w, op, err)
			return
		}
		out := make([]teamResponse, len(teams))
		for i, t := range teams {
			out[i] = teamResponse{TeamID: t.ID.String(), Name: t.Name}
		}
		writeJSON(w, http.StatusOK, out)

	case http.MethodPost:
		var req teamRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing name")))
			return
		}
		id := uuid.New()
		if req.TeamID != "" {
			parsed, err := uuid.Parse(req.TeamID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
				return
			}
			id = parsed
		}
		if err := h.deps.RegisterTeam(r.Context(), id, req.Name); err != nil {
			writeEngineError(w, op, err)
			return
		}
		writeJSON(w, http.StatusCreated, teamResponse{TeamID: id.String(), Name: req.Name})

	default:
		http.NotFound(w, r)
	}
}
