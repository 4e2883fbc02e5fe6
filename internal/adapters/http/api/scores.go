package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tannerhall/bracketeer/internal/domain/model"
)

// ScoresHandler handles seeding-match score submissions.
type ScoresHandler struct {
	deps Dependencies
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps Dependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps}
}

type scoreRequest struct {
	ReportID string  `json:"report_id"`
	TeamID   string  `json:"team_id"`
	Score    float64 `json:"score"`
}

func (s scoreRequest) validate() error {
	switch {
	case strings.TrimSpace(s.ReportID) == "":
		return errors.New("missing report_id")
	case strings.TrimSpace(s.TeamID) == "":
		return errors.New("missing team_id")
	case s.Score < 0:
		return errors.New("score must not be negative")
	}
	return nil
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// HandlePostScore handles POST /scores requests. Reports are deduplicated
// by report_id and processed asynchronously.
func (h *ScoresHandler) HandlePostScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_score"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req scoreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	teamID, err := uuid.Parse(req.TeamID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	accepted, duplicate := h.deps.SubmitScore(r.Context(), model.ScoreReport{
		ReportID: req.ReportID,
		TeamID:   teamID,
		Score:    req.Score,
	})
	if duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}
	if !accepted {
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}
