package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tannerhall/bracketeer/internal/adapters/repository"
	"github.com/tannerhall/bracketeer/internal/domain/bracket"
)

// BracketsHandler handles bracket lifecycle requests.
type BracketsHandler struct {
	deps Dependencies
}

// NewBracketsHandler creates a new brackets handler.
func NewBracketsHandler(deps Dependencies) *BracketsHandler {
	return &BracketsHandler{deps: deps}
}

type createBracketRequest struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

func (r createBracketRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("missing name")
	}
	if !bracket.SupportedSize(r.Size) {
		return errors.New("size must be one of 4, 8, 16, 32, 64")
	}
	return nil
}

type resultRequest struct {
	GameNumber int    `json:"game_number"`
	WinnerID   string `json:"winner_id"`
	LoserID    string `json:"loser_id,omitempty"`
}

// HandleBrackets handles POST /brackets requests.
func (h *BracketsHandler) HandleBrackets(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_bracket"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req createBracketRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	view, err := h.deps.CreateBracket(r.Context(), req.Name, req.Size)
	if err != nil {
		writeEngineError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// HandleBracket handles GET /brackets/{id} and POST /brackets/{id}/results.
func (h *BracketsHandler) HandleBracket(w http.ResponseWriter, r *http.Request) {
	const op = "api.bracket"

	rest := strings.TrimPrefix(r.URL.Path, "/brackets/")
	idText, action, _ := strings.Cut(rest, "/")
	id, err := uuid.Parse(idText)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		view, err := h.deps.Bracket(r.Context(), id)
		if err != nil {
			writeEngineError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, view)

	case action == "results" && r.Method == http.MethodPost:
		h.handleResult(w, r, id)

	default:
		http.NotFound(w, r)
	}
}

func (h *BracketsHandler) handleResult(w http.ResponseWriter, r *http.Request, bracketID uuid.UUID) {
	const op = "api.record_result"

	var req resultRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.GameNumber < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	winnerID, err := uuid.Parse(req.WinnerID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	var loserID *uuid.UUID
	if req.LoserID != "" {
		id, err := uuid.Parse(req.LoserID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		loserID = &id
	}

	view, err := h.deps.RecordResult(r.Context(), bracketID, req.GameNumber, winnerID, loserID)
	if err != nil {
		writeEngineError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// writeEngineError translates engine and storage sentinels to HTTP statuses.
func writeEngineError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, bracket.ErrGameNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, bracket.ErrAlreadyCompleted):
		writeError(w, http.StatusConflict, "already_completed", err)
	case errors.Is(err, bracket.ErrUnsupportedSize),
		errors.Is(err, bracket.ErrInvalidEntry),
		errors.Is(err, bracket.ErrInvalidWinner):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}
