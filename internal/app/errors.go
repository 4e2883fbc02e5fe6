package app

import (
	"errors"

	"github.com/tannerhall/bracketeer/internal/domain/bracket"
)

// Sentinel kinds for service errors.
var (
	ErrNoStore = errors.New("no store configured")
)

// errorKind maps engine errors to a metric label.
func errorKind(err error) string {
	switch {
	case errors.Is(err, bracket.ErrUnsupportedSize):
		return "unsupported_size"
	case errors.Is(err, bracket.ErrInvalidEntry):
		return "invalid_entry"
	case errors.Is(err, bracket.ErrGameNotFound):
		return "game_not_found"
	case errors.Is(err, bracket.ErrInvalidWinner):
		return "invalid_winner"
	case errors.Is(err, bracket.ErrAlreadyCompleted):
		return "already_completed"
	case errors.Is(err, bracket.ErrCycleDetected):
		return "cycle_detected"
	}
	return "internal"
}
