package bracket

import "errors"

// Sentinel kinds for bracket engine errors.
var (
	ErrUnsupportedSize  = errors.New("unsupported bracket size")
	ErrInvalidEntry     = errors.New("invalid entry set")
	ErrGameNotFound     = errors.New("game not found")
	ErrInvalidWinner    = errors.New("invalid winner")
	ErrAlreadyCompleted = errors.New("game already completed")
	ErrCycleDetected    = errors.New("cycle detected in game graph")
)
