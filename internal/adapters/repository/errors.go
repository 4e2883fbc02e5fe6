package repository

import "errors"

// Sentinel kinds for storage errors.
var (
	ErrNotFound   = errors.New("not found")
	ErrCorruptRow = errors.New("corrupt row")
)
