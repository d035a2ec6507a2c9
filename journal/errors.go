package journal

import "errors"

var (
	// ErrClosed is returned by store operations after Close.
	ErrClosed = errors.New("journal: store closed")
)
