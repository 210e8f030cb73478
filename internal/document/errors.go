package document

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the document package.
var (
	// ErrIO indicates the source could not be read: a missing file, a
	// network failure or a non-success HTTP status.
	ErrIO = errors.New("document: read failed")

	// ErrDecode indicates the source bytes are not valid in the configured
	// charset. It wraps ErrIO, so errors.Is(err, ErrIO) also holds.
	ErrDecode = fmt.Errorf("%w: invalid text encoding", ErrIO)
)
