package game

import "errors"

// ErrUnknownTouchKind is returned by Ingest for a kind other than
// begin, move, end or cancel.
var ErrUnknownTouchKind = errors.New("unknown touch kind")
