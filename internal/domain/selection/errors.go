package selection

import "errors"

// ErrEmptyContactSet is returned when a winner is requested for no contacts.
var ErrEmptyContactSet = errors.New("selection: empty contact set")
