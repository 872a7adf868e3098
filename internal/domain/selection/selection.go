// Package selection picks the winning contact of a round.
package selection

import (
	"github.com/okian/choozi/internal/domain/model"
)

// Resolver picks exactly one contact from a non-empty set.
type Resolver interface {
	Resolve(contacts []model.Contact) (model.Contact, error)
}

// ResolverFunc adapts a plain function to the Resolver interface.
type ResolverFunc func(contacts []model.Contact) (model.Contact, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(contacts []model.Contact) (model.Contact, error) {
	return f(contacts)
}

// BottomRight is the Resolver used by the game.
var BottomRight Resolver = ResolverFunc(Resolve)

// Beats reports whether a ranks strictly ahead of b: greater Y (closer to
// the bottom edge) first, then greater X, then the smaller id.
func Beats(a, b model.Contact) bool {
	if a.Y != b.Y {
		return a.Y > b.Y
	}
	if a.X != b.X {
		return a.X > b.X
	}
	return a.ID < b.ID
}

// Resolve scans contacts and returns the bottom-most one, right-most on
// equal height. The result does not depend on the order of contacts.
// An empty set returns ErrEmptyContactSet.
func Resolve(contacts []model.Contact) (model.Contact, error) {
	if len(contacts) == 0 {
		return model.Contact{}, ErrEmptyContactSet
	}
	best := contacts[0]
	for _, c := range contacts[1:] {
		if Beats(c, best) {
			best = c
		}
	}
	return best, nil
}

// MustResolve is Resolve for callers that have already checked the set is
// non-empty. It panics on an empty set.
func MustResolve(contacts []model.Contact) model.Contact {
	c, err := Resolve(contacts)
	if err != nil {
		panic(err)
	}
	return c
}
