package service

import (
	"github.com/okian/choozi/internal/domain/model"
)

type commandKind int

const (
	commandTouch commandKind = iota + 1
	commandSound
	commandReset
	commandTimer
)

func (k commandKind) String() string {
	switch k {
	case commandTouch:
		return "touch"
	case commandSound:
		return "sound"
	case commandReset:
		return "reset"
	case commandTimer:
		return "timer"
	}
	return "unknown"
}

// Command is one unit of work for the session loop. Only the fields that
// belong to its kind are set.
type Command struct {
	kind   commandKind
	event  model.TouchEvent
	sound  bool
	reason string
	fire   func()
	done   chan struct{}
}
