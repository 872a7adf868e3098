// Package timer provides the one-shot delays that pace a round.
//
// Session code never blocks on time. It asks a Scheduler to run a callback
// later and keeps the returned Timer so the delay can be cancelled.
package timer

import "time"

// Timer is a pending callback.
type Timer interface {
	// Stop cancels the callback. It reports whether the callback was still
	// pending; false means it already ran or was already stopped.
	Stop() bool
}

// Scheduler runs f once after d has elapsed.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}
