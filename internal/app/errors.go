package service

import "errors"

// Sentinel kinds returned by Service methods.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrStopped      = errors.New("service stopped")
	ErrBackpressure = errors.New("session inbox full")
	ErrDuplicate    = errors.New("duplicate touch batch")
	ErrInvalidEvent = errors.New("invalid touch event")
)
