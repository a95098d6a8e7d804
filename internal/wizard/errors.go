package wizard

import "errors"

var (
	// ErrCannotAdvance is a validation failure on the current step;
	// surfaced inline, blocks navigation only.
	ErrCannotAdvance = errors.New("current step is not complete")
	// ErrInvalidSession means the session id is absent or unusable.
	ErrInvalidSession = errors.New("invalid session")
	// ErrSkipAhead guards JumpTo: completed steps may be revisited, later
	// steps may not be reached by jumping.
	ErrSkipAhead = errors.New("cannot jump ahead of the current step")
	ErrUnknownStep = errors.New("unknown step id")
	ErrNoDraft     = errors.New("no restorable draft")
)
