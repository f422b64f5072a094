package tracker

import "github.com/viant/selfie/gc"

// State is a test method usage state
type State int

const (
	StateStarted State = iota
	StateSucceeded
	StateSkipped
)

func (s State) String() string {
	switch s {
	case StateStarted:
		return "STARTED"
	case StateSucceeded:
		return "SUCCEEDED"
	case StateSkipped:
		return "SKIPPED"
	}
	return "UNKNOWN"
}

// Outcome is what the host reported for a finished test or class
type Outcome int

const (
	OutcomeSucceeded Outcome = iota
	OutcomeFailed
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	case OutcomeAborted:
		return "aborted"
	}
	return "unknown"
}

// Record is the usage of one test method
type Record struct {
	State State
	Root  gc.Root
}

// gcRoot reduces a record: only methods that finished successfully keep a finite set
func (r *Record) gcRoot(method string) gc.Root {
	if r.State != StateSucceeded {
		return gc.KeepAll(method)
	}
	return r.Root
}
