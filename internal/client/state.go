package client

import (
	"fmt"
	"time"

	"nps_survey/internal/domain"
)

type Operation string

const (
	OpSubmit       Operation = "submit"
	OpNPS          Operation = "nps"
	OpAverage      Operation = "average"
	OpDistribution Operation = "distribution"
	OpSeed         Operation = "seed"
	OpReset        Operation = "reset"
)

// Phase is the retry state of one operation:
// Idle -> Attempting -> BackingOff -> Attempting ... -> Succeeded | Exhausted.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAttempting
	PhaseBackingOff
	PhaseSucceeded
	PhaseExhausted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAttempting:
		return "attempting"
	case PhaseBackingOff:
		return "backing_off"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Terminal reports whether the retry loop has stopped.
func (p Phase) Terminal() bool { return p == PhaseSucceeded || p == PhaseExhausted }

// next is the transition taken after an attempt finishes.
func next(attempt, maxAttempts int, err *Error) Phase {
	switch {
	case err == nil:
		return PhaseSucceeded
	case err.delivered:
		return PhaseExhausted
	case ShouldRetry(err.Category, attempt, maxAttempts):
		return PhaseBackingOff
	default:
		return PhaseExhausted
	}
}

// State is the per-operation view a UI binds to.
type State struct {
	Phase    Phase
	Loading  bool
	Attempts int
	Err      string // friendly message of the last failure, empty on success
}

// Snapshot holds the last analytics values fetched by the client.
type Snapshot struct {
	NPS          float64
	Average      float64
	Distribution domain.Distribution
	UpdatedAt    time.Time
}
