package patcher

import (
	"errors"

	"heapedit/process"
)

// State is a step of the patch state machine
type State string

const (
	StateStart           State = "Start"
	StateProcessResolved State = "ProcessResolved"
	StateHeapResolved    State = "HeapResolved"
	StateScanned         State = "Scanned"

	// terminal
	StatePatched         State = "Patched"
	StateNotFoundPattern State = "NotFoundPattern"
	StateProcessNotFound State = "ProcessNotFound"
	StateHeapNotFound    State = "HeapNotFound"
	StateLengthViolation State = "LengthViolation"
	StateIOFailure       State = "IOFailure"
)

// Terminal reports whether no transition leaves s
func (s State) Terminal() bool {
	switch s {
	case StatePatched, StateNotFoundPattern, StateProcessNotFound,
		StateHeapNotFound, StateLengthViolation, StateIOFailure:
		return true
	}
	return false
}

// stateFor maps an error onto its terminal state
func stateFor(err error) State {
	switch {
	case errors.Is(err, process.ErrProcessNotFound):
		return StateProcessNotFound
	case errors.Is(err, process.ErrHeapNotFound):
		return StateHeapNotFound
	case errors.Is(err, process.ErrLengthViolation), errors.Is(err, ErrEmptySearch):
		return StateLengthViolation
	}
	return StateIOFailure
}
