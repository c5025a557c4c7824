package game

import (
	"errors"
	"fmt"
)

// Session errors
var (
	ErrGameOver           = errors.New("game is over")
	ErrNotAccepting       = errors.New("action not accepted in current state")
	ErrUnknownCue         = errors.New("cue is not in play")
	ErrEmptyAnswer        = errors.New("answer cannot be empty")
	ErrHintFlavorRequired = errors.New("hint flavor must be chosen")
	ErrInvalidFlavor      = errors.New("unknown hint flavor")
	ErrNotStarted         = errors.New("session not started")
)

// ExhaustedError is returned when no turn or hint is left to consume.
type ExhaustedError struct {
	Resource string
}

func (e *ExhaustedError) Error() string {
	if e.Resource == "" {
		return "no resource available"
	}
	return "no " + e.Resource + " available"
}

// NetworkError wraps a failed Puzzle collaborator call.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *NetworkError) Unwrap() error { return e.Err }

// NoPuzzleError signals that the content API has nothing to offer.
type NoPuzzleError struct {
	Message string
}

func (e *NoPuzzleError) Error() string {
	if e.Message == "" {
		return "no puzzle available"
	}
	return e.Message
}

// IsExhausted reports whether err is (or wraps) an ExhaustedError.
func IsExhausted(err error) bool {
	var ex *ExhaustedError
	return errors.As(err, &ex)
}
