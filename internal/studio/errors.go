package studio

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBusy rejects a transition while a generation call is in flight.
	ErrBusy = errors.New("studio: a generation is already in progress")
	// ErrInvalidTransition rejects a transition the current step does not allow.
	ErrInvalidTransition = errors.New("studio: transition not allowed")
	// ErrSessionClosed is returned by a closed session; late results are discarded.
	ErrSessionClosed = errors.New("studio: session closed")
	// ErrSuperseded is returned for a result that arrived after the session was reset.
	ErrSuperseded = errors.New("studio: result discarded after reset")
)

// CredentialInvalidMarker appears in provider errors that reject the video key.
const CredentialInvalidMarker = "API key is not valid"

// ValidationError rejects input before any call is made. No state changes.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// FailureKind classifies a failed generation call.
type FailureKind int

const (
	// FailureRecoverable covers network and validation failures; the user may retry.
	FailureRecoverable FailureKind = iota
	// FailureCredentialInvalid means the capability grant was rejected.
	FailureCredentialInvalid
)

func (k FailureKind) String() string {
	switch k {
	case FailureCredentialInvalid:
		return "credential_invalid"
	default:
		return "recoverable"
	}
}

// GenerationError is returned by gateways for a failed call.
// Error returns the raw provider message so it can be shown as-is.
type GenerationError struct {
	Op      string
	Kind    FailureKind
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "an unknown error occurred"
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Recoverable wraps err as a retryable failure of op.
func Recoverable(op string, err error) *GenerationError {
	return &GenerationError{Op: op, Kind: FailureRecoverable, Message: errMessage(err), Err: err}
}

// CredentialInvalid wraps err as a rejected capability grant.
func CredentialInvalid(op string, err error) *GenerationError {
	return &GenerationError{Op: op, Kind: FailureCredentialInvalid, Message: errMessage(err), Err: err}
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// IsCredentialInvalid reports whether err signals a rejected grant, either by kind
// or, for providers that only surface text, by containing marker.
func IsCredentialInvalid(err error, marker string) bool {
	if err == nil {
		return false
	}
	var ge *GenerationError
	if errors.As(err, &ge) && ge.Kind == FailureCredentialInvalid {
		return true
	}
	if marker == "" {
		marker = CredentialInvalidMarker
	}
	return strings.Contains(err.Error(), marker)
}

func invalidTransition(op string, step Step) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, op, step)
}
