package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidDate is returned by every adapter when the input is not a real
// YYYY-MM-DD date. Its message is shown to users verbatim.
var ErrInvalidDate = errors.New("Invalid date format. Please use YYYY-MM-DD") //nolint:staticcheck // user-facing wording

// RemoteError reports a failed exchange with a source endpoint: either a
// non-2xx status or a transport failure (StatusCode 0).
type RemoteError struct {
	Source     string
	StatusCode int
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s API unreachable: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("%s API returned %d", e.Source, e.StatusCode)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// ShapeAnomaly describes a successful response whose body did not match the
// expected structure. Adapters log and absorb it; it never reaches callers.
type ShapeAnomaly struct {
	Source string
	Reason string
	Err    error
}

func (e *ShapeAnomaly) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s response shape anomaly: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s response shape anomaly: %s", e.Source, e.Reason)
}

func (e *ShapeAnomaly) Unwrap() error { return e.Err }

// Kind classifies an adapter failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidDate
	KindRemote
	KindShapeAnomaly
)

func (k Kind) String() string {
	switch k {
	case KindInvalidDate:
		return "invalid_date"
	case KindRemote:
		return "remote_error"
	case KindShapeAnomaly:
		return "shape_anomaly"
	default:
		return "unknown"
	}
}

// KindOf returns the failure kind of err, looking through wrapped errors.
func KindOf(err error) Kind {
	var remote *RemoteError
	var shape *ShapeAnomaly
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrInvalidDate):
		return KindInvalidDate
	case errors.As(err, &remote):
		return KindRemote
	case errors.As(err, &shape):
		return KindShapeAnomaly
	default:
		return KindUnknown
	}
}
