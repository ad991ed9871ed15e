package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid")
	ErrConflict     = errors.New("conflict")

	// ErrUnsupportedFormat is returned when an uploaded file has an
	// extension outside the supported set (pdf/docx/txt/csv).
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrInvalidConfig marks configuration problems detected at
	// construction time, before any document is processed.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrRemoteCall marks a failed call to an external backend
	// (embedding, generation, vector index or warehouse).
	ErrRemoteCall = errors.New("remote call failed")

	// ErrTimeout is returned when a warehouse statement poll exceeds
	// its ceiling.
	ErrTimeout = errors.New("timeout")

	// ErrNoAttempts is returned by the retry runner when it is asked
	// to run an operation with zero attempts.
	ErrNoAttempts = errors.New("no attempts executed")

	// ErrUnavailable means a feature needs a backend that is not
	// configured.
	ErrUnavailable = errors.New("backend unavailable")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
