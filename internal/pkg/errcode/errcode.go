package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrUnauthorized
	ErrForbidden
	ErrNotFound
	ErrInvalid
	ErrConflict
	ErrInternal
	ErrInvalidFile
	ErrUnsupportedFormat
	ErrIngestFailed
	ErrSearchFailed
	ErrGenerateFailed
	ErrAIUnavailable
	ErrRemoteCall
	ErrTimeout
	ErrTooMany
)
