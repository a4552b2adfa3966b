package apperrors

import "errors"

// Sentinels for the translation pipeline. Concrete errors wrap one of these
// so callers can branch with errors.Is regardless of where the failure began.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrConfig              = errors.New("configuration error")
	ErrConnectivity        = errors.New("provider connectivity error")
	ErrSchemaExtraction    = errors.New("schema extraction failed")
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrResponseParse       = errors.New("unparseable provider response")
)
