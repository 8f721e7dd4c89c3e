package library

import "errors"

// Error kinds returned by the core. Every failure from a repository or the
// service wraps exactly one of these, so callers match with errors.Is and the
// console layer can report and re-prompt without inspecting messages.
var (
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation failed")
	ErrPolicy         = errors.New("policy violation")
	ErrAuthentication = errors.New("authentication failed")
)
