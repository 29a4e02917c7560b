package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	ErrExportJobIDRequired = errors.New("export job id is required")
	ErrHandlerRequired     = errors.New("handler is required")
	ErrColumnSpecRequired  = errors.New("column spec is required")
	ErrDictionaryKeyEmpty  = errors.New("dictionary key is required")
	ErrStatusNotTerminal   = errors.New("status update requires a terminal status")
)
