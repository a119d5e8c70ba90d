package service

import "errors"

var (
	ErrMissingSymptoms    = errors.New("symptoms are required")
	ErrSymptomsTooLong    = errors.New("symptoms exceed the maximum length")
	ErrProcessingFailed   = errors.New("failed to persist analysis")
	ErrHistoryUnavailable = errors.New("could not retrieve query history")
)
