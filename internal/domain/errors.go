package domain

import "errors"

var (
	ErrRunNotFound             = errors.New("analysis run not found")
	ErrConflictNotFound        = errors.New("conflict not found in run")
	ErrConflictAlreadyResolved = errors.New("conflict already has a resolution")
	ErrEmptyResolution         = errors.New("resolution text must not be empty")
	ErrMalformedResult         = errors.New("model result payload is malformed")
	ErrUnsupportedModel        = errors.New("model id is not in the configured registry")
)
