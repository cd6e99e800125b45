package domain

import "errors"

var (
	// ErrOperationNotFound is returned when a tracker has no record of an operation id.
	ErrOperationNotFound = errors.New("conversion operation not found")
	// ErrInvalidTransition is returned when an update would move an operation backwards.
	ErrInvalidTransition = errors.New("invalid conversion state transition")
	// ErrFileNotFound is returned when a path is not part of the repository view.
	ErrFileNotFound = errors.New("file not found in repository")
)
