package study

import "errors"

var (
	// ErrStudyNotFound signals that the study could not be located.
	ErrStudyNotFound = errors.New("study not found")
)
