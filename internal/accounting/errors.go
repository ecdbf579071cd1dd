package accounting

import "errors"

var (
	// ErrNoTestIDs is returned when a usage calculation is requested without test ids.
	ErrNoTestIDs = errors.New("no testIds provided")
)
