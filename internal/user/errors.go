package user

import "errors"

var (
	// ErrUserNotFound signals that the user document could not be located.
	ErrUserNotFound = errors.New("user not found")
	// ErrNotificationNotFound is returned when a notification lookup by createdDate fails.
	ErrNotificationNotFound = errors.New("notification not found")
)
