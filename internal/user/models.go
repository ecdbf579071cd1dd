package user

import (
	"time"

	"github.com/google/uuid"
)

// Annotation is the per-user data attached to a referenced test, with
// arbitrary extra fields merged at read time.
type Annotation = map[string]any

// User is the platform user document. MyTests and MyAnswers map test ids to
// per-user annotations; StorageUsageMB is derived and always recomputable
// from the object store.
type User struct {
	ID             uuid.UUID             `json:"id"`
	Email          string                `json:"email"`
	Username       string                `json:"username"`
	ContactNo      string                `json:"contactNo"`
	Country        string                `json:"country"`
	AccessLevel    int                   `json:"accessLevel"`
	MyTests        map[string]Annotation `json:"myTests"`
	MyAnswers      map[string]Annotation `json:"myAnswers"`
	Notifications  []Notification        `json:"notifications"`
	StorageUsageMB float64               `json:"storageUsageMB"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// Notification is one entry in a user's notification list. CreatedDate (unix
// milliseconds) doubles as the lookup key within a single user's list.
type Notification struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	TestID      string `json:"testId,omitempty"`
	Read        bool   `json:"read"`
	ReadAt      int64  `json:"readAt,omitempty"`
	CreatedDate int64  `json:"createdDate"`
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	Username  string
	ContactNo string
	Country   string
}
