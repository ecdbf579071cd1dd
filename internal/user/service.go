package user

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	ReadAll(ctx context.Context) ([]User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, p ProfileUpdate) error
	UpdateLevel(ctx context.Context, id uuid.UUID, level int) error
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateNotifications(ctx context.Context, id uuid.UUID, notifications []Notification) error
	RemoveTestRef(ctx context.Context, id uuid.UUID, testID string) error
}

// StudyDirectory resolves study documents for the aggregation reads.
type StudyDirectory interface {
	FindByIDs(ctx context.Context, ids []string) ([]map[string]any, error)
	GetByID(ctx context.Context, id string) (map[string]any, error)
}

// Service manages user documents and notification state.
type Service struct {
	repo    repository
	studies StudyDirectory
	log     *zap.Logger
	nowFunc func() time.Time
}

// NewService constructs a user service.
func NewService(repo repository, studies StudyDirectory, log *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		studies: studies,
		log:     log,
		nowFunc: time.Now,
	}
}

// GetByID returns a single user document.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	return s.repo.GetByID(ctx, id)
}

// ReadAll returns every user document.
func (s *Service) ReadAll(ctx context.Context) ([]User, error) {
	return s.repo.ReadAll(ctx)
}

// UpdateProfile persists the editable profile fields.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, p ProfileUpdate) error {
	return s.repo.UpdateProfile(ctx, id, p)
}

// UpdateLevel sets the user's access tier.
func (s *Service) UpdateLevel(ctx context.Context, id uuid.UUID, level int) error {
	return s.repo.UpdateLevel(ctx, id, level)
}

// Delete removes a user document.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// AddNotification appends a notification to the user's list.
func (s *Service) AddNotification(ctx context.Context, id uuid.UUID, n Notification) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.CreatedDate == 0 {
		n.CreatedDate = s.nowFunc().UnixMilli()
	}
	return s.repo.UpdateNotifications(ctx, id, append(u.Notifications, n))
}

// MarkNotificationRead flags the notification identified by createdDate as
// read. createdDate is only unique within one user's list, which is the only
// scope it is ever looked up in.
func (s *Service) MarkNotificationRead(ctx context.Context, id uuid.UUID, createdDate int64) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	for i := range u.Notifications {
		if u.Notifications[i].CreatedDate == createdDate {
			u.Notifications[i].Read = true
			u.Notifications[i].ReadAt = s.nowFunc().UnixMilli()
			return s.repo.UpdateNotifications(ctx, id, u.Notifications)
		}
	}
	return ErrNotificationNotFound
}

// RemoveNotificationsForTest strips notifications referencing the test from
// each listed user. Users that no longer exist are skipped.
func (s *Service) RemoveNotificationsForTest(ctx context.Context, testID string, userIDs []uuid.UUID) error {
	for _, id := range userIDs {
		u, err := s.repo.GetByID(ctx, id)
		if err != nil {
			if err == ErrUserNotFound {
				s.log.Info("cooperator document not found, skipping",
					zap.String("userId", id.String()),
					zap.String("testId", testID))
				continue
			}
			return err
		}

		kept := u.Notifications[:0]
		for _, n := range u.Notifications {
			if n.TestID != testID {
				kept = append(kept, n)
			}
		}
		if len(kept) == len(u.Notifications) {
			continue
		}
		if err := s.repo.UpdateNotifications(ctx, id, kept); err != nil {
			return err
		}
	}
	return nil
}

// RemoveTestFromUser drops the test from both of the user's reference maps.
func (s *Service) RemoveTestFromUser(ctx context.Context, id uuid.UUID, testID string) error {
	return s.repo.RemoveTestRef(ctx, id, testID)
}
