package study

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type repository interface {
	GetByID(ctx context.Context, id string) (Document, error)
	FindByIDs(ctx context.Context, ids []string) ([]Document, error)
	List(ctx context.Context) ([]Document, error)
	Save(ctx context.Context, s Study) error
	Delete(ctx context.Context, id string) error
}

// Notifier removes study-scoped notifications from cooperator documents.
type Notifier interface {
	RemoveNotificationsForTest(ctx context.Context, testID string, userIDs []uuid.UUID) error
}

// Service orchestrates study CRUD.
type Service struct {
	repo     repository
	notifier Notifier
	log      *zap.Logger
}

// NewService constructs a study service.
func NewService(repo repository, notifier Notifier, log *zap.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, log: log}
}

// Get returns a single study document.
func (s *Service) Get(ctx context.Context, id string) (Document, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all studies.
func (s *Service) List(ctx context.Context) ([]Document, error) {
	return s.repo.List(ctx)
}

// Save upserts a study, assigning an id when none is given.
func (s *Service) Save(ctx context.Context, st Study) (Study, error) {
	if strings.TrimSpace(st.Title) == "" {
		return Study{}, fmt.Errorf("study title required")
	}
	if strings.TrimSpace(st.ID) == "" {
		st.ID = uuid.NewString()
	}
	if err := s.repo.Save(ctx, st); err != nil {
		return Study{}, err
	}
	return st, nil
}

// Delete removes a study and clears its notifications from every
// cooperator's document. Notification cleanup is best-effort: the study is
// already gone and a retry would find nothing to delete.
func (s *Service) Delete(ctx context.Context, id string) error {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	cooperators := cooperatorIDs(doc)

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if len(cooperators) > 0 && s.notifier != nil {
		if err := s.notifier.RemoveNotificationsForTest(ctx, id, cooperators); err != nil {
			s.log.Warn("remove notifications for deleted study",
				zap.String("studyId", id),
				zap.Error(err))
		}
	}
	return nil
}

func cooperatorIDs(doc Document) []uuid.UUID {
	raw, ok := doc["cooperators"].([]any)
	if !ok {
		return nil
	}
	var ids []uuid.UUID
	for _, entry := range raw {
		fields, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		value, ok := fields["userDocId"].(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(value)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
