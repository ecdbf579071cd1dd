package study

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestSaveAssignsIDWhenMissing(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, nil, zap.NewNop())

	saved, err := service.Save(context.Background(), Study{Title: "Card sorting"})
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected generated id")
	}
	if _, ok := repo.docs[saved.ID]; !ok {
		t.Fatal("expected study persisted")
	}
}

func TestSaveRequiresTitle(t *testing.T) {
	service := NewService(newFakeRepo(), nil, zap.NewNop())
	if _, err := service.Save(context.Background(), Study{}); err == nil {
		t.Fatal("expected error for missing title")
	}
}

func TestDeleteRemovesCooperatorNotifications(t *testing.T) {
	repo := newFakeRepo()
	cooperator := uuid.New()
	repo.docs["s1"] = Document{
		"title": "Usability test",
		"cooperators": []any{
			map[string]any{"userDocId": cooperator.String()},
			map[string]any{"userDocId": "not-a-uuid"},
		},
	}

	notifier := &fakeNotifier{}
	service := NewService(repo, notifier, zap.NewNop())

	if err := service.Delete(context.Background(), "s1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, ok := repo.docs["s1"]; ok {
		t.Fatal("expected study removed")
	}
	if notifier.testID != "s1" {
		t.Fatalf("expected notifications removed for s1, got %q", notifier.testID)
	}
	if len(notifier.userIDs) != 1 || notifier.userIDs[0] != cooperator {
		t.Fatalf("expected one valid cooperator id, got %v", notifier.userIDs)
	}
}

func TestDeleteMissingStudy(t *testing.T) {
	service := NewService(newFakeRepo(), nil, zap.NewNop())
	if err := service.Delete(context.Background(), "absent"); err != ErrStudyNotFound {
		t.Fatalf("expected ErrStudyNotFound, got %v", err)
	}
}

func TestCalibrationConfigRoundTrip(t *testing.T) {
	src := Study{
		ID:    "s1",
		Title: "Eye tracking",
		CalibrationConfig: &CalibrationSettings{
			PointCount: 9,
			Tolerance:  0.5,
			Enabled:    true,
		},
	}

	doc, err := src.Document()
	if err != nil {
		t.Fatalf("Document returned error: %v", err)
	}
	if doc["id"] != "s1" {
		t.Fatalf("expected id in document, got %v", doc["id"])
	}

	decoded, err := FromDocument(doc)
	if err != nil {
		t.Fatalf("FromDocument returned error: %v", err)
	}
	if decoded.CalibrationConfig == nil || decoded.CalibrationConfig.PointCount != 9 {
		t.Fatalf("calibration config lost in round trip: %+v", decoded.CalibrationConfig)
	}
}

func TestFromDocumentWithoutCalibration(t *testing.T) {
	decoded, err := FromDocument(Document{"id": "s2", "title": "Survey"})
	if err != nil {
		t.Fatalf("FromDocument returned error: %v", err)
	}
	if decoded.CalibrationConfig != nil {
		t.Fatalf("expected nil calibration config, got %+v", decoded.CalibrationConfig)
	}
}

// --- fakes ---

type fakeRepo struct {
	docs map[string]Document
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{docs: make(map[string]Document)}
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, ErrStudyNotFound
	}
	out := Document{}
	for k, v := range doc {
		out[k] = v
	}
	out["id"] = id
	return out, nil
}

func (f *fakeRepo) FindByIDs(ctx context.Context, ids []string) ([]Document, error) {
	var docs []Document
	for _, id := range ids {
		if doc, err := f.GetByID(ctx, id); err == nil {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (f *fakeRepo) List(ctx context.Context) ([]Document, error) {
	var docs []Document
	for id := range f.docs {
		doc, _ := f.GetByID(ctx, id)
		docs = append(docs, doc)
	}
	return docs, nil
}

func (f *fakeRepo) Save(ctx context.Context, s Study) error {
	doc, err := s.Document()
	if err != nil {
		return err
	}
	delete(doc, "id")
	f.docs[s.ID] = doc
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.docs[id]; !ok {
		return ErrStudyNotFound
	}
	delete(f.docs, id)
	return nil
}

type fakeNotifier struct {
	testID  string
	userIDs []uuid.UUID
}

func (f *fakeNotifier) RemoveNotificationsForTest(ctx context.Context, testID string, userIDs []uuid.UUID) error {
	f.testID = testID
	f.userIDs = userIDs
	return nil
}
