package accounting

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNewWatcherRejectsUnknownEventKind(t *testing.T) {
	_, err := NewWatcher(nil, "labvault", nil, []EventKind{"metadataUpdated"}, time.Second, zap.NewNop())
	if err == nil {
		t.Fatal("expected error for unknown event kind")
	}
}

func TestNewWatcherRequiresEventKinds(t *testing.T) {
	_, err := NewWatcher(nil, "labvault", nil, nil, time.Second, zap.NewNop())
	if err == nil {
		t.Fatal("expected error for empty event kinds")
	}
}

func TestNewWatcherAcceptsKnownKinds(t *testing.T) {
	w, err := NewWatcher(nil, "labvault", nil, []EventKind{EventFinalized, EventDeleted}, time.Second, zap.NewNop())
	if err != nil {
		t.Fatalf("NewWatcher returned error: %v", err)
	}
	if len(w.events) != 2 {
		t.Fatalf("expected 2 subscribed events, got %d", len(w.events))
	}
}
