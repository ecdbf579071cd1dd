package accounting

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestFinalizeRecomputesAcrossAllOwnerTests(t *testing.T) {
	ownerID := uuid.New()
	users := newFakeUserIndex()
	users.owners["t1"] = []Owner{{UserID: ownerID, TestIDs: []string{"t1", "t2"}}}

	lister := newFakeLister()
	lister.objects["tests/t1/"] = []StoredObject{
		{Key: "tests/t1/a.webm", Size: 1 << 20},
	}
	lister.objects["tests/t2/"] = []StoredObject{
		{Key: "tests/t2/b.json", Size: 512 << 10},
		{Key: "tests/t2/c.json", Size: 512 << 10},
	}

	engine := NewEngine(users, lister, zap.NewNop())
	engine.HandleObjectFinalized(context.Background(), "tests/t1/a.webm")

	// 1 MiB + 1 MiB across both tests, even though only t1 changed.
	if got := users.usage[ownerID]; got != 2.00 {
		t.Fatalf("expected usage 2.00, got %v", got)
	}
	if users.batches != 1 {
		t.Fatalf("expected one atomic batch, got %d", users.batches)
	}
}

func TestFinalizeIgnoresUntrackedKeys(t *testing.T) {
	users := newFakeUserIndex()
	lister := newFakeLister()

	engine := NewEngine(users, lister, zap.NewNop())
	engine.HandleObjectFinalized(context.Background(), "avatars/user-1.png")

	if users.findCalls != 0 {
		t.Fatalf("expected no owner lookup, got %d", users.findCalls)
	}
	if users.batches != 0 {
		t.Fatalf("expected no batch commit, got %d", users.batches)
	}
}

func TestFinalizeNoOwnersIsNoOp(t *testing.T) {
	users := newFakeUserIndex()
	lister := newFakeLister()
	lister.objects["tests/orphan/"] = []StoredObject{{Key: "tests/orphan/x", Size: 10}}

	engine := NewEngine(users, lister, zap.NewNop())
	engine.HandleObjectFinalized(context.Background(), "tests/orphan/x")

	if users.batches != 0 {
		t.Fatalf("expected no batch commit for unreferenced test, got %d", users.batches)
	}
}

func TestFinalizeSwallowsStoreErrors(t *testing.T) {
	ownerID := uuid.New()
	users := newFakeUserIndex()
	users.owners["t1"] = []Owner{{UserID: ownerID, TestIDs: []string{"t1"}}}
	users.usage[ownerID] = 7.25

	lister := newFakeLister()
	lister.err = errors.New("object store unreachable")

	engine := NewEngine(users, lister, zap.NewNop())
	engine.HandleObjectFinalized(context.Background(), "tests/t1/a.webm")

	// Previous value stays in place until the next successful pass.
	if got := users.usage[ownerID]; got != 7.25 {
		t.Fatalf("expected stale usage preserved, got %v", got)
	}
	if users.batches != 0 {
		t.Fatalf("expected no partial batch, got %d", users.batches)
	}
}

func TestCalculateUsageRejectsEmptyInput(t *testing.T) {
	engine := NewEngine(newFakeUserIndex(), newFakeLister(), zap.NewNop())

	if _, err := engine.CalculateUsage(context.Background(), nil); !errors.Is(err, ErrNoTestIDs) {
		t.Fatalf("expected ErrNoTestIDs, got %v", err)
	}
	if _, err := engine.CalculateUsage(context.Background(), []string{}); !errors.Is(err, ErrNoTestIDs) {
		t.Fatalf("expected ErrNoTestIDs for empty slice, got %v", err)
	}
}

func TestCalculateUsageReportsPerTestInInputOrder(t *testing.T) {
	lister := newFakeLister()
	lister.objects["tests/t1/"] = []StoredObject{
		{Key: "tests/t1/a", Size: 1048576},
		{Key: "tests/t1/b", Size: 524288},
	}

	users := newFakeUserIndex()
	engine := NewEngine(users, lister, zap.NewNop())

	report, err := engine.CalculateUsage(context.Background(), []string{"t1", "t2"})
	if err != nil {
		t.Fatalf("CalculateUsage returned error: %v", err)
	}

	if len(report.PerTest) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(report.PerTest))
	}
	if report.PerTest[0].TestID != "t1" || report.PerTest[1].TestID != "t2" {
		t.Fatalf("expected input order preserved, got %+v", report.PerTest)
	}
	if report.PerTest[0].SizeMB != 1.50 {
		t.Fatalf("expected t1 size 1.50, got %v", report.PerTest[0].SizeMB)
	}
	if report.PerTest[1].SizeMB != 0 {
		t.Fatalf("expected t2 size 0.00, got %v", report.PerTest[1].SizeMB)
	}
	if report.TotalSizeMB != 1.50 {
		t.Fatalf("expected total 1.50, got %v", report.TotalSizeMB)
	}

	if users.batches != 0 || users.findCalls != 0 {
		t.Fatalf("expected no user document access on the read-only path")
	}
}

func TestCalculateUsageFailsWholeOnListError(t *testing.T) {
	lister := newFakeLister()
	lister.objects["tests/ok/"] = []StoredObject{{Key: "tests/ok/a", Size: 1}}
	lister.failPrefix = "tests/bad/"
	lister.err = errors.New("listing failed")

	engine := NewEngine(newFakeUserIndex(), lister, zap.NewNop())

	if _, err := engine.CalculateUsage(context.Background(), []string{"ok", "bad"}); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestConcurrentFinalizeConverges(t *testing.T) {
	ownerID := uuid.New()
	users := newFakeUserIndex()
	users.owners["t1"] = []Owner{{UserID: ownerID, TestIDs: []string{"t1", "t2"}}}
	users.owners["t2"] = []Owner{{UserID: ownerID, TestIDs: []string{"t1", "t2"}}}

	lister := newFakeLister()
	lister.objects["tests/t1/"] = []StoredObject{{Key: "tests/t1/a", Size: 3 << 20}}
	lister.objects["tests/t2/"] = []StoredObject{{Key: "tests/t2/b", Size: 1 << 20}}

	engine := NewEngine(users, lister, zap.NewNop())

	var wg sync.WaitGroup
	for _, key := range []string{"tests/t1/a", "tests/t2/b"} {
		wg.Add(1)
		go func(k string) {
			defer wg.Done()
			engine.HandleObjectFinalized(context.Background(), k)
		}(key)
	}
	wg.Wait()

	// Each pass writes a complete fresh re-summation, so the final state is
	// the same no matter which invocation wrote last.
	if got := users.usage[ownerID]; got != 4.00 {
		t.Fatalf("expected usage to converge to 4.00, got %v", got)
	}
}

func TestMegabytesMarshalsAsFixedDecimalString(t *testing.T) {
	payload, err := json.Marshal(TestUsage{TestID: "t1", SizeMB: 1.5})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"testId":"t1","sizeMB":"1.50"}`
	if string(payload) != want {
		t.Fatalf("unexpected payload: %s", payload)
	}

	var decoded TestUsage
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.SizeMB != 1.5 {
		t.Fatalf("round-trip mismatch: %v", decoded.SizeMB)
	}
}

func TestMegabytesUnmarshalRejectsHalfQuotedValues(t *testing.T) {
	for _, raw := range []string{`"1.50`, `1.50"`, `"1"50"`, `""`} {
		var m Megabytes
		if err := m.UnmarshalJSON([]byte(raw)); err == nil {
			t.Errorf("value %s: expected parse error, got %v", raw, m)
		}
	}

	var quoted Megabytes
	if err := quoted.UnmarshalJSON([]byte(`"1.50"`)); err != nil || quoted != 1.5 {
		t.Errorf("quoted form: got %v, %v", quoted, err)
	}
	var bare Megabytes
	if err := bare.UnmarshalJSON([]byte(`1.5`)); err != nil || bare != 1.5 {
		t.Errorf("bare form: got %v, %v", bare, err)
	}
}

// --- fakes ---

type fakeUserIndex struct {
	mu        sync.Mutex
	owners    map[string][]Owner
	usage     map[uuid.UUID]float64
	batches   int
	findCalls int
	findErr   error
	updateErr error
}

func newFakeUserIndex() *fakeUserIndex {
	return &fakeUserIndex{
		owners: make(map[string][]Owner),
		usage:  make(map[uuid.UUID]float64),
	}
}

func (f *fakeUserIndex) FindTestOwners(ctx context.Context, testID string) ([]Owner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.owners[testID], nil
}

func (f *fakeUserIndex) UpdateStorageUsage(ctx context.Context, updates []UsageUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	for _, u := range updates {
		f.usage[u.UserID] = u.SizeMB
	}
	f.batches++
	return nil
}

type fakeLister struct {
	mu         sync.Mutex
	objects    map[string][]StoredObject
	err        error
	failPrefix string
}

func newFakeLister() *fakeLister {
	return &fakeLister{objects: make(map[string][]StoredObject)}
}

func (f *fakeLister) ListObjects(ctx context.Context, prefix string) ([]StoredObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil && (f.failPrefix == "" || f.failPrefix == prefix) {
		return nil, f.err
	}
	return f.objects[prefix], nil
}
