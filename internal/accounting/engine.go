package accounting

import (
	"context"
	"fmt"
	"math"
	"regexp"

	"github.com/ruxlab/labvault/internal/metrics"
	"go.uber.org/zap"
)

const (
	testObjectPrefix = "tests/"
	bytesPerMB       = 1 << 20
)

// testKeyPattern extracts the owning test id from an object key.
var testKeyPattern = regexp.MustCompile(`^tests/([^/]+)`)

// ObjectLister reports stored objects and their sizes under a key prefix.
type ObjectLister interface {
	ListObjects(ctx context.Context, prefix string) ([]StoredObject, error)
}

// UserIndex resolves which users reference a test and persists recomputed
// totals. UpdateStorageUsage must apply all updates atomically.
type UserIndex interface {
	FindTestOwners(ctx context.Context, testID string) ([]Owner, error)
	UpdateStorageUsage(ctx context.Context, updates []UsageUpdate) error
}

// Engine keeps each user's storageUsageMB consistent with the objects stored
// under that user's tests.
type Engine struct {
	users   UserIndex
	objects ObjectLister
	log     *zap.Logger
}

// NewEngine constructs the accounting engine.
func NewEngine(users UserIndex, objects ObjectLister, log *zap.Logger) *Engine {
	return &Engine{users: users, objects: objects, log: log}
}

// HandleObjectFinalized reconciles storage usage after an object write
// completed. The path is best-effort: failures are logged and swallowed so
// the event source never sees an error (and never redelivers because of one).
func (e *Engine) HandleObjectFinalized(ctx context.Context, objectKey string) {
	if err := e.reconcile(ctx, objectKey); err != nil {
		metrics.AccountingFailures.Inc()
		e.log.Error("storage accounting pass failed",
			zap.String("object", objectKey),
			zap.Error(err))
	}
}

func (e *Engine) reconcile(ctx context.Context, objectKey string) error {
	match := testKeyPattern.FindStringSubmatch(objectKey)
	if match == nil {
		// Objects outside tests/ are legitimate and not tracked.
		e.log.Debug("object outside tracked prefix", zap.String("object", objectKey))
		return nil
	}
	testID := match[1]

	owners, err := e.users.FindTestOwners(ctx, testID)
	if err != nil {
		return fmt.Errorf("find owners of test %s: %w", testID, err)
	}
	if len(owners) == 0 {
		e.log.Debug("no users reference test", zap.String("testId", testID))
		return nil
	}

	// Every owner's total is re-summed over all of their tests, not just the
	// one that changed: the total is a derived aggregate and a full fresh
	// recomputation is what makes concurrent passes safe to interleave.
	updates := make([]UsageUpdate, 0, len(owners))
	for _, owner := range owners {
		var totalBytes int64
		for _, tid := range owner.TestIDs {
			objects, err := e.objects.ListObjects(ctx, objectPrefix(tid))
			if err != nil {
				return fmt.Errorf("list objects for test %s: %w", tid, err)
			}
			for _, obj := range objects {
				totalBytes += obj.Size
			}
		}
		updates = append(updates, UsageUpdate{UserID: owner.UserID, SizeMB: roundMB(totalBytes)})
	}

	if err := e.users.UpdateStorageUsage(ctx, updates); err != nil {
		return fmt.Errorf("persist usage for test %s: %w", testID, err)
	}

	metrics.AccountingPasses.Inc()
	e.log.Info("storage usage updated",
		zap.String("testId", testID),
		zap.Int("users", len(updates)))
	return nil
}

// CalculateUsage sums stored bytes for each requested test id and reports
// per-test and total sizes in MB. It never writes anything: the persisted
// storageUsageMB field is maintained only by the event path.
func (e *Engine) CalculateUsage(ctx context.Context, testIDs []string) (UsageReport, error) {
	if len(testIDs) == 0 {
		return UsageReport{}, ErrNoTestIDs
	}

	var totalBytes int64
	perTest := make([]TestUsage, 0, len(testIDs))
	for _, id := range testIDs {
		objects, err := e.objects.ListObjects(ctx, objectPrefix(id))
		if err != nil {
			return UsageReport{}, fmt.Errorf("list objects for test %s: %w", id, err)
		}

		var testBytes int64
		for _, obj := range objects {
			testBytes += obj.Size
		}

		perTest = append(perTest, TestUsage{TestID: id, SizeMB: toMegabytes(testBytes)})
		totalBytes += testBytes
	}

	metrics.UsageQueries.Inc()
	return UsageReport{TotalSizeMB: toMegabytes(totalBytes), PerTest: perTest}, nil
}

func objectPrefix(testID string) string {
	return testObjectPrefix + testID + "/"
}

// roundMB converts bytes to MB rounded to two decimals. Rounding happens only
// here, at the edge, so rounding error never compounds across objects.
func roundMB(bytes int64) float64 {
	return math.Round(float64(bytes)/bytesPerMB*100) / 100
}

func toMegabytes(bytes int64) Megabytes {
	return Megabytes(roundMB(bytes))
}
