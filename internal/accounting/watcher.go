package accounting

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// EventKind names a storage event the watcher can subscribe to. The set is
// closed: unknown kinds are rejected when the watcher is constructed.
type EventKind string

const (
	// EventFinalized fires when an object write completes.
	EventFinalized EventKind = "finalized"
	// EventDeleted fires when an object is removed.
	EventDeleted EventKind = "deleted"
)

var eventNames = map[EventKind]string{
	EventFinalized: "s3:ObjectCreated:*",
	EventDeleted:   "s3:ObjectRemoved:*",
}

// Watcher consumes bucket notifications and feeds object keys to the engine.
// Delivery is at-least-once and unordered, which the engine tolerates by
// recomputing totals from scratch on every pass.
type Watcher struct {
	client    *minio.Client
	bucket    string
	engine    *Engine
	events    []string
	reconnect time.Duration
	log       *zap.Logger
}

// NewWatcher builds a watcher for the given event kinds.
func NewWatcher(client *minio.Client, bucket string, engine *Engine, kinds []EventKind, reconnect time.Duration, log *zap.Logger) (*Watcher, error) {
	if len(kinds) == 0 {
		return nil, errors.New("no storage event kinds given")
	}

	events := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		name, ok := eventNames[kind]
		if !ok {
			return nil, fmt.Errorf("unsupported storage event: %s", kind)
		}
		events = append(events, name)
	}

	return &Watcher{
		client:    client,
		bucket:    bucket,
		engine:    engine,
		events:    events,
		reconnect: reconnect,
		log:       log,
	}, nil
}

// Run listens for notifications until the context is cancelled, reconnecting
// after stream errors.
func (w *Watcher) Run(ctx context.Context) {
	for {
		w.listen(ctx)
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.reconnect):
		}
	}
}

func (w *Watcher) listen(ctx context.Context) {
	for info := range w.client.ListenBucketNotification(ctx, w.bucket, "", "", w.events) {
		if info.Err != nil {
			w.log.Warn("bucket notification stream error", zap.Error(info.Err))
			return
		}
		for _, record := range info.Records {
			key, err := url.QueryUnescape(record.S3.Object.Key)
			if err != nil {
				w.log.Warn("malformed object key in notification",
					zap.String("raw", record.S3.Object.Key),
					zap.Error(err))
				continue
			}
			w.engine.HandleObjectFinalized(ctx, key)
		}
	}
}
