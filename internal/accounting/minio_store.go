package accounting

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
)

// MinIOLister adapts minio.Client to the ObjectLister interface.
type MinIOLister struct {
	client *minio.Client
	bucket string
}

// NewMinIOLister constructs an adapter scoped to one bucket.
func NewMinIOLister(client *minio.Client, bucket string) *MinIOLister {
	return &MinIOLister{client: client, bucket: bucket}
}

func (l *MinIOLister) ListObjects(ctx context.Context, prefix string) ([]StoredObject, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var objects []StoredObject
	for obj := range l.client.ListObjects(ctx, l.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects under %q: %w", prefix, obj.Err)
		}
		objects = append(objects, StoredObject{Key: obj.Key, Size: obj.Size})
	}
	return objects, nil
}
