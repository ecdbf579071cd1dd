package asset

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

var (
	// ErrNotOwner is returned when the caller does not own the test.
	ErrNotOwner = errors.New("test does not belong to caller")
	// ErrInvalidName rejects object names that would escape the test prefix.
	ErrInvalidName = errors.New("invalid file name")
)

// Presigner generates pre-signed object URLs.
type Presigner interface {
	PresignedGetObject(ctx context.Context, bucket, object string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
	PresignedPutObject(ctx context.Context, bucket, object string, expiry time.Duration) (*url.URL, error)
}

// OwnerIndex reports which tests a user owns.
type OwnerIndex interface {
	OwnsTest(ctx context.Context, userID uuid.UUID, testID string) (bool, error)
}

// Service issues scoped upload and download URLs for test assets.
type Service struct {
	presigner Presigner
	owners    OwnerIndex
	bucket    string
	ttl       time.Duration
}

// NewService constructs an asset Service.
func NewService(presigner Presigner, owners OwnerIndex, bucket string, ttl time.Duration) *Service {
	return &Service{
		presigner: presigner,
		owners:    owners,
		bucket:    bucket,
		ttl:       ttl,
	}
}

// SignedURL is a time-limited URL for a single object operation.
type SignedURL struct {
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UploadURL returns a pre-signed PUT URL for an object under the caller's test.
func (s *Service) UploadURL(ctx context.Context, userID uuid.UUID, testID, fileName string) (SignedURL, error) {
	object, err := s.authorize(ctx, userID, testID, fileName)
	if err != nil {
		return SignedURL{}, err
	}

	u, err := s.presigner.PresignedPutObject(ctx, s.bucket, object, s.ttl)
	if err != nil {
		return SignedURL{}, fmt.Errorf("presign put: %w", err)
	}

	return SignedURL{URL: u.String(), Method: "PUT", ExpiresAt: time.Now().Add(s.ttl)}, nil
}

// DownloadURL returns a pre-signed GET URL for an object under the caller's test.
func (s *Service) DownloadURL(ctx context.Context, userID uuid.UUID, testID, fileName string) (SignedURL, error) {
	object, err := s.authorize(ctx, userID, testID, fileName)
	if err != nil {
		return SignedURL{}, err
	}

	u, err := s.presigner.PresignedGetObject(ctx, s.bucket, object, s.ttl, make(url.Values))
	if err != nil {
		return SignedURL{}, fmt.Errorf("presign get: %w", err)
	}

	return SignedURL{URL: u.String(), Method: "GET", ExpiresAt: time.Now().Add(s.ttl)}, nil
}

func (s *Service) authorize(ctx context.Context, userID uuid.UUID, testID, fileName string) (string, error) {
	if !validName(testID) || !validName(fileName) {
		return "", ErrInvalidName
	}

	owns, err := s.owners.OwnsTest(ctx, userID, testID)
	if err != nil {
		return "", fmt.Errorf("check ownership: %w", err)
	}
	if !owns {
		return "", ErrNotOwner
	}

	return fmt.Sprintf("tests/%s/%s", testID, fileName), nil
}

func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	for _, r := range name {
		if r == '/' {
			return false
		}
	}
	return true
}

var _ Presigner = (*minio.Client)(nil)
