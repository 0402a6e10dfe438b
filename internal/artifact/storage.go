package artifact

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/kode4food/tartan/pkg/api"
)

type (
	// Storage is the isolated per-project area artifact content lives in
	Storage interface {
		Write(context.Context, api.ProjectID, string, []byte) error
		Read(context.Context, api.ProjectID, string) ([]byte, error)
	}

	// BlobStorage implements Storage using gocloud.dev/blob. Every project
	// is confined to the projects/{project_id}/ prefix of the bucket
	BlobStorage struct {
		bucket *blob.Bucket
	}
)

var (
	ErrInvalidPath     = errors.New("invalid artifact path")
	ErrContentNotFound = errors.New("artifact content not found")
)

var _ Storage = (*BlobStorage)(nil)

// NewBlobStorage opens the bucket at bucketURL
func NewBlobStorage(ctx context.Context, bucketURL string) (*BlobStorage, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, err
	}
	return &BlobStorage{bucket: bucket}, nil
}

func (s *BlobStorage) Write(
	ctx context.Context, projectID api.ProjectID, p string, data []byte,
) error {
	key, err := StorageKey(projectID, p)
	if err != nil {
		return err
	}
	return s.bucket.WriteAll(ctx, key, data, nil)
}

func (s *BlobStorage) Read(
	ctx context.Context, projectID api.ProjectID, p string,
) ([]byte, error) {
	key, err := StorageKey(projectID, p)
	if err != nil {
		return nil, err
	}
	data, err := s.bucket.ReadAll(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrContentNotFound, p)
		}
		return nil, err
	}
	return data, nil
}

func (s *BlobStorage) Close() error {
	return s.bucket.Close()
}

// StorageKey maps an artifact path to its bucket key. Paths that would
// leave the project's area are rejected
func StorageKey(projectID api.ProjectID, p string) (string, error) {
	if projectID == "" || strings.Contains(string(projectID), "/") {
		return "", fmt.Errorf("%w: project %q", ErrInvalidPath, projectID)
	}
	rel := path.Clean(strings.TrimLeft(p, "/"))
	if p == "" || rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return "projects/" + string(projectID) + "/" + rel, nil
}
