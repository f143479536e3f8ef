package service

import (
	"context"
	"fmt"
	"os"

	"assaylab/internal/port"
)

// AssetLoader fetches the logo placed in report headers. A nil slice with a nil
// error means no logo is configured.
type AssetLoader interface {
	Load(ctx context.Context) ([]byte, error)
}

type s3AssetLoader struct {
	storage port.ObjectStorage
	bucket  string
	key     string
}

// NewS3AssetLoader loads the logo from bucket/key through storage.
func NewS3AssetLoader(storage port.ObjectStorage, bucket, key string) AssetLoader {
	return &s3AssetLoader{storage: storage, bucket: bucket, key: key}
}

func (l *s3AssetLoader) Load(ctx context.Context) ([]byte, error) {
	if l.key == "" {
		return nil, nil
	}
	data, err := l.storage.Download(ctx, l.bucket, l.key)
	if err != nil {
		return nil, fmt.Errorf("loading logo %s: %w", l.key, err)
	}
	return data, nil
}

type fileAssetLoader struct {
	path string
}

// NewFileAssetLoader loads the logo from a local file.
func NewFileAssetLoader(path string) AssetLoader {
	return &fileAssetLoader{path: path}
}

func (l *fileAssetLoader) Load(ctx context.Context) ([]byte, error) {
	if l.path == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("loading logo: %w", err)
	}
	return data, nil
}
