package model

import (
	"context"
	"fmt"
	"os"
	"strings"

	fserrors "github.com/livp123/firesense/pkg/errors"
)

const (
	// BuiltinSource selects the reference model compiled into the binary.
	BuiltinSource = "builtin"
	s3Scheme      = "s3://"
)

// ObjectStore fetches and stores model blobs in a bucket.
// ObjectStore 在存储桶中获取和存储模型数据。
type ObjectStore interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, data []byte) error
}

// ParseS3URI splits s3://bucket/key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	if !strings.HasPrefix(uri, s3Scheme) {
		return "", "", fmt.Errorf("not an s3 uri: %s", uri)
	}
	rest := strings.TrimPrefix(uri, s3Scheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 uri must be s3://bucket/key: %s", uri)
	}
	return bucket, key, nil
}

// IsRemote reports whether src needs an object store.
func IsRemote(src string) bool {
	return strings.HasPrefix(src, s3Scheme)
}

// Fetch resolves a model source to raw bytes. src is "builtin" (or empty),
// an s3://bucket/key URI, or a local file path. store may be nil unless src
// is remote. Failures are configuration errors.
// Fetch 将模型来源解析为原始字节，失败属于配置错误。
func Fetch(ctx context.Context, src string, store ObjectStore) ([]byte, error) {
	switch {
	case src == "" || src == BuiltinSource:
		return ReferenceBytes(), nil
	case IsRemote(src):
		if store == nil {
			return nil, fserrors.NewConfigError("engine.model", "s3 source requires object_store to be enabled")
		}
		bucket, key, err := ParseS3URI(src)
		if err != nil {
			return nil, fserrors.NewConfigError("engine.model", err.Error())
		}
		data, err := store.Get(ctx, bucket, key)
		if err != nil {
			return nil, fmt.Errorf("%w: fetch %s: %v", fserrors.ErrConfiguration, src, err)
		}
		return data, nil
	default:
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", fserrors.ErrConfiguration, fserrors.NewFileError(src, err))
		}
		return data, nil
	}
}

// Push uploads model bytes to an s3://bucket/key destination.
// Push 将模型字节上传到 s3://bucket/key。
func Push(ctx context.Context, dst string, data []byte, store ObjectStore) error {
	if store == nil {
		return fmt.Errorf("object store is not configured")
	}
	bucket, key, err := ParseS3URI(dst)
	if err != nil {
		return err
	}
	if _, err := Unmarshal(data); err != nil {
		return fmt.Errorf("refusing to push invalid model: %w", err)
	}
	return store.Put(ctx, bucket, key, data)
}
