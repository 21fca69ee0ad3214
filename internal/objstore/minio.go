// Package objstore stores model blobs in an S3-compatible bucket.
// Package objstore 将模型数据存储在兼容 S3 的存储桶中。
package objstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds the connection settings for the bucket endpoint.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
}

// client is the subset of *minio.Client used here.
type client interface {
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Store implements model.ObjectStore on top of minio-go.
// Store 基于 minio-go 实现 model.ObjectStore。
type Store struct {
	endpoint string
	client   client
	// readAll lets tests bypass *minio.Object, which has no public constructor.
	readAll func(ctx context.Context, bucket, key string) ([]byte, error)
}

// New creates a Store for the given endpoint.
// New 为给定端点创建 Store。
func New(cfg Config) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("object store endpoint is empty")
	}
	c, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	return &Store{endpoint: cfg.Endpoint, client: c}, nil
}

// Get downloads an object fully into memory.
// Get 将对象完整下载到内存。
func (s *Store) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if s.readAll != nil {
		return s.readAll(ctx, bucket, key)
	}
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("s3 get object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("s3 read object %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// Put uploads data as a single object.
// Put 将数据作为单个对象上传。
func (s *Store) Put(ctx context.Context, bucket, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}

func (s *Store) String() string {
	return "s3(" + s.endpoint + ")"
}
