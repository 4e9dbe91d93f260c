package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var ErrBucketCreationFailed = errors.New("failed to create catalog bucket")

// MinioSlot stores each slot as a JSON object named "<key>.json".
type MinioSlot struct {
	client     *minio.Client
	bucketName string

	// ensure runs until it first succeeds; a failed attempt is retried on
	// the next operation.
	initMu sync.Mutex
	ready  bool
	ensure func(ctx context.Context) error
}

// NewMinioSlot creates the client only. Bucket creation is deferred until the
// first operation so startup does not block on object storage.
func NewMinioSlot(endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*MinioSlot, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	s := &MinioSlot{client: client, bucketName: bucketName}
	s.ensure = s.ensureBucketExists
	return s, nil
}

func (s *MinioSlot) lazyInit(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.ready {
		return nil
	}
	if err := s.ensure(ctx); err != nil {
		return err
	}
	s.ready = true
	return nil
}

func (s *MinioSlot) ensureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("%w: check bucket existence: %v", ErrBucketCreationFailed, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("%w: create bucket: %v", ErrBucketCreationFailed, err)
		}
	}
	return nil
}

func objectName(key string) string { return key + ".json" }

func (s *MinioSlot) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := s.lazyInit(ctx); err != nil {
		return nil, false, err
	}
	obj, err := s.client.GetObject(ctx, s.bucketName, objectName(key), minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer obj.Close()

	// GetObject is lazy; a missing object only surfaces on the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (s *MinioSlot) Put(ctx context.Context, key string, value []byte) error {
	if err := s.lazyInit(ctx); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, s.bucketName, objectName(key),
		bytes.NewReader(value), int64(len(value)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	return err
}

func (s *MinioSlot) Delete(ctx context.Context, key string) error {
	if err := s.lazyInit(ctx); err != nil {
		return err
	}
	return s.client.RemoveObject(ctx, s.bucketName, objectName(key), minio.RemoveObjectOptions{})
}

// Ping reports unhealthy until the bucket is in place, so readiness matches
// what catalog operations will see.
func (s *MinioSlot) Ping(ctx context.Context) error {
	if err := s.lazyInit(ctx); err != nil {
		return err
	}
	_, err := s.client.BucketExists(ctx, s.bucketName)
	return err
}

func (s *MinioSlot) Backend() string { return "minio" }

func (s *MinioSlot) Close() error { return nil }

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
