package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/utils"
)

// S3Store is an ObjectStore backed by an S3-compatible service. The bucket is
// created on first use.
type S3Store struct {
	client *minio.Client
	bucket string
	region string
	logger *utils.LogsManager

	initOnce sync.Once
	initErr  error
}

// NewS3Store creates an S3 object store from the s3_* config keys
func NewS3Store(cm *utils.ConfigManager, logger *utils.LogsManager) (*S3Store, error) {
	endpoint := strings.TrimSpace(cm.GetConfigWithDefault("s3_endpoint", ""))
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cm.GetConfigWithDefault("s3_access_key", ""))
	secret := strings.TrimSpace(cm.GetConfigWithDefault("s3_secret_key", ""))
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cm.GetConfigWithDefault("s3_bucket", "stratus-files"))
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cm.GetConfigWithDefault("s3_region", ""))
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cm.GetConfigBool("s3_use_ssl", false),
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init s3 client: %w", err)
	}

	return &S3Store{
		client: client,
		bucket: bucket,
		region: region,
		logger: logger,
	}, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		if s.logger != nil {
			s.logger.Info(fmt.Sprintf("Creating bucket %s", s.bucket), "storage")
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

// FetchObject downloads the object to destPath
func (s *S3Store) FetchObject(ctx context.Context, id string, destPath string) error {
	if id == "" {
		return fmt.Errorf("object id is required")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("failed to ensure bucket: %w", err)
	}

	err := s.client.FGetObject(ctx, s.bucket, objectKey(id), destPath, minio.GetObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return fmt.Errorf("%s: %w", id, ErrObjectNotFound)
		}
		return fmt.Errorf("failed to fetch %s: %w", id, err)
	}
	return nil
}

// StoreObject uploads the file at srcPath as the object's content
func (s *S3Store) StoreObject(ctx context.Context, id string, srcPath string) error {
	if id == "" {
		return fmt.Errorf("object id is required")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("failed to ensure bucket: %w", err)
	}

	_, err := s.client.FPutObject(ctx, s.bucket, objectKey(id), srcPath, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", id, err)
	}
	return nil
}

// StatObject reports the stored object's size
func (s *S3Store) StatObject(ctx context.Context, id string) (int64, error) {
	if id == "" {
		return 0, fmt.Errorf("object id is required")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return 0, fmt.Errorf("failed to ensure bucket: %w", err)
	}

	info, err := s.client.StatObject(ctx, s.bucket, objectKey(id), minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return 0, fmt.Errorf("%s: %w", id, ErrObjectNotFound)
		}
		return 0, fmt.Errorf("failed to stat %s: %w", id, err)
	}
	return info.Size, nil
}

func objectKey(id string) string {
	return "files/" + id
}
