// Package s3 provides S3-backed image storage for the upload flow. The
// core only ever sees the stable object URL, never raw image bytes.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"go.uber.org/zap"

	"github.com/larderapp/v1/internal/infrastructure/config"
	"github.com/larderapp/v1/internal/ports/outbound"
	apperrors "github.com/larderapp/v1/pkg/errors"
)

// Service implements the StorageService interface using S3
type Service struct {
	client *s3.S3
	bucket string
	logger *zap.Logger
}

// NewService creates a new S3 storage service. A custom endpoint enables
// S3-compatible stores like MinIO in development.
func NewService(cfg config.AWSConfig, logger *zap.Logger) (outbound.StorageService, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &Service{
		client: s3.New(sess),
		bucket: cfg.S3Bucket,
		logger: logger.Named("s3-storage"),
	}, nil
}

// Upload stores an object and returns its URL
func (s *Service) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", apperrors.NewExternalServiceError("s3", err)
	}

	s.logger.Info("Object uploaded",
		zap.String("key", key),
		zap.Int("size", len(data)),
	)

	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

// Delete removes an object
func (s *Service) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return apperrors.NewExternalServiceError("s3", err)
	}
	return nil
}

// GeneratePresignedURL returns a time-limited GET URL for an object. The
// vision service fetches the image through this URL.
func (s *Service) GeneratePresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	req.SetContext(ctx)

	url, err := req.Presign(expiry)
	if err != nil {
		return "", apperrors.NewExternalServiceError("s3", err)
	}
	return url, nil
}
