// Package storage archives rendered invoices in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/anchala/pos/internal/domain/printing"
	infraconfig "github.com/anchala/pos/internal/infrastructure/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

const defaultPresignExpiration = 15 * time.Minute

// S3InvoiceStore implements printing.InvoiceArchive using AWS S3 SDK v2.
// It works with any S3-compatible backend (AWS S3, MinIO, RustFS).
type S3InvoiceStore struct {
	client            *s3.Client
	presignClient     *s3.PresignClient
	bucket            string
	prefix            string
	presignExpiration time.Duration
	logger            *zap.Logger
}

// S3InvoiceStoreOption is a functional option for configuring S3InvoiceStore
type S3InvoiceStoreOption func(*S3InvoiceStore)

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) S3InvoiceStoreOption {
	return func(s *S3InvoiceStore) {
		s.logger = logger
	}
}

// WithPresignExpiration sets how long download links stay valid
func WithPresignExpiration(d time.Duration) S3InvoiceStoreOption {
	return func(s *S3InvoiceStore) {
		s.presignExpiration = d
	}
}

// NewS3InvoiceStore creates a store from configuration. Static keys are
// used when both are set; otherwise the default AWS credential chain applies.
func NewS3InvoiceStore(ctx context.Context, cfg *infraconfig.S3Config, opts ...S3InvoiceStoreOption) (*S3InvoiceStore, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if (cfg.AccessKeyID == "") != (cfg.SecretAccessKey == "") {
		return nil, errors.New("storage access key and secret key must be set together")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	var endpoint string
	if cfg.Endpoint != "" {
		endpoint = cfg.Endpoint
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}
		if _, err := url.Parse(endpoint); err != nil {
			return nil, fmt.Errorf("invalid storage endpoint: %w", err)
		}
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	store := &S3InvoiceStore{
		client:            client,
		presignClient:     s3.NewPresignClient(client),
		bucket:            cfg.Bucket,
		prefix:            strings.Trim(cfg.Prefix, "/"),
		presignExpiration: defaultPresignExpiration,
		logger:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// EnsureBucket creates the bucket if it doesn't exist. Call this during
// startup.
func (s *S3InvoiceStore) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating invoice bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// ObjectKey returns the key a document is stored under:
// {prefix}/{year}/{month}/{file name}
func (s *S3InvoiceStore) ObjectKey(doc *printing.Document) string {
	stamp := doc.GeneratedAt
	if stamp.IsZero() {
		stamp = time.Now()
	}
	return path.Join(s.prefix, fmt.Sprintf("%d", stamp.Year()), fmt.Sprintf("%02d", stamp.Month()), doc.FileName)
}

// Save uploads the document and returns its s3:// location
func (s *S3InvoiceStore) Save(ctx context.Context, doc *printing.Document) (string, error) {
	if doc == nil || len(doc.Content) == 0 {
		return "", errors.New("document is empty")
	}
	if doc.FileName == "" {
		return "", errors.New("document has no file name")
	}

	key := s.ObjectKey(doc)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(doc.Content),
		ContentType: aws.String(doc.ContentType),
		ContentDisposition: aws.String(
			fmt.Sprintf("attachment; filename=%q", doc.FileName),
		),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload invoice %s: %w", doc.FileName, err)
	}

	location := "s3://" + s.bucket + "/" + key
	s.logger.Info("Invoice archived",
		zap.String("location", location),
		zap.Int("size", doc.Size()))
	return location, nil
}

// GenerateDownloadURL presigns a GET for an archived invoice
func (s *S3InvoiceStore) GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	if expiresIn <= 0 {
		expiresIn = s.presignExpiration
	}
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate download URL: %w", err)
	}
	return req.URL, time.Now().Add(expiresIn), nil
}

// Bucket returns the bucket name
func (s *S3InvoiceStore) Bucket() string {
	return s.bucket
}

// Ensure S3InvoiceStore implements printing.InvoiceArchive
var _ printing.InvoiceArchive = (*S3InvoiceStore)(nil)
