// Package blob stores uploaded resume files in an S3-compatible bucket
// (AWS S3, Cloudflare R2, MinIO).
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mrintern/server/internal/config"
	"github.com/rs/zerolog"
)

var ErrDisabled = errors.New("file storage not configured")

type Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
	logger  zerolog.Logger
}

// New builds a store from config. A custom endpoint switches to path-style
// addressing, which R2 and MinIO expect.
func New(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (*Store, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Store{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: publicBaseURL(cfg, region),
		logger:  logger.With().Str("component", "blob").Logger(),
	}, nil
}

func publicBaseURL(cfg config.StorageConfig, region string) string {
	switch {
	case cfg.PublicBaseURL != "":
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
	}
}

// URL returns the public address of key.
func (s *Store) URL(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return s.baseURL + "/" + strings.Join(parts, "/")
}

// Put uploads body under key and returns its public URL.
func (s *Store) Put(ctx context.Context, key, contentType string, body []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	s.logger.Debug().Str("key", key).Int("bytes", len(body)).Msg("stored object")
	return s.URL(key), nil
}

// Get downloads the object stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}

// Delete removes key. Missing objects are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// Ping checks that the bucket is reachable, for health checks.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}
