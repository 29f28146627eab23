package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/blockreg-labs/blockreg/internal/config"
	"github.com/blockreg-labs/blockreg/internal/content"
)

// S3API is the subset of the S3 client the store uses.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 keeps each content type as one JSON array object at
// <prefix>/<contentType>.json.
type S3 struct {
	client S3API
	bucket string
	prefix string
}

// NewS3 returns a store over an existing client.
func NewS3(client S3API, bucket, prefix string) *S3 {
	return &S3{client: client, bucket: bucket, prefix: prefix}
}

// OpenS3 builds a client from the default AWS credential chain. A custom
// endpoint switches to path-style addressing for S3-compatible servers.
func OpenS3(ctx context.Context, cfg config.S3) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("store.s3.bucket is required")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	if awsCfg.Region == "" {
		awsCfg.Region = "us-east-1"
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3(client, cfg.Bucket, cfg.Prefix), nil
}

func (s *S3) key(contentType string) string {
	return path.Join(s.prefix, contentType+".json")
}

// ListRecords downloads and decodes the object of contentType. A missing
// object means no records.
func (s *S3) ListRecords(ctx context.Context, contentType string) ([]content.Record, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(contentType)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting s3://%s/%s: %w", s.bucket, s.key(contentType), err)
	}
	defer func() { _ = out.Body.Close() }()

	var records []content.Record
	if err := json.NewDecoder(out.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding s3://%s/%s: %w", s.bucket, s.key(contentType), err)
	}
	return records, nil
}

// Seed uploads the records of contentType, replacing the object.
func (s *S3) Seed(ctx context.Context, contentType string, records []content.Record) error {
	if records == nil {
		records = []content.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", contentType, err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(contentType)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("putting s3://%s/%s: %w", s.bucket, s.key(contentType), err)
	}
	return nil
}

// Close is a no-op.
func (s *S3) Close() error { return nil }
