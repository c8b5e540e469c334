// Package s3 uploads memo snapshots to an S3 compatible bucket.
package s3

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	portssvc "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/services"
)

// objectPutter is the part of *s3.Client the uploader calls.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type uploader struct {
	client objectPutter
	bucket string
	prefix string
}

var _ portssvc.BackupUploader = (*uploader)(nil)

// Config holds the bucket settings. Credentials and region come from the
// default AWS chain.
type Config struct {
	Bucket   string
	Prefix   string // Optional key prefix, e.g. "memo-backups/"
	Endpoint string // Optional custom endpoint (MinIO, LocalStack)
}

func NewUploader(ctx context.Context, cfg Config) (portssvc.BackupUploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket cannot be empty")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newUploader(client, cfg.Bucket, cfg.Prefix), nil
}

func newUploader(client objectPutter, bucket, prefix string) *uploader {
	return &uploader{client: client, bucket: bucket, prefix: prefix}
}

// Upload returns the object key.
func (u *uploader) Upload(ctx context.Context, name string, snapshot []byte) (string, error) {
	key := u.prefix + name
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(snapshot),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put of %s failed: %w", key, err)
	}
	return key, nil
}
