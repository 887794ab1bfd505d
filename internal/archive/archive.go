// Package archive stores verification reports in S3-compatible object storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectPutter is the subset of the S3 client used by Archive.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config locates the bucket reports are written to.
type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// Archive writes one JSON object per stored report.
type Archive struct {
	client ObjectPutter
	bucket string
}

// New returns nil when no bucket is configured. A nil Archive discards reports.
func New(cfg Config) *Archive {
	if cfg.Bucket == "" {
		return nil
	}
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return NewWithClient(s3.New(opts), cfg.Bucket)
}

// NewWithClient creates an Archive on top of an existing client.
func NewWithClient(client ObjectPutter, bucket string) *Archive {
	return &Archive{client: client, bucket: bucket}
}

// Key returns the object key for a report taken at the given time.
func Key(domainID string, at time.Time) string {
	return fmt.Sprintf("reports/%s/%s.json", domainID, at.UTC().Format("20060102T150405Z"))
}

// Store marshals report and uploads it. It returns the object key, or an
// empty key when archiving is disabled.
func (a *Archive) Store(ctx context.Context, domainID string, at time.Time, report any) (string, error) {
	if a == nil {
		return "", nil
	}

	body, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	key := Key(domainID, at)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("put %s/%s: %w", a.bucket, key, err)
	}
	return key, nil
}
