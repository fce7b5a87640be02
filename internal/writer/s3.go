package writer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/fiscalsync/ajustes-sync/internal/records"
)

// SnapshotContentType is the content type of uploaded snapshots
const SnapshotContentType = "text/csv; charset=utf-8"

// PutObjectAPI is the subset of the S3 client used by S3Writer
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Writer uploads the snapshot to an S3 object
type S3Writer struct {
	client PutObjectAPI
	bucket string
	key    string
}

// NewS3Writer creates a writer for bucket/key using the given client
func NewS3Writer(client PutObjectAPI, bucket, key string) (*S3Writer, error) {
	if client == nil {
		return nil, fmt.Errorf("s3 client is required")
	}
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("s3 bucket and key are required")
	}
	return &S3Writer{client: client, bucket: bucket, key: key}, nil
}

// NewS3WriterFromDefaultConfig creates a writer backed by the default AWS credential chain
func NewS3WriterFromDefaultConfig(ctx context.Context, bucket, key, region string) (*S3Writer, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewS3Writer(s3.NewFromConfig(awsCfg), bucket, key)
}

// Location returns the s3:// URI of the snapshot object
func (s *S3Writer) Location() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key)
}

// Write uploads the encoded snapshot
func (s *S3Writer) Write(ctx context.Context, recs []records.Record) (string, error) {
	location := s.Location()

	data, err := EncodeCSV(recs)
	if err != nil {
		return "", newWriteError(location, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(SnapshotContentType),
	})
	if err != nil {
		return "", newWriteError(location, fmt.Errorf("S3 PutObject %s/%s: %w", s.bucket, s.key, err))
	}

	slog.Info("Snapshot uploaded", "location", location, "records", len(recs), "bytes", len(data))
	return location, nil
}
