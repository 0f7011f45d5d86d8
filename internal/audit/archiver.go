package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dkovalov/confidant/internal/logging"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Test seams for the S3 client plumbing.
var (
	loadAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(ctx context.Context, client *s3.Client, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return client.PutObject(ctx, in)
	}
)

// S3Options configures the archival target, typically a MinIO-style
// S3-compatible endpoint.
type S3Options struct {
	RootUser     string
	RootPassword string
	Bucket       string
	Region       string
	BaseEndpoint string
}

// Archiver uploads closed monthly audit partitions to object storage.
// Local files are left in place: the audit log never deletes or rewrites
// prior entries.
type Archiver struct {
	log    *Log
	opts   S3Options
	logger logging.Logger
}

// NewArchiver wraps the given file-backed log.
func NewArchiver(log *Log, opts S3Options, logger logging.Logger) *Archiver {
	return &Archiver{log: log, opts: opts, logger: logger}
}

func (a *Archiver) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadAWSConfig(ctx,
		awsconfig.WithRegion(a.opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			a.opts.RootUser,
			a.opts.RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(a.opts.BaseEndpoint)
		o.UsePathStyle = true
	})
	return client, nil
}

// ArchiveClosed uploads every partition other than the current month's and
// returns the object keys written. A failed upload aborts the pass; the
// next pass re-uploads from scratch, which is safe because uploads are
// idempotent per partition content.
func (a *Archiver) ArchiveClosed(ctx context.Context) ([]string, error) {
	pattern := filepath.Join(a.log.Dir(), partitionPrefix+"*.jsonl")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}

	client, err := a.getClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}

	current := a.log.CurrentPartition()
	var uploaded []string
	for _, path := range matches {
		name := filepath.Base(path)
		if name == current {
			continue
		}

		key := archiveKey(name)
		f, err := os.Open(path)
		if err != nil {
			return uploaded, fmt.Errorf("open %s: %w", path, err)
		}
		_, err = putObject(ctx, client, &s3.PutObjectInput{
			Bucket: aws.String(a.opts.Bucket),
			Key:    aws.String(key),
			Body:   f,
		})
		f.Close()
		if err != nil {
			return uploaded, fmt.Errorf("upload %s: %w", name, err)
		}

		a.logger.Info(ctx, "archived audit partition", "partition", name, "key", key)
		uploaded = append(uploaded, key)
	}
	return uploaded, nil
}

// archiveKey places a partition under audit/<year>/<month>/ with a unique
// suffix so repeated archival runs never clobber an earlier upload.
func archiveKey(partition string) string {
	stamp := strings.TrimSuffix(strings.TrimPrefix(partition, partitionPrefix), ".jsonl")
	parts := strings.SplitN(stamp, "-", 2)
	year, month := parts[0], stamp
	if len(parts) == 2 {
		month = parts[1]
	}
	return fmt.Sprintf("audit/%s/%s/%s-%s", year, month, uuid.New(), partition)
}
