package telemetry

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectUploader is the subset of the S3 upload manager used to archive logs.
type ObjectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Archive describes where closed telemetry logs are uploaded.
type Archive struct {
	Bucket   string
	Prefix   string
	uploader ObjectUploader
}

// NewArchive builds an S3 archive using the default AWS credential chain.
// An empty region defers to the environment.
func NewArchive(ctx context.Context, bucket, prefix, region string) (*Archive, error) {
	if bucket == "" {
		return nil, fmt.Errorf("archive: bucket is required")
	}
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewArchiveWithUploader(bucket, prefix, manager.NewUploader(s3.NewFromConfig(cfg))), nil
}

// NewArchiveWithUploader builds an archive over an explicit uploader.
func NewArchiveWithUploader(bucket, prefix string, up ObjectUploader) *Archive {
	return &Archive{Bucket: bucket, Prefix: strings.Trim(prefix, "/"), uploader: up}
}

// ObjectKey returns the key a log is stored under:
// <prefix>/<yyyy-mm-dd>/<session or file name>.db
func (a *Archive) ObjectKey(logPath, session string, at time.Time) string {
	name := session
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(logPath), filepath.Ext(logPath))
	}
	return path.Join(a.Prefix, at.UTC().Format("2006-01-02"), name+".db")
}

// Upload copies a closed log file to the archive and returns its key and
// size. The recorder must be closed first so the WAL has been checkpointed.
func (a *Archive) Upload(ctx context.Context, logPath, session string) (string, int64, error) {
	f, err := os.Open(logPath)
	if err != nil {
		return "", 0, fmt.Errorf("open telemetry log: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return "", 0, fmt.Errorf("stat telemetry log: %w", err)
	}

	key := a.ObjectKey(logPath, session, time.Now())
	_, err = a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.Bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/vnd.sqlite3"),
	})
	if err != nil {
		return "", 0, fmt.Errorf("upload s3://%s/%s: %w", a.Bucket, key, err)
	}
	return key, info.Size(), nil
}
