package sink

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"hrestore/internal/config"
	"hrestore/internal/hr"
)

// snapshotTimeKey is the object metadata key holding the snapshot time.
const snapshotTimeKey = "snapshot-time"

// objectUploader is the subset of *manager.Uploader used by S3Sink.
type objectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Sink uploads restored files as objects named <prefix>/<relativePath>.
// Large files are split into multipart uploads by the transfer manager.
// Uploads run under the context the sink was created with, so cancelling
// it aborts an upload in progress.
type S3Sink struct {
	ctx      context.Context
	bucket   string
	prefix   string
	uploader objectUploader
}

// NewS3Sink creates an S3Sink from the output configuration. Credentials come
// from the static keys in cfg when set, otherwise from the default AWS chain.
// A custom endpoint switches to path-style addressing for S3-compatible stores.
func NewS3Sink(ctx context.Context, cfg config.OutputConfig) (*S3Sink, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("%w: s3 output requires s3_bucket to be set", hr.ErrConfiguration)
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3SinkWithUploader(ctx, cfg.S3Bucket, cfg.S3Prefix, manager.NewUploader(client)), nil
}

func newS3SinkWithUploader(ctx context.Context, bucket, prefix string, uploader objectUploader) *S3Sink {
	return &S3Sink{
		ctx:      ctx,
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
		uploader: uploader,
	}
}

// Describe returns the s3:// location of the sink.
func (s *S3Sink) Describe() string {
	if s.prefix == "" {
		return "s3://" + s.bucket
	}
	return "s3://" + s.bucket + "/" + s.prefix
}

// Put uploads r as the object for relativePath, replacing any existing object.
func (s *S3Sink) Put(relativePath string, r io.Reader, size int64, modTime time.Time) error {
	if err := hr.ValidateRelativePath(relativePath); err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(relativePath)),
		Body:   r,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if !modTime.IsZero() {
		input.Metadata = map[string]string{snapshotTimeKey: modTime.UTC().Format(time.RFC3339)}
	}

	if _, err := s.uploader.Upload(s.ctx, input); err != nil {
		return fmt.Errorf("uploading %s: %w", *input.Key, err)
	}
	return nil
}

func (s *S3Sink) objectKey(relativePath string) string {
	if s.prefix == "" {
		return relativePath
	}
	return path.Join(s.prefix, relativePath)
}

var _ hr.Sink = (*S3Sink)(nil)
