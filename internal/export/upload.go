package export

import (
	"bytes"
	"context"
	"path"
	"strings"
	"time"

	"cvforge/internal/config"
	"cvforge/internal/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ObjectPutter is the part of the S3 client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader stores artifacts in S3-compatible object storage.
type Uploader struct {
	client ObjectPutter
	bucket string
	prefix string
	now    func() time.Time
}

// NewUploader builds an S3 client from cfg. Static keys are used when set,
// otherwise the default AWS credential chain.
func NewUploader(ctx context.Context, cfg config.S3Config) (*Uploader, error) {
	if !cfg.Enabled || cfg.Bucket == "" {
		return nil, errors.NewConfigError(errors.ErrCodeMissingCredentials,
			"artifact storage is not configured (set CVFORGE_EXPORT_S3_ENABLED and CVFORGE_EXPORT_S3_BUCKET)", nil)
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeMissingCredentials, "failed to load storage credentials", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return NewUploaderWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewUploaderWithClient wraps an existing client.
func NewUploaderWithClient(client ObjectPutter, bucket, prefix string) *Uploader {
	return &Uploader{client: client, bucket: bucket, prefix: prefix, now: time.Now}
}

// Upload stores a and returns its object key.
func (u *Uploader) Upload(ctx context.Context, a *Artifact) (string, error) {
	key := u.objectKey(a.Filename)
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(a.Data),
		ContentLength: aws.Int64(int64(len(a.Data))),
		ContentType:   aws.String(a.ContentType),
	})
	if err != nil {
		return "", errors.NewRemoteError(errors.ErrCodeExportFailed, "failed to upload export", err).
			WithContext("bucket", u.bucket).
			WithContext("key", key)
	}
	a.Key = key
	return key, nil
}

// objectKey is <prefix>/<yyyy>/<mm>/<dd>/<uuid>-<filename>.
func (u *Uploader) objectKey(filename string) string {
	now := u.now().UTC()
	name := uuid.NewString() + "-" + path.Base(filename)
	return path.Join(strings.Trim(u.prefix, "/"), now.Format("2006/01/02"), name)
}
