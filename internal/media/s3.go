package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mcoot/coursehub/internal/model"
)

// S3Config holds settings for an S3-compatible object store (AWS or MinIO)
type S3Config struct {
	Bucket       string
	Region       string
	Endpoint     string // optional; set for MinIO or other S3-compatible stores
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	// PublicBaseURL prefixes object keys to build public URLs.
	// Defaults to <Endpoint>/<Bucket> when empty.
	PublicBaseURL string
}

// DefaultS3Config returns defaults for a local MinIO instance
func DefaultS3Config() S3Config {
	return S3Config{
		Bucket:       "coursehub",
		Region:       "us-east-1",
		Endpoint:     "http://127.0.0.1:9000",
		UsePathStyle: true,
	}
}

// ObjectAPI is the subset of the S3 client used by S3Uploader
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Uploader stores objects in an S3 bucket
type S3Uploader struct {
	api     ObjectAPI
	bucket  string
	baseURL string
	now     func() time.Time
}

// NewS3Uploader builds an S3 client from cfg
func NewS3Uploader(ctx context.Context, cfg S3Config) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("media: S3 bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
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
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewS3UploaderWithAPI(client, cfg), nil
}

// NewS3UploaderWithAPI creates an S3Uploader around an existing client (for testing)
func NewS3UploaderWithAPI(api ObjectAPI, cfg S3Config) *S3Uploader {
	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		baseURL = strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return &S3Uploader{
		api:     api,
		bucket:  cfg.Bucket,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		now:     time.Now,
	}
}

// Ensure S3Uploader implements Uploader
var _ Uploader = (*S3Uploader)(nil)

// Upload puts the object under a fresh key and returns its public URL
func (u *S3Uploader) Upload(ctx context.Context, obj Object) (model.MediaRef, error) {
	if obj.Body == nil {
		return model.MediaRef{}, fmt.Errorf("%w: empty body", ErrUploadFailed)
	}

	key := ObjectKey(obj.Kind, obj.Filename, u.now())
	input := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   obj.Body,
	}
	if obj.ContentType != "" {
		input.ContentType = aws.String(obj.ContentType)
	}
	if obj.Size > 0 {
		input.ContentLength = aws.Int64(obj.Size)
	}

	if _, err := u.api.PutObject(ctx, input); err != nil {
		return model.MediaRef{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	return model.MediaRef{PublicID: key, URL: u.baseURL + "/" + key}, nil
}

// Delete removes an object from the bucket
func (u *S3Uploader) Delete(ctx context.Context, publicID string) error {
	_, err := u.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrUploadFailed, publicID, err)
	}
	return nil
}
