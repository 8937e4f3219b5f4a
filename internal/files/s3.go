package files

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Options configures the S3 backend.
type S3Options struct {
	Bucket string
	Region string
	// Endpoint overrides the AWS endpoint (MinIO, LocalStack).
	Endpoint  string
	AccessKey string
	SecretKey string
	// PresignTTL is the lifetime of download links (default 15m).
	PresignTTL time.Duration
}

// S3 stores documents in a bucket and hands out presigned download links.
type S3 struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	ttl       time.Duration
}

// NewS3 builds a client from the default AWS chain, overridden by any
// static credentials and endpoint in opts.
func NewS3(ctx context.Context, opts S3Options) (*S3, error) {
	loaders := []func(*config.LoadOptions) error{
		config.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	ttl := opts.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &S3{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    opts.Bucket,
		ttl:       ttl,
	}, nil
}

// Save implements Store.
func (s *S3) Save(ctx context.Context, fileName, contentType string, r io.Reader) (string, error) {
	key := documentKey(fileName)

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return key, nil
}

// URL implements Store with a presigned GET link.
func (s *S3) URL(ctx context.Context, ref string) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", ref, err)
	}
	return req.URL, nil
}
