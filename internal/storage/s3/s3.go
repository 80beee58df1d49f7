package s3

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrNotConfigured is returned by New when no bucket is configured.
var ErrNotConfigured = errors.New("s3: object storage not configured")

const presignTTL = 15 * time.Minute

type S3Client struct {
	Client    *s3.Client
	Presigner *s3.PresignClient
	Bucket    string
}

// New initializes an S3-compatible client (AWS, R2, MinIO) from AWS_* env.
func New(ctx context.Context) (*S3Client, error) {
	bucket := os.Getenv("AWS_BUCKET")
	if bucket == "" {
		return nil, ErrNotConfigured
	}
	endpoint := os.Getenv("AWS_ENDPOINT")
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "auto"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if id := os.Getenv("AWS_ACCESS_KEY_ID"); id != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(id, os.Getenv("AWS_SECRET_ACCESS_KEY"), ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = os.Getenv("AWS_S3_PATH_STYLE") == "1"
	})

	return &S3Client{
		Client:    client,
		Presigner: s3.NewPresignClient(client),
		Bucket:    bucket,
	}, nil
}

// PresignUpload creates a presigned PUT URL for direct upload.
func (s *S3Client) PresignUpload(ctx context.Context, objectKey, contentType string) (string, time.Time, error) {
	req, err := s.Presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to presign upload: %w", err)
	}
	return req.URL, time.Now().Add(presignTTL), nil
}

// PresignDownload creates a presigned GET URL.
func (s *S3Client) PresignDownload(ctx context.Context, objectKey string) (string, error) {
	req, err := s.Presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return "", fmt.Errorf("failed to presign download: %w", err)
	}
	return req.URL, nil
}
