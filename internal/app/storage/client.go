package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"campusportal/internal/pkg/logx"
)

// s3Client implements Service against an S3-compatible endpoint.
type s3Client struct {
	cfg      ServiceConfig
	client   *s3.Client
	presign  *s3.PresignClient
	uploader *manager.Uploader
	logger   zerolog.Logger
}

// newS3Client initializes the S3 client with static credentials and a custom endpoint.
func newS3Client(ctx context.Context, cfg ServiceConfig) (*s3Client, error) {
	logger := logx.Component("storage")

	sdkCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load AWS SDK config")
		return nil, errors.New("failed to initialize S3 client configuration")
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &s3Client{
		cfg:      cfg,
		client:   client,
		presign:  s3.NewPresignClient(client),
		uploader: manager.NewUploader(client),
		logger:   logger,
	}, nil
}

// Upload streams body to the bucket through the multipart upload manager.
func (c *s3Client) Upload(ctx context.Context, key, contentType string, body io.Reader) error {
	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.cfg.BucketName),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Body:        body,
	})
	if err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("S3 upload failed")
		return errors.New("failed to upload file to S3")
	}
	return nil
}

// PresignDownload generates a presigned URL for downloading the specified key.
func (c *s3Client) PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error) {
	resp, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.cfg.BucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(duration))
	if err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("Failed to generate presigned URL")
		return "", errors.New("failed to generate presigned URL")
	}

	return resp.URL, nil
}

// Delete removes the object specified by key from the bucket.
func (c *s3Client) Delete(ctx context.Context, key string) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.cfg.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("S3 delete failed")
		return errors.New("failed to delete file from S3")
	}
	return nil
}
