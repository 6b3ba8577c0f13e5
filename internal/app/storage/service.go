/*
Package storage writes registrant exports to S3-compatible object storage and hands out
time-limited download links for them.
*/
package storage

import (
	"context"
	"io"
	"time"
)

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	BucketName      string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// Service is the object storage used by registrant exports.
type Service interface {
	// Upload stores body under key.
	Upload(ctx context.Context, key, contentType string, body io.Reader) error

	// PresignDownload generates a pre-signed URL for downloading key.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// Delete removes the object stored under key.
	Delete(ctx context.Context, key string) error
}

// NewService returns the S3-compatible implementation of Service.
func NewService(ctx context.Context, cfg ServiceConfig) (Service, error) {
	return newS3Client(ctx, cfg)
}
