// Package photo uploads proof-of-completion photos to S3-compatible storage.
package photo

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sethvargo/go-retry"
)

const (
	// MaxFiles caps how many photos one completion may attach.
	MaxFiles = 5
	// MaxFileSize is the per-file limit in bytes.
	MaxFileSize = 5 << 20
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// File is one uploaded photo as received from the client.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Config holds S3-compatible storage settings. Endpoint may point at any
// S3-compatible provider (R2, B2, MinIO).
type Config struct {
	Endpoint      string
	Bucket        string
	Region        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

type s3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader stores proof photos. A zero-config Uploader is disabled and
// rejects every file, which keeps completions working without storage set up.
type Uploader struct {
	client s3Client
	config Config
	logger *slog.Logger
}

func NewUploader(cfg Config, logger *slog.Logger) *Uploader {
	u := &Uploader{config: cfg, logger: logger}
	if u.Enabled() {
		u.client = newS3Client(cfg)
	}
	return u
}

func newS3Client(cfg Config) *s3.Client {
	awsCfg := aws.Config{
		Region:      cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
}

// Enabled reports whether storage is configured.
func (u *Uploader) Enabled() bool {
	return u.config.Bucket != "" && u.config.AccessKey != "" && u.config.SecretKey != ""
}

// Validate checks count, size, and content type before anything is uploaded.
// It returns per-file errors for rejected files; an empty slice means all
// files are acceptable.
func Validate(files []File) []error {
	var errs []error
	if len(files) > MaxFiles {
		errs = append(errs, fmt.Errorf("too many files: %d exceeds limit of %d", len(files), MaxFiles))
		return errs
	}
	for _, f := range files {
		if len(f.Data) > MaxFileSize {
			errs = append(errs, fmt.Errorf("%s: file too large (%d bytes, limit %d)", f.Name, len(f.Data), MaxFileSize))
			continue
		}
		if _, ok := allowedTypes[f.ContentType]; !ok {
			errs = append(errs, fmt.Errorf("%s: unsupported content type %q", f.Name, f.ContentType))
		}
	}
	return errs
}

// UploadProofs uploads the given photos under a key derived from the
// completion's identity and returns the public URLs of the files that made it.
// Individual failures are logged and skipped so a flaky object store never
// blocks a completion; the caller attaches whatever URLs come back.
func (u *Uploader) UploadProofs(ctx context.Context, householdID, taskID, completionID int64, files []File) []string {
	if !u.Enabled() || len(files) == 0 {
		return nil
	}

	var urls []string
	for i, f := range files {
		ext := allowedTypes[f.ContentType]
		if ext == "" {
			ext = strings.ToLower(path.Ext(f.Name))
		}
		key := fmt.Sprintf("%d/%d/%d/%d%s", householdID, taskID, completionID, i, ext)

		if err := u.putWithRetry(ctx, key, f); err != nil {
			u.logger.Error("proof upload failed", "key", key, "error", err)
			continue
		}
		urls = append(urls, u.publicURL(key))
	}
	return urls
}

func (u *Uploader) putWithRetry(ctx context.Context, key string, f File) error {
	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(u.config.Bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(f.Data),
			ContentType: aws.String(f.ContentType),
		})
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (u *Uploader) publicURL(key string) string {
	base := strings.TrimSuffix(u.config.PublicBaseURL, "/")
	if base == "" {
		base = strings.TrimSuffix(u.config.Endpoint, "/") + "/" + u.config.Bucket
	}
	return base + "/" + key
}
