package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"schooladmin/config"
	"schooladmin/utils"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
)

// StorageService stores generated documents in S3. A nil *StorageService
// means storage is not configured and every call reports Unavailable.
type StorageService struct {
	s3Client s3iface.S3API
	bucket   string
	region   string
	now      func() time.Time
}

// NewStorageService returns (nil, nil) when no bucket is configured.
func NewStorageService(cfg *config.Config) (*StorageService, error) {
	if cfg == nil || cfg.S3BucketName == "" || cfg.AWSRegion == "" {
		return nil, nil
	}

	awsCfg := &aws.Config{Region: aws.String(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" && cfg.AWSSecretAccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return NewStorageServiceWithClient(s3.New(sess), cfg.S3BucketName, cfg.AWSRegion), nil
}

func NewStorageServiceWithClient(client s3iface.S3API, bucket, region string) *StorageService {
	return &StorageService{s3Client: client, bucket: bucket, region: region, now: time.Now}
}

// Available reports whether uploads can be served.
func (s *StorageService) Available() bool {
	return s != nil && s.s3Client != nil && s.bucket != ""
}

// UploadBytes stores data under folder and returns the public URL.
func (s *StorageService) UploadBytes(ctx context.Context, folder, extension string, data []byte) (string, error) {
	if !s.Available() {
		return "", utils.NewUnavailableError("File storage is not configured")
	}

	key := ObjectKey(folder, extension, s.now(), uuid.New().String())
	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(getContentType(extension)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return s.URLFor(key), nil
}

// DeleteFile deletes a file from S3
func (s *StorageService) DeleteFile(ctx context.Context, fileURL string) error {
	if !s.Available() {
		return utils.NewUnavailableError("File storage is not configured")
	}

	key := extractKeyFromURL(fileURL)
	if key == "" {
		return utils.NewValidationError("invalid file URL")
	}

	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

func (s *StorageService) URLFor(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// ObjectKey lays objects out as folder/YYYY/MM/DD/<id>.<ext>.
func ObjectKey(folder, extension string, now time.Time, id string) string {
	if len(id) > 16 {
		id = id[:16]
	}
	folder = strings.Trim(folder, "/")
	return fmt.Sprintf("%s/%d/%02d/%02d/%s.%s",
		folder,
		now.Year(),
		now.Month(),
		now.Day(),
		id,
		strings.TrimPrefix(extension, "."),
	)
}

func getContentType(extension string) string {
	switch strings.ToLower(strings.TrimPrefix(extension, ".")) {
	case "pdf":
		return "application/pdf"
	case "xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "zip":
		return "application/zip"
	case "json":
		return "application/json"
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}

// extractKeyFromURL extracts the S3 key from a full URL
func extractKeyFromURL(url string) string {
	// https://bucket.s3.region.amazonaws.com/path/to/file.ext
	parts := strings.Split(url, ".amazonaws.com/")
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

// FileExtension returns the lowercase extension without the dot.
func FileExtension(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) > 1 {
		return strings.ToLower(ext[1:])
	}
	return ""
}
