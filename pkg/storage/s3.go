package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// MaxFlyerFileSize is the maximum allowed flyer upload (10MB).
	MaxFlyerFileSize = 10 * 1024 * 1024
	// FolderFlyers is the S3 prefix for flyer objects.
	FolderFlyers = "flyers"
)

// ErrForeignURL is returned when a URL does not point into the configured bucket.
var ErrForeignURL = errors.New("url does not belong to flyer bucket")

// AllowedFlyerExtensions maps accepted flyer extensions to their MIME type.
var AllowedFlyerExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	".pdf":  "application/pdf",
}

// S3Config holds S3 client configuration.
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	FlyersBucket    string
	// Endpoint overrides the AWS endpoint (S3-compatible stores, local testing).
	Endpoint string
}

// S3 stores event flyers.
type S3 struct {
	client   *s3.Client
	uploader *manager.Uploader
	cfg      S3Config
	logger   *zap.Logger
}

// NewS3 creates an S3 client using credentials from config or the environment.
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FlyersBucket == "" {
		return nil, errors.New("flyers bucket not configured")
	}
	accessKey := cfg.AccessKeyID
	secretKey := cfg.SecretAccessKey
	if accessKey == "" || secretKey == "" {
		accessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		secretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey, secretKey, "",
		)))
		logger.Info("S3 client using static credentials", zap.String("region", cfg.Region), zap.String("bucket", cfg.FlyersBucket))
	} else {
		logger.Warn("S3 client using default credential chain")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
	})
	return &S3{client: client, uploader: uploader, cfg: cfg, logger: logger}, nil
}

// FlyerContentType returns the MIME type for a flyer filename, or false if the extension is not allowed.
func FlyerContentType(filename string) (string, bool) {
	ct, ok := AllowedFlyerExtensions[strings.ToLower(path.Ext(filename))]
	return ct, ok
}

// FlyerKey returns a fresh object key: flyers/{uuid}{ext}.
func FlyerKey(filename string) string {
	return path.Join(FolderFlyers, uuid.New().String()+strings.ToLower(path.Ext(filename)))
}

// PublicObjectURL returns the public URL for an object in the flyers bucket.
func (s *S3) PublicObjectURL(key string) string {
	if s.cfg.Endpoint != "" {
		return strings.TrimRight(s.cfg.Endpoint, "/") + "/" + s.cfg.FlyersBucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.FlyersBucket, s.cfg.Region, key)
}

// KeyFromURL extracts the object key from a URL produced by PublicObjectURL.
func (s *S3) KeyFromURL(rawURL string) (string, error) {
	prefix := s.PublicObjectURL("")
	if !strings.HasPrefix(rawURL, prefix) {
		return "", ErrForeignURL
	}
	key := strings.TrimPrefix(rawURL, prefix)
	if unescaped, err := url.PathUnescape(key); err == nil {
		key = unescaped
	}
	if key == "" {
		return "", ErrForeignURL
	}
	return key, nil
}

// UploadFlyer streams a flyer to S3 with public-read ACL and returns its public URL.
func (s *S3) UploadFlyer(ctx context.Context, filename string, body io.Reader, size int64) (string, error) {
	contentType, ok := FlyerContentType(filename)
	if !ok {
		return "", fmt.Errorf("flyer type %q not allowed", path.Ext(filename))
	}
	key := FlyerKey(filename)
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.FlyersBucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	s.logger.Info("flyer uploaded", zap.String("key", key))
	return s.PublicObjectURL(key), nil
}

// DeleteFlyer removes the flyer object referenced by its public URL.
func (s *S3) DeleteFlyer(ctx context.Context, flyerURL string) error {
	key, err := s.KeyFromURL(flyerURL)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.FlyersBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
