package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Bucket names
const (
	CourseFiles     = "course-files"
	SubmissionFiles = "submission-files"
)

// ErrObjectNotFound is returned when a key does not exist
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore is an S3-like bucket store
type ObjectStore interface {
	Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error
	Delete(ctx context.Context, bucket, key string) error
	PublicURL(bucket, key string) string
	PresignedURL(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

// Config holds configuration for the S3 client
type Config struct {
	AccessKey      string
	SecretKey      string
	Region         string
	Endpoint       string // e.g. https://nyc3.digitaloceanspaces.com, empty for AWS
	CDNURL         string
	ForcePathStyle bool // MinIO needs path style
	PublicBuckets  []string
	BucketNames    map[string]string // logical bucket to physical bucket, when they differ
}

// Configured reports whether enough settings are present to talk to a real store
func (c Config) Configured() bool {
	return c.AccessKey != "" && c.SecretKey != ""
}

// S3Store works with any S3 compatible service: AWS, DigitalOcean Spaces or MinIO
type S3Store struct {
	s3Client *s3.S3
	cfg      Config
	public   map[string]bool
}

// NewS3Store creates a new S3 store
func NewS3Store(cfg Config) (*S3Store, error) {
	awsCfg := &aws.Config{
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		),
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(cfg.ForcePathStyle),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage session: %w", err)
	}

	public := make(map[string]bool, len(cfg.PublicBuckets))
	for _, b := range cfg.PublicBuckets {
		public[b] = true
	}

	return &S3Store{
		s3Client: s3.New(sess),
		cfg:      cfg,
		public:   public,
	}, nil
}

// Upload stores data under key. Objects in public buckets get a public-read ACL.
func (s *S3Store) Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName(bucket)),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}
	if s.public[bucket] {
		input.ACL = aws.String(s3.ObjectCannedACLPublicRead)
	}

	if _, err := s.s3Client.PutObjectWithContext(ctx, input); err != nil {
		return fmt.Errorf("failed to upload %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Delete removes an object
func (s *S3Store) Delete(ctx context.Context, bucket, key string) error {
	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName(bucket)),
		Key:    aws.String(key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			return ErrObjectNotFound
		}
		return fmt.Errorf("failed to delete %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *S3Store) bucketName(bucket string) string {
	if name, ok := s.cfg.BucketNames[bucket]; ok && name != "" {
		return name
	}
	return bucket
}

// PublicURL returns the URL of an object in a public bucket
func (s *S3Store) PublicURL(bucket, key string) string {
	bucket = s.bucketName(bucket)
	if s.cfg.CDNURL != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.cfg.CDNURL, "/"), bucket, key)
	}

	endpoint := s.cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://s3.%s.amazonaws.com", s.cfg.Region)
	}
	endpoint = strings.TrimRight(endpoint, "/")

	if s.cfg.ForcePathStyle {
		return fmt.Sprintf("%s/%s/%s", endpoint, bucket, key)
	}

	scheme, host := "https", endpoint
	if i := strings.Index(endpoint, "://"); i >= 0 {
		scheme, host = endpoint[:i], endpoint[i+3:]
	}
	return fmt.Sprintf("%s://%s.%s/%s", scheme, bucket, host, key)
}

// PresignedURL generates a presigned GET URL for temporary access
func (s *S3Store) PresignedURL(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucketName(bucket)),
		Key:    aws.String(key),
	})
	req.SetContext(ctx)

	url, err := req.Presign(expiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign URL: %w", err)
	}
	return url, nil
}

// ContentType returns the content type for a filename
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	case ".txt":
		return "text/plain"
	case ".md":
		return "text/markdown"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".zip":
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}
