package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/sahilchouksey/eduplatform-api/services/storage"
	"github.com/sahilchouksey/eduplatform-api/utils/logger"
	"github.com/sahilchouksey/eduplatform-api/utils/pdfvalidation"
	"gorm.io/gorm"
)

const (
	// MaxUploadSize caps every upload
	MaxUploadSize = 10 * 1024 * 1024

	// SignedURLExpiry is how long a submission download link stays valid
	SignedURLExpiry = 3600 * time.Second
)

var folderPattern = regexp.MustCompile(`^[A-Za-z0-9_\-/]+$`)

// UploadedFile is returned by POST /files/:bucket
type UploadedFile struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	URL    string `json:"url"`
}

// FileService stores course material and submission files
type FileService struct {
	store storage.ObjectStore
	now   func() time.Time
}

func NewFileService(store storage.ObjectStore) *FileService {
	return &FileService{store: store, now: time.Now}
}

// Upload validates and stores one file for user. The key is {folder}/{unix_millis}.{ext};
// folder defaults to the user id. Submission files always land under the
// user's own folder, so "work" becomes "{id}/work".
func (s *FileService) Upload(ctx context.Context, user *model.User, bucket, folder, filename, contentType string, data []byte) (*UploadedFile, error) {
	var limits pdfvalidation.PDFLimits
	switch bucket {
	case storage.CourseFiles:
		if !user.IsProfessor() {
			return nil, forbidden("Only professors can upload course files")
		}
		limits = pdfvalidation.CourseFileLimits
	case storage.SubmissionFiles:
		limits = pdfvalidation.SubmissionFileLimits
	default:
		return nil, Invalid("Unknown bucket %q", bucket)
	}

	if len(data) == 0 {
		return nil, Invalid("File is empty")
	}
	if len(data) > MaxUploadSize {
		return nil, Invalid("File size exceeds maximum allowed size of 10MB")
	}

	if pdfvalidation.IsPDF(filename, contentType) {
		result, err := pdfvalidation.ValidatePDFBytes(data, limits)
		if err != nil {
			return nil, fmt.Errorf("failed to validate pdf: %w", err)
		}
		if !result.Valid {
			return nil, Invalid("%s", result.Error)
		}
	}

	owner := userFolder(user.ID)
	folder = strings.Trim(folder, "/")
	switch {
	case folder == "":
		folder = owner
	case bucket == storage.SubmissionFiles && folder != owner && !strings.HasPrefix(folder, owner+"/"):
		folder = owner + "/" + folder
	}
	if !folderPattern.MatchString(folder) || strings.Contains(folder, "..") {
		return nil, Invalid("Folder may only contain letters, digits, '-', '_' and '/'")
	}

	key := BuildObjectKey(folder, filename, s.now())
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = storage.ContentType(filename)
	}

	if err := s.store.Upload(ctx, bucket, key, data, contentType); err != nil {
		return nil, err
	}

	file := &UploadedFile{Bucket: bucket, Key: key}
	if bucket == storage.CourseFiles {
		file.URL = s.store.PublicURL(bucket, key)
	} else {
		file.URL = storage.SubmissionFiles + "/" + key
	}
	return file, nil
}

func userFolder(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// submissionKey returns the object key behind a private submission file_url
func submissionKey(fileURL string) (string, bool) {
	return strings.CutPrefix(fileURL, storage.SubmissionFiles+"/")
}

// InUserFolder reports whether a private submission file_url sits in the
// folder of userID. Links outside the submission bucket are not checked.
func InUserFolder(fileURL string, userID uint) bool {
	key, ok := submissionKey(fileURL)
	if !ok {
		return true
	}
	return !strings.Contains(key, "..") && strings.HasPrefix(key, userFolder(userID)+"/")
}

// BuildObjectKey returns {folder}/{unix_millis}.{ext}
func BuildObjectKey(folder, filename string, at time.Time) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%s/%d.%s", folder, at.UnixMilli(), ext)
}

// DownloadURL turns a stored file_url into something a browser can open.
// Private submission files get a signed URL; anything else is returned unchanged.
func (s *FileService) DownloadURL(ctx context.Context, fileURL string) (string, error) {
	key, ok := submissionKey(fileURL)
	if !ok {
		return fileURL, nil
	}

	url, err := s.store.PresignedURL(ctx, storage.SubmissionFiles, key, SignedURLExpiry)
	if err != nil {
		return "", fmt.Errorf("failed to sign download url: %w", err)
	}
	return url, nil
}

// Remove deletes the object behind a stored file_url. Links that point
// outside both buckets, and objects already gone, are ignored.
func (s *FileService) Remove(ctx context.Context, fileURL string) error {
	bucket := storage.SubmissionFiles
	key, ok := submissionKey(fileURL)
	if !ok {
		bucket = storage.CourseFiles
		key, ok = strings.CutPrefix(fileURL, s.store.PublicURL(storage.CourseFiles, ""))
	}
	if !ok || key == "" {
		return nil
	}

	err := s.store.Delete(ctx, bucket, key)
	if err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		return fmt.Errorf("failed to remove %s/%s: %w", bucket, key, err)
	}
	return nil
}

// removeUnreferenced deletes stored objects once no course or submission row
// points at them any more. Failures are logged and leave the object behind.
func removeUnreferenced(ctx context.Context, db *gorm.DB, files *FileService, log *logger.Logger, fileURLs ...string) {
	if files == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, fileURL := range fileURLs {
		if fileURL == "" {
			continue
		}

		var courses, submissions int64
		if err := db.WithContext(ctx).Model(&model.Course{}).Where("file_url = ?", fileURL).Count(&courses).Error; err != nil {
			log.Warn("failed to check file references", "file_url", fileURL, "error", err)
			continue
		}
		if err := db.WithContext(ctx).Model(&model.Submission{}).Where("file_url = ?", fileURL).Count(&submissions).Error; err != nil {
			log.Warn("failed to check file references", "file_url", fileURL, "error", err)
			continue
		}
		if courses+submissions > 0 {
			continue
		}

		if err := files.Remove(ctx, fileURL); err != nil {
			log.Warn("failed to remove stored file", "file_url", fileURL, "error", err)
		}
	}
}
