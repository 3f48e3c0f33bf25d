package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/sync/errgroup"

	"github.com/tooffoundation/site-backend/internal/observability"
)

const (
	DefaultMaxImageSize = 5 * 1024 * 1024
	imagePathPrefix     = "images"
)

var (
	ErrFileTooBig           = errors.New("file size exceeds the upload limit")
	ErrInvalidFileType      = errors.New("invalid file type, only JPEG, PNG, WebP and GIF images are allowed")
	ErrInvalidImageKind     = errors.New("invalid image kind")
	ErrInvalidObjectKey     = errors.New("invalid object key")
	ErrStorageDisabled      = errors.New("image storage is not configured")
	ErrBucketCreationFailed = errors.New("failed to create storage bucket")
	ErrUploadFailed         = errors.New("failed to upload file")
	ErrDeleteFailed         = errors.New("failed to delete file")

	imageExtensions = map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
		"image/gif":  ".gif",
	}
	imageKinds = map[string]struct{}{
		"blogs":   {},
		"events":  {},
		"gallery": {},
	}
)

type StoredImage struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// ImageStorage stores uploaded images under images/<kind>/<uuid>.<ext>.
type ImageStorage interface {
	UploadImage(ctx context.Context, kind string, file io.Reader, size int64) (*StoredImage, error)
	DeleteObjects(ctx context.Context, keys ...string) error
	PublicURL(key string) string
	Ping(ctx context.Context) error
}

// MinIOImageStorage implements ImageStorage on MinIO/S3-compatible storage.
type MinIOImageStorage struct {
	client        *minio.Client
	bucketName    string
	publicBaseURL string
	maxSize       int64
	initOnce      sync.Once
	initErr       error
}

type StorageSettings struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
	MaxSize       int64
}

// NewMinIOImageStorage creates the client without contacting the server; the
// bucket is created on first use.
func NewMinIOImageStorage(settings StorageSettings) (*MinIOImageStorage, error) {
	client, err := minio.New(settings.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(settings.AccessKey, settings.SecretKey, ""),
		Secure: settings.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	if settings.MaxSize <= 0 {
		settings.MaxSize = DefaultMaxImageSize
	}
	base := strings.TrimRight(settings.PublicBaseURL, "/")
	if base == "" {
		scheme := "http"
		if settings.UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, settings.Endpoint, settings.Bucket)
	}
	return &MinIOImageStorage{
		client:        client,
		bucketName:    settings.Bucket,
		publicBaseURL: base,
		maxSize:       settings.MaxSize,
	}, nil
}

func (s *MinIOImageStorage) lazyInit(ctx context.Context) error {
	s.initOnce.Do(func() {
		s.initErr = s.ensureBucketExists(ctx)
	})
	return s.initErr
}

func (s *MinIOImageStorage) ensureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("%w: check bucket existence: %v", ErrBucketCreationFailed, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("%w: create bucket: %v", ErrBucketCreationFailed, err)
		}
	}
	return nil
}

// UploadImage sniffs the content type from the bytes themselves; the
// client-declared type is ignored.
func (s *MinIOImageStorage) UploadImage(ctx context.Context, kind string, file io.Reader, size int64) (*StoredImage, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordStorageOperation(ctx, "upload", outcome, time.Since(start)) }()

	if size > s.maxSize {
		outcome = "too_big"
		return nil, ErrFileTooBig
	}
	kind, err := normalizeImageKind(kind)
	if err != nil {
		outcome = "bad_request"
		return nil, err
	}
	contentType, body, err := sniffImage(file)
	if err != nil {
		outcome = "bad_request"
		return nil, err
	}
	if err := s.lazyInit(ctx); err != nil {
		outcome = "error"
		return nil, err
	}

	key := fmt.Sprintf("%s/%s/%s%s", imagePathPrefix, kind, uuid.NewString(), imageExtensions[contentType])
	_, err = s.client.PutObject(ctx, s.bucketName, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"Uploaded-At": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		outcome = "error"
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return &StoredImage{Key: key, URL: s.PublicURL(key), ContentType: contentType, Size: size}, nil
}

// DeleteObjects removes the given keys concurrently. Empty keys are skipped.
func (s *MinIOImageStorage) DeleteObjects(ctx context.Context, keys ...string) error {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordStorageOperation(ctx, "delete", outcome, time.Since(start)) }()

	var pending []string
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if !validObjectKey(key) {
			outcome = "bad_request"
			return ErrInvalidObjectKey
		}
		pending = append(pending, key)
	}
	if len(pending) == 0 {
		return nil
	}
	if err := s.lazyInit(ctx); err != nil {
		outcome = "error"
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, key := range pending {
		g.Go(func() error {
			if err := s.client.RemoveObject(gctx, s.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrDeleteFailed, key, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		outcome = "error"
		return err
	}
	return nil
}

func (s *MinIOImageStorage) PublicURL(key string) string {
	return s.publicBaseURL + "/" + strings.TrimLeft(key, "/")
}

func (s *MinIOImageStorage) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucketName)
	return err
}

// DisabledImageStorage is used when no object store is configured. Deletes are
// no-ops so content can still be removed.
type DisabledImageStorage struct{}

func (DisabledImageStorage) UploadImage(context.Context, string, io.Reader, int64) (*StoredImage, error) {
	return nil, ErrStorageDisabled
}

func (DisabledImageStorage) DeleteObjects(context.Context, ...string) error { return nil }

func (DisabledImageStorage) PublicURL(key string) string { return key }

func (DisabledImageStorage) Ping(context.Context) error { return nil }

func normalizeImageKind(kind string) (string, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		kind = "gallery"
	}
	if _, ok := imageKinds[kind]; !ok {
		return "", ErrInvalidImageKind
	}
	return kind, nil
}

func sniffImage(file io.Reader) (string, io.Reader, error) {
	buf := make([]byte, 512)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, fmt.Errorf("%w: read file for content detection: %v", ErrUploadFailed, err)
	}
	buf = buf[:n]
	contentType := strings.ToLower(http.DetectContentType(buf))
	if _, ok := imageExtensions[contentType]; !ok {
		return "", nil, ErrInvalidFileType
	}
	return contentType, io.MultiReader(bytes.NewReader(buf), file), nil
}

func validObjectKey(key string) bool {
	return strings.HasPrefix(key, imagePathPrefix+"/") && !strings.Contains(key, "..")
}
