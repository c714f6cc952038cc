package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

// ErrObjectNotFound is returned by Open when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore holds uploaded material files.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	Close() error
}

// NewObjectStore picks the backend for cfg.Mode.
func NewObjectStore(log *logger.Logger, cfg ObjectStorageConfig) (ObjectStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := ValidateObjectStorageConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	log.Info("Object storage initialized",
		"mode", cfg.Mode,
		"mode_source", cfg.ModeSource(),
		"bucket", cfg.Bucket,
		"emulator_host", cfg.EmulatorHost,
		"local_dir", cfg.LocalDir,
		"public_base_url", cfg.PublicBaseURL,
	)
	if cfg.Mode == ObjectStorageModeLocal {
		return newLocalStore(log, cfg)
	}
	client, err := newStorageClientForMode(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &bucketStore{
		log:    log.With("service", "BucketStore"),
		client: client,
		cfg:    cfg,
	}, nil
}

func newStorageClientForMode(ctx context.Context, cfg ObjectStorageConfig) (*storage.Client, error) {
	switch cfg.Mode {
	case ObjectStorageModeGCS:
		opts := append(ClientOptionsFromEnv(), option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case ObjectStorageModeGCSEmulator:
		// The storage client reads the emulator endpoint from the environment.
		_ = os.Setenv("STORAGE_EMULATOR_HOST", cfg.EmulatorHost)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &ObjectStorageConfigError{Code: ObjectStorageConfigErrorInvalidMode, Value: string(cfg.Mode)}
	}
}

type bucketStore struct {
	log    *logger.Logger
	client *storage.Client
	cfg    ObjectStorageConfig
}

func (b *bucketStore) Upload(ctx context.Context, key, contentType string, r io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := b.client.Bucket(b.cfg.Bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentTypeOr(contentType, key)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	b.log.Debug("object uploaded", "key", key, "bucket", b.cfg.Bucket)
	return nil
}

func (b *bucketStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	// The reader outlives this call, so cancel is tied to Close.
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Minute)
	r, err := b.client.Bucket(b.cfg.Bucket).Object(key).NewReader(ctx2)
	if err != nil {
		cancel()
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to open GCS reader: %w", err)
	}
	return &readCloserWithCancel{ReadCloser: r, cancel: cancel}, nil
}

func (b *bucketStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	err := b.client.Bucket(b.cfg.Bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete GCS object: %w", err)
	}
	return nil
}

func (b *bucketStore) PublicURL(key string) string {
	return publicURL(b.cfg, key)
}

func (b *bucketStore) Close() error {
	return b.client.Close()
}

// publicURL prefers a CDN domain, then an explicit public base, then the
// emulator media endpoint, then storage.googleapis.com.
func publicURL(cfg ObjectStorageConfig, key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	switch {
	case cfg.CDNDomain != "":
		return fmt.Sprintf("https://%s/%s", cfg.CDNDomain, key)
	case cfg.Mode == ObjectStorageModeLocal:
		if cfg.PublicBaseURL == "" {
			return "/objects/" + key
		}
		return cfg.PublicBaseURL + "/objects/" + key
	case cfg.PublicBaseURL != "":
		return fmt.Sprintf("%s/%s/%s", cfg.PublicBaseURL, cfg.Bucket, key)
	case cfg.Mode == ObjectStorageModeGCSEmulator:
		return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media",
			cfg.EmulatorHost, url.PathEscape(cfg.Bucket), url.PathEscape(key))
	default:
		return fmt.Sprintf("https://storage.googleapis.com/%s/%s", cfg.Bucket, key)
	}
}

type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

func contentTypeOr(contentType, key string) string {
	if strings.TrimSpace(contentType) != "" {
		return contentType
	}
	switch strings.ToLower(path.Ext(key)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
