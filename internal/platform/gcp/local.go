package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

// localStore keeps objects under a directory for single-node deployments.
type localStore struct {
	log  *logger.Logger
	root string
	cfg  ObjectStorageConfig
}

func newLocalStore(log *logger.Logger, cfg ObjectStorageConfig) (*localStore, error) {
	root, err := filepath.Abs(cfg.LocalDir)
	if err != nil {
		return nil, fmt.Errorf("resolve local object dir: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create local object dir: %w", err)
	}
	return &localStore{log: log.With("service", "LocalObjectStore"), root: root, cfg: cfg}, nil
}

// Root is the directory served under /objects in local mode.
func (s *localStore) Root() string { return s.root }

func (s *localStore) path(key string) (string, error) {
	clean := filepath.Clean("/" + strings.TrimSpace(key))
	if clean == "/" {
		return "", fmt.Errorf("object key required")
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func (s *localStore) Upload(ctx context.Context, key, _ string, r io.Reader) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write local object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := ctx.Err(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), p)
}

func (s *localStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrObjectNotFound
	}
	return f, err
}

func (s *localStore) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *localStore) PublicURL(key string) string { return publicURL(s.cfg, key) }

func (s *localStore) Close() error { return nil }
