package app

import (
	"errors"
	"fmt"

	"github.com/yungbote/luminar-backend/internal/platform/gcp"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

var newObjectStore = gcp.NewObjectStore

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode         StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingBucket       StorageProviderBootstrapErrorCode = "missing_bucket"
	StorageProviderBootstrapErrorMissingEmulatorHost StorageProviderBootstrapErrorCode = "missing_emulator_host"
	StorageProviderBootstrapErrorInvalidURL          StorageProviderBootstrapErrorCode = "invalid_url"
	StorageProviderBootstrapErrorMissingLocalDir     StorageProviderBootstrapErrorCode = "missing_local_dir"
	StorageProviderBootstrapErrorConnectFailed       StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code  StorageProviderBootstrapErrorCode
	Mode  string
	Cause error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf("object storage bootstrap failed (code=%s mode=%q): %v", e.Code, e.Mode, e.Cause)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveObjectStore reads OBJECT_STORAGE_* and builds the matching store.
// The resolved config is returned so the router can serve local objects.
func resolveObjectStore(log *logger.Logger) (gcp.ObjectStore, gcp.ObjectStorageConfig, error) {
	storageCfg, err := gcp.ResolveObjectStorageConfigFromEnv()
	if err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		log.Error(
			"Object storage provider selection failed",
			"mode", storageCfg.Mode,
			"error_code", storageProviderBootstrapErrorCode(classified),
			"error", classified,
		)
		return nil, storageCfg, classified
	}

	log.Info(
		"Selecting object storage provider",
		"mode", storageCfg.Mode,
		"mode_source", storageCfg.ModeSource(),
		"compatibility_fallback", storageCfg.CompatibilityFallback,
	)
	store, err := newObjectStore(log, storageCfg)
	if err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		log.Error(
			"Object storage provider bootstrap failed",
			"mode", storageCfg.Mode,
			"error_code", storageProviderBootstrapErrorCode(classified),
			"error", classified,
		)
		return nil, storageCfg, classified
	}
	return store, storageCfg, nil
}

func classifyStorageProviderBootstrapError(storageCfg gcp.ObjectStorageConfig, err error) error {
	code := StorageProviderBootstrapErrorConnectFailed
	var cfgErr *gcp.ObjectStorageConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case gcp.ObjectStorageConfigErrorInvalidMode:
			code = StorageProviderBootstrapErrorInvalidMode
		case gcp.ObjectStorageConfigErrorMissingBucket:
			code = StorageProviderBootstrapErrorMissingBucket
		case gcp.ObjectStorageConfigErrorMissingEmulatorHost:
			code = StorageProviderBootstrapErrorMissingEmulatorHost
		case gcp.ObjectStorageConfigErrorInvalidURL:
			code = StorageProviderBootstrapErrorInvalidURL
		case gcp.ObjectStorageConfigErrorMissingLocalDir:
			code = StorageProviderBootstrapErrorMissingLocalDir
		}
	}
	return &StorageProviderBootstrapError{Code: code, Mode: string(storageCfg.Mode), Cause: err}
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return StorageProviderBootstrapErrorConnectFailed
}
