package gcp

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/yungbote/luminar-backend/internal/platform/envutil"
)

type ObjectStorageMode string

const (
	ObjectStorageModeGCS         ObjectStorageMode = "gcs"
	ObjectStorageModeGCSEmulator ObjectStorageMode = "gcs_emulator"
	ObjectStorageModeLocal       ObjectStorageMode = "local"
)

type ObjectStorageConfig struct {
	Mode          ObjectStorageMode
	Bucket        string
	EmulatorHost  string
	LocalDir      string
	PublicBaseURL string
	CDNDomain     string
	// CompatibilityFallback is set when the mode was inferred from
	// STORAGE_EMULATOR_HOST rather than configured.
	CompatibilityFallback bool
}

func (cfg ObjectStorageConfig) ModeSource() string {
	if cfg.CompatibilityFallback {
		return "compatibility_fallback"
	}
	return "explicit_or_default"
}

type ObjectStorageConfigErrorCode string

const (
	ObjectStorageConfigErrorInvalidMode         ObjectStorageConfigErrorCode = "invalid_mode"
	ObjectStorageConfigErrorMissingBucket       ObjectStorageConfigErrorCode = "missing_bucket"
	ObjectStorageConfigErrorMissingEmulatorHost ObjectStorageConfigErrorCode = "missing_emulator_host"
	ObjectStorageConfigErrorInvalidURL          ObjectStorageConfigErrorCode = "invalid_url"
	ObjectStorageConfigErrorMissingLocalDir     ObjectStorageConfigErrorCode = "missing_local_dir"
)

type ObjectStorageConfigError struct {
	Code  ObjectStorageConfigErrorCode
	Value string
	Cause error
}

func (e *ObjectStorageConfigError) Error() string {
	if e == nil {
		return "invalid object storage config"
	}
	switch e.Code {
	case ObjectStorageConfigErrorInvalidMode:
		return fmt.Sprintf("invalid OBJECT_STORAGE_MODE=%q (allowed: %q, %q, %q)",
			e.Value, ObjectStorageModeGCS, ObjectStorageModeGCSEmulator, ObjectStorageModeLocal)
	case ObjectStorageConfigErrorMissingBucket:
		return "MATERIAL_GCS_BUCKET_NAME is required for gcs modes"
	case ObjectStorageConfigErrorMissingEmulatorHost:
		return "OBJECT_STORAGE_MODE=gcs_emulator requires STORAGE_EMULATOR_HOST"
	case ObjectStorageConfigErrorInvalidURL:
		return fmt.Sprintf("invalid URL %q; expected absolute URL like http://fake-gcs:4443", e.Value)
	case ObjectStorageConfigErrorMissingLocalDir:
		return "OBJECT_STORAGE_MODE=local requires OBJECT_STORAGE_LOCAL_DIR"
	default:
		return "invalid object storage config"
	}
}

func (e *ObjectStorageConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func ResolveObjectStorageConfigFromEnv() (ObjectStorageConfig, error) {
	cfg := ObjectStorageConfig{
		Bucket:        envutil.String("MATERIAL_GCS_BUCKET_NAME", ""),
		EmulatorHost:  strings.TrimRight(envutil.String("STORAGE_EMULATOR_HOST", ""), "/"),
		LocalDir:      envutil.String("OBJECT_STORAGE_LOCAL_DIR", "./data/objects"),
		PublicBaseURL: strings.TrimRight(envutil.String("OBJECT_STORAGE_PUBLIC_BASE_URL", ""), "/"),
		CDNDomain:     envutil.String("MATERIAL_CDN_DOMAIN", ""),
	}

	raw := envutil.String("OBJECT_STORAGE_MODE", "")
	switch mode := ObjectStorageMode(strings.ToLower(raw)); mode {
	case "":
		if cfg.EmulatorHost != "" {
			cfg.Mode = ObjectStorageModeGCSEmulator
			cfg.CompatibilityFallback = true
		} else {
			cfg.Mode = ObjectStorageModeGCS
		}
	case ObjectStorageModeGCS, ObjectStorageModeGCSEmulator, ObjectStorageModeLocal:
		cfg.Mode = mode
	default:
		return cfg, &ObjectStorageConfigError{Code: ObjectStorageConfigErrorInvalidMode, Value: raw}
	}

	if err := ValidateObjectStorageConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func ValidateObjectStorageConfig(cfg ObjectStorageConfig) error {
	if cfg.PublicBaseURL != "" {
		if err := checkAbsoluteURL(cfg.PublicBaseURL); err != nil {
			return err
		}
	}
	switch cfg.Mode {
	case ObjectStorageModeLocal:
		if strings.TrimSpace(cfg.LocalDir) == "" {
			return &ObjectStorageConfigError{Code: ObjectStorageConfigErrorMissingLocalDir}
		}
		return nil
	case ObjectStorageModeGCS, ObjectStorageModeGCSEmulator:
	default:
		return &ObjectStorageConfigError{Code: ObjectStorageConfigErrorInvalidMode, Value: string(cfg.Mode)}
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return &ObjectStorageConfigError{Code: ObjectStorageConfigErrorMissingBucket}
	}
	if cfg.Mode == ObjectStorageModeGCSEmulator {
		if cfg.EmulatorHost == "" {
			return &ObjectStorageConfigError{Code: ObjectStorageConfigErrorMissingEmulatorHost}
		}
		return checkAbsoluteURL(cfg.EmulatorHost)
	}
	return nil
}

func checkAbsoluteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ObjectStorageConfigError{Code: ObjectStorageConfigErrorInvalidURL, Value: raw, Cause: err}
	}
	return nil
}
