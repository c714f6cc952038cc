package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedType is returned for uploads whose MIME type has no extractor.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrEmbeddingFailure wraps any failure of the embedding model.
	ErrEmbeddingFailure = errors.New("embedding failed")
	// ErrGenerationFailure wraps any failure of the generation model.
	ErrGenerationFailure = errors.New("generation failed")
	// ErrMalformedResponse means no usable mind-map JSON could be recovered.
	ErrMalformedResponse = errors.New("malformed model response")
	// ErrNoMaterials means the workspace has nothing to build a mind map from.
	ErrNoMaterials = errors.New("no materials found")
	// ErrLimitExceeded is a usage-tier limit.
	ErrLimitExceeded = errors.New("usage limit reached")
)
