package ingestion

import "errors"

var (
	// ErrBookRepositoryRequired is returned when a book repository is not provided.
	ErrBookRepositoryRequired = errors.New("book repository required")

	// ErrCheckpointRepositoryRequired is returned when a checkpoint repository is not provided.
	ErrCheckpointRepositoryRequired = errors.New("checkpoint repository required")

	// ErrInvalidDocument is returned when a source document fails schema validation.
	ErrInvalidDocument = errors.New("invalid book document")

	// ErrUnsupportedFormat is returned for files that are neither JSON nor YAML.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrInvalidMaxAttempts is returned when maxAttempts is not positive.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)
