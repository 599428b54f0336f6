package jobenv

import "errors"

var (
	// ErrInvalidFilename indicates a file basename that cannot exist on a Unix filesystem
	ErrInvalidFilename = errors.New("invalid filename")
	// ErrNotDirectory indicates a path that exists but is not a directory
	ErrNotDirectory = errors.New("path exists and is not a directory")
)
