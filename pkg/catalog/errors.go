package catalog

import (
	"errors"
	"fmt"
)

// ErrCatalogExists is returned when the target catalog directory already
// exists and overwrite was not requested.
var ErrCatalogExists = errors.New("catalog already exists")

// ErrInvalidModuleName is returned for module names that cannot name a
// catalog directory inside the output directory.
var ErrInvalidModuleName = errors.New("invalid module name")

// CatalogExistsError names the existing directory
type CatalogExistsError struct {
	Path string
}

func (e *CatalogExistsError) Error() string {
	return fmt.Sprintf("catalog already exists at %s (use --overwrite to replace it)", e.Path)
}

func (e *CatalogExistsError) Is(target error) bool {
	return target == ErrCatalogExists
}

// DirectoryCreationError reports a catalog directory that could not be
// prepared.
type DirectoryCreationError struct {
	Path string
	Err  error
}

func (e *DirectoryCreationError) Error() string {
	return fmt.Sprintf("failed to create directory %s: %v", e.Path, e.Err)
}

func (e *DirectoryCreationError) Unwrap() error { return e.Err }

// FileWriteError reports a catalog file that could not be written. The
// catalog directory is incomplete after this error.
type FileWriteError struct {
	Path string
	Err  error
}

func (e *FileWriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *FileWriteError) Unwrap() error { return e.Err }
