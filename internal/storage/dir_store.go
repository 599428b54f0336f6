package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/utils"
)

// DirStore is an ObjectStore backed by a plain directory, one file per object
// ID. Useful for air-gapped workers and tests.
type DirStore struct {
	root   string
	logger *utils.LogsManager
}

// NewDirStore creates a directory-backed object store rooted at root
func NewDirStore(root string, logger *utils.LogsManager) (*DirStore, error) {
	if root == "" {
		return nil, fmt.Errorf("store directory is required")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &DirStore{
		root:   root,
		logger: logger,
	}, nil
}

// FetchObject copies the object's file to destPath
func (d *DirStore) FetchObject(ctx context.Context, id string, destPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("object id is required")
	}

	src := filepath.Join(d.root, id)
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", id, ErrObjectNotFound)
		}
		return fmt.Errorf("failed to stat %s: %w", id, err)
	}

	return utils.CopyFile(src, destPath)
}

// StoreObject copies the file at srcPath into the store
func (d *DirStore) StoreObject(ctx context.Context, id string, srcPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("object id is required")
	}

	return utils.CopyFile(srcPath, filepath.Join(d.root, id))
}

// StatObject reports the stored object's size
func (d *DirStore) StatObject(ctx context.Context, id string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if id == "" {
		return 0, fmt.Errorf("object id is required")
	}

	info, err := os.Stat(filepath.Join(d.root, id))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%s: %w", id, ErrObjectNotFound)
		}
		return 0, fmt.Errorf("failed to stat %s: %w", id, err)
	}
	return info.Size(), nil
}
