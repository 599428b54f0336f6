package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/types"
	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/utils"
)

// ErrObjectNotFound indicates the requested object is not in the store
var ErrObjectNotFound = errors.New("object not found in store")

// ObjectStore moves file content between the platform object store and local
// paths. Objects are addressed by platform file ID.
type ObjectStore interface {
	// FetchObject downloads the object to destPath, creating parent
	// directories as needed
	FetchObject(ctx context.Context, id string, destPath string) error
	// StoreObject uploads the file at srcPath as the object's content
	StoreObject(ctx context.Context, id string, srcPath string) error
	// StatObject reports the stored object's size, or ErrObjectNotFound
	StatObject(ctx context.Context, id string) (int64, error)
}

// NewObjectStore creates the object store selected by the storage_backend
// config key
func NewObjectStore(cm *utils.ConfigManager, logger *utils.LogsManager) (ObjectStore, error) {
	backend := cm.GetConfigWithDefault("storage_backend", types.StorageBackendS3)
	switch backend {
	case types.StorageBackendS3:
		return NewS3Store(cm, logger)
	case types.StorageBackendLocal:
		dir := cm.GetConfigWithDefault("local_store_dir", "")
		if dir == "" {
			dir = filepath.Join(utils.GetAppPaths("").DataDir, "objects")
		}
		return NewDirStore(dir, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend `%s`", backend)
	}
}
