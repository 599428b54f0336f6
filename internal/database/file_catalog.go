package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/platform"
	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/utils"
	_ "modernc.org/sqlite"
)

// FileCatalog handles all catalog database operations. It records the platform
// metadata for every file the worker knows about and resolves job input links
// against it.
type FileCatalog struct {
	dir    string
	cm     *utils.ConfigManager
	db     *sql.DB
	logger *utils.LogsManager
}

// NewFileCatalog creates a new file catalog backed by SQLite
func NewFileCatalog(cm *utils.ConfigManager) (*FileCatalog, error) {
	paths := utils.GetAppPaths("")
	fc := &FileCatalog{
		dir:    paths.DataDir,
		cm:     cm,
		logger: utils.NewLogsManager(cm),
	}

	// Create database connection
	db, err := fc.createConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %v", err)
	}
	fc.db = db

	// Initialize files table
	if err := fc.initFilesTable(); err != nil {
		return nil, fmt.Errorf("failed to initialize files table: %v", err)
	}

	return fc, nil
}

// createConnection creates and configures the database connection
func (fc *FileCatalog) createConnection() (*sql.DB, error) {
	// Make sure we have os specific path separator since we are adding this path to host's path
	dbFileName := fc.cm.GetConfigWithDefault("catalog_file", "./file-catalog.db")
	switch runtime.GOOS {
	case "linux", "darwin":
		dbFileName = filepath.ToSlash(dbFileName)
	case "windows":
		dbFileName = filepath.FromSlash(dbFileName)
	default:
		err := fmt.Errorf("unsupported OS type `%s`", runtime.GOOS)
		return nil, err
	}

	path := filepath.Join(fc.dir, dbFileName)

	// Init db connection with enhanced settings for concurrent access
	db, err := sql.Open("sqlite",
		fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=1&_synchronous=NORMAL", path))
	if err != nil {
		fc.logger.Error(fmt.Sprintf("Can not create database connection. (%s)", err.Error()), "database")
		return nil, err
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)   // Allow multiple concurrent connections
	db.SetMaxIdleConns(5)    // Keep some connections idle for quick access
	db.SetConnMaxLifetime(0) // Connections never expire (SQLite handles this)

	// Explicitly enable foreign key enforcement
	_, err = db.Exec("PRAGMA foreign_keys = ON;")
	if err != nil {
		fc.logger.Error(fmt.Sprintf("Failed to enable foreign keys: %s", err.Error()), "database")
		return nil, err
	}

	// Enable WAL mode for better concurrent access
	_, err = db.Exec("PRAGMA journal_mode = WAL;")
	if err != nil {
		fc.logger.Log("warning", fmt.Sprintf("Failed to enable WAL mode: %s", err.Error()), "database")
	}

	return db, nil
}

// initFilesTable creates the files table if it does not exist
func (fc *FileCatalog) initFilesTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS files (
			id TEXT PRIMARY KEY,
			project TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL,
			size_bytes INTEGER NOT NULL DEFAULT 0,
			checksum TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_files_project ON files(project);
	`

	if _, err := fc.db.Exec(query); err != nil {
		fc.logger.Error(fmt.Sprintf("Failed to create files table: %v", err), "database")
		return err
	}

	return nil
}

// AddFile registers a file handle in the catalog. Re-registering an ID
// replaces its metadata.
func (fc *FileCatalog) AddFile(handle *platform.FileHandle) error {
	if handle.ID == "" {
		return fmt.Errorf("file handle has no ID")
	}
	if handle.Name == "" {
		return fmt.Errorf("file handle %s has no name", handle.ID)
	}

	query := `
		INSERT OR REPLACE INTO files (id, project, name, size_bytes, checksum)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := ExecWithLogging(
		context.Background(),
		fc.db,
		query,
		fc.logger,
		"database",
		handle.ID,
		handle.Project,
		handle.Name,
		handle.Size,
		handle.Checksum,
	)

	return err
}

// GetFile retrieves a file handle by ID. Returns nil without error when the
// ID is not in the catalog.
func (fc *FileCatalog) GetFile(id string) (*platform.FileHandle, error) {
	return fc.getFile(context.Background(), id)
}

func (fc *FileCatalog) getFile(ctx context.Context, id string) (*platform.FileHandle, error) {
	query := `
		SELECT id, project, name, size_bytes, checksum
		FROM files
		WHERE id = ?
	`

	return QueryRowSingle(ctx, fc.db, query, scanFileHandle, fc.logger, "database", id)
}

// scanFileHandle scans one catalog row into a FileHandle
func scanFileHandle(row *sql.Row) (*platform.FileHandle, error) {
	var handle platform.FileHandle
	err := row.Scan(
		&handle.ID,
		&handle.Project,
		&handle.Name,
		&handle.Size,
		&handle.Checksum,
	)
	if err != nil {
		return nil, err
	}
	return &handle, nil
}

// ResolveFile resolves a job input link against the catalog
func (fc *FileCatalog) ResolveFile(ctx context.Context, link platform.FileLink) (*platform.FileHandle, error) {
	if !platform.IsFileID(link.ID) {
		return nil, fmt.Errorf("%s: %w", link.ID, platform.ErrNotFile)
	}

	handle, err := fc.getFile(ctx, link.ID)
	if err != nil {
		return nil, err
	}
	if handle == nil {
		return nil, fmt.Errorf("%s: %w", link.ID, platform.ErrNotFound)
	}

	return handle, nil
}

// ListFiles retrieves all cataloged files, optionally filtered by project
func (fc *FileCatalog) ListFiles(project string) ([]*platform.FileHandle, error) {
	query := `
		SELECT id, project, name, size_bytes, checksum
		FROM files
		ORDER BY name ASC
	`
	args := []interface{}{}
	if project != "" {
		query = `
			SELECT id, project, name, size_bytes, checksum
			FROM files
			WHERE project = ?
			ORDER BY name ASC
		`
		args = append(args, project)
	}

	return QueryRows(context.Background(), fc.db, query, scanFileHandleRows, fc.logger, "database", args...)
}

// scanFileHandleRows scans the current row of a multi-row result into a FileHandle
func scanFileHandleRows(rows *sql.Rows) (*platform.FileHandle, error) {
	var handle platform.FileHandle
	err := rows.Scan(
		&handle.ID,
		&handle.Project,
		&handle.Name,
		&handle.Size,
		&handle.Checksum,
	)
	if err != nil {
		return nil, err
	}
	return &handle, nil
}

// RemoveFile deletes a file record from the catalog. Removing an unknown ID
// fails with ErrNotFound.
func (fc *FileCatalog) RemoveFile(id string) error {
	query := `DELETE FROM files WHERE id = ?`

	_, err := ExecWithAffectedRowsCheck(context.Background(), fc.db, query, fc.logger, "database", id)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("%s: %w", id, platform.ErrNotFound)
		}
		return err
	}

	return nil
}

// catalogManifest is the YAML document accepted by ImportManifest
type catalogManifest struct {
	Files []manifestEntry `yaml:"files"`
}

type manifestEntry struct {
	ID       string `yaml:"id,omitempty"`
	Project  string `yaml:"project,omitempty"`
	Name     string `yaml:"name"`
	Size     int64  `yaml:"size_bytes,omitempty"`
	Checksum string `yaml:"checksum,omitempty"`
}

// ImportManifest loads file entries from a YAML manifest into the catalog.
// Entries without an ID get a fresh one. Returns the number of imported files.
func (fc *FileCatalog) ImportManifest(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest catalogManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return 0, fmt.Errorf("failed to parse manifest: %w", err)
	}

	imported := 0
	for i, entry := range manifest.Files {
		if entry.Name == "" {
			return imported, fmt.Errorf("manifest entry %d has no name", i)
		}
		id := entry.ID
		if id == "" {
			id = platform.NewFileID()
		}
		handle := &platform.FileHandle{
			ID:       id,
			Project:  entry.Project,
			Name:     entry.Name,
			Size:     entry.Size,
			Checksum: entry.Checksum,
		}
		if err := fc.AddFile(handle); err != nil {
			return imported, fmt.Errorf("failed to import %s: %w", entry.Name, err)
		}
		imported++
	}

	fc.logger.Info(fmt.Sprintf("Imported %d file(s) from %s", imported, path), "database")
	return imported, nil
}

// Close closes the database connection
func (fc *FileCatalog) Close() error {
	if fc.logger != nil {
		fc.logger.Close()
	}

	if fc.db != nil {
		return fc.db.Close()
	}

	return nil
}
