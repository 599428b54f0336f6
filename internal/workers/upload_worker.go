package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/database"
	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/jobenv"
	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/platform"
	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/storage"
	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/types"
	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/utils"
)

// OutputUploader collects the files a job left in its output directory,
// uploads them to the object store, registers them in the catalog and writes
// the job output document.
type OutputUploader struct {
	store   storage.ObjectStore
	catalog *database.FileCatalog
	cm      *utils.ConfigManager
	logger  *utils.LogsManager
}

// NewOutputUploader creates a new output uploader
func NewOutputUploader(store storage.ObjectStore, catalog *database.FileCatalog, cm *utils.ConfigManager, logger *utils.LogsManager) *OutputUploader {
	return &OutputUploader{
		store:   store,
		catalog: catalog,
		cm:      cm,
		logger:  logger,
	}
}

// outputFile is one file found under the output directory, attributed to the
// output key of its first-level subdirectory.
type outputFile struct {
	key  string
	path string // absolute
	rel  string // relative to the output directory
}

// UploadOutputs uploads every file under the output directory's key
// subdirectories and writes job_output.json with one link (or link array) per
// key. Files lying directly in the output directory belong to no key and are
// skipped with a warning.
func (u *OutputUploader) UploadOutputs(ctx context.Context, paths *jobenv.JobPaths, project string) (*types.UploadReport, error) {
	report := &types.UploadReport{
		SessionID: uuid.New().String(),
		StartedAt: time.Now(),
	}

	outputDir := paths.OutputDir(true)
	if err := utils.ValidateDirectory(outputDir); err != nil {
		return nil, fmt.Errorf("output directory is not usable: %w", err)
	}

	// Stale output documents must not survive into this run
	if err := paths.RemoveOutputJSON(); err != nil {
		return nil, fmt.Errorf("failed to remove previous job output document: %w", err)
	}

	files, err := u.collectOutputs(outputDir)
	if err != nil {
		return nil, err
	}

	if u.logger != nil {
		u.logger.Info(fmt.Sprintf("Upload session %s: %d file(s) to upload", report.SessionID, len(files)), "uploader")
	}

	if timeout := u.cm.GetConfigDuration("transfer_timeout", 0); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	pool := NewWorkerPool(ctx, 0, u.cm)
	pool.Start()
	defer pool.Stop()

	var mu sync.Mutex
	var taskWg sync.WaitGroup
	linkByPath := make(map[string]platform.FileLink)

	addResult := func(result types.TransferResult, link *platform.FileLink) {
		mu.Lock()
		defer mu.Unlock()
		report.Files = append(report.Files, result)
		if result.Status == types.TransferStatusFailed {
			report.Failed++
		} else if link != nil {
			linkByPath[result.Path] = *link
		}
	}

	for _, file := range files {
		file := file
		taskWg.Add(1)

		err := pool.Submit(func() {
			defer taskWg.Done()
			result, link := u.uploadOne(ctx, file, project)
			addResult(result, link)
		})
		if err != nil {
			taskWg.Done()
			addResult(types.TransferResult{
				Key:    file.key,
				Path:   file.rel,
				Status: types.TransferStatusFailed,
				Error:  err.Error(),
			}, nil)
		}
	}

	taskWg.Wait()

	sort.Slice(report.Files, func(i, j int) bool {
		return report.Files[i].Path < report.Files[j].Path
	})

	// Assemble link arrays in file order, which is stable across runs
	links := make(map[string][]platform.FileLink)
	for _, file := range files {
		if link, ok := linkByPath[file.rel]; ok {
			links[file.key] = append(links[file.key], link)
		}
	}

	if err := u.writeOutputJSON(paths, links); err != nil {
		return nil, err
	}
	report.OutputJSONPath = paths.OutputJSONPath()
	report.FinishedAt = time.Now()

	if u.logger != nil {
		u.logger.Info(fmt.Sprintf("Upload session %s: %d uploaded, %d failed", report.SessionID, len(report.Files)-report.Failed, report.Failed), "uploader")
	}
	return report, nil
}

// collectOutputs walks the output directory. First-level subdirectories are
// output keys; every regular file below a key belongs to it. The result is
// sorted by relative path so link arrays come out in a stable order.
func (u *OutputUploader) collectOutputs(outputDir string) ([]outputFile, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	var files []outputFile
	for _, entry := range entries {
		if !entry.IsDir() {
			if u.logger != nil {
				u.logger.Warn(fmt.Sprintf("Skipping %s: output files must live in a key subdirectory", entry.Name()), "uploader")
			}
			continue
		}

		key := entry.Name()
		keyDir := filepath.Join(outputDir, key)
		err := filepath.WalkDir(keyDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.Type().IsRegular() {
				return nil
			}
			rel, err := filepath.Rel(outputDir, path)
			if err != nil {
				return err
			}
			files = append(files, outputFile{key: key, path: path, rel: rel})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan output key %s: %w", key, err)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].rel < files[j].rel })
	return files, nil
}

func (u *OutputUploader) uploadOne(ctx context.Context, file outputFile, project string) (types.TransferResult, *platform.FileLink) {
	result := types.TransferResult{
		Key:    file.key,
		Path:   file.rel,
		Status: types.TransferStatusCompleted,
	}

	checksum, err := utils.ChecksumFile(file.path)
	if err != nil {
		result.Status = types.TransferStatusFailed
		result.Error = err.Error()
		return result, nil
	}
	size, err := utils.FileSize(file.path)
	if err != nil {
		result.Status = types.TransferStatusFailed
		result.Error = err.Error()
		return result, nil
	}

	handle := &platform.FileHandle{
		ID:       platform.NewFileID(),
		Project:  project,
		Name:     filepath.Base(file.path),
		Size:     size,
		Checksum: checksum,
	}
	result.SourceID = handle.ID
	result.Bytes = size

	if err := u.store.StoreObject(ctx, handle.ID, file.path); err != nil {
		result.Status = types.TransferStatusFailed
		result.Error = err.Error()
		if u.logger != nil {
			u.logger.Error(fmt.Sprintf("Failed to upload %s: %v", file.rel, err), "uploader")
		}
		return result, nil
	}

	if err := u.catalog.AddFile(handle); err != nil {
		result.Status = types.TransferStatusFailed
		result.Error = err.Error()
		return result, nil
	}

	if u.logger != nil {
		u.logger.Debug(fmt.Sprintf("Uploaded %s as %s", file.rel, handle.ID), "uploader")
	}
	link := handle.Link()
	return result, &link
}

// writeOutputJSON renders the uploaded links as the job output document: a
// single link for one-file keys, a link array otherwise.
func (u *OutputUploader) writeOutputJSON(paths *jobenv.JobPaths, links map[string][]platform.FileLink) error {
	doc := make(map[string]interface{}, len(links))
	for key, keyLinks := range links {
		if len(keyLinks) == 1 {
			doc[key] = keyLinks[0]
		} else {
			doc[key] = keyLinks
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode job output document: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(paths.OutputJSONPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write job output document: %w", err)
	}
	return nil
}
