package workers

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/jobenv"
	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/storage"
	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/types"
	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/utils"
)

// InputDownloader materializes a download plan: it creates the input directory
// tree and fetches every planned file from the object store.
type InputDownloader struct {
	store  storage.ObjectStore
	cm     *utils.ConfigManager
	logger *utils.LogsManager
}

// NewInputDownloader creates a new input downloader
func NewInputDownloader(store storage.ObjectStore, cm *utils.ConfigManager, logger *utils.LogsManager) *InputDownloader {
	return &InputDownloader{
		store:  store,
		cm:     cm,
		logger: logger,
	}
}

// DownloadInputs creates the plan's directories and downloads its files in
// parallel. Individual transfer failures land in the report; only setup
// problems return an error.
func (d *InputDownloader) DownloadInputs(ctx context.Context, paths *jobenv.JobPaths, plan *jobenv.Plan) (*types.DownloadReport, error) {
	report := &types.DownloadReport{StartedAt: time.Now()}

	inputDir := paths.InputDir(true)
	if err := jobenv.EnsureDirectory(inputDir); err != nil {
		return nil, fmt.Errorf("failed to create input directory: %w", err)
	}
	// Plan directories are ordered parent-first
	for _, dir := range plan.Dirs {
		if err := jobenv.EnsureDirectory(filepath.Join(inputDir, dir)); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if timeout := d.cm.GetConfigDuration("transfer_timeout", 0); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	pool := NewWorkerPool(ctx, 0, d.cm)
	pool.Start()
	defer pool.Stop()

	var mu sync.Mutex
	var taskWg sync.WaitGroup

	addResult := func(result types.TransferResult) {
		mu.Lock()
		defer mu.Unlock()
		report.Files = append(report.Files, result)
		if result.Status == types.TransferStatusFailed {
			report.Failed++
		}
	}

	for key, descriptors := range plan.Files {
		for _, desc := range descriptors {
			key, desc := key, desc
			taskWg.Add(1)

			err := pool.Submit(func() {
				defer taskWg.Done()
				addResult(d.downloadOne(ctx, key, desc, inputDir))
			})
			if err != nil {
				taskWg.Done()
				addResult(types.TransferResult{
					Key:      key,
					SourceID: desc.SourceID,
					Path:     desc.TargetPath,
					Status:   types.TransferStatusFailed,
					Error:    err.Error(),
				})
			}
		}
	}

	taskWg.Wait()

	sort.Slice(report.Files, func(i, j int) bool {
		return report.Files[i].Path < report.Files[j].Path
	})
	report.FinishedAt = time.Now()

	if d.logger != nil {
		d.logger.Info(fmt.Sprintf("Downloaded %d file(s), %d failed", len(report.Files)-report.Failed, report.Failed), "downloader")
	}
	return report, nil
}

func (d *InputDownloader) downloadOne(ctx context.Context, key string, desc jobenv.FileDescriptor, inputDir string) types.TransferResult {
	result := types.TransferResult{
		Key:      key,
		SourceID: desc.SourceID,
		Path:     desc.TargetPath,
		Status:   types.TransferStatusCompleted,
	}

	destPath := filepath.Join(inputDir, desc.TargetPath)
	if err := d.store.FetchObject(ctx, desc.SourceID, destPath); err != nil {
		result.Status = types.TransferStatusFailed
		result.Error = err.Error()
		if d.logger != nil {
			d.logger.Error(fmt.Sprintf("Failed to download %s: %v", desc.SourceID, err), "downloader")
		}
		return result
	}

	if desc.Handle != nil && desc.Handle.Checksum != "" {
		if err := utils.VerifyFileChecksum(destPath, desc.Handle.Checksum); err != nil {
			result.Status = types.TransferStatusFailed
			result.Error = err.Error()
			if d.logger != nil {
				d.logger.Error(fmt.Sprintf("Checksum mismatch for %s: %v", desc.SourceID, err), "downloader")
			}
			return result
		}
	}

	if size, err := utils.FileSize(destPath); err == nil {
		result.Bytes = size
	}

	if d.logger != nil {
		d.logger.Debug(fmt.Sprintf("Downloaded %s to %s", desc.SourceID, desc.TargetPath), "downloader")
	}
	return result
}
