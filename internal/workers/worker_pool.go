package workers

import (
	"context"
	"fmt"
	"sync"

	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/utils"
)

// WorkerPool manages a pool of workers for file transfer tasks
type WorkerPool struct {
	ctx        context.Context
	cancel     context.CancelFunc
	numWorkers int
	workerChan chan func()
	wg         sync.WaitGroup
	logger     *utils.LogsManager
	cm         *utils.ConfigManager
}

// NewWorkerPool creates a new worker pool. A non-positive worker count falls
// back to the transfer_workers config key.
func NewWorkerPool(ctx context.Context, numWorkers int, cm *utils.ConfigManager) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = cm.GetConfigInt("transfer_workers", 4, 1, 64)
	}

	poolCtx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		ctx:        poolCtx,
		cancel:     cancel,
		numWorkers: numWorkers,
		workerChan: make(chan func(), numWorkers),
		logger:     utils.NewLogsManager(cm),
		cm:         cm,
	}
}

// Start initializes and starts all workers in the pool
func (wp *WorkerPool) Start() {
	wp.logger.Info(fmt.Sprintf("Starting worker pool with %d workers", wp.numWorkers), "workers")

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		workerID := i

		go func(id int) {
			defer wp.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					wp.logger.Error(fmt.Sprintf("Worker %d panic recovered: %v", id, r), "workers")
				}
			}()

			wp.logger.Debug(fmt.Sprintf("Worker %d started", id), "workers")

			for {
				select {
				case task := <-wp.workerChan:
					task()

				case <-wp.ctx.Done():
					// Run whatever is still queued so no submitted task is
					// silently dropped; with the context cancelled they fail
					// fast.
					for {
						select {
						case task := <-wp.workerChan:
							task()
						default:
							wp.logger.Debug(fmt.Sprintf("Worker %d stopping (context done)", id), "workers")
							return
						}
					}
				}
			}
		}(workerID)
	}
}

// Submit submits a task to the worker pool
func (wp *WorkerPool) Submit(task func()) error {
	if wp.ctx.Err() != nil {
		return fmt.Errorf("worker pool is shutting down")
	}

	select {
	case wp.workerChan <- task:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Stop gracefully stops the worker pool. The task channel stays open so a
// late Submit fails with an error instead of panicking.
func (wp *WorkerPool) Stop() {
	wp.cancel()

	// Wait for all workers to finish
	wp.wg.Wait()

	wp.logger.Info("Worker pool stopped", "workers")
	wp.logger.Close()
}

// GetActiveWorkers returns the number of active workers
func (wp *WorkerPool) GetActiveWorkers() int {
	return wp.numWorkers
}
