package types

import "time"

// Transfer status constants
const (
	TransferStatusCompleted = "COMPLETED"
	TransferStatusFailed    = "FAILED"
)

// Storage backend constants
const (
	StorageBackendS3    = "s3"
	StorageBackendLocal = "local"
)

// TransferResult represents the outcome of moving one file between the object
// store and the local job directories
type TransferResult struct {
	Key      string `json:"key"`                 // Input or output key the file belongs to
	SourceID string `json:"source_id,omitempty"` // Platform file ID
	Path     string `json:"path"`                // Local path relative to the job home
	Status   string `json:"status"`              // COMPLETED or FAILED
	Bytes    int64  `json:"bytes,omitempty"`
	Error    string `json:"error,omitempty"`
}

// DownloadReport summarizes one input download run
type DownloadReport struct {
	Files      []TransferResult `json:"files"`
	Failed     int              `json:"failed"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
}

// UploadReport summarizes one output upload run
type UploadReport struct {
	SessionID      string           `json:"session_id"` // Identifies the upload batch in logs
	Files          []TransferResult `json:"files"`
	Failed         int              `json:"failed"`
	OutputJSONPath string           `json:"output_json_path,omitempty"`
	StartedAt      time.Time        `json:"started_at"`
	FinishedAt     time.Time        `json:"finished_at"`
}
