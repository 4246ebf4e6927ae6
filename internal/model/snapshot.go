package model

import "time"

type SnapshotStatus string

const (
	SnapshotStatusPending   SnapshotStatus = "pending"
	SnapshotStatusUploading SnapshotStatus = "uploading"
	SnapshotStatusCompleted SnapshotStatus = "completed"
	SnapshotStatusFailed    SnapshotStatus = "failed"
)

// Snapshot records one encrypted backup of the full list collection.
type Snapshot struct {
	ID           int64          `json:"id"`
	Filename     string         `json:"filename"`
	S3Key        string         `json:"s3_key"`
	SizeBytes    int64          `json:"size_bytes"`
	Status       SnapshotStatus `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}
