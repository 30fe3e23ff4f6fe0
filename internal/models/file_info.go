package models

import "time"

// FileInfo represents metadata about an uploaded dataset file.
type FileInfo struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Kind       DatasetKind `json:"kind,omitempty"`
	Size       int64       `json:"size"`
	UploadedAt time.Time   `json:"uploadedAt"`
}
