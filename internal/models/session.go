package models

import "time"

// LoadState is the lifecycle state of the dashboard data.
type LoadState string

const (
	LoadStateIdle    LoadState = "idle"
	LoadStateLoading LoadState = "loading"
	LoadStateReady   LoadState = "ready"
	LoadStateError   LoadState = "error"
)

// LoadStatus reports the most recent load request.
type LoadStatus struct {
	ID         string              `json:"id,omitempty"`
	State      LoadState           `json:"state"`
	Error      string              `json:"error,omitempty"`
	StartedAt  time.Time           `json:"startedAt,omitempty"`
	FinishedAt time.Time           `json:"finishedAt,omitempty"`
	DurationMs int64               `json:"durationMs,omitempty"`
	Rows       map[DatasetKind]int `json:"rows,omitempty"`
}

// NewLoadStatus creates a status in loading state.
func NewLoadStatus(id string, startedAt time.Time) *LoadStatus {
	return &LoadStatus{
		ID:        id,
		State:     LoadStateLoading,
		StartedAt: startedAt,
	}
}
