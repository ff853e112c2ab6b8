// Package types defines shared types used across the application.
package types

import "time"

// RunStatus represents the outcome of one load-more run on a page.
type RunStatus struct {
	URL         string    `json:"url"`
	NrTicks     int       `json:"nrTicks"`
	NrClicks    int       `json:"nrClicks"`
	NrErrors    int       `json:"nrErrors"`
	FinalHeight int       `json:"finalHeight"`
	StopReason  string    `json:"stopReason"`
	NrItems     int       `json:"nrItems"` // only set if an item selector is configured
	RunStart    time.Time `json:"runStart"`
	RunEnd      time.Time `json:"runEnd"`
}

const (
	StopReasonStagnation = "stagnation"
	StopReasonUser       = "user"
)
