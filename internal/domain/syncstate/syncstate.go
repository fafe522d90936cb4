// Package syncstate describes the per-user mail synchronization checkpoint.
package syncstate

import "time"

// State is the outcome of the last successful mail sync of one user.
type State struct {
	LastSync       time.Time `json:"last_sync"`
	EmailsSynced   int       `json:"emails_synced"`
	DeadlinesFound int       `json:"deadlines_found"`
	AlertsFound    int       `json:"alerts_found"`
	DocumentsFound int       `json:"documents_found"`
}

// Synced reports whether a sync has ever completed.
func (s State) Synced() bool { return !s.LastSync.IsZero() }
