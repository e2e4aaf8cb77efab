package model

import "time"

// HistoryEntry is one persisted successful classification. Immutable once
// created; identity is the store-assigned snowflake ID and CreatedAt is
// assigned server-side by the store.
type HistoryEntry struct {
	ID          int64         `json:"id"`
	SubjectID   string        `json:"subject_id"`
	Category    string        `json:"category"`
	Label       int           `json:"label"`
	Probability float64       `json:"probability"`
	RawInput    FeatureVector `json:"raw_input"`
	CreatedAt   time.Time     `json:"created_at"`
}

// HistorySnapshot is the full current materialization of one subject's
// history log. Entry order is presentation-only; aggregation depends on
// multiset membership alone.
type HistorySnapshot []HistoryEntry

// AggregateCounts maps category to the number of entries in a snapshot.
// Derived state only, never persisted.
type AggregateCounts map[string]int
