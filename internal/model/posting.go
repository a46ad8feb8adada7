package model

import (
	"context"
	"strconv"
	"time"
)

// Posting is one job-vacancy record as read from the source store.
// It is treated as immutable for the duration of a sync pass.
type Posting struct {
	ID            int64
	Title         string
	Description   string
	Labels        []string // free-text labels, split and trimmed at the source boundary
	AgencyShort   string
	AgencyLong    string
	DutyStation   string
	DutyCountry   string
	DutyContinent string
	Grade         string
	PostingDate   *time.Time // nullable
	ApplyUntil    *time.Time // application deadline, nullable
	Archived      bool
	URL           string
}

// NaturalKey returns the dedup identity of a posting: the URL when present,
// otherwise the record identifier.
func (p Posting) NaturalKey() string {
	if p.URL != "" {
		return p.URL
	}
	return "id:" + strconv.FormatInt(p.ID, 10)
}

// CategoryScore is a category id paired with the score it received.
type CategoryScore struct {
	Category   string `json:"category"`
	Confidence int    `json:"confidence"`
}

// ClassificationFlags carries classifier diagnostics that do not affect scoring.
type ClassificationFlags struct {
	LowConfidence bool     `json:"lowConfidence"`
	Ambiguous     bool     `json:"ambiguous"`
	EmergingTerms []string `json:"emergingTerms,omitempty"`
}

// Posting lifecycle states, recomputed from raw dates on every sync.
const (
	StatusActive      = "active"
	StatusClosingSoon = "closing_soon"
	StatusExpired     = "expired"
	StatusArchived    = "archived"
)

// Urgency buckets derived from days remaining.
const (
	UrgencyUrgent   = "urgent"
	UrgencyNormal   = "normal"
	UrgencyExtended = "extended"
)

// Location types.
const (
	LocationHQ     = "HQ"
	LocationField  = "Field"
	LocationRemote = "Remote"
)

// ClassifiedPosting is the denormalized cache row: the source posting plus
// every field derived during a sync pass.
type ClassifiedPosting struct {
	Posting

	PrimaryCategory       string
	SecondaryCategories   []CategoryScore
	Confidence            int
	Reasoning             []string
	Flags                 ClassificationFlags
	SeniorityLevel        string
	LocationType          string
	Status                string
	IsActive              bool
	IsExpired             bool
	DaysRemaining         int
	Urgency               string
	ApplicationWindowDays int
	ProcessedAt           time.Time
}

// Sync metadata states.
const (
	SyncNeverSynced = "never_synced"
	SyncSyncing     = "syncing"
	SyncCompleted   = "completed"
	SyncFailed      = "failed"
)

// SyncMetadata is the singleton row describing the most recent sync.
type SyncMetadata struct {
	Status     string     `json:"status"`
	RunID      string     `json:"runId,omitempty"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	LastSyncAt *time.Time `json:"lastSyncAt,omitempty"`
	TotalJobs  int        `json:"totalJobs"`
	DurationMs int64      `json:"durationMs"`
	LastError  string     `json:"lastError,omitempty"`
}

// AnalyticsEntry is one precomputed aggregate stored under a well-known key.
type AnalyticsEntry struct {
	Key       string    `json:"key"`
	Data      []byte    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IsFresh reports whether the entry has not yet expired at now.
func (e AnalyticsEntry) IsFresh(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// PostingSource reads every current posting from the authoritative store.
type PostingSource interface {
	FetchPostings(ctx context.Context) ([]Posting, error)
}

// SyncNotifier is told about the outcome of every FullSync that ran.
type SyncNotifier interface {
	NotifySync(ctx context.Context, report SyncReport) error
}

// SyncReport is the structured outcome of one FullSync invocation.
type SyncReport struct {
	Success        bool   `json:"success"`
	RunID          string `json:"runId"`
	TotalSource    int    `json:"totalSource"`
	TotalProcessed int    `json:"totalProcessed"`
	Duplicates     int    `json:"duplicates"`
	DurationMs     int64  `json:"durationMs"`
	Error          string `json:"error,omitempty"`
}
