package model

import "errors"

var (
	// ErrSyncInProgress is returned when another FullSync holds the sync lock.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrCacheMiss is returned when no live analytics entry exists for a key.
	ErrCacheMiss = errors.New("analytics cache miss")

	// ErrUnknownAnalyticsKey is returned for keys outside the precomputed battery.
	ErrUnknownAnalyticsKey = errors.New("unknown analytics key")
)
