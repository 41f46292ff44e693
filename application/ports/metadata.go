package ports

import (
	"context"
)

// BookMetadata is what a metadata provider knows about an ISBN
type BookMetadata struct {
	Title         string
	Author        string
	Genre         string
	CoverImageURL string
	Description   string
}

// MetadataProvider looks up book metadata by ISBN.
//
// A lookup that completes but matches nothing returns (nil, nil).
// Transport failures (network, non-2xx, open circuit, timeout) return
// an unavailable error so the dispatch transport can decide whether
// to redeliver.
type MetadataProvider interface {
	Lookup(ctx context.Context, isbn string) (*BookMetadata, error)
}

// MetadataDispatcher schedules a metadata fetch for a UserBook whose
// sync state is pending. The fetch logic never knows which dispatch
// mode invoked it.
type MetadataDispatcher interface {
	// Dispatch hands off the fetch and returns without waiting for it.
	// The inline implementation launches a detached task; the queued
	// implementation publishes a message for a separate worker.
	Dispatch(ctx context.Context, userBookID string) error
}
