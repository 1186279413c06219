package domain

import "context"

// StorageKey is the fixed key under which the whole state is persisted.
const StorageKey = "tailor_app_data"

// Storage persists the whole application state as one unit. Load never fails:
// a missing or unreadable record yields the first-run state. Save reports
// write failures so the caller can skip marking the state as synced.
type Storage interface {
	Load(ctx context.Context) AppState
	Save(ctx context.Context, state AppState) error
}
