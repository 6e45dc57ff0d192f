package storage

import (
	"context"

	"github.com/poiesic/maniplib/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close releases the repository's resources.
	Close() error
}

// DatasetRepository caches fetched election files by URL.
type DatasetRepository interface {
	Repository
	// PutDataset stores a dataset, replacing any dataset with the same URL.
	// Sets Id from the URL and FetchedAt if not already set.
	PutDataset(ctx context.Context, dataset *core.Dataset) (*core.Dataset, error)

	// GetDataset retrieves a dataset by URL.
	// Returns ErrNotFound if the dataset doesn't exist.
	GetDataset(ctx context.Context, url string) (*core.Dataset, error)

	// ListDatasets returns all datasets ordered by URL.
	ListDatasets(ctx context.Context) ([]*core.Dataset, error)

	// DeleteDatasets removes datasets by URL.
	// Returns ErrNotFound if any dataset doesn't exist.
	DeleteDatasets(ctx context.Context, urls ...string) error
}

// ResultRepository stores manipulation results keyed by a content ID.
type ResultRepository interface {
	Repository
	// PutResults stores results under their Id, replacing existing ones.
	// Sets InsertedAt if not already set.
	PutResults(ctx context.Context, records ...*core.ResultRecord) ([]*core.ResultRecord, error)

	// GetResult retrieves a single result by ID.
	// Returns ErrNotFound if the result doesn't exist.
	GetResult(ctx context.Context, id core.ID) (*core.ResultRecord, error)

	// GetResults retrieves multiple results by their IDs.
	// Returns only the results that exist (no error for missing results).
	GetResults(ctx context.Context, ids ...core.ID) ([]*core.ResultRecord, error)

	// GetRecentResults retrieves the N most recently inserted results, newest first.
	GetRecentResults(ctx context.Context, limit int) ([]*core.ResultRecord, error)

	// DeleteResults removes results by their IDs.
	// Returns ErrNotFound if any result doesn't exist.
	DeleteResults(ctx context.Context, ids ...core.ID) error
}

// CheckpointRepository persists experiment progress.
type CheckpointRepository interface {
	// SaveCheckpoint persists a checkpoint and sets UpdatedAt.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint of an experiment.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, experiment string) (*core.Checkpoint, error)
}
