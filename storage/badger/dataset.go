package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/maniplib/core"
	"github.com/poiesic/maniplib/storage"
)

// DatasetRepository implements storage.DatasetRepository for BadgerDB.
type DatasetRepository struct {
	backend *Backend
}

var _ storage.DatasetRepository = (*DatasetRepository)(nil)

// NewDatasetRepository creates a new DatasetRepository.
func NewDatasetRepository(backend *Backend) *DatasetRepository {
	return &DatasetRepository{backend: backend}
}

// Close is a no-op; the backend owns the database.
func (r *DatasetRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *DatasetRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutDataset stores a dataset under its URL.
func (r *DatasetRepository) PutDataset(ctx context.Context, dataset *core.Dataset) (*core.Dataset, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		dataset.Id = core.IDFromContent(dataset.URL)
		if dataset.FetchedAt.IsZero() {
			dataset.FetchedAt = time.Now().UTC()
		}
		if err := tx.Set(makeDatasetKey(dataset.URL), storage.MarshalDataset(dataset)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	r.backend.logger.Debug("stored dataset", "url", dataset.URL, "bytes", len(dataset.Data))
	return dataset, nil
}

// GetDataset retrieves a dataset by URL.
func (r *DatasetRepository) GetDataset(ctx context.Context, url string) (*core.Dataset, error) {
	var result *core.Dataset
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDataset(tx, makeDatasetKey(url))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListDatasets returns all datasets ordered by URL.
func (r *DatasetRepository) ListDatasets(ctx context.Context) ([]*core.Dataset, error) {
	var results []*core.Dataset
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(datasetPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var dataset *core.Dataset
			err := iter.Item().Value(func(val []byte) error {
				var err error
				dataset, err = storage.UnmarshalDataset(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, dataset)
		}
		return nil
	}, false)
	return results, err
}

// DeleteDatasets removes datasets by URL.
func (r *DatasetRepository) DeleteDatasets(ctx context.Context, urls ...string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, url := range urls {
			key := makeDatasetKey(url)
			if _, err := tx.Get(key); err != nil {
				if err == badger.ErrKeyNotFound {
					return storage.ErrNotFound
				}
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// readDataset reads a dataset from the transaction.
func readDataset(tx *badger.Txn, key []byte) (*core.Dataset, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var dataset *core.Dataset
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		dataset, unmarshalErr = storage.UnmarshalDataset(val)
		return unmarshalErr
	})
	return dataset, err
}
