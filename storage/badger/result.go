package badger

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/maniplib/core"
	"github.com/poiesic/maniplib/storage"
)

// ResultRepository implements storage.ResultRepository for BadgerDB.
type ResultRepository struct {
	backend *Backend
}

var _ storage.ResultRepository = (*ResultRepository)(nil)

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(backend *Backend) *ResultRepository {
	return &ResultRepository{backend: backend}
}

// Close is a no-op; the backend owns the database.
func (r *ResultRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ResultRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutResults stores results under their IDs. A result replacing an older one
// with the same ID moves in the date index.
func (r *ResultRepository) PutResults(ctx context.Context, records ...*core.ResultRecord) ([]*core.ResultRecord, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			key := makeResultKey(record.Id)

			old, err := readResult(tx, key)
			if err != nil {
				return err
			}
			if old != nil {
				if err := tx.Delete(makeResultDateKey(old.InsertedAt, old.Id)); err != nil {
					return err
				}
			}

			if record.InsertedAt.IsZero() {
				record.InsertedAt = time.Now().UTC()
			}

			if err := tx.Set(key, storage.MarshalResultRecord(record)); err != nil {
				return err
			}
			dateKey := makeResultDateKey(record.InsertedAt, record.Id)
			if err := tx.Set(dateKey, storage.MarshalID(record.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return records, err
}

// GetResult retrieves a single result by ID.
func (r *ResultRepository) GetResult(ctx context.Context, id core.ID) (*core.ResultRecord, error) {
	var result *core.ResultRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readResult(tx, makeResultKey(id))
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

// GetResults retrieves multiple results by their IDs.
func (r *ResultRepository) GetResults(ctx context.Context, ids ...core.ID) ([]*core.ResultRecord, error) {
	var results []*core.ResultRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			record, err := readResult(tx, makeResultKey(id))
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)
	return results, err
}

// GetRecentResults retrieves the N most recent results, newest first.
// A non-positive limit is rejected with storage.ErrInvalidQuery.
func (r *ResultRepository) GetRecentResults(ctx context.Context, limit int) ([]*core.ResultRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", storage.ErrInvalidQuery, limit)
	}
	var results []*core.ResultRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true

		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek to the last possible key of the date index
		startKey := makePartialResultDateKey(time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC))
		prefix := []byte(resultDatePrefix + ":")

		for iter.Seek(startKey); iter.Valid() && len(results) < limit; iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(prefix) || slices.Compare(key[:len(prefix)], prefix) != 0 {
				break
			}

			var id core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			record, err := readResult(tx, makeResultKey(id))
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)

	return results, err
}

// DeleteResults removes results by their IDs.
func (r *ResultRepository) DeleteResults(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeResultKey(id)
			record, err := readResult(tx, key)
			if err != nil {
				return err
			}
			if record == nil {
				return storage.ErrNotFound
			}
			if err := tx.Delete(makeResultDateKey(record.InsertedAt, record.Id)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// readResult reads a result from the transaction.
func readResult(tx *badger.Txn, key []byte) (*core.ResultRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.ResultRecord
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalResultRecord(val)
		return unmarshalErr
	})
	return record, err
}
