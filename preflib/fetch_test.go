package preflib

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/maniplib/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T, opts ...FetcherOption) *Fetcher {
	t.Helper()
	opts = append([]FetcherOption{
		WithRetry(3, time.Millisecond),
		WithRateLimit(1000, 10),
	}, opts...)
	f, err := NewFetcher(opts...)
	require.NoError(t, err)
	return f
}

func TestFetcher_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(legacyElection))
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	p, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 5, p.NumVoters())
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetcher_NotFoundStops(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	_, err := f.Fetch(context.Background(), srv.URL)
	var status *StatusError
	require.ErrorAs(t, err, &status)
	assert.Equal(t, http.StatusNotFound, status.Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetcher_BodyTooLarge(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(legacyElection))
	}))
	defer srv.Close()

	f := newTestFetcher(t, WithMaxBodySize(int64(len(legacyElection)-1)))
	_, err := f.FetchRaw(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
	assert.Equal(t, int32(1), calls.Load())

	// Exactly at the limit is accepted.
	f = newTestFetcher(t, WithMaxBodySize(int64(len(legacyElection))))
	data, err := f.FetchRaw(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, legacyElection, string(data))
}

func TestFetcher_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not an election"))
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	_, err := f.Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestFetcher_Cache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(modernElection))
	}))
	defer srv.Close()

	datasets, results, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { datasets.Close(); results.Close(); backend.Close() }()

	f := newTestFetcher(t, WithCache(datasets))
	ctx := context.Background()

	first, err := f.Fetch(ctx, srv.URL)
	require.NoError(t, err)
	second, err := f.Fetch(ctx, srv.URL)
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, first.Ballots, second.Ballots)

	stored, err := datasets.GetDataset(ctx, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte(modernElection), stored.Data)
}

func TestFetcher_Options(t *testing.T) {
	_, err := NewFetcher(WithRetry(0, time.Second))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)

	_, err = NewFetcher(WithRateLimit(0, 1))
	assert.Error(t, err)

	_, err = NewFetcher(WithMaxBodySize(0))
	assert.Error(t, err)

	_, err = NewFetcher(WithHTTPClient(nil))
	assert.Error(t, err)

	f := newTestFetcher(t)
	_, err = f.Fetch(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyURL)
}
