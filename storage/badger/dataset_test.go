package badger

import (
	"context"
	"testing"

	"github.com/poiesic/maniplib/core"
	"github.com/poiesic/maniplib/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetRepository(t *testing.T) {
	datasets, results, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { datasets.Close(); results.Close(); backend.Close() }()

	ctx := context.Background()

	t.Run("missing dataset", func(t *testing.T) {
		_, err := datasets.GetDataset(ctx, "https://example.org/none.soc")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("put and get", func(t *testing.T) {
		stored, err := datasets.PutDataset(ctx, &core.Dataset{
			URL:  "https://example.org/a.soc",
			Data: []byte("3\n1,a\n"),
		})
		require.NoError(t, err)
		assert.Equal(t, core.IDFromContent("https://example.org/a.soc"), stored.Id)
		assert.False(t, stored.FetchedAt.IsZero())

		got, err := datasets.GetDataset(ctx, "https://example.org/a.soc")
		require.NoError(t, err)
		assert.Equal(t, []byte("3\n1,a\n"), got.Data)
		assert.Equal(t, stored.Id, got.Id)
	})

	t.Run("list sorted by url", func(t *testing.T) {
		_, err := datasets.PutDataset(ctx, &core.Dataset{URL: "https://example.org/0.soc", Data: []byte("x")})
		require.NoError(t, err)

		all, err := datasets.ListDatasets(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "https://example.org/0.soc", all[0].URL)
		assert.Equal(t, "https://example.org/a.soc", all[1].URL)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, datasets.DeleteDatasets(ctx, "https://example.org/0.soc"))
		_, err := datasets.GetDataset(ctx, "https://example.org/0.soc")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		err = datasets.DeleteDatasets(ctx, "https://example.org/0.soc")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}
