package storage

import (
	"testing"
	"time"

	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/maniplib/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDRoundTrip(t *testing.T) {
	for _, id := range []core.ID{0, 1, 300, core.IDFromContent("x"), ^core.ID(0)} {
		got, err := UnmarshalID(MarshalID(id))
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestResultRecordRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	record := &core.ResultRecord{
		Id:        core.IDFromContent("run"),
		Strategy:  "knapsack",
		Evaluator: "utilitarian",
		Dataset:   "https://example.org/ED-00001-00000001.soc",
		L:         3,
		K:         2,
		R:         5,
		Result: core.Manipulation{
			Support:   []core.Candidate{4, 2},
			Approvals: map[core.Candidate]int{4: 3, 2: 1},
			Value:     42,
			Winners:   []core.Candidate{2, 4},
			Replaced:  1,
			Found:     true,
		},
		InsertedAt: now,
	}

	got, err := UnmarshalResultRecord(MarshalResultRecord(record))
	require.NoError(t, err)
	assert.Equal(t, record, got)
}

func TestResultRecordRoundTrip_Sincere(t *testing.T) {
	record := &core.ResultRecord{
		Strategy: "consistent",
		Result:   core.Manipulation{Winners: []core.Candidate{1}},
	}

	got, err := UnmarshalResultRecord(MarshalResultRecord(record))
	require.NoError(t, err)
	assert.False(t, got.Result.Found)
	assert.Nil(t, got.Result.Support)
	assert.Nil(t, got.Result.Approvals)
	assert.True(t, got.InsertedAt.IsZero())
	assert.Equal(t, []core.Candidate{1}, got.Result.Winners)
}

func TestDatasetRoundTrip(t *testing.T) {
	dataset := &core.Dataset{
		Id:        core.IDFromContent("u"),
		URL:       "u",
		Data:      []byte("3\n1,a\n2,b\n3,c\n"),
		FetchedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	got, err := UnmarshalDataset(MarshalDataset(dataset))
	require.NoError(t, err)
	assert.Equal(t, dataset, got)
}

func TestCheckpointRoundTrip(t *testing.T) {
	checkpoint := &core.Checkpoint{Experiment: "sf", Completed: 17, UpdatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}

	got, err := UnmarshalCheckpoint(MarshalCheckpoint(checkpoint))
	require.NoError(t, err)
	assert.Equal(t, checkpoint, got)
}

func TestUnmarshal_Truncated(t *testing.T) {
	data := MarshalDataset(&core.Dataset{URL: "u", Data: []byte("0123456789")})

	_, err := UnmarshalDataset(data[:len(data)-4])
	assert.ErrorIs(t, err, ErrSerializationFailed)
	assert.ErrorIs(t, err, ErrTruncatedData)

	_, err = UnmarshalResultRecord(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestUnmarshal_CorruptLength(t *testing.T) {
	// A record whose Support claims more candidates than any profile holds.
	record := MarshalResultRecord(&core.ResultRecord{Strategy: "knapsack"})
	prefix := IDMUS.Size(0) + 1 + len("knapsack") + 1 + 1 + 3
	length := make([]byte, varint.PositiveInt.Size(maxElements+1))
	varint.PositiveInt.Marshal(maxElements+1, length)

	corrupt := append(append(append([]byte{}, record[:prefix]...), length...), record[prefix+1:]...)
	_, err := UnmarshalResultRecord(corrupt)
	assert.ErrorIs(t, err, ErrSerializationFailed)
	assert.NotErrorIs(t, err, ErrTruncatedData)

	// A plausible length with too few bytes behind it is truncation.
	short := append(append([]byte{}, record[:prefix]...), 5, 1)
	_, err = UnmarshalResultRecord(short)
	assert.ErrorIs(t, err, ErrTruncatedData)
}

func TestSkip(t *testing.T) {
	record := core.ResultRecord{
		Strategy: "egalitarian",
		Result: core.Manipulation{
			Support:   []core.Candidate{3},
			Approvals: map[core.Candidate]int{3: 2},
			Winners:   []core.Candidate{3},
			Found:     true,
		},
		InsertedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	data := MarshalResultRecord(&record)
	n, err := ResultRecordMUS.Skip(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)

	checkpoint := MarshalCheckpoint(&core.Checkpoint{Experiment: "sf", Completed: 3})
	n, err = CheckpointMUS.Skip(checkpoint)
	require.NoError(t, err)
	assert.Equal(t, len(checkpoint), n)
}
