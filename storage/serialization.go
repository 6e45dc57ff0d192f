// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"errors"
	"fmt"
	"time"

	com "github.com/mus-format/common-go"
	"github.com/mus-format/mus-go"
	mapops "github.com/mus-format/mus-go/options/map"
	slops "github.com/mus-format/mus-go/options/slice"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/maniplib/core"
)

// maxElements bounds decoded candidate lists and approval maps.
const maxElements = 1 << 16

// Serializers for persisted records, composed from mus-go serializers.
var (
	IDMUS           mus.Serializer[core.ID]                = idMUS{}
	DatasetMUS      mus.Serializer[core.Dataset]           = datasetMUS{}
	ResultRecordMUS mus.Serializer[core.ResultRecord]      = resultRecordMUS{}
	CheckpointMUS   mus.Serializer[core.Checkpoint]        = checkpointMUS{}
	CandidateMUS    mus.Serializer[core.Candidate]         = candidateMUS{}
	CandidatesMUS   mus.Serializer[[]core.Candidate]       = ord.NewValidSliceSer(CandidateMUS, slops.WithLenValidator[core.Candidate](lengthValidator))
	ApprovalsMUS    mus.Serializer[map[core.Candidate]int] = ord.NewValidMapSer(CandidateMUS, intMUS, mapops.WithLenValidator[core.Candidate, int](lengthValidator))
)

// Field serializers. Times are stored as UTC Unix microseconds.
var (
	stringMUS mus.Serializer[string]    = ord.String
	bytesMUS  mus.Serializer[[]byte]    = ord.ByteSlice
	boolMUS   mus.Serializer[bool]      = ord.Bool
	intMUS    mus.Serializer[int]       = varint.Int
	uint64MUS mus.Serializer[uint64]    = varint.Uint64
	timeMUS   mus.Serializer[time.Time] = raw.TimeUnixMicroUTC
)

var lengthValidator = com.ValidatorFn[int](func(n int) error {
	if n > maxElements {
		return fmt.Errorf("collection of %d elements exceeds %d", n, maxElements)
	}
	return nil
})

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	return marshal(IDMUS, id)
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := IDMUS.Unmarshal(data)
	if err != nil {
		return 0, decodeError(err)
	}
	return id, nil
}

// MarshalDataset serializes a Dataset to bytes.
func MarshalDataset(dataset *core.Dataset) []byte {
	return marshal(DatasetMUS, *dataset)
}

// UnmarshalDataset deserializes a Dataset from bytes.
func UnmarshalDataset(data []byte) (*core.Dataset, error) {
	return unmarshal(DatasetMUS, data)
}

// MarshalResultRecord serializes a ResultRecord to bytes.
func MarshalResultRecord(record *core.ResultRecord) []byte {
	return marshal(ResultRecordMUS, *record)
}

// UnmarshalResultRecord deserializes a ResultRecord from bytes.
func UnmarshalResultRecord(data []byte) (*core.ResultRecord, error) {
	return unmarshal(ResultRecordMUS, data)
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
func MarshalCheckpoint(checkpoint *core.Checkpoint) []byte {
	return marshal(CheckpointMUS, *checkpoint)
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*core.Checkpoint, error) {
	return unmarshal(CheckpointMUS, data)
}

func marshal[T any](ser mus.Serializer[T], v T) []byte {
	buf := make([]byte, ser.Size(v))
	ser.Marshal(v, buf)
	return buf
}

func unmarshal[T any](ser mus.Serializer[T], data []byte) (*T, error) {
	v, _, err := ser.Unmarshal(data)
	if err != nil {
		return nil, decodeError(err)
	}
	return &v, nil
}

func decodeError(err error) error {
	if errors.Is(err, mus.ErrTooSmallByteSlice) {
		return fmt.Errorf("%w: %w: %w", ErrSerializationFailed, ErrTruncatedData, err)
	}
	return fmt.Errorf("%w: %w", ErrSerializationFailed, err)
}

type idMUS struct{}

func (idMUS) Marshal(v core.ID, bs []byte) int {
	return uint64MUS.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (core.ID, int, error) {
	v, n, err := uint64MUS.Unmarshal(bs)
	return core.ID(v), n, err
}

func (idMUS) Size(v core.ID) int {
	return uint64MUS.Size(uint64(v))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return uint64MUS.Skip(bs)
}

type candidateMUS struct{}

func (candidateMUS) Marshal(v core.Candidate, bs []byte) int {
	return intMUS.Marshal(int(v), bs)
}

func (candidateMUS) Unmarshal(bs []byte) (core.Candidate, int, error) {
	v, n, err := intMUS.Unmarshal(bs)
	return core.Candidate(v), n, err
}

func (candidateMUS) Size(v core.Candidate) int {
	return intMUS.Size(int(v))
}

func (candidateMUS) Skip(bs []byte) (int, error) {
	return intMUS.Skip(bs)
}

type datasetMUS struct{}

func (datasetMUS) Marshal(v core.Dataset, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += stringMUS.Marshal(v.URL, bs[n:])
	n += bytesMUS.Marshal(v.Data, bs[n:])
	return n + timeMUS.Marshal(v.FetchedAt, bs[n:])
}

func (datasetMUS) Unmarshal(bs []byte) (v core.Dataset, n int, err error) {
	d := decoder{bs: bs}
	v.Id = decode(&d, IDMUS)
	v.URL = decode(&d, stringMUS)
	v.Data = decode(&d, bytesMUS)
	v.FetchedAt = decode(&d, timeMUS)
	if len(v.Data) == 0 {
		v.Data = nil
	}
	return v, d.n, d.err
}

func (datasetMUS) Size(v core.Dataset) int {
	return IDMUS.Size(v.Id) + stringMUS.Size(v.URL) + bytesMUS.Size(v.Data) + timeMUS.Size(v.FetchedAt)
}

func (datasetMUS) Skip(bs []byte) (int, error) {
	return skipAll(bs, IDMUS.Skip, stringMUS.Skip, bytesMUS.Skip, timeMUS.Skip)
}

type resultRecordMUS struct{}

func (resultRecordMUS) Marshal(v core.ResultRecord, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += stringMUS.Marshal(v.Strategy, bs[n:])
	n += stringMUS.Marshal(v.Evaluator, bs[n:])
	n += stringMUS.Marshal(v.Dataset, bs[n:])
	n += intMUS.Marshal(v.L, bs[n:])
	n += intMUS.Marshal(v.K, bs[n:])
	n += intMUS.Marshal(v.R, bs[n:])
	n += CandidatesMUS.Marshal(v.Result.Support, bs[n:])
	n += ApprovalsMUS.Marshal(v.Result.Approvals, bs[n:])
	n += intMUS.Marshal(v.Result.Value, bs[n:])
	n += CandidatesMUS.Marshal(v.Result.Winners, bs[n:])
	n += intMUS.Marshal(v.Result.Replaced, bs[n:])
	n += boolMUS.Marshal(v.Result.Found, bs[n:])
	return n + timeMUS.Marshal(v.InsertedAt, bs[n:])
}

func (resultRecordMUS) Unmarshal(bs []byte) (v core.ResultRecord, n int, err error) {
	d := decoder{bs: bs}
	v.Id = decode(&d, IDMUS)
	v.Strategy = decode(&d, stringMUS)
	v.Evaluator = decode(&d, stringMUS)
	v.Dataset = decode(&d, stringMUS)
	v.L = decode(&d, intMUS)
	v.K = decode(&d, intMUS)
	v.R = decode(&d, intMUS)
	v.Result.Support = decode(&d, CandidatesMUS)
	v.Result.Approvals = decode(&d, ApprovalsMUS)
	v.Result.Value = decode(&d, intMUS)
	v.Result.Winners = decode(&d, CandidatesMUS)
	v.Result.Replaced = decode(&d, intMUS)
	v.Result.Found = decode(&d, boolMUS)
	v.InsertedAt = decode(&d, timeMUS)

	if len(v.Result.Support) == 0 {
		v.Result.Support = nil
	}
	if len(v.Result.Approvals) == 0 {
		v.Result.Approvals = nil
	}
	if len(v.Result.Winners) == 0 {
		v.Result.Winners = nil
	}
	return v, d.n, d.err
}

func (resultRecordMUS) Size(v core.ResultRecord) int {
	return IDMUS.Size(v.Id) +
		stringMUS.Size(v.Strategy) +
		stringMUS.Size(v.Evaluator) +
		stringMUS.Size(v.Dataset) +
		intMUS.Size(v.L) +
		intMUS.Size(v.K) +
		intMUS.Size(v.R) +
		CandidatesMUS.Size(v.Result.Support) +
		ApprovalsMUS.Size(v.Result.Approvals) +
		intMUS.Size(v.Result.Value) +
		CandidatesMUS.Size(v.Result.Winners) +
		intMUS.Size(v.Result.Replaced) +
		boolMUS.Size(v.Result.Found) +
		timeMUS.Size(v.InsertedAt)
}

func (resultRecordMUS) Skip(bs []byte) (int, error) {
	return skipAll(bs,
		IDMUS.Skip, stringMUS.Skip, stringMUS.Skip, stringMUS.Skip,
		intMUS.Skip, intMUS.Skip, intMUS.Skip,
		CandidatesMUS.Skip, ApprovalsMUS.Skip, intMUS.Skip,
		CandidatesMUS.Skip, intMUS.Skip, boolMUS.Skip, timeMUS.Skip)
}

type checkpointMUS struct{}

func (checkpointMUS) Marshal(v core.Checkpoint, bs []byte) (n int) {
	n = stringMUS.Marshal(v.Experiment, bs)
	n += intMUS.Marshal(v.Completed, bs[n:])
	return n + timeMUS.Marshal(v.UpdatedAt, bs[n:])
}

func (checkpointMUS) Unmarshal(bs []byte) (v core.Checkpoint, n int, err error) {
	d := decoder{bs: bs}
	v.Experiment = decode(&d, stringMUS)
	v.Completed = decode(&d, intMUS)
	v.UpdatedAt = decode(&d, timeMUS)
	return v, d.n, d.err
}

func (checkpointMUS) Size(v core.Checkpoint) int {
	return stringMUS.Size(v.Experiment) + intMUS.Size(v.Completed) + timeMUS.Size(v.UpdatedAt)
}

func (checkpointMUS) Skip(bs []byte) (int, error) {
	return skipAll(bs, stringMUS.Skip, intMUS.Skip, timeMUS.Skip)
}

// decoder tracks the read offset across fields and keeps the first error.
type decoder struct {
	bs  []byte
	n   int
	err error
}

func decode[T any](d *decoder, ser mus.Serializer[T]) (v T) {
	if d.err != nil {
		return v
	}
	v, n, err := ser.Unmarshal(d.bs[d.n:])
	d.n += n
	d.err = err
	return v
}

func skipAll(bs []byte, skips ...func([]byte) (int, error)) (n int, err error) {
	for _, skip := range skips {
		var n1 int
		n1, err = skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}
