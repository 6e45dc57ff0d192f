package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/maniplib/core"
)

// Key prefixes for different data types
const (
	datasetPrefix    = "dataset"
	resultPrefix     = "result"
	resultDatePrefix = "resultd"
	checkpointPrefix = "chkpt"
)

// makeDatasetKey generates a key for a dataset by URL.
func makeDatasetKey(url string) []byte {
	return []byte(datasetPrefix + ":" + url)
}

// makeResultKey generates a key for a result by ID.
func makeResultKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", resultPrefix, id))
}

// makeResultDateKey generates a composite key for the insertion date index.
// Format: prefix:timestamp:id
func makeResultDateKey(timestamp time.Time, id core.ID) []byte {
	prefix := []byte(resultDatePrefix + ":")
	buf := make([]byte, len(prefix)+16) // 8 bytes for timestamp + 8 bytes for ID
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialResultDateKey generates a partial key for date range queries.
// Format: prefix:timestamp
func makePartialResultDateKey(timestamp time.Time) []byte {
	prefix := []byte(resultDatePrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	return buf
}

// makeCheckpointKey generates a key for experiment checkpoints.
func makeCheckpointKey(experiment string) []byte {
	return []byte(checkpointPrefix + ":" + experiment)
}
