package preflib

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/maniplib/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyElection = `3
1,Alice
2,Bob
3,Carol
5,5,3
2,1,2,3
2,2,{1,3}
1,3,1
`

const modernElection = `# FILE NAME: 00001-00000001.soi
# DATA TYPE: soi
# NUMBER ALTERNATIVES: 3
# NUMBER VOTERS: 5
# ALTERNATIVE NAME 1: Alice
# ALTERNATIVE NAME 2: Bob
# ALTERNATIVE NAME 3: Carol
2: 1,2,3
2: 2,{1,3}
1: 3,1
`

func TestParse_Legacy(t *testing.T) {
	e, err := Parse(strings.NewReader(legacyElection))
	require.NoError(t, err)

	assert.Equal(t, map[core.Candidate]string{1: "Alice", 2: "Bob", 3: "Carol"}, e.Candidates)
	assert.Equal(t, 5, e.NumVoters)
	assert.Equal(t, []int{2, 2, 1}, e.Counts)
	require.Len(t, e.Orders, 3)
	assert.Equal(t, core.Ballot{1: 1, 2: 2, 3: 3}, e.Orders[0])
	assert.Equal(t, core.Ballot{2: 1, 1: 2, 3: 2}, e.Orders[1])
	assert.Equal(t, core.Ballot{3: 1, 1: 2}, e.Orders[2])
}

func TestParse_Modern(t *testing.T) {
	modern, err := Parse(strings.NewReader(modernElection))
	require.NoError(t, err)
	legacy, err := Parse(strings.NewReader(legacyElection))
	require.NoError(t, err)

	assert.Equal(t, legacy.Candidates, modern.Candidates)
	assert.Equal(t, legacy.Orders, modern.Orders)
	assert.Equal(t, legacy.Counts, modern.Counts)
	assert.Equal(t, 5, modern.NumVoters)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"bad candidate count", "x\n"},
		{"missing candidates", "3\n1,a\n"},
		{"bad summary", "1\n1,a\n1,1\n"},
		{"bad count", "1\n1,a\n1,1,1\nx,1\n"},
		{"unbalanced group", "2\n1,a\n2,b\n1,1,1\n1,{1,2\n"},
		{"duplicate candidate", "2\n1,a\n2,b\n1,1,1\n1,1,1\n"},
		{"modern order without colon", "# ALTERNATIVE NAME 1: a\n1,1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestRead_ExpandsAndValidates(t *testing.T) {
	p, err := Read(strings.NewReader(legacyElection))
	require.NoError(t, err)
	assert.Equal(t, 5, p.NumVoters())
	assert.Equal(t, 3, p.NumCandidates())
	assert.Equal(t, core.Ballot{3: 1, 1: 2}, p.Ballots[4])

	_, err = Read(strings.NewReader("1\n1,a\n1,1,1\n1,2\n"))
	assert.ErrorIs(t, err, ErrMalformed)
	assert.ErrorIs(t, err, core.ErrUnknownCandidate)
}

func TestExpand(t *testing.T) {
	a := core.Ballot{1: 1}
	b := core.Ballot{2: 1}
	got := Expand([]core.Ballot{a, b}, []int{2, 1})
	assert.Equal(t, []core.Ballot{a, a, b}, got)
	assert.Empty(t, Expand(nil, nil))
}

func TestWriteRoundTrip(t *testing.T) {
	p, err := Read(strings.NewReader(legacyElection))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, p))
	assert.Equal(t, legacyElection, buf.String())

	path := filepath.Join(t.TempDir(), "e.soi")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	again, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, p.Ballots, again.Ballots)
	assert.Equal(t, p.Candidates, again.Candidates)
}
