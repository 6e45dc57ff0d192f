package preflib

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/poiesic/maniplib/core"
)

// Write serializes a profile in the legacy layout. Identical ballots are
// collapsed into one order line with a count, in order of first appearance.
func Write(w io.Writer, profile *core.Profile) error {
	var (
		keys   []string
		counts = make(map[string]int)
	)
	for _, b := range profile.Ballots {
		key := formatOrder(b)
		if _, seen := counts[key]; !seen {
			keys = append(keys, key)
		}
		counts[key]++
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n", profile.NumCandidates())
	for _, c := range profile.CandidateList() {
		fmt.Fprintf(bw, "%d,%s\n", c, profile.Candidates[c])
	}
	fmt.Fprintf(bw, "%d,%d,%d\n", profile.NumVoters(), profile.NumVoters(), len(keys))
	for _, key := range keys {
		fmt.Fprintf(bw, "%d,%s\n", counts[key], key)
	}
	return bw.Flush()
}

func formatOrder(b core.Ballot) string {
	var sb strings.Builder
	for i, group := range b.Order() {
		if i > 0 {
			sb.WriteByte(',')
		}
		if len(group) > 1 {
			sb.WriteByte('{')
		}
		for j, c := range group {
			if j > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Itoa(int(c)))
		}
		if len(group) > 1 {
			sb.WriteByte('}')
		}
	}
	return sb.String()
}
