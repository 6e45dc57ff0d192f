// Package preflib reads and writes elections in the PrefLib data format and
// fetches them over HTTP.
//
// Two layouts are understood. The legacy layout starts with the number of
// candidates, one "index,name" line per candidate and a
// "voters,count sum,unique orders" line, followed by one "count,order" line per
// distinct order. The PrefLib 2 layout carries the metadata in "#" header
// lines ("# ALTERNATIVE NAME 1: name") and writes orders as "count: order".
// In both, an order lists candidates from most to least preferred and braces
// group tied candidates: "1,{2,3},4" ranks 2 and 3 second and 4 third.
package preflib

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/poiesic/maniplib/core"
)

// Election is a parsed election file: distinct orders with their counts.
type Election struct {
	Candidates map[core.Candidate]string
	Orders     []core.Ballot
	Counts     []int
	// NumVoters is the number of voters declared by the file, or the sum of
	// the counts when the file does not declare it.
	NumVoters int
}

// Profile expands the election into one ballot per voter.
func (e *Election) Profile() *core.Profile {
	return &core.Profile{Candidates: e.Candidates, Ballots: Expand(e.Orders, e.Counts)}
}

// Expand repeats every order as often as its count says. Repeated ballots share
// the same map.
func Expand(orders []core.Ballot, counts []int) []core.Ballot {
	total := 0
	for i := range min(len(orders), len(counts)) {
		total += counts[i]
	}
	ballots := make([]core.Ballot, 0, total)
	for i := range min(len(orders), len(counts)) {
		for range counts[i] {
			ballots = append(ballots, orders[i])
		}
	}
	return ballots
}

// ReadFile parses the election file at path into a profile.
func ReadFile(path string) (*core.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Read(bytes.NewReader(data))
}

// Read parses an election and expands it into a profile.
func Read(r io.Reader) (*core.Profile, error) {
	e, err := Parse(r)
	if err != nil {
		return nil, err
	}
	p := e.Profile()
	if err := core.ValidateProfile(p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return p, nil
}

// Parse reads an election in either layout.
func Parse(r io.Reader) (*Election, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if strings.HasPrefix(l, "#") {
			return parseModern(lines)
		}
		break
	}
	return parseLegacy(lines)
}

func parseLegacy(lines []string) (*Election, error) {
	e := &Election{Candidates: make(map[core.Candidate]string)}
	i := 0
	next := func() (string, int, bool) {
		for i < len(lines) {
			l := strings.TrimSpace(lines[i])
			i++
			if l != "" {
				return l, i, true
			}
		}
		return "", i, false
	}

	l, n, ok := next()
	if !ok {
		return nil, fmt.Errorf("%w: empty input", ErrMalformed)
	}
	m, err := strconv.Atoi(l)
	if err != nil || m < 1 {
		return nil, malformed(n, "candidate count %q", l)
	}

	for range m {
		l, n, ok = next()
		if !ok {
			return nil, malformed(n, "expected %d candidates", m)
		}
		idx, name, found := strings.Cut(l, ",")
		if !found {
			return nil, malformed(n, "candidate line %q", l)
		}
		c, err := strconv.Atoi(strings.TrimSpace(idx))
		if err != nil {
			return nil, malformed(n, "candidate index %q", idx)
		}
		e.Candidates[core.Candidate(c)] = strings.TrimSpace(name)
	}

	l, n, ok = next()
	if !ok {
		return nil, malformed(n, "missing voter summary")
	}
	summary := strings.Split(l, ",")
	if len(summary) != 3 {
		return nil, malformed(n, "voter summary %q", l)
	}
	if e.NumVoters, err = strconv.Atoi(strings.TrimSpace(summary[0])); err != nil {
		return nil, malformed(n, "voter count %q", summary[0])
	}

	for {
		l, n, ok = next()
		if !ok {
			break
		}
		count, order, found := strings.Cut(l, ",")
		if !found {
			return nil, malformed(n, "order line %q", l)
		}
		if err := e.addOrder(n, count, order); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func parseModern(lines []string) (*Election, error) {
	e := &Election{Candidates: make(map[core.Candidate]string)}
	declared := -1

	for i, raw := range lines {
		n := i + 1
		l := strings.TrimSpace(raw)
		if l == "" {
			continue
		}
		if strings.HasPrefix(l, "#") {
			key, value, found := strings.Cut(strings.TrimSpace(l[1:]), ":")
			if !found {
				continue
			}
			key, value = strings.TrimSpace(key), strings.TrimSpace(value)
			switch {
			case strings.HasPrefix(key, "ALTERNATIVE NAME"):
				c, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(key, "ALTERNATIVE NAME")))
				if err != nil {
					return nil, malformed(n, "alternative header %q", l)
				}
				e.Candidates[core.Candidate(c)] = value
			case key == "NUMBER VOTERS":
				v, err := strconv.Atoi(value)
				if err != nil {
					return nil, malformed(n, "voter count %q", value)
				}
				declared = v
			}
			continue
		}

		count, order, found := strings.Cut(l, ":")
		if !found {
			return nil, malformed(n, "order line %q", l)
		}
		if err := e.addOrder(n, count, order); err != nil {
			return nil, err
		}
	}

	if declared >= 0 {
		e.NumVoters = declared
	} else {
		for _, c := range e.Counts {
			e.NumVoters += c
		}
	}
	return e, nil
}

func (e *Election) addOrder(n int, count, order string) error {
	c, err := strconv.Atoi(strings.TrimSpace(count))
	if err != nil || c < 0 {
		return malformed(n, "order count %q", count)
	}
	ballot, err := parseOrder(order)
	if err != nil {
		return malformed(n, "%v", err)
	}
	e.Orders = append(e.Orders, ballot)
	e.Counts = append(e.Counts, c)
	return nil
}

// parseOrder turns "1,{2,3},4" into a ballot with dense ranks.
func parseOrder(s string) (core.Ballot, error) {
	ballot := make(core.Ballot)
	rank := 0
	inGroup := false
	var tok strings.Builder

	flush := func() error {
		t := strings.TrimSpace(tok.String())
		tok.Reset()
		if t == "" {
			return nil
		}
		c, err := strconv.Atoi(t)
		if err != nil {
			return fmt.Errorf("candidate %q", t)
		}
		if _, dup := ballot[core.Candidate(c)]; dup {
			return fmt.Errorf("candidate %d ranked twice", c)
		}
		if !inGroup {
			rank++
		}
		ballot[core.Candidate(c)] = rank
		return nil
	}

	for _, ch := range s {
		switch ch {
		case '{':
			if inGroup {
				return nil, fmt.Errorf("nested tie group in %q", s)
			}
			if err := flush(); err != nil {
				return nil, err
			}
			inGroup = true
			rank++
		case '}':
			if !inGroup {
				return nil, fmt.Errorf("unbalanced tie group in %q", s)
			}
			if err := flush(); err != nil {
				return nil, err
			}
			inGroup = false
		case ',':
			if err := flush(); err != nil {
				return nil, err
			}
		default:
			tok.WriteRune(ch)
		}
	}
	if inGroup {
		return nil, fmt.Errorf("unterminated tie group in %q", s)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return ballot, nil
}
