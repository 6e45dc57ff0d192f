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


package core

import "fmt"

// ValidateProfile validates a Profile according to domain rules.
//
// Validation rules:
//   - At least one candidate
//   - Candidate indices run from 1 to the number of candidates
//   - Every ranked candidate exists and every rank is at least 1
//
// NOT validated:
//   - Ballot count (a profile with every voter removed is still usable)
//   - Completeness of ballots (partial orders are allowed)
func ValidateProfile(profile *Profile) error {
	if profile == nil {
		return fmt.Errorf("%w: profile is nil", ErrInvalidProfile)
	}

	m := profile.NumCandidates()
	if m == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, ErrNoCandidates)
	}
	for c := 1; c <= m; c++ {
		if _, ok := profile.Candidates[Candidate(c)]; !ok {
			return fmt.Errorf("%w: candidate indices must be 1..%d, missing %d", ErrInvalidProfile, m, c)
		}
	}

	for i, ballot := range profile.Ballots {
		for c, rank := range ballot {
			if _, ok := profile.Candidates[c]; !ok {
				return fmt.Errorf("%w: ballot %d: %w %d", ErrInvalidProfile, i, ErrUnknownCandidate, c)
			}
			if rank < 1 {
				return fmt.Errorf("%w: ballot %d: %w", ErrInvalidProfile, i, ErrInvalidRank)
			}
		}
	}

	return nil
}

// ValidateUtilities checks that utilities cover m candidates with one
// non-negative value per manipulator.
func ValidateUtilities(u *Utilities, m int) error {
	if u == nil {
		return fmt.Errorf("%w: utilities are nil", ErrInvalidUtilities)
	}
	r := u.NumManipulators()
	if r == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidUtilities, ErrNoManipulators)
	}
	if len(u.Values) != m {
		return fmt.Errorf("%w: expected %d candidates, got %d", ErrInvalidUtilities, m, len(u.Values))
	}
	for c, row := range u.Values {
		if len(row) != r {
			return fmt.Errorf("%w: candidate %d has %d values for %d manipulators", ErrInvalidUtilities, c+1, len(row), r)
		}
		for _, v := range row {
			if v < 0 {
				return fmt.Errorf("%w: candidate %d: %w", ErrInvalidUtilities, c+1, ErrNegativeUtility)
			}
		}
	}
	return nil
}

// ValidateParameters checks the l-Bloc parameter l and the committee size k
// against the number of candidates m.
func ValidateParameters(l, k, m int) error {
	if l < 1 || l > m {
		return fmt.Errorf("%w: l must be between 1 and %d, got %d", ErrInvalidParameter, m, l)
	}
	if k < 1 || k > m {
		return fmt.Errorf("%w: k must be between 1 and %d, got %d", ErrInvalidParameter, m, k)
	}
	return nil
}
