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

import "errors"

// Domain validation errors
var (
	// ErrInvalidProfile indicates a Profile failed validation.
	ErrInvalidProfile = errors.New("invalid profile")

	// ErrNoCandidates indicates a profile without candidates.
	ErrNoCandidates = errors.New("profile has no candidates")

	// ErrNoBallots indicates a profile without ballots.
	ErrNoBallots = errors.New("profile has no ballots")

	// ErrUnknownCandidate indicates a ballot ranks a candidate missing from the candidate map.
	ErrUnknownCandidate = errors.New("unknown candidate")

	// ErrInvalidRank indicates a rank below 1.
	ErrInvalidRank = errors.New("rank must be at least 1")

	// ErrInvalidUtilities indicates Utilities failed validation.
	ErrInvalidUtilities = errors.New("invalid utilities")

	// ErrNoManipulators indicates utilities without manipulators.
	ErrNoManipulators = errors.New("at least one manipulator is required")

	// ErrTooManyManipulators indicates more manipulators than voters.
	ErrTooManyManipulators = errors.New("more manipulators than voters")

	// ErrNegativeUtility indicates a utility value below zero.
	ErrNegativeUtility = errors.New("utility cannot be negative")

	// ErrInvalidParameter indicates an election parameter is out of range.
	ErrInvalidParameter = errors.New("invalid parameter")
)
