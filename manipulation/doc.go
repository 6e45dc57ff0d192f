// Package manipulation defines the shared vocabulary of the manipulation
// strategies: the Problem they solve, the Strategy interface they implement and
// the Runner that evaluates their independent search iterations on a worker pool.
//
// A strategy enumerates candidate manipulations (one per iteration of its outer
// search loop), and the Runner keeps the iteration with the highest evaluation.
// Iterations whose value does not exceed zero are never selected, and on equal
// values the earliest iteration wins, so results are deterministic regardless
// of scheduling.
package manipulation
