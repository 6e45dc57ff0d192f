// Package bloc implements the l-Bloc multiwinner voting rule and the
// evaluation functions used to judge a winning group from the manipulators'
// point of view.
//
// Under l-Bloc every voter approves the candidates ranked at position l or
// better. The k candidates with the most approvals win; ties are broken
// lexicographically in favor of the smaller candidate index.
package bloc
