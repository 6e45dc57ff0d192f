// Package experiment runs batches of manipulation searches described in YAML.
//
// A configuration lists runs. Each run names a dataset (a PrefLib URL or a
// local file) or a generated culture, and the strategies, evaluators and l, k
// and r values to sweep. Every combination is repeated as often as the run
// asks; repetitions only differ when the coalition is sampled at random.
//
//	name: bloc-sweep
//	seed: 7
//	runs:
//	  - dataset: https://www.preflib.org/static/data/irish/00001-00000001.soi
//	    strategies: [consistent, knapsack]
//	    evaluators: [utilitarian, egalitarian]
//	    l: [1, 2]
//	    k: [2]
//	    r: [3, 5]
//	    utility: borda-random
//	    repeat: 10
//
// Datasets are fetched concurrently before any search starts. Searches run one
// after another, each using the strategy's own worker pool, and report
// progress as they complete. A checkpoint records how many runs finished.
package experiment
