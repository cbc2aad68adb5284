// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

package registry

// Pair is one resolved algorithm/dataset combination to benchmark.
type Pair struct {
	Algorithm Algorithm
	Dataset   Dataset
}

// Resolve produces the ordered benchmark pairs: datasets outer,
// algorithms inner, both in registration order. Pairs whose algorithm
// declares itself incompatible with the dataset are silently excluded.
//
// The optional filters restrict the resolution to the named components;
// an empty filter admits everything. Filter names that match nothing are
// simply inert, matching the behavior of an empty registry subset.
func (r *Registry) Resolve(datasetFilter, algorithmFilter []string) []Pair {
	dsAllow := allowSet(datasetFilter)
	algAllow := allowSet(algorithmFilter)

	var pairs []Pair
	for _, ds := range r.datasets {
		if dsAllow != nil && !dsAllow[ds.Name()] {
			continue
		}
		info := ds.Info()
		for _, alg := range r.algorithms {
			if algAllow != nil && !algAllow[alg.Name()] {
				continue
			}
			if !alg.Compatible(info) {
				continue
			}
			pairs = append(pairs, Pair{Algorithm: alg, Dataset: ds})
		}
	}
	return pairs
}

func allowSet(names []string) map[string]bool {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
