// Package sampling implements the victim-selection rule for approximate-LRU
// eviction: sample a small, fixed number of resident entries and evict the
// one with the lowest recency tick, falling back to an exhaustive scan when
// the shard is too small for sampling to be worthwhile.
//
// The package owns only the *decision* (how many candidates to look at, and
// whether to look at all of them); the shard that holds the actual entries
// drives the iteration, since map[K]*entry indirection can't be expressed
// generically here without an allocation per eviction.
package sampling

// Plan is the sampling strategy for one eviction decision against a shard
// holding n resident entries.
type Plan struct {
	// ScanAll is true when the shard is small enough that sampling gives no
	// accuracy benefit over an exhaustive scan for the true minimum.
	ScanAll bool
	// K is the number of candidates to examine. Equal to n when ScanAll.
	K int
}

// New computes the sampling plan for n resident entries and the configured
// sample size, per the approximate-LRU rule: scan everything when n is
// within two of the sample size (sampling buys nothing there), otherwise
// examine exactly k candidates and evict the minimum-recency one among them.
//
// sampleSize <= 0 is treated as "no sampling benefit," forcing a full scan.
func New(n, sampleSize int) Plan {
	if n <= 0 {
		return Plan{ScanAll: true, K: 0}
	}
	k := sampleSize
	if k <= 0 || k > n {
		k = n
	}
	if n <= k+2 {
		return Plan{ScanAll: true, K: n}
	}
	return Plan{ScanAll: false, K: k}
}
