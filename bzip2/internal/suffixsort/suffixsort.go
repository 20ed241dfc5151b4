// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package suffixsort implements a suffix array construction algorithm
// suitable for computing the Burrows-Wheeler Transform.
//
// This uses the Manber-Myers prefix-doubling algorithm, which runs in
// O(n log^2 n) time: O(log n) passes, each of which sorts n rank pairs.
// It has none of SA-IS's linear-time guarantee, but is considerably
// simpler to implement correctly, and bzip2 block sizes are small enough
// (at most 900,000 symbols) that the difference is immaterial.
//
// References:
//	U. Manber and G. Myers, "Suffix arrays: a new method for on-line
//	string searches", 1993.
package suffixsort

import "sort"

// ComputeSA computes the suffix array of T and places the result in SA.
// Both T and SA must be the same length.
func ComputeSA(T []byte, SA []int) {
	n := len(T)
	if len(SA) != n {
		panic("mismatching sizes")
	}
	if n == 0 {
		return
	}

	rank := make([]int, n)
	next := make([]int, n)
	for i, b := range T {
		SA[i] = i
		rank[i] = int(b)
	}

	rankAt := func(i, k int) int {
		if i+k < n {
			return rank[i+k]
		}
		return -1
	}
	less := func(a, b, k int) bool {
		if rank[a] != rank[b] {
			return rank[a] < rank[b]
		}
		return rankAt(a, k) < rankAt(b, k)
	}

	for k := 1; ; k *= 2 {
		sort.Slice(SA, func(i, j int) bool { return less(SA[i], SA[j], k) })

		next[SA[0]] = 0
		for i := 1; i < n; i++ {
			next[SA[i]] = next[SA[i-1]]
			if less(SA[i-1], SA[i], k) {
				next[SA[i]]++
			}
		}
		copy(rank, next)

		if rank[SA[n-1]] == n-1 || k >= n {
			break
		}
	}
}
