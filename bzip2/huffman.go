// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bzip2

import "sort"

// huffmanTable holds a canonical prefix code for one of a block's Huffman
// tables: lens[s] is the bit length assigned to symbol s, and codes[s] is
// its canonical code, left-justified in the low lens[s] bits.
type huffmanTable struct {
	lens  []uint8
	codes []uint32
}

// buildCanonicalCodes assigns canonical codes to a set of symbol lengths:
// symbols are ordered by (length, value), codes increment within a length
// and shift left by one whenever the length grows, per spec §4.E.6.
func buildCanonicalCodes(lens []uint8) []uint32 {
	n := len(lens)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		if lens[order[i]] != lens[order[j]] {
			return lens[order[i]] < lens[order[j]]
		}
		return order[i] < order[j]
	})

	codes := make([]uint32, n)
	var code uint32
	var curLen uint8
	for _, sym := range order {
		if lens[sym] == 0 {
			continue
		}
		for curLen < lens[sym] {
			code <<= 1
			curLen++
		}
		codes[sym] = code
		code++
	}
	return codes
}

// numHuffmanTables picks T per spec §4.E.5's symbol-count thresholds.
func numHuffmanTables(numSyms int) int {
	switch {
	case numSyms <= 200:
		return 2
	case numSyms <= 600:
		return 3
	case numSyms <= 1200:
		return 4
	case numSyms <= 2400:
		return 5
	default:
		return 6
	}
}

// buildLengths computes prefix-free code lengths minimizing sum(freq[i] *
// len[i]) subject to len[i] <= maxLen, using the package-merge (coin
// collector) algorithm. Symbols with zero frequency are nudged to a
// frequency of 1 first, matching the reference bzip2 behavior of never
// leaving a symbol with a literal zero weight.
func buildLengths(freq []int32, maxLen int) []uint8 {
	n := len(freq)
	lens := make([]uint8, n)
	if n == 0 {
		return lens
	}
	if n == 1 {
		lens[0] = 1
		return lens
	}

	w := make([]int64, n)
	for i, f := range freq {
		if f <= 0 {
			w[i] = 1
		} else {
			w[i] = int64(f)
		}
	}

	type pmItem struct {
		weight      int64
		sym         int // >=0 for a leaf, -1 for a package
		left, right int // indices into the previous level's list, if a package
	}
	var items []pmItem

	leaves := make([]int, n)
	for i := 0; i < n; i++ {
		items = append(items, pmItem{weight: w[i], sym: i})
		leaves[i] = i
	}
	sort.SliceStable(leaves, func(a, b int) bool { return w[leaves[a]] < w[leaves[b]] })

	merge := func(a, b []int) []int {
		out := make([]int, 0, len(a)+len(b))
		i, j := 0, 0
		for i < len(a) && j < len(b) {
			if items[a[i]].weight <= items[b[j]].weight {
				out = append(out, a[i])
				i++
			} else {
				out = append(out, b[j])
				j++
			}
		}
		out = append(out, a[i:]...)
		out = append(out, b[j:]...)
		return out
	}

	level := leaves
	for d := 2; d <= maxLen; d++ {
		var packages []int
		for i := 0; i+1 < len(level); i += 2 {
			a, b := level[i], level[i+1]
			idx := len(items)
			items = append(items, pmItem{weight: items[a].weight + items[b].weight, sym: -1, left: a, right: b})
			packages = append(packages, idx)
		}
		level = merge(leaves, packages)
	}

	want := 2*n - 2
	if want > len(level) {
		want = len(level)
	}

	var count func(idx int)
	count = func(idx int) {
		it := items[idx]
		if it.sym >= 0 {
			lens[it.sym]++
			return
		}
		count(it.left)
		count(it.right)
	}
	for _, idx := range level[:want] {
		count(idx)
	}
	for i := range lens {
		if lens[i] == 0 {
			lens[i] = uint8(maxLen)
		}
	}
	return lens
}

// selectHuffmanTables implements spec §4.E.5: it partitions the MTF/RLE2
// symbol stream (already split into 50-symbol groups) across numTables
// tables, refining the assignment for refineIters passes, and returns the
// per-group selector and the finished tables.
func selectHuffmanTables(groups [][]uint16, alphaSize, numTables int) (selectors []uint8, tables []huffmanTable) {
	tables = make([]huffmanTable, numTables)

	// Seed tables by partitioning the overall symbol histogram into
	// numTables equal-weight slices ordered by symbol value: symbols
	// inside a table's slice start at length 0 (most likely), symbols
	// outside start at length 15 (least likely), just enough to break
	// ties deterministically before the first refinement pass recomputes
	// real lengths from actual group assignments.
	var totalFreq [maxNumSyms]int64
	for _, g := range groups {
		for _, s := range g {
			totalFreq[s]++
		}
	}
	var totalWeight int64
	for _, f := range totalFreq[:alphaSize] {
		totalWeight += f
	}
	for t := range tables {
		tables[t].lens = make([]uint8, alphaSize)
	}
	{
		var acc int64
		slice := 0
		thresh := totalWeight * int64(slice+1) / int64(numTables)
		for sym := 0; sym < alphaSize; sym++ {
			for acc > thresh && slice < numTables-1 {
				slice++
				thresh = totalWeight * int64(slice+1) / int64(numTables)
			}
			for t := range tables {
				if t == slice {
					tables[t].lens[sym] = 0
				} else {
					tables[t].lens[sym] = 15
				}
			}
			acc += totalFreq[sym]
		}
	}

	selectors = make([]uint8, len(groups))
	for iter := 0; iter < refineIters; iter++ {
		var groupFreq [maxNumTrees][maxNumSyms]int32
		for gi, g := range groups {
			best, bestCost := 0, -1
			for t := 0; t < numTables; t++ {
				var cost int
				for _, s := range g {
					cost += int(tables[t].lens[s])
				}
				if bestCost < 0 || cost < bestCost {
					best, bestCost = t, cost
				}
			}
			selectors[gi] = uint8(best)
			for _, s := range g {
				groupFreq[best][s]++
			}
		}
		for t := 0; t < numTables; t++ {
			tables[t].lens = buildLengths(groupFreq[t][:alphaSize], maxCodeLen)
		}
	}

	for t := range tables {
		tables[t].codes = buildCanonicalCodes(tables[t].lens)
	}
	return selectors, tables
}
