// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bzip2

// The Burrows-Wheeler Transform sorts the full-length cyclic rotations of
// a block and reports the last column of the sorted rotation matrix
// together with the row index of the original string. This implementation
// derives that sort order from a suffix array of the block concatenated
// with itself, using the relationship between suffix arrays and BWTs: a
// rotation starting at i corresponds to the suffix of buf+buf starting at
// i, truncated to len(buf). Ties between identical rotations are broken by
// the suffix array's own (consistent, if arbitrary) ordering; the inverse
// transform below works for any consistent sort order, so no particular
// tie-breaking rule needs to be replicated at decode time.
//
// References:
//	https://en.wikipedia.org/wiki/Burrows%E2%80%93Wheeler_transform
//	M. Burrows and D. Wheeler, "A Block-sorting Lossless Data Compression
//	Algorithm", 1994.

import "github.com/dsnet/pbzip2/bzip2/internal/suffixsort"

// burrowsWheelerTransform implements the forward and inverse BWT used by
// the block compressor.
type burrowsWheelerTransform struct {
	t  []byte
	sa []int
}

// Encode computes the BWT of buf in place and returns the origin pointer.
// It returns -1 for an empty block.
func (bwt *burrowsWheelerTransform) Encode(buf []byte) (ptr int) {
	n := len(buf)
	if n == 0 {
		return -1
	}

	if cap(bwt.t) < 2*n {
		bwt.t = make([]byte, 2*n)
		bwt.sa = make([]int, 2*n)
	}
	t := bwt.t[:2*n]
	sa := bwt.sa[:2*n]
	copy(t, buf)
	copy(t[n:], buf)

	suffixsort.ComputeSA(t, sa)

	for i, j := 0, 0; i < 2*n; i++ {
		if idx := sa[i]; idx < n {
			if idx == 0 {
				ptr = j
				idx = n
			}
			buf[j] = t[idx-1]
			j++
		}
	}
	return ptr
}

// Decode reverses Encode in place, given the origin pointer produced by it.
func (bwt *burrowsWheelerTransform) Decode(buf []byte, ptr int) {
	if len(buf) == 0 {
		return
	}

	var c [256]int
	for _, v := range buf {
		c[v]++
	}

	var sum int
	for i, v := range c {
		sum += v
		c[i] = sum - v
	}

	tt := make([]int, len(buf))
	for i := range buf {
		b := buf[i]
		tt[c[b]] = i
		c[b]++
	}

	buf2 := make([]byte, len(buf))
	tPos := tt[ptr]
	for i := range tt {
		buf2[i] = buf[tPos]
		tPos = tt[tPos]
	}
	copy(buf, buf2)
}
