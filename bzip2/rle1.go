// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bzip2

import "io"

// rleDone is returned by runLengthEncoding.Write once the destination
// buffer cannot accept any more bytes. It is not a "real" error; callers
// use it exactly like io.EOF to know when to seal a block.
var rleDone error = Error("run-length buffer is full")

// runLengthEncoding implements the RLE1 pass described in spec §4.D: any
// run of 4 or more identical bytes is written as the 4 literal bytes
// followed by a count byte holding the number of additional repeats
// beyond those 4, in [0, 251]. A run that reaches 255 total repeats (the
// count byte saturating at 251) is closed and a fresh run starts on the
// next repeat, so no single count byte ever needs to exceed its range.
//
// The same type also implements the inverse expansion (used only by
// tests here, since full decompression is out of scope), so a Write/Read
// pair can validate that a block survives an RLE1 round-trip on its own,
// independent of BWT/MTF/Huffman.
type runLengthEncoding struct {
	buf []byte // Destination (Init for encoding) or source (Init for decoding)
	pos int    // Number of bytes written into buf, or consumed out of it

	lastByte byte // Most recently seen/emitted literal byte value
	runLen   int  // Length of the run of lastByte built up so far (restarts at 1 when the count byte saturates)
	haveLast bool

	// Decoder-only state: a count byte has been consumed after 4 literal
	// repeats of lastByte, and this many extra copies remain to emit.
	pending int
}

// Init resets the encoder to write into buf, or the decoder to read out of
// buf, depending on which of Write or Read is used afterwards.
func (rle *runLengthEncoding) Init(buf []byte) {
	*rle = runLengthEncoding{buf: buf}
}

// Bytes returns the portion of buf filled in by Write so far.
func (rle *runLengthEncoding) Bytes() []byte { return rle.buf[:rle.pos] }

// Write absorbs as much of p as fits in the destination buffer, returning
// rleDone (alongside a short count) once the buffer is full. Like
// io.Writer, it may legitimately accept fewer bytes than len(p); callers
// must loop (or use io.Copy, which does so automatically).
func (rle *runLengthEncoding) Write(p []byte) (n int, err error) {
	for _, b := range p {
		nextRun := 1
		if rle.haveLast && b == rle.lastByte {
			nextRun = rle.runLen + 1
		}

		switch {
		case nextRun <= 3:
			if rle.pos >= len(rle.buf) {
				return n, rleDone
			}
			rle.buf[rle.pos] = b
			rle.pos++
			rle.lastByte, rle.runLen, rle.haveLast = b, nextRun, true

		case nextRun == 4:
			// The run has just reached the mandatory threshold: the 4th
			// literal copy and its (provisionally zero) count byte are
			// emitted together, since the format requires both once a
			// run this long is ever seen.
			if len(rle.buf)-rle.pos < 2 {
				return n, rleDone
			}
			rle.buf[rle.pos] = b
			rle.buf[rle.pos+1] = 0
			rle.pos += 2
			rle.lastByte, rle.runLen, rle.haveLast = b, nextRun, true

		default: // nextRun >= 5: extend the run by bumping the count byte in place.
			cnt := int(rle.buf[rle.pos-1])
			if cnt == 251 {
				// Counter is saturated; this repeat starts a fresh run.
				if rle.pos >= len(rle.buf) {
					return n, rleDone
				}
				rle.buf[rle.pos] = b
				rle.pos++
				rle.runLen = 1
			} else {
				rle.buf[rle.pos-1] = byte(cnt + 1)
				rle.runLen = nextRun
			}
		}
		n++
	}
	return n, nil
}

// Read expands a previously-encoded buffer back into its original bytes.
// A run is reconstructed by counting 4 consecutive equal literal bytes and
// then, if one more byte remains in the source, treating it unconditionally
// as the count of additional repeats to emit (however large it claims to
// be: like the rest of this package, Read trusts its input).
func (rle *runLengthEncoding) Read(p []byte) (n int, err error) {
	for n < len(p) {
		if rle.pending > 0 {
			p[n] = rle.lastByte
			rle.pending--
			n++
			continue
		}
		if rle.pos >= len(rle.buf) {
			return n, io.EOF
		}

		b := rle.buf[rle.pos]
		rle.pos++

		if rle.haveLast && b == rle.lastByte {
			rle.runLen++
		} else {
			rle.lastByte, rle.runLen, rle.haveLast = b, 1, true
		}

		if rle.runLen == 4 && rle.pos < len(rle.buf) {
			rle.pending = int(rle.buf[rle.pos])
			rle.pos++
			rle.runLen = 0
			rle.haveLast = false
		}

		p[n] = b
		n++
	}
	return n, nil
}
