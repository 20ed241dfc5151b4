// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bzip2

import "io"

// bitWriter is the real bit sink of spec §4.A: it accumulates bits
// MSB-first into bytes, collects the bytes in a 4096-byte buffer, and
// writes that buffer to an underlying io.Writer whenever it fills up and
// on Flush.
type bitWriter struct {
	w   io.Writer
	err error

	buf  [4096]byte
	n    int  // Valid bytes in buf
	acc  uint64
	nacc uint // Number of valid bits in acc, always < 8 after a call returns
}

func (bw *bitWriter) Init(w io.Writer) {
	*bw = bitWriter{w: w}
}

// WriteBits packs the low width bits of v, MSB-first, width in [1,24].
func (bw *bitWriter) WriteBits(width uint, v uint32) {
	if bw.err != nil {
		return
	}
	bw.acc = bw.acc<<width | uint64(v)&(uint64(1)<<width-1)
	bw.nacc += width
	for bw.nacc >= 8 {
		bw.nacc -= 8
		bw.putByte(byte(bw.acc >> bw.nacc))
	}
}

func (bw *bitWriter) WriteBool(b bool) {
	if b {
		bw.WriteBits(1, 1)
	} else {
		bw.WriteBits(1, 0)
	}
}

// WriteUnary emits n one-bits followed by a terminating zero-bit.
func (bw *bitWriter) WriteUnary(n uint) {
	for ; n >= 8; n -= 8 {
		bw.WriteBits(8, 0xff)
	}
	bw.WriteBits(n+1, uint32(1<<n-1)<<1)
}

// WriteUint32 emits v as two 16-bit big-endian halves, per spec §4.A.
func (bw *bitWriter) WriteUint32(v uint32) {
	bw.WriteBits(16, v>>16)
	bw.WriteBits(16, v&0xffff)
}

// Flush pads the current byte with zero bits and writes it, then flushes
// the underlying buffered output.
func (bw *bitWriter) Flush() error {
	if bw.nacc > 0 {
		bw.putByte(byte(bw.acc << (8 - bw.nacc)))
		bw.nacc = 0
	}
	bw.flushBuf()
	return bw.err
}

// Err reports the first error encountered writing to the underlying
// io.Writer, if any.
func (bw *bitWriter) Err() error { return bw.err }

func (bw *bitWriter) putByte(b byte) {
	if bw.n == len(bw.buf) {
		bw.flushBuf()
	}
	bw.buf[bw.n] = b
	bw.n++
}

func (bw *bitWriter) flushBuf() {
	if bw.err != nil || bw.n == 0 {
		bw.n = 0
		return
	}
	_, err := bw.w.Write(bw.buf[:bw.n])
	if err != nil {
		bw.err = err
	}
	bw.n = 0
}
