// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bzip2

// deferredRecord is one (width, value) entry of a deferred bit log, per
// spec §4.B. width is in [1,24] except for the batched-unary optimization
// below, which packs up to 8 one-bits into a single width-8 record.
type deferredRecord struct {
	width uint
	value uint32
}

// deferredBitWriter implements the deferred bit sink of spec §4.B: workers
// record bit operations into this private, append-only log instead of
// writing to a shared byte-aligned sink, since bzip2 blocks aren't
// byte-aligned to each other. The coordinator later Replays the log, in
// block order, into the real bitWriter.
type deferredBitWriter struct {
	records  []deferredRecord
	blockCRC uint32
}

func (dw *deferredBitWriter) Init() {
	dw.records = dw.records[:0]
}

func (dw *deferredBitWriter) WriteBits(width uint, v uint32) {
	dw.records = append(dw.records, deferredRecord{width, v})
}

func (dw *deferredBitWriter) WriteBool(b bool) {
	if b {
		dw.WriteBits(1, 1)
	} else {
		dw.WriteBits(1, 0)
	}
}

// WriteUnary records n one-bits followed by a terminating zero-bit. Full
// groups of 8 ones are batched into a single 0xff record; per spec §4.B
// this is purely cosmetic (it shrinks the log) and must replay identically
// to emitting the bits one at a time, since the real sink only ever sees
// (width, value) pairs.
func (dw *deferredBitWriter) WriteUnary(n uint) {
	for ; n >= 8; n -= 8 {
		dw.WriteBits(8, 0xff)
	}
	dw.WriteBits(n+1, uint32(1<<n-1)<<1)
}

func (dw *deferredBitWriter) WriteUint32(v uint32) {
	dw.WriteBits(16, v>>16)
	dw.WriteBits(16, v&0xffff)
}

// Flush is a no-op on the deferred sink; only the real sink pads to a byte
// boundary, and only once, at the very end of the stream.
func (dw *deferredBitWriter) Flush() error { return nil }

// SetBlockCRC records the CRC32 of this block's original, pre-RLE1 bytes,
// computed by the block compressor just before handoff.
func (dw *deferredBitWriter) SetBlockCRC(crc uint32) { dw.blockCRC = crc }

// Replay writes every recorded bit operation, in order, into the real
// sink, then returns the block's CRC for the coordinator to fold into the
// running stream CRC.
func (dw *deferredBitWriter) Replay(real *bitWriter) uint32 {
	for _, r := range dw.records {
		real.WriteBits(r.width, r.value)
	}
	return dw.blockCRC
}
