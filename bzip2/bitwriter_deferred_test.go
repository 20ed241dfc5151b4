// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bzip2

import (
	"bytes"
	"testing"
)

// TestDeferredBitWriterReplay checks that the 0xff-run batching in
// WriteUnary is purely an in-memory optimization: recording the same
// sequence of bit operations through a deferredBitWriter and replaying it
// must produce bytes identical to issuing those operations directly
// against a real bitWriter.
func TestDeferredBitWriterReplay(t *testing.T) {
	ops := func(s bitSink) {
		s.WriteBits(8, 0xa5)
		s.WriteUnary(23) // spans two full 8-bit batched runs plus a remainder
		s.WriteBool(true)
		s.WriteUnary(7) // one bit short of a full batched run
		s.WriteBool(false)
		s.WriteUnary(0)
		s.WriteUint32(0xdeadbeef)
		s.WriteBits(3, 0x5)
		s.WriteUnary(16) // exactly two full batched runs, no remainder
	}

	var direct bytes.Buffer
	bw := new(bitWriter)
	bw.Init(&direct)
	ops(bw)
	if err := bw.Flush(); err != nil {
		t.Fatalf("direct Flush error: %v", err)
	}

	dw := new(deferredBitWriter)
	dw.Init()
	ops(dw)
	dw.SetBlockCRC(0x12345678)

	var replayed bytes.Buffer
	real := new(bitWriter)
	real.Init(&replayed)
	if crc := dw.Replay(real); crc != 0x12345678 {
		t.Errorf("Replay block CRC: got %#x, want %#x", crc, 0x12345678)
	}
	if err := real.Flush(); err != nil {
		t.Fatalf("replayed Flush error: %v", err)
	}

	if !bytes.Equal(replayed.Bytes(), direct.Bytes()) {
		t.Errorf("deferred replay mismatch:\n got  %x\n want %x", replayed.Bytes(), direct.Bytes())
	}
}
