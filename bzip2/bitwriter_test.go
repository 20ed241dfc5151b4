// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bzip2

import (
	"bytes"
	"io"
	"testing"

	"github.com/dsnet/pbzip2/internal/testutil"
)

// TestBitWriter checks the exact byte sequence bitWriter produces against
// hand-authored BitGen vectors in bzip2's big-endian bit-packing order.
func TestBitWriter(t *testing.T) {
	vectors := []struct {
		name string
		fn   func(bw *bitWriter)
		want string
	}{
		{
			name: "singleByte",
			fn:   func(bw *bitWriter) { bw.WriteBits(8, 0xa5) },
			want: ">>> >H8:a5",
		},
		{
			name: "unalignedBits",
			fn: func(bw *bitWriter) {
				bw.WriteBits(3, 0x5)  // 101
				bw.WriteBits(5, 0x1a) // 11010
			},
			want: ">>> >101 >11010",
		},
		{
			name: "bool",
			fn: func(bw *bitWriter) {
				bw.WriteBool(true)
				bw.WriteBool(false)
				bw.WriteBool(true)
				bw.WriteBool(true)
				bw.WriteBool(false)
			},
			want: ">>> >1 >0 >1 >1 >0",
		},
		{
			name: "unary",
			fn: func(bw *bitWriter) {
				bw.WriteUnary(3) // 1110
				bw.WriteUnary(0) // 0
			},
			want: ">>> >1110 >0",
		},
		{
			name: "uint32",
			fn:   func(bw *bitWriter) { bw.WriteUint32(0x12345678) },
			want: ">>> >H32:12345678",
		},
		{
			name: "magicBits",
			fn:   func(bw *bitWriter) { writeWideBits(bw, magicBits, blkMagic) },
			want: ">>> >H48:314159265359",
		},
	}

	for _, v := range vectors {
		v := v
		t.Run(v.name, func(t *testing.T) {
			var buf bytes.Buffer
			bw := new(bitWriter)
			bw.Init(&buf)
			v.fn(bw)
			if err := bw.Flush(); err != nil {
				t.Fatalf("Flush error: %v", err)
			}
			want := testutil.MustDecodeBitGen(v.want)
			if !bytes.Equal(buf.Bytes(), want) {
				t.Errorf("got %x, want %x", buf.Bytes(), want)
			}
		})
	}
}

// TestBitWriterErr verifies that once the underlying writer fails, every
// subsequent write is a silent no-op and Err keeps reporting the failure.
func TestBitWriterErr(t *testing.T) {
	bw := new(bitWriter)
	bw.Init(failingWriter{})
	bw.WriteBits(8, 0xff)
	if err := bw.Flush(); err == nil {
		t.Fatal("Flush: got nil error, want non-nil")
	}
	if bw.Err() == nil {
		t.Fatal("Err: got nil, want non-nil")
	}
	bw.WriteBits(8, 0xff) // must not panic
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, io.ErrClosedPipe }
