// Copyright 2016, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bench

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/dsnet/pbzip2/internal/testutil"
)

// TestCodecs tests that the output of each registered encoder is a valid
// input for each registered decoder sharing the same format. It runs in
// O(n^2) in the number of codecs registered per format, which stays small.
func TestCodecs(t *testing.T) {
	vectors := []struct {
		name string
		data []byte
	}{
		{"zeros", make([]byte, 1<<16)},
		{"random", testutil.NewRand(1).Bytes(1 << 16)},
		{"text", bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog\n"), 1<<12)},
	}
	for _, v := range vectors {
		v := v
		t.Run(v.name, func(t *testing.T) { testFormats(t, v.data) })
	}
}

func testFormats(t *testing.T, dd []byte) {
	for _, ft := range []int{FormatFlate, FormatBZ2, FormatXZ, FormatBrotli} {
		ft := ft
		if len(Encoders[ft]) == 0 || len(Decoders[ft]) == 0 {
			continue // No encoder/decoder pair registered for this format.
		}
		t.Run(fmt.Sprintf("Format:%d", ft), func(t *testing.T) { testEncoders(t, ft, dd) })
	}
}

func testEncoders(t *testing.T, ft int, dd []byte) {
	const level = 6 // Default compression on all encoders
	for encName, enc := range Encoders[ft] {
		encName, enc := encName, enc
		t.Run(fmt.Sprintf("Encoder:%s", encName), func(t *testing.T) {
			be := new(bytes.Buffer)
			zw := enc(be, level)
			if _, err := io.Copy(zw, bytes.NewReader(dd)); err != nil {
				t.Fatalf("unexpected Write error: %v", err)
			}
			if err := zw.Close(); err != nil {
				t.Fatalf("unexpected Close error: %v", err)
			}
			testDecoders(t, ft, dd, be.Bytes())
		})
	}
}

func testDecoders(t *testing.T, ft int, dd, de []byte) {
	for decName, dec := range Decoders[ft] {
		decName, dec := decName, dec
		t.Run(fmt.Sprintf("Decoder:%s", decName), func(t *testing.T) {
			bd := new(bytes.Buffer)
			zr := dec(bytes.NewReader(de))
			if _, err := io.Copy(bd, zr); err != nil {
				t.Fatalf("unexpected Read error: %v", err)
			}
			if err := zr.Close(); err != nil {
				t.Fatalf("unexpected Close error: %v", err)
			}
			if !bytes.Equal(bd.Bytes(), dd) {
				t.Error("data mismatch")
			}
		})
	}
}
