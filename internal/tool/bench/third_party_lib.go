// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// +build !no_third_party_lib

package bench

import (
	"io"

	kflate "github.com/klauspost/compress/flate"
	"github.com/ulikunitz/xz"
)

func init() {
	RegisterEncoder(FormatFlate, "klauspost",
		func(w io.Writer, lvl int) io.WriteCloser {
			zw, err := kflate.NewWriter(w, lvl)
			if err != nil {
				panic(err)
			}
			return zw
		})
	RegisterDecoder(FormatFlate, "klauspost",
		func(r io.Reader) io.ReadCloser {
			return kflate.NewReader(r)
		})

	// The xz format has no notion of a numeric compression level; lvl is
	// ignored here, unlike every other registered codec.
	RegisterEncoder(FormatXZ, "xz",
		func(w io.Writer, lvl int) io.WriteCloser {
			zw, err := xz.NewWriter(w)
			if err != nil {
				panic(err)
			}
			return zw
		})
	RegisterDecoder(FormatXZ, "xz",
		func(r io.Reader) io.ReadCloser {
			zr, err := xz.NewReader(r)
			if err != nil {
				panic(err)
			}
			return nopCloseReader{zr}
		})
}
