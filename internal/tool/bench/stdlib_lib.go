// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// +build !no_std_lib

package bench

import (
	stdbz2 "compress/bzip2"
	stdflate "compress/flate"
	"io"
)

// nopCloseReader adapts a bare io.Reader (the standard library's bzip2
// reader has no Close method) to the Decoder signature.
type nopCloseReader struct{ io.Reader }

func (nopCloseReader) Close() error { return nil }

func init() {
	RegisterEncoder(FormatFlate, "std",
		func(w io.Writer, lvl int) io.WriteCloser {
			zw, err := stdflate.NewWriter(w, lvl)
			if err != nil {
				panic(err)
			}
			return zw
		})
	RegisterDecoder(FormatFlate, "std",
		func(r io.Reader) io.ReadCloser {
			return stdflate.NewReader(r)
		})
	RegisterDecoder(FormatBZ2, "std",
		func(r io.Reader) io.ReadCloser {
			return nopCloseReader{stdbz2.NewReader(r)}
		})
}
