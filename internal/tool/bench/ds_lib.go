// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// +build !no_ds_lib

package bench

import (
	"io"

	"github.com/dsnet/pbzip2/bzip2"
)

func init() {
	RegisterEncoder(FormatBZ2, "ds",
		func(w io.Writer, lvl int) io.WriteCloser {
			zw, err := bzip2.NewWriterLevel(w, lvl)
			if err != nil {
				panic(err)
			}
			return zw
		})
}
