// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bzip2

// bitSink is satisfied by both the real and the deferred bit writer, so
// the block compressor can target either one identically: the sequential
// driver hands it a *bitWriter, a parallel worker a *deferredBitWriter.
type bitSink interface {
	WriteBits(width uint, v uint32)
	WriteBool(b bool)
	WriteUnary(n uint)
	WriteUint32(v uint32)
	Flush() error
}

// writeWideBits emits the low width bits of v, MSB-first, for widths
// beyond WriteBits' 24-bit limit (the block and end-of-stream magics need
// 48 bits). It simply splits v into 24-bit chunks from the top down.
func writeWideBits(s bitSink, width uint, v uint64) {
	for width > 24 {
		width -= 24
		s.WriteBits(24, uint32(v>>width)&0xffffff)
	}
	s.WriteBits(width, uint32(v)&(uint32(1)<<width-1))
}

// blockCompressor implements the per-block pipeline of spec §4.E: bytes
// absorbed via Write are fed through RLE1 into a fixed-capacity symbol
// buffer; CloseBlock runs BWT, MTF+RLE2, Huffman table selection, and bit
// emission, in that order, against whatever bitSink the caller supplies.
type blockCompressor struct {
	rle runLengthEncoding
	u   []byte // Backing store for rle's destination; post-RLE1 symbols
	crc uint32 // Running CRC32 over the raw (pre-RLE1) bytes written so far
	raw int    // Count of raw (pre-RLE1) bytes written so far

	bwt burrowsWheelerTransform
	mtf moveToFront
}

// Init (re)configures the compressor for blocks no larger than the
// compress_block_size implied by level, per spec §3.
func (bc *blockCompressor) Init(level int) {
	n := compressBlockSize(level)
	if cap(bc.u) < n {
		bc.u = make([]byte, n)
	}
	bc.Reset()
}

// Reset starts a fresh block, reusing the backing buffer.
func (bc *blockCompressor) Reset() {
	// Reserve one slot per spec §4.D so the post-RLE1 symbol count never
	// reaches the full compress_block_size.
	bc.rle.Init(bc.u[:len(bc.u)-1])
	bc.crc = 0
	bc.raw = 0
}

// Write absorbs as many raw bytes as fit, returning rleDone once the
// block is full; see runLengthEncoding.Write. This is a capacity
// backstop: the caller is expected to seal the block once Raw reaches
// read_block_size, which fills the post-RLE1 symbol buffer first only for
// input made entirely of runs of exactly four identical bytes.
func (bc *blockCompressor) Write(p []byte) (n int, err error) {
	n, err = bc.rle.Write(p)
	bc.crc = updateCRC(bc.crc, p[:n])
	bc.raw += n
	return n, err
}

// Len reports the number of post-RLE1 symbols absorbed so far.
func (bc *blockCompressor) Len() int { return len(bc.rle.Bytes()) }

// Raw reports the number of raw (pre-RLE1) bytes absorbed so far — the
// value a caller compares against read_block_size to decide when a block
// is full, per spec §4.G.
func (bc *blockCompressor) Raw() int { return bc.raw }

// CRC returns the CRC32 of the raw bytes written so far, per spec
// §4.E.1. This is the value to fold into the block header and the
// running stream CRC.
func (bc *blockCompressor) CRC() uint32 { return bc.crc }

// CloseBlock runs the remainder of the pipeline and emits the finished
// block to sink, in the bit order of spec §4.E.7. It is a no-op (and
// returns false) if no bytes were ever written to this block.
func (bc *blockCompressor) CloseBlock(sink bitSink) bool {
	u := bc.rle.Bytes()
	if len(u) == 0 {
		return false
	}

	var inUse [256]bool
	for _, b := range u {
		inUse[b] = true
	}
	dict := make([]byte, 0, 256)
	for b := 0; b < 256; b++ {
		if inUse[b] {
			dict = append(dict, byte(b))
		}
	}
	k := len(dict)
	alphaSize := k + 2
	eob := uint16(k + 1)

	ptr := bc.bwt.Encode(u)

	bc.mtf.Init(dict)
	idxs, runs := bc.mtf.Encode(u)

	mtfSyms := make([]uint16, 0, len(idxs)+1)
	ri := 0
	for _, idx := range idxs {
		if idx == 0 {
			r := runs[ri]
			ri++
			packed := runCode(r).Encode()
			n := int(packed & 0x1f)
			for i := 0; i < n; i++ {
				mtfSyms = append(mtfSyms, uint16((packed>>uint(5+i))&1))
			}
		} else {
			mtfSyms = append(mtfSyms, uint16(idx)+1)
		}
	}
	mtfSyms = append(mtfSyms, eob)

	groups := make([][]uint16, 0, (len(mtfSyms)+groupSize-1)/groupSize)
	for off := 0; off < len(mtfSyms); off += groupSize {
		end := off + groupSize
		if end > len(mtfSyms) {
			end = len(mtfSyms)
		}
		groups = append(groups, mtfSyms[off:end])
	}
	numTables := numHuffmanTables(len(mtfSyms))
	selectors, tables := selectHuffmanTables(groups, alphaSize, numTables)

	writeWideBits(sink, magicBits, blkMagic)
	sink.WriteUint32(bc.crc)
	sink.WriteBool(false) // Randomized flag: deprecated, always 0.
	sink.WriteBits(24, uint32(ptr))

	var bigMap uint16
	var groupMaps [16]uint16
	for g := 0; g < 16; g++ {
		for s := 0; s < 16; s++ {
			if inUse[g*16+s] {
				bigMap |= 1 << uint(15-g)
				groupMaps[g] |= 1 << uint(15-s)
			}
		}
	}
	sink.WriteBits(16, uint32(bigMap))
	for g := 0; g < 16; g++ {
		if bigMap&(1<<uint(15-g)) != 0 {
			sink.WriteBits(16, uint32(groupMaps[g]))
		}
	}

	sink.WriteBits(3, uint32(numTables))
	sink.WriteBits(15, uint32(len(groups)))

	selDict := make([]uint8, numTables)
	for i := range selDict {
		selDict[i] = uint8(i)
	}
	for _, sel := range selectors {
		rank := 0
		for selDict[rank] != sel {
			rank++
		}
		sink.WriteUnary(uint(rank))
		copy(selDict[1:rank+1], selDict[:rank])
		selDict[0] = sel
	}

	for t := 0; t < numTables; t++ {
		lens := tables[t].lens
		curr := int(lens[0])
		sink.WriteBits(5, uint32(curr))
		for _, l := range lens {
			target := int(l)
			for curr != target {
				if curr < target {
					sink.WriteBits(2, 0x2) // continue-bit, then "increment"
					curr++
				} else {
					sink.WriteBits(2, 0x3) // continue-bit, then "decrement"
					curr--
				}
			}
			sink.WriteBool(false)
		}
	}

	for gi, g := range groups {
		t := selectors[gi]
		for _, sym := range g {
			sink.WriteBits(uint(tables[t].lens[sym]), uint32(tables[t].codes[sym]))
		}
	}
	return true
}

// compressBlockSize returns 100_000*level, the hard upper bound on the
// number of post-RLE1 symbols fed to the BWT for one block.
func compressBlockSize(level int) int { return baseBlockSize * level }

// readBlockSize returns 80_000*level, the max raw input bytes read per
// block; chosen so RLE1 expansion never overflows compressBlockSize.
func readBlockSize(level int) int { return baseReadSize * level }
