// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bzip2

import "io"

// WriterConfig configures a Writer. Level and Workers are both clamped
// into their valid ranges; a zero-value WriterConfig (or a nil one passed
// to NewWriter) selects the maximum compression level on the sequential
// driver.
type WriterConfig struct {
	Level   int // [1,9]; 0 defaults to 9
	Workers int // [0,128]; 0 selects the sequential driver
}

// Writer compresses data written to it in the bzip2 format and writes the
// compressed bytes to an underlying io.Writer. Close must be called to
// flush the final block and the stream footer; until then the underlying
// writer will not have received the complete stream.
//
// A Writer must not be used concurrently by multiple goroutines; Workers
// in its WriterConfig controls how many goroutines are used internally to
// compress blocks, not how many goroutines may call Write.
type Writer struct {
	cw     countingWriter
	bw     bitWriter
	level  int
	closed bool
	err    error

	seq *blockCompressor // sequential driver; nil when par is in use
	par *parallelWriter  // parallel orchestrator; nil when seq is in use

	streamCRC  uint32
	blockCount int
}

// countingWriter tallies the number of bytes that pass through it,
// letting Writer report BytesWritten without changing bitWriter itself.
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// NewWriter returns a new Writer writing the bzip2 format to w. A nil
// conf is equivalent to &WriterConfig{Level: 9}.
func NewWriter(w io.Writer, conf *WriterConfig) (*Writer, error) {
	level, workers := maxLevel, 0
	if conf != nil {
		level, workers = conf.Level, conf.Workers
		if level == 0 {
			level = maxLevel
		}
	}
	level = clampLevel(level)
	workers = clampWorkers(workers)

	bw := &Writer{level: level}
	bw.cw.w = w
	bw.bw.Init(&bw.cw)
	if err := bw.writeHeader(); err != nil {
		return nil, err
	}
	if workers > 0 {
		bw.par = newParallelWriter(&bw.bw, level, workers)
	} else {
		bw.seq = new(blockCompressor)
		bw.seq.Init(level)
	}
	return bw, nil
}

// NewWriterLevel is a convenience wrapper equivalent to
// NewWriter(w, &WriterConfig{Level: level}).
func NewWriterLevel(w io.Writer, level int) (*Writer, error) {
	return NewWriter(w, &WriterConfig{Level: level})
}

func (bw *Writer) writeHeader() error {
	bw.bw.WriteBits(8, 'B')
	bw.bw.WriteBits(8, 'Z')
	bw.bw.WriteBits(8, 'h')
	bw.bw.WriteBits(8, uint32('0'+bw.level))
	return bw.bw.Err()
}

// Write implements io.Writer, compressing p.
func (bw *Writer) Write(p []byte) (n int, err error) {
	if bw.closed {
		return 0, ErrClosed
	}
	if bw.err != nil {
		return 0, bw.err
	}
	if bw.par != nil {
		n, err = bw.par.Write(p)
	} else {
		n, err = bw.writeSequential(p)
	}
	if err != nil {
		bw.err = err
	}
	return n, err
}

// WriteByte implements io.ByteWriter.
func (bw *Writer) WriteByte(c byte) error {
	_, err := bw.Write([]byte{c})
	return err
}

// writeSequential drives a single blockCompressor directly, per spec
// §4.G: raw bytes are absorbed up to read_block_size(level), at which
// point the block is closed and written to the real sink before the next
// one starts — matching the parallel driver, which caps pw.cur at the
// same read_block_size. The RLE1 symbol buffer filling first (rleDone) is
// a capacity backstop that seals the block early; for a read-sized chunk
// it triggers only when the chunk consists entirely of runs of exactly
// four identical bytes, whose RLE1 form needs one symbol more than the
// buffer holds.
func (bw *Writer) writeSequential(p []byte) (n int, err error) {
	for len(p) > 0 {
		chunk := p
		if limit := readBlockSize(bw.level) - bw.seq.Raw(); len(chunk) > limit {
			chunk = chunk[:limit]
		}
		m, werr := bw.seq.Write(chunk)
		n += m
		p = p[m:]
		switch {
		case werr != nil && werr != rleDone:
			return n, werr
		case werr == rleDone || bw.seq.Raw() >= readBlockSize(bw.level):
			if err := bw.sealSequentialBlock(); err != nil {
				return n, err
			}
			bw.seq.Reset()
		}
	}
	return n, nil
}

func (bw *Writer) sealSequentialBlock() error {
	if bw.seq.Len() == 0 {
		return nil
	}
	crc := bw.seq.CRC()
	if !bw.seq.CloseBlock(&bw.bw) {
		return nil
	}
	bw.streamCRC = foldStreamCRC(bw.streamCRC, crc)
	bw.blockCount++
	return bw.bw.Err()
}

// Flush is unsupported: bzip2 blocks are not byte-aligned to each other,
// so there is no point in the bitstream where padding can be inserted
// without corrupting the next block's magic-number alignment. Callers
// that need the stream durably written must Close the Writer instead,
// per spec §4.I.
func (bw *Writer) Flush() error {
	return ErrUnsupported
}

// Close flushes the final partial block (if any), writes the stream
// footer, and flushes the underlying writer. Close is idempotent.
func (bw *Writer) Close() error {
	if bw.closed {
		return nil
	}
	bw.closed = true
	if bw.err != nil {
		return bw.err
	}

	if bw.par != nil {
		crc, err := bw.par.Close()
		bw.streamCRC = crc
		bw.blockCount = bw.par.nextOutputID
		if err != nil {
			bw.err = err
			return err
		}
	} else {
		if err := bw.sealSequentialBlock(); err != nil {
			bw.err = err
			return err
		}
	}

	writeWideBits(&bw.bw, magicBits, endMagic)
	bw.bw.WriteUint32(bw.streamCRC)
	if err := bw.bw.Flush(); err != nil {
		bw.err = err
		return err
	}
	return nil
}

// Result reports summary statistics for a one-shot CompressStream call.
type Result struct {
	BytesRead    int64
	BytesWritten int64
	StreamCRC    uint32
	BlockCount   int
}

// result assembles a Result from the Writer's final state, after Close
// has run (or attempted to).
func (bw *Writer) result(n int64) Result {
	return Result{
		BytesRead:    n,
		BytesWritten: bw.cw.n,
		StreamCRC:    bw.streamCRC,
		BlockCount:   bw.blockCount,
	}
}

// CompressStream implements the pull-mode entry point of spec §6: all
// workers are spawned up front (rather than lazily, as Write does),
// input is read from r until EOF, and the finished bzip2 stream is
// written to w.
func CompressStream(r io.Reader, w io.Writer, level, workers int) (Result, error) {
	bw, err := NewWriter(w, &WriterConfig{Level: level, Workers: workers})
	if err != nil {
		return Result{}, err
	}
	if bw.par != nil {
		bw.par.spawnAllWorkers()
	}
	n, err := io.Copy(bw, r)
	if err != nil {
		bw.Close()
		return bw.result(n), err
	}
	if err := bw.Close(); err != nil {
		return bw.result(n), err
	}
	return bw.result(n), nil
}
