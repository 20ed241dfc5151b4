// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bzip2

import (
	"bytes"
	"compress/bzip2"
	"errors"
	"io"
	"io/ioutil"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dsnet/pbzip2/internal/testutil"
)

// decode runs buf through the standard library's bzip2 reader, the only
// decoder available to this module (see spec §1's "Out of scope" list).
func decode(t *testing.T, buf []byte) []byte {
	t.Helper()
	out, err := ioutil.ReadAll(bzip2.NewReader(bytes.NewReader(buf)))
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return out
}

// TestRoundTrip exercises P1 (round trip) at compression levels 1, 6 and 9
// and a range of worker counts, using synthetic inputs so the test has no
// dependency on fixture files.
func TestRoundTrip(t *testing.T) {
	vectors := []struct {
		name  string
		input []byte
	}{
		{"empty", nil},
		{"oneByte", []byte{0x00}},
		{"zeros", make([]byte, 1<<18)},
		{"random", testutil.NewRand(1).Bytes(1 << 18)},
		{"text", bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog\n"), 1<<12)},
		{"runStreaks", runStreaks(1 << 18)},
	}

	for _, v := range vectors {
		for _, level := range []int{1, 6, 9} {
			for _, workers := range []int{0, 1, 4} {
				v, level, workers := v, level, workers
				t.Run(v.name, func(t *testing.T) {
					var buf bytes.Buffer
					wr, err := NewWriter(&buf, &WriterConfig{Level: level, Workers: workers})
					if err != nil {
						t.Fatalf("NewWriter error: %v", err)
					}
					n, err := io.Copy(wr, bytes.NewReader(v.input))
					if err != nil {
						t.Fatalf("Write error: %v", err)
					}
					if n != int64(len(v.input)) {
						t.Fatalf("write count mismatch: got %d, want %d", n, len(v.input))
					}
					if err := wr.Close(); err != nil {
						t.Fatalf("Close error: %v", err)
					}
					if got := decode(t, buf.Bytes()); !bytes.Equal(got, v.input) {
						t.Errorf("round-trip data mismatch (-got +want):\n%s", cmp.Diff(got, v.input))
					}
				})
			}
		}
	}
}

// runStreaks produces input heavy in runs long enough to repeatedly
// exercise RLE1's count-byte saturation path (spec §4.D).
func runStreaks(n int) []byte {
	r := testutil.NewRand(2)
	buf := make([]byte, 0, n)
	for len(buf) < n {
		b := byte(r.Intn(4))
		run := 1 + r.Intn(300)
		for i := 0; i < run && len(buf) < n; i++ {
			buf = append(buf, b)
		}
	}
	return buf
}

// TestDeterminism exercises P2: compressing identical input at the same
// level through sequential, 1-worker, and N-worker drivers must produce
// byte-identical output, since block boundaries are a pure function of
// read_block_size, not of the scheduler.
func TestDeterminism(t *testing.T) {
	const level = 9
	input := testutil.NewRand(3).Bytes(5 * readBlockSize(level)) // several blocks' worth

	var want []byte
	for i, workers := range []int{0, 1, 2, 8, 16} {
		var buf bytes.Buffer
		wr, err := NewWriter(&buf, &WriterConfig{Level: level, Workers: workers})
		if err != nil {
			t.Fatalf("workers=%d: NewWriter error: %v", workers, err)
		}
		if _, err := wr.Write(input); err != nil {
			t.Fatalf("workers=%d: Write error: %v", workers, err)
		}
		if err := wr.Close(); err != nil {
			t.Fatalf("workers=%d: Close error: %v", workers, err)
		}
		if i == 0 {
			want = buf.Bytes()
			continue
		}
		if !bytes.Equal(buf.Bytes(), want) {
			t.Errorf("workers=%d: output differs from sequential baseline", workers)
		}
	}
}

// TestCompressStream exercises the pull-mode entry point of spec §6.
func TestCompressStream(t *testing.T) {
	input := testutil.NewRand(4).Bytes(3 * readBlockSize(9))
	var buf bytes.Buffer
	result, err := CompressStream(bytes.NewReader(input), &buf, 9, 4)
	if err != nil {
		t.Fatalf("CompressStream error: %v", err)
	}
	if result.BytesRead != int64(len(input)) {
		t.Errorf("BytesRead mismatch: got %d, want %d", result.BytesRead, len(input))
	}
	if result.BytesWritten != int64(buf.Len()) {
		t.Errorf("BytesWritten mismatch: got %d, want %d", result.BytesWritten, buf.Len())
	}
	if result.BlockCount != 3 {
		t.Errorf("BlockCount mismatch: got %d, want 3", result.BlockCount)
	}
	if result.StreamCRC == 0 {
		t.Errorf("StreamCRC: got 0, want a nonzero fold of %d blocks' CRCs", result.BlockCount)
	}
	if got := decode(t, buf.Bytes()); !bytes.Equal(got, input) {
		t.Errorf("CompressStream round-trip mismatch (-got +want):\n%s", cmp.Diff(got, input))
	}
}

// TestEmptyStream exercises S4: an empty input still produces a complete,
// valid 14-byte stream (4-byte header, no blocks, 10-byte footer).
func TestEmptyStream(t *testing.T) {
	var buf bytes.Buffer
	wr, err := NewWriter(&buf, nil)
	if err != nil {
		t.Fatalf("NewWriter error: %v", err)
	}
	if err := wr.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if buf.Len() != 14 {
		t.Errorf("empty-stream length: got %d, want 14", buf.Len())
	}
	if got := decode(t, buf.Bytes()); len(got) != 0 {
		t.Errorf("empty-stream decode: got %d bytes, want 0", len(got))
	}
}

// TestCRCKnownAnswers checks updateCRC against the two known-answer
// vectors of spec §8 (KA1, KA2).
func TestCRCKnownAnswers(t *testing.T) {
	vectors := []struct {
		name string
		data []byte
		want uint32
	}{
		{"KA1", []byte{
			0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A,
			0xF1, 0xF2, 0xF3, 0xF4, 0xF5, 0xF6, 0xF7, 0xF8, 0xF9, 0xFA,
		}, 0x8AEE127A},
		{"KA2", bytes.Repeat([]byte{0x55}, 10), 0xA1E07747},
	}
	for _, v := range vectors {
		if got := updateCRC(0, v.data); got != v.want {
			t.Errorf("%s: got 0x%08X, want 0x%08X", v.name, got, v.want)
		}
	}
}

// TestWriterClosedAfterClose verifies that once the Writer has been closed,
// a second Close succeeds (Close is idempotent) and Write returns ErrClosed.
func TestWriterClosedAfterClose(t *testing.T) {
	var buf bytes.Buffer
	wr, err := NewWriter(&buf, nil)
	if err != nil {
		t.Fatalf("NewWriter error: %v", err)
	}
	if err := wr.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := wr.Close(); err != nil {
		t.Errorf("second Close: got %v, want nil (idempotent)", err)
	}
	if _, err := wr.Write([]byte("x")); err != ErrClosed {
		t.Errorf("Write after Close: got %v, want ErrClosed", err)
	}
}

// TestFlushUnsupported verifies spec §4.I: Flush never succeeds, in
// either driver mode.
func TestFlushUnsupported(t *testing.T) {
	for _, workers := range []int{0, 2} {
		var buf bytes.Buffer
		wr, err := NewWriter(&buf, &WriterConfig{Level: 9, Workers: workers})
		if err != nil {
			t.Fatalf("workers=%d: NewWriter error: %v", workers, err)
		}
		if err := wr.Flush(); err != ErrUnsupported {
			t.Errorf("workers=%d: Flush: got %v, want ErrUnsupported", workers, err)
		}
		wr.Close()
	}
}

// TestWriteError verifies that once the underlying writer starts failing,
// Close surfaces that failure instead of silently producing a truncated
// stream, in both the sequential and parallel drivers.
func TestWriteError(t *testing.T) {
	wantErr := errors.New("bitwriter_test: injected write failure")
	for _, workers := range []int{0, 2} {
		var buf bytes.Buffer
		bw := &testutil.BuggyWriter{W: &buf, N: 2, Err: wantErr}
		wr, err := NewWriter(bw, &WriterConfig{Level: 9, Workers: workers})
		if err != nil {
			t.Fatalf("workers=%d: NewWriter error: %v", workers, err)
		}
		if _, err := wr.Write(testutil.NewRand(5).Bytes(1 << 16)); err != nil {
			t.Fatalf("workers=%d: Write error: %v", workers, err)
		}
		if err := wr.Close(); err == nil {
			t.Errorf("workers=%d: Close: got nil error, want non-nil", workers)
		}
	}
}
