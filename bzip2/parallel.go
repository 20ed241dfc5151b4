// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bzip2

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// pendingBlock is one raw, not-yet-compressed block waiting in the queue.
type pendingBlock struct {
	id   int
	data []byte
}

// encodedBlock is one finished block waiting for its turn to be replayed
// into the real bit sink, keyed by id in parallelWriter.encoded.
type encodedBlock struct {
	crc uint32
	log *deferredBitWriter
}

// parallelWriter implements the parallel orchestrator of spec §4.H. The
// coordinator is whichever goroutine calls Write or Close; there is no
// separate coordinator goroutine. Workers pull raw blocks off the pending
// queue, compress them independently into private deferred bit logs, and
// deposit the results into an id-keyed map; the coordinator replays
// finished blocks into the real sink strictly in block-id order,
// regardless of the order in which workers finish.
type parallelWriter struct {
	level    int
	nWorkers int
	real     *bitWriter

	mu           sync.Mutex
	cond         *sync.Cond // guards/signaled with mu
	queue        []pendingBlock
	inFlight     int // blocks dequeued by a worker but not yet in encoded
	encoded      map[int]encodedBlock
	nextInputID  int
	nextOutputID int
	doneReading  bool

	workersMu     sync.Mutex
	spawned       int
	activeWorkers int32

	eg     *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc

	streamCRC uint32

	cur []byte // current raw block being filled by Write, push mode only
}

func newParallelWriter(real *bitWriter, level, workers int) *parallelWriter {
	ctx, cancel := context.WithCancel(context.Background())
	eg, ctx := errgroup.WithContext(ctx)
	pw := &parallelWriter{
		level:    level,
		nWorkers: workers,
		real:     real,
		encoded:  make(map[int]encodedBlock),
		eg:       eg,
		ctx:      ctx,
		cancel:   cancel,
		cur:      make([]byte, 0, readBlockSize(level)),
	}
	pw.cond = sync.NewCond(&pw.mu)
	return pw
}

// spawnWorker starts one more worker goroutine, up to nWorkers total. It
// is a no-op once the pool is fully spawned.
func (pw *parallelWriter) spawnWorker() {
	pw.workersMu.Lock()
	if pw.spawned >= pw.nWorkers {
		pw.workersMu.Unlock()
		return
	}
	pw.spawned++
	pw.workersMu.Unlock()

	atomic.AddInt32(&pw.activeWorkers, 1)
	pw.eg.Go(func() error {
		defer atomic.AddInt32(&pw.activeWorkers, -1)
		err := pw.workerLoop()
		// Wake any other worker or the coordinator that might be waiting
		// on pw.cond, whether this worker exited cleanly or with an
		// error: errgroup's ctx cancellation alone does not touch pw.cond.
		pw.mu.Lock()
		pw.cond.Broadcast()
		pw.mu.Unlock()
		return err
	})
}

// spawnAllWorkers spawns the full pool immediately, for pull mode.
func (pw *parallelWriter) spawnAllWorkers() {
	for i := 0; i < pw.nWorkers; i++ {
		pw.spawnWorker()
	}
}

// workerLoop dequeues raw blocks and compresses them into deferred bit
// logs until the queue is drained and doneReading is set, or the stream
// is canceled.
func (pw *parallelWriter) workerLoop() error {
	bc := new(blockCompressor)
	bc.Init(pw.level)
	for {
		pw.mu.Lock()
		for len(pw.queue) == 0 && !pw.doneReading && pw.ctx.Err() == nil {
			pw.cond.Wait()
		}
		if pw.ctx.Err() != nil {
			pw.mu.Unlock()
			return nil
		}
		if len(pw.queue) == 0 {
			pw.mu.Unlock()
			return nil
		}
		job := pw.queue[0]
		pw.queue = pw.queue[1:]
		pw.inFlight++
		pw.mu.Unlock()

		bc.Reset()
		n, err := bc.Write(job.data)
		if err != nil && err != rleDone {
			return fmt.Errorf("bzip2: parallel compressor: %w", err)
		}
		if n < len(job.data) {
			return fmt.Errorf("bzip2: parallel compressor: block %d does not fit the RLE1 buffer: %w", job.id, rleDone)
		}
		dw := new(deferredBitWriter)
		dw.Init()
		bc.CloseBlock(dw)
		dw.SetBlockCRC(bc.CRC())

		pw.mu.Lock()
		pw.inFlight--
		pw.encoded[job.id] = encodedBlock{crc: bc.CRC(), log: dw}
		pw.cond.Broadcast()
		pw.mu.Unlock()
	}
}

// drain replays every encoded block that is next in strict id order,
// folding its CRC into the running stream CRC. It returns as soon as the
// next expected block hasn't finished yet.
func (pw *parallelWriter) drain() error {
	for {
		pw.mu.Lock()
		eb, ok := pw.encoded[pw.nextOutputID]
		if !ok {
			pw.mu.Unlock()
			return nil
		}
		delete(pw.encoded, pw.nextOutputID)
		pw.nextOutputID++
		pw.cond.Broadcast()
		pw.mu.Unlock()

		pw.streamCRC = foldStreamCRC(pw.streamCRC, eb.crc)
		eb.log.Replay(pw.real)
		if err := pw.real.Err(); err != nil {
			return err
		}
	}
}

// enqueue hands a sealed raw block to the pool, blocking (via drain) if
// the number of blocks resident in the queue, in flight in a worker, or in
// the encoded map would exceed the backpressure bound of spec §4.H.
func (pw *parallelWriter) enqueue(data []byte) error {
	pw.spawnWorker()

	pw.mu.Lock()
	id := pw.nextInputID
	pw.nextInputID++
	for len(pw.queue)+pw.inFlight+len(pw.encoded) >= backpressureFactor*pw.nWorkers {
		pw.mu.Unlock()
		if err := pw.drain(); err != nil {
			return err
		}
		if err := pw.ctx.Err(); err != nil {
			return err
		}
		pw.mu.Lock()
	}
	pw.queue = append(pw.queue, pendingBlock{id: id, data: data})
	pw.cond.Broadcast()
	pw.mu.Unlock()
	return pw.drain()
}

// Write implements push mode: bytes accumulate into the current raw
// block buffer, and a full buffer is sealed and enqueued.
func (pw *parallelWriter) Write(p []byte) (n int, err error) {
	for len(p) > 0 {
		if err := pw.ctx.Err(); err != nil {
			return n, err
		}
		space := cap(pw.cur) - len(pw.cur)
		take := len(p)
		if take > space {
			take = space
		}
		pw.cur = append(pw.cur, p[:take]...)
		p = p[take:]
		n += take
		if len(pw.cur) == cap(pw.cur) {
			buf := pw.cur
			pw.cur = make([]byte, 0, readBlockSize(pw.level))
			if err := pw.enqueue(buf); err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

// Close seals any partial final block, signals doneReading, and blocks
// until every block has been drained into the real sink in order,
// implementing the shutdown sequence of spec §4.H.
func (pw *parallelWriter) Close() (uint32, error) {
	if len(pw.cur) > 0 {
		buf := pw.cur
		pw.cur = nil
		if err := pw.enqueue(buf); err != nil {
			pw.cancel()
			pw.eg.Wait()
			return pw.streamCRC, err
		}
	}

	pw.mu.Lock()
	pw.doneReading = true
	pw.cond.Broadcast()
	pw.mu.Unlock()

	for {
		if err := pw.drain(); err != nil {
			pw.cancel()
			pw.eg.Wait()
			return pw.streamCRC, err
		}

		pw.mu.Lock()
		if pw.nextInputID == pw.nextOutputID || pw.ctx.Err() != nil {
			pw.mu.Unlock()
			break
		}
		if _, ready := pw.encoded[pw.nextOutputID]; !ready && atomic.LoadInt32(&pw.activeWorkers) == 0 {
			pw.mu.Unlock()
			pw.cancel()
			pw.eg.Wait()
			return pw.streamCRC, Error("parallel compressor: workers exited before draining all blocks")
		}
		if int32(len(pw.queue)) > atomic.LoadInt32(&pw.activeWorkers) {
			pw.mu.Unlock()
			pw.spawnWorker()
			pw.mu.Lock()
		}
		for len(pw.encoded) == 0 && pw.nextInputID != pw.nextOutputID && pw.ctx.Err() == nil {
			pw.cond.Wait()
		}
		pw.mu.Unlock()
	}

	if err := pw.eg.Wait(); err != nil {
		return pw.streamCRC, err
	}
	if err := pw.drain(); err != nil {
		return pw.streamCRC, err
	}

	pw.mu.Lock()
	queueLen, inFlight, encodedLen := len(pw.queue), pw.inFlight, len(pw.encoded)
	pw.mu.Unlock()
	if queueLen != 0 || inFlight != 0 || encodedLen != 0 {
		return pw.streamCRC, Error("parallel compressor: inconsistent shutdown state")
	}
	return pw.streamCRC, nil
}
