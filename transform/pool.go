/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package transform

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// job is one unit of work dispatched to a worker goroutine.
type job struct {
	filePath string
	content  []byte
	opts     Options
	resultCh chan jobResult
}

type jobResult struct {
	res Result
	err error
}

// inflight tracks a job already being computed, so concurrent requests
// for the same (filePath, optionsFingerprint) share one execution instead
// of duplicating work. workerIdx records which worker the job was
// dispatched to, -1 until the dispatching goroutine assigns it, so a
// soft-timeout firing in waitFor knows which worker to retire.
type inflight struct {
	done      chan struct{}
	res       Result
	err       error
	workerIdx int
}

// Pool is a sticky, round-robin worker pool that runs a Transformer
// across a bounded number of goroutines, with in-flight deduplication, a
// soft per-job timeout, and crash isolation: a Transformer panic is
// recovered inside the worker and fails only the job that raised it, so
// the worker goroutine keeps running.
//
// Each worker owns its own queue. Dispatch routes a request for filePath
// to whichever worker last served that path (sticky routing, so a
// worker's warmed-up per-file transformer state keeps being reused);
// a filePath seen for the first time is assigned round-robin across the
// currently live worker ids. A request queues FIFO on its assigned
// worker's channel if that worker is busy, rather than stealing an idle
// one, so stickiness is preserved at the cost of perfect load balancing.
//
// A worker that blows its soft timeout is retired rather than kept
// indexed: retireWorker removes it from live, unsticks every path that
// pointed at it, and spawns a fresh worker under a new id to take its
// place. The old goroutine isn't killed (Go has no preemptive
// cancellation of a running call) — it's simply abandoned, with nothing
// left dispatching to it, so it can no longer wedge anyone else's
// requests behind it.
type Pool struct {
	transformer Transformer
	cache       *Cache
	softTimeout time.Duration

	mu          sync.Mutex
	workerChans []chan job
	live        []int
	nextLive    int
	sticky      map[string]int
	inflight    map[string]*inflight

	wg       sync.WaitGroup
	stopOnce sync.Once
	stop     chan struct{}
}

// NewPool starts a Pool of size worker goroutines. softTimeout bounds how
// long a single transform is allowed to run before the caller gets a
// timeout error back and that job's worker is retired (see Pool's doc
// comment).
func NewPool(transformer Transformer, cache *Cache, size int, softTimeout time.Duration) *Pool {
	if size <= 0 {
		size = 1
	}
	p := &Pool{
		transformer: transformer,
		cache:       cache,
		softTimeout: softTimeout,
		sticky:      make(map[string]int),
		inflight:    make(map[string]*inflight),
		stop:        make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		idx := p.spawnWorker()
		p.live = append(p.live, idx)
	}
	return p
}

// spawnWorker appends a fresh worker channel and goroutine and returns
// its id. Called both at construction and whenever retireWorker replaces
// a timed-out worker.
func (p *Pool) spawnWorker() int {
	ch := make(chan job, 4)
	p.mu.Lock()
	idx := len(p.workerChans)
	p.workerChans = append(p.workerChans, ch)
	p.mu.Unlock()

	p.wg.Add(1)
	go p.runWorker(idx, ch)
	return idx
}

// runWorker processes jobs from ch until Close. A Transformer panic on
// one job is recovered and reported as an error to that job's caller
// without taking the worker goroutine down, so one bad input never
// shrinks pool capacity or wedges a caller waiting on the result
// channel. ch is captured once at spawn time rather than re-read from
// p.workerChans on every loop, so a retired worker keeps draining only
// its own abandoned channel and never competes with its replacement.
func (p *Pool) runWorker(idx int, ch chan job) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stop:
			return
		case j := <-ch:
			j.resultCh <- p.runJobSafely(j)
		}
	}
}

// workerFor returns the worker id assigned to filePath, assigning one
// round-robin across the live worker ids on first sight and remembering
// it for every subsequent call (sticky routing).
func (p *Pool) workerFor(filePath string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if idx, ok := p.sticky[filePath]; ok {
		return idx
	}
	idx := p.live[p.nextLive]
	p.nextLive = (p.nextLive + 1) % len(p.live)
	p.sticky[filePath] = idx
	return idx
}

// retireWorker marks idx unhealthy after a soft-timeout, spawns a
// replacement worker, and unsticks every path that was routed to idx so
// the next request for one of them gets reassigned to a live worker
// instead of queuing behind the abandoned goroutine. A negative idx (the
// dispatching goroutine hadn't yet recorded one) and an idx already
// retired by a concurrent timeout are both silently ignored.
func (p *Pool) retireWorker(idx int) {
	if idx < 0 {
		return
	}

	p.mu.Lock()
	pos := -1
	for i, id := range p.live {
		if id == idx {
			pos = i
			break
		}
	}
	if pos == -1 {
		p.mu.Unlock()
		return
	}
	p.live = append(p.live[:pos], p.live[pos+1:]...)
	for path, stuckIdx := range p.sticky {
		if stuckIdx == idx {
			delete(p.sticky, path)
		}
	}
	p.mu.Unlock()

	newIdx := p.spawnWorker()

	p.mu.Lock()
	p.live = append(p.live, newIdx)
	if p.nextLive >= len(p.live) {
		p.nextLive = 0
	}
	p.mu.Unlock()
}

func (p *Pool) runJobSafely(j job) (result jobResult) {
	defer func() {
		if r := recover(); r != nil {
			result = jobResult{err: &WorkerCrash{FilePath: j.filePath, Panic: r}}
		}
	}()
	res, err := p.transformer.Transform(j.filePath, j.content, j.opts)
	if err != nil {
		return jobResult{err: &TransformError{FilePath: j.filePath, Err: err}}
	}
	return jobResult{res: res, err: nil}
}

// Transform dispatches a transform job, deduplicating concurrent calls
// for the same file and options, and checking the cache first when the
// Pool has one.
func (p *Pool) Transform(ctx context.Context, filePath string, content []byte, opts Options) (Result, error) {
	contentHash := hashContent(content)
	key := Key{FilePath: filePath, ContentHash: contentHash, OptionsFingerprint: opts.Fingerprint()}

	if p.cache != nil {
		res, ok, err := p.cache.Get(key)
		if err != nil {
			return Result{}, err
		}
		if ok {
			return res, nil
		}
	}

	dedupKey := key.String()

	p.mu.Lock()
	if existing, ok := p.inflight[dedupKey]; ok {
		p.mu.Unlock()
		return p.waitFor(ctx, existing)
	}

	entry := &inflight{done: make(chan struct{}), workerIdx: -1}
	p.inflight[dedupKey] = entry
	p.mu.Unlock()

	go p.runJob(filePath, content, opts, key, entry, dedupKey)

	return p.waitFor(ctx, entry)
}

func (p *Pool) runJob(filePath string, content []byte, opts Options, key Key, entry *inflight, dedupKey string) {
	resultCh := make(chan jobResult, 1)
	idx := p.workerFor(filePath)

	p.mu.Lock()
	entry.workerIdx = idx
	ch := p.workerChans[idx]
	p.mu.Unlock()

	ch <- job{filePath: filePath, content: content, opts: opts, resultCh: resultCh}

	result := <-resultCh

	entry.res, entry.err = result.res, result.err
	close(entry.done)

	p.mu.Lock()
	delete(p.inflight, dedupKey)
	p.mu.Unlock()

	if entry.err == nil && p.cache != nil {
		_ = p.cache.Set(key, entry.res)
	}
}

func (p *Pool) waitFor(ctx context.Context, entry *inflight) (Result, error) {
	if p.softTimeout <= 0 {
		select {
		case <-entry.done:
			return entry.res, entry.err
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}

	timer := time.NewTimer(p.softTimeout)
	defer timer.Stop()

	select {
	case <-entry.done:
		return entry.res, entry.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-timer.C:
		p.mu.Lock()
		idx := entry.workerIdx
		p.mu.Unlock()
		p.retireWorker(idx)
		return Result{}, fmt.Errorf("transform: exceeded soft timeout of %s, worker %d marked unhealthy and respawned", p.softTimeout, idx)
	}
}

// Close signals every worker goroutine to exit and waits for them to
// return; a worker busy with a job finishes that job first. Transform
// does not check whether the Pool has been closed.
func (p *Pool) Close() {
	p.stopOnce.Do(func() {
		close(p.stop)
	})
	p.wg.Wait()
}

func hashContent(content []byte) string {
	sum := sha1.Sum(content)
	return hex.EncodeToString(sum[:])
}
