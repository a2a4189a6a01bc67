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
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingTransformer struct {
	calls int32
	delay time.Duration
	panicOnce bool
	panicked  int32
}

func (t *countingTransformer) Transform(filePath string, content []byte, opts Options) (Result, error) {
	if t.panicOnce && atomic.CompareAndSwapInt32(&t.panicked, 0, 1) {
		panic("simulated crash")
	}
	atomic.AddInt32(&t.calls, 1)
	if t.delay > 0 {
		time.Sleep(t.delay)
	}
	return Result{Code: string(content)}, nil
}

func TestPoolTransformBasic(t *testing.T) {
	tr := &countingTransformer{}
	pool := NewPool(tr, nil, 2, 0)
	defer pool.Close()

	res, err := pool.Transform(context.Background(), "/a.js", []byte("code"), Options{})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if res.Code != "code" {
		t.Errorf("got %q, want %q", res.Code, "code")
	}
}

func TestPoolDedupsConcurrentIdenticalJobs(t *testing.T) {
	tr := &countingTransformer{delay: 50 * time.Millisecond}
	pool := NewPool(tr, nil, 4, 0)
	defer pool.Close()

	results := make(chan Result, 10)
	for range 10 {
		go func() {
			res, err := pool.Transform(context.Background(), "/a.js", []byte("code"), Options{})
			if err != nil {
				t.Error(err)
				return
			}
			results <- res
		}()
	}

	for range 10 {
		<-results
	}

	if got := atomic.LoadInt32(&tr.calls); got != 1 {
		t.Errorf("transformer called %d times, want 1 (deduped)", got)
	}
}

func TestPoolCachesByContentHash(t *testing.T) {
	tr := &countingTransformer{}
	cache := NewCache(NewMemoryStore())
	pool := NewPool(tr, cache, 2, 0)
	defer pool.Close()

	ctx := context.Background()
	if _, err := pool.Transform(ctx, "/a.js", []byte("code"), Options{}); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if _, err := pool.Transform(ctx, "/a.js", []byte("code"), Options{}); err != nil {
		t.Fatalf("Transform: %v", err)
	}

	if got := atomic.LoadInt32(&tr.calls); got != 1 {
		t.Errorf("transformer called %d times, want 1 (cache hit)", got)
	}
}

func TestPoolDifferentOptionsFingerprintsDontShareCache(t *testing.T) {
	tr := &countingTransformer{}
	cache := NewCache(NewMemoryStore())
	pool := NewPool(tr, cache, 2, 0)
	defer pool.Close()

	ctx := context.Background()
	if _, err := pool.Transform(ctx, "/a.js", []byte("code"), Options{Dev: true}); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if _, err := pool.Transform(ctx, "/a.js", []byte("code"), Options{Dev: false}); err != nil {
		t.Fatalf("Transform: %v", err)
	}

	if got := atomic.LoadInt32(&tr.calls); got != 2 {
		t.Errorf("transformer called %d times, want 2 (different options)", got)
	}
}

func TestPoolWorkerForIsSticky(t *testing.T) {
	pool := NewPool(&countingTransformer{}, nil, 4, 0)
	defer pool.Close()

	first := pool.workerFor("/a.js")
	for i := 0; i < 5; i++ {
		if got := pool.workerFor("/a.js"); got != first {
			t.Fatalf("workerFor(/a.js) = %d on call %d, want sticky %d", got, i, first)
		}
	}
}

func TestPoolWorkerForRoundRobinsDistinctPaths(t *testing.T) {
	pool := NewPool(&countingTransformer{}, nil, 4, 0)
	defer pool.Close()

	seen := make(map[int]bool)
	for i := 0; i < 4; i++ {
		seen[pool.workerFor(filePathForIndex(i))] = true
	}
	if len(seen) != 4 {
		t.Errorf("got %d distinct workers across 4 distinct paths, want 4 (round-robin)", len(seen))
	}
}

func filePathForIndex(i int) string {
	return string(rune('a'+i)) + ".js"
}

func TestPoolTimeoutRespawnsWorkerAndRerouteStickyPaths(t *testing.T) {
	tr := &countingTransformer{delay: 200 * time.Millisecond}
	pool := NewPool(tr, nil, 1, 20*time.Millisecond)
	defer pool.Close()

	ctx := context.Background()

	wedgedIdx := pool.workerFor("/wedged.js")

	_, err := pool.Transform(ctx, "/wedged.js", []byte("code"), Options{})
	if err == nil {
		t.Fatal("expected a soft-timeout error")
	}

	// The wedged job's goroutine is still running tr.Transform (it
	// sleeps 200ms, well past the 20ms soft timeout), holding its
	// original worker forever. A later request for another path, which
	// with a single worker was routed to that same worker, must not queue
	// up behind it.
	done := make(chan struct{})
	go func() {
		_, _ = pool.Transform(ctx, "/other.js", []byte("code"), Options{})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("request for a different path wedged behind the timed-out worker")
	}

	newIdx := pool.workerFor("/wedged.js")
	if newIdx == wedgedIdx {
		t.Fatalf("expected /wedged.js rerouted away from retired worker %d, still got %d", wedgedIdx, newIdx)
	}
}

func TestPoolSurvivesWorkerPanic(t *testing.T) {
	tr := &countingTransformer{panicOnce: true}
	pool := NewPool(tr, nil, 1, 0)
	defer pool.Close()

	ctx := context.Background()

	_, err := pool.Transform(ctx, "/crash.js", []byte("code"), Options{})
	if err == nil {
		t.Fatal("expected an error from the panicking transform")
	}
	var crash *WorkerCrash
	if !errors.As(err, &crash) {
		t.Fatalf("expected *WorkerCrash, got %T", err)
	}
	if crash.FilePath != "/crash.js" {
		t.Errorf("got FilePath %q, want /crash.js", crash.FilePath)
	}

	res, err := pool.Transform(ctx, "/ok.js", []byte("fine"), Options{})
	if err != nil {
		t.Fatalf("Transform after panic: %v", err)
	}
	if res.Code != "fine" {
		t.Errorf("got %q, want %q", res.Code, "fine")
	}
}
