// Package parallel provides the fork-join executor and the 2-D tiling used by
// the blur and diff pipelines.
//
// An Executor owns a fixed set of worker goroutines for its whole lifetime.
// Work is submitted as a slice of tiles; the submitting goroutine blocks
// until every tile has been processed, so each call is a barrier.
package parallel

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

type Executor struct {
	numWorkers int
	workC      chan func()

	mu     sync.RWMutex
	closed bool
}

// New creates an executor with numWorkers persistent workers. When numWorkers
// is not positive the executor is sized to runtime.GOMAXPROCS(0).
func New(numWorkers int) *Executor {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	e := &Executor{
		numWorkers: numWorkers,
		workC:      make(chan func(), numWorkers*2),
	}

	for range numWorkers {
		go e.worker()
	}

	return e
}

func (e *Executor) worker() {
	for fn := range e.workC {
		fn()
	}
}

func (e *Executor) NumWorkers() int {
	return e.numWorkers
}

// Close stops the workers. It waits for in-progress submissions, and work
// submitted afterwards runs on the caller.
func (e *Executor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	close(e.workC)
}

// ForEach runs fn once for every tile and returns when all have completed.
// Tiles are claimed dynamically, so uneven tiles balance across workers.
// The calling goroutine claims tiles too, which makes it safe to call
// ForEach from inside a task. A panic raised by fn is re-raised on the
// calling goroutine after the join.
func (e *Executor) ForEach(tiles []Tile, fn func(i int, t Tile)) {
	n := len(tiles)
	if n == 0 {
		return
	}

	var (
		next     atomic.Int64
		done     sync.WaitGroup
		panicked atomic.Pointer[taskPanic]
	)
	done.Add(n)

	claim := func() {
		for {
			idx := int(next.Add(1)) - 1
			if idx >= n {
				return
			}
			runTile(idx, tiles[idx], fn, &done, &panicked)
		}
	}

	e.submit(min(e.numWorkers, n)-1, claim)
	claim()
	done.Wait()

	if p := panicked.Load(); p != nil {
		panic(p)
	}
}

// submit offers claim to at most n workers without blocking. Helpers that
// start after every tile has been claimed return straight away.
func (e *Executor) submit(n int, claim func()) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return
	}

	for range n {
		select {
		case e.workC <- claim:
		default:
			return
		}
	}
}

func runTile(i int, t Tile, fn func(int, Tile), done *sync.WaitGroup, panicked *atomic.Pointer[taskPanic]) {
	defer done.Done()
	defer func() {
		if r := recover(); r != nil {
			panicked.CompareAndSwap(nil, &taskPanic{value: r})
		}
	}()
	fn(i, t)
}

type taskPanic struct {
	value any
}

func (p *taskPanic) Error() string {
	return fmt.Sprintf("parallel task panicked: %v", p.value)
}

// MapReduce applies mapFn to every tile in parallel, keeping one partial
// result per tile, then folds the partials in tile order once all workers
// have finished. The fold order depends only on the tiling, never on
// scheduling, so even non-associative combines (float addition) give the
// same answer run after run.
func MapReduce[T any](e *Executor, tiles []Tile, identity T, mapFn func(t Tile) T, combine func(a, b T) T) T {
	partials := make([]T, len(tiles))
	e.ForEach(tiles, func(i int, t Tile) {
		partials[i] = mapFn(t)
	})

	acc := identity
	for _, p := range partials {
		acc = combine(acc, p)
	}
	return acc
}
