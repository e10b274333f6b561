package engine

import "sync"

// Executor decides where dispatches run. Go starts an async dispatch;
// Sync runs fn on the single sync lane and returns once it is done.
type Executor interface {
	Go(fn func())
	Sync(fn func())
}

// GoroutineExecutor starts a goroutine per async dispatch and serialises
// sync work behind one lock. Sync work then runs on the dispatch goroutine,
// one command at a time; use LoopExecutor to run it on the input goroutine.
type GoroutineExecutor struct {
	lane sync.Mutex
}

func (e *GoroutineExecutor) Go(fn func()) {
	go fn()
}

func (e *GoroutineExecutor) Sync(fn func()) {
	e.lane.Lock()
	defer e.lane.Unlock()
	fn()
}

// InlineExecutor runs everything on the caller's goroutine, which makes
// async dispatches deterministic in tests.
type InlineExecutor struct{}

func (InlineExecutor) Go(fn func()) { fn() }

func (InlineExecutor) Sync(fn func()) { fn() }

// LoopExecutor runs async dispatches on their own goroutines and hands
// sync work back to the goroutine that calls RunUntil, normally the one
// reading input. Sync blocks until that goroutine has run fn, so a front
// end using it must call RunUntil while dispatches are in flight.
type LoopExecutor struct {
	tasks chan func()
}

func NewLoopExecutor() *LoopExecutor {
	return &LoopExecutor{tasks: make(chan func())}
}

func (e *LoopExecutor) Go(fn func()) {
	go fn()
}

func (e *LoopExecutor) Sync(fn func()) {
	done := make(chan struct{})
	e.tasks <- func() {
		defer close(done)
		fn()
	}
	<-done
}

// RunUntil runs queued sync work on the calling goroutine until done is
// closed.
func (e *LoopExecutor) RunUntil(done <-chan struct{}) {
	for {
		select {
		case fn := <-e.tasks:
			fn()
		case <-done:
			return
		}
	}
}
