// Package workpool hides the worker pool library behind a small interface
// so that the pooled runner can be measured on each of them.
package workpool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/gammazero/workerpool"
	"github.com/panjf2000/ants/v2"
)

// Kind names a pool implementation.
type Kind string

const (
	Pond       Kind = "pond"
	Ants       Kind = "ants"
	WorkerPool Kind = "workerpool"
)

// Kinds lists every supported implementation, default first.
var Kinds = []Kind{Pond, Ants, WorkerPool}

var ErrStopped = errors.New("workpool: pool stopped")

// Pool runs tasks on a bounded set of worker goroutines. Workers are
// started lazily, so the first tasks submitted to a fresh pool pay for
// spawning them.
type Pool interface {
	// Go submits task without waiting for it.
	Go(task func()) error
	// StopAndWait rejects new tasks and waits for the submitted ones.
	StopAndWait()
}

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown pool %q, want one of %v", s, Kinds)
}

// New creates a pool of the given kind with at most size workers.
func New(kind Kind, size int) (Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("invalid pool size %d", size)
	}

	var b backend
	switch kind {
	case Pond:
		b = pondBackend{pool: pond.NewPool(size)}
	case Ants:
		p, err := ants.NewPool(size)
		if err != nil {
			return nil, fmt.Errorf("create ants pool: %w", err)
		}
		b = antsBackend{pool: p}
	case WorkerPool:
		b = workerPoolBackend{pool: workerpool.New(size)}
	default:
		return nil, fmt.Errorf("unknown pool %q", kind)
	}

	return &pool{backend: b}, nil
}

type backend interface {
	submit(task func()) error
	stop()
}

// pool tracks in-flight tasks itself: not every library waits for running
// tasks on stop, and some of them panic on submit after stop. Go and
// StopAndWait may race; mu orders them, so nothing reaches a stopped backend.
type pool struct {
	backend  backend
	mu       sync.RWMutex
	stopped  bool
	inFlight sync.WaitGroup
}

func (p *pool) Go(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrStopped
	}

	p.inFlight.Add(1)
	err := p.backend.submit(func() {
		defer p.inFlight.Done()
		task()
	})
	if err != nil {
		p.inFlight.Done()
		return err
	}
	return nil
}

func (p *pool) StopAndWait() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	// После stopped=true новые задачи уже не попадут в inFlight
	p.inFlight.Wait()
	p.backend.stop()
}

type pondBackend struct {
	pool pond.Pool
}

func (b pondBackend) submit(task func()) error {
	b.pool.Submit(task)
	return nil
}

func (b pondBackend) stop() {
	b.pool.StopAndWait()
}

type antsBackend struct {
	pool *ants.Pool
}

func (b antsBackend) submit(task func()) error {
	return b.pool.Submit(task)
}

func (b antsBackend) stop() {
	b.pool.Release()
}

type workerPoolBackend struct {
	pool *workerpool.WorkerPool
}

func (b workerPoolBackend) submit(task func()) error {
	b.pool.Submit(task)
	return nil
}

func (b workerPoolBackend) stop() {
	b.pool.StopWait()
}
