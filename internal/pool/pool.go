// Package pool runs independent tasks on a fixed set of goroutines.
package pool

import (
	"runtime"
	"sync"
)

// Pool is a set of workers, each with its own queue. A worker whose queue
// is empty steals from the others before blocking, so one slow input does
// not hold up the tasks queued behind it.
//
// Pool is safe for concurrent use.
type Pool struct {
	workers int
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup

	// mu is held shared by Do and exclusively by Close, so no task is
	// queued after the workers stop.
	mu     sync.RWMutex
	closed bool
}

// New starts a pool with the given number of workers. If workers is 0 or
// negative, GOMAXPROCS is used.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), max(workers*4, 8))
	}

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	own := p.queues[id]
	for {
		select {
		case task := <-own:
			task()
			continue
		case <-p.done:
			return
		default:
		}

		if task := p.steal(id); task != nil {
			task()
			continue
		}

		select {
		case task := <-own:
			task()
		case <-p.done:
			return
		}
	}
}

// steal takes one task from another worker's queue, or returns nil.
func (p *Pool) steal(id int) func() {
	for i := range p.workers {
		if i == id {
			continue
		}
		select {
		case task := <-p.queues[i]:
			return task
		default:
		}
	}
	return nil
}

// Do runs tasks and waits for all of them. Tasks are dealt round-robin to
// the workers. After Close, tasks run on the calling goroutine.
func (p *Pool) Do(tasks []func()) {
	if len(tasks) == 0 {
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		for _, t := range tasks {
			t()
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, t := range tasks {
		task := func() {
			defer wg.Done()
			t()
		}
		p.queues[i%p.workers] <- task
	}
	wg.Wait()
}

// Map calls fn for 0..n-1 on the pool and returns the results in index
// order.
func Map[T any](p *Pool, n int, fn func(i int) T) []T {
	out := make([]T, n)
	tasks := make([]func(), n)
	for i := range n {
		tasks[i] = func() { out[i] = fn(i) }
	}
	p.Do(tasks)
	return out
}

// Close waits for Do calls in progress and stops the workers. Close is
// safe to call multiple times.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.done)
	p.mu.Unlock()

	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int {
	return p.workers
}
