package pool

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewDefaultWorkers(t *testing.T) {
	p := New(0)
	defer p.Close()
	if got, want := p.Workers(), runtime.GOMAXPROCS(0); got != want {
		t.Errorf("Workers() = %d, want %d", got, want)
	}
}

func TestDoRunsAllTasks(t *testing.T) {
	for _, workers := range []int{1, 2, 4, 16} {
		p := New(workers)
		var n atomic.Int64
		tasks := make([]func(), 100)
		for i := range tasks {
			tasks[i] = func() { n.Add(1) }
		}
		p.Do(tasks)
		if got := n.Load(); got != 100 {
			t.Errorf("workers=%d: ran %d tasks, want 100", workers, got)
		}
		p.Close()
	}
}

func TestDoEmpty(t *testing.T) {
	p := New(2)
	defer p.Close()
	p.Do(nil)
}

func TestMapKeepsOrder(t *testing.T) {
	p := New(4)
	defer p.Close()

	got := Map(p, 50, func(i int) int {
		if i%7 == 0 {
			time.Sleep(time.Millisecond)
		}
		return i * i
	})
	for i, v := range got {
		if v != i*i {
			t.Fatalf("Map()[%d] = %d, want %d", i, v, i*i)
		}
	}
}

func TestSlowTaskDoesNotBlockQueue(t *testing.T) {
	p := New(2)
	defer p.Close()

	release := make(chan struct{})
	var fast atomic.Int64
	tasks := []func(){func() { <-release }}
	for range 9 {
		tasks = append(tasks, func() { fast.Add(1) })
	}

	done := make(chan struct{})
	go func() {
		p.Do(tasks)
		close(done)
	}()

	deadline := time.After(5 * time.Second)
	for fast.Load() < 9 {
		select {
		case <-deadline:
			t.Fatalf("only %d of 9 tasks ran while one worker was blocked", fast.Load())
		default:
			runtime.Gosched()
		}
	}
	close(release)
	<-done
}

func TestConcurrentDo(t *testing.T) {
	p := New(4)
	defer p.Close()

	var n atomic.Int64
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tasks := make([]func(), 25)
			for i := range tasks {
				tasks[i] = func() { n.Add(1) }
			}
			p.Do(tasks)
		}()
	}
	wg.Wait()
	if got := n.Load(); got != 200 {
		t.Errorf("ran %d tasks, want 200", got)
	}
}

func TestDoAfterClose(t *testing.T) {
	p := New(2)
	p.Close()
	p.Close()

	ran := false
	p.Do([]func(){func() { ran = true }})
	if !ran {
		t.Error("Do() after Close() did not run the task")
	}
}
