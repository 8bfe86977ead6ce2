package concurrent

import (
	"errors"
	"time"
)

var ErrScheduleTimeout = errors.New("schedule error: timed out")

// GoPool is a fixed-size goroutine pool for connection handling. goroutines
// are spawned lazily up to the pool size, so idle servers keep a tiny stack
// footprint. ref: https://sergey.kamardin.org/articles/million-websocket-and-go/
type GoPool struct {
	sem  chan struct{}
	work chan func()
}

func NewGoPool(size, queue int) *GoPool {
	return &GoPool{
		sem:  make(chan struct{}, size),
		work: make(chan func(), queue),
	}
}

// Spawn starts up to n idle workers eagerly, without exceeding the pool size.
func (p *GoPool) Spawn(n int) {
	for i := 0; i < n; i++ {
		select {
		case p.sem <- struct{}{}:
			go p.worker(func() {})
		default:
			return
		}
	}
}

// Schedule runs the task on a pool worker, blocking until a worker picks it up
// or a new worker can be spawned.
func (p *GoPool) Schedule(task func()) {
	p.schedule(task, nil)
}

// ScheduleTimeout is like Schedule but gives up with ErrScheduleTimeout when no
// worker picks the task up within the timeout.
func (p *GoPool) ScheduleTimeout(timeout time.Duration, task func()) error {
	return p.schedule(task, time.After(timeout))
}

func (p *GoPool) schedule(task func(), timeout <-chan time.Time) error {
	select {
	case <-timeout:
		return ErrScheduleTimeout
	case p.work <- task:
		return nil
	case p.sem <- struct{}{}:
		go p.worker(task)
		return nil
	}
}

func (p *GoPool) worker(task func()) {
	defer func() { <-p.sem }()
	task()
	for task := range p.work {
		task()
	}
}

// Close stops all idle workers. tasks already scheduled still run.
func (p *GoPool) Close() {
	close(p.work)
}
