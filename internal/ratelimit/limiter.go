// Package ratelimit serializes calls to a quota-constrained backend.
//
// A Limiter runs one task at a time in submission order and waits a fixed
// interval (window / requests per window) after each task before starting the
// next one. Spacing is fixed rather than a sliding window, so bursts are never
// allowed even when the quota would tolerate them.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/campusagent/internal/metrics"
)

var (
	// ErrQueueFull signals that a bounded queue has no room for another task.
	ErrQueueFull = errors.New("rate limiter queue full")
	// ErrClosed signals a submission after Close.
	ErrClosed = errors.New("rate limiter closed")
)

// DefaultRequestsPerWindow keeps a small buffer under a 30 requests/minute quota.
const DefaultRequestsPerWindow = 28

// DefaultWindow is the quota window.
const DefaultWindow = time.Minute

// Config describes one limiter.
type Config struct {
	Name              string
	RequestsPerWindow int
	Window            time.Duration
	MaxQueue          int // 0 = unbounded
}

// Interval returns the spacing between task starts, rounded up to the millisecond.
func (c Config) Interval() time.Duration {
	rpw := c.RequestsPerWindow
	if rpw <= 0 {
		rpw = DefaultRequestsPerWindow
	}
	window := c.Window
	if window <= 0 {
		window = DefaultWindow
	}
	ms := (window.Milliseconds() + int64(rpw) - 1) / int64(rpw)
	if ms == 0 {
		return window / time.Duration(rpw)
	}
	return time.Duration(ms) * time.Millisecond
}

// Task is a unit of work executed by the limiter worker.
type Task func(ctx context.Context) (any, error)

type outcome struct {
	val any
	err error
}

type job struct {
	ctx      context.Context
	task     Task
	enqueued time.Time
	done     chan outcome
}

// Limiter is a FIFO single-worker scheduler. Safe for concurrent use.
type Limiter struct {
	name     string
	interval time.Duration
	maxQueue int
	logger   *zap.Logger

	mu     sync.Mutex
	queue  []*job
	closed bool
	wake   chan struct{}
	quit   chan struct{}
	done   chan struct{}
}

// New creates a limiter and starts its worker.
func New(cfg Config, logger *zap.Logger) *Limiter {
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	l := &Limiter{
		name:     cfg.Name,
		interval: cfg.Interval(),
		maxQueue: cfg.MaxQueue,
		logger:   logger.With(zap.String("limiter", cfg.Name)),
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go l.run()
	return l
}

// Interval returns the configured spacing between tasks.
func (l *Limiter) Interval() time.Duration { return l.interval }

// Len returns the number of tasks waiting to start.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Submit enqueues task and blocks until it completes, returning the task's own result.
//
// A queued task is never withdrawn: if ctx ends first, Submit returns ctx.Err()
// but the task still runs in its turn, with ctx, so a context-aware backend call
// returns immediately.
func (l *Limiter) Submit(ctx context.Context, task Task) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	j := &job{ctx: ctx, task: task, enqueued: time.Now(), done: make(chan outcome, 1)}

	l.mu.Lock()
	switch {
	case l.closed:
		l.mu.Unlock()
		return nil, ErrClosed
	case l.maxQueue > 0 && len(l.queue) >= l.maxQueue:
		l.mu.Unlock()
		metrics.LimiterTasksTotal.WithLabelValues(l.name, "rejected").Inc()
		return nil, fmt.Errorf("%w: %d tasks pending", ErrQueueFull, l.maxQueue)
	}
	l.queue = append(l.queue, j)
	depth := len(l.queue)
	l.mu.Unlock()

	metrics.LimiterQueueDepth.WithLabelValues(l.name).Set(float64(depth))
	l.signal()

	select {
	case out := <-j.done:
		return out.val, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Do is a typed wrapper over Submit.
func Do[T any](ctx context.Context, l *Limiter, fn func(ctx context.Context) (T, error)) (T, error) {
	v, err := l.Submit(ctx, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	t, _ := v.(T)
	return t, nil
}

// Close rejects new submissions, lets the worker drain the queue, and waits for it
// to finish or for ctx to end.
func (l *Limiter) Close(ctx context.Context) error {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.quit)
	}
	l.mu.Unlock()
	l.signal()

	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("close limiter %s: %w", l.name, ctx.Err())
	}
}

func (l *Limiter) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// next pops the head of the queue, blocking while it is empty.
// It returns false once the limiter is closed and drained.
func (l *Limiter) next() (*job, bool) {
	for {
		l.mu.Lock()
		if len(l.queue) > 0 {
			j := l.queue[0]
			l.queue[0] = nil
			l.queue = l.queue[1:]
			depth := len(l.queue)
			l.mu.Unlock()
			metrics.LimiterQueueDepth.WithLabelValues(l.name).Set(float64(depth))
			return j, true
		}
		closed := l.closed
		l.mu.Unlock()

		if closed {
			return nil, false
		}
		<-l.wake
	}
}

func (l *Limiter) run() {
	defer close(l.done)

	for {
		j, ok := l.next()
		if !ok {
			return
		}
		metrics.LimiterWaitSeconds.WithLabelValues(l.name).Observe(time.Since(j.enqueued).Seconds())
		j.done <- l.execute(j)

		if !l.pause() {
			return
		}
	}
}

// pause waits out the interval. It returns false when the limiter was closed
// with nothing left to run, so Close does not wait for an idle interval.
func (l *Limiter) pause() bool {
	timer := time.NewTimer(l.interval)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-l.quit:
		if l.Len() == 0 {
			return false
		}
		<-timer.C
		return true
	}
}

// execute runs one task. A panic fails only that task.
func (l *Limiter) execute(j *job) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Rate limited task panicked", zap.Any("panic", r))
			metrics.LimiterTasksTotal.WithLabelValues(l.name, "panic").Inc()
			out = outcome{err: fmt.Errorf("task panicked: %v", r)}
		}
	}()

	val, err := j.task(j.ctx)
	if err != nil {
		metrics.LimiterTasksTotal.WithLabelValues(l.name, "error").Inc()
		return outcome{err: err}
	}
	metrics.LimiterTasksTotal.WithLabelValues(l.name, "ok").Inc()
	return outcome{val: val}
}
