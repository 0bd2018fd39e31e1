package nanny

import (
	"context"
	"sync"
	"time"
)

// Loop is a single consumer task queue. Timers and goroutines post work to it
// so every update runs on the goroutine that calls Run.
type Loop struct {
	tasks     chan func()
	done      chan struct{}
	closeOnce sync.Once
}

// NewLoop creates a loop whose queue holds buffer pending tasks.
func NewLoop(buffer int) *Loop {
	if buffer < 0 {
		buffer = 0
	}
	return &Loop{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Post queues fn. It blocks while the queue is full and reports false once
// the loop is closed.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Run executes tasks until ctx is done or the loop is closed.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.tasks:
			if fn != nil {
				fn()
			}
		}
	}
}

// RunPending executes queued tasks without waiting and returns how many ran.
func (l *Loop) RunPending() int {
	ran := 0
	for {
		select {
		case fn := <-l.tasks:
			if fn != nil {
				fn()
			}
			ran++
		default:
			return ran
		}
	}
}

func (l *Loop) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}

// Every posts an update to loop every interval until ctx is done, the
// returned stop is called or the instance is closed.
func (n *Nanny) Every(ctx context.Context, loop *Loop, interval time.Duration, t Transformer, args ...any) (stop func()) {
	return n.schedule(ctx, loop, interval, true, t, args)
}

// Delay posts a single update to loop after d.
func (n *Nanny) Delay(ctx context.Context, loop *Loop, d time.Duration, t Transformer, args ...any) (stop func()) {
	return n.schedule(ctx, loop, d, false, t, args)
}

func (n *Nanny) schedule(ctx context.Context, loop *Loop, d time.Duration, repeat bool, t Transformer, args []any) func() {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	n.mu.Lock()
	n.stops = append(n.stops, cancel)
	n.mu.Unlock()

	run := func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := n.Update(t, args...); err != nil {
			n.cfg.logger.Warn("nanny: scheduled update failed", "error", err)
		}
	}

	go func() {
		if !repeat {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
			case <-timer.C:
				loop.Post(run)
			}
			return
		}
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !loop.Post(run) {
					return
				}
			}
		}
	}()
	return cancel
}
