package nanny

import (
	"fmt"
	"sync"
	"time"
)

type renderRecorder struct {
	mu       sync.Mutex
	trees    []any
	elements []any
	err      error
}

func (r *renderRecorder) Render(tree any, element any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trees = append(r.trees, tree)
	r.elements = append(r.elements, element)
	return r.err
}

func (r *renderRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trees)
}

func (r *renderRecorder) last() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.trees) == 0 {
		return nil
	}
	return r.trees[len(r.trees)-1]
}

type logEntry struct {
	level string
	msg   string
	args  []any
}

type captureLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *captureLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *captureLogger) Debug(msg string, args ...any) { l.add("debug", msg, args) }
func (l *captureLogger) Info(msg string, args ...any)  { l.add("info", msg, args) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.add("warn", msg, args) }
func (l *captureLogger) Error(msg string, args ...any) { l.add("error", msg, args) }

// find returns the most recent matching entry.
func (l *captureLogger) find(level, msg string) (logEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.entries) - 1; i >= 0; i-- {
		if e := l.entries[i]; e.level == level && e.msg == msg {
			return e, true
		}
	}
	return logEntry{}, false
}

type countingMetrics struct {
	mu              sync.Mutex
	updates         int
	updateErrors    int
	renders         int
	persistFailures map[string]int
	mismatches      int
	routesFound     int
	routesMissing   int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{persistFailures: map[string]int{}}
}

func (m *countingMetrics) ObserveUpdate(_ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	if err != nil {
		m.updateErrors++
	}
}

func (m *countingMetrics) IncRender() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renders++
}

func (m *countingMetrics) IncPersistFailure(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.persistFailures[op]++
}

func (m *countingMetrics) IncShapeMismatch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mismatches++
}

func (m *countingMetrics) ObserveRoute(found bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if found {
		m.routesFound++
	} else {
		m.routesMissing++
	}
}

func fieldView(field string) View {
	return func(s State) (any, error) {
		v, _ := s.Get(field)
		return fmt.Sprint(v), nil
	}
}
