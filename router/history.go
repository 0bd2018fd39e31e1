package router

import "sync"

// History records visited paths for back/forward navigation. It keeps a
// cursor into the entry list so Back and Forward move without discarding
// entries, and Push truncates anything ahead of the cursor.
type History struct {
	entries []string
	index   int
}

// NewHistory creates a history whose first entry is start.
func NewHistory(start string) *History {
	return &History{entries: []string{start}}
}

// Push records path as the newest entry.
func (h *History) Push(path string) {
	h.entries = append(h.entries[:h.index+1], path)
	h.index = len(h.entries) - 1
}

// Current returns the path under the cursor.
func (h *History) Current() string {
	if len(h.entries) == 0 {
		return ""
	}
	return h.entries[h.index]
}

// Back moves the cursor one entry back. It reports false at the oldest entry.
func (h *History) Back() (string, bool) {
	if h.index == 0 {
		return "", false
	}
	h.index--
	return h.entries[h.index], true
}

// Forward moves the cursor one entry forward. It reports false at the newest
// entry.
func (h *History) Forward() (string, bool) {
	if h.index >= len(h.entries)-1 {
		return "", false
	}
	h.index++
	return h.entries[h.index], true
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Entries returns a copy of the recorded paths, oldest first.
func (h *History) Entries() []string {
	return append([]string(nil), h.entries...)
}

// MemoryNavigator is an in-process navigation capability backed by History.
// Back and Forward notify subscribers the way a browser reports popstate.
type MemoryNavigator struct {
	mu          sync.Mutex
	history     *History
	subscribers map[int]func(string)
	nextID      int
}

// NewMemoryNavigator creates a navigator positioned at start.
func NewMemoryNavigator(start string) *MemoryNavigator {
	if start == "" {
		start = Root
	}
	return &MemoryNavigator{
		history:     NewHistory(start),
		subscribers: map[int]func(string){},
	}
}

// Current returns the path the navigator is positioned at.
func (n *MemoryNavigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.history.Current()
}

// PushPath records a user initiated navigation. Subscribers are not notified.
func (n *MemoryNavigator) PushPath(path string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.history.Push(path)
	return nil
}

// OnExternalNavigation registers fn for back/forward notifications and
// returns a function that removes it.
func (n *MemoryNavigator) OnExternalNavigation(fn func(path string)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	n.subscribers[id] = fn
	return func() {
		n.mu.Lock()
		delete(n.subscribers, id)
		n.mu.Unlock()
	}
}

// Back steps back and notifies subscribers with the new current path.
func (n *MemoryNavigator) Back() bool {
	n.mu.Lock()
	path, ok := n.history.Back()
	n.mu.Unlock()
	if ok {
		n.notify(path)
	}
	return ok
}

// Forward steps forward and notifies subscribers with the new current path.
func (n *MemoryNavigator) Forward() bool {
	n.mu.Lock()
	path, ok := n.history.Forward()
	n.mu.Unlock()
	if ok {
		n.notify(path)
	}
	return ok
}

// Entries returns the recorded history.
func (n *MemoryNavigator) Entries() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.history.Entries()
}

func (n *MemoryNavigator) notify(path string) {
	n.mu.Lock()
	fns := make([]func(string), 0, len(n.subscribers))
	for i := 0; i < n.nextID; i++ {
		if fn, ok := n.subscribers[i]; ok && fn != nil {
			fns = append(fns, fn)
		}
	}
	n.mu.Unlock()
	for _, fn := range fns {
		fn(path)
	}
}
