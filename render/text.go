// Package render provides a Renderer that prints view trees as text, for
// terminals, logs and tests.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// Text writes each rendered frame to an io.Writer. With diffs enabled every
// frame after the first is written as an inline diff against the previous
// one: deletions as [-text-] and insertions as {+text+}.
type Text struct {
	mu     sync.Mutex
	w      io.Writer
	diff   bool
	prev   string
	frames int
}

type Option func(*Text)

// WithDiff switches later frames to inline diffs.
func WithDiff(enabled bool) Option {
	return func(t *Text) {
		t.diff = enabled
	}
}

func NewText(w io.Writer, opts ...Option) *Text {
	t := &Text{w: w}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

// Render formats tree and writes it prefixed with the element.
func (t *Text) Render(tree any, element any) error {
	frame, err := Format(tree)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	out := frame
	if t.diff && t.frames > 0 {
		out = Diff(t.prev, frame)
	}
	t.prev = frame
	t.frames++
	if t.w == nil {
		return nil
	}
	if _, err := fmt.Fprintf(t.w, "%v: %s\n", element, out); err != nil {
		return fmt.Errorf("render: write frame %d: %w", t.frames, err)
	}
	return nil
}

// Frames returns how many trees were rendered.
func (t *Text) Frames() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frames
}

// Last returns the most recent frame, undiffed.
func (t *Text) Last() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.prev
}

// Format turns a view tree into text. Strings, byte slices and Stringers are
// used as is, everything else is encoded as JSON.
func Format(tree any) (string, error) {
	switch v := tree.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	case error:
		return v.Error(), nil
	}
	raw, err := json.Marshal(tree)
	if err != nil {
		return "", fmt.Errorf("render: format %T: %w", tree, err)
	}
	return string(raw), nil
}

// Diff renders the changes from a to b inline.
func Diff(a, b string) string {
	dmp := diffpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(a, b, false))
	var sb strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffpatch.DiffDelete:
			sb.WriteString("[-" + d.Text + "-]")
		case diffpatch.DiffInsert:
			sb.WriteString("{+" + d.Text + "+}")
		default:
			sb.WriteString(d.Text)
		}
	}
	return sb.String()
}
