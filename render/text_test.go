package render_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	nanny "github.com/goliatone/go-nanny"
	"github.com/goliatone/go-nanny/render"
)

var _ nanny.Renderer = (*render.Text)(nil)

func TestTextWritesFrames(t *testing.T) {
	var buf bytes.Buffer
	r := render.NewText(&buf)
	if err := r.Render("hello", "body"); err != nil {
		t.Fatalf("render: %v", err)
	}
	if err := r.Render(map[string]any{"a": 1}, "#app"); err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "body: hello\n#app: {\"a\":1}\n"
	if buf.String() != want {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}
	if r.Frames() != 2 || r.Last() != `{"a":1}` {
		t.Fatalf("unexpected state frames=%d last=%q", r.Frames(), r.Last())
	}
}

func TestTextDiffsAfterFirstFrame(t *testing.T) {
	var buf bytes.Buffer
	r := render.NewText(&buf, render.WithDiff(true))
	r.Render("count: 1", "body")
	r.Render("count: 2", "body")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "body: count: 1" {
		t.Fatalf("first frame should be printed whole, got %q", lines[0])
	}
	if lines[1] != "body: count: [-1-]{+2+}" {
		t.Fatalf("unexpected diff line %q", lines[1])
	}
	if r.Last() != "count: 2" {
		t.Fatalf("Last should hold the undiffed frame, got %q", r.Last())
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"s", "s"},
		{[]byte("b"), "b"},
		{errors.New("e"), "e"},
		{[]int{1, 2}, "[1,2]"},
		{nanny.Record(map[string]any{"x": true}), `{"x":true}`},
	}
	for _, tc := range cases {
		got, err := render.Format(tc.in)
		if err != nil || got != tc.want {
			t.Fatalf("Format(%v): expected %q, got %q (%v)", tc.in, tc.want, got, err)
		}
	}
	if _, err := render.Format(func() {}); err == nil {
		t.Fatalf("expected error for unencodable tree")
	}
}

func TestTextAsNannyRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := render.NewText(&buf)
	n, err := nanny.New(nanny.Record(map[string]any{"n": 1}),
		nanny.WithRenderer(r),
		nanny.WithElement("#counter"),
		nanny.WithTemplate(func(s nanny.State) any { return s }),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	n.Update(nanny.Increment("n"))
	if r.Last() != `{"n":2}` || r.Frames() != 2 {
		t.Fatalf("unexpected frames %q", buf.String())
	}
}
