package nanny

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Sink receives state snapshots when debug is enabled.
type Sink interface {
	Log(State)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(State)

func (f SinkFunc) Log(s State) {
	if f != nil {
		f(s)
	}
}

// LoggerSink writes snapshots to logger at debug level.
func LoggerSink(logger Logger) Sink {
	return SinkFunc(func(s State) {
		logger.Debug("nanny state", "kind", s.Kind().String(), "state", s.String())
	})
}

type consoleSink struct {
	mu    sync.Mutex
	w     io.Writer
	label *color.Color
	body  *color.Color
	seq   int
}

// NewConsoleSink prints each snapshot to w. Colors are used only when w is a
// terminal.
func NewConsoleSink(w io.Writer) Sink {
	if w == nil {
		w = os.Stderr
	}
	label := color.New(color.FgCyan, color.Bold)
	body := color.New(color.FgWhite)
	if !isTerminal(w) {
		label.DisableColor()
		body.DisableColor()
	}
	return &consoleSink{w: w, label: label, body: body}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (s *consoleSink) Log(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	header := s.label.Sprintf("[nanny #%d %s]", s.seq, state.Kind())
	fmt.Fprintf(s.w, "%s %s\n", header, s.body.Sprint(state.String()))
}
