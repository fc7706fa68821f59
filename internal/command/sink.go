// Package command implements the NDJSON command record catalogue and
// sink abstraction (spec.md §3.5, §4.9, §6). Grounded on the teacher's
// output-sink split (KTStephano-GVM vm/vm.go's stdout/stdin io.Writer
// fields, and run.go's debugOut *strings.Builder capture used by
// tests), generalized from raw-byte streams to structured, field-order
// -fixed JSON lines, and on spec.md §9's "global tracer/I/O singleton
// -> injected sink" design note.
package command

import (
	"bufio"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// Sink is the thin abstraction spec.md §4.9 names: one operation,
// write_line. Implementations: file, stdout, in-memory buffer, and a
// websocket broadcaster (internal/command/wssink.go).
type Sink interface {
	WriteLine(line string) error
}

// WriterSink adapts any io.Writer (file, os.Stdout, a bytes.Buffer) to
// a Sink, newline-terminating each record (spec.md §4.9: "each record
// is a single line, terminated by \n").
type WriterSink struct {
	mu sync.Mutex
	w  *bufio.Writer
	f  io.Closer
}

// NewWriterSink wraps w. If w also implements io.Closer, Close will
// close it; this lets NewFileSink reuse the same plumbing.
func NewWriterSink(w io.Writer) *WriterSink {
	s := &WriterSink{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		s.f = c
	}
	return s
}

// NewFileSink opens (or creates/truncates) path for writing.
func NewFileSink(path string) (*WriterSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening command sink file %q", path)
	}
	return NewWriterSink(f), nil
}

// NewStdoutSink writes to the process's standard output.
func NewStdoutSink() *WriterSink {
	return NewWriterSink(os.Stdout)
}

func (s *WriterSink) WriteLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.WriteString(line); err != nil {
		return errors.Wrap(err, "writing command line")
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return errors.Wrap(err, "writing command line terminator")
	}
	return s.w.Flush()
}

// Close flushes and, if the underlying writer is closable, closes it.
func (s *WriterSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Flush(); err != nil {
		return err
	}
	if s.f != nil {
		return s.f.Close()
	}
	return nil
}

// BufferSink accumulates lines in memory — the "push-to-in-memory
// buffer (WASM export)" transport named in spec.md §4.9, and the
// transport package-level tests use to assert on exact emitted lines.
type BufferSink struct {
	mu    sync.Mutex
	lines []string
}

func NewBufferSink() *BufferSink { return &BufferSink{} }

func (s *BufferSink) WriteLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, line)
	return nil
}

// Lines returns a copy of all lines written so far, in order.
func (s *BufferSink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}

// CallbackSink adapts an arbitrary host callback to a Sink — the
// "write-to-embedded-serial"/host on_command surface (spec.md §6 Host
// API: on_command(callback)).
type CallbackSink struct {
	Fn func(line string)
}

func (s *CallbackSink) WriteLine(line string) error {
	s.Fn(line)
	return nil
}

// MultiSink fans a single emitted line out to several sinks, e.g.
// writing to a file while also feeding an on_command callback.
type MultiSink struct {
	Sinks []Sink
}

func (s *MultiSink) WriteLine(line string) error {
	for _, sub := range s.Sinks {
		if err := sub.WriteLine(line); err != nil {
			return err
		}
	}
	return nil
}
