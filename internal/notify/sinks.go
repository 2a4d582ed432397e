package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// WriterSink prints messages for a terminal, one per line.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink writes to w, typically stderr.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

var levelPrefix = map[Level]string{
	LevelSuccess: "✔",
	LevelError:   "✖",
	LevelInfo:    "•",
}

func (s *WriterSink) Deliver(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "%s %s\n", levelPrefix[msg.Level], msg.Text)
	return err
}

// LogSink records messages as structured log entries.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink logs through logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Deliver(ctx context.Context, msg Message) error {
	level := slog.LevelInfo
	if msg.Level == LevelError {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, "notification",
		slog.String("kind", string(msg.Level)),
		slog.String("text", msg.Text),
	)
	return nil
}

// Recorder keeps delivered messages in memory.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
}

func (r *Recorder) Deliver(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

// Messages returns a copy of everything delivered so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}

// Texts returns the delivered texts of one level.
func (r *Recorder) Texts(level Level) []string {
	var out []string
	for _, m := range r.Messages() {
		if m.Level == level {
			out = append(out, m.Text)
		}
	}
	return out
}

// Reset forgets recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = nil
}
