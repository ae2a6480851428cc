package slogobs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Handler is a slog.Handler that renders records in one of the supported
// formats and understands the TRACE level.
type Handler struct {
	format Format
	level  slog.Level
	output io.Writer
	mu     *sync.Mutex
	attrs  []slog.Attr
	groups []string
}

// HandlerOptions configures a Handler.
type HandlerOptions struct {
	Format Format
	Level  slog.Level
	Output io.Writer
}

// NewHandler creates a new Handler with the given options.
func NewHandler(opts HandlerOptions) *Handler {
	if opts.Output == nil {
		opts.Output = io.Discard
	}
	if opts.Format == "" {
		opts.Format = FormatCompact
	}
	return &Handler{
		format: opts.Format,
		level:  opts.Level,
		output: opts.Output,
		mu:     &sync.Mutex{},
	}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	var line []byte
	var err error

	switch h.format {
	case FormatJSON:
		line, err = h.renderJSON(record)
	default:
		line, err = h.renderCompact(record)
	}
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.output.Write(line)
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append([]slog.Attr{}, h.attrs...)
	for _, attr := range attrs {
		attr.Key = h.prefix(attr.Key)
		clone.attrs = append(clone.attrs, attr)
	}
	return &clone
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

// renderCompact writes "2006-01-02 15:04:05 LEVEL message {attrs}".
func (h *Handler) renderCompact(record slog.Record) ([]byte, error) {
	buf := make([]byte, 0, 256)
	buf = append(buf, record.Time.Format("2006-01-02 15:04:05")...)
	buf = append(buf, fmt.Sprintf(" %5s ", levelString(record.Level))...)
	buf = append(buf, record.Message...)

	if attrs := h.collectAttrs(record); len(attrs) > 0 {
		encoded, err := json.Marshal(attrs)
		if err != nil {
			return nil, err
		}
		buf = append(buf, ' ')
		buf = append(buf, encoded...)
	}

	return append(buf, '\n'), nil
}

func (h *Handler) renderJSON(record slog.Record) ([]byte, error) {
	data := h.collectAttrs(record)
	data["time"] = record.Time.Format("2006-01-02T15:04:05.000Z07:00")
	data["level"] = levelString(record.Level)
	data["msg"] = record.Message

	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return append(encoded, '\n'), nil
}

func (h *Handler) collectAttrs(record slog.Record) map[string]any {
	attrs := make(map[string]any, len(h.attrs)+record.NumAttrs())
	for _, attr := range h.attrs {
		addAttr(attrs, attr.Key, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		addAttr(attrs, h.prefix(attr.Key), attr)
		return true
	})
	return attrs
}

// prefix qualifies key with the open groups, outermost first.
func (h *Handler) prefix(key string) string {
	for i := len(h.groups) - 1; i >= 0; i-- {
		key = h.groups[i] + "." + key
	}
	return key
}

func addAttr(attrs map[string]any, key string, attr slog.Attr) {
	value := attr.Value.Resolve()
	switch value.Kind() {
	case slog.KindDuration:
		attrs[key] = value.Duration().String()
	case slog.KindTime:
		attrs[key] = value.Time().Format("2006-01-02T15:04:05.000Z07:00")
	default:
		attrs[key] = value.Any()
	}
}
