// Package logging configures slog for the forager binaries: one JSON object
// per line, optionally indented for interactive use.
package logging

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// Options controls handler construction.
type Options struct {
	Level slog.Leveler
	// Pretty indents each record. Meant for a human watching a terminal;
	// leave off when logs go to a file.
	Pretty bool
}

// New returns a logger writing line-delimited JSON to w.
func New(w io.Writer, opts Options) *slog.Logger {
	return slog.New(newHandler(w, opts))
}

// handler is a minimal slog.Handler geared toward CLI output. Groups are
// flattened into dotted keys; nesting buys nothing for grep. Not built for
// throughput; the binaries log a few lines per episode at most.
type handler struct {
	w      io.Writer
	mu     *sync.Mutex
	level  slog.Leveler
	pretty bool

	// attrs are already fully qualified with the group prefix they were
	// attached under.
	attrs  []slog.Attr
	prefix string
}

func newHandler(w io.Writer, opts Options) *handler {
	var level slog.Leveler = slog.LevelInfo
	if opts.Level != nil {
		level = opts.Level
	}
	return &handler{
		w:      w,
		mu:     &sync.Mutex{},
		level:  level,
		pretty: opts.Pretty,
	}
}

func (h *handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *handler) Handle(_ context.Context, r slog.Record) error {
	payload := make(map[string]any, len(h.attrs)+r.NumAttrs()+3)

	when := r.Time
	if when.IsZero() {
		when = time.Now()
	}
	payload["time"] = when.Format(time.RFC3339)
	payload["level"] = r.Level.String()
	payload["msg"] = r.Message

	for _, a := range h.attrs {
		addAttr(payload, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(payload, h.prefix, a)
		return true
	})

	var (
		b   []byte
		err error
	)
	if h.pretty {
		b, err = json.MarshalIndent(payload, "", "  ")
	} else {
		b, err = json.Marshal(payload)
	}
	if err != nil {
		// Never drop a record over an unmarshalable attr.
		b = []byte(`{"level":` + strconv.Quote(r.Level.String()) + `,"msg":` + strconv.Quote(r.Message) + `}`)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.w.Write(append(b, '\n'))
	return err
}

func addAttr(dst map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()

	key := a.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	} else if prefix != "" {
		key = prefix
	}

	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			if ga.Key == "" {
				continue
			}
			addAttr(dst, key, ga)
		}
		return
	}

	if key == "" {
		return
	}
	dst[key] = attrValue(a.Value)
}

func attrValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindAny:
		return v.Any()
	default:
		return v.String()
	}
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	qualified := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	qualified = append(qualified, h.attrs...)
	for _, a := range attrs {
		if h.prefix != "" && a.Key != "" {
			a.Key = h.prefix + "." + a.Key
		}
		qualified = append(qualified, a)
	}
	clone.attrs = qualified
	return &clone
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	if h.prefix != "" {
		clone.prefix = h.prefix + "." + name
	} else {
		clone.prefix = name
	}
	return &clone
}
