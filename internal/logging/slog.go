// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/errors"
)

const messageKey = "message"

// SlogConfig sets the level of each module. Records are attributed to a
// module by their "module" attribute.
type SlogConfig struct {
	DefaultLevel slog.Level
	ModuleLevels map[string]slog.Level
}

// ParseLevels parses "info" or "error;rpc=debug;batch=info". A bare level
// sets the default.
func ParseLevels(s string) (SlogConfig, error) {
	cfg := SlogConfig{DefaultLevel: slog.LevelInfo, ModuleLevels: map[string]slog.Level{}}
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' }) {
		module, level, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			module, level = "", module
		}

		var l slog.Level
		if err := l.UnmarshalText([]byte(level)); err != nil {
			return cfg, errors.BadRequest.WithFormat("invalid log level %q: %w", level, err)
		}

		if module == "" || module == "*" {
			cfg.DefaultLevel = l
		} else {
			cfg.ModuleLevels[strings.ToLower(module)] = l
		}
	}
	return cfg, nil
}

// ConsoleSlogWriter wraps w in zerolog's console writer. The handler writes
// JSON, which the console writer renders as a human readable line.
func ConsoleSlogWriter(w io.Writer, color bool) io.Writer {
	return &zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    !color,
		TimeFormat: time.RFC3339,
		FormatLevel: func(i interface{}) string {
			if ll, ok := i.(string); ok {
				return strings.ToUpper(ll)
			}
			return "????"
		},
		FormatMessage: func(i interface{}) string {
			s, ok := i.(string)
			if ok {
				return s
			}
			return fmt.Sprint(i)
		},
	}
}

// NewSlogHandler returns a JSON handler writing to w, filtered by module.
func NewSlogHandler(cfg SlogConfig, w io.Writer) (slog.Handler, error) {
	lowestLevel := cfg.DefaultLevel
	modules := map[string]slog.Level{}
	for module, level := range cfg.ModuleLevels {
		modules[strings.ToLower(module)] = level
		if level < lowestLevel {
			lowestLevel = level
		}
	}

	opts := &slog.HandlerOptions{
		Level: lowestLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 || a.Key != slog.MessageKey {
				return a
			}
			return slog.Attr{Key: messageKey, Value: a.Value}
		},
	}

	return &logHandler{
		handler:      slog.NewJSONHandler(w, opts),
		defaultLevel: cfg.DefaultLevel,
		lowestLevel:  lowestLevel,
		modules:      modules,
	}, nil
}

// NewLogger returns a logger for the given format (plain or json) and levels.
func NewLogger(format, levels string, w io.Writer, color bool) (*slog.Logger, error) {
	cfg, err := ParseLevels(levels)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(format) {
	case "", "text", "plain":
		w = ConsoleSlogWriter(w, color)
	case "json":
	default:
		return nil, errors.BadRequest.WithFormat("log format %q is not supported", format)
	}

	h, err := NewSlogHandler(cfg, w)
	if err != nil {
		return nil, err
	}
	return slog.New(h), nil
}

type logHandler struct {
	handler      slog.Handler
	defaultLevel slog.Level
	lowestLevel  slog.Level
	modules      map[string]slog.Level
	attrs        []slog.Attr
}

func (h *logHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	i := *h
	i.handler = h.handler.WithAttrs(attrs)
	i.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &i
}

func (h *logHandler) WithGroup(name string) slog.Handler {
	i := *h
	i.handler = h.handler.WithGroup(name)
	return &i
}

func (h *logHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level < h.lowestLevel {
		return false
	}
	return h.handler.Enabled(ctx, level)
}

func (h *logHandler) Handle(ctx context.Context, record slog.Record) error {
	// Precedence: record, context, logger
	level, ok := h.levelFor(record.Attrs)
	if !ok {
		level, ok = h.levelFor(eachAttr(Attrs(ctx)))
	}
	if !ok {
		level, ok = h.levelFor(eachAttr(h.attrs))
	}
	if !ok {
		level = h.defaultLevel
	}
	if record.Level < level {
		return nil
	}

	if attrs := Attrs(ctx); len(attrs) > 0 {
		record = record.Clone()
		record.AddAttrs(attrs...)
	}
	return h.handler.Handle(ctx, record)
}

func eachAttr(attrs []slog.Attr) func(func(slog.Attr) bool) {
	return func(fn func(slog.Attr) bool) {
		for _, a := range attrs {
			if !fn(a) {
				return
			}
		}
	}
}

func (h *logHandler) levelFor(fn func(func(slog.Attr) bool)) (level slog.Level, found bool) {
	fn(func(a slog.Attr) bool {
		if a.Key != "module" {
			return true
		}
		level, found = h.modules[strings.ToLower(a.Value.String())]
		return false
	})
	return level, found
}
