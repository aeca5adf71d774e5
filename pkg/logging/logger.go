// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package logging builds the slog loggers stevedore components write
// through.
//
// The CLI default is a text handler on stderr, keeping stdout free for
// solve results. Setting Config.LogDir adds a dated JSON log file next
// to the stderr stream, so a long-running serve process keeps a
// machine-readable record:
//
//	logger := logging.New(logging.Config{
//	    Level:   logging.LevelInfo,
//	    LogDir:  "~/.stevedore/logs",
//	    Service: "stevedore",
//	})
//	defer logger.Close()
//	logger.Info("solve started", "problem", doc.Name)
//
// The solver and telemetry packages accept *slog.Logger; Slog() hands
// them the underlying logger.
//
// # Thread Safety
//
// Logger is safe for concurrent use.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Config selects the logging destinations. The zero value writes
// Info-and-above text records to stderr.
type Config struct {
	// Level is the minimum severity to emit. Default LevelInfo.
	Level Level

	// LogDir, when set, adds a "{Service}_{YYYY-MM-DD}.log" JSON file
	// in this directory. A leading ~ expands to the home directory;
	// missing directories are created 0750.
	LogDir string

	// Service is stamped on every record as the "service" attribute.
	// It also names the log file; an empty Service files logs under
	// "stevedore".
	Service string

	// JSON switches the stderr stream from text to JSON records. File
	// logs are always JSON.
	JSON bool

	// Quiet drops the stderr stream, leaving only the file (if any).
	Quiet bool
}

// Logger wraps a slog.Logger whose records fan out to stderr and an
// optional dated log file. Close releases the file handle; With derives
// child loggers that share it.
type Logger struct {
	slog   *slog.Logger
	config Config

	mu   sync.Mutex
	file *os.File
}

// New builds a Logger for the given config. Failures to create or open
// the log file are not fatal: the logger silently falls back to stderr
// only, because refusing to start over a log path would be worse than
// losing the file copy.
func New(config Config) *Logger {
	opts := &slog.HandlerOptions{Level: config.Level.toSlogLevel()}
	l := &Logger{config: config}

	var handlers []slog.Handler
	if !config.Quiet {
		handlers = append(handlers, stderrHandler(config, opts))
	}
	if config.LogDir != "" {
		if fh, file := fileHandler(config, opts); fh != nil {
			l.file = file
			handlers = append(handlers, fh)
		}
	}

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		// Quiet with no usable file still needs somewhere to put
		// errors.
		handler = slog.NewTextHandler(os.Stderr, opts)
	case 1:
		handler = handlers[0]
	default:
		handler = &multiHandler{handlers: handlers}
	}

	if config.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", config.Service)})
	}

	l.slog = slog.New(handler)
	return l
}

// Default returns a stderr-only Logger at Info level with the
// "stevedore" service attribute.
func Default() *Logger {
	return New(Config{Level: LevelInfo, Service: "stevedore"})
}

// stderrHandler builds the terminal-facing handler.
func stderrHandler(config Config, opts *slog.HandlerOptions) slog.Handler {
	if config.JSON {
		return slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.NewTextHandler(os.Stderr, opts)
}

// fileHandler opens today's log file under config.LogDir and returns a
// JSON handler on it. Returns nils when the directory or file cannot be
// prepared.
func fileHandler(config Config, opts *slog.HandlerOptions) (slog.Handler, *os.File) {
	dir := expandPath(config.LogDir)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, nil
	}

	service := config.Service
	if service == "" {
		service = "stevedore"
	}
	name := fmt.Sprintf("%s_%s.log", service, time.Now().Format("2006-01-02"))

	file, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return nil, nil
	}
	return slog.NewJSONHandler(file, opts), file
}

// Debug logs at Debug level.
func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

// Info logs at Info level.
func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

// Warn logs at Warn level.
func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

// Error logs at Error level.
func (l *Logger) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}

// With returns a child Logger carrying the extra attributes on every
// record. The child shares the parent's file handle; close the parent,
// not the children.
//
//	runLogger := logger.With("run_id", res.RunID)
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:   l.slog.With(args...),
		config: l.config,
		file:   l.file,
	}
}

// Slog returns the underlying slog.Logger, the form the solver, server,
// and telemetry helpers accept.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Close syncs and closes the log file, if one is open. Safe to call
// more than once; later calls are no-ops.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	file := l.file
	l.file = nil

	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("sync log file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}

// multiHandler fans each record out to every destination handler, so
// stderr can stay human-readable text while the file gets JSON.
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// expandPath resolves a leading ~ against the home directory; other
// paths pass through unchanged.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
