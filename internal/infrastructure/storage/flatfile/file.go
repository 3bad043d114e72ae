package flatfile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"library-engine/internal/infrastructure/monitoring"
	"library-engine/internal/pkg/apperrors"
)

// File is one line-oriented backing file. It is read wholesale and rewritten
// wholesale; AppendLine adds a single record at the end.
type File struct {
	path   string
	name   string
	logger *slog.Logger
}

func NewFile(dir, name string, logger *slog.Logger) *File {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewFile, using default stderr handler")
	}
	return &File{
		path:   filepath.Join(dir, name),
		name:   name,
		logger: logger.With("component", "flatfile", "file", name),
	}
}

func (f *File) Name() string { return f.name }

func (f *File) Path() string { return f.path }

// ReadLines returns every line of the file. A missing file reads as empty.
func (f *File) ReadLines(ctx context.Context) (lines []string, err error) {
	start := time.Now()
	defer func() { f.record("read", start, err) }()

	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			f.logger.DebugContext(ctx, "Backing file does not exist yet, treating as empty")
			return nil, nil
		}
		f.logger.ErrorContext(ctx, "Failed to open backing file", slog.Any("error", err))
		return nil, apperrors.WrapStorageError(err, fmt.Sprintf("failed to open %s", f.name))
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		f.logger.ErrorContext(ctx, "Failed to read backing file", slog.Any("error", err))
		return nil, apperrors.WrapStorageError(err, fmt.Sprintf("failed to read %s", f.name))
	}
	return lines, nil
}

// WriteLines replaces the whole file.
func (f *File) WriteLines(ctx context.Context, lines []string) (err error) {
	start := time.Now()
	defer func() { f.record("write", start, err) }()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		f.logger.ErrorContext(ctx, "Failed to create data directory", slog.Any("error", err))
		return apperrors.WrapStorageError(err, fmt.Sprintf("failed to create directory for %s", f.name))
	}

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(f.path, []byte(b.String()), 0o644); err != nil {
		f.logger.ErrorContext(ctx, "Failed to write backing file", slog.Any("error", err))
		return apperrors.WrapStorageError(err, fmt.Sprintf("failed to write %s", f.name))
	}
	f.logger.DebugContext(ctx, "Rewrote backing file", "records", len(lines))
	return nil
}

func (f *File) AppendLine(ctx context.Context, line string) (err error) {
	start := time.Now()
	defer func() { f.record("append", start, err) }()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		f.logger.ErrorContext(ctx, "Failed to create data directory", slog.Any("error", err))
		return apperrors.WrapStorageError(err, fmt.Sprintf("failed to create directory for %s", f.name))
	}

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		f.logger.ErrorContext(ctx, "Failed to open backing file for append", slog.Any("error", err))
		return apperrors.WrapStorageError(err, fmt.Sprintf("failed to open %s for append", f.name))
	}
	defer file.Close()

	if _, err := file.WriteString(line + "\n"); err != nil {
		f.logger.ErrorContext(ctx, "Failed to append to backing file", slog.Any("error", err))
		return apperrors.WrapStorageError(err, fmt.Sprintf("failed to append to %s", f.name))
	}
	return nil
}

func (f *File) record(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	monitoring.RecordStorageOperation(f.name, operation, status, time.Since(start))
}
