package logger

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// DefaultFlushInterval is how often buffered log lines reach the file
	DefaultFlushInterval = 2 * time.Second

	fileBufferSize = 32 * 1024
)

// fileWriter appends log lines to a size-rotated file through a buffer that
// is flushed periodically and on Close. It is safe for concurrent use.
type fileWriter struct {
	mu  sync.Mutex
	out *lumberjack.Logger
	buf *bufio.Writer

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// newFileWriter opens cfg.Path for appending, creating it with mode 0600.
// A zero interval disables the periodic flush.
func newFileWriter(cfg *FileOutput, interval time.Duration) (*fileWriter, error) {
	out := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxAge,
		MaxBackups: cfg.MaxRotatedFiles,
		Compress:   cfg.Compress,
	}
	// lumberjack opens lazily; an empty write surfaces a bad path now
	if _, err := out.Write(nil); err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", cfg.Path, err)
	}

	w := &fileWriter{
		out:  out,
		buf:  bufio.NewWriterSize(out, fileBufferSize),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	if interval <= 0 {
		close(w.done)
		return w, nil
	}

	go func() {
		defer close(w.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-w.stop:
				return
			case <-ticker.C:
				// a failing flush shows up again on Close
				_ = w.Flush()
			}
		}
	}()
	return w, nil
}

func (w *fileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf == nil {
		return 0, os.ErrClosed
	}
	return w.buf.Write(p)
}

// Flush hands buffered lines to the file
func (w *fileWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf == nil {
		return nil
	}
	return w.buf.Flush()
}

// Rotate flushes and starts a new file, keeping the old one as a backup
func (w *fileWriter) Rotate() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf == nil {
		return os.ErrClosed
	}
	return errors.Join(w.buf.Flush(), w.out.Rotate())
}

// Close stops the flush loop, then flushes and closes the file.
// Later calls return nil.
func (w *fileWriter) Close() error {
	w.mu.Lock()
	if w.buf == nil {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf == nil {
		return nil
	}

	err := errors.Join(w.buf.Flush(), w.out.Close())
	w.buf = nil
	w.out = nil
	if err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}
