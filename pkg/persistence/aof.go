package persistence

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// AOFWriter appends frames to the preset log. Each Append is committed before
// it returns: flushed to the file, and fsynced too when syncEach is set.
type AOFWriter struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	buf      *bufio.Writer
	frames   *FrameWriter
	syncEach bool
}

func openLog(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
}

// NewAOFWriter opens or creates the log at path.
func NewAOFWriter(path string, syncEach bool) (*AOFWriter, error) {
	file, err := openLog(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open preset log: %w", err)
	}
	a := &AOFWriter{path: path, syncEach: syncEach}
	a.attach(file)
	return a, nil
}

func (a *AOFWriter) attach(file *os.File) {
	a.file = file
	if a.buf == nil {
		a.buf = bufio.NewWriter(file)
		a.frames = NewFrameWriter(a.buf)
		return
	}
	a.buf.Reset(file)
}

func (a *AOFWriter) commitLocked(durable bool) error {
	if err := a.buf.Flush(); err != nil {
		return err
	}
	if !durable {
		return nil
	}
	return a.file.Sync()
}

// Append writes one frame and commits it.
func (a *AOFWriter) Append(op OpCode, payload []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.frames.WriteFrame(op, payload); err != nil {
		return err
	}
	return a.commitLocked(a.syncEach)
}

// Sync flushes and fsyncs regardless of the append policy.
func (a *AOFWriter) Sync() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.commitLocked(true)
}

// Close syncs and closes the file.
func (a *AOFWriter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return errors.Join(a.commitLocked(true), a.file.Close())
}

// TruncateAt cuts the log to size bytes so new frames follow the last good one.
func (a *AOFWriter) TruncateAt(size int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.buf.Reset(a.file)
	if err := a.file.Truncate(size); err != nil {
		return err
	}
	_, err := a.file.Seek(0, io.SeekEnd)
	return err
}

// Path returns the file path.
func (a *AOFWriter) Path() string { return a.path }

// Rewrite builds a replacement log with fill, then swaps it in with a rename.
// On any error the current log is left untouched.
func (a *AOFWriter) Rewrite(fill func(*FrameWriter) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	tmpPath := a.path + ".rewrite"
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create rewrite file: %w", err)
	}
	w := bufio.NewWriter(tmp)
	err = fill(NewFrameWriter(w))
	if err == nil {
		err = w.Flush()
	}
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write rewrite file: %w", err)
	}

	_ = a.buf.Flush()
	_ = a.file.Close()
	if err := os.Rename(tmpPath, a.path); err != nil {
		_ = os.Remove(tmpPath)
		if old, oerr := openLog(a.path); oerr == nil {
			a.attach(old)
		}
		return fmt.Errorf("failed to replace preset log: %w", err)
	}
	file, err := openLog(a.path)
	if err != nil {
		return fmt.Errorf("failed to reopen preset log after rewrite: %w", err)
	}
	a.attach(file)
	return nil
}
