// Package persistence keeps named node-tree presets in a CRC-framed
// append-only log. Every change is one frame; opening the store replays the
// log into an ordered in-memory index and cuts off a torn or corrupt tail.
package persistence

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/btree"

	"github.com/sanonone/noisegraph/pkg/metrics"
	"github.com/sanonone/noisegraph/pkg/nodetree"
	"github.com/sanonone/noisegraph/pkg/noise"
	"github.com/sanonone/noisegraph/pkg/simd"
)

var (
	// ErrPresetNotFound is returned for names the store does not hold.
	ErrPresetNotFound = errors.New("preset not found")
	// ErrInvalidPreset is returned by Put for an empty name or an encoded
	// tree that does not decode.
	ErrInvalidPreset = errors.New("invalid preset")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("preset store closed")
)

// Preset is a named encoded node tree.
type Preset struct {
	Name        string    `json:"name"`
	Encoded     string    `json:"encoded"`
	Description string    `json:"description,omitempty"`
	Updated     time.Time `json:"updated"`
}

// Options configures a Store.
type Options struct {
	// SyncOnWrite fsyncs after every Put and Delete. When false, writes are
	// flushed to the OS but durability waits for Sync or Close.
	SyncOnWrite bool
	// CompactMinStale is the number of superseded frames that, once they
	// also outnumber live presets, triggers a compaction after a write.
	// Zero disables automatic compaction.
	CompactMinStale int
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{
		SyncOnWrite:     true,
		CompactMinStale: 256,
	}
}

// Stats describes the state of the log.
type Stats struct {
	Presets int
	Frames  int
	Stale   int
}

// Store holds presets ordered by name.
type Store struct {
	mu     sync.RWMutex
	aof    *AOFWriter
	index  *btree.BTreeG[Preset]
	opts   Options
	frames int
	closed bool
}

func presetLess(a, b Preset) bool { return a.Name < b.Name }

// Open opens or creates the store at path and replays its log.
func Open(path string, opts Options) (*Store, error) {
	aof, err := NewAOFWriter(path, opts.SyncOnWrite)
	if err != nil {
		return nil, err
	}
	s := &Store{
		aof:   aof,
		index: btree.NewBTreeG[Preset](presetLess),
		opts:  opts,
	}
	if err := s.replay(); err != nil {
		_ = aof.Close()
		return nil, err
	}
	slog.Info("[Presets] Store opened", "path", path, "presets", s.index.Len(), "frames", s.frames)
	return s, nil
}

// replay rebuilds the index from the log. Reading stops at the first frame
// that fails validation; the file is truncated to the last good frame.
func (s *Store) replay() error {
	f, err := os.Open(s.aof.Path())
	if err != nil {
		return fmt.Errorf("failed to open preset log for replay: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var offset int64
	for {
		op, payload, n, err := ReadFrame(r)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			slog.Warn("[Presets] Corrupt log tail, truncating",
				"path", s.aof.Path(), "offset", offset, "error", err)
			metrics.PresetOperations.WithLabelValues("recover", "truncated").Inc()
			return s.aof.TruncateAt(offset)
		}
		offset += int64(n)
		s.frames++
		s.apply(op, payload)
	}
}

// apply updates the index with one validated frame. Frames whose payload does
// not parse are skipped; their checksum proves they were written that way.
func (s *Store) apply(op OpCode, payload []byte) {
	switch op {
	case OpPut:
		var p Preset
		if err := json.Unmarshal(payload, &p); err != nil || p.Name == "" {
			slog.Warn("[Presets] Skipping unreadable put frame", "error", err)
			metrics.PresetOperations.WithLabelValues("recover", "skipped").Inc()
			return
		}
		s.index.Set(p)
	case OpDelete:
		s.index.Delete(Preset{Name: string(payload)})
	}
}

// Put stores p, replacing any preset with the same name. A zero Updated is
// set to the current time.
func (s *Store) Put(p Preset) error {
	if err := validate(p); err != nil {
		metrics.PresetOperations.WithLabelValues("put", "invalid").Inc()
		return err
	}
	if p.Updated.IsZero() {
		p.Updated = time.Now().UTC()
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal preset %q: %w", p.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(OpPut, payload); err != nil {
		metrics.PresetOperations.WithLabelValues("put", "error").Inc()
		return err
	}
	s.index.Set(p)
	metrics.PresetOperations.WithLabelValues("put", "ok").Inc()
	return s.maybeCompactLocked()
}

func validate(p Preset) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidPreset)
	}
	if _, _, err := nodetree.DecodeNodeData(p.Encoded); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidPreset, p.Name, err)
	}
	return nil
}

// Get returns the preset called name.
func (s *Store) Get(name string) (Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Preset{}, ErrClosed
	}
	p, ok := s.index.Get(Preset{Name: name})
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrPresetNotFound, name)
	}
	return p, nil
}

// Instantiate builds the node tree of the preset called name at level.
func (s *Store) Instantiate(name string, level simd.Level) (*noise.SmartNode, error) {
	p, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	return nodetree.NewFromEncodedNodeTree(p.Encoded, level)
}

// Delete removes the preset called name.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.index.Get(Preset{Name: name}); !ok {
		return fmt.Errorf("%w: %q", ErrPresetNotFound, name)
	}
	if err := s.write(OpDelete, []byte(name)); err != nil {
		metrics.PresetOperations.WithLabelValues("delete", "error").Inc()
		return err
	}
	s.index.Delete(Preset{Name: name})
	metrics.PresetOperations.WithLabelValues("delete", "ok").Inc()
	return s.maybeCompactLocked()
}

// List returns the presets whose names start with prefix, ordered by name.
func (s *Store) List(prefix string) ([]Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	var out []Preset
	s.index.Ascend(Preset{Name: prefix}, func(p Preset) bool {
		if !strings.HasPrefix(p.Name, prefix) {
			return false
		}
		out = append(out, p)
		return true
	})
	return out, nil
}

// Stats reports preset and frame counts.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statsLocked()
}

func (s *Store) statsLocked() Stats {
	n := s.index.Len()
	return Stats{Presets: n, Frames: s.frames, Stale: s.frames - n}
}

func (s *Store) write(op OpCode, payload []byte) error {
	if s.closed {
		return ErrClosed
	}
	if err := s.aof.Append(op, payload); err != nil {
		return err
	}
	s.frames++
	return nil
}

func (s *Store) maybeCompactLocked() error {
	st := s.statsLocked()
	if s.opts.CompactMinStale <= 0 || st.Stale < s.opts.CompactMinStale || st.Stale <= st.Presets {
		return nil
	}
	return s.compactLocked()
}

// Compact rewrites the log with one put frame per live preset.
func (s *Store) Compact() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.compactLocked()
}

func (s *Store) compactLocked() error {
	err := s.aof.Rewrite(func(fw *FrameWriter) error {
		var werr error
		s.index.Scan(func(p Preset) bool {
			payload, err := json.Marshal(p)
			if err == nil {
				err = fw.WriteFrame(OpPut, payload)
			}
			werr = err
			return err == nil
		})
		return werr
	})
	if err != nil {
		metrics.PresetOperations.WithLabelValues("compact", "error").Inc()
		return err
	}
	before := s.frames
	s.frames = s.index.Len()
	metrics.PresetOperations.WithLabelValues("compact", "ok").Inc()
	slog.Info("[Presets] Log compacted", "frames_before", before, "frames_after", s.frames)
	return nil
}

// Sync flushes buffered frames and fsyncs the log.
func (s *Store) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.aof.Sync()
}

// Close syncs and closes the log. Further writes fail with ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.aof.Close()
}
