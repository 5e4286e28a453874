// Package ledger keeps an append-only record of coin movements as hourly
// zstd-compressed JSONL segments.
package ledger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"teahouse.bot/internal/teahouse/model"
)

const (
	DefaultPrefix = "ledger"

	segmentExt = ".jsonl.zst"
	hourLayout = "2006-01-02-15"
)

type Writer struct {
	baseDir  string
	prefix   string
	now      func() time.Time
	onRotate func(path string)

	mu      sync.Mutex
	curHour string
	curPath string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

type Option func(*Writer)

func WithClock(now func() time.Time) Option { return func(w *Writer) { w.now = now } }

// OnRotate is called with the path of every segment the writer closes.
func OnRotate(fn func(path string)) Option { return func(w *Writer) { w.onRotate = fn } }

func WithPrefix(prefix string) Option { return func(w *Writer) { w.prefix = prefix } }

func NewWriter(baseDir string, opts ...Option) *Writer {
	w := &Writer{baseDir: baseDir, prefix: DefaultPrefix, now: time.Now}
	for _, o := range opts {
		o(w)
	}
	return w
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

// Append writes e, filling in a uuid v7 id and the time when unset.
func (w *Writer) Append(e model.LedgerEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now().UTC()
	if e.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		e.ID = id.String()
	}
	if e.Time.IsZero() {
		e.Time = now
	}

	hour := now.Format(hourLayout)
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.enc.Flush()
}

func (w *Writer) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	p := w.pathForHour(hour)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 32*1024)
	w.curHour = hour
	w.curPath = p
	return nil
}

func (w *Writer) closeLocked() error {
	if w.f == nil {
		return nil
	}
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	_ = w.f.Close()
	w.f = nil
	w.w = nil
	closed := w.curPath
	w.curHour, w.curPath = "", ""
	if w.onRotate != nil && err1 == nil {
		w.onRotate(closed)
	}
	return err1
}

func (w *Writer) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s%s", w.prefix, hour, segmentExt))
}
