package r2s3

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"teahouse.bot/internal/persistence/ledger"
)

// shippedSuffix marks a segment whose current contents are in the bucket.
const shippedSuffix = ".shipped"

// Uploader puts one local file under key.
type Uploader interface {
	PutFile(ctx context.Context, key, localPath string) error
}

type Stats struct {
	Pending         int
	Shipped         uint64
	Failed          uint64
	Dropped         uint64
	LastShippedUnix int64
}

// Mirror ships closed ledger segments to a bucket, one at a time. Objects
// are keyed <prefix>/<stream>/dt=YYYY-MM-DD/<file>. Segments that were
// dropped or failed keep no marker and are picked up by the next Backfill.
type Mirror struct {
	up       Uploader
	prefix   string
	log      zerolog.Logger
	attempts int
	backoff  func(attempt int) time.Duration

	queue chan string
	wg    sync.WaitGroup

	mu    sync.Mutex
	stats Stats
}

type MirrorOption func(*Mirror)

// WithQueue sets how many segments may wait for upload.
func WithQueue(n int) MirrorOption { return func(m *Mirror) { m.queue = make(chan string, n) } }

func WithAttempts(n int) MirrorOption { return func(m *Mirror) { m.attempts = n } }

func WithBackoff(fn func(attempt int) time.Duration) MirrorOption {
	return func(m *Mirror) { m.backoff = fn }
}

func NewMirror(up Uploader, prefix string, logger zerolog.Logger, opts ...MirrorOption) *Mirror {
	m := &Mirror{
		up:       up,
		prefix:   strings.Trim(strings.ReplaceAll(prefix, "\\", "/"), "/"),
		log:      logger,
		attempts: 4,
		backoff:  func(attempt int) time.Duration { return time.Duration(attempt) * time.Second },
		queue:    make(chan string, 64),
	}
	for _, o := range opts {
		o(m)
	}
	if m.attempts <= 0 {
		m.attempts = 1
	}
	m.wg.Add(1)
	go m.run()
	return m
}

// Enqueue queues a segment the ledger writer just closed. It never blocks:
// the writer holds its lock while calling it.
func (m *Mirror) Enqueue(segment string) {
	select {
	case m.queue <- segment:
	default:
		m.mu.Lock()
		m.stats.Dropped++
		m.mu.Unlock()
		m.log.Warn().Str("segment", segment).Msg("mirror queue full; left for backfill")
	}
}

// Backfill queues every segment under dir that has not been shipped since
// it last changed, skipping the hour the writer may still be appending to.
// It returns how many segments were queued.
func (m *Mirror) Backfill(ctx context.Context, dir string, now time.Time) (int, error) {
	segs, err := ledger.Segments(dir, "")
	if err != nil {
		return 0, err
	}
	open := now.UTC().Truncate(time.Hour)
	n := 0
	for _, seg := range segs {
		_, hour, ok := ledger.ParseSegmentName(seg)
		if !ok || !hour.Before(open) || shipped(seg) {
			continue
		}
		select {
		case m.queue <- seg:
			n++
		case <-ctx.Done():
			return n, ctx.Err()
		}
	}
	if n > 0 {
		m.log.Info().Int("segments", n).Msg("mirror backfill queued")
	}
	return n, nil
}

// Close ships whatever is queued and stops the worker.
func (m *Mirror) Close() {
	close(m.queue)
	m.wg.Wait()
}

func (m *Mirror) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stats
	s.Pending = len(m.queue)
	return s
}

func (m *Mirror) run() {
	defer m.wg.Done()
	for seg := range m.queue {
		err := m.ship(seg)
		m.mu.Lock()
		if err != nil {
			m.stats.Failed++
		} else {
			m.stats.Shipped++
			m.stats.LastShippedUnix = time.Now().Unix()
		}
		m.mu.Unlock()
		if err != nil {
			m.log.Error().Err(err).Str("segment", seg).Msg("mirror ship failed")
		}
	}
}

func (m *Mirror) ship(seg string) error {
	key, err := m.objectKey(seg)
	if err != nil {
		return err
	}
	var lastErr error
	for attempt := 1; attempt <= m.attempts; attempt++ {
		if attempt > 1 {
			time.Sleep(m.backoff(attempt - 1))
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		lastErr = m.up.PutFile(ctx, key, seg)
		cancel()
		if lastErr == nil {
			m.log.Info().Str("key", key).Int("attempt", attempt).Msg("segment shipped")
			return os.WriteFile(seg+shippedSuffix, nil, 0o644)
		}
		m.log.Warn().Err(lastErr).Str("key", key).Int("attempt", attempt).Msg("segment upload")
	}
	return fmt.Errorf("ship %s: %w", filepath.Base(seg), lastErr)
}

func (m *Mirror) objectKey(seg string) (string, error) {
	stream, hour, ok := ledger.ParseSegmentName(seg)
	if !ok {
		return "", fmt.Errorf("not a ledger segment: %s", seg)
	}
	return path.Join(m.prefix, stream, "dt="+hour.Format(time.DateOnly), filepath.Base(seg)), nil
}

// shipped reports whether seg has a marker at least as new as its contents.
func shipped(seg string) bool {
	mark, err := os.Stat(seg + shippedSuffix)
	if err != nil {
		return false
	}
	info, err := os.Stat(seg)
	if err != nil {
		return false
	}
	return !mark.ModTime().Before(info.ModTime())
}
