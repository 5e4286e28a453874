package r2s3

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeUploader struct {
	mu      sync.Mutex
	fails   int
	keys    []string
	started chan struct{}
	release chan struct{}
}

func (f *fakeUploader) PutFile(_ context.Context, key, localPath string) error {
	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := os.Stat(localPath); err != nil {
		return err
	}
	if f.fails > 0 {
		f.fails--
		return errors.New("503")
	}
	f.keys = append(f.keys, key)
	return nil
}

func writeSegment(t *testing.T, dir, name string, mod time.Time) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(p, mod, mod); err != nil {
		t.Fatal(err)
	}
	return p
}

func mark(t *testing.T, seg string, mod time.Time) {
	t.Helper()
	writeSegment(t, filepath.Dir(seg), filepath.Base(seg)+shippedSuffix, mod)
}

func noBackoff(int) time.Duration { return 0 }

func TestMirror_ShipsWithRetryAndMarks(t *testing.T) {
	dir := t.TempDir()
	seg := writeSegment(t, dir, "ledger-2026-10-17-09.jsonl.zst", time.Now())

	up := &fakeUploader{fails: 2}
	m := NewMirror(up, "/teahouse/", zerolog.Nop(), WithBackoff(noBackoff))
	m.Enqueue(seg)
	m.Close()

	if len(up.keys) != 1 || up.keys[0] != "teahouse/ledger/dt=2026-10-17/ledger-2026-10-17-09.jsonl.zst" {
		t.Fatalf("keys: %v", up.keys)
	}
	if !shipped(seg) {
		t.Fatalf("segment not marked as shipped")
	}
	if st := m.Stats(); st.Shipped != 1 || st.Failed != 0 || st.LastShippedUnix == 0 {
		t.Fatalf("stats: %+v", st)
	}
}

func TestMirror_GivesUpWithoutMarking(t *testing.T) {
	dir := t.TempDir()
	seg := writeSegment(t, dir, "ledger-2026-10-17-09.jsonl.zst", time.Now())

	up := &fakeUploader{fails: 10}
	m := NewMirror(up, "", zerolog.Nop(), WithBackoff(noBackoff), WithAttempts(3))
	m.Enqueue(seg)
	m.Enqueue(filepath.Join(dir, "notes.txt"))
	m.Close()

	if up.fails != 7 {
		t.Fatalf("attempts: %d left", up.fails)
	}
	if shipped(seg) {
		t.Fatalf("failed segment marked")
	}
	if st := m.Stats(); st.Failed != 2 || st.Shipped != 0 {
		t.Fatalf("stats: %+v", st)
	}
}

func TestMirror_BackfillSkipsShippedAndOpenHour(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	old := now.Add(-3 * time.Hour)

	stale := writeSegment(t, dir, "ledger-2026-10-17-06.jsonl.zst", now.Add(-time.Hour))
	mark(t, stale, old) // appended to after it was shipped
	done := writeSegment(t, dir, "ledger-2026-10-17-07.jsonl.zst", old)
	mark(t, done, now.Add(-time.Hour))
	writeSegment(t, dir, "ledger-2026-10-17-08.jsonl.zst", old)
	writeSegment(t, dir, "ledger-2026-10-17-09.jsonl.zst", now)

	up := &fakeUploader{}
	m := NewMirror(up, "p", zerolog.Nop(), WithBackoff(noBackoff))
	n, err := m.Backfill(context.Background(), dir, now)
	if err != nil || n != 2 {
		t.Fatalf("backfill: %d %v", n, err)
	}
	m.Close()

	sort.Strings(up.keys)
	want := []string{
		"p/ledger/dt=2026-10-17/ledger-2026-10-17-06.jsonl.zst",
		"p/ledger/dt=2026-10-17/ledger-2026-10-17-08.jsonl.zst",
	}
	if len(up.keys) != 2 || up.keys[0] != want[0] || up.keys[1] != want[1] {
		t.Fatalf("keys: %v", up.keys)
	}
}

func TestMirror_EnqueueDropsWhenFull(t *testing.T) {
	dir := t.TempDir()
	a := writeSegment(t, dir, "ledger-2026-10-17-06.jsonl.zst", time.Now())
	b := writeSegment(t, dir, "ledger-2026-10-17-07.jsonl.zst", time.Now())
	c := writeSegment(t, dir, "ledger-2026-10-17-08.jsonl.zst", time.Now())

	up := &fakeUploader{started: make(chan struct{}), release: make(chan struct{})}
	m := NewMirror(up, "", zerolog.Nop(), WithQueue(1), WithBackoff(noBackoff))
	m.Enqueue(a)
	<-up.started
	m.Enqueue(b)
	m.Enqueue(c)

	if st := m.Stats(); st.Dropped != 1 || st.Pending != 1 {
		t.Fatalf("stats: %+v", st)
	}
	go func() {
		for range up.started {
		}
	}()
	close(up.release)
	m.Close()
	close(up.started)

	if shipped(c) || !shipped(a) || !shipped(b) {
		t.Fatalf("markers: a=%v b=%v c=%v", shipped(a), shipped(b), shipped(c))
	}
}

func TestObjectKey_RejectsNonSegments(t *testing.T) {
	m := &Mirror{prefix: "p"}
	if _, err := m.objectKey("/data/ledger/readme.md"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNew_RequiresSettings(t *testing.T) {
	if _, err := New(context.Background(), "", "b", "k", "s"); err == nil {
		t.Fatalf("expected error")
	}
}
