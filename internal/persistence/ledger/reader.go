package ledger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"teahouse.bot/internal/teahouse/model"
)

// Segments lists the ledger segments under dir, oldest first.
func Segments(dir, prefix string) ([]string, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	paths, err := filepath.Glob(filepath.Join(dir, prefix+"-*"+segmentExt))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// ParseSegmentName splits a segment file name into its prefix and the UTC
// hour it covers.
func ParseSegmentName(path string) (prefix string, hour time.Time, ok bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, segmentExt) {
		return "", time.Time{}, false
	}
	base = strings.TrimSuffix(base, segmentExt)
	n := len(base) - len(hourLayout)
	if n < 2 || base[n-1] != '-' {
		return "", time.Time{}, false
	}
	hour, err := time.ParseInLocation(hourLayout, base[n:], time.UTC)
	if err != nil {
		return "", time.Time{}, false
	}
	return base[:n-1], hour, true
}

// ReadSegment decodes every entry of one segment.
func ReadSegment(path string) ([]model.LedgerEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []model.LedgerEntry
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var e model.LedgerEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", filepath.Base(path), line, err)
		}
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return out, nil
}
