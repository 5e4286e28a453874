// Package auth decides who may manage the shop.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

type Authorizer interface {
	IsAuthorized(userID string) bool
}

// Static authorizes a fixed set of users.
type Static map[string]bool

func NewStatic(ids ...string) Static {
	s := Static{}
	for _, id := range ids {
		s[id] = true
	}
	return s
}

func (s Static) IsAuthorized(userID string) bool { return userID != "" && s[userID] }

type allowListFile struct {
	Admins []string `json:"admins"`
}

// FileAllowList keeps admin ids in a JSON file of the form
// {"admins": ["id", ...]}. The file is created empty when missing.
// IsAuthorized rereads the file when it changed on disk, so edits made by
// another process apply without a restart.
type FileAllowList struct {
	path string

	mu     sync.RWMutex
	admins map[string]bool
	loaded os.FileInfo
}

func OpenFileAllowList(path string) (*FileAllowList, error) {
	l := &FileAllowList{path: path, admins: map[string]bool{}}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return l, l.Save()
	}
	if err := l.reload(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *FileAllowList) reload() error {
	info, err := os.Stat(l.path)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return err
	}
	var f allowListFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(l.path), err)
	}
	admins := make(map[string]bool, len(f.Admins))
	for _, id := range f.Admins {
		if id != "" {
			admins[id] = true
		}
	}
	l.mu.Lock()
	l.admins = admins
	l.loaded = info
	l.mu.Unlock()
	return nil
}

// stale reports whether the file differs from the one last loaded or saved.
func (l *FileAllowList) stale() bool {
	info, err := os.Stat(l.path)
	if err != nil {
		return false
	}
	l.mu.RLock()
	prev := l.loaded
	l.mu.RUnlock()
	return prev == nil || !os.SameFile(prev, info) ||
		!prev.ModTime().Equal(info.ModTime()) || prev.Size() != info.Size()
}

func (l *FileAllowList) IsAuthorized(userID string) bool {
	if userID == "" {
		return false
	}
	l.refresh()
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.admins[userID]
}

// refresh rereads a changed file. A bad edit keeps the previous list.
func (l *FileAllowList) refresh() {
	if l.stale() {
		_ = l.reload()
	}
}

func (l *FileAllowList) List() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.admins))
	for id := range l.admins {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Add grants userID and persists the list.
func (l *FileAllowList) Add(userID string) error {
	if userID == "" {
		return errors.New("empty user id")
	}
	l.refresh()
	l.mu.Lock()
	l.admins[userID] = true
	l.mu.Unlock()
	return l.Save()
}

func (l *FileAllowList) Remove(userID string) error {
	l.refresh()
	l.mu.Lock()
	delete(l.admins, userID)
	l.mu.Unlock()
	return l.Save()
}

// Save writes the list atomically via a temp file and rename.
func (l *FileAllowList) Save() error {
	b, err := json.MarshalIndent(allowListFile{Admins: l.List()}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return err
	}
	if info, err := os.Stat(l.path); err == nil {
		l.mu.Lock()
		l.loaded = info
		l.mu.Unlock()
	}
	return nil
}
