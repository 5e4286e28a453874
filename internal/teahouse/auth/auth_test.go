package auth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStatic(t *testing.T) {
	s := NewStatic("42")
	if !s.IsAuthorized("42") || s.IsAuthorized("7") || s.IsAuthorized("") {
		t.Fatalf("unexpected static policy")
	}
}

func TestFileAllowList_CreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "admins.json")
	l, err := OpenFileAllowList(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if l.IsAuthorized("42") {
		t.Fatalf("new list should be empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("file not created: %v", err)
	}
	if !strings.Contains(string(raw), `"admins": []`) {
		t.Fatalf("unexpected file %s", raw)
	}
}

func TestFileAllowList_AddRemovePersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admins.json")
	l, err := OpenFileAllowList(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Add("42"); err != nil {
		t.Fatal(err)
	}
	if err := l.Add("7"); err != nil {
		t.Fatal(err)
	}
	if err := l.Add(""); err == nil {
		t.Fatalf("expected empty id rejected")
	}

	reopened, err := OpenFileAllowList(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := reopened.List(); len(got) != 2 || got[0] != "42" || got[1] != "7" {
		t.Fatalf("persisted list %v", got)
	}

	if err := reopened.Remove("42"); err != nil {
		t.Fatal(err)
	}
	again, _ := OpenFileAllowList(path)
	if again.IsAuthorized("42") || !again.IsAuthorized("7") {
		t.Fatalf("remove not persisted: %v", again.List())
	}
}

func TestFileAllowList_RejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admins.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenFileAllowList(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestFileAllowList_SeesEditsFromAnotherProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admins.json")
	server, err := OpenFileAllowList(path)
	if err != nil {
		t.Fatal(err)
	}
	cli, err := OpenFileAllowList(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := cli.Add("42"); err != nil {
		t.Fatal(err)
	}
	if !server.IsAuthorized("42") {
		t.Fatalf("grant not picked up")
	}
	if err := cli.Remove("42"); err != nil {
		t.Fatal(err)
	}
	if server.IsAuthorized("42") {
		t.Fatalf("revoke not picked up")
	}

	if err := cli.Add("7"); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !server.IsAuthorized("7") {
		t.Fatalf("broken file should keep the last good list")
	}
}
