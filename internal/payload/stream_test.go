package payload

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	kerr "github.com/roelfdiedericks/csrfkiller/internal/errors"
)

func writeWordlist(t *testing.T, lines ...string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "wordlist.txt")
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write wordlist: %v", err)
	}
	return path
}

func TestOpenCountsLines(t *testing.T) {
	path := writeWordlist(t, "a", "b", "c")
	s, count, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if count != 3 {
		t.Fatalf("want 3 lines, got %d", count)
	}
}

func TestNextExhaustion(t *testing.T) {
	path := writeWordlist(t, "a", "b")
	s, _, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	var got []string
	for {
		line, ok := s.Next()
		if !ok {
			break
		}
		got = append(got, line)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected lines: %#v", got)
	}

	if _, ok := s.Next(); ok {
		t.Fatalf("want exhausted stream to keep returning false")
	}
}

func TestNextConcurrentExactlyOnce(t *testing.T) {
	const n = 200
	lines := make([]string, n)
	for i := range lines {
		lines[i] = string(rune('a' + i%26))
	}
	path := writeWordlist(t, lines...)
	s, count, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if count != n {
		t.Fatalf("want %d lines counted, got %d", n, count)
	}

	var mu sync.Mutex
	var seen []string
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				line, ok := s.Next()
				if !ok {
					return
				}
				mu.Lock()
				seen = append(seen, line)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != n {
		t.Fatalf("want exactly %d reads to succeed, got %d", n, len(seen))
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, _, err := Open(filepath.Join(t.TempDir(), "missing.txt"))
	if !kerr.IsKiller(err) {
		t.Fatalf("want fatal error for missing wordlist, got %v", err)
	}
}
