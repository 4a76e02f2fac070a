// Package payload implements the shared, mutex-guarded payload stream
// (spec.md §4.1): a lazily-read text file where each line is one payload,
// safe for many workers to pull from concurrently.
package payload

import (
	"bufio"
	"os"
	"sync"

	kerr "github.com/roelfdiedericks/csrfkiller/internal/errors"
)

// Stream yields one line per Next call, guarded by a mutex so concurrent
// workers each get a distinct line. Exhausted once the underlying file is
// fully read; Next then returns ("", false) forever.
type Stream struct {
	mu     sync.Mutex
	file   *os.File
	reader *bufio.Scanner
	done   bool
}

// Open counts the lines in path (for progress bar sizing) then reopens it
// for streaming. Mirrors the two-pass open in spec.md §4.1.
func Open(path string) (*Stream, int, error) {
	count, err := countLines(path)
	if err != nil {
		return nil, 0, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, kerr.WrapKiller("can't open the wordlist", err)
	}

	return &Stream{file: f, reader: bufio.NewScanner(f)}, count, nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, kerr.WrapKiller("can't open the wordlist", err)
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	if err := scanner.Err(); err != nil {
		return 0, kerr.WrapKiller("can't read the wordlist", err)
	}
	return count, nil
}

// Next advances the shared cursor by one line and returns it. The second
// return value is false once the stream is exhausted.
func (s *Stream) Next() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return "", false
	}
	if !s.reader.Scan() {
		s.done = true
		return "", false
	}
	return s.reader.Text(), true
}

// Close releases the underlying file handle.
func (s *Stream) Close() error {
	return s.file.Close()
}
