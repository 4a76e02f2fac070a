package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/roelfdiedericks/csrfkiller/internal/config"
)

func TestAttemptIncrementsRequestsCompletedAlways(t *testing.T) {
	var buf bytes.Buffer
	status := uint16(404)
	settings := &config.Settings{Filters: config.Filters{Status: &status}}
	p := New(1, &buf)

	p.Attempt(settings, 1, 404, 10, 1, 2, "payload-a")

	if p.RequestsCompleted() != 1 {
		t.Fatalf("want no_req == 1, got %d", p.RequestsCompleted())
	}
	if buf.Len() != 0 {
		t.Fatalf("want suppressed response to print nothing, got %q", buf.String())
	}
}

func TestAttemptPrintsNonSuppressedRow(t *testing.T) {
	var buf bytes.Buffer
	settings := &config.Settings{}
	p := New(1, &buf)

	p.Attempt(settings, 1, 200, 10, 1, 2, "payload-a")

	if !strings.Contains(buf.String(), "200") || !strings.Contains(buf.String(), "payload-a") {
		t.Fatalf("want printed row to contain status and payload, got %q", buf.String())
	}
}

func TestTransportErrorIncrementsBothCounters(t *testing.T) {
	var buf bytes.Buffer
	p := New(1, &buf)

	p.TransportError()

	if p.RequestsCompleted() != 1 {
		t.Fatalf("want no_req incremented on transport error, got %d", p.RequestsCompleted())
	}
	if p.TransportErrors() != 1 {
		t.Fatalf("want no_err == 1, got %d", p.TransportErrors())
	}
	if buf.Len() != 0 {
		t.Fatalf("want transport error to print nothing, got %q", buf.String())
	}
}

func TestClassifyCountsLinesAndWords(t *testing.T) {
	lines, words := Classify("one two\nthree")
	if lines != 2 {
		t.Fatalf("want 2 lines, got %d", lines)
	}
	if words != 3 {
		t.Fatalf("want 3 words, got %d", words)
	}
}

func TestClassifyEmptyBody(t *testing.T) {
	lines, words := Classify("")
	if lines != 0 || words != 0 {
		t.Fatalf("want 0/0 for empty body, got %d/%d", lines, words)
	}
}
