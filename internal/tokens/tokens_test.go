package tokens

import (
	"testing"

	kerr "github.com/roelfdiedericks/csrfkiller/internal/errors"
)

func TestParseValid(t *testing.T) {
	m, err := Parse([]string{"csrf==form==_token=([^&]+)"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	tok, ok := m["csrf"]
	if !ok {
		t.Fatalf("missing parsed token")
	}
	if tok.Position != PositionForm {
		t.Fatalf("want form position, got %q", tok.Position)
	}
}

func TestParseMissingSeparator(t *testing.T) {
	_, err := Parse([]string{"csrf=form==a(.*?)b"})
	if !kerr.IsKiller(err) {
		t.Fatalf("want fatal Killer error, got %v", err)
	}
}

func TestParseBadRegex(t *testing.T) {
	_, err := Parse([]string{"csrf==form==a(.*?b"})
	if !kerr.IsKiller(err) {
		t.Fatalf("want fatal Killer error, got %v", err)
	}
}

func TestParseNoCaptureGroup(t *testing.T) {
	_, err := Parse([]string{"csrf==form==no-groups-here"})
	if !kerr.IsKiller(err) {
		t.Fatalf("want fatal Killer error, got %v", err)
	}
}

func TestExtractForm(t *testing.T) {
	m, err := Parse([]string{"csrf==form==_token=([^&]+)"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	got, err := Extract(m, "_token=XYZ")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(got.Values) != 1 {
		t.Fatalf("want 1 part, got %d", len(got.Values))
	}
	form := got.Values[0].Data.Form
	if form["csrf"] != "XYZ" {
		t.Fatalf("want XYZ, got %#v", form)
	}
}

func TestExtractCookie(t *testing.T) {
	m, err := Parse([]string{"sess==cookie==sess_id=([A-Za-z0-9]+)"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	got, err := Extract(m, "sess_id=T1xyz")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got.Values[0].Value != "sess=T1xyz" {
		t.Fatalf("unexpected cookie value: %q", got.Values[0].Value)
	}
}

func TestExtractNoMatchIsFatal(t *testing.T) {
	m, err := Parse([]string{"csrf==form==_token=([^&]+)"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	_, err = Extract(m, "no token here")
	if !kerr.IsKiller(err) {
		t.Fatalf("want fatal Killer error, got %v", err)
	}
}
