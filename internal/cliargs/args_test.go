package cliargs

import (
	"testing"

	kerr "github.com/roelfdiedericks/csrfkiller/internal/errors"
)

func baseArgs() *Args {
	return &Args{
		URL:         "http://target/login?u=FUZZ",
		CsrfURL:     "http://target/csrf",
		Tokens:      []string{"csrf==form==_token=([^&]+)"},
		Method:      "post",
		BruteForce:  true,
		Wordlist:    "wordlist.txt",
		Concurrence: 10,
		Delay:       0.005,
		Repeat:      1,
	}
}

func TestToSettingsBasic(t *testing.T) {
	a := baseArgs()
	s, err := a.ToSettings()
	if err != nil {
		t.Fatalf("ToSettings: %v", err)
	}
	if s.Target.URL != a.URL {
		t.Fatalf("unexpected target url: %q", s.Target.URL)
	}
	if s.Csrf.Tokens["csrf"].Position != "form" {
		t.Fatalf("unexpected token position")
	}
}

func TestToSettingsRequiresFuzzInBruteForce(t *testing.T) {
	a := baseArgs()
	a.URL = "http://target/login"
	_, err := a.ToSettings()
	if !kerr.IsKiller(err) {
		t.Fatalf("want fatal error for missing FUZZ, got %v", err)
	}
}

func TestToSettingsConflictingDataType(t *testing.T) {
	a := baseArgs()
	a.Tokens = []string{"csrf==json==_token=([^&]+)"}
	a.DataPost = "pw=hunter2"
	a.DataType = "form"
	_, err := a.ToSettings()
	if !kerr.IsKiller(err) {
		t.Fatalf("want fatal error for mismatched data type, got %v", err)
	}
}

func TestToSettingsUploadConflictsWithDataPost(t *testing.T) {
	a := baseArgs()
	a.BruteForce = false
	a.Wordlist = ""
	a.UploadFiles = true
	a.FilePaths = "files.txt"
	a.FieldName = "upload"
	a.DataPost = "x=y"
	a.DataType = "form"
	_, err := a.ToSettings()
	if !kerr.IsKiller(err) {
		t.Fatalf("want fatal error for upload+data-post conflict, got %v", err)
	}
}

func TestToSettingsFormBody(t *testing.T) {
	a := baseArgs()
	a.DataPost = "pw=hunter2"
	a.DataType = "form"
	s, err := a.ToSettings()
	if err != nil {
		t.Fatalf("ToSettings: %v", err)
	}
	if s.Target.Data == nil || s.Target.Data.Form["pw"] != "hunter2" {
		t.Fatalf("unexpected form body: %#v", s.Target.Data)
	}
}
