// Package cliargs declares the kong CLI surface (spec.md §6) and turns a
// parsed Args into a validated config.Settings, the way the original Rust
// CLI layer's Args::move_to_setting did (original_source/src/cli.rs).
package cliargs

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/roelfdiedericks/csrfkiller/internal/config"
	kerr "github.com/roelfdiedericks/csrfkiller/internal/errors"
	"github.com/roelfdiedericks/csrfkiller/internal/parts"
	"github.com/roelfdiedericks/csrfkiller/internal/tokens"
)

// Args is the full kong-parsed command line, mirroring spec.md §6's table.
type Args struct {
	URL     string   `short:"u" long:"url" required:"" help:"Target url, may contain FUZZ."`
	CsrfURL string   `short:"c" long:"csrf-url" required:"" help:"Url fetched for csrf tokens."`
	Tokens  []string `short:"t" long:"token" required:"" help:"Token 'name==position==regex'. Position in [form,json,multipart,query,header,cookie]."`

	Method string `short:"X" long:"method" default:"post" enum:"get,post,put,delete" help:"Request method."`

	BruteForce bool   `long:"brute-force" xor:"mode" help:"Brute force the FUZZ keyword."`
	Wordlist   string `short:"w" long:"wordlist" help:"Path to the wordlist."`

	UploadFiles bool   `long:"upload-files" xor:"mode" help:"Upload files continuously."`
	FilePaths   string `short:"f" long:"file-paths" help:"Path to the file listing paths to upload."`
	FieldName   string `long:"field-name" help:"Multipart field name for the upload."`

	Concurrence uint16  `short:"T" long:"concurrence" default:"10" help:"Number of worker tasks."`
	Delay       float32 `long:"delay" default:"0.005" help:"Delay between requests, in seconds."`
	Repeat      uint16  `long:"repeat" default:"1" help:"Number of times to repeat each payload attempt."`

	DataPost string `long:"data-post" help:"Body content for the target request."`
	DataType string `long:"data-type" enum:"json,form,multipart," default:"" help:"Content type of the body: json, form, or multipart."`

	Headers []string `short:"H" long:"headers" help:"Default headers, 'Name:Value'."`

	StoreCookies   bool    `long:"store-cookies" help:"Store received cookies across requests."`
	NoRedirects    bool    `short:"R" long:"no-redirects" help:"Do not follow redirects."`
	Proxy          string  `long:"proxy" help:"HTTP/HTTPS proxy url."`
	TimeoutSeconds float32 `short:"o" long:"timeout" default:"5" help:"Request timeout, in seconds."`

	NoStatus *uint16 `long:"no-status" xor:"filters" help:"Suppress responses with this status code."`
	NoLength *uint64 `long:"no-length" xor:"filters" help:"Suppress responses with this content length."`
	NoWords  *uint64 `long:"no-words" xor:"filters" help:"Suppress responses with this word count."`
	NoLines  *uint64 `long:"no-chars" xor:"filters" help:"Suppress responses with this line count."`
}

// ToSettings validates the parsed Args and builds an immutable
// config.Settings. Every failure here is a fatal configuration error.
func (a *Args) ToSettings() (*config.Settings, error) {
	if !a.BruteForce && !a.UploadFiles {
		return nil, kerr.NewKiller("one of --brute-force or --upload-files is required")
	}
	if a.BruteForce && a.Wordlist == "" {
		return nil, kerr.NewKiller("--brute-force requires --wordlist")
	}
	if a.UploadFiles && (a.FilePaths == "" || a.FieldName == "") {
		return nil, kerr.NewKiller("--upload-files requires --file-paths and --field-name")
	}
	if a.UploadFiles && a.DataPost != "" {
		return nil, kerr.NewKiller("--upload-files conflicts with --data-post")
	}

	tokenMap, err := tokens.Parse(a.Tokens)
	if err != nil {
		return nil, err
	}

	headers, err := parseHeaders(a.Headers)
	if err != nil {
		return nil, err
	}

	foundFuzz := strings.Contains(a.URL, "FUZZ")

	data, err := a.buildData(tokenMap, &foundFuzz)
	if err != nil {
		return nil, err
	}

	if a.BruteForce && !foundFuzz {
		return nil, kerr.NewKiller("brute force mode requires the FUZZ keyword in the url or body")
	}

	settings := &config.Settings{
		Csrf: config.Csrf{URL: a.CsrfURL, Tokens: tokenMap},
		Target: config.Target{
			URL:    a.URL,
			Method: config.Method(a.Method),
			Data:   data,
		},
		Modes:       a.buildModes(),
		Concurrence: a.Concurrence,
		Delay:       a.Delay,
		Repeat:      a.Repeat,
		Options: config.RequestOptions{
			Headers:         headers,
			StoreCookies:    a.StoreCookies,
			FollowRedirects: !a.NoRedirects,
			Proxy:           a.Proxy,
			TimeoutSeconds:  a.TimeoutSeconds,
		},
		Filters: config.Filters{
			Status: a.NoStatus,
			Length: a.NoLength,
			Words:  a.NoWords,
			Lines:  a.NoLines,
		},
	}

	return settings, nil
}

func (a *Args) buildModes() config.Modes {
	if a.BruteForce {
		return config.Modes{Mode: config.ModeBruteForce, Wordlist: a.Wordlist}
	}
	return config.Modes{Mode: config.ModeUploadFiles, FilePaths: a.FilePaths, FieldName: a.FieldName}
}

func (a *Args) buildData(tokenMap tokens.Map, foundFuzz *bool) (*parts.Data, error) {
	if a.DataPost == "" && a.DataType == "" {
		return nil, nil
	}
	if a.DataPost != "" && a.DataType == "" {
		return nil, kerr.NewKiller("--data-post requires --data-type")
	}
	if a.DataPost == "" && a.DataType != "" {
		return nil, kerr.NewKiller("--data-type requires --data-post")
	}

	dataKind, err := dataKindFromType(a.DataType)
	if err != nil {
		return nil, err
	}
	if err := config.ValidateDataTypeAgainstTokens(tokenMap, &dataKind); err != nil {
		return nil, err
	}

	if strings.Contains(a.DataPost, "FUZZ") {
		*foundFuzz = true
	}

	switch a.DataType {
	case "form":
		m, err := config.ValidateForm(a.DataPost)
		if err != nil {
			return nil, err
		}
		d := parts.FormData(m)
		return &d, nil
	case "multipart":
		m, err := config.ValidateForm(a.DataPost)
		if err != nil {
			return nil, err
		}
		d := parts.PartTextData(m)
		return &d, nil
	case "json":
		var v any
		if err := json.Unmarshal([]byte(a.DataPost), &v); err != nil {
			return nil, kerr.WrapKiller("invalid json body", err)
		}
		d := parts.JSONData(v)
		return &d, nil
	default:
		return nil, kerr.NewKiller("unreachable data type: " + a.DataType)
	}
}

func dataKindFromType(dataType string) (parts.Kind, error) {
	switch dataType {
	case "form":
		return parts.KindForm, nil
	case "json":
		return parts.KindJSON, nil
	case "multipart":
		return parts.KindPartText, nil
	default:
		return 0, kerr.NewKiller("invalid data type: " + dataType)
	}
}

func parseHeaders(raw []string) (http.Header, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	h := http.Header{}
	for _, entry := range raw {
		name, value, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, kerr.NewKiller("invalid header " + entry + ", must be Name:Value")
		}
		h.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	return h, nil
}
