// Package config holds the validated, immutable Settings value that is
// built once at startup (spec.md §3 Lifecycle) and shared read-only across
// every worker.
package config

import (
	"net/http"
	"strings"

	kerr "github.com/roelfdiedericks/csrfkiller/internal/errors"
	"github.com/roelfdiedericks/csrfkiller/internal/parts"
	"github.com/roelfdiedericks/csrfkiller/internal/tokens"
)

// Method is the HTTP verb used for the target request.
type Method string

const (
	MethodGet    Method = "get"
	MethodPost   Method = "post"
	MethodPut    Method = "put"
	MethodDelete Method = "delete"
)

func (m Method) HTTPMethod() string {
	switch m {
	case MethodGet:
		return http.MethodGet
	case MethodPost:
		return http.MethodPost
	case MethodPut:
		return http.MethodPut
	case MethodDelete:
		return http.MethodDelete
	default:
		return http.MethodPost
	}
}

// Csrf is the preamble-page fetch target and its declared tokens.
type Csrf struct {
	URL    string
	Tokens tokens.Map
}

// Target is the attack endpoint: URL (possibly containing FUZZ), method,
// and an optional configured body.
type Target struct {
	URL    string
	Method Method
	Data   *parts.Data
}

// Mode is exactly one of BruteForce or UploadFiles.
type Mode int

const (
	ModeBruteForce Mode = iota
	ModeUploadFiles
)

// Modes carries the selected mode and its mode-specific inputs.
type Modes struct {
	Mode      Mode
	Wordlist  string // ModeBruteForce
	FilePaths string // ModeUploadFiles: path to the file listing upload paths
	FieldName string // ModeUploadFiles: multipart field name for the upload
}

// Filters are optional equality predicates; a response matching any set
// predicate is suppressed from the report.
type Filters struct {
	Status *uint16
	Length *uint64
	Words  *uint64
	Lines  *uint64
}

// Suppress reports whether a response with the given stats should be
// suppressed from the report per spec.md §4.8.
func (f Filters) Suppress(status uint16, length, words, lines uint64) bool {
	if f.Status != nil && *f.Status == status {
		return true
	}
	if f.Length != nil && *f.Length == length {
		return true
	}
	if f.Words != nil && *f.Words == words {
		return true
	}
	if f.Lines != nil && *f.Lines == lines {
		return true
	}
	return false
}

// RequestOptions configures the shared HTTP client (spec.md §4.7).
type RequestOptions struct {
	Headers         http.Header
	StoreCookies    bool
	FollowRedirects bool
	Proxy           string
	TimeoutSeconds  float32
}

// Settings is the fully validated, immutable configuration for a run.
type Settings struct {
	Csrf        Csrf
	Target      Target
	Modes       Modes
	Concurrence uint16
	Delay       float32
	Repeat      uint16
	Options     RequestOptions
	Filters     Filters
}

// ValidateDataTypeAgainstTokens rejects configuration where a declared
// token's position is form/json/multipart while the configured body is a
// different one of those three kinds (spec.md §3 invariant: "Mixing
// body-kinds is a configuration error").
func ValidateDataTypeAgainstTokens(tokenMap tokens.Map, dataKind *parts.Kind) error {
	if dataKind == nil {
		return nil
	}

	var dataPos tokens.Position
	switch *dataKind {
	case parts.KindForm:
		dataPos = tokens.PositionForm
	case parts.KindJSON:
		dataPos = tokens.PositionJSON
	case parts.KindPartText:
		dataPos = tokens.PositionMultipart
	default:
		return nil
	}

	for _, tok := range tokenMap {
		if isBodyPosition(tok.Position) && tok.Position != dataPos {
			return kerr.NewKiller("can't send multiple data types in the same request, e.g. json and form")
		}
	}
	return nil
}

func isBodyPosition(p tokens.Position) bool {
	return p == tokens.PositionForm || p == tokens.PositionJSON || p == tokens.PositionMultipart
}

// ValidateForm parses an "a=b&c=d" string into a map, per spec.md's
// --data-post/--data-type=form handling.
func ValidateForm(raw string) (map[string]string, error) {
	out := map[string]string{}
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}

	for _, field := range strings.Split(raw, "&") {
		k, v, ok := strings.Cut(field, "=")
		if !ok {
			return nil, kerr.NewKiller("invalid format of form data, expected k=v pairs joined by &")
		}
		out[k] = v
	}
	return out, nil
}
