// Package tokens parses the -t/--token CLI declarations and extracts token
// values out of a CSRF preamble response body per spec.md §4.4.
package tokens

import (
	"fmt"
	"regexp"
	"strings"

	kerr "github.com/roelfdiedericks/csrfkiller/internal/errors"
	"github.com/roelfdiedericks/csrfkiller/internal/parts"
)

// Position is where an extracted token value is placed on the target request.
type Position string

const (
	PositionForm      Position = "form"
	PositionJSON      Position = "json"
	PositionMultipart Position = "multipart"
	PositionQuery     Position = "query"
	PositionHeader    Position = "header"
	PositionCookie    Position = "cookie"
)

func (p Position) valid() bool {
	switch p {
	case PositionForm, PositionJSON, PositionMultipart, PositionQuery, PositionHeader, PositionCookie:
		return true
	}
	return false
}

// Token is a single declared `name==position==pattern` token.
type Token struct {
	Name     string
	Position Position
	Pattern  *regexp.Regexp
}

// Map is the full set of declared tokens, keyed by name.
type Map map[string]Token

// Parse parses the repeated -t/--token flag values ("name==position==regex")
// into a Map. Each pattern must contain at least one capture group and
// position must be one of the six valid positions.
func Parse(raw []string) (Map, error) {
	out := make(Map, len(raw))

	for _, spec := range raw {
		fields := strings.SplitN(spec, "==", 3)
		if len(fields) != 3 {
			return nil, kerr.NewKiller(fmt.Sprintf("invalid token %q: must be name==position==regex", spec))
		}

		name, posRaw, patternRaw := fields[0], fields[1], fields[2]

		pos := Position(posRaw)
		if !pos.valid() {
			return nil, kerr.NewKiller(fmt.Sprintf("invalid token position %q in %q", posRaw, spec))
		}

		re, err := regexp.Compile(patternRaw)
		if err != nil {
			return nil, kerr.WrapKiller(fmt.Sprintf("invalid token regex in %q", spec), err)
		}
		if re.NumSubexp() < 1 {
			return nil, kerr.NewKiller(fmt.Sprintf("token regex in %q has no capture group", spec))
		}

		out[name] = Token{Name: name, Position: pos, Pattern: re}
	}

	return out, nil
}

// Extract applies every declared token's pattern to body and translates each
// match into a RequestPart, by position, per spec.md §4.4. A missing match
// or unknown position is a fatal configuration error (the CSRF page is
// assumed structurally stable; a miss means the user's regex is wrong).
func Extract(tokenMap Map, body string) (*parts.RequestParts, error) {
	out := parts.New()

	for name, tok := range tokenMap {
		match := tok.Pattern.FindStringSubmatch(body)
		if match == nil {
			return nil, kerr.NewKiller(fmt.Sprintf("token %q: regex did not match the csrf response", name))
		}
		value := match[len(match)-1]

		part, err := toPart(name, tok.Position, value)
		if err != nil {
			return nil, err
		}
		out.Add(part)
	}

	return out, nil
}

func toPart(name string, position Position, value string) (parts.RequestPart, error) {
	switch position {
	case PositionForm:
		return parts.DataPart(parts.FormData(map[string]string{name: value})), nil
	case PositionMultipart:
		return parts.DataPart(parts.PartTextData(map[string]string{name: value})), nil
	case PositionJSON:
		return parts.DataPart(parts.JSONData(map[string]any{name: value})), nil
	case PositionQuery:
		return parts.Query(name, value), nil
	case PositionHeader:
		return parts.Header(name, value), nil
	case PositionCookie:
		return parts.Cookie(fmt.Sprintf("%s=%s", name, value)), nil
	default:
		return parts.RequestPart{}, kerr.NewKiller(fmt.Sprintf("token %q: unknown position %q", name, position))
	}
}
