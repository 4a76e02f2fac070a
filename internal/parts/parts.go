// Package parts implements the heterogeneous request-part model described
// in spec.md §3/§4.6: typed fragments (header, cookie, query, body) that are
// accumulated per attempt and then merged down to a single outgoing request.
package parts

import (
	"encoding/json"
	"fmt"
	"strings"

	"dario.cat/mergo"
)

// Kind identifies the variant of a Data body.
type Kind int

const (
	KindForm Kind = iota
	KindJSON
	KindPartText
	KindFile
)

// Data is the tagged body payload a Data request part carries.
type Data struct {
	Kind Kind

	Form     map[string]string // KindForm, KindPartText
	JSON     any               // KindJSON
	FileData FileData          // KindFile
}

// FileData is a multipart file part, produced dynamically in upload mode.
type FileData struct {
	FieldName string
	FileName  string
	MIME      string
	Bytes     []byte
}

func FormData(m map[string]string) Data     { return Data{Kind: KindForm, Form: m} }
func PartTextData(m map[string]string) Data { return Data{Kind: KindPartText, Form: m} }
func JSONData(v any) Data                   { return Data{Kind: KindJSON, JSON: v} }
func FileDataOf(fieldName, fileName, mime string, b []byte) Data {
	return Data{Kind: KindFile, FileData: FileData{FieldName: fieldName, FileName: fileName, MIME: mime, Bytes: b}}
}

// PartKind identifies the variant of a RequestPart.
type PartKind int

const (
	PartHeader PartKind = iota
	PartCookie
	PartQuery
	PartData
)

// RequestPart is one typed fragment contributing to the outgoing request.
type RequestPart struct {
	Kind PartKind

	Name  string // PartHeader, PartQuery name
	Value string // PartHeader, PartQuery value; PartCookie full "name=value" line
	Data  Data   // PartData
}

func Header(name, value string) RequestPart { return RequestPart{Kind: PartHeader, Name: name, Value: value} }
func Cookie(line string) RequestPart        { return RequestPart{Kind: PartCookie, Value: line} }
func Query(name, value string) RequestPart  { return RequestPart{Kind: PartQuery, Name: name, Value: value} }
func DataPart(d Data) RequestPart           { return RequestPart{Kind: PartData, Data: d} }

// RequestParts is an ordered sequence of RequestPart. A fresh RequestParts
// is created per payload attempt and never shared across attempts.
type RequestParts struct {
	Values []RequestPart
}

// New returns an empty RequestParts.
func New() *RequestParts {
	return &RequestParts{}
}

// Add appends a part, preserving call order.
func (p *RequestParts) Add(part RequestPart) {
	p.Values = append(p.Values, part)
}

// Extend appends every part of other, in order.
func (p *RequestParts) Extend(other *RequestParts) {
	p.Values = append(p.Values, other.Values...)
}

// AddFuzzData clones the configured target body and substitutes FUZZ with
// line into every value (Form/PartText) or the whole serialized tree (JSON),
// then appends the clone as a new part. The configured body itself (data)
// is never mutated. Mirrors original_source/src/structs.rs add_fuzz_data.
func (p *RequestParts) AddFuzzData(data *Data, line string) error {
	if data == nil {
		return nil
	}

	switch data.Kind {
	case KindForm:
		p.Add(DataPart(FormData(replaceFuzzMap(data.Form, line))))
	case KindPartText:
		p.Add(DataPart(PartTextData(replaceFuzzMap(data.Form, line))))
	case KindJSON:
		raw, err := json.Marshal(data.JSON)
		if err != nil {
			return fmt.Errorf("marshal json body for fuzz substitution: %w", err)
		}
		fuzzed := strings.ReplaceAll(string(raw), "FUZZ", line)
		var v any
		if err := json.Unmarshal([]byte(fuzzed), &v); err != nil {
			return fmt.Errorf("re-parse fuzzed json body: %w", err)
		}
		p.Add(DataPart(JSONData(v)))
	}
	return nil
}

func replaceFuzzMap(old map[string]string, line string) map[string]string {
	out := make(map[string]string, len(old))
	for k, v := range old {
		out[k] = strings.ReplaceAll(v, "FUZZ", line)
	}
	return out
}

// notMergeable reports whether a part's kind is always kept verbatim,
// duplicates allowed: Query, Header, PartText, File (spec.md §3 invariant).
func notMergeable(p RequestPart) bool {
	if p.Kind == PartQuery || p.Kind == PartHeader {
		return true
	}
	if p.Kind == PartData && (p.Data.Kind == KindPartText || p.Data.Kind == KindFile) {
		return true
	}
	return false
}

// mergeKey groups mergeable parts by discriminant: Form, JSON, and Cookie
// each collapse to at most one entry.
func mergeKey(p RequestPart) (int, bool) {
	switch p.Kind {
	case PartCookie:
		return 1, true
	case PartData:
		switch p.Data.Kind {
		case KindForm:
			return 2, true
		case KindJSON:
			return 3, true
		}
	}
	return 0, false
}

// Join collapses the parts so that at most one of each mergeable kind
// (Form, JSON, Cookie) remains. Parts are merged left-to-right: the
// first-added part of a kind keeps its position as the base, and later
// additions merge into it, their values winning on key conflicts. This is
// the opposite drain direction from the original
// Rust source (see SPEC_FULL.md §13 Q2) — cookie concatenation here reads
// "earlier; later", matching normal user expectation.
func (p *RequestParts) Join() error {
	var out RequestParts
	index := map[int]int{} // mergeKey -> position in out.Values

	for _, part := range p.Values {
		if notMergeable(part) {
			out.Add(part)
			continue
		}

		key, mergeable := mergeKey(part)
		if !mergeable {
			out.Add(part)
			continue
		}

		if pos, ok := index[key]; ok {
			joined, err := joinPart(out.Values[pos], part)
			if err != nil {
				return err
			}
			out.Values[pos] = joined
		} else {
			index[key] = len(out.Values)
			out.Add(part)
		}
	}

	*p = out
	return nil
}

func joinPart(a, b RequestPart) (RequestPart, error) {
	switch {
	case a.Kind == PartCookie && b.Kind == PartCookie:
		return Cookie(a.Value + "; " + b.Value), nil

	case a.Kind == PartData && b.Kind == PartData && a.Data.Kind == KindForm && b.Data.Kind == KindForm:
		merged := make(map[string]string, len(a.Data.Form)+len(b.Data.Form))
		for k, v := range a.Data.Form {
			merged[k] = v
		}
		for k, v := range b.Data.Form {
			merged[k] = v
		}
		return DataPart(FormData(merged)), nil

	case a.Kind == PartData && b.Kind == PartData && a.Data.Kind == KindJSON && b.Data.Kind == KindJSON:
		merged, err := mergeJSON(a.Data.JSON, b.Data.JSON)
		if err != nil {
			return RequestPart{}, err
		}
		return DataPart(JSONData(merged)), nil

	default:
		return a, nil
	}
}

// mergeJSON deep-merges two JSON trees: keys present only in b are added;
// keys present in both recurse if both values are objects, otherwise b
// wins; non-object top-level values have b replace a entirely. Uses mergo
// for the object/object case, matching its WithOverride semantics exactly.
func mergeJSON(a, b any) (any, error) {
	aMap, aOK := a.(map[string]any)
	bMap, bOK := b.(map[string]any)
	if !aOK || !bOK {
		return b, nil
	}

	dst := make(map[string]any, len(aMap))
	for k, v := range aMap {
		dst[k] = v
	}
	if err := mergo.Merge(&dst, map[string]any(bMap), mergo.WithOverride, mergo.WithOverwriteWithEmptyValue); err != nil {
		return nil, fmt.Errorf("merge json bodies: %w", err)
	}
	return dst, nil
}
