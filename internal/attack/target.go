// Package attack implements the per-payload two-request protocol: a CSRF
// fetch followed by a composed target request (spec.md §4.3, §4.5).
package attack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/roelfdiedericks/csrfkiller/internal/config"
	kerr "github.com/roelfdiedericks/csrfkiller/internal/errors"
	"github.com/roelfdiedericks/csrfkiller/internal/parts"
)

// Payload is one attempt's transient per-attempt value (spec.md §3).
type Payload struct {
	// Line is set in brute-force mode.
	Line string
	// IsUpload distinguishes the two Payload variants.
	IsUpload bool
	// FieldName and Path are set in upload mode.
	FieldName string
	Path      string
}

// BuildRequest composes the final *http.Request for the target attack,
// given the CSRF-derived parts and the current payload, per spec.md §4.5.
func BuildRequest(ctx context.Context, target config.Target, csrfParts *parts.RequestParts, p Payload) (*http.Request, error) {
	requestParts := parts.New()
	requestParts.Extend(csrfParts)

	finalURL := target.URL

	if p.IsUpload {
		filePart, err := readUploadFile(p.FieldName, p.Path)
		if err != nil {
			return nil, err
		}
		requestParts.Add(parts.DataPart(filePart))
	} else {
		finalURL = strings.ReplaceAll(target.URL, "FUZZ", p.Line)
		if err := requestParts.AddFuzzData(target.Data, p.Line); err != nil {
			return nil, kerr.WrapKiller("failed to apply fuzz substitution", err)
		}
	}

	if err := requestParts.Join(); err != nil {
		return nil, kerr.WrapKiller("failed to merge request parts", err)
	}

	return buildFromParts(ctx, target.Method.HTTPMethod(), finalURL, requestParts)
}

func readUploadFile(fieldName, path string) (parts.Data, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return parts.Data{}, kerr.WrapKiller(fmt.Sprintf("can't read upload file %q", path), err)
	}

	mime := guessMIME(path, b)
	return parts.FileDataOf(fieldName, filepath.Base(path), mime, b), nil
}

// guessMIME sniffs the file's content type via the mimetype library,
// falling back to "text/plain" when detection is inconclusive — the
// content-sniffing equivalent of spec.md §4.5's "guess MIME from
// extension, default text/plain".
func guessMIME(path string, content []byte) string {
	detected := mimetype.Detect(content)
	if detected == nil || detected.String() == "" || detected.Is("application/octet-stream") {
		return "text/plain"
	}
	return detected.String()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// createFormFile writes a multipart file part with the sniffed MIME type as
// its Content-Type. multipart.Writer.CreateFormFile hardcodes
// application/octet-stream, which would silently discard guessMIME's
// result, so the part header is built by hand via CreatePart instead,
// mirroring CreateFormFile's own header construction otherwise.
func createFormFile(w *multipart.Writer, file parts.FileData) (io.Writer, error) {
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(file.FieldName), quoteEscaper.Replace(file.FileName)))
	header.Set("Content-Type", file.MIME)
	return w.CreatePart(header)
}

// buildFromParts applies the merged RequestParts onto a request, routing to
// form/JSON/multipart encoding per spec.md §4.5 step 4.
func buildFromParts(ctx context.Context, method, rawURL string, requestParts *parts.RequestParts) (*http.Request, error) {
	query := url.Values{}
	headers := http.Header{}
	var cookieLine string
	var body io.Reader
	contentType := ""

	multipartForm, hasMultipart, err := collectMultipart(requestParts)
	if err != nil {
		return nil, err
	}

	for _, part := range requestParts.Values {
		switch part.Kind {
		case parts.PartQuery:
			query.Add(part.Name, part.Value)
		case parts.PartHeader:
			headers.Add(part.Name, part.Value)
		case parts.PartCookie:
			cookieLine = part.Value
		case parts.PartData:
			switch part.Data.Kind {
			case parts.KindForm:
				if !hasMultipart {
					body = strings.NewReader(url.Values(toURLValues(part.Data.Form)).Encode())
					contentType = "application/x-www-form-urlencoded"
				}
			case parts.KindJSON:
				if !hasMultipart {
					raw, err := json.Marshal(part.Data.JSON)
					if err != nil {
						return nil, kerr.WrapKiller("failed to encode json body", err)
					}
					body = bytes.NewReader(raw)
					contentType = "application/json"
				}
			}
		}
	}

	if hasMultipart {
		body = multipartForm.buf
		contentType = multipartForm.contentType
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	for name, values := range headers {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	if cookieLine != "" {
		req.Header.Set("Cookie", cookieLine)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.URL.RawQuery = mergeQuery(req.URL.RawQuery, query)

	return req, nil
}

func mergeQuery(existing string, add url.Values) string {
	if len(add) == 0 {
		return existing
	}
	values, _ := url.ParseQuery(existing)
	for k, vs := range add {
		for _, v := range vs {
			values.Add(k, v)
		}
	}
	return values.Encode()
}

func toURLValues(m map[string]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = []string{v}
	}
	return out
}

type multipartBody struct {
	buf         *bytes.Reader
	contentType string
}

// collectMultipart gathers every PartText and File part (in order) into a
// single multipart/form-data body. Per spec.md §4.5/§4.6, presence of any
// such part means the request is sent as multipart, overriding any Form or
// JSON body that survived the merge.
func collectMultipart(requestParts *parts.RequestParts) (multipartBody, bool, error) {
	var found bool
	for _, part := range requestParts.Values {
		if part.Kind == parts.PartData && (part.Data.Kind == parts.KindPartText || part.Data.Kind == parts.KindFile) {
			found = true
			break
		}
	}
	if !found {
		return multipartBody{}, false, nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, part := range requestParts.Values {
		if part.Kind != parts.PartData {
			continue
		}
		switch part.Data.Kind {
		case parts.KindPartText:
			for name, value := range part.Data.Form {
				if err := w.WriteField(name, value); err != nil {
					return multipartBody{}, false, fmt.Errorf("write multipart field %q: %w", name, err)
				}
			}
		case parts.KindFile:
			fw, err := createFormFile(w, part.Data.FileData)
			if err != nil {
				return multipartBody{}, false, fmt.Errorf("create multipart file part: %w", err)
			}
			if _, err := fw.Write(part.Data.FileData.Bytes); err != nil {
				return multipartBody{}, false, fmt.Errorf("write multipart file part: %w", err)
			}
		}
	}

	if err := w.Close(); err != nil {
		return multipartBody{}, false, fmt.Errorf("close multipart writer: %w", err)
	}

	return multipartBody{buf: bytes.NewReader(buf.Bytes()), contentType: w.FormDataContentType()}, true, nil
}
