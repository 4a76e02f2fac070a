package attack

import (
	"context"
	"io"
	"net/http"

	"github.com/roelfdiedericks/csrfkiller/internal/config"
	"github.com/roelfdiedericks/csrfkiller/internal/httpclient"
	"github.com/roelfdiedericks/csrfkiller/internal/tokens"
)

// Outcome is the result of one attempt: either a completed response or a
// non-fatal transport error (spec.md §4.3/§4.8). Fatal errors are returned
// directly from Run instead of being wrapped in an Outcome.
type Outcome struct {
	Status       int
	ContentLen   int64
	Body         string
	TransportErr error
}

// Run performs the single-attempt sequence: CSRF fetch, token extraction,
// target build, send (spec.md §4.3). CSRF state is fetched fresh on every
// call — never cached across payloads, so servers that bind tokens to
// sessions via cookies (carried back by StoreCookies) still see a fresh
// token each attempt.
func Run(ctx context.Context, client *http.Client, settings *config.Settings, p Payload) (Outcome, error) {
	csrfBody, transportErr := fetchBody(ctx, client, http.MethodGet, settings.Csrf.URL, nil)
	if transportErr != nil {
		return Outcome{TransportErr: transportErr}, nil
	}

	csrfParts, err := tokens.Extract(settings.Csrf.Tokens, csrfBody)
	if err != nil {
		// Token extraction failures are fatal (spec.md §4.4): the regex is
		// user-declared and the CSRF page is assumed structurally stable.
		return Outcome{}, err
	}

	req, err := BuildRequest(ctx, settings.Target, csrfParts, p)
	if err != nil {
		return Outcome{}, err
	}
	applyDefaultHeaders(req, settings.Options)

	resp, err := client.Do(req)
	if err != nil {
		return Outcome{TransportErr: err}, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{TransportErr: err}, nil
	}

	contentLen := resp.ContentLength
	if contentLen < 0 {
		contentLen = int64(len(body))
	}

	return Outcome{Status: resp.StatusCode, ContentLen: contentLen, Body: string(body)}, nil
}

// applyDefaultHeaders installs the user's configured default headers
// (spec.md §4.7) onto req without clobbering headers already set by the
// CSRF/target merge — both are allowed to carry the same header name.
func applyDefaultHeaders(req *http.Request, opts config.RequestOptions) {
	for name, values := range httpclient.DefaultHeaders(opts) {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
}

// fetchBody issues a request and returns its decoded body text. Any failure
// (connect, DNS, timeout, body read) is a transport error: counted, not
// fatal, per spec.md §4.3.
func fetchBody(ctx context.Context, client *http.Client, method, rawURL string, body io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(text), nil
}
