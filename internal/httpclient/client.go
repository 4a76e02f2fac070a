// Package httpclient builds the shared *http.Client used for both the CSRF
// fetch and the target fire, from config.RequestOptions (spec.md §4.7).
package httpclient

import (
	"crypto/tls"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/roelfdiedericks/csrfkiller/internal/config"
	kerr "github.com/roelfdiedericks/csrfkiller/internal/errors"
)

// New builds a *http.Client from opts. TLS certificate verification is
// disabled unconditionally: this is an offensive tool that must work
// against self-signed targets (spec.md §4.7). No flag re-enables it; see
// SPEC_FULL.md §13 Q4.
func New(opts config.RequestOptions) (*http.Client, error) {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // intentional, see spec.md §4.7
	}

	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, kerr.WrapKiller("invalid proxy", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   time.Duration(opts.TimeoutSeconds * float32(time.Second)),
	}

	if !opts.FollowRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	if opts.StoreCookies {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, kerr.WrapKiller("failed to build the client", err)
		}
		client.Jar = jar
	}

	return client, nil
}

// DefaultHeaders returns a per-request shallow copy of opts.Headers, safe to
// mutate onto a request without aliasing the shared Settings value.
func DefaultHeaders(opts config.RequestOptions) http.Header {
	if opts.Headers == nil {
		return nil
	}
	out := make(http.Header, len(opts.Headers))
	for k, v := range opts.Headers {
		out[k] = append([]string(nil), v...)
	}
	return out
}
