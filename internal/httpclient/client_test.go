package httpclient

import (
	"testing"

	"github.com/roelfdiedericks/csrfkiller/internal/config"
	kerr "github.com/roelfdiedericks/csrfkiller/internal/errors"
)

func TestNewDefaults(t *testing.T) {
	client, err := New(config.RequestOptions{FollowRedirects: true, TimeoutSeconds: 5})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if client.Jar != nil {
		t.Fatalf("want no cookie jar by default")
	}
	if client.CheckRedirect != nil {
		t.Fatalf("want default redirect policy when FollowRedirects is true")
	}
}

func TestNewStoreCookies(t *testing.T) {
	client, err := New(config.RequestOptions{StoreCookies: true, TimeoutSeconds: 5})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if client.Jar == nil {
		t.Fatalf("want cookie jar when StoreCookies is set")
	}
}

func TestNewNoRedirects(t *testing.T) {
	client, err := New(config.RequestOptions{FollowRedirects: false, TimeoutSeconds: 5})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if client.CheckRedirect == nil {
		t.Fatalf("want a redirect policy installed when FollowRedirects is false")
	}
}

func TestNewInvalidProxy(t *testing.T) {
	_, err := New(config.RequestOptions{Proxy: "://bad", TimeoutSeconds: 5})
	if !kerr.IsKiller(err) {
		t.Fatalf("want fatal error for invalid proxy, got %v", err)
	}
}
