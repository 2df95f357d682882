// Copyright (c) 2026 SecretPlan Team
// SecretPlan - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package breach

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JacobLinCool/secret-plan/internal/model"
)

// rangeServer fakes the Pwned Passwords range endpoint. It records the
// request path and serves canned suffix lines.
func rangeServer(t *testing.T, lines string, gotPath *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*gotPath = r.URL.Path
		fmt.Fprint(w, lines)
	}))
}

func TestCheckCompromised(t *testing.T) {
	password := "p4ss"
	digest := fmt.Sprintf("%X", sha1.Sum([]byte(password)))
	suffix := digest[5:]

	var path string
	srv := rangeServer(t, "0000000000000000000000000000000000A:2\r\n"+suffix+":1337\r\n", &path)
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	got, err := c.Check(context.Background(), password)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if got != model.BreachCompromised {
		t.Errorf("state = %v, want compromised", got)
	}
	if want := "/range/" + digest[:5]; path != want {
		t.Errorf("request path = %q, want %q", path, want)
	}
}

func TestCheckSafe(t *testing.T) {
	var path string
	srv := rangeServer(t, "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA:10\r\n", &path)
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	got, err := c.Check(context.Background(), "unique-enough-password")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if got != model.BreachSafe {
		t.Errorf("state = %v, want safe", got)
	}
}

func TestCheckNeverSendsFullHash(t *testing.T) {
	var path string
	srv := rangeServer(t, "", &path)
	defer srv.Close()

	password := "hunter2"
	c := NewClient(WithBaseURL(srv.URL))
	if _, err := c.Check(context.Background(), password); err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	digest := fmt.Sprintf("%X", sha1.Sum([]byte(password)))
	if len(path) > len("/range/")+5 {
		t.Errorf("request path %q carries more than the 5-char prefix", path)
	}
	if path != "/range/"+digest[:5] {
		t.Errorf("request path = %q, want prefix-only query", path)
	}
}

func TestCheckSuffixCaseInsensitive(t *testing.T) {
	password := "p4ss"
	digest := fmt.Sprintf("%X", sha1.Sum([]byte(password)))
	lower := fmt.Sprintf("%x", sha1.Sum([]byte(password)))
	_ = digest

	var path string
	srv := rangeServer(t, lower[5:]+":3\r\n", &path)
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	got, err := c.Check(context.Background(), password)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if got != model.BreachCompromised {
		t.Errorf("lowercase suffix should still match, got %v", got)
	}
}

func TestCheckZeroCountIsNotAMatch(t *testing.T) {
	password := "p4ss"
	digest := fmt.Sprintf("%X", sha1.Sum([]byte(password)))

	var path string
	srv := rangeServer(t, digest[5:]+":0\r\n", &path)
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	got, err := c.Check(context.Background(), password)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if got != model.BreachSafe {
		t.Errorf("zero occurrence count must not mark compromised, got %v", got)
	}
}

func TestCheckServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	if _, err := c.Check(context.Background(), "pw"); !errors.Is(err, ErrBreachCheck) {
		t.Errorf("expected ErrBreachCheck on 500, got %v", err)
	}
}

func TestCheckNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from now on

	c := NewClient(WithBaseURL(srv.URL))
	if _, err := c.Check(context.Background(), "pw"); !errors.Is(err, ErrBreachCheck) {
		t.Errorf("expected ErrBreachCheck on refused connection, got %v", err)
	}
}

func TestCheckContextCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer func() { close(block); srv.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := NewClient(WithBaseURL(srv.URL))
	if _, err := c.Check(ctx, "pw"); !errors.Is(err, ErrBreachCheck) {
		t.Errorf("expected ErrBreachCheck on cancelled context, got %v", err)
	}
}
