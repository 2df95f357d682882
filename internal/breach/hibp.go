// Copyright (c) 2026 SecretPlan Team
// SecretPlan - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package breach queries an external breach corpus for leaked passwords
// using the k-anonymity range protocol: only the first five hex characters
// of the password's SHA-1 ever leave the process. Membership is decided
// locally against the returned suffix list.
package breach

import (
	"bufio"
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JacobLinCool/secret-plan/internal/model"
)

// ErrBreachCheck is returned for any network or service failure. It is never
// silently mapped to Safe or Unknown; callers must be able to distinguish
// "checked and clean" from "could not check".
var ErrBreachCheck = errors.New("breach check failed")

// prefixLen is the number of leading hex characters sent to the service.
const prefixLen = 5

// DefaultBaseURL is the Pwned Passwords range endpoint.
const DefaultBaseURL = "https://api.pwnedpasswords.com"

// DefaultTimeout bounds a single range query.
const DefaultTimeout = 10 * time.Second

// Oracle is the capability the vault manager depends on: something that can
// classify a password as safe or compromised. Implementations must never
// transmit the plaintext password or its full hash.
type Oracle interface {
	Check(ctx context.Context, password string) (model.BreachState, error)
}

// Client is the HIBP-compatible Oracle implementation.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different range endpoint, used by tests
// and self-hosted mirrors.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient builds a breach oracle client with a bounded request timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: "SecretPlan/1.0",
		http:      &http.Client{Timeout: DefaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Check implements Oracle. The password is hashed with SHA-1, the first five
// hex characters are sent to the range endpoint, and the remaining 35 are
// compared locally against the response. A matched suffix with a positive
// count means Compromised; no match means Safe; any failure to complete the
// query is ErrBreachCheck.
func (c *Client) Check(ctx context.Context, password string) (model.BreachState, error) {
	digest := fmt.Sprintf("%X", sha1.Sum([]byte(password)))
	prefix, suffix := digest[:prefixLen], digest[prefixLen:]

	url := fmt.Sprintf("%s/range/%s", c.baseURL, prefix)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.BreachUnknown, fmt.Errorf("%w: building request: %v", ErrBreachCheck, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return model.BreachUnknown, fmt.Errorf("%w: %v", ErrBreachCheck, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return model.BreachUnknown, fmt.Errorf("%w: service returned %s", ErrBreachCheck, resp.Status)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		candidate, count, ok := splitRangeLine(line)
		if !ok {
			continue
		}
		if strings.EqualFold(candidate, suffix) && count > 0 {
			return model.BreachCompromised, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return model.BreachUnknown, fmt.Errorf("%w: reading response: %v", ErrBreachCheck, err)
	}

	return model.BreachSafe, nil
}

// splitRangeLine parses one "SUFFIX:COUNT" response line.
func splitRangeLine(line string) (suffix string, count int64, ok bool) {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return "", 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return "", 0, false
	}
	return parts[0], n, true
}
