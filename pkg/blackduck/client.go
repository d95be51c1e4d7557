// Copyright 2025 venslabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package blackduck

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "blackduck-action"
)

// TokenSource is satisfied by *Authenticator.
type TokenSource interface {
	Token(ctx context.Context) (BearerToken, error)
}

// Page is the envelope of every Black Duck collection response.
type Page[T any] struct {
	TotalCount int `json:"totalCount"`
	Items      []T `json:"items"`
}

// Client issues authenticated GET requests against one Black Duck server.
// It never pages on its own: callers ask for one page at a time.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	userAgent  string
}

type ClientOpts struct {
	HTTPClient *http.Client
	UserAgent  string
}

// NewHTTPClient returns the client used for Black Duck requests. trustCert
// accepts any server certificate, matching Detect's --blackduck.trust.cert.
func NewHTTPClient(trustCert bool) *http.Client {
	c := &http.Client{Timeout: DefaultTimeout}
	if trustCert {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		c.Transport = t
	}
	return c
}

func NewClient(baseURL string, tokens TokenSource, o ClientOpts) *Client {
	if o.HTTPClient == nil {
		o.HTTPClient = NewHTTPClient(false)
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	return &Client{
		baseURL:    CleanURL(baseURL),
		tokens:     tokens,
		httpClient: o.HTTPClient,
		userAgent:  o.UserAgent,
	}
}

// ResolveURL turns an API path into an absolute URL. Hrefs returned by the
// server are already absolute and pass through unchanged.
func (c *Client) ResolveURL(pathOrURL string) string {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return pathOrURL
	}
	if !strings.HasPrefix(pathOrURL, "/") {
		pathOrURL = "/" + pathOrURL
	}
	return c.baseURL + pathOrURL
}

// Get decodes the JSON resource at pathOrURL into v. A non-empty accept selects
// a specific media type. A 404 yields ErrNotFound.
func (c *Client) Get(ctx context.Context, pathOrURL, accept string, v any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	u := c.ResolveURL(pathOrURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &TransportError{URL: u, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token.Value)
	req.Header.Set("User-Agent", c.userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	} else {
		req.Header.Set("Accept", "application/json")
	}

	slog.DebugContext(ctx, "Black Duck request", "url", u, "accept", accept)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{URL: u, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("GET %s: %w", u, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &TransportError{URL: u, StatusCode: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(body)))}
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &TransportError{URL: u, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// GetPage requests a single page of the collection at path. query carries extra
// parameters such as q or filter. A 404 is an empty page, not an error.
func GetPage[T any](ctx context.Context, c *Client, path string, query url.Values, offset, limit int) (Page[T], error) {
	q := url.Values{}
	for k, vs := range query {
		q[k] = append([]string(nil), vs...)
	}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))

	var page Page[T]
	err := c.Get(ctx, path+"?"+q.Encode(), "", &page)
	if errors.Is(err, ErrNotFound) {
		return Page[T]{Items: []T{}}, nil
	}
	if err != nil {
		return Page[T]{}, err
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page, nil
}
