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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// TokenSafetyMargin is subtracted from a token's lifetime so that no request
	// starts with a token that would expire mid-flight.
	TokenSafetyMargin = 5 * time.Minute

	// DefaultTokenTTL applies when the server omits expiresInMilliseconds.
	DefaultTokenTTL = 2 * time.Hour

	authenticatePath = "/api/tokens/authenticate"
)

// Clock lets tests control token expiry.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// BearerToken is immutable once issued; a refresh replaces it.
type BearerToken struct {
	Value    string
	IssuedAt time.Time
	TTL      time.Duration
}

// Usable reports whether the token may still be sent at now.
func (t BearerToken) Usable(now time.Time) bool {
	if t.Value == "" {
		return false
	}
	return now.Before(t.IssuedAt.Add(t.TTL - TokenSafetyMargin))
}

type authenticationResponse struct {
	BearerToken           string `json:"bearerToken"`
	ExpiresInMilliseconds int64  `json:"expiresInMilliseconds"`
}

// Authenticator exchanges a long-lived API token for short-lived bearer tokens
// and caches the current one. Concurrent callers share a single refresh.
type Authenticator struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	clock      Clock
	userAgent  string

	mu    sync.Mutex
	token *BearerToken
	group singleflight.Group
}

type AuthenticatorOpts struct {
	HTTPClient *http.Client
	Clock      Clock
	UserAgent  string
}

func NewAuthenticator(baseURL, apiToken string, o AuthenticatorOpts) *Authenticator {
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if o.Clock == nil {
		o.Clock = SystemClock{}
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	return &Authenticator{
		baseURL:    CleanURL(baseURL),
		apiToken:   apiToken,
		httpClient: o.HTTPClient,
		clock:      o.Clock,
		userAgent:  o.UserAgent,
	}
}

// Token returns the cached bearer token, authenticating first when it is absent
// or stale. The shared refresh does not inherit the cancellation of the caller
// that started it; a cancelled caller stops waiting and the others get the token.
func (a *Authenticator) Token(ctx context.Context) (BearerToken, error) {
	if t, ok := a.cached(); ok {
		slog.DebugContext(ctx, "Access token ok")
		return t, nil
	}
	refreshCtx := context.WithoutCancel(ctx)
	ch := a.group.DoChan("token", func() (any, error) {
		// Another caller may have refreshed while we waited on the group.
		if t, ok := a.cached(); ok {
			return t, nil
		}
		slog.DebugContext(ctx, "Access token expired or absent, retrieving a fresh token")
		t, err := a.authenticate(refreshCtx)
		if err != nil {
			return BearerToken{}, err
		}
		a.mu.Lock()
		a.token = &t
		a.mu.Unlock()
		return t, nil
	})
	select {
	case <-ctx.Done():
		return BearerToken{}, fmt.Errorf("waiting for access token: %w", ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return BearerToken{}, r.Err
		}
		return r.Val.(BearerToken), nil
	}
}

func (a *Authenticator) cached() (BearerToken, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token == nil || !a.token.Usable(a.clock.Now()) {
		return BearerToken{}, false
	}
	return *a.token, true
}

func (a *Authenticator) authenticate(ctx context.Context) (BearerToken, error) {
	slog.InfoContext(ctx, "Initiating authentication request to Black Duck")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+authenticatePath, strings.NewReader(""))
	if err != nil {
		return BearerToken{}, &AuthenticationError{Err: err}
	}
	req.Header.Set("Authorization", "token "+a.apiToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return BearerToken{}, &AuthenticationError{Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return BearerToken{}, &AuthenticationError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(body))),
		}
	}

	var ar authenticationResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return BearerToken{}, &AuthenticationError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if ar.BearerToken == "" {
		return BearerToken{}, &AuthenticationError{StatusCode: resp.StatusCode, Err: errors.New("response carried no bearer token")}
	}

	ttl := time.Duration(ar.ExpiresInMilliseconds) * time.Millisecond
	if ar.ExpiresInMilliseconds <= 0 {
		ttl = DefaultTokenTTL
	}
	slog.InfoContext(ctx, "Successfully authenticated with Black Duck", "ttl", ttl)
	return BearerToken{
		Value:    ar.BearerToken,
		IssuedAt: a.clock.Now(),
		TTL:      ttl,
	}, nil
}

// CleanURL drops a trailing slash from the server URL.
func CleanURL(u string) string {
	return strings.TrimSuffix(strings.TrimSpace(u), "/")
}
