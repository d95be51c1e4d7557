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
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerTokenUsable(t *testing.T) {
	issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tok := BearerToken{Value: "x", IssuedAt: issued, TTL: time.Hour}

	assert.True(t, tok.Usable(issued))
	assert.True(t, tok.Usable(issued.Add(54*time.Minute)))
	assert.False(t, tok.Usable(issued.Add(55*time.Minute)), "the safety margin applies")
	assert.False(t, tok.Usable(issued.Add(2*time.Hour)))
	assert.False(t, BearerToken{}.Usable(issued), "an empty token is never usable")
}

func TestAuthenticatorCachesToken(t *testing.T) {
	fs := newFakeServer(t)
	clock := newFakeClock()
	auth := NewAuthenticator(fs.URL+"/", testAPIToken, AuthenticatorOpts{Clock: clock})
	ctx := context.Background()

	first, err := auth.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, testBearerToken, first.Value)
	assert.Equal(t, clock.Now(), first.IssuedAt)
	assert.Equal(t, 2*time.Hour, first.TTL)

	// Calls inside ttl - margin reuse the cached value.
	for i := 0; i < 5; i++ {
		clock.Advance(10 * time.Minute)
		tok, err := auth.Token(ctx)
		require.NoError(t, err)
		assert.Equal(t, first, tok)
	}
	assert.Equal(t, int32(1), fs.authCalls.Load())
}

func TestAuthenticatorRefreshesOnceAfterExpiry(t *testing.T) {
	fs := newFakeServer(t)
	clock := newFakeClock()
	auth := NewAuthenticator(fs.URL, testAPIToken, AuthenticatorOpts{Clock: clock})
	ctx := context.Background()

	first, err := auth.Token(ctx)
	require.NoError(t, err)

	clock.Advance(2*time.Hour - TokenSafetyMargin)
	second, err := auth.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fs.authCalls.Load())
	assert.True(t, second.IssuedAt.After(first.IssuedAt))

	_, err = auth.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fs.authCalls.Load())
}

func TestAuthenticatorConcurrentCallersShareRefresh(t *testing.T) {
	fs := newFakeServer(t)
	auth := NewAuthenticator(fs.URL, testAPIToken, AuthenticatorOpts{Clock: newFakeClock()})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := auth.Token(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, testBearerToken, tok.Value)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), fs.authCalls.Load())
}

func TestAuthenticatorRefreshSurvivesCancelledCaller(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		writeJSON(w, map[string]any{"bearerToken": testBearerToken, "expiresInMilliseconds": 3600000})
	}))
	defer server.Close()
	defer func() {
		select {
		case <-release:
		default:
			close(release)
		}
	}()
	auth := NewAuthenticator(server.URL, testAPIToken, AuthenticatorOpts{Clock: newFakeClock()})

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := auth.Token(ctx)
		firstErr <- err
	}()
	<-started

	type result struct {
		tok BearerToken
		err error
	}
	second := make(chan result, 1)
	go func() {
		tok, err := auth.Token(context.Background())
		second <- result{tok, err}
	}()

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, testBearerToken, got.tok.Value)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAuthenticatorDefaultTTL(t *testing.T) {
	fs := newFakeServer(t)
	fs.ttlMillis = 0
	auth := NewAuthenticator(fs.URL, testAPIToken, AuthenticatorOpts{Clock: newFakeClock()})

	tok, err := auth.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, tok.TTL)
}

func TestAuthenticatorFailures(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
	}{
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"errorMessage":"bad token"}`))
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "unparsable_body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("<html>maintenance</html>"))
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "missing_token",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"expiresInMilliseconds": 1000}`))
			},
			wantStatus: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			auth := NewAuthenticator(server.URL, testAPIToken, AuthenticatorOpts{})
			_, err := auth.Token(context.Background())
			require.Error(t, err)

			var authErr *AuthenticationError
			require.True(t, errors.As(err, &authErr), "got %T", err)
			assert.Equal(t, tt.wantStatus, authErr.StatusCode)
		})
	}
}

func TestAuthenticatorNetworkError(t *testing.T) {
	auth := NewAuthenticator("http://127.0.0.1:1", testAPIToken, AuthenticatorOpts{})
	_, err := auth.Token(context.Background())

	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Zero(t, authErr.StatusCode)
}

func TestCleanURL(t *testing.T) {
	assert.Equal(t, "https://bd.example.com", CleanURL("https://bd.example.com/"))
	assert.Equal(t, "https://bd.example.com", CleanURL(" https://bd.example.com "))
	assert.Equal(t, "", CleanURL(""))
}
