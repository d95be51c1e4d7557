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
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name string `json:"name"`
}

func newTestClient(fs *fakeServer) *Client {
	auth := NewAuthenticator(fs.URL, testAPIToken, AuthenticatorOpts{Clock: newFakeClock()})
	return NewClient(fs.URL, auth, ClientOpts{UserAgent: "test-agent"})
}

func TestGetPageSendsOffsetLimitAndQuery(t *testing.T) {
	fs := newFakeServer(t)
	var got url.Values
	fs.router.Get("/api/things", requireBearer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		writeJSON(w, map[string]any{
			"totalCount": 42,
			"items":      []item{{Name: "a"}, {Name: "b"}},
		})
	}))

	query := url.Values{"filter": {"policyRuleEnabled:true"}}
	page, err := GetPage[item](context.Background(), newTestClient(fs), "/api/things", query, 10, 2)
	require.NoError(t, err)

	assert.Equal(t, 42, page.TotalCount)
	assert.Equal(t, []item{{Name: "a"}, {Name: "b"}}, page.Items)
	assert.Equal(t, "10", got.Get("offset"))
	assert.Equal(t, "2", got.Get("limit"))
	assert.Equal(t, "policyRuleEnabled:true", got.Get("filter"))
	assert.Len(t, query, 1, "caller query must not be mutated")
}

func TestGetPageEmpty(t *testing.T) {
	fs := newFakeServer(t)
	fs.router.Get("/api/things", requireBearer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"totalCount": 0})
	}))

	page, err := GetPage[item](context.Background(), newTestClient(fs), "/api/things", nil, 0, 25)
	require.NoError(t, err)
	assert.Zero(t, page.TotalCount)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func TestGetPageNotFoundIsEmpty(t *testing.T) {
	fs := newFakeServer(t)

	page, err := GetPage[item](context.Background(), newTestClient(fs), "/api/missing", nil, 0, 25)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.TotalCount)
}

func TestGetForwardsAcceptAndResolvesAbsoluteHref(t *testing.T) {
	fs := newFakeServer(t)
	fs.router.Get("/api/things/1", requireBearer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/vnd.custom+json", r.Header.Get("Accept"))
		writeJSON(w, item{Name: "one"})
	}))

	var it item
	err := newTestClient(fs).Get(context.Background(), fs.URL+"/api/things/1", "application/vnd.custom+json", &it)
	require.NoError(t, err)
	assert.Equal(t, "one", it.Name)
}

func TestGetTransportErrors(t *testing.T) {
	fs := newFakeServer(t)
	fs.router.Get("/api/broken", requireBearer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	fs.router.Get("/api/garbage", requireBearer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	c := newTestClient(fs)

	var it item
	err := c.Get(context.Background(), "/api/broken", "", &it)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
	assert.Contains(t, err.Error(), "boom")

	err = c.Get(context.Background(), "/api/garbage", "", &it)
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusOK, te.StatusCode)

	err = c.Get(context.Background(), "/api/missing", "", &it)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGetAuthenticationFailure(t *testing.T) {
	fs := newFakeServer(t)
	auth := NewAuthenticator(fs.URL, "wrong-token", AuthenticatorOpts{})
	c := NewClient(fs.URL, auth, ClientOpts{})

	_, err := GetPage[item](context.Background(), c, "/api/things", nil, 0, 1)
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
}

func TestResolveURL(t *testing.T) {
	c := NewClient("https://bd.example.com/", nil, ClientOpts{})
	assert.Equal(t, "https://bd.example.com/api/components", c.ResolveURL("/api/components"))
	assert.Equal(t, "https://bd.example.com/api/components", c.ResolveURL("api/components"))
	assert.Equal(t, "https://other.example.com/x", c.ResolveURL("https://other.example.com/x"))
}

func TestNewHTTPClientTrustCert(t *testing.T) {
	s := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer s.Close()

	resp, err := NewHTTPClient(true).Get(s.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, err = NewHTTPClient(false).Get(s.URL)
	assert.Error(t, err, "self-signed certificate is rejected")
}
