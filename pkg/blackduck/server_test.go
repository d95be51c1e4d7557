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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

const (
	testAPIToken    = "api-token"
	testBearerToken = "bearer-1"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeServer mimics the handful of Black Duck endpoints the client touches.
type fakeServer struct {
	*httptest.Server
	router chi.Router

	authCalls atomic.Int32
	ttlMillis int64
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{router: chi.NewRouter(), ttlMillis: int64((2 * time.Hour) / time.Millisecond)}
	fs.router.Post("/api/tokens/authenticate", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "token "+testAPIToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fs.authCalls.Add(1)
		writeJSON(w, map[string]any{
			"bearerToken":           testBearerToken,
			"expiresInMilliseconds": fs.ttlMillis,
		})
	})
	fs.Server = httptest.NewServer(fs.router)
	t.Cleanup(fs.Close)
	return fs
}

// requireBearer wraps a handler and rejects requests without the expected bearer token.
func requireBearer(t *testing.T, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer "+testBearerToken {
			t.Errorf("Authorization = %q, want Bearer %s", got, testBearerToken)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
