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
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(fs *fakeServer) *Service {
	return NewService(newTestClient(fs))
}

func TestEnabledPoliciesExist(t *testing.T) {
	for _, total := range []int{0, 3} {
		fs := newFakeServer(t)
		fs.router.Get("/api/policy-rules", requireBearer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "policyRuleEnabled:true", r.URL.Query().Get("filter"))
			assert.Equal(t, "1", r.URL.Query().Get("limit"))
			writeJSON(w, map[string]any{"totalCount": total, "items": []any{}})
		}))

		ok, err := newTestService(fs).EnabledPoliciesExist(context.Background())
		require.NoError(t, err)
		assert.Equal(t, total > 0, ok)
	}
}

func TestEnabledPoliciesExistError(t *testing.T) {
	fs := newFakeServer(t)
	fs.router.Get("/api/policy-rules", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := newTestService(fs).EnabledPoliciesExist(context.Background())
	require.Error(t, err)
	var te *TransportError
	assert.ErrorAs(t, err, &te)
}

func TestFindComponentVersion(t *testing.T) {
	fs := newFakeServer(t)
	fs.router.Get("/api/components", requireBearer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("q") {
		case "maven:org.foo:bar:1.0":
			assert.Equal(t, "1", r.URL.Query().Get("limit"))
			writeJSON(w, map[string]any{"totalCount": 1, "items": []ComponentSearchResult{{
				Component:     fs.URL + "/api/components/c1",
				ComponentName: "bar",
				Version:       fs.URL + "/api/components/c1/versions/v1",
				VersionName:   "1.0",
			}}})
		case "npm:versionless":
			writeJSON(w, map[string]any{"totalCount": 1, "items": []ComponentSearchResult{{ComponentName: "versionless"}}})
		default:
			writeJSON(w, map[string]any{"totalCount": 0, "items": []any{}})
		}
	}))
	svc := newTestService(fs)
	ctx := context.Background()

	found, err := svc.FindComponentVersion(ctx, "maven:org.foo:bar:1.0")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, fs.URL+"/api/components/c1/versions/v1", found.Version)

	found, err = svc.FindComponentVersion(ctx, "npm:unknown")
	require.NoError(t, err)
	assert.Nil(t, found)

	found, err = svc.FindComponentVersion(ctx, "npm:versionless")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestComponentVersionDetails(t *testing.T) {
	fs := newFakeServer(t)
	const versionPath = "/api/components/c1/versions/v1"
	fs.router.Get(versionPath, requireBearer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"license": map[string]any{
				"licenses": []map[string]string{{"name": "MIT", "license": fs.URL + "/api/licenses/mit"}},
			},
		})
	}))
	fs.router.Get(versionPath+"/vulnerabilities", requireBearer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, VulnerabilityMediaType, r.Header.Get("Accept"))
		writeJSON(w, map[string]any{"totalCount": 2, "items": []map[string]any{
			{"name": "CVE-2024-0001", "useCvss3": true, "cvss3": map[string]any{"baseScore": 9.8, "severity": "CRITICAL"}},
			{"name": "BDSA-2024-0002", "useCvss3": false, "cvss2": map[string]any{"baseScore": 5.0, "severity": "MEDIUM"}},
		}})
	}))
	fs.router.Get(versionPath+"/upgrade-guidance", requireBearer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"shortTerm": map[string]any{"versionName": "1.1", "vulnerabilityRisk": map[string]int{"high": 1}},
			"longTerm":  map[string]any{"versionName": "2.0"},
		})
	}))
	svc := newTestService(fs)
	ctx := context.Background()
	href := fs.URL + versionPath

	cv, err := svc.ComponentVersion(ctx, href)
	require.NoError(t, err)
	assert.Equal(t, href, cv.Meta.Href)
	require.Len(t, cv.License.Licenses, 1)
	assert.Equal(t, "MIT", cv.License.Licenses[0].Name)

	vulns, err := svc.ComponentVulnerabilities(ctx, href)
	require.NoError(t, err)
	require.Len(t, vulns, 2)
	score, ok := vulns[0].BaseScore()
	assert.True(t, ok)
	assert.InDelta(t, 9.8, score, 0.001)
	score, ok = vulns[1].BaseScore()
	assert.True(t, ok)
	assert.InDelta(t, 5.0, score, 0.001)

	g, err := svc.UpgradeGuidance(ctx, href)
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, "1.1", g.ShortTerm.VersionName)
	assert.Equal(t, 1, g.ShortTerm.VulnerabilityRisk.Total())
	assert.Equal(t, "2.0", g.LongTerm.VersionName)
	assert.Zero(t, g.LongTerm.VulnerabilityRisk.Total())
}

func TestComponentLookupsNotFound(t *testing.T) {
	fs := newFakeServer(t)
	svc := newTestService(fs)
	ctx := context.Background()
	href := fs.URL + "/api/components/gone/versions/gone"

	vulns, err := svc.ComponentVulnerabilities(ctx, href)
	require.NoError(t, err)
	assert.Empty(t, vulns)

	g, err := svc.UpgradeGuidance(ctx, href)
	require.NoError(t, err)
	assert.Nil(t, g)

	_, err = svc.ComponentVersion(ctx, href)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBaseScoreMissing(t *testing.T) {
	v := VulnerabilityView{Name: "X", UseCvss3: true, Cvss2: &VulnerabilityCvss{BaseScore: 4}}
	_, ok := v.BaseScore()
	assert.False(t, ok)
}
