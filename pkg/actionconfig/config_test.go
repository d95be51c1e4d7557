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

package actionconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venslabs/blackduck-action/pkg/detect"
	"github.com/venslabs/blackduck-action/pkg/report"
)

func writeConfig(t *testing.T, s string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(s), 0o644))
	return p
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.Equal(t, detect.DefaultVersion, c.DetectVersion)
	assert.Equal(t, report.DefaultMaxSize, c.MaxReportSize)
	assert.True(t, c.IsRapid())
}

func TestLoadFile(t *testing.T) {
	p := writeConfig(t, `
blackduckUrl: " https://bd.example.com "
scanMode: intelligent
failOnAllPolicySeverities: true
commentPrOnSuccess: true
artifacts:
  endpoint: minio:9000
  bucket: scans
  useSSL: true
`)
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "https://bd.example.com", c.BlackDuckURL)
	assert.Equal(t, "INTELLIGENT", c.ScanMode)
	assert.False(t, c.IsRapid())
	assert.True(t, c.FailOnAllPolicySeverities)
	assert.True(t, c.CommentPROnSuccess)
	assert.Equal(t, detect.DefaultVersion, c.DetectVersion)
	assert.True(t, c.Artifacts.Enabled())
	assert.True(t, c.Artifacts.UseSSL)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "scanMode: [rapid"))
	assert.ErrorContains(t, err, "failed to parse")
}

func TestApplyEnv(t *testing.T) {
	for _, k := range []string{"GITHUB_TOKEN", "BLACKDUCK_API_TOKEN", "DETECT_VERSION", "DETECT_SCAN_MODE", "ARTIFACT_BUCKET"} {
		t.Setenv(k, "")
	}
	t.Setenv("BLACKDUCK_URL", "https://env.example.com")
	t.Setenv("INPUT_BLACKDUCK-API-TOKEN", " token ")
	t.Setenv("INPUT_GITHUB-TOKEN", "ghs_x")
	t.Setenv("INPUT_SCAN-MODE", "rapid")
	t.Setenv("INPUT_FAIL-IF-DETECT-FAILS", "true")
	t.Setenv("INPUT_ARTIFACT-BUCKET", "from-input")

	c, err := Load(writeConfig(t, "blackduckUrl: https://file.example.com\nscanMode: STATELESS\ndetectVersion: 8.1.0\n"))
	require.NoError(t, err)
	c.ApplyEnv()

	assert.Equal(t, "https://env.example.com", c.BlackDuckURL)
	assert.Equal(t, "token", c.BlackDuckAPIToken)
	assert.Equal(t, "ghs_x", c.GitHubToken)
	assert.Equal(t, "RAPID", c.ScanMode)
	assert.Equal(t, "8.1.0", c.DetectVersion)
	assert.True(t, c.FailIfDetectFails)
	assert.False(t, c.CommentPROnSuccess)
	assert.Equal(t, "from-input", c.Artifacts.Bucket)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := Default()
		c.BlackDuckURL = "https://bd"
		c.BlackDuckAPIToken = "t"
		c.GitHubToken = "g"
		return c
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no url", func(c *Config) { c.BlackDuckURL = "" }, "blackduck-url is required"},
		{"no api token", func(c *Config) { c.BlackDuckAPIToken = "" }, "blackduck-api-token is required"},
		{"no github token", func(c *Config) { c.GitHubToken = "" }, "github-token is required"},
		{"bad mode", func(c *Config) { c.ScanMode = "FULL" }, `scan-mode "FULL" must be one of`},
		{"bad size", func(c *Config) { c.MaxReportSize = 0 }, "max-report-size must be positive"},
		{"half artifacts", func(c *Config) { c.Artifacts.Endpoint = "minio:9000" }, "must be set together"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.ErrorContains(t, c.Validate(), tt.want)
		})
	}

	err := (&Config{}).Validate()
	assert.ErrorContains(t, err, "blackduck-url is required")
	assert.ErrorContains(t, err, "github-token is required")
}
