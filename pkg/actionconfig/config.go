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

// Package actionconfig holds the settings of one action run.
//
// Settings come from an optional YAML file, then from the environment, where
// both plain variables and GitHub Actions inputs (INPUT_*) are honoured:
//
//	blackduckUrl: https://blackduck.example.com
//	detectVersion: 8.0.0
//	scanMode: rapid          # upper-cased on load
//	failOnAllPolicySeverities: false
//	commentPrOnSuccess: true
//	artifacts:
//	  endpoint: minio.example.com:9000
//	  bucket: rapid-scans
//	  useSSL: true
//
// Secrets (API tokens, storage keys) are usually left out of the file and
// passed through the environment instead.
package actionconfig

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/venslabs/blackduck-action/pkg/artifact"
	"github.com/venslabs/blackduck-action/pkg/detect"
	"github.com/venslabs/blackduck-action/pkg/envutil"
	"github.com/venslabs/blackduck-action/pkg/report"
	"go.yaml.in/yaml/v3"
)

// ScanModes are the Detect scan modes the action accepts.
var ScanModes = []string{detect.ScanModeRapid, "INTELLIGENT", "STATELESS"}

type Config struct {
	GitHubToken               string          `yaml:"githubToken"`
	BlackDuckURL              string          `yaml:"blackduckUrl"`
	BlackDuckAPIToken         string          `yaml:"blackduckApiToken"`
	DetectVersion             string          `yaml:"detectVersion"`
	ScanMode                  string          `yaml:"scanMode"`
	FailOnAllPolicySeverities bool            `yaml:"failOnAllPolicySeverities"`
	OutputPathOverride        string          `yaml:"outputPathOverride"`
	DetectTrustCert           bool            `yaml:"detectTrustCert"`
	FailIfDetectFails         bool            `yaml:"failIfDetectFails"`
	CommentPROnSuccess        bool            `yaml:"commentPrOnSuccess"`
	MaxReportSize             int             `yaml:"maxReportSize"`
	Artifacts                 artifact.Config `yaml:"artifacts"`
}

func Default() *Config {
	return &Config{
		DetectVersion: detect.DefaultVersion,
		ScanMode:      detect.ScanModeRapid,
		MaxReportSize: report.DefaultMaxSize,
	}
}

// Load parses the YAML file at path on top of Default. It does not validate,
// since the environment may still supply missing values.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	c.normalize()
	return c, nil
}

// ApplyEnv overrides fields whose variable or action input is set.
func (c *Config) ApplyEnv() {
	c.GitHubToken = envutil.String("GITHUB_TOKEN", "github-token", c.GitHubToken)
	c.BlackDuckURL = envutil.String("BLACKDUCK_URL", "blackduck-url", c.BlackDuckURL)
	c.BlackDuckAPIToken = envutil.String("BLACKDUCK_API_TOKEN", "blackduck-api-token", c.BlackDuckAPIToken)
	c.DetectVersion = envutil.String("DETECT_VERSION", "detect-version", c.DetectVersion)
	c.ScanMode = envutil.String("DETECT_SCAN_MODE", "scan-mode", c.ScanMode)
	c.FailOnAllPolicySeverities = envutil.Bool("", "fail-on-all-policy-severities", c.FailOnAllPolicySeverities)
	c.OutputPathOverride = envutil.String("", "output-path-override", c.OutputPathOverride)
	c.DetectTrustCert = envutil.Bool("BLACKDUCK_TRUST_CERT", "detect-trust-cert", c.DetectTrustCert)
	c.FailIfDetectFails = envutil.Bool("", "fail-if-detect-fails", c.FailIfDetectFails)
	c.CommentPROnSuccess = envutil.Bool("", "comment-pr-on-success", c.CommentPROnSuccess)
	c.MaxReportSize = envutil.Int("", "max-report-size", c.MaxReportSize)

	a := &c.Artifacts
	a.Endpoint = envutil.String("ARTIFACT_ENDPOINT", "artifact-endpoint", a.Endpoint)
	a.Region = envutil.String("ARTIFACT_REGION", "artifact-region", a.Region)
	a.Bucket = envutil.String("ARTIFACT_BUCKET", "artifact-bucket", a.Bucket)
	a.AccessKey = envutil.String("ARTIFACT_ACCESS_KEY", "artifact-access-key", a.AccessKey)
	a.SecretKey = envutil.String("ARTIFACT_SECRET_KEY", "artifact-secret-key", a.SecretKey)
	a.UseSSL = envutil.Bool("ARTIFACT_USE_SSL", "artifact-use-ssl", a.UseSSL)
	a.Prefix = envutil.String("ARTIFACT_PREFIX", "artifact-prefix", a.Prefix)

	c.normalize()
}

func (c *Config) normalize() {
	c.ScanMode = strings.ToUpper(strings.TrimSpace(c.ScanMode))
	c.BlackDuckURL = strings.TrimSpace(c.BlackDuckURL)
}

// IsRapid reports whether Detect runs in RAPID mode.
func (c *Config) IsRapid() bool {
	return c.ScanMode == detect.ScanModeRapid
}

// Validate returns every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	if c.BlackDuckURL == "" {
		errs = append(errs, errors.New("blackduck-url is required"))
	}
	if c.BlackDuckAPIToken == "" {
		errs = append(errs, errors.New("blackduck-api-token is required"))
	}
	if c.GitHubToken == "" {
		errs = append(errs, errors.New("github-token is required"))
	}
	if !slices.Contains(ScanModes, c.ScanMode) {
		errs = append(errs, fmt.Errorf("scan-mode %q must be one of %s", c.ScanMode, strings.Join(ScanModes, ", ")))
	}
	if c.MaxReportSize <= 0 {
		errs = append(errs, fmt.Errorf("max-report-size must be positive, got %d", c.MaxReportSize))
	}
	if a := c.Artifacts; (a.Endpoint == "") != (a.Bucket == "") {
		errs = append(errs, errors.New("artifact endpoint and bucket must be set together"))
	}
	return errors.Join(errs...)
}
