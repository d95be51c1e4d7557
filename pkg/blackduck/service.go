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

// Package blackduck is a small client for the Black Duck REST API: bearer token
// caching, single-page collection requests and the lookups used to enrich
// rapid-scan policy violations.
package blackduck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
)

// VulnerabilityMediaType returns vulnerabilities with their CVSS detail.
const VulnerabilityMediaType = "application/vnd.blackducksoftware.vulnerability-4+json"

type Service struct {
	client *Client
}

func NewService(client *Client) *Service {
	return &Service{client: client}
}

// New wires an Authenticator, a Client and a Service for one server.
func New(baseURL, apiToken string, o ClientOpts) *Service {
	auth := NewAuthenticator(baseURL, apiToken, AuthenticatorOpts{HTTPClient: o.HTTPClient, UserAgent: o.UserAgent})
	return NewService(NewClient(baseURL, auth, o))
}

// EnabledPoliciesExist answers "is at least one policy rule enabled" with a
// single limit=1 request.
func (s *Service) EnabledPoliciesExist(ctx context.Context) (bool, error) {
	slog.DebugContext(ctx, "Requesting policies from Black Duck")
	page, err := s.policyRules(ctx, 1, ptr(true))
	if err != nil {
		return false, fmt.Errorf("failed to check Black Duck for policies: %w", err)
	}
	if page.TotalCount > 0 {
		slog.DebugContext(ctx, "Black Duck policies exist", "count", page.TotalCount)
		return true, nil
	}
	slog.InfoContext(ctx, "No Black Duck policies exist")
	return false, nil
}

func (s *Service) policyRules(ctx context.Context, limit int, enabled *bool) (Page[map[string]any], error) {
	q := url.Values{}
	if enabled != nil {
		q.Set("filter", "policyRuleEnabled:"+strconv.FormatBool(*enabled))
	}
	return GetPage[map[string]any](ctx, s.client, "/api/policy-rules", q, 0, limit)
}

// FindComponentVersion returns the first catalog match for a component
// identifier, or nil when there is none.
func (s *Service) FindComponentVersion(ctx context.Context, identifier string) (*ComponentSearchResult, error) {
	q := url.Values{}
	q.Set("q", identifier)
	page, err := GetPage[ComponentSearchResult](ctx, s.client, "/api/components", q, 0, 1)
	if err != nil {
		return nil, err
	}
	if len(page.Items) == 0 || page.Items[0].Version == "" {
		return nil, nil
	}
	return &page.Items[0], nil
}

// ComponentVersion fetches the component-version detail, licenses included.
func (s *Service) ComponentVersion(ctx context.Context, href string) (*ComponentVersionView, error) {
	var cv ComponentVersionView
	if err := s.client.Get(ctx, href, "", &cv); err != nil {
		return nil, err
	}
	if cv.Meta.Href == "" {
		cv.Meta.Href = href
	}
	return &cv, nil
}

// ComponentVulnerabilities lists the first page of vulnerabilities of a component version.
func (s *Service) ComponentVulnerabilities(ctx context.Context, versionHref string) ([]VulnerabilityView, error) {
	var page Page[VulnerabilityView]
	if err := s.client.Get(ctx, versionHref+"/vulnerabilities", VulnerabilityMediaType, &page); err != nil {
		if errors.Is(err, ErrNotFound) {
			return []VulnerabilityView{}, nil
		}
		return nil, err
	}
	if page.Items == nil {
		page.Items = []VulnerabilityView{}
	}
	return page.Items, nil
}

// UpgradeGuidance returns nil without error when the server has no guidance.
func (s *Service) UpgradeGuidance(ctx context.Context, versionHref string) (*UpgradeGuidanceView, error) {
	var g UpgradeGuidanceView
	if err := s.client.Get(ctx, versionHref+"/upgrade-guidance", "", &g); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

func ptr[T any](v T) *T { return &v }
