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

// Package enricher merges rapid-scan policy violations with the component,
// vulnerability and upgrade-guidance data known to Black Duck.
package enricher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/venslabs/blackduck-action/pkg/api/types"
	"github.com/venslabs/blackduck-action/pkg/blackduck"
)

// Catalog is the subset of *blackduck.Service used for enrichment.
type Catalog interface {
	FindComponentVersion(ctx context.Context, identifier string) (*blackduck.ComponentSearchResult, error)
	ComponentVersion(ctx context.Context, href string) (*blackduck.ComponentVersionView, error)
	ComponentVulnerabilities(ctx context.Context, versionHref string) ([]blackduck.VulnerabilityView, error)
	UpgradeGuidance(ctx context.Context, versionHref string) (*blackduck.UpgradeGuidanceView, error)
}

// Result holds the outcome of one independent sub-fetch. A non-nil Err means
// the value is unusable and the affected report cells fall back.
type Result[T any] struct {
	Value T
	Err   error
}

func fetch[T any](ctx context.Context, f func(context.Context, string) (T, error), href string) Result[T] {
	v, err := f(ctx, href)
	return Result[T]{Value: v, Err: err}
}

// Opts configures the Enricher.
type Opts struct {
	Catalog Catalog
}

type Enricher struct {
	o Opts
}

func New(o Opts) (*Enricher, error) {
	if o.Catalog == nil {
		return nil, errors.New("no catalog")
	}
	return &Enricher{o: o}, nil
}

// EnrichAll enriches violations one after the other. The output order matches
// the input order, which is the row order of the rendered report.
func (e *Enricher) EnrichAll(ctx context.Context, violations []types.PolicyViolation) ([]EnrichedComponentReport, error) {
	reports := make([]EnrichedComponentReport, 0, len(violations))
	for _, v := range violations {
		r, err := e.Enrich(ctx, v)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// Enrich resolves one violation against the catalog. Only the component search
// can fail the call; the detail, vulnerability and upgrade-guidance lookups
// degrade their own cells.
func (e *Enricher) Enrich(ctx context.Context, v types.PolicyViolation) (EnrichedComponentReport, error) {
	match, err := e.o.Catalog.FindComponentVersion(ctx, v.ComponentIdentifier)
	if err != nil {
		return EnrichedComponentReport{}, fmt.Errorf("failed to search for component %q: %w", v.ComponentIdentifier, err)
	}
	if match == nil {
		slog.DebugContext(ctx, "No catalog match", "component", v.ComponentIdentifier)
		return fromViolation(v), nil
	}

	href := match.Version
	detail := fetch(ctx, e.o.Catalog.ComponentVersion, href)
	vulns := fetch(ctx, e.o.Catalog.ComponentVulnerabilities, href)
	guidance := fetch(ctx, e.o.Catalog.UpgradeGuidance, href)

	r := EnrichedComponentReport{
		ViolatedPolicies: v.PolicyNames(),
		Name:             v.DisplayName(),
		Href:             href,
	}

	if detail.Err != nil || detail.Value == nil {
		slog.WarnContext(ctx, "Could not get component details", "component", v.ComponentIdentifier, "error", detail.Err)
		r.Licenses = violatingLicenses(v)
	} else {
		if detail.Value.Meta.Href != "" {
			r.Href = detail.Value.Meta.Href
		}
		r.Licenses = knownLicenses(v, detail.Value)
	}

	if vulns.Err != nil {
		slog.WarnContext(ctx, "Could not get component vulnerabilities", "component", v.ComponentIdentifier, "error", vulns.Err)
		r.Vulnerabilities = violatingVulnerabilities(v)
	} else {
		r.Vulnerabilities = knownVulnerabilities(v, vulns.Value)
	}

	switch {
	case guidance.Err != nil:
		slog.WarnContext(ctx, "Could not get upgrade guidance", "component", v.ComponentIdentifier, "error", guidance.Err)
	case guidance.Value == nil:
		slog.WarnContext(ctx, "Could not get upgrade guidance: the upgrade guidance result was empty", "component", v.ComponentIdentifier)
	default:
		r.ShortTermUpgrade = upgrade(guidance.Value.ShortTerm)
		r.LongTermUpgrade = upgrade(guidance.Value.LongTerm)
	}
	return r, nil
}

// fromViolation builds the report of a component unknown to the catalog: only
// the names the scanner reported are shown, all of them violating.
func fromViolation(v types.PolicyViolation) EnrichedComponentReport {
	return EnrichedComponentReport{
		ViolatedPolicies: v.PolicyNames(),
		Name:             v.DisplayName(),
		Licenses:         violatingLicenses(v),
		Vulnerabilities:  violatingVulnerabilities(v),
	}
}

func violatingLicenses(v types.PolicyViolation) []LicenseReport {
	names := v.ViolatingLicenseNames()
	out := make([]LicenseReport, 0, len(names))
	for _, n := range names {
		out = append(out, LicenseReport{Name: n, ViolatesPolicy: true})
	}
	return out
}

func violatingVulnerabilities(v types.PolicyViolation) []VulnerabilityReport {
	names := v.ViolatingVulnerabilityNames()
	out := make([]VulnerabilityReport, 0, len(names))
	for _, n := range names {
		out = append(out, VulnerabilityReport{Name: n, ViolatesPolicy: true})
	}
	return out
}

func knownLicenses(v types.PolicyViolation, cv *blackduck.ComponentVersionView) []LicenseReport {
	violating := v.ViolatingLicenseNames()
	out := make([]LicenseReport, 0, len(cv.License.Licenses))
	for _, l := range cv.License.Licenses {
		out = append(out, LicenseReport{
			Name:           l.Name,
			Href:           l.License,
			ViolatesPolicy: slices.Contains(violating, l.Name),
		})
	}
	return out
}

func knownVulnerabilities(v types.PolicyViolation, vulns []blackduck.VulnerabilityView) []VulnerabilityReport {
	violating := v.ViolatingVulnerabilityNames()
	out := make([]VulnerabilityReport, 0, len(vulns))
	for _, vv := range vulns {
		r := VulnerabilityReport{
			Name:           vv.Name,
			Href:           vv.Meta.Href,
			Severity:       vv.Severity,
			ViolatesPolicy: slices.Contains(violating, vv.Name),
		}
		if score, ok := vv.BaseScore(); ok {
			r.CVSSScore = &score
		}
		out = append(out, r)
	}
	return out
}

func upgrade(t *blackduck.UpgradeGuidanceTerm) *UpgradeReport {
	if t == nil {
		return nil
	}
	return &UpgradeReport{
		Name:               t.VersionName,
		Href:               t.Version,
		VulnerabilityCount: t.VulnerabilityRisk.Total(),
	}
}
