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

// Package report turns a rapid-scan result file into the size-bounded Markdown
// report published on check runs and pull requests.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/venslabs/blackduck-action/pkg/api/types"
	"github.com/venslabs/blackduck-action/pkg/enricher"
	"github.com/venslabs/blackduck-action/pkg/textbuilder"
)

const (
	// DefaultMaxSize is the largest body GitHub accepts for check-run output and comments.
	DefaultMaxSize = 65535

	Header          = "| Policies Violated | Dependency | License(s) | Vulnerabilities | Short Term Recommended Upgrade | Long Term Recommended Upgrade |"
	HeaderAlignment = "|-|-|-|-|-|-|"

	SuccessTitle = "# :white_check_mark: Black Duck - None of your dependencies violate policy!"
)

func FailureTitle(failed bool) string {
	symbol := ":warning:"
	if failed {
		symbol = ":x:"
	}
	return "# " + symbol + " Black Duck - Found dependencies violating policy!"
}

// Properties tune a single report rendering.
type Properties struct {
	// FailureConditionsMet selects the hard-failure title and sets Result.Failed.
	FailureConditionsMet bool
	// MaxSize is the byte budget of the report; <= 0 means unbounded.
	MaxSize int
}

// Result is the terminal value handed to the publishing reporters.
type Result struct {
	Report              string `json:"report"`
	Failed              bool   `json:"failed"`
	Truncated           bool   `json:"truncated"`
	HasPolicyViolations bool   `json:"hasPolicyViolations"`
}

// Scan is the enriched content of one rapid-scan result file.
type Scan struct {
	Components          []enricher.EnrichedComponentReport
	HasPolicyViolations bool
}

// Enricher is satisfied by *enricher.Enricher.
type Enricher interface {
	EnrichAll(ctx context.Context, violations []types.PolicyViolation) ([]enricher.EnrichedComponentReport, error)
}

type Opts struct {
	Enricher Enricher
}

type Generator struct {
	o Opts
}

func New(o Opts) (*Generator, error) {
	if o.Enricher == nil {
		return nil, errors.New("no enricher")
	}
	return &Generator{o: o}, nil
}

// GenerateReport reads the violations at path, enriches them and renders the report.
func (g *Generator) GenerateReport(ctx context.Context, path string, props Properties) (Result, error) {
	scan, err := g.Scan(ctx, path)
	if err != nil {
		return Result{}, err
	}
	res, err := Render(scan, props)
	if err != nil {
		return Result{}, err
	}
	if res.Truncated {
		slog.WarnContext(ctx, "Report truncated", "components", len(scan.Components), "maxSize", props.MaxSize)
	}
	return res, nil
}

// Scan reads and enriches the violations at path without rendering them.
func (g *Generator) Scan(ctx context.Context, path string) (Scan, error) {
	violations, err := LoadViolations(path)
	if err != nil {
		return Scan{}, err
	}
	slog.InfoContext(ctx, "Loaded rapid-scan results", "path", path, "violations", len(violations))
	if len(violations) == 0 {
		return Scan{Components: []enricher.EnrichedComponentReport{}}, nil
	}
	components, err := g.o.Enricher.EnrichAll(ctx, violations)
	if err != nil {
		return Scan{}, fmt.Errorf("failed to enrich policy violations: %w", err)
	}
	return Scan{Components: components, HasPolicyViolations: true}, nil
}

// Render lays the scan out as a Markdown table within props.MaxSize. Rows that
// do not fit are dropped from the first miss onward; if not even the first row
// fits, a *textbuilder.ReportOverflowError is returned.
func Render(scan Scan, props Properties) (Result, error) {
	if !scan.HasPolicyViolations {
		return Result{Report: SuccessTitle}, nil
	}

	b := textbuilder.New(props.MaxSize)
	if err := b.AddRequired(FailureTitle(props.FailureConditionsMet)); err != nil {
		return Result{}, err
	}
	if err := b.AddRequired(Header, HeaderAlignment); err != nil {
		return Result{}, err
	}

	truncated := false
	for i, c := range scan.Components {
		row := Row(c)
		if b.TryAdd(row) {
			continue
		}
		if i == 0 {
			return Result{}, &textbuilder.ReportOverflowError{MaxSize: b.MaxSize(), Required: b.Size() + 1 + len(row)}
		}
		truncated = true
		break
	}

	return Result{
		Report:              b.Build(),
		Failed:              props.FailureConditionsMet,
		Truncated:           truncated,
		HasPolicyViolations: true,
	}, nil
}

// LoadViolations parses the JSON array Detect writes in RAPID mode.
func LoadViolations(path string) ([]types.PolicyViolation, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rapid-scan results %q: %w", path, err)
	}
	var violations []types.PolicyViolation
	if err := json.Unmarshal(b, &violations); err != nil {
		return nil, fmt.Errorf("failed to parse rapid-scan results %q: %w", path, err)
	}
	return violations, nil
}
