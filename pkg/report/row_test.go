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

package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/venslabs/blackduck-action/pkg/enricher"
)

func score(f float64) *float64 { return &f }

func TestRow(t *testing.T) {
	tests := []struct {
		name string
		in   enricher.EnrichedComponentReport
		want string
	}{
		{
			name: "fully_enriched",
			in: enricher.EnrichedComponentReport{
				ViolatedPolicies: []string{"No GPL", "No High"},
				Name:             "foo 1.0",
				Href:             "https://bd/foo/1",
				Licenses: []enricher.LicenseReport{
					{Name: "GPL-3.0", Href: "https://bd/l/gpl", ViolatesPolicy: true},
					{Name: "MIT", Href: "https://bd/l/mit"},
				},
				Vulnerabilities: []enricher.VulnerabilityReport{
					{Name: "CVE-1", Href: "https://bd/v/1", CVSSScore: score(9.8), Severity: "CRITICAL", ViolatesPolicy: true},
					{Name: "CVE-2", Href: "https://bd/v/2", CVSSScore: score(5), Severity: "MEDIUM"},
				},
				ShortTermUpgrade: &enricher.UpgradeReport{Name: "1.0.1", Href: "https://bd/foo/101", VulnerabilityCount: 1},
				LongTermUpgrade:  &enricher.UpgradeReport{Name: "2.0", Href: "https://bd/foo/2"},
			},
			want: "| No GPL<br/>No High | [foo 1.0](https://bd/foo/1) | " +
				":x: &nbsp; [GPL-3.0](https://bd/l/gpl)<br/>[MIT](https://bd/l/mit) | " +
				":x: &nbsp; [CVE-1](https://bd/v/1) CRITICAL: CVSS 9.8<br/>[CVE-2](https://bd/v/2) MEDIUM: CVSS 5 | " +
				"[1.0.1](https://bd/foo/101) (1 known vulnerabilities) | [2.0](https://bd/foo/2) (0 known vulnerabilities) |",
		},
		{
			name: "no_catalog_match",
			in: enricher.EnrichedComponentReport{
				ViolatedPolicies: []string{"No GPL"},
				Name:             "bar 2",
				Licenses:         []enricher.LicenseReport{{Name: "GPL-2.0", ViolatesPolicy: true}},
				Vulnerabilities:  []enricher.VulnerabilityReport{{Name: "CVE-3", ViolatesPolicy: true}},
			},
			want: "| No GPL | bar 2 | :x: &nbsp; GPL-2.0 | :x: &nbsp; CVE-3 |  |  |",
		},
		{
			name: "score_without_severity",
			in: enricher.EnrichedComponentReport{
				Name:            "baz 3",
				Vulnerabilities: []enricher.VulnerabilityReport{{Name: "CVE-4", CVSSScore: score(7.5)}},
			},
			want: "|  | baz 3 |  | CVE-4 |  |  |",
		},
		{
			name: "cell_text_escaped",
			in: enricher.EnrichedComponentReport{
				ViolatedPolicies: []string{"No a|b", "multi\nline"},
				Name:             "a|b 1.0",
				Href:             "https://bd/c?q=a|b",
				Licenses:         []enricher.LicenseReport{{Name: "GPL\r\nv3", ViolatesPolicy: true}},
			},
			want: `| No a\|b<br/>multi<br/>line | [a\|b 1.0](https://bd/c?q=a\|b) | :x: &nbsp; GPL<br/>v3 |  |  |  |`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Row(tt.in))
		})
	}
}

func TestRowKeepsColumnCount(t *testing.T) {
	row := Row(enricher.EnrichedComponentReport{
		ViolatedPolicies: []string{"p|q"},
		Name:             "a|b",
		ShortTermUpgrade: &enricher.UpgradeReport{Name: "x|y"},
	})
	assert.Equal(t, 7, strings.Count(row, "|")-strings.Count(row, `\|`))
	assert.NotContains(t, row, "\n")
}

func TestFailureTitle(t *testing.T) {
	assert.Equal(t, "# :x: Black Duck - Found dependencies violating policy!", FailureTitle(true))
	assert.Equal(t, "# :warning: Black Duck - Found dependencies violating policy!", FailureTitle(false))
}
