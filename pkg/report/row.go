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
	"fmt"
	"strconv"
	"strings"

	"github.com/venslabs/blackduck-action/pkg/enricher"
)

const (
	cellSeparator = "<br/>"
	violationMark = ":x: &nbsp; "
)

// cellEscaper keeps cell text inside its column and on one line.
var cellEscaper = strings.NewReplacer(
	"|", `\|`,
	"\r\n", cellSeparator,
	"\n", cellSeparator,
	"\r", cellSeparator,
)

func escape(s string) string {
	return cellEscaper.Replace(s)
}

func policies(names []string) string {
	cells := make([]string, 0, len(names))
	for _, n := range names {
		cells = append(cells, escape(n))
	}
	return strings.Join(cells, cellSeparator)
}

// Row renders one table row. A row is never split across TryAdd calls.
func Row(c enricher.EnrichedComponentReport) string {
	return fmt.Sprintf("| %s | %s | %s | %s | %s | %s |",
		policies(c.ViolatedPolicies),
		link(c.Name, c.Href),
		licenses(c.Licenses),
		vulnerabilities(c.Vulnerabilities),
		upgrade(c.ShortTermUpgrade),
		upgrade(c.LongTermUpgrade),
	)
}

func link(name, href string) string {
	if href == "" {
		return escape(name)
	}
	return "[" + escape(name) + "](" + escape(href) + ")"
}

func mark(violates bool) string {
	if violates {
		return violationMark
	}
	return ""
}

func licenses(ls []enricher.LicenseReport) string {
	cells := make([]string, 0, len(ls))
	for _, l := range ls {
		cells = append(cells, mark(l.ViolatesPolicy)+link(l.Name, l.Href))
	}
	return strings.Join(cells, cellSeparator)
}

func vulnerabilities(vs []enricher.VulnerabilityReport) string {
	cells := make([]string, 0, len(vs))
	for _, v := range vs {
		cell := mark(v.ViolatesPolicy) + link(v.Name, v.Href)
		if v.CVSSScore != nil && *v.CVSSScore != 0 && v.Severity != "" {
			cell += " " + escape(v.Severity) + ": CVSS " + strconv.FormatFloat(*v.CVSSScore, 'f', -1, 64)
		}
		cells = append(cells, cell)
	}
	return strings.Join(cells, cellSeparator)
}

func upgrade(u *enricher.UpgradeReport) string {
	if u == nil {
		return ""
	}
	return fmt.Sprintf("%s (%d known vulnerabilities)", link(u.Name, u.Href), u.VulnerabilityCount)
}
