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

package outputhandler

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aquasecurity/table"
	"github.com/aquasecurity/tml"
	dbtypes "github.com/aquasecurity/trivy-db/pkg/types"
	"github.com/venslabs/blackduck-action/pkg/enricher"
)

type tableOutputHandler struct {
	w io.Writer
	c []enricher.EnrichedComponentReport
}

func NewTableOutputHandler(w io.Writer) OutputHandler {
	if w == nil {
		w = os.Stdout
	}
	return &tableOutputHandler{w: w}
}

func (h *tableOutputHandler) HandleComponents(c []enricher.EnrichedComponentReport) error {
	h.c = append(h.c, c...)
	return nil
}

func (h *tableOutputHandler) Close() error {
	if len(h.c) == 0 {
		_, err := fmt.Fprintln(h.w, "No components violate policy.")
		return err
	}

	t := table.New(h.w)
	t.SetHeaders("Component", "Policies", "Severity", "Vulnerabilities", "Licenses", "Short Term Upgrade", "Long Term Upgrade")
	for _, c := range h.c {
		vulns := make([]string, 0, len(c.Vulnerabilities))
		for _, v := range c.Vulnerabilities {
			vulns = append(vulns, v.Name)
		}
		licenses := make([]string, 0, len(c.Licenses))
		for _, l := range c.Licenses {
			licenses = append(licenses, l.Name)
		}
		t.AddRow(
			c.Name,
			strings.Join(c.ViolatedPolicies, "\n"),
			colorSeverity(highestSeverity(c)),
			strings.Join(vulns, "\n"),
			strings.Join(licenses, "\n"),
			upgradeCell(c.ShortTermUpgrade),
			upgradeCell(c.LongTermUpgrade),
		)
	}
	t.Render()
	return nil
}

func upgradeCell(u *enricher.UpgradeReport) string {
	if u == nil {
		return "-"
	}
	return fmt.Sprintf("%s (%d)", u.Name, u.VulnerabilityCount)
}

func colorSeverity(s dbtypes.Severity) string {
	switch s {
	case dbtypes.SeverityCritical:
		return tml.Sprintf("<red><bold>CRITICAL</bold></red>")
	case dbtypes.SeverityHigh:
		return tml.Sprintf("<red>HIGH</red>")
	case dbtypes.SeverityMedium:
		return tml.Sprintf("<yellow>MEDIUM</yellow>")
	case dbtypes.SeverityLow:
		return tml.Sprintf("<blue>LOW</blue>")
	default:
		return "-"
	}
}
