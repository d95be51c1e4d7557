package outputhandler

import (
	"io"
	"strconv"
	"strings"

	"github.com/CycloneDX/cyclonedx-go"
	dbtypes "github.com/aquasecurity/trivy-db/pkg/types"
	"github.com/venslabs/blackduck-action/pkg/enricher"
)

// PolicyProperty names the component property carrying a violated policy.
const PolicyProperty = "blackduck:policy"

// NewCycloneDxVexOutputHandler returns an OutputHandler that accumulates
// components and emits a CycloneDX BOM with their vulnerabilities on Close.
func NewCycloneDxVexOutputHandler(w io.Writer) OutputHandler { return &cycloneDxVexWriter{w: w} }

type cycloneDxVexWriter struct {
	w      io.Writer
	c      []enricher.EnrichedComponentReport
	closed bool
}

func (c *cycloneDxVexWriter) HandleComponents(cs []enricher.EnrichedComponentReport) error {
	c.c = append(c.c, cs...)
	return nil
}

func (c *cycloneDxVexWriter) Close() error {
	if c.closed {
		return nil
	}
	bom := cyclonedx.NewBOM()

	components := make([]cyclonedx.Component, 0, len(c.c))
	var vulns []cyclonedx.Vulnerability
	refs := make(map[string]bool, len(c.c))
	for i, ec := range c.c {
		ref := bomRef(refs, ec, i)
		comp := cyclonedx.Component{
			BOMRef: ref,
			Type:   cyclonedx.ComponentTypeLibrary,
			Name:   ec.Name,
		}
		if len(ec.Licenses) > 0 {
			ls := make(cyclonedx.Licenses, 0, len(ec.Licenses))
			for _, l := range ec.Licenses {
				ls = append(ls, cyclonedx.LicenseChoice{License: &cyclonedx.License{Name: l.Name, URL: l.Href}})
			}
			comp.Licenses = &ls
		}
		if len(ec.ViolatedPolicies) > 0 {
			props := make([]cyclonedx.Property, 0, len(ec.ViolatedPolicies))
			for _, p := range ec.ViolatedPolicies {
				props = append(props, cyclonedx.Property{Name: PolicyProperty, Value: p})
			}
			comp.Properties = &props
		}
		components = append(components, comp)

		for _, v := range ec.Vulnerabilities {
			rating := cyclonedx.VulnerabilityRating{
				Score:    v.CVSSScore,
				Severity: cdxSeverity(severity(v.Severity)),
			}
			rs := []cyclonedx.VulnerabilityRating{rating}
			affects := []cyclonedx.Affects{{Ref: ref}}
			vuln := cyclonedx.Vulnerability{
				ID:      v.Name,
				Ratings: &rs,
				Affects: &affects,
			}
			if v.Href != "" {
				vuln.Source = &cyclonedx.Source{Name: "Black Duck", URL: v.Href}
			}
			vulns = append(vulns, vuln)
		}
	}
	if len(components) > 0 {
		bom.Components = &components
	}
	if len(vulns) > 0 {
		bom.Vulnerabilities = &vulns
	}

	enc := cyclonedx.NewBOMEncoder(c.w, cyclonedx.BOMFileFormatJSON)
	enc.SetPretty(true)
	if err := enc.Encode(bom); err != nil {
		return err
	}
	c.closed = true
	return nil
}

func cdxSeverity(s dbtypes.Severity) cyclonedx.Severity {
	return cyclonedx.Severity(strings.ToLower(s.String()))
}

// bomRef is the component's href, or its name when unknown, suffixed with the
// component index when already taken.
func bomRef(taken map[string]bool, c enricher.EnrichedComponentReport, i int) string {
	ref := c.Href
	if ref == "" {
		ref = c.Name
	}
	for n := i; taken[ref]; n++ {
		ref = c.Name + "#" + strconv.Itoa(n)
	}
	taken[ref] = true
	return ref
}
