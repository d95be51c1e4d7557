package outputhandler

import (
	"fmt"
	"io"
	"strings"

	dbtypes "github.com/aquasecurity/trivy-db/pkg/types"
	"github.com/venslabs/blackduck-action/pkg/enricher"
	"github.com/venslabs/blackduck-action/pkg/report"
)

type OutputHandler interface {
	HandleComponents([]enricher.EnrichedComponentReport) error
	Close() error
}

const (
	FormatMarkdown  = "markdown"
	FormatTable     = "table"
	FormatJSON      = "json"
	FormatCycloneDX = "cyclonedx"
)

// Formats lists the names accepted by New.
func Formats() []string {
	return []string{FormatMarkdown, FormatTable, FormatJSON, FormatCycloneDX}
}

// New returns the handler for format writing to w. props only affect the
// markdown rendering.
func New(format string, w io.Writer, props report.Properties) (OutputHandler, error) {
	switch strings.ToLower(format) {
	case FormatMarkdown, "md":
		return NewMarkdownOutputHandler(w, props), nil
	case FormatTable:
		return NewTableOutputHandler(w), nil
	case FormatJSON:
		return NewJsonOutputHandler(w), nil
	case FormatCycloneDX, "cdx":
		return NewCycloneDxVexOutputHandler(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (expected one of %s)", format, strings.Join(Formats(), ", "))
	}
}

// severity maps a Black Duck severity name onto the trivy-db scale.
func severity(s string) dbtypes.Severity {
	sev, err := dbtypes.NewSeverity(strings.ToUpper(s))
	if err != nil {
		return dbtypes.SeverityUnknown
	}
	return sev
}

// highestSeverity is the most severe of c's vulnerabilities.
func highestSeverity(c enricher.EnrichedComponentReport) dbtypes.Severity {
	highest := dbtypes.SeverityUnknown
	for _, v := range c.Vulnerabilities {
		if s := severity(v.Severity); s > highest {
			highest = s
		}
	}
	return highest
}
