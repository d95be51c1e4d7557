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
	"io"

	"github.com/venslabs/blackduck-action/pkg/enricher"
	"github.com/venslabs/blackduck-action/pkg/report"
)

type markdownOutputHandler struct {
	w     io.Writer
	props report.Properties
	c     []enricher.EnrichedComponentReport
}

// NewMarkdownOutputHandler writes the same report that is published to GitHub.
func NewMarkdownOutputHandler(w io.Writer, props report.Properties) OutputHandler {
	return &markdownOutputHandler{w: w, props: props}
}

func (h *markdownOutputHandler) HandleComponents(c []enricher.EnrichedComponentReport) error {
	h.c = append(h.c, c...)
	return nil
}

func (h *markdownOutputHandler) Close() error {
	res, err := report.Render(report.Scan{Components: h.c, HasPolicyViolations: len(h.c) > 0}, h.props)
	if err != nil {
		return err
	}
	_, err = io.WriteString(h.w, res.Report+"\n")
	return err
}
