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
	"encoding/json"
	"io"

	"github.com/venslabs/blackduck-action/pkg/enricher"
)

type jsonOutputHandler struct {
	w io.Writer
	c []enricher.EnrichedComponentReport
}

// jsonReport is the document written by the json handler.
type jsonReport struct {
	HasPolicyViolations bool                               `json:"hasPolicyViolations"`
	Components          []enricher.EnrichedComponentReport `json:"components"`
}

func NewJsonOutputHandler(w io.Writer) OutputHandler {
	return &jsonOutputHandler{w: w}
}

func (h *jsonOutputHandler) HandleComponents(c []enricher.EnrichedComponentReport) error {
	h.c = append(h.c, c...)
	return nil
}

func (h *jsonOutputHandler) Close() error {
	doc := jsonReport{
		HasPolicyViolations: len(h.c) > 0,
		Components:          h.c,
	}
	if doc.Components == nil {
		doc.Components = []enricher.EnrichedComponentReport{}
	}
	enc := json.NewEncoder(h.w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
