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
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/venslabs/blackduck-action/cmd/blackduck-action/version"
	"github.com/venslabs/blackduck-action/pkg/blackduck"
	"github.com/venslabs/blackduck-action/pkg/enricher"
	"github.com/venslabs/blackduck-action/pkg/envutil"
	"github.com/venslabs/blackduck-action/pkg/outputhandler"
	"github.com/venslabs/blackduck-action/pkg/report"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:                   "report [flags] RAPID_SCAN_JSON",
		Short:                 "Render the policy report of an existing rapid-scan result",
		Long:                  "Enrich the policy violations of a Detect rapid-scan result file through the Black Duck API and render them.",
		Example:               Example(),
		Args:                  cobra.ExactArgs(1),
		RunE:                  action,
		DisableFlagsInUseLine: true,
	}

	flags := cmd.Flags()
	flags.String("blackduck-url", envutil.String("BLACKDUCK_URL", "blackduck-url", ""), "Black Duck server URL [$BLACKDUCK_URL]")
	flags.String("blackduck-api-token", envutil.String("BLACKDUCK_API_TOKEN", "blackduck-api-token", ""), "Black Duck API token [$BLACKDUCK_API_TOKEN]")
	flags.Bool("trust-cert", envutil.Bool("BLACKDUCK_TRUST_CERT", "detect-trust-cert", false), "Accept any Black Duck server certificate [$BLACKDUCK_TRUST_CERT]")
	flags.String("output-format", outputhandler.FormatMarkdown, fmt.Sprintf("Output format (%s)", strings.Join(outputhandler.Formats(), ", ")))
	flags.String("output", "", "Output file path (if not specified, prints to stdout)")
	flags.Int("max-size", report.DefaultMaxSize, "Byte budget of the markdown report (0 means unbounded)")
	flags.Bool("fail", false, "Render the markdown title as a failure")

	return cmd
}

func Example() string {
	return `  blackduck-action report --blackduck-url https://blackduck.example.com scan_BlackDuck_DeveloperMode_Result.json
  blackduck-action report --output-format cyclonedx --output vex.cdx.json scan_BlackDuck_DeveloperMode_Result.json`
}

func action(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	url, err := flags.GetString("blackduck-url")
	if err != nil {
		return err
	}
	token, err := flags.GetString("blackduck-api-token")
	if err != nil {
		return err
	}
	if url == "" || token == "" {
		return fmt.Errorf("both --blackduck-url and --blackduck-api-token must be provided")
	}
	trustCert, err := flags.GetBool("trust-cert")
	if err != nil {
		return err
	}
	format, err := flags.GetString("output-format")
	if err != nil {
		return err
	}
	outputPath, err := flags.GetString("output")
	if err != nil {
		return err
	}
	var props report.Properties
	if props.MaxSize, err = flags.GetInt("max-size"); err != nil {
		return err
	}
	if props.FailureConditionsMet, err = flags.GetBool("fail"); err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer f.Close() //nolint:errcheck
		w = f
	}
	h, err := outputhandler.New(format, w, props)
	if err != nil {
		return err
	}

	bd := blackduck.New(url, token, blackduck.ClientOpts{
		HTTPClient: blackduck.NewHTTPClient(trustCert),
		UserAgent:  version.UserAgent(),
	})
	e, err := enricher.New(enricher.Opts{Catalog: bd})
	if err != nil {
		return err
	}
	gen, err := report.New(report.Opts{Enricher: e})
	if err != nil {
		return err
	}
	scan, err := gen.Scan(ctx, args[0])
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Policy violations enriched", "components", len(scan.Components))

	if err := h.HandleComponents(scan.Components); err != nil {
		return err
	}
	return h.Close()
}
