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

package run

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/venslabs/blackduck-action/cmd/blackduck-action/version"
	orchestrator "github.com/venslabs/blackduck-action/pkg/action"
	"github.com/venslabs/blackduck-action/pkg/actionconfig"
	"github.com/venslabs/blackduck-action/pkg/actionsutil"
	"github.com/venslabs/blackduck-action/pkg/artifact"
	"github.com/venslabs/blackduck-action/pkg/blackduck"
	"github.com/venslabs/blackduck-action/pkg/detect"
	"github.com/venslabs/blackduck-action/pkg/enricher"
	"github.com/venslabs/blackduck-action/pkg/envutil"
	"github.com/venslabs/blackduck-action/pkg/github"
	"github.com/venslabs/blackduck-action/pkg/report"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scan with Detect and publish the policy report",
		Long: "Run Black Duck Detect, then publish the policy violations of a RAPID scan as a GitHub check run, " +
			"a pull request comment and the job summary.",
		Example:               Example(),
		Args:                  cobra.NoArgs,
		RunE:                  action,
		DisableFlagsInUseLine: true,
	}

	flags := cmd.Flags()
	flags.String("config-file", envutil.String("BLACKDUCK_ACTION_CONFIG", "config-file", ""), "Path to config.yaml file [$BLACKDUCK_ACTION_CONFIG]")
	flags.String("detect-repo-url", envutil.String("DETECT_REPO_URL", "", detect.DefaultRepoURL), "Repository Detect is downloaded from [$DETECT_REPO_URL]")
	flags.String("java", envutil.String("DETECT_JAVA_PATH", "", "java"), "Java executable used to run Detect [$DETECT_JAVA_PATH]")

	return cmd
}

func Example() string {
	if actionsutil.IsGitHubActions() {
		return "  # inputs are read from the INPUT_* variables of the step\n  blackduck-action run"
	}
	return `  export GITHUB_TOKEN=... BLACKDUCK_URL=https://blackduck.example.com BLACKDUCK_API_TOKEN=...
  blackduck-action run --config-file config.yaml
  blackduck-action report --output-format table rapid-scan.json
  blackduck-action policycheck`
}

func action(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	configPath, err := flags.GetString("config-file")
	if err != nil {
		return err
	}
	cfg, err := actionconfig.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config file %q: %w", configPath, err)
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	debug, err := flags.GetBool("debug")
	if err != nil {
		return err
	}
	repoURL, err := flags.GetString("detect-repo-url")
	if err != nil {
		return err
	}
	java, err := flags.GetString("java")
	if err != nil {
		return err
	}

	gc, err := github.ContextFromEnv(os.Getenv)
	if err != nil {
		return err
	}
	gh, err := github.NewClient(cfg.GitHubToken, github.ClientOpts{APIURL: gc.APIURL, UserAgent: version.UserAgent()})
	if err != nil {
		return err
	}
	bd := blackduck.New(cfg.BlackDuckURL, cfg.BlackDuckAPIToken, blackduck.ClientOpts{
		HTTPClient: blackduck.NewHTTPClient(cfg.DetectTrustCert),
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
	uploader, err := newUploader(ctx, cfg.Artifacts, gc)
	if err != nil {
		return err
	}

	a, err := orchestrator.New(orchestrator.Opts{
		Config:     cfg,
		Context:    gc,
		Checks:     orchestrator.GitHubChecks(gh),
		Comments:   gh,
		Policies:   bd,
		Reports:    gen,
		Download:   &detect.Downloader{CacheDir: actionsutil.ToolCache(), RepoURL: repoURL},
		Detect:     &detect.Runner{Java: java, Env: detect.DiagnosticEnv(debug)},
		Uploader:   uploader,
		RunnerTemp: actionsutil.RunnerTemp(),
		Diagnostic: debug || detect.DiagnosticModeEnabled(os.Getenv),
		Debug:      debug,
	})
	if err != nil {
		return err
	}
	out, err := a.Run(ctx)
	if err != nil {
		return err
	}
	attrs := []any{"exitCode", out.ExitCode.String()}
	if out.Result != nil {
		attrs = append(attrs, "failed", out.Result.Failed, "truncated", out.Result.Truncated)
	}
	slog.InfoContext(ctx, "Done", attrs...)
	return nil
}

// newUploader returns the artifact store for the run, or artifact.Discard when
// none is configured. Objects are grouped under <repo>/<run id>-<attempt>.
func newUploader(ctx context.Context, c artifact.Config, gc github.Context) (artifact.Uploader, error) {
	if !c.Enabled() {
		return artifact.Discard{}, nil
	}
	runID := gc.RunID
	if runID == "" {
		runID = artifact.NewRunID()
	}
	runID = fmt.Sprintf("%s-%d", runID, github.RunAttempt(os.Getenv))
	if gc.Repo.Owner != "" {
		c.Prefix = strings.Trim(c.Prefix+"/"+gc.Repo.String(), "/")
	}
	store, err := artifact.New(ctx, c, runID)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Uploading artifacts", "endpoint", c.Endpoint, "bucket", c.Bucket, "prefix", c.Prefix, "run", runID)
	return store, nil
}
