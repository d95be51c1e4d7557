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

// Package action runs one invocation of the Black Duck action: policy check,
// Detect scan, report generation and publishing.
package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/venslabs/blackduck-action/pkg/actionconfig"
	"github.com/venslabs/blackduck-action/pkg/artifact"
	"github.com/venslabs/blackduck-action/pkg/detect"
	"github.com/venslabs/blackduck-action/pkg/github"
	"github.com/venslabs/blackduck-action/pkg/report"
	"github.com/venslabs/blackduck-action/pkg/reporter"
)

const (
	ApplicationName = "blackduck-action"
	CheckName       = "Black Duck Policy Check"

	OutputExitCode     = "detect-exit-code"
	OutputExitCodeName = "detect-exit-code-name"

	ArtifactRapidScan  = "Rapid Scan JSON"
	ArtifactDiagnostic = "Detect Diagnostic Zip"
)

// Check is a check run awaiting its conclusion; *github.Check satisfies it.
type Check interface {
	reporter.Check
	Skip(ctx context.Context) error
	Cancel(ctx context.Context) error
}

type CheckCreator interface {
	// CreateCheck creates a check run on headSHA; detailsURL may be empty.
	CreateCheck(ctx context.Context, repo github.Repo, name, headSHA, detailsURL string) (Check, error)
}

type PolicyChecker interface {
	EnabledPoliciesExist(ctx context.Context) (bool, error)
}

type ReportGenerator interface {
	GenerateReport(ctx context.Context, path string, props report.Properties) (report.Result, error)
}

type DetectDownloader interface {
	Download(ctx context.Context, version string) (string, error)
}

type DetectRunner interface {
	Run(ctx context.Context, jar string, args []string) (detect.ExitCode, error)
}

type Opts struct {
	Config   *actionconfig.Config
	Context  github.Context
	Checks   CheckCreator
	Comments reporter.IssueComments
	Policies PolicyChecker
	Reports  ReportGenerator
	Download DetectDownloader
	Detect   DetectRunner
	// Uploader defaults to artifact.Discard.
	Uploader artifact.Uploader
	// RunnerTemp is $RUNNER_TEMP.
	RunnerTemp string
	// Diagnostic uploads the Detect diagnostic zips.
	Diagnostic bool
	Debug      bool
}

type Action struct {
	o Opts
}

func New(o Opts) (*Action, error) {
	switch {
	case o.Config == nil:
		return nil, errors.New("no config")
	case o.Checks == nil, o.Comments == nil:
		return nil, errors.New("no GitHub client")
	case o.Policies == nil, o.Reports == nil:
		return nil, errors.New("no Black Duck service")
	case o.Download == nil, o.Detect == nil:
		return nil, errors.New("no Detect runner")
	}
	if o.Uploader == nil {
		o.Uploader = artifact.Discard{}
	}
	return &Action{o: o}, nil
}

// Outcome summarises a completed run.
type Outcome struct {
	ExitCode detect.ExitCode
	// Result is nil unless a rapid-scan report was generated.
	Result *report.Result
}

// Run creates the check run and executes the scan. A check run that has not
// been concluded when Run fails is cancelled.
func (a *Action) Run(ctx context.Context) (Outcome, error) {
	gc := a.o.Context
	created, err := a.o.Checks.CreateCheck(ctx, gc.Repo, CheckName, gc.HeadSHA(), gc.RunURL())
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to create check run: %w", err)
	}
	check := &trackedCheck{Check: created}

	out, err := a.run(ctx, check)
	if err != nil && !check.concluded {
		if cerr := check.Cancel(ctx); cerr != nil {
			slog.WarnContext(ctx, "Failed to cancel check run", "error", cerr)
		}
	}
	return out, err
}

func (a *Action) run(ctx context.Context, check *trackedCheck) (Outcome, error) {
	cfg := a.o.Config
	slog.InfoContext(ctx, "Inputs",
		"detect-version", cfg.DetectVersion,
		"output-path-override", cfg.OutputPathOverride,
		"scan-mode", cfg.ScanMode)

	jar, err := a.o.Download.Download(ctx, cfg.DetectVersion)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to download Detect: %w", err)
	}
	outputPath, err := detect.OutputPath(cfg.OutputPathOverride, a.o.RunnerTemp)
	if err != nil {
		return Outcome{}, err
	}
	if err := a.verifyPolicies(ctx, check); err != nil {
		return Outcome{}, err
	}

	opts := detect.Options{
		BlackDuckURL:      cfg.BlackDuckURL,
		BlackDuckAPIToken: cfg.BlackDuckAPIToken,
		ScanMode:          cfg.ScanMode,
		OutputPath:        outputPath,
		TrustCertificate:  cfg.DetectTrustCert,
		Debug:             a.o.Debug,
	}
	code, err := a.o.Detect.Run(ctx, jar, opts.Args())
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{ExitCode: code}
	slog.InfoContext(ctx, "Detect exited", "code", int(code), "name", code.Name())
	a.setOutputs(ctx, code)

	if code.SuccessOrPolicyViolation() {
		failureConditionsMet := code == detect.ExitFailurePolicyViolation || cfg.FailOnAllPolicySeverities
		res, err := a.processResult(ctx, check, outputPath, failureConditionsMet)
		if err != nil {
			return out, err
		}
		out.Result = res
		switch {
		case res != nil && res.HasPolicyViolations:
			slog.WarnContext(ctx, "Found dependencies violating policy!")
		case code == detect.ExitSuccess:
			slog.InfoContext(ctx, "None of your dependencies violate your Black Duck policies!")
		default:
			slog.WarnContext(ctx, "Dependency check failed! See Detect output for more information.")
		}
	}

	if detectFailed(code, cfg) {
		return out, fmt.Errorf("detect failed with exit code %s, check the logs for more information", code)
	}
	return out, nil
}

// detectFailed applies the exit-code rules that fail the action.
func detectFailed(code detect.ExitCode, cfg *actionconfig.Config) bool {
	if !code.SuccessOrPolicyViolation() {
		return true
	}
	if code == detect.ExitSuccess {
		return false
	}
	return !cfg.IsRapid() || cfg.FailIfDetectFails
}

func (a *Action) verifyPolicies(ctx context.Context, check *trackedCheck) error {
	cfg := a.o.Config
	if !cfg.IsRapid() {
		slog.InfoContext(ctx, "Skipping policy check", "scan-mode", cfg.ScanMode)
		return check.Skip(ctx)
	}
	slog.InfoContext(ctx, "Checking that you have at least one enabled policy...")
	exist, err := a.o.Policies.EnabledPoliciesExist(ctx)
	if err != nil {
		return fmt.Errorf("failed to check for enabled policies: %w", err)
	}
	if !exist {
		return fmt.Errorf("could not run %s using %s scan mode: no enabled policies found on the specified Black Duck server", detect.ToolName, cfg.ScanMode)
	}
	slog.InfoContext(ctx, "You have at least one enabled policy", "scan-mode", cfg.ScanMode)
	return nil
}

// processResult reports the rapid-scan results and uploads the artifacts. The
// returned result is nil outside RAPID mode.
func (a *Action) processResult(ctx context.Context, check *trackedCheck, outputPath string, failureConditionsMet bool) (*report.Result, error) {
	var res *report.Result
	if a.o.Config.IsRapid() {
		r, err := a.reportRapidScan(ctx, check, outputPath, failureConditionsMet)
		if err != nil {
			return nil, err
		}
		res = &r
	}
	if a.o.Diagnostic {
		files, err := detect.DiagnosticFiles(outputPath)
		if err != nil {
			return res, err
		}
		a.upload(ctx, ArtifactDiagnostic, outputPath, files)
	}
	return res, nil
}

func (a *Action) reportRapidScan(ctx context.Context, check *trackedCheck, outputPath string, failureConditionsMet bool) (report.Result, error) {
	slog.InfoContext(ctx, "Detect executed in RAPID mode, beginning reporting...")
	paths, err := detect.ResultFiles(outputPath)
	if err != nil {
		return report.Result{}, err
	}
	a.upload(ctx, ArtifactRapidScan, outputPath, paths)

	res, err := a.o.Reports.GenerateReport(ctx, paths[0], report.Properties{
		FailureConditionsMet: failureConditionsMet,
		MaxSize:              a.o.Config.MaxReportSize,
	})
	if err != nil {
		return report.Result{}, err
	}

	gc := a.o.Context
	if gc.IsPullRequest() && (res.Failed || a.o.Config.CommentPROnSuccess) {
		if n := gc.IssueNumber(); n == 0 {
			slog.WarnContext(ctx, "Pull request event without a pull request number, not commenting")
		} else {
			slog.InfoContext(ctx, "Commenting pull request...", "pr", n)
			if err := reporter.NewCommentReporter(a.o.Comments, gc.Repo, n, ApplicationName).Report(ctx, res); err != nil {
				return res, fmt.Errorf("failed to comment on pull request: %w", err)
			}
		}
	}
	slog.DebugContext(ctx, "Policy violations present", "hasPolicyViolations", res.HasPolicyViolations)

	if err := reporter.NewCheckReporter(check).Report(ctx, res); err != nil {
		return res, fmt.Errorf("failed to conclude check run: %w", err)
	}
	if err := reporter.NewSummaryReporter(gc.StepSummary).Report(ctx, res); err != nil {
		slog.WarnContext(ctx, "Failed to write step summary", "error", err)
	}
	slog.InfoContext(ctx, "Reporting complete.")
	return res, nil
}

func (a *Action) upload(ctx context.Context, name, root string, files []string) {
	if err := a.o.Uploader.Upload(ctx, name, root, files); err != nil {
		slog.WarnContext(ctx, "An error was encountered when uploading the artifact", "artifact", name, "error", err)
	}
}

func (a *Action) setOutputs(ctx context.Context, code detect.ExitCode) {
	outputs := [][2]string{
		{OutputExitCode, strconv.Itoa(int(code))},
		{OutputExitCodeName, code.Name()},
	}
	for _, kv := range outputs {
		if err := github.SetOutput(a.o.Context.Output, kv[0], kv[1]); err != nil {
			slog.WarnContext(ctx, "Failed to set step output", "name", kv[0], "error", err)
		}
	}
}

// trackedCheck records whether a conclusion has been sent.
type trackedCheck struct {
	Check
	concluded bool
}

func (c *trackedCheck) Pass(ctx context.Context, summary, text string) error {
	c.concluded = true
	return c.Check.Pass(ctx, summary, text)
}

func (c *trackedCheck) Fail(ctx context.Context, summary, text string) error {
	c.concluded = true
	return c.Check.Fail(ctx, summary, text)
}

func (c *trackedCheck) Skip(ctx context.Context) error {
	c.concluded = true
	return c.Check.Skip(ctx)
}

// GitHubChecks adapts *github.Client to CheckCreator.
func GitHubChecks(c *github.Client) CheckCreator {
	return githubChecks{c}
}

type githubChecks struct {
	c *github.Client
}

func (g githubChecks) CreateCheck(ctx context.Context, repo github.Repo, name, headSHA, detailsURL string) (Check, error) {
	check, err := g.c.CreateCheck(ctx, repo, name, headSHA, detailsURL)
	if err != nil {
		return nil, err
	}
	return check, nil
}
