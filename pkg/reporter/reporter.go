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

// Package reporter publishes a report.Result: as a check run conclusion, as a
// pull request comment and as the job step summary.
package reporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/venslabs/blackduck-action/pkg/github"
	"github.com/venslabs/blackduck-action/pkg/report"
)

const (
	FailSummary      = "Components found that violate your Black Duck Policies!"
	SuccessSummary   = "No components found that violate your Black Duck policies!"
	TruncatedNote    = "**Note: Report truncated due to character limit constraints!**"
	commentLineBreak = "\r\n"
)

type Reporter interface {
	Report(ctx context.Context, r report.Result) error
}

// Check is satisfied by *github.Check.
type Check interface {
	Pass(ctx context.Context, summary, text string) error
	Fail(ctx context.Context, summary, text string) error
}

type CheckReporter struct {
	check Check
}

func NewCheckReporter(check Check) *CheckReporter {
	return &CheckReporter{check: check}
}

// Report concludes the check run: failure when r.Failed, success otherwise.
func (c *CheckReporter) Report(ctx context.Context, r report.Result) error {
	if r.Failed {
		return c.check.Fail(ctx, summary(FailSummary, r.Truncated), r.Report)
	}
	return c.check.Pass(ctx, summary(SuccessSummary, r.Truncated), r.Report)
}

func summary(s string, truncated bool) string {
	if truncated {
		return s + "\n\n" + TruncatedNote
	}
	return s
}

// IssueComments is satisfied by *github.Client.
type IssueComments interface {
	ListIssueComments(ctx context.Context, repo github.Repo, number int) ([]github.IssueComment, error)
	CreateIssueComment(ctx context.Context, repo github.Repo, number int, body string) (*github.IssueComment, error)
	DeleteIssueComment(ctx context.Context, repo github.Repo, id int64) error
}

// CommentPreface marks comments owned by applicationName so a later run can
// replace them.
func CommentPreface(applicationName string) string {
	return "<!-- Comment automatically managed by " + applicationName + ", do not remove this line -->"
}

// CommentReporter keeps a single report comment on a pull request.
type CommentReporter struct {
	api     IssueComments
	repo    github.Repo
	number  int
	appName string
	preface string
}

func NewCommentReporter(api IssueComments, repo github.Repo, number int, applicationName string) *CommentReporter {
	return &CommentReporter{
		api:     api,
		repo:    repo,
		number:  number,
		appName: applicationName,
		preface: CommentPreface(applicationName),
	}
}

// Report deletes the comments previously posted by this application and posts
// the report as a new one.
func (c *CommentReporter) Report(ctx context.Context, r report.Result) error {
	slog.DebugContext(ctx, "Gathering existing comments", "pr", c.number)
	existing, err := c.api.ListIssueComments(ctx, c.repo, c.number)
	if err != nil {
		return err
	}
	for _, ec := range existing {
		firstLine, _, _ := strings.Cut(ec.Body, commentLineBreak)
		if firstLine != c.preface {
			continue
		}
		slog.DebugContext(ctx, "Deleting existing comment", "app", c.appName, "id", ec.ID)
		if err := c.api.DeleteIssueComment(ctx, c.repo, ec.ID); err != nil {
			slog.WarnContext(ctx, "Could not delete existing comment", "id", ec.ID, "error", err)
		}
	}

	if _, err := c.api.CreateIssueComment(ctx, c.repo, c.number, c.preface+commentLineBreak+r.Report); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Commented on pull request", "pr", c.number)
	return nil
}

// SummaryReporter appends the report to the job summary file.
type SummaryReporter struct {
	path string
}

func NewSummaryReporter(path string) *SummaryReporter {
	return &SummaryReporter{path: path}
}

func (s *SummaryReporter) Report(ctx context.Context, r report.Result) error {
	if s.path == "" {
		slog.DebugContext(ctx, "No step summary file, skipping")
		return nil
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open step summary %q: %w", s.path, err)
	}
	defer f.Close() //nolint:errcheck
	if _, err := f.WriteString(r.Report + "\n"); err != nil {
		return fmt.Errorf("failed to write step summary %q: %w", s.path, err)
	}
	return nil
}
