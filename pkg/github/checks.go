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

package github

import (
	"context"
	"fmt"
	"log/slog"

	gogithub "github.com/google/go-github/v66/github"
)

type Conclusion string

const (
	ConclusionSuccess   Conclusion = "success"
	ConclusionFailure   Conclusion = "failure"
	ConclusionSkipped   Conclusion = "skipped"
	ConclusionCancelled Conclusion = "cancelled"
)

type CheckRunOutput struct {
	Title   string
	Summary string
	Text    string
}

func (o CheckRunOutput) apiOutput() *gogithub.CheckRunOutput {
	out := &gogithub.CheckRunOutput{
		Title:   gogithub.String(o.Title),
		Summary: gogithub.String(o.Summary),
	}
	if o.Text != "" {
		out.Text = gogithub.String(o.Text)
	}
	return out
}

type CheckRun struct {
	ID      int64
	Name    string
	HeadSHA string
	// DetailsURL links the check run to the workflow run, when known.
	DetailsURL string
}

// CreateCheckRun creates an in-progress check run on headSHA. detailsURL may be
// empty.
func (c *Client) CreateCheckRun(ctx context.Context, repo Repo, name, headSHA, detailsURL string) (*CheckRun, error) {
	slog.InfoContext(ctx, "Creating check run", "name", name, "sha", headSHA)
	opts := gogithub.CreateCheckRunOptions{Name: name, HeadSHA: headSHA}
	if detailsURL != "" {
		opts.DetailsURL = gogithub.String(detailsURL)
	}
	run, resp, err := c.gh.Checks.CreateCheckRun(ctx, repo.Owner, repo.Name, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create check run %q: %w", name, apiError(err))
	}
	warnRateLimit(ctx, resp)
	slog.DebugContext(ctx, "Check run created", "id", run.GetID())
	return &CheckRun{ID: run.GetID(), Name: name, HeadSHA: headSHA, DetailsURL: detailsURL}, nil
}

// CompleteCheckRun marks run completed with the given conclusion.
func (c *Client) CompleteCheckRun(ctx context.Context, repo Repo, run *CheckRun, conclusion Conclusion, output CheckRunOutput) error {
	_, resp, err := c.gh.Checks.UpdateCheckRun(ctx, repo.Owner, repo.Name, run.ID, gogithub.UpdateCheckRunOptions{
		Name:       run.Name,
		Status:     gogithub.String("completed"),
		Conclusion: gogithub.String(string(conclusion)),
		Output:     output.apiOutput(),
	})
	if err != nil {
		return fmt.Errorf("failed to update check run %d: %w", run.ID, apiError(err))
	}
	warnRateLimit(ctx, resp)
	slog.InfoContext(ctx, "Check run updated", "id", run.ID, "conclusion", conclusion)
	return nil
}

// Check is a created check run waiting for its conclusion.
type Check struct {
	client *Client
	repo   Repo
	run    *CheckRun
}

// CreateCheck creates the check run name on headSHA, linked to detailsURL.
func (c *Client) CreateCheck(ctx context.Context, repo Repo, name, headSHA, detailsURL string) (*Check, error) {
	run, err := c.CreateCheckRun(ctx, repo, name, headSHA, detailsURL)
	if err != nil {
		return nil, err
	}
	return &Check{client: c, repo: repo, run: run}, nil
}

func (c *Check) Pass(ctx context.Context, summary, text string) error {
	return c.finish(ctx, ConclusionSuccess, summary, text)
}

func (c *Check) Fail(ctx context.Context, summary, text string) error {
	return c.finish(ctx, ConclusionFailure, summary, text)
}

func (c *Check) Skip(ctx context.Context) error {
	return c.finish(ctx, ConclusionSkipped, c.run.Name+" was skipped", "")
}

func (c *Check) Cancel(ctx context.Context) error {
	return c.finish(ctx, ConclusionCancelled, c.run.Name+" Check could not be completed", cancelText(c.run))
}

func cancelText(run *CheckRun) string {
	text := "Something went wrong and the " + run.Name + " could not be completed."
	if run.DetailsURL != "" {
		return text + " Check the [action logs](" + run.DetailsURL + ") for more details."
	}
	return text + " Check your action logs for more details."
}

func (c *Check) finish(ctx context.Context, conclusion Conclusion, summary, text string) error {
	return c.client.CompleteCheckRun(ctx, c.repo, c.run, conclusion, CheckRunOutput{Title: c.run.Name, Summary: summary, Text: text})
}
