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
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
)

var pullRequestEvents = []string{
	"pull_request",
	"pull_request_target",
	"pull_request_review",
	"pull_request_review_comment",
}

type Repo struct {
	Owner string
	Name  string
}

func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

// ParseRepo splits "owner/name".
func ParseRepo(s string) (Repo, error) {
	owner, name, ok := strings.Cut(s, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Repo{}, fmt.Errorf("invalid repository %q, expected owner/name", s)
	}
	return Repo{Owner: owner, Name: name}, nil
}

type PullRequest struct {
	Number  int
	HeadSHA string
}

// Context is the subset of the GitHub Actions run environment the action needs.
type Context struct {
	EventName   string
	SHA         string
	Repo        Repo
	ServerURL   string
	APIURL      string
	RunID       string
	StepSummary string
	// Output is the $GITHUB_OUTPUT file step outputs are appended to.
	Output      string
	PullRequest *PullRequest
}

// ContextFromEnv reads GITHUB_* variables through getenv and, when present, the
// event payload at $GITHUB_EVENT_PATH.
func ContextFromEnv(getenv func(string) string) (Context, error) {
	c := Context{
		EventName:   getenv("GITHUB_EVENT_NAME"),
		SHA:         getenv("GITHUB_SHA"),
		ServerURL:   getenv("GITHUB_SERVER_URL"),
		APIURL:      getenv("GITHUB_API_URL"),
		RunID:       getenv("GITHUB_RUN_ID"),
		StepSummary: getenv("GITHUB_STEP_SUMMARY"),
		Output:      getenv("GITHUB_OUTPUT"),
	}
	if c.ServerURL == "" {
		c.ServerURL = "https://github.com"
	}
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if repo := getenv("GITHUB_REPOSITORY"); repo != "" {
		r, err := ParseRepo(repo)
		if err != nil {
			return Context{}, err
		}
		c.Repo = r
	}
	if p := getenv("GITHUB_EVENT_PATH"); p != "" && c.IsPullRequest() {
		pr, err := readPullRequest(p)
		if err != nil {
			return Context{}, err
		}
		c.PullRequest = pr
	}
	return c, nil
}

type eventPayload struct {
	Number      int `json:"number"`
	PullRequest *struct {
		Number int `json:"number"`
		Head   struct {
			SHA string `json:"sha"`
		} `json:"head"`
	} `json:"pull_request"`
}

func readPullRequest(path string) (*PullRequest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read event payload: %w", err)
	}
	var ev eventPayload
	if err := json.Unmarshal(b, &ev); err != nil {
		return nil, fmt.Errorf("failed to parse event payload %q: %w", path, err)
	}
	if ev.PullRequest == nil {
		return nil, nil
	}
	pr := &PullRequest{Number: ev.PullRequest.Number, HeadSHA: ev.PullRequest.Head.SHA}
	if pr.Number == 0 {
		pr.Number = ev.Number
	}
	return pr, nil
}

func (c Context) IsPullRequest() bool {
	return slices.Contains(pullRequestEvents, c.EventName)
}

// HeadSHA is the commit a check run attaches to: the pull request head on
// pull request events, GITHUB_SHA otherwise.
func (c Context) HeadSHA() string {
	if c.IsPullRequest() && c.PullRequest != nil && c.PullRequest.HeadSHA != "" {
		return c.PullRequest.HeadSHA
	}
	return c.SHA
}

// IssueNumber returns the pull request number, or 0 outside pull request events.
func (c Context) IssueNumber() int {
	if c.PullRequest == nil {
		return 0
	}
	return c.PullRequest.Number
}

// RunURL links to the workflow run, or is empty when GITHUB_RUN_ID is unset.
func (c Context) RunURL() string {
	if c.RunID == "" {
		return ""
	}
	return c.ServerURL + "/" + c.Repo.String() + "/actions/runs/" + c.RunID
}

// RunAttempt is GITHUB_RUN_ATTEMPT as an int, 1 when unset.
func RunAttempt(getenv func(string) string) int {
	n, err := strconv.Atoi(getenv("GITHUB_RUN_ATTEMPT"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// SetOutput appends name=value to the step output file at path. It is a no-op
// when path is empty, i.e. outside GitHub Actions.
func SetOutput(path, name, value string) error {
	if path == "" {
		return nil
	}
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("output %s: multi-line values are not supported", name)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open step output %q: %w", path, err)
	}
	defer f.Close() //nolint:errcheck
	_, err = fmt.Fprintf(f, "%s=%s\n", name, value)
	return err
}
