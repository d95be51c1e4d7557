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

// Package github talks to the GitHub REST API for check runs and pull request
// comments, and reads the GitHub Actions run context.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gogithub "github.com/google/go-github/v66/github"
)

const (
	DefaultAPIURL  = "https://api.github.com"
	DefaultTimeout = 60 * time.Second

	lowRateLimit = 10
)

// Client wraps the go-github client with the few calls the action makes.
type Client struct {
	gh *gogithub.Client
}

type ClientOpts struct {
	// APIURL defaults to DefaultAPIURL; GitHub Enterprise sets $GITHUB_API_URL.
	APIURL     string
	HTTPClient *http.Client
	UserAgent  string
}

func NewClient(token string, o ClientOpts) (*Client, error) {
	if o.APIURL == "" {
		o.APIURL = DefaultAPIURL
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if o.UserAgent == "" {
		o.UserAgent = "blackduck-action"
	}
	base, err := url.Parse(strings.TrimSuffix(o.APIURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid GitHub API URL %q: %w", o.APIURL, err)
	}
	gh := gogithub.NewClient(o.HTTPClient).WithAuthToken(token)
	gh.BaseURL = base
	gh.UserAgent = o.UserAgent
	return &Client{gh: gh}, nil
}

// apiError adds the reset time to rate limit errors.
func apiError(err error) error {
	var rle *gogithub.RateLimitError
	if errors.As(err, &rle) {
		return fmt.Errorf("GitHub API rate limit exceeded, resets at %s: %w", rle.Rate.Reset.Time.UTC().Format(time.RFC3339), err)
	}
	return err
}

func warnRateLimit(ctx context.Context, resp *gogithub.Response) {
	if resp == nil || resp.Rate.Limit == 0 {
		return
	}
	if resp.Rate.Remaining <= lowRateLimit {
		slog.WarnContext(ctx, "GitHub API rate limit low", "remaining", resp.Rate.Remaining, "reset", resp.Rate.Reset.Time)
	}
}
