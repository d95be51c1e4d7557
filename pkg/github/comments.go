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

	gogithub "github.com/google/go-github/v66/github"
)

const commentsPerPage = 100

type IssueComment struct {
	ID   int64
	Body string
}

// ListIssueComments returns every comment of an issue or pull request,
// following the pagination links.
func (c *Client) ListIssueComments(ctx context.Context, repo Repo, number int) ([]IssueComment, error) {
	opts := &gogithub.IssueListCommentsOptions{
		ListOptions: gogithub.ListOptions{PerPage: commentsPerPage},
	}
	var all []IssueComment
	for {
		batch, resp, err := c.gh.Issues.ListComments(ctx, repo.Owner, repo.Name, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list comments of #%d: %w", number, apiError(err))
		}
		warnRateLimit(ctx, resp)
		for _, ic := range batch {
			all = append(all, IssueComment{ID: ic.GetID(), Body: ic.GetBody()})
		}
		if resp.NextPage == 0 {
			return all, nil
		}
		opts.Page = resp.NextPage
	}
}

func (c *Client) CreateIssueComment(ctx context.Context, repo Repo, number int, body string) (*IssueComment, error) {
	created, resp, err := c.gh.Issues.CreateComment(ctx, repo.Owner, repo.Name, number, &gogithub.IssueComment{Body: gogithub.String(body)})
	if err != nil {
		return nil, fmt.Errorf("failed to comment on #%d: %w", number, apiError(err))
	}
	warnRateLimit(ctx, resp)
	return &IssueComment{ID: created.GetID(), Body: created.GetBody()}, nil
}

func (c *Client) DeleteIssueComment(ctx context.Context, repo Repo, id int64) error {
	resp, err := c.gh.Issues.DeleteComment(ctx, repo.Owner, repo.Name, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment %d: %w", id, apiError(err))
	}
	warnRateLimit(ctx, resp)
	return nil
}
