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

package actionsutil

import (
	"log/slog"
	"os"
)

// IsGitHubActions returns whether the binary is being executed as a GitHub Actions step.
func IsGitHubActions() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

// IsRunnerDebug returns whether step debug logging was enabled for the run
// (re-run with debug logging, or the ACTIONS_STEP_DEBUG secret).
func IsRunnerDebug() bool {
	return os.Getenv("RUNNER_DEBUG") == "1" || os.Getenv("ACTIONS_STEP_DEBUG") == "true"
}

// RunnerTemp is $RUNNER_TEMP, falling back to os.TempDir outside GitHub Actions.
func RunnerTemp() string {
	if d := os.Getenv("RUNNER_TEMP"); d != "" {
		return d
	}
	if IsGitHubActions() {
		slog.Warn("RUNNER_TEMP is not set")
		return ""
	}
	return os.TempDir()
}

// ToolCache is $RUNNER_TOOL_CACHE, falling back to the user cache directory.
func ToolCache() string {
	if d := os.Getenv("RUNNER_TOOL_CACHE"); d != "" {
		return d
	}
	d, err := os.UserCacheDir()
	if err != nil {
		slog.Error("failed to call os.UserCacheDir()", "error", err)
		return ""
	}
	return d
}
