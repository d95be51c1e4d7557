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

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/venslabs/blackduck-action/cmd/blackduck-action/commands/policycheck"
	"github.com/venslabs/blackduck-action/cmd/blackduck-action/commands/report"
	"github.com/venslabs/blackduck-action/cmd/blackduck-action/commands/run"
	"github.com/venslabs/blackduck-action/cmd/blackduck-action/version"
	"github.com/venslabs/blackduck-action/pkg/actionsutil"
	"github.com/venslabs/blackduck-action/pkg/envutil"
)

var logLevel = new(slog.LevelVar)

func main() {
	logHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(logHandler))
	if err := newRootCommand().Execute(); err != nil {
		slog.Error("Error", "error", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "blackduck-action",
		Short:         "Run Black Duck Detect rapid scans and report policy violations on GitHub",
		Example:       run.Example(),
		Version:       version.GetVersion(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := cmd.PersistentFlags()

	// CLI flag > $DEBUG > runner debug logging > false
	flags.Bool("debug", envutil.Bool("DEBUG", "", actionsutil.IsRunnerDebug()), "debug mode [$DEBUG]")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			logLevel.Set(slog.LevelDebug)
		}
		return nil
	}

	cmd.AddCommand(
		run.New(),
		report.New(),
		policycheck.New(),
	)

	return cmd
}
