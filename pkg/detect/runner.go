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

package detect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	ScanModeRapid = "RAPID"

	// DefaultOutputDir is created under $RUNNER_TEMP when no override is given.
	DefaultOutputDir = "blackduck-rapid-scan"

	envDiagnostic         = "DETECT_DIAGNOSTIC"
	envDiagnosticExtended = "DETECT_DIAGNOSTIC_EXTENDED"
)

// Options are the Detect properties set by the action.
type Options struct {
	BlackDuckURL      string
	BlackDuckAPIToken string
	ScanMode          string
	OutputPath        string
	TrustCertificate  bool
	Debug             bool
}

func (o Options) Args() []string {
	args := []string{
		"--blackduck.trust.cert=" + strconv.FormatBool(o.TrustCertificate),
		"--blackduck.url=" + o.BlackDuckURL,
		"--blackduck.api.token=" + o.BlackDuckAPIToken,
		"--detect.blackduck.scan.mode=" + o.ScanMode,
		"--detect.output.path=" + o.OutputPath,
		"--detect.scan.output.path=" + o.OutputPath,
	}
	if o.Debug {
		args = append(args, "--logging.level.com.synopsys.integration=DEBUG")
	}
	return args
}

// OutputPath picks the directory Detect writes to.
func OutputPath(override, runnerTemp string) (string, error) {
	switch {
	case override != "":
		return override, nil
	case runnerTemp != "":
		return filepath.Join(runnerTemp, DefaultOutputDir), nil
	default:
		return "", errors.New("$RUNNER_TEMP is not defined and output-path-override was not set, cannot determine where to store output files")
	}
}

type Runner struct {
	// Java defaults to "java" on $PATH.
	Java   string
	Stdout io.Writer
	Stderr io.Writer
	// Env is appended to the current environment.
	Env []string
}

// Run executes the jar with args. A non-zero exit status is returned as the
// ExitCode, not as an error; err is set only when Detect could not be run.
func (r *Runner) Run(ctx context.Context, jar string, args []string) (ExitCode, error) {
	java := r.Java
	if java == "" {
		java = "java"
	}
	cmdArgs := append([]string{"-jar", jar}, args...)
	slog.InfoContext(ctx, "Running Detect", "args", strings.Join(redact(cmdArgs), " "))

	cmd := exec.CommandContext(ctx, java, cmdArgs...)
	cmd.Stdout = r.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = r.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	cmd.Env = append(os.Environ(), r.Env...)

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return ExitCode(exitErr.ExitCode()), nil
	}
	if err != nil {
		return ExitFailureUnknownError, fmt.Errorf("failed to run Detect: %w", err)
	}
	return ExitSuccess, nil
}

func redact(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if strings.HasPrefix(a, "--blackduck.api.token=") {
			a = "--blackduck.api.token=***"
		}
		out[i] = a
	}
	return out
}

// ResultFiles lists the rapid-scan JSON files in outputPath, sorted.
func ResultFiles(outputPath string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(outputPath, "*.json"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scan results found in %s", outputPath)
	}
	sort.Strings(paths)
	return paths, nil
}

// DiagnosticFiles lists the diagnostic zips Detect leaves in outputPath/runs.
func DiagnosticFiles(outputPath string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(outputPath, "runs", "*.zip"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// DiagnosticModeEnabled reports whether DETECT_DIAGNOSTIC or
// DETECT_DIAGNOSTIC_EXTENDED is "true".
func DiagnosticModeEnabled(getenv func(string) string) bool {
	return strings.EqualFold(getenv(envDiagnostic), "true") || strings.EqualFold(getenv(envDiagnosticExtended), "true")
}

// DiagnosticEnv turns on Detect diagnostic mode for a debug run.
func DiagnosticEnv(debug bool) []string {
	if !debug {
		return nil
	}
	return []string{envDiagnostic + "=true"}
}
