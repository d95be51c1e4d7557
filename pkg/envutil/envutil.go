// Bool is derived from https://github.com/reproducible-containers/repro-get/blob/v0.4.0/pkg/envutil/envutil.go

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

// Package envutil resolves flag defaults from the environment.
// Each helper checks the plain variable first, then the GitHub Actions input
// variable (INPUT_<NAME>) so the binary works both as a CLI and as an action step.
package envutil

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// InputName returns the environment variable GitHub Actions uses for an action input.
// Actions upper-cases the input name and keeps hyphens, e.g. "blackduck-url" -> "INPUT_BLACKDUCK-URL".
func InputName(input string) string {
	return "INPUT_" + strings.ToUpper(strings.ReplaceAll(input, " ", "_"))
}

// Lookup returns the first non-empty value among envName and the action input.
func Lookup(envName, input string) (string, bool) {
	if envName != "" {
		if v, ok := os.LookupEnv(envName); ok && v != "" {
			return v, true
		}
	}
	if input != "" {
		if v, ok := os.LookupEnv(InputName(input)); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

func String(envName, input, defaultValue string) string {
	if v, ok := Lookup(envName, input); ok {
		return v
	}
	return defaultValue
}

func Bool(envName, input string, defaultValue bool) bool {
	v, ok := Lookup(envName, input)
	if !ok {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn(fmt.Sprintf("Failed to parse %q ($%s) as a boolean: %v", v, envName, err))
		return defaultValue
	}
	return b
}

func Int(envName, input string, defaultValue int) int {
	v, ok := Lookup(envName, input)
	if !ok {
		return defaultValue
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn(fmt.Sprintf("Failed to parse %q ($%s) as an integer: %v", v, envName, err))
		return defaultValue
	}
	return i
}
