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

// Package detect downloads and runs the Black Duck Detect scanner and locates
// the files it writes.
package detect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	ToolName        = "detect"
	DefaultRepoURL  = "https://sig-repo.synopsys.com"
	DefaultVersion  = "7.14.0"
	repoPath        = "bds-integrations-release/com/synopsys/integration/synopsys-detect"
	downloadTimeout = 10 * time.Minute
)

// JarName is the file name of the Detect jar for version.
func JarName(version string) string {
	return "synopsys-detect-" + version + ".jar"
}

type Downloader struct {
	// CacheDir holds <tool>/<version>/<jar>; $RUNNER_TOOL_CACHE on GitHub runners.
	CacheDir   string
	RepoURL    string
	HTTPClient *http.Client
}

func (d *Downloader) downloadURL(version string) string {
	repo := strings.TrimSuffix(d.RepoURL, "/")
	if repo == "" {
		repo = DefaultRepoURL
	}
	return fmt.Sprintf("%s/%s/%s/%s", repo, repoPath, version, JarName(version))
}

func (d *Downloader) cachedPath(version string) string {
	return filepath.Join(d.CacheDir, ToolName, version, JarName(version))
}

// Download returns the path of the Detect jar, fetching it into the cache when
// it is not already there.
func (d *Downloader) Download(ctx context.Context, version string) (string, error) {
	if version == "" {
		version = DefaultVersion
	}
	if d.CacheDir == "" {
		return "", errors.New("no tool cache directory")
	}
	jar := d.cachedPath(version)
	if _, err := os.Stat(jar); err == nil {
		slog.InfoContext(ctx, "Using cached Detect", "path", jar)
		return jar, nil
	}

	u := d.downloadURL(version)
	slog.InfoContext(ctx, "Downloading Detect", "url", u)
	client := d.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: downloadTimeout}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", u, err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download %s: unexpected status %d", u, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(jar), 0o755); err != nil {
		return "", fmt.Errorf("failed to create the tool cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(jar), ".download-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close() //nolint:errcheck
		return "", fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), jar); err != nil {
		return "", fmt.Errorf("failed to cache Detect: %w", err)
	}
	slog.InfoContext(ctx, "Detect cached", "path", jar)
	return jar, nil
}
