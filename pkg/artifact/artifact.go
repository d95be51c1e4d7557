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

// Package artifact uploads scan outputs to an S3-compatible bucket.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Uploader stores a named set of files that live under root.
type Uploader interface {
	Upload(ctx context.Context, name, root string, files []string) error
}

type Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	UseSSL    bool   `yaml:"useSSL"`
	// Prefix is prepended to every object key.
	Prefix string `yaml:"prefix"`
}

func (c Config) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

// NewRunID returns a fresh identifier grouping the uploads of one run.
func NewRunID() string {
	return uuid.New().String()
}

type objectPutter interface {
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Store uploads to one bucket under <prefix>/<runID>/<name>/.
type Store struct {
	client objectPutter
	bucket string
	prefix string
	runID  string
}

// New connects to the bucket, creating it when it does not exist.
func New(ctx context.Context, c Config, runID string) (*Store, error) {
	cli, err := minio.New(c.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.AccessKey, c.SecretKey, ""),
		Secure: c.UseSSL,
		Region: c.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact store client: %w", err)
	}
	exists, err := cli.BucketExists(ctx, c.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %q: %w", c.Bucket, err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, c.Bucket, minio.MakeBucketOptions{Region: c.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %q: %w", c.Bucket, err)
		}
	}
	return newStore(cli, c.Bucket, c.Prefix, runID), nil
}

func newStore(client objectPutter, bucket, prefix, runID string) *Store {
	return &Store{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/"), runID: runID}
}

// Upload puts every file, keyed by its path relative to root. All files are
// attempted; the returned error joins the failures.
func (s *Store) Upload(ctx context.Context, name, root string, files []string) error {
	if len(files) == 0 {
		slog.WarnContext(ctx, "Expected to upload artifact, but no files were provided", "artifact", name)
		return nil
	}
	slog.InfoContext(ctx, "Uploading artifact", "artifact", name, "files", len(files))
	var errs []error
	for _, f := range files {
		key := s.objectKey(name, root, f)
		_, err := s.client.FPutObject(ctx, s.bucket, key, f, minio.PutObjectOptions{ContentType: contentType(f)})
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to upload %s: %w", f, err))
			continue
		}
		slog.DebugContext(ctx, "Uploaded", "bucket", s.bucket, "key", key)
	}
	if len(errs) > 0 {
		slog.WarnContext(ctx, "Some artifact files failed to upload", "artifact", name, "failed", len(errs))
		return errors.Join(errs...)
	}
	slog.InfoContext(ctx, "Artifact uploaded", "artifact", name)
	return nil
}

func (s *Store) objectKey(name, root, file string) string {
	rel, err := filepath.Rel(root, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(file)
	}
	return path.Join(s.prefix, s.runID, slug(name), filepath.ToSlash(rel))
}

func slug(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "-"))
}

func contentType(file string) string {
	switch filepath.Ext(file) {
	case ".json":
		return "application/json"
	case ".zip":
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}

// Discard is the Uploader used when no bucket is configured.
type Discard struct{}

func (Discard) Upload(ctx context.Context, name, _ string, files []string) error {
	slog.InfoContext(ctx, "No artifact store configured, skipping upload", "artifact", name, "files", len(files))
	return nil
}
