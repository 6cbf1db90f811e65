// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from the environment and from a
// directory of plain-text key files. Each file is one secret: the filename
// is the key and the trimmed contents are the value.
//
// Supported key files: github-token.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/artifact-harvest/internal/logging"
)

// DefaultDir is where key files are looked up relative to the working directory.
const DefaultDir = ".secrets"

// GitHubTokenKey names the key file holding a GitHub API token.
const GitHubTokenKey = "github-token"

// GitHubTokenEnv lists the environment variables checked for a GitHub
// token, highest priority first.
var GitHubTokenEnv = []string{"GITHUB_TOKEN", "GH_TOKEN"}

// Load reads every regular, non-hidden file in dir. A missing directory
// yields an empty map. Unreadable files are logged and skipped.
func Load(dir string, logger *zap.Logger) (map[string]string, error) {
	logger = logging.OrNop(logger)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	out := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("secret unreadable", zap.String("key", name), zap.Error(err))
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			out[name] = value
		}
	}
	return out, nil
}

// GitHubToken returns the first non-empty token from GitHubTokenEnv, then
// from the github-token file in dir. The empty string means anonymous access.
func GitHubToken(dir string, logger *zap.Logger) string {
	for _, env := range GitHubTokenEnv {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v
		}
	}
	keys, err := Load(dir, logger)
	if err != nil {
		logging.OrNop(logger).Warn("loading secrets", zap.Error(err))
		return ""
	}
	return keys[GitHubTokenKey]
}
