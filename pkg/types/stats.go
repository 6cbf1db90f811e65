// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RepoStats holds popularity metadata for a source repository.
type RepoStats struct {
	FullName    string   `json:"full_name" yaml:"full_name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Language    string   `json:"language,omitempty" yaml:"language,omitempty"`
	License     string   `json:"license,omitempty" yaml:"license,omitempty"`
	Topics      []string `json:"topics,omitempty" yaml:"topics,omitempty"`
	Stars       int      `json:"stars" yaml:"stars"`
	Forks       int      `json:"forks" yaml:"forks"`
	CreatedAt   string   `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt   string   `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	PushedAt    string   `json:"pushed_at,omitempty" yaml:"pushed_at,omitempty"`
}

// ArchiveStats holds usage counts for an archived artifact (Zenodo,
// Figshare). A count of -1 means the source did not report it.
type ArchiveStats struct {
	Archive   string `json:"archive" yaml:"archive"`
	Views     int    `json:"views" yaml:"views"`
	Downloads int    `json:"downloads" yaml:"downloads"`
	CreatedAt string `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// ArtifactStats joins an artifact with whatever statistics were found for it.
type ArtifactStats struct {
	Conference string          `json:"conference" yaml:"conference"`
	Title      string          `json:"title" yaml:"title"`
	Repository *RepoStats      `json:"repository,omitempty" yaml:"repository,omitempty"`
	Archive    *ArchiveStats   `json:"archive,omitempty" yaml:"archive,omitempty"`
	URLChecks  map[string]bool `json:"url_checks,omitempty" yaml:"url_checks,omitempty"`
}
