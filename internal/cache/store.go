// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache is the disk-backed key/value store every fetch goes through.
// Entries live one file per key under <dir>/<namespace>/<sha256(key)>.json
// and carry the time they were stored plus an optional ETag for
// conditional revalidation. TTLs are enforced on read; nothing is deleted.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/artifact-harvest/pkg/types"
)

// Namespaces used across the pipeline.
const (
	NamespaceHTTP          = "http"
	NamespaceListing       = "listing"
	NamespaceURLExists     = "url_exists"
	NamespaceGitHubStats   = "stats_github"
	NamespaceZenodoStats   = "stats_zenodo"
	NamespaceFigshareStats = "stats_figshare"
	NamespaceDBLP          = "dblp"
	NamespaceDLBadges      = "dl_badges"
)

// Default TTLs.
const (
	DefaultTTL            = 30 * 24 * time.Hour
	DefaultURLPositiveTTL = 90 * 24 * time.Hour
	DefaultURLNegativeTTL = 7 * 24 * time.Hour
	DefaultStatsTTL       = 30 * 24 * time.Hour
)

var namespacePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// ErrInvalidNamespace is returned for namespaces that are not a single
// lowercase path segment.
var ErrInvalidNamespace = errors.New("invalid cache namespace")

// Entry is one cached value.
type Entry struct {
	Key       string          `json:"key"`
	Namespace string          `json:"namespace"`
	StoredAt  time.Time       `json:"ts"`
	ETag      string          `json:"etag,omitempty"`
	Body      json.RawMessage `json:"body"`
}

// Store is safe for concurrent use. Writes to different keys touch
// different files; writes to the same key are serialized by a striped lock
// and land atomically via rename, so the last writer wins.
type Store struct {
	dir    string
	cfg    types.CacheConfig
	logger *zap.Logger
	locks  [64]sync.Mutex

	// Clock returns the current time. Tests replace it to age entries.
	Clock func() time.Time
}

// Open validates that cfg.Dir exists (creating it if needed) and is
// writable, and fills in default TTLs.
func Open(cfg types.CacheConfig, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	info, err := os.Stat(cfg.Dir)
	switch {
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(cfg.Dir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("creating cache directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("stat cache directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("cache path %s is not a directory", cfg.Dir)
	}

	probe := filepath.Join(cfg.Dir, ".writable_test")
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return nil, fmt.Errorf("cache directory is not writable: %w", err)
	}
	_ = os.Remove(probe)

	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.URLPositiveTTL <= 0 {
		cfg.URLPositiveTTL = DefaultURLPositiveTTL
	}
	if cfg.URLNegativeTTL <= 0 {
		cfg.URLNegativeTTL = DefaultURLNegativeTTL
	}
	if cfg.StatsTTL <= 0 {
		cfg.StatsTTL = DefaultStatsTTL
	}

	return &Store{
		dir:    cfg.Dir,
		cfg:    cfg,
		logger: logger,
		Clock:  time.Now,
	}, nil
}

// TTL returns the general body TTL.
func (s *Store) TTL() time.Duration { return s.cfg.TTL }

// StatsTTL returns the TTL for repository and archive statistics.
func (s *Store) StatsTTL() time.Duration { return s.cfg.StatsTTL }

// HashKey returns the hex SHA-256 of key, the on-disk file stem.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func (s *Store) path(namespace, key string) (string, error) {
	if !namespacePattern.MatchString(namespace) {
		return "", fmt.Errorf("%w: %q", ErrInvalidNamespace, namespace)
	}
	full := filepath.Join(s.dir, namespace, HashKey(key)+".json")
	base := filepath.Clean(s.dir) + string(filepath.Separator)
	if !strings.HasPrefix(filepath.Clean(full), base) {
		return "", fmt.Errorf("path traversal detected for namespace %q", namespace)
	}
	return full, nil
}

func (s *Store) lock(key string) *sync.Mutex {
	h := sha256.Sum256([]byte(key))
	return &s.locks[h[0]%byte(len(s.locks))]
}

// GetRaw returns the entry regardless of age. Missing, unreadable, and
// malformed files all report absent.
func (s *Store) GetRaw(namespace, key string) (*Entry, bool) {
	p, err := s.path(namespace, key)
	if err != nil {
		s.logger.Debug("cache path rejected", zap.String("namespace", namespace), zap.Error(err))
		return nil, false
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Debug("cache read failed", zap.String("path", p), zap.Error(err))
		}
		return nil, false
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil || e.StoredAt.IsZero() {
		s.logger.Debug("cache entry malformed, treating as miss", zap.String("path", p), zap.Error(err))
		return nil, false
	}
	return &e, true
}

// Get returns the body stored under key when it is younger than maxAge.
// A maxAge of zero or less accepts any age.
func (s *Store) Get(namespace, key string, maxAge time.Duration) ([]byte, bool) {
	e, ok := s.GetRaw(namespace, key)
	if !ok {
		return nil, false
	}
	if maxAge > 0 && s.Clock().Sub(e.StoredAt) >= maxAge {
		return nil, false
	}
	return e.Body, true
}

// GetJSON decodes a fresh entry into dst. Decoding failures count as a miss.
func (s *Store) GetJSON(namespace, key string, maxAge time.Duration, dst any) bool {
	body, ok := s.Get(namespace, key, maxAge)
	if !ok {
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		s.logger.Debug("cache body does not decode", zap.String("namespace", namespace), zap.Error(err))
		return false
	}
	return true
}

// GetBytes is Get for bodies that were stored from a []byte.
func (s *Store) GetBytes(namespace, key string, maxAge time.Duration) ([]byte, bool) {
	var str string
	if !s.GetJSON(namespace, key, maxAge, &str) {
		return nil, false
	}
	return []byte(str), true
}

// Put stores body under key. []byte and json.RawMessage bodies are stored
// as a JSON string and raw JSON respectively; anything else is marshaled.
func (s *Store) Put(namespace, key string, body any, etag string) error {
	raw, err := encodeBody(body)
	if err != nil {
		return fmt.Errorf("encoding cache body for %s: %w", namespace, err)
	}
	mu := s.lock(namespace + "\x00" + key)
	mu.Lock()
	defer mu.Unlock()
	return s.write(namespace, &Entry{
		Key:       key,
		Namespace: namespace,
		StoredAt:  s.Clock(),
		ETag:      etag,
		Body:      raw,
	})
}

// Touch refreshes StoredAt without changing the body or ETag. Touching a
// missing entry is a no-op.
func (s *Store) Touch(namespace, key string) error {
	mu := s.lock(namespace + "\x00" + key)
	mu.Lock()
	defer mu.Unlock()
	e, ok := s.GetRaw(namespace, key)
	if !ok {
		return nil
	}
	e.StoredAt = s.Clock()
	return s.write(namespace, e)
}

func (s *Store) write(namespace string, e *Entry) error {
	p, err := s.path(namespace, e.Key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return fmt.Errorf("creating namespace directory: %w", err)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing cache entry: %w", err)
	}
	if err := os.Rename(tmpPath, p); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming cache entry: %w", err)
	}
	return nil
}

func encodeBody(body any) (json.RawMessage, error) {
	switch b := body.(type) {
	case json.RawMessage:
		if !json.Valid(b) {
			return nil, fmt.Errorf("invalid raw JSON body")
		}
		return b, nil
	case []byte:
		return json.Marshal(string(b))
	default:
		return json.Marshal(b)
	}
}

// Bytes returns the body of an entry written from a []byte or string.
func (e *Entry) Bytes() ([]byte, error) {
	var s string
	if err := json.Unmarshal(e.Body, &s); err != nil {
		return nil, fmt.Errorf("cache body is not a string: %w", err)
	}
	return []byte(s), nil
}
