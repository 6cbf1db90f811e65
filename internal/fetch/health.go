// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/pdiddy/artifact-harvest/internal/logging"
	"github.com/pdiddy/artifact-harvest/internal/metrics"
)

// DefaultBlockThreshold is the number of consecutive blocked responses
// after which a source is treated as inaccessible for the rest of the run.
const DefaultBlockThreshold = 3

// SourceHealth is the breaker state of one logical source.
type SourceHealth struct {
	Source            string `json:"source" yaml:"source"`
	ConsecutiveBlocks int    `json:"consecutive_blocks" yaml:"consecutive_blocks"`
	Blocked           bool   `json:"blocked" yaml:"blocked"`
}

// HealthTable tracks SourceHealth for every source touched in a run. A
// source moves Healthy -> Blocked once ConsecutiveBlocks reaches the
// threshold and never moves back; the table is discarded with the run.
type HealthTable struct {
	mu        sync.Mutex
	threshold int
	sources   map[string]*SourceHealth
	logger    *zap.Logger
}

// NewHealthTable creates an empty table. A non-positive threshold uses
// DefaultBlockThreshold.
func NewHealthTable(threshold int, logger *zap.Logger) *HealthTable {
	if threshold <= 0 {
		threshold = DefaultBlockThreshold
	}
	return &HealthTable{
		threshold: threshold,
		sources:   make(map[string]*SourceHealth),
		logger:    logging.OrNop(logger),
	}
}

func (h *HealthTable) get(source string) *SourceHealth {
	key := strings.ToLower(source)
	s, ok := h.sources[key]
	if !ok {
		s = &SourceHealth{Source: key}
		h.sources[key] = s
	}
	return s
}

// IsBlocked reports whether the breaker for source has tripped.
func (h *HealthTable) IsBlocked(source string) bool {
	if source == "" {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sources[strings.ToLower(source)]
	return ok && s.Blocked
}

// MarkBlocked records one blocked response for source and returns true once
// the source is blocked. The transition is logged and counted exactly once.
func (h *HealthTable) MarkBlocked(source string) bool {
	if source == "" {
		return false
	}
	h.mu.Lock()
	s := h.get(source)
	if s.Blocked {
		h.mu.Unlock()
		metrics.ObserveBlock(s.Source, false)
		return true
	}
	s.ConsecutiveBlocks++
	tripped := s.ConsecutiveBlocks >= h.threshold
	if tripped {
		s.Blocked = true
	}
	count := s.ConsecutiveBlocks
	h.mu.Unlock()

	metrics.ObserveBlock(s.Source, tripped)
	if tripped {
		h.logger.Warn("source blocked, switching to degraded mode",
			zap.String("source", s.Source),
			zap.Int("consecutive_blocks", count))
	} else {
		h.logger.Info("blocked response",
			zap.String("source", s.Source),
			zap.Int("consecutive_blocks", count))
	}
	return tripped
}

// MarkOK resets the consecutive-block streak of a source that is still
// healthy. It has no effect on a blocked source.
func (h *HealthTable) MarkOK(source string) {
	if source == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sources[strings.ToLower(source)]
	if ok && !s.Blocked {
		s.ConsecutiveBlocks = 0
	}
}

// Snapshot returns a copy of every tracked source, sorted by name.
func (h *HealthTable) Snapshot() []SourceHealth {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]SourceHealth, 0, len(h.sources))
	for _, s := range h.sources {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

// Degraded lists the sources whose breaker has tripped.
func (h *HealthTable) Degraded() []string {
	var out []string
	for _, s := range h.Snapshot() {
		if s.Blocked {
			out = append(out, s.Source)
		}
	}
	return out
}
