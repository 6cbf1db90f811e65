// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parse turns raw results and committee documents into canonical
// records. A Parser holds an ordered list of strategies and returns the
// output of the first one that yields anything; strategies never merge.
package parse

import (
	"sort"

	"go.uber.org/zap"

	"github.com/pdiddy/artifact-harvest/internal/logging"
	"github.com/pdiddy/artifact-harvest/internal/metrics"
	"github.com/pdiddy/artifact-harvest/pkg/types"
)

// Strategy names accepted in Hints.Strategies and source configuration.
const (
	StrategyFrontMatter       = "front_matter"
	StrategyHTMLTable         = "html_table"
	StrategyMarkdownTable     = "markdown_table"
	StrategyCommitteeSections = "committee_sections"
)

// Default link classification keywords.
var (
	DefaultRepoHosts     = []string{"github", "gitlab", "bitbucket"}
	DefaultArtifactHosts = []string{"zenodo", "figshare", "doi"}
)

// DefaultArtifactStrategies is the order used when a source names none.
var DefaultArtifactStrategies = []string{StrategyFrontMatter, StrategyHTMLTable, StrategyMarkdownTable}

// Hints carry per-source parser configuration.
type Hints struct {
	Kind          types.SourceKind
	Strategies    []string
	RepoHosts     []string
	ArtifactHosts []string
}

// HintsFor derives hints from a source configuration, filling in defaults.
func HintsFor(src types.SourceConfig, kind types.SourceKind) Hints {
	return Hints{
		Kind:          kind,
		Strategies:    src.Strategies,
		RepoHosts:     src.RepoHosts,
		ArtifactHosts: src.ArtifactHosts,
	}.withDefaults()
}

func (h Hints) withDefaults() Hints {
	if len(h.RepoHosts) == 0 {
		h.RepoHosts = DefaultRepoHosts
	}
	if len(h.ArtifactHosts) == 0 {
		h.ArtifactHosts = DefaultArtifactHosts
	}
	return h
}

// Strategy is one structural recognizer. Parse must be pure: it either
// returns every record it recognized or none at all.
type Strategy[T any] struct {
	Name  string
	Parse func(doc []byte, h Hints) []T
}

// Parser tries Strategies in order.
type Parser[T any] struct {
	Strategies []Strategy[T]
	Logger     *zap.Logger
}

// Parse returns the records of the first strategy that found any, plus
// that strategy's name. An empty result is a normal outcome.
func (p Parser[T]) Parse(doc []byte, h Hints) ([]T, string) {
	h = h.withDefaults()
	logger := logging.OrNop(p.Logger)
	for _, s := range p.Strategies {
		recs := s.Parse(doc, h)
		if len(recs) > 0 {
			logger.Debug("parse strategy matched", zap.String("strategy", s.Name), zap.Int("records", len(recs)))
			metrics.ObserveParse(s.Name)
			return recs, s.Name
		}
	}
	metrics.ObserveParse("")
	return nil, ""
}

var artifactStrategies = map[string]Strategy[types.ArtifactRecord]{
	StrategyFrontMatter:   {Name: StrategyFrontMatter, Parse: FrontMatter},
	StrategyHTMLTable:     {Name: StrategyHTMLTable, Parse: HTMLTable},
	StrategyMarkdownTable: {Name: StrategyMarkdownTable, Parse: MarkdownTable},
}

// ArtifactStrategyNames lists the registered results-document strategies.
func ArtifactStrategyNames() []string {
	names := make([]string, 0, len(artifactStrategies))
	for n := range artifactStrategies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewArtifactParser builds a parser for results documents using the
// strategy order in h, or DefaultArtifactStrategies. Unknown names are
// ignored.
func NewArtifactParser(h Hints, logger *zap.Logger) Parser[types.ArtifactRecord] {
	names := h.Strategies
	if len(names) == 0 {
		names = DefaultArtifactStrategies
	}
	p := Parser[types.ArtifactRecord]{Logger: logger}
	for _, n := range names {
		if s, ok := artifactStrategies[n]; ok {
			p.Strategies = append(p.Strategies, s)
		} else {
			logging.OrNop(logger).Warn("unknown parse strategy", zap.String("strategy", n))
		}
	}
	return p
}

// NewCommitteeParser builds a parser for committee documents.
func NewCommitteeParser(logger *zap.Logger) Parser[types.CommitteeRecord] {
	return Parser[types.CommitteeRecord]{
		Strategies: []Strategy[types.CommitteeRecord]{{Name: StrategyCommitteeSections, Parse: CommitteeSections}},
		Logger:     logger,
	}
}
