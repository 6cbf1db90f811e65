// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve maps free-text affiliations to institutions and
// countries. Lookups go through an insertion-ordered prefix index first and
// fall back to a fuzzy scan of every indexed key.
package resolve

import (
	"strings"
	"sync"

	"github.com/pdiddy/artifact-harvest/internal/metrics"
	"github.com/pdiddy/artifact-harvest/pkg/types"
)

// DefaultThreshold is the fuzzy score a candidate must exceed.
const DefaultThreshold = 80

// Index is built once with Add and is then safe for concurrent Classify
// calls. Classify results are memoized per input.
type Index struct {
	trie      trie
	keys      []string
	values    map[string]*Institution
	threshold int

	mu   sync.Mutex
	memo map[string]types.AffiliationResolution
}

// NewIndex returns an empty index. A non-positive threshold uses
// DefaultThreshold.
func NewIndex(threshold int) *Index {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Index{
		values:    make(map[string]*Institution),
		threshold: threshold,
		memo:      make(map[string]types.AffiliationResolution),
	}
}

// Build indexes the public list, then each override list in order.
func Build(threshold int, public []Institution, overrides ...[]Institution) *Index {
	idx := NewIndex(threshold)
	for _, u := range public {
		idx.Add(u)
	}
	for _, list := range overrides {
		for _, u := range list {
			idx.Add(u)
		}
	}
	return idx
}

// Len is the number of distinct keys.
func (x *Index) Len() int { return len(x.keys) }

func (x *Index) put(key string, inst *Institution) {
	if key == "" {
		return
	}
	if _, ok := x.values[key]; !ok {
		x.keys = append(x.keys, key)
	}
	x.values[key] = inst
	x.trie.insert(key, inst)
}

// Add indexes inst under its lowercased name, under each of its words when
// it has several, and under each trailing run of two or more words. Keys
// already present now point at inst but keep their original position.
func (x *Index) Add(inst Institution) {
	x.mu.Lock()
	clear(x.memo)
	x.mu.Unlock()

	in := inst
	name := strings.ToLower(inst.Name)
	x.put(name, &in)

	words := strings.Split(inst.Name, " ")
	if len(words) <= 1 {
		return
	}
	for _, w := range words {
		x.put(strings.ToLower(w), &in)
	}
	if len(words) > 2 {
		for s := 1; s < len(words)-1; s++ {
			x.put(strings.ToLower(strings.Join(words[s:], " ")), &in)
		}
	}
}

// Classify resolves one affiliation string.
func (x *Index) Classify(affiliation string) types.AffiliationResolution {
	key := strings.ToLower(types.CleanAffiliation(affiliation))

	x.mu.Lock()
	if r, ok := x.memo[key]; ok {
		x.mu.Unlock()
		r.Input = affiliation
		return r
	}
	x.mu.Unlock()

	r := x.classify(key)
	r.Input = affiliation
	metrics.ObserveResolution(string(r.Method))

	x.mu.Lock()
	x.memo[key] = r
	x.mu.Unlock()
	return r
}

func (x *Index) classify(key string) types.AffiliationResolution {
	unresolved := types.AffiliationResolution{Method: types.MethodUnresolved}
	if key == "" {
		return unresolved
	}

	if inst := x.trie.firstWithPrefix(key); inst != nil {
		return resolution(inst, types.MethodPrefix, 100)
	}

	var best *Institution
	bestScore := 0
	for _, k := range x.keys {
		if score := Ratio(k, key); score > bestScore {
			bestScore, best = score, x.values[k]
		}
	}
	if best != nil && bestScore > x.threshold {
		return resolution(best, types.MethodFuzzy, bestScore)
	}
	return unresolved
}

func resolution(inst *Institution, method types.ResolutionMethod, score int) types.AffiliationResolution {
	return types.AffiliationResolution{
		Country:     inst.Country,
		Institution: inst.Name,
		Continent:   Continent(inst.Country),
		Method:      method,
		Score:       score,
	}
}
