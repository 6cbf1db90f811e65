// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"encoding/json"
	"time"
)

// Exists reports a cached URL existence check. A positive result is trusted
// for URLPositiveTTL, a negative one only for the shorter URLNegativeTTL so
// transient failures are re-checked sooner. known is false when the caller
// must probe the URL again.
func (s *Store) Exists(url string) (exists, known bool) {
	e, ok := s.GetRaw(NamespaceURLExists, url)
	if !ok {
		return false, false
	}
	var v bool
	if err := json.Unmarshal(e.Body, &v); err != nil {
		return false, false
	}
	age := s.Clock().Sub(e.StoredAt)
	if v && age < s.cfg.URLPositiveTTL {
		return true, true
	}
	if !v && age < s.cfg.URLNegativeTTL {
		return false, true
	}
	return false, false
}

// PutExists records the outcome of a URL existence probe.
func (s *Store) PutExists(url string, exists bool) error {
	return s.Put(NamespaceURLExists, url, exists, "")
}

// ExistsTTL returns how long a result of the given polarity stays trusted.
func (s *Store) ExistsTTL(exists bool) time.Duration {
	if exists {
		return s.cfg.URLPositiveTTL
	}
	return s.cfg.URLNegativeTTL
}
