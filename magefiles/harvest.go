//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Harvest runs the pipeline stages through the built binary.
type Harvest mg.Namespace

func run(args ...string) error {
	mg.Deps(Init, Build)
	return sh.RunV(filepath.Join(binDir, binName), args...)
}

// Artifacts collects artifact badges into output/artifacts.yaml.
func (Harvest) Artifacts() error {
	return run("artifacts", "-o", "output/artifacts.yaml")
}

// Committees collects committee rosters into output/committees.yaml.
func (Harvest) Committees() error {
	return run("committees", "-o", "output/committees.yaml")
}

// Profiles merges the stored rosters into output/profiles.yaml.
func (Harvest) Profiles() error {
	return run("profiles", "-o", "output/profiles.yaml")
}

// Classify resolves the stored affiliations into output/affiliations.yaml.
func (Harvest) Classify() error {
	return run("classify", "-o", "output/affiliations.yaml")
}

// Stats fetches repository statistics into output/stats.yaml.
func (Harvest) Stats() error {
	return run("stats", "--check-urls", "-o", "output/stats.yaml")
}

// All runs every stage in order.
func (Harvest) All() {
	h := Harvest{}
	mg.SerialDeps(h.Artifacts, h.Committees, h.Profiles, h.Classify, h.Stats)
}
