// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/artifact-harvest/pkg/types"
)

// SaveArtifacts replaces the stored artifacts of every conference-year in
// sets with the new records.
func (s *Store) SaveArtifacts(ctx context.Context, runID string, sets []types.ConferenceArtifacts) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO artifacts (run_id, source, conference, year, file, strategy, position,
			title, badges, authors, doi, paper_url, repository_url, artifact_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, set := range sets {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM artifacts WHERE source = ? AND conference = ? AND year = ?`,
			set.Source, set.Conference.Conference, set.Conference.Year); err != nil {
			return fmt.Errorf("deleting old artifacts of %s: %w", set.Conference, err)
		}
		for i, a := range set.Artifacts {
			authors, err := json.Marshal(a.Authors)
			if err != nil {
				return fmt.Errorf("encoding authors of %q: %w", a.Title, err)
			}
			if _, err := stmt.ExecContext(ctx,
				runID, set.Source, set.Conference.Conference, set.Conference.Year, set.File, set.Strategy, i,
				a.Title, a.Badges.String(), string(authors), a.DOI, a.PaperURL, a.RepositoryURL, a.ArtifactURL,
			); err != nil {
				return fmt.Errorf("inserting artifact %q: %w", a.Title, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing artifacts: %w", err)
	}
	s.logger.Debug("saved artifacts", zap.String("run", runID), zap.Int("conferences", len(sets)))
	return nil
}

// Artifacts loads the stored artifacts grouped by conference-year, ordered
// by source, conference and year, records in their original order.
func (s *Store) Artifacts(ctx context.Context, f Filter) ([]types.ConferenceArtifacts, error) {
	var qb strings.Builder
	qb.WriteString(`SELECT source, conference, year, file, strategy, title, badges, authors,
		doi, paper_url, repository_url, artifact_url FROM artifacts`)
	args := f.where(&qb, nil)
	qb.WriteString(` ORDER BY source, conference, year, position`)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying artifacts: %w", err)
	}
	defer rows.Close()

	var (
		out  []types.ConferenceArtifacts
		last confKey
	)
	for rows.Next() {
		var (
			k                                   confKey
			file, strategy, badges, authors     sql.NullString
			doi, paperURL, repoURL, artifactURL sql.NullString
			a                                   types.ArtifactRecord
		)
		if err := rows.Scan(&k.source, &k.conf.Conference, &k.conf.Year, &file, &strategy, &a.Title,
			&badges, &authors, &doi, &paperURL, &repoURL, &artifactURL); err != nil {
			return nil, fmt.Errorf("scanning artifact: %w", err)
		}
		a.Badges = parseBadges(badges.String)
		if authors.Valid && authors.String != "" {
			if err := json.Unmarshal([]byte(authors.String), &a.Authors); err != nil {
				return nil, fmt.Errorf("decoding authors of %q: %w", a.Title, err)
			}
		}
		a.DOI, a.PaperURL, a.RepositoryURL, a.ArtifactURL = doi.String, paperURL.String, repoURL.String, artifactURL.String

		if len(out) == 0 || k != last {
			out = append(out, types.ConferenceArtifacts{
				Source:     k.source,
				Conference: k.conf,
				File:       file.String,
				Strategy:   strategy.String,
			})
			last = k
		}
		cur := &out[len(out)-1]
		cur.Artifacts = append(cur.Artifacts, a)
	}
	return out, rows.Err()
}

// SaveCommittees replaces the stored roster of every conference-year in
// rosters.
func (s *Store) SaveCommittees(ctx context.Context, runID string, rosters []types.ConferenceCommittee) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO committee (run_id, source, conference, year, file, position, name, affiliation, role)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, cc := range rosters {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM committee WHERE source = ? AND conference = ? AND year = ?`,
			cc.Source, cc.Conference.Conference, cc.Conference.Year); err != nil {
			return fmt.Errorf("deleting old roster of %s: %w", cc.Conference, err)
		}
		for i, m := range cc.Members {
			if _, err := stmt.ExecContext(ctx,
				runID, cc.Source, cc.Conference.Conference, cc.Conference.Year, cc.File, i,
				m.Name, m.Affiliation, string(m.Role),
			); err != nil {
				return fmt.Errorf("inserting member %q: %w", m.Name, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing committees: %w", err)
	}
	s.logger.Debug("saved committees", zap.String("run", runID), zap.Int("conferences", len(rosters)))
	return nil
}

// Committees loads the stored rosters grouped by conference-year.
func (s *Store) Committees(ctx context.Context, f Filter) ([]types.ConferenceCommittee, error) {
	var qb strings.Builder
	qb.WriteString(`SELECT source, conference, year, file, name, affiliation, role FROM committee`)
	args := f.where(&qb, nil)
	qb.WriteString(` ORDER BY source, conference, year, position`)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying committee: %w", err)
	}
	defer rows.Close()

	var (
		out  []types.ConferenceCommittee
		last confKey
	)
	for rows.Next() {
		var (
			k                 confKey
			file, affiliation sql.NullString
			role              string
			m                 types.CommitteeRecord
		)
		if err := rows.Scan(&k.source, &k.conf.Conference, &k.conf.Year, &file, &m.Name, &affiliation, &role); err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		m.Affiliation = affiliation.String
		m.Role = types.Role(role)
		m.Conference, m.Year = k.conf.Conference, k.conf.Year

		if len(out) == 0 || k != last {
			out = append(out, types.ConferenceCommittee{Source: k.source, Conference: k.conf, File: file.String})
			last = k
		}
		cur := &out[len(out)-1]
		cur.Members = append(cur.Members, m)
	}
	return out, rows.Err()
}

// SaveResolutions upserts resolutions keyed by their input text.
func (s *Store) SaveResolutions(ctx context.Context, runID string, res []types.AffiliationResolution) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO resolutions (input, run_id, country, institution, continent, method, score)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(input) DO UPDATE SET
			run_id=excluded.run_id, country=excluded.country, institution=excluded.institution,
			continent=excluded.continent, method=excluded.method, score=excluded.score`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range res {
		if _, err := stmt.ExecContext(ctx,
			r.Input, runID, r.Country, r.Institution, r.Continent, string(r.Method), r.Score); err != nil {
			return fmt.Errorf("upserting resolution %q: %w", r.Input, err)
		}
	}
	return tx.Commit()
}

// Resolutions loads every stored resolution ordered by input.
func (s *Store) Resolutions(ctx context.Context) ([]types.AffiliationResolution, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT input, country, institution, continent, method, score FROM resolutions ORDER BY input`)
	if err != nil {
		return nil, fmt.Errorf("querying resolutions: %w", err)
	}
	defer rows.Close()

	var out []types.AffiliationResolution
	for rows.Next() {
		var (
			r                               types.AffiliationResolution
			country, institution, continent sql.NullString
			method                          string
			score                           sql.NullInt64
		)
		if err := rows.Scan(&r.Input, &country, &institution, &continent, &method, &score); err != nil {
			return nil, fmt.Errorf("scanning resolution: %w", err)
		}
		r.Country, r.Institution, r.Continent = country.String, institution.String, continent.String
		r.Method = types.ResolutionMethod(method)
		r.Score = int(score.Int64)
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveProfiles replaces the stored profiles with profiles. Profiles are
// always recomputed from every stored roster, so partial updates make no
// sense.
func (s *Store) SaveProfiles(ctx context.Context, runID string, profiles []types.PersonProfile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM profiles`); err != nil {
		return fmt.Errorf("clearing profiles: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO profiles (normalized_name, run_id, display_name, affiliation, total, chairs,
			years, conferences, area, first_year, last_year)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range profiles {
		years, _ := json.Marshal(p.YearCounts)
		confs, _ := json.Marshal(p.Conferences)
		if _, err := stmt.ExecContext(ctx,
			p.NormalizedName, runID, p.DisplayName, p.Affiliation, p.TotalMemberships, p.ChairCount,
			string(years), string(confs), string(p.Area), p.FirstYear, p.LastYear,
		); err != nil {
			return fmt.Errorf("inserting profile %q: %w", p.NormalizedName, err)
		}
	}
	return tx.Commit()
}

// Profiles loads the stored profiles in aggregate order: most memberships
// first, then most chair roles, then name.
func (s *Store) Profiles(ctx context.Context) ([]types.PersonProfile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT normalized_name, display_name, affiliation, total, chairs, years, conferences,
			area, first_year, last_year
		 FROM profiles ORDER BY total DESC, chairs DESC, display_name`)
	if err != nil {
		return nil, fmt.Errorf("querying profiles: %w", err)
	}
	defer rows.Close()

	var out []types.PersonProfile
	for rows.Next() {
		var (
			p                         types.PersonProfile
			affiliation, years, confs sql.NullString
			area                      sql.NullString
			first, last               sql.NullInt64
		)
		if err := rows.Scan(&p.NormalizedName, &p.DisplayName, &affiliation, &p.TotalMemberships,
			&p.ChairCount, &years, &confs, &area, &first, &last); err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		p.Affiliation = affiliation.String
		if years.Valid {
			json.Unmarshal([]byte(years.String), &p.YearCounts)
		}
		if confs.Valid {
			json.Unmarshal([]byte(confs.String), &p.Conferences)
		}
		p.Area = types.Area(area.String)
		p.FirstYear, p.LastYear = int(first.Int64), int(last.Int64)
		out = append(out, p)
	}
	return out, rows.Err()
}
