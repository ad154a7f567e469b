// Package profiledb records fitted profile runs in a local SQLite database so
// repeated runs can be compared and coverage gaps tracked over time.
package profiledb

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// NewDB opens (creating if needed) the profile database at path and ensures
// the base schema exists.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS profiles (
			id                TEXT PRIMARY KEY,
			model             TEXT NOT NULL,
			style             TEXT NOT NULL,
			cube_path         TEXT,
			poly_order        BIGINT,
			lut_size          BIGINT,
			sample_count      BIGINT,
			inlier_count      BIGINT,
			clip_rounds       BIGINT,
			fit_rank          BIGINT,
			mae               DOUBLE,
			rmse              DOUBLE,
			mae_r             DOUBLE,
			mae_g             DOUBLE,
			mae_b             DOUBLE,
			warnings          TEXT,
			created_at        TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS coverage_gaps (
			gap_id            INTEGER PRIMARY KEY AUTOINCREMENT,
			profile_id        TEXT NOT NULL,
			advisory          TEXT NOT NULL,
			created_at        TIMESTAMP,
			FOREIGN KEY(profile_id) REFERENCES profiles(id)
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// Profile is one recorded fitting run for a camera/style group.
type Profile struct {
	ID          string
	Model       string
	Style       string
	CubePath    string
	PolyOrder   int
	LUTSize     int
	SampleCount int
	InlierCount int
	ClipRounds  int
	Rank        int
	MAE         float64
	RMSE        float64
	ChannelMAE  [3]float64
	Warnings    []string
	CreatedAt   time.Time
}

// RecordProfile inserts a profile row, assigning a fresh ID when the profile
// carries none, and returns the ID.
func (db *DB) RecordProfile(p *Profile) (string, error) {
	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := db.Exec(`
		INSERT INTO profiles (
			id, model, style, cube_path, poly_order, lut_size,
			sample_count, inlier_count, clip_rounds, fit_rank,
			mae, rmse, mae_r, mae_g, mae_b, warnings, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.Model, p.Style, p.CubePath, p.PolyOrder, p.LUTSize,
		p.SampleCount, p.InlierCount, p.ClipRounds, p.Rank,
		p.MAE, p.RMSE, p.ChannelMAE[0], p.ChannelMAE[1], p.ChannelMAE[2],
		strings.Join(p.Warnings, "\n"), createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("inserting profile %s/%s: %w", p.Model, p.Style, err)
	}
	return id, nil
}

// RecordCoverageGaps stores the coverage advisories raised for a profile.
func (db *DB) RecordCoverageGaps(profileID string, advisories []string) error {
	if len(advisories) == 0 {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339)
	for _, adv := range advisories {
		if _, err := db.Exec(
			`INSERT INTO coverage_gaps (profile_id, advisory, created_at) VALUES (?, ?, ?)`,
			profileID, adv, now,
		); err != nil {
			return fmt.Errorf("inserting coverage gap for %s: %w", profileID, err)
		}
	}
	return nil
}

const profileColumns = `id, model, style, cube_path, poly_order, lut_size,
	sample_count, inlier_count, clip_rounds, fit_rank,
	mae, rmse, mae_r, mae_g, mae_b, warnings, created_at`

// ListProfiles returns all recorded profiles, newest first.
func (db *DB) ListProfiles() ([]Profile, error) {
	rows, err := db.Query(`SELECT ` + profileColumns + ` FROM profiles ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetProfile returns one profile by ID, or sql.ErrNoRows when absent.
func (db *DB) GetProfile(id string) (*Profile, error) {
	row := db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id)
	p, err := scanProfile(row)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CoverageGaps returns the advisories recorded for a profile in insertion
// order.
func (db *DB) CoverageGaps(profileID string) ([]string, error) {
	rows, err := db.Query(
		`SELECT advisory FROM coverage_gaps WHERE profile_id = ? ORDER BY gap_id`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing coverage gaps: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var adv string
		if err := rows.Scan(&adv); err != nil {
			return nil, err
		}
		out = append(out, adv)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (Profile, error) {
	var p Profile
	var warnings, createdAt string
	err := row.Scan(
		&p.ID, &p.Model, &p.Style, &p.CubePath, &p.PolyOrder, &p.LUTSize,
		&p.SampleCount, &p.InlierCount, &p.ClipRounds, &p.Rank,
		&p.MAE, &p.RMSE, &p.ChannelMAE[0], &p.ChannelMAE[1], &p.ChannelMAE[2],
		&warnings, &createdAt,
	)
	if err != nil {
		return Profile{}, err
	}
	if warnings != "" {
		p.Warnings = strings.Split(warnings, "\n")
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		p.CreatedAt = t
	}
	return p, nil
}
