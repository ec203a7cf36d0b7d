// ForYouPage - Geographic Link Discovery
// Copyright 2026 Bilal (Bilal292)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Bilal292/foryoupage

// Package storage persists pins and their platform-specific link records in
// DuckDB. A pin and its platform link are written in one transaction so
// readers never observe a pin without its link variant.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"

	"github.com/Bilal292/foryoupage/internal/config"
	"github.com/Bilal292/foryoupage/internal/models"
)

// ErrNotFound is returned when a pin does not exist or is inactive.
var ErrNotFound = errors.New("pin not found")

// Store is the pin persistence layer.
type Store struct {
	conn *sql.DB
}

// PinStore is the interface the pipeline and handlers depend on; *Store is
// the DuckDB implementation. Tests substitute in-memory fakes.
type PinStore interface {
	CreatePin(ctx context.Context, pin *models.Pin) error
	PinsInBounds(ctx context.Context, swLat, swLng, neLat, neLng float64) ([]models.Pin, error)
	RandomPin(ctx context.Context) (*models.Pin, error)
	DeactivatePin(ctx context.Context, id uuid.UUID) error
	ReportPin(ctx context.Context, id uuid.UUID, deactivateAt int) (int, error)
}

// New opens (or creates) the DuckDB database at cfg.Path and initializes
// the schema. Use Path ":memory:" for an ephemeral store.
func New(cfg *config.DatabaseConfig) (*Store, error) {
	connStr := cfg.Path
	if cfg.Path != ":memory:" {
		dir := filepath.Dir(cfg.Path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create database directory %s: %w", dir, err)
			}
		}
		connStr = fmt.Sprintf("%s?access_mode=read_write&max_memory=%s", cfg.Path, cfg.MaxMemory)
	}

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.initSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS pins (
			id VARCHAR PRIMARY KEY,
			latitude DOUBLE NOT NULL,
			longitude DOUBLE NOT NULL,
			created_at TIMESTAMP NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT true,
			report_count INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS platform_links (
			pin_id VARCHAR PRIMARY KEY,
			platform VARCHAR NOT NULL,
			canonical_url VARCHAR NOT NULL,
			content_id VARCHAR
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pins_coords ON pins (latitude, longitude)`,
	}
	for _, stmt := range schema {
		if _, err := s.conn.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:30], err)
		}
	}
	return nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// CreatePin persists a pin and its platform link atomically. If either
// insert fails the transaction rolls back, leaving no orphan generic pin.
func (s *Store) CreatePin(ctx context.Context, pin *models.Pin) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO pins (id, latitude, longitude, created_at, is_active, report_count)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		pin.ID.String(), pin.Latitude, pin.Longitude, pin.CreatedAt, pin.IsActive, pin.ReportCount,
	)
	if err != nil {
		return fmt.Errorf("insert pin: %w", err)
	}

	var contentID any
	if pin.Link.ContentID != "" {
		contentID = pin.Link.ContentID
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO platform_links (pin_id, platform, canonical_url, content_id)
		 VALUES (?, ?, ?, ?)`,
		pin.ID.String(), string(pin.Link.Platform), pin.Link.CanonicalURL, contentID,
	)
	if err != nil {
		return fmt.Errorf("insert platform link: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const pinColumns = `p.id, p.latitude, p.longitude, p.created_at, p.is_active, p.report_count,
		l.platform, l.canonical_url, l.content_id`

// PinsInBounds returns all active pins whose coordinates fall within the
// inclusive rectangle [swLat,neLat]×[swLng,neLng].
func (s *Store) PinsInBounds(ctx context.Context, swLat, swLng, neLat, neLng float64) ([]models.Pin, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+pinColumns+`
		 FROM pins p
		 JOIN platform_links l ON l.pin_id = p.id
		 WHERE p.is_active
		   AND p.latitude BETWEEN ? AND ?
		   AND p.longitude BETWEEN ? AND ?
		 ORDER BY p.created_at DESC`,
		swLat, neLat, swLng, neLng,
	)
	if err != nil {
		return nil, fmt.Errorf("query pins in bounds: %w", err)
	}
	defer rows.Close()

	pins := []models.Pin{}
	for rows.Next() {
		pin, err := scanPin(rows)
		if err != nil {
			return nil, err
		}
		pins = append(pins, pin)
	}
	return pins, rows.Err()
}

// RandomPin returns a uniformly random active pin, or ErrNotFound when none
// exist.
func (s *Store) RandomPin(ctx context.Context) (*models.Pin, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+pinColumns+`
		 FROM pins p
		 JOIN platform_links l ON l.pin_id = p.id
		 WHERE p.is_active
		 ORDER BY random()
		 LIMIT 1`,
	)
	pin, err := scanPin(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pin, nil
}

// DeactivatePin soft-deletes a pin. Returns ErrNotFound if the pin does not
// exist or is already inactive.
func (s *Store) DeactivatePin(ctx context.Context, id uuid.UUID) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE pins SET is_active = false WHERE id = ? AND is_active`, id.String())
	if err != nil {
		return fmt.Errorf("deactivate pin: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate pin rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReportPin increments a pin's report counter and returns the new count.
// When deactivateAt > 0 and the count reaches it, the pin is deactivated in
// the same transaction.
func (s *Store) ReportPin(ctx context.Context, id uuid.UUID, deactivateAt int) (int, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	err = tx.QueryRowContext(ctx,
		`UPDATE pins SET report_count = report_count + 1
		 WHERE id = ? AND is_active
		 RETURNING report_count`, id.String(),
	).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("report pin: %w", err)
	}

	if deactivateAt > 0 && count >= deactivateAt {
		if _, err := tx.ExecContext(ctx,
			`UPDATE pins SET is_active = false WHERE id = ?`, id.String()); err != nil {
			return 0, fmt.Errorf("deactivate reported pin: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return count, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPin(sc scanner) (models.Pin, error) {
	var (
		pin       models.Pin
		idStr     string
		platform  string
		contentID sql.NullString
		createdAt time.Time
	)
	err := sc.Scan(&idStr, &pin.Latitude, &pin.Longitude, &createdAt,
		&pin.IsActive, &pin.ReportCount, &platform, &pin.Link.CanonicalURL, &contentID)
	if err != nil {
		return models.Pin{}, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return models.Pin{}, fmt.Errorf("parse pin id: %w", err)
	}
	pin.ID = id
	pin.CreatedAt = createdAt
	pin.Link.Platform = models.Platform(platform)
	if !pin.Link.Platform.Valid() {
		return models.Pin{}, fmt.Errorf("pin %s has unknown platform %q", idStr, platform)
	}
	pin.Link.ContentID = contentID.String
	return pin, nil
}
