// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package postgres stores recordings in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/markus-ro/NeuroPack/eeg"
)

// ErrNotFound is returned for recording ids that are not stored.
var ErrNotFound = errors.New("recording not found")

const schema = `
	CREATE TABLE IF NOT EXISTS recordings (
		id          TEXT PRIMARY KEY,
		channels    TEXT[] NOT NULL,
		sample_rate INTEGER NOT NULL,
		events      DOUBLE PRECISION[] NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS samples (
		recording_id TEXT NOT NULL REFERENCES recordings(id) ON DELETE CASCADE,
		idx          INTEGER NOT NULL,
		ts           DOUBLE PRECISION NOT NULL,
		vals         DOUBLE PRECISION[] NOT NULL,
		PRIMARY KEY (recording_id, idx)
	);
	CREATE TABLE IF NOT EXISTS markers (
		recording_id TEXT NOT NULL REFERENCES recordings(id) ON DELETE CASCADE,
		seq          INTEGER NOT NULL,
		ts           DOUBLE PRECISION NOT NULL,
		code         TEXT NOT NULL,
		PRIMARY KEY (recording_id, seq)
	);
`

// Store saves and loads recordings by id. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open connects to the database at dsn and creates the tables if needed.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores rec under id, replacing any recording already stored there.
func (s *Store) Save(ctx context.Context, id string, rec *eeg.Recording) error {
	snap := rec.Snapshot()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM recordings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to replace %s: %w", id, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO recordings (id, channels, sample_rate, events) VALUES ($1, $2, $3, $4)`,
		id, pq.Array(snap.Channels), snap.SampleRate, pq.Array(snap.Events))
	if err != nil {
		return fmt.Errorf("failed to insert %s: %w", id, err)
	}

	if err := copySamples(ctx, tx, id, snap); err != nil {
		return fmt.Errorf("failed to copy samples of %s: %w", id, err)
	}
	if err := copyMarkers(ctx, tx, id, snap.Markers); err != nil {
		return fmt.Errorf("failed to copy markers of %s: %w", id, err)
	}

	return tx.Commit()
}

func copySamples(ctx context.Context, tx *sql.Tx, id string, snap eeg.Snapshot) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("samples", "recording_id", "idx", "ts", "vals"))
	if err != nil {
		return err
	}

	vals := make([]float64, len(snap.Signals))
	for i, ts := range snap.Timestamps {
		for c := range snap.Signals {
			vals[c] = snap.Signals[c][i]
		}
		if _, err := stmt.ExecContext(ctx, id, i, ts, pq.Array(vals)); err != nil {
			stmt.Close()
			return err
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return err
	}
	return stmt.Close()
}

func copyMarkers(ctx context.Context, tx *sql.Tx, id string, markers []eeg.SnapshotMarker) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("markers", "recording_id", "seq", "ts", "code"))
	if err != nil {
		return err
	}

	for i, m := range markers {
		if _, err := stmt.ExecContext(ctx, id, i, m.Timestamp, m.Code); err != nil {
			stmt.Close()
			return err
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return err
	}
	return stmt.Close()
}

// Load returns the recording stored under id.
func (s *Store) Load(ctx context.Context, id string) (*eeg.Recording, error) {
	var snap eeg.Snapshot
	err := s.db.QueryRowContext(ctx,
		`SELECT channels, sample_rate, events FROM recordings WHERE id = $1`, id,
	).Scan(pq.Array(&snap.Channels), &snap.SampleRate, pq.Array(&snap.Events))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", id, err)
	}

	if err := s.loadSamples(ctx, id, &snap); err != nil {
		return nil, fmt.Errorf("failed to load samples of %s: %w", id, err)
	}
	if err := s.loadMarkers(ctx, id, &snap); err != nil {
		return nil, fmt.Errorf("failed to load markers of %s: %w", id, err)
	}

	return eeg.FromSnapshot(snap)
}

func (s *Store) loadSamples(ctx context.Context, id string, snap *eeg.Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, vals FROM samples WHERE recording_id = $1 ORDER BY idx`, id)
	if err != nil {
		return err
	}
	defer rows.Close()

	snap.Timestamps = []float64{}
	snap.Signals = make([][]float64, len(snap.Channels))
	for c := range snap.Signals {
		snap.Signals[c] = []float64{}
	}

	for rows.Next() {
		var (
			ts   float64
			vals []float64
		)
		if err := rows.Scan(&ts, pq.Array(&vals)); err != nil {
			return err
		}
		if len(vals) != len(snap.Channels) {
			return fmt.Errorf("%w: sample %d holds %d values for %d channels",
				eeg.ErrChannelMismatch, len(snap.Timestamps), len(vals), len(snap.Channels))
		}

		snap.Timestamps = append(snap.Timestamps, ts)
		for c, v := range vals {
			snap.Signals[c] = append(snap.Signals[c], v)
		}
	}
	return rows.Err()
}

func (s *Store) loadMarkers(ctx context.Context, id string, snap *eeg.Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, code FROM markers WHERE recording_id = $1 ORDER BY seq`, id)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var m eeg.SnapshotMarker
		if err := rows.Scan(&m.Timestamp, &m.Code); err != nil {
			return err
		}
		snap.Markers = append(snap.Markers, m)
	}
	return rows.Err()
}

// Delete removes the recording stored under id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recordings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// List returns the ids of all stored recordings in ascending order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM recordings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recordings: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
