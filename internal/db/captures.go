package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a capture lookup matches nothing.
var ErrNotFound = errors.New("capture not found")

// CaptureRecord describes one saved spectrum.
type CaptureRecord struct {
	ID            string
	Name          string
	Path          string
	CapturedAt    time.Time
	IntegrationUs int64
	Frames        int
	Smoother      string
	SmootherParam float64
	Pixels        int
	Dark          bool
	Standard      bool
	DeviceSerial  string
}

func (r CaptureRecord) String() string {
	return fmt.Sprintf("%s %s frames=%d integration=%dus smoother=%s pixels=%d dark=%t standard=%t -> %s",
		r.CapturedAt.Format(time.RFC3339), r.Name, r.Frames, r.IntegrationUs, r.Smoother, r.Pixels, r.Dark, r.Standard, r.Path)
}

// RecordCapture inserts rec with a freshly generated id and returns the id.
func (db *DB) RecordCapture(rec CaptureRecord) (string, error) {
	if rec.Name == "" || rec.Path == "" {
		return "", fmt.Errorf("capture record needs a name and path")
	}
	if rec.Smoother == "" {
		rec.Smoother = "none"
	}
	id := uuid.New().String()
	_, err := db.Exec(
		`INSERT INTO captures (
			capture_id, name, path, captured_at, integration_us, frames,
			smoother, smoother_param, pixels, dark, standard, device_serial
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, rec.Name, rec.Path, rec.CapturedAt.UnixNano(), rec.IntegrationUs, rec.Frames,
		rec.Smoother, rec.SmootherParam, rec.Pixels, rec.Dark, rec.Standard, rec.DeviceSerial,
	)
	if err != nil {
		return "", fmt.Errorf("failed to record capture %s: %w", rec.Name, err)
	}
	return id, nil
}

const captureColumns = `capture_id, name, path, captured_at, integration_us, frames,
	smoother, smoother_param, pixels, dark, standard, device_serial`

type scanner interface {
	Scan(dest ...any) error
}

func scanCapture(s scanner) (CaptureRecord, error) {
	var (
		rec        CaptureRecord
		capturedAt int64
	)
	if err := s.Scan(
		&rec.ID,
		&rec.Name,
		&rec.Path,
		&capturedAt,
		&rec.IntegrationUs,
		&rec.Frames,
		&rec.Smoother,
		&rec.SmootherParam,
		&rec.Pixels,
		&rec.Dark,
		&rec.Standard,
		&rec.DeviceSerial,
	); err != nil {
		return CaptureRecord{}, err
	}
	rec.CapturedAt = time.Unix(0, capturedAt).UTC()
	return rec, nil
}

// Captures returns up to limit records, newest first. limit <= 0 returns all.
func (db *DB) Captures(limit int) ([]CaptureRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(`SELECT `+captureColumns+` FROM captures
		ORDER BY captured_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CaptureRecord
	for rows.Next() {
		rec, err := scanCapture(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CaptureByName returns the most recent capture saved under name.
func (db *DB) CaptureByName(name string) (CaptureRecord, error) {
	row := db.QueryRow(`SELECT `+captureColumns+` FROM captures
		WHERE name = ? ORDER BY captured_at DESC, rowid DESC LIMIT 1`, name)
	rec, err := scanCapture(row)
	if errors.Is(err, sql.ErrNoRows) {
		return CaptureRecord{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return rec, err
}
