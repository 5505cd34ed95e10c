package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when no clip with the requested file name exists.
var ErrNotFound = errors.New("clip not found")

// ClipRecord is one produced clip.
type ClipRecord struct {
	ID              int64     `json:"id"`
	FileName        string    `json:"fileName"`
	ClipName        string    `json:"clipName"`
	SourcePath      string    `json:"sourcePath"`
	Start           string    `json:"start"`
	End             string    `json:"end"`
	AudioOnly       bool      `json:"audioOnly"`
	DurationSeconds int       `json:"durationSeconds"`
	CreatedAt       time.Time `json:"createdAt"`
}

// RecordClip inserts rec, replacing any earlier record with the same file
// name (a clip re-created under the same name overwrites the file too).
func (d *Database) RecordClip(ctx context.Context, rec ClipRecord) (err error) {
	start := time.Now()
	defer func() { recordQuery("record_clip", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err = d.db.ExecContext(ctx, `
	INSERT INTO clips (file_name, clip_name, source_path, start_time, end_time, audio_only, duration_seconds, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(file_name) DO UPDATE SET
		clip_name = excluded.clip_name,
		source_path = excluded.source_path,
		start_time = excluded.start_time,
		end_time = excluded.end_time,
		audio_only = excluded.audio_only,
		duration_seconds = excluded.duration_seconds,
		created_at = excluded.created_at
	`,
		rec.FileName, rec.ClipName, rec.SourcePath, rec.Start, rec.End,
		rec.AudioOnly, rec.DurationSeconds, created.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record clip %s: %w", rec.FileName, err)
	}
	return nil
}

// GetClip returns the record for fileName, or ErrNotFound.
func (d *Database) GetClip(ctx context.Context, fileName string) (rec *ClipRecord, err error) {
	start := time.Now()
	defer func() {
		if errors.Is(err, ErrNotFound) {
			recordQuery("get_clip", start, nil)
			return
		}
		recordQuery("get_clip", start, err)
	}()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx, `
	SELECT id, file_name, clip_name, source_path, start_time, end_time, audio_only, duration_seconds, created_at
	FROM clips WHERE file_name = ?
	`, fileName)

	rec, err = scanClip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// ListClips returns every record, newest first.
func (d *Database) ListClips(ctx context.Context) (records []ClipRecord, err error) {
	start := time.Now()
	defer func() { recordQuery("list_clips", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
	SELECT id, file_name, clip_name, source_path, start_time, end_time, audio_only, duration_seconds, created_at
	FROM clips ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records = []ClipRecord{}
	for rows.Next() {
		rec, scanErr := scanClip(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// DeleteClip removes the record for fileName. Deleting a missing record is
// not an error.
func (d *Database) DeleteClip(ctx context.Context, fileName string) (err error) {
	start := time.Now()
	defer func() { recordQuery("delete_clip", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, "DELETE FROM clips WHERE file_name = ?", fileName)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClip(s scanner) (*ClipRecord, error) {
	var rec ClipRecord
	var created int64
	if err := s.Scan(
		&rec.ID, &rec.FileName, &rec.ClipName, &rec.SourcePath,
		&rec.Start, &rec.End, &rec.AudioOnly, &rec.DurationSeconds, &created,
	); err != nil {
		return nil, err
	}
	rec.CreatedAt = time.Unix(created, 0)
	return &rec, nil
}
