package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/anidex/anidex/src/internal/domain"
)

// UpsertWatchRecord writes only the fields set in update. The whole write is a
// single statement so racing updates on the same row settle last-write-wins
// per field without ever leaving a half-written record.
func (s *Store) UpsertWatchRecord(ctx context.Context, userID int64, animeID int, update domain.WatchUpdate) (*domain.WatchRecord, error) {
	status := domain.WatchStatusPlanned
	if update.Status != nil {
		if !update.Status.Valid() {
			return nil, fmt.Errorf("invalid watch status %q", *update.Status)
		}
		status = *update.Status
	}
	progress := 0
	if update.Progress != nil {
		if *update.Progress < 0 {
			return nil, fmt.Errorf("negative progress %d", *update.Progress)
		}
		progress = *update.Progress
	}
	var score sql.NullInt64
	if update.Score != nil {
		if *update.Score < 0 || *update.Score > 10 {
			return nil, fmt.Errorf("score %d out of range", *update.Score)
		}
		score = sql.NullInt64{Int64: int64(*update.Score), Valid: true}
	}

	query := `
		INSERT INTO watch_records (user_id, anime_id, status, score, progress, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, anime_id) DO UPDATE SET
			status = CASE WHEN CAST(? AS BOOLEAN) THEN excluded.status ELSE watch_records.status END,
			score = COALESCE(excluded.score, watch_records.score),
			progress = CASE WHEN CAST(? AS BOOLEAN) THEN excluded.progress ELSE watch_records.progress END,
			updated_at = excluded.updated_at
		RETURNING user_id, anime_id, status, score, progress, updated_at
	`
	row := s.queryRow(ctx, query,
		userID, animeID, string(status), score, progress, s.timestamp(),
		update.Status != nil, update.Progress != nil,
	)
	return scanWatchRecord(row)
}

func (s *Store) GetWatchRecord(ctx context.Context, userID int64, animeID int) (*domain.WatchRecord, error) {
	query := `
		SELECT user_id, anime_id, status, score, progress, updated_at
		FROM watch_records
		WHERE user_id = ? AND anime_id = ?
	`
	rec, err := scanWatchRecord(s.queryRow(ctx, query, userID, animeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

func (s *Store) ListWatchRecords(ctx context.Context, userID int64, status domain.WatchStatus) ([]domain.WatchRecord, error) {
	query := `
		SELECT user_id, anime_id, status, score, progress, updated_at
		FROM watch_records
		WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY updated_at DESC, anime_id`

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.WatchRecord
	for rows.Next() {
		rec, err := scanWatchRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWatchRecord(row scanner) (*domain.WatchRecord, error) {
	var (
		rec    domain.WatchRecord
		status string
		score  sql.NullInt64
	)
	if err := row.Scan(&rec.UserID, &rec.AnimeID, &status, &score, &rec.Progress, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.Status = domain.WatchStatus(status)
	if score.Valid {
		v := int(score.Int64)
		rec.Score = &v
	}
	return &rec, nil
}
