package sqlstore

import (
	"context"

	"github.com/anidex/anidex/src/internal/domain"
)

// AddFavorite is insert-or-replace: adding twice refreshes the timestamp.
func (s *Store) AddFavorite(ctx context.Context, userID int64, animeID int) error {
	query := `
		INSERT INTO favorites (user_id, anime_id, added_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, anime_id) DO UPDATE SET
			added_at = excluded.added_at
	`
	_, err := s.exec(ctx, query, userID, animeID, s.timestamp())
	return err
}

func (s *Store) RemoveFavorite(ctx context.Context, userID int64, animeID int) (bool, error) {
	res, err := s.exec(ctx, `DELETE FROM favorites WHERE user_id = ? AND anime_id = ?`, userID, animeID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *Store) IsFavorite(ctx context.Context, userID int64, animeID int) (bool, error) {
	var n int
	err := s.queryRow(ctx, `SELECT COUNT(*) FROM favorites WHERE user_id = ? AND anime_id = ?`, userID, animeID).Scan(&n)
	return n > 0, err
}

func (s *Store) ListFavorites(ctx context.Context, userID int64) ([]domain.Favorite, error) {
	query := `
		SELECT user_id, anime_id, added_at
		FROM favorites
		WHERE user_id = ?
		ORDER BY added_at DESC, anime_id
	`
	rows, err := s.query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var favs []domain.Favorite
	for rows.Next() {
		var f domain.Favorite
		if err := rows.Scan(&f.UserID, &f.AnimeID, &f.AddedAt); err != nil {
			return nil, err
		}
		favs = append(favs, f)
	}
	return favs, rows.Err()
}
