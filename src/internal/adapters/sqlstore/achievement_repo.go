package sqlstore

import (
	"context"

	"github.com/anidex/anidex/src/internal/domain"
)

// GrantAchievement relies on the (user_id, kind) key: the first insert wins
// and later ones affect no rows.
func (s *Store) GrantAchievement(ctx context.Context, userID int64, kind domain.AchievementKind) (bool, error) {
	query := `
		INSERT INTO achievements (user_id, kind, granted_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, kind) DO NOTHING
	`
	res, err := s.exec(ctx, query, userID, string(kind), s.timestamp())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (s *Store) RevokeAchievement(ctx context.Context, userID int64, kind domain.AchievementKind) (bool, error) {
	res, err := s.exec(ctx, `DELETE FROM achievements WHERE user_id = ? AND kind = ?`, userID, string(kind))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *Store) ListAchievements(ctx context.Context, userID int64) ([]domain.Achievement, error) {
	query := `
		SELECT user_id, kind, granted_at
		FROM achievements
		WHERE user_id = ?
		ORDER BY granted_at, kind
	`
	rows, err := s.query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Achievement
	for rows.Next() {
		var a domain.Achievement
		var kind string
		if err := rows.Scan(&a.UserID, &kind, &a.GrantedAt); err != nil {
			return nil, err
		}
		a.Kind = domain.AchievementKind(kind)
		out = append(out, a)
	}
	return out, rows.Err()
}
