package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/anidex/anidex/src/internal/domain"
)

func (s *Store) AddUser(ctx context.Context, user *domain.User) error {
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.timestamp()
	}
	query := `
		INSERT INTO users (id, handle, display_name, locale, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			handle = COALESCE(NULLIF(excluded.handle, ''), users.handle),
			display_name = COALESCE(NULLIF(excluded.display_name, ''), users.display_name),
			locale = COALESCE(NULLIF(excluded.locale, ''), users.locale)
	`
	_, err := s.exec(ctx, query, user.ID, user.Handle, user.DisplayName, user.Locale, createdAt)
	return err
}

func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	query := `
		SELECT id, handle, display_name, locale, created_at
		FROM users
		WHERE id = ?
	`
	var u domain.User
	err := s.queryRow(ctx, query, id).Scan(&u.ID, &u.Handle, &u.DisplayName, &u.Locale, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
