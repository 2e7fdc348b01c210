package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/anidex/anidex/src/internal/domain"
)

// CreateList returns the existing list when the user already owns one with
// the same name.
func (s *Store) CreateList(ctx context.Context, userID int64, name string) (*domain.CustomList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("list name is empty")
	}
	query := `
		INSERT INTO custom_lists (user_id, name, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, name) DO UPDATE SET name = excluded.name
		RETURNING id, user_id, name, created_at
	`
	var l domain.CustomList
	err := s.queryRow(ctx, query, userID, name, s.timestamp()).Scan(&l.ID, &l.UserID, &l.Name, &l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create list: %w", err)
	}
	return &l, nil
}

func (s *Store) GetList(ctx context.Context, userID int64, listID int64) (*domain.CustomList, error) {
	query := `
		SELECT id, user_id, name, created_at
		FROM custom_lists
		WHERE id = ? AND user_id = ?
	`
	var l domain.CustomList
	err := s.queryRow(ctx, query, listID, userID).Scan(&l.ID, &l.UserID, &l.Name, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Store) ListLists(ctx context.Context, userID int64) ([]domain.CustomList, error) {
	query := `
		SELECT id, user_id, name, created_at
		FROM custom_lists
		WHERE user_id = ?
		ORDER BY id
	`
	rows, err := s.query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lists []domain.CustomList
	for rows.Next() {
		var l domain.CustomList
		if err := rows.Scan(&l.ID, &l.UserID, &l.Name, &l.CreatedAt); err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

func (s *Store) DeleteList(ctx context.Context, userID int64, listID int64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM custom_lists WHERE id = ? AND user_id = ?`), listID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil || n == 0 {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM custom_list_items WHERE list_id = ?`), listID); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

func (s *Store) AddListItem(ctx context.Context, listID int64, animeID int) error {
	query := `
		INSERT INTO custom_list_items (list_id, anime_id, added_at)
		VALUES (?, ?, ?)
		ON CONFLICT (list_id, anime_id) DO NOTHING
	`
	_, err := s.exec(ctx, query, listID, animeID, s.timestamp())
	return err
}

func (s *Store) RemoveListItem(ctx context.Context, listID int64, animeID int) (bool, error) {
	res, err := s.exec(ctx, `DELETE FROM custom_list_items WHERE list_id = ? AND anime_id = ?`, listID, animeID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *Store) ListItems(ctx context.Context, listID int64) ([]domain.ListItem, error) {
	query := `
		SELECT list_id, anime_id, added_at
		FROM custom_list_items
		WHERE list_id = ?
		ORDER BY added_at, anime_id
	`
	rows, err := s.query(ctx, query, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.ListItem
	for rows.Next() {
		var it domain.ListItem
		if err := rows.Scan(&it.ListID, &it.AnimeID, &it.AddedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
