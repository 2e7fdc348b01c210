package kv

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/anidex/anidex/src/internal/domain"
)

// SessionStore keeps the result lists users page through. Entries expire
// after ttl; an expired entry reads as absent.
type SessionStore struct {
	db  *badger.DB
	ttl time.Duration
}

func (s *Store) Sessions(ttl time.Duration) *SessionStore {
	return &SessionStore{db: s.db, ttl: ttl}
}

func sessionKey(userID int64, key string) []byte {
	return []byte(sessionKeyPrefix + strconv.FormatInt(userID, 10) + ":" + key)
}

func (s *SessionStore) PutResults(ctx context.Context, userID int64, key string, list *domain.ResultList) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshal result list: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(sessionKey(userID, key), data).WithTTL(s.ttl)
		if err := txn.SetEntry(e); err != nil {
			return fmt.Errorf("set session: %w", err)
		}
		return nil
	})
}

func (s *SessionStore) GetResults(ctx context.Context, userID int64, key string) (*domain.ResultList, error) {
	var list *domain.ResultList

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(userID, key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		return item.Value(func(val []byte) error {
			list = &domain.ResultList{}
			return json.Unmarshal(val, list)
		})
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}
