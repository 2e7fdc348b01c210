// Package kv keeps short-lived process state in badger: paging sessions and
// the enrichment lookup cache. Both share one database under key prefixes.
package kv

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/anidex/anidex/src/internal/logging"
)

const (
	sessionKeyPrefix    = "session:"
	enrichmentKeyPrefix = "enrich:"
)

type Store struct {
	db       *badger.DB
	inMemory bool
}

// Open opens the badger database in dir, or an in-memory one when dir is
// empty.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(badgerLogger{log: logging.WithComponent("badger")})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", dir, err)
	}
	return &Store{db: db, inMemory: dir == ""}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CollectGarbage rewrites value log files until badger reports nothing left
// to reclaim and returns how many files were rewritten.
func (s *Store) CollectGarbage() (int, error) {
	if s.inMemory {
		return 0, nil
	}
	n := 0
	for {
		err := s.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}

// badgerLogger routes badger's printf logging into zerolog. Info is demoted
// to debug; badger is chatty at startup.
type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(f string, v ...interface{})   { l.log.Error().Msgf(f, v...) }
func (l badgerLogger) Warningf(f string, v ...interface{}) { l.log.Warn().Msgf(f, v...) }
func (l badgerLogger) Infof(f string, v ...interface{})    { l.log.Debug().Msgf(f, v...) }
func (l badgerLogger) Debugf(f string, v ...interface{})   { l.log.Trace().Msgf(f, v...) }
