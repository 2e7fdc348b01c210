package services

import (
	"context"
	"errors"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/anidex/anidex/src/internal/domain"
	"github.com/anidex/anidex/src/internal/logging"
	"github.com/anidex/anidex/src/internal/metrics"
	"github.com/anidex/anidex/src/internal/ports"
)

// CatalogService is the only way the rest of the application reads the
// external catalog. Lookups by id go through the cache first; every anime a
// call returns is written back to it. Failures are logged and counted here
// and surface to callers as empty results.
type CatalogService struct {
	provider ports.CatalogProvider
	cache    *CatalogCache
	flight   singleflight.Group
	log      zerolog.Logger
}

func NewCatalogService(provider ports.CatalogProvider, cache *CatalogCache) *CatalogService {
	return &CatalogService{
		provider: provider,
		cache:    cache,
		log:      logging.WithComponent("catalog"),
	}
}

// record counts the outcome of one provider call and reports whether the
// result can be used.
func (s *CatalogService) record(endpoint string, err error, n int) bool {
	outcome := "ok"
	switch {
	case errors.Is(err, domain.ErrNotFound):
		outcome = "empty"
	case err != nil:
		outcome = "unavailable"
		s.log.Warn().Err(err).Str("endpoint", endpoint).Msg("catalog call failed")
	case n == 0:
		outcome = "empty"
	}
	metrics.CatalogRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	return outcome == "ok"
}

func (s *CatalogService) storeAll(ctx context.Context, items []domain.Anime) {
	for i := range items {
		s.cache.PutAnime(ctx, &items[i])
	}
}

func (s *CatalogService) animeList(ctx context.Context, endpoint string, items []domain.Anime, err error) []domain.Anime {
	if !s.record(endpoint, err, len(items)) {
		return nil
	}
	s.storeAll(ctx, items)
	return items
}

func (s *CatalogService) SearchAnime(ctx context.Context, query string, limit int) []domain.Anime {
	items, err := s.provider.SearchAnime(ctx, query, limit)
	return s.animeList(ctx, "search", items, err)
}

// Anime returns the cached snapshot when there is one. Concurrent misses for
// the same id share a single network call.
func (s *CatalogService) Anime(ctx context.Context, id int) *domain.Anime {
	if a := s.cache.Anime(ctx, id); a != nil {
		return a
	}

	v := s.shared(ctx, "anime:"+strconv.Itoa(id), func(ctx context.Context) any {
		a, err := s.provider.GetAnime(ctx, id)
		n := 0
		if a != nil {
			n = 1
		}
		if !s.record("anime", err, n) {
			return nil
		}
		s.cache.PutAnime(ctx, a)
		return a
	})
	a, _ := v.(*domain.Anime)
	return a
}

func (s *CatalogService) Season(ctx context.Context, year int, season domain.Season, limit int) []domain.Anime {
	items, err := s.provider.SeasonAnime(ctx, year, season, limit)
	return s.animeList(ctx, "season", items, err)
}

// Top returns nil when the ranking could not be fetched.
func (s *CatalogService) Top(ctx context.Context, filter string, page, limit int) *domain.TopPage {
	p, err := s.provider.TopAnime(ctx, filter, page, limit)
	n := 0
	if p != nil {
		n = len(p.Items)
	}
	if !s.record("top", err, n) {
		return nil
	}
	s.storeAll(ctx, p.Items)
	return p
}

func (s *CatalogService) Random(ctx context.Context) *domain.Anime {
	a, err := s.provider.RandomAnime(ctx)
	n := 0
	if a != nil {
		n = 1
	}
	if !s.record("random", err, n) {
		return nil
	}
	s.cache.PutAnime(ctx, a)
	return a
}

func (s *CatalogService) Schedule(ctx context.Context, day string) []domain.Anime {
	items, err := s.provider.Schedule(ctx, day)
	return s.animeList(ctx, "schedule", items, err)
}

func (s *CatalogService) AnimeByGenre(ctx context.Context, genreID, limit int) []domain.Anime {
	items, err := s.provider.AnimeByGenre(ctx, genreID, limit)
	return s.animeList(ctx, "genre", items, err)
}

func (s *CatalogService) Characters(ctx context.Context, animeID int) []domain.CharacterRole {
	roles, err := s.provider.AnimeCharacters(ctx, animeID)
	if !s.record("characters", err, len(roles)) {
		return nil
	}
	return roles
}

func (s *CatalogService) Character(ctx context.Context, id int) *domain.Character {
	if c := s.cache.Character(ctx, id); c != nil {
		return c
	}

	v := s.shared(ctx, "character:"+strconv.Itoa(id), func(ctx context.Context) any {
		c, err := s.provider.GetCharacter(ctx, id)
		n := 0
		if c != nil {
			n = 1
		}
		if !s.record("character", err, n) {
			return nil
		}
		s.cache.PutCharacter(ctx, c)
		return c
	})
	c, _ := v.(*domain.Character)
	return c
}

// shared runs fetch once for all concurrent callers of key. The fetch is
// detached from any single caller's cancellation and relies on the provider's
// own timeout; each caller stops waiting when its own ctx ends.
func (s *CatalogService) shared(ctx context.Context, key string, fetch func(context.Context) any) any {
	detached := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(key, func() (any, error) {
		return fetch(detached), nil
	})
	select {
	case res := <-ch:
		return res.Val
	case <-ctx.Done():
		return nil
	}
}

// SearchCharacters results lack appearances and voice actors, so they are
// not written to the cache; opening one fetches the full record.
func (s *CatalogService) SearchCharacters(ctx context.Context, query string, limit int) []domain.Character {
	items, err := s.provider.SearchCharacters(ctx, query, limit)
	if !s.record("character_search", err, len(items)) {
		return nil
	}
	return items
}
