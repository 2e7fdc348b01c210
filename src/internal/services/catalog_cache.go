package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/anidex/anidex/src/internal/domain"
	"github.com/anidex/anidex/src/internal/logging"
	"github.com/anidex/anidex/src/internal/metrics"
	"github.com/anidex/anidex/src/internal/ports"
)

// CatalogCache is the read-through layer over the store's cache tables. It
// never reaches the network, and a failing store reads as a miss.
type CatalogCache struct {
	repo ports.CatalogCacheRepository
	log  zerolog.Logger
}

func NewCatalogCache(repo ports.CatalogCacheRepository) *CatalogCache {
	return &CatalogCache{repo: repo, log: logging.WithComponent("catalog-cache")}
}

func (c *CatalogCache) Anime(ctx context.Context, id int) *domain.Anime {
	a, err := c.repo.GetAnime(ctx, id)
	if err != nil {
		c.log.Warn().Err(err).Int("anime_id", id).Msg("cache read failed")
		a = nil
	}
	c.count("anime", a != nil)
	return a
}

func (c *CatalogCache) PutAnime(ctx context.Context, a *domain.Anime) {
	if err := c.repo.PutAnime(ctx, a); err != nil {
		c.log.Warn().Err(err).Int("anime_id", a.ID).Msg("cache write failed")
	}
}

func (c *CatalogCache) Character(ctx context.Context, id int) *domain.Character {
	ch, err := c.repo.GetCharacter(ctx, id)
	if err != nil {
		c.log.Warn().Err(err).Int("character_id", id).Msg("cache read failed")
		ch = nil
	}
	c.count("character", ch != nil)
	return ch
}

func (c *CatalogCache) PutCharacter(ctx context.Context, ch *domain.Character) {
	if err := c.repo.PutCharacter(ctx, ch); err != nil {
		c.log.Warn().Err(err).Int("character_id", ch.ID).Msg("cache write failed")
	}
}

func (c *CatalogCache) count(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	metrics.CatalogCacheLookups.WithLabelValues(kind, result).Inc()
}
