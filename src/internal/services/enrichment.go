package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/anidex/anidex/src/internal/domain"
	"github.com/anidex/anidex/src/internal/logging"
	"github.com/anidex/anidex/src/internal/metrics"
	"github.com/anidex/anidex/src/internal/ports"
)

// EnrichmentError is returned when the enrichment source could not be asked.
// A name the source does not know is not an error.
type EnrichmentError struct {
	Name string
	Err  error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("enrichment lookup %q: %v", e.Name, e.Err)
}

func (e *EnrichmentError) Unwrap() error { return e.Err }

// EnrichmentService adds the optional scraped block to a character card.
// Found entries and definite misses are cached; transport failures are not,
// so the next view tries again.
type EnrichmentService struct {
	enricher ports.Enricher
	cache    ports.EnrichmentCache
	log      zerolog.Logger
}

// NewEnrichmentService returns nil when enricher is nil, and a nil service
// answers every lookup with nothing.
func NewEnrichmentService(enricher ports.Enricher, cache ports.EnrichmentCache) *EnrichmentService {
	if enricher == nil {
		return nil
	}
	return &EnrichmentService{enricher: enricher, cache: cache, log: logging.WithComponent("enrichment")}
}

func (s *EnrichmentService) Lookup(ctx context.Context, name string) (*domain.Enrichment, error) {
	if s == nil || name == "" {
		return nil, nil
	}

	if s.cache != nil {
		entry, ok, err := s.cache.Get(name)
		if err != nil {
			s.log.Warn().Err(err).Str("name", name).Msg("enrichment cache read failed")
		} else if ok {
			metrics.EnrichmentLookups.WithLabelValues("cached").Inc()
			return entry, nil
		}
	}

	entry, err := s.enricher.Lookup(ctx, name)
	switch {
	case errors.Is(err, domain.ErrNoEnrichment):
		metrics.EnrichmentLookups.WithLabelValues("no_match").Inc()
		entry = nil
	case err != nil:
		metrics.EnrichmentLookups.WithLabelValues("error").Inc()
		return nil, &EnrichmentError{Name: name, Err: err}
	default:
		metrics.EnrichmentLookups.WithLabelValues("found").Inc()
	}

	if s.cache != nil {
		if err := s.cache.Put(name, entry); err != nil {
			s.log.Warn().Err(err).Str("name", name).Msg("enrichment cache write failed")
		}
	}
	return entry, nil
}
