package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/anidex/anidex/src/internal/domain"
	"github.com/anidex/anidex/src/internal/logging"
	"github.com/anidex/anidex/src/internal/metrics"
	"github.com/anidex/anidex/src/internal/ports"
)

// AchievementSnapshot is everything the rules look at, gathered once per
// check. Genres and Seasons are distinct counts over the known set.
type AchievementSnapshot struct {
	Favorites    int
	WatchRecords int
	Completed    int
	Genres       int
	Seasons      int
}

type achievementRule struct {
	kind domain.AchievementKind
	met  func(AchievementSnapshot) bool
}

var achievementRules = []achievementRule{
	{domain.AchievementExplorer, func(s AchievementSnapshot) bool { return s.Favorites+s.WatchRecords >= 50 }},
	{domain.AchievementGenreMaster, func(s AchievementSnapshot) bool { return s.Genres >= 10 }},
	{domain.AchievementSeasonWatcher, func(s AchievementSnapshot) bool { return s.Seasons >= 4 }},
	{domain.AchievementAnimeLover, func(s AchievementSnapshot) bool { return s.Favorites >= 20 }},
	{domain.AchievementCompletionist, func(s AchievementSnapshot) bool { return s.Completed >= 10 }},
}

type AchievementStore interface {
	UserLibrary
	ports.AchievementRepository
}

type AchievementService struct {
	store   AchievementStore
	catalog *CatalogService
	log     zerolog.Logger
}

func NewAchievementService(store AchievementStore, catalog *CatalogService) *AchievementService {
	return &AchievementService{store: store, catalog: catalog, log: logging.WithComponent("achievements")}
}

// Check grants every rule the user newly satisfies and returns those kinds in
// registry order. Running it again without a state change returns nothing.
func (s *AchievementService) Check(ctx context.Context, userID int64) ([]domain.AchievementKind, error) {
	granted, err := s.store.ListAchievements(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	have := make(map[domain.AchievementKind]bool, len(granted))
	for _, a := range granted {
		have[a.Kind] = true
	}

	snap, err := s.snapshot(ctx, userID, !have[domain.AchievementGenreMaster] || !have[domain.AchievementSeasonWatcher])
	if err != nil {
		return nil, err
	}

	var fresh []domain.AchievementKind
	for _, rule := range achievementRules {
		if have[rule.kind] || !rule.met(snap) {
			continue
		}
		ok, err := s.store.GrantAchievement(ctx, userID, rule.kind)
		if err != nil {
			return fresh, fmt.Errorf("grant %s: %w", rule.kind, err)
		}
		if ok {
			metrics.AchievementsGranted.WithLabelValues(string(rule.kind)).Inc()
			s.log.Info().Int64("user_id", userID).Str("kind", string(rule.kind)).Msg("achievement granted")
			fresh = append(fresh, rule.kind)
		}
	}
	return fresh, nil
}

// snapshot resolves the known set through the catalog only when resolve is
// set, since that is the expensive part.
func (s *AchievementService) snapshot(ctx context.Context, userID int64, resolve bool) (AchievementSnapshot, error) {
	known, favs, recs, err := knownSet(ctx, s.store, userID)
	if err != nil {
		return AchievementSnapshot{}, err
	}

	snap := AchievementSnapshot{Favorites: len(favs), WatchRecords: len(recs)}
	for _, r := range recs {
		if r.Status == domain.WatchStatusCompleted {
			snap.Completed++
		}
	}
	if !resolve {
		return snap, nil
	}

	genres := map[int]bool{}
	seasons := map[string]bool{}
	for _, id := range known {
		a := s.catalog.Anime(ctx, id)
		if a == nil {
			continue
		}
		for _, g := range a.Genres {
			genres[g.ID] = true
		}
		if k := a.SeasonKey(); k != "" {
			seasons[k] = true
		}
	}
	snap.Genres = len(genres)
	snap.Seasons = len(seasons)
	return snap, nil
}
