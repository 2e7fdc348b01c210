package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/anidex/anidex/src/internal/domain"
	"github.com/anidex/anidex/src/internal/ports"
)

const (
	topGenreCount    = 3
	genreFetchLimit  = 25
	backfillLimit    = 25
	similarGenres    = 2
	similarFetchSize = 15
)

// UserLibrary is the slice of the store that describes what a user already
// knows about.
type UserLibrary interface {
	ports.FavoriteRepository
	ports.WatchlistRepository
}

// knownSet returns favorites first, then watch records, each in store order,
// without duplicates.
func knownSet(ctx context.Context, lib UserLibrary, userID int64) ([]int, []domain.Favorite, []domain.WatchRecord, error) {
	favs, err := lib.ListFavorites(ctx, userID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list favorites: %w", err)
	}
	recs, err := lib.ListWatchRecords(ctx, userID, "")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list watch records: %w", err)
	}

	ids := make([]int, 0, len(favs)+len(recs))
	seen := make(map[int]bool, cap(ids))
	add := func(id int) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, f := range favs {
		add(f.AnimeID)
	}
	for _, r := range recs {
		add(r.AnimeID)
	}
	return ids, favs, recs, nil
}

type Recommender struct {
	library UserLibrary
	catalog *CatalogService
}

func NewRecommender(library UserLibrary, catalog *CatalogService) *Recommender {
	return &Recommender{library: library, catalog: catalog}
}

type genreCount struct {
	genre domain.NamedRef
	count int
}

// topGenres tallies genres over ids and returns the n most frequent. Ties
// keep the order in which genres were first seen.
func (r *Recommender) topGenres(ctx context.Context, ids []int, n int) []domain.NamedRef {
	var order []genreCount
	index := map[int]int{}
	for _, id := range ids {
		a := r.catalog.Anime(ctx, id)
		if a == nil {
			continue
		}
		for _, g := range a.Genres {
			if i, ok := index[g.ID]; ok {
				order[i].count++
				continue
			}
			index[g.ID] = len(order)
			order = append(order, genreCount{genre: g, count: 1})
		}
	}

	slices.SortStableFunc(order, func(a, b genreCount) int { return b.count - a.count })
	out := make([]domain.NamedRef, 0, n)
	for i := 0; i < len(order) && i < n; i++ {
		out = append(out, order[i].genre)
	}
	return out
}

// Personal builds up to limit suggestions from the genres the user favors,
// topped up from the global ranking. Users with nothing tracked get the top
// list as is.
func (r *Recommender) Personal(ctx context.Context, userID int64, limit int) ([]domain.Anime, error) {
	known, _, _, err := knownSet(ctx, r.library, userID)
	if err != nil {
		return nil, err
	}
	if len(known) == 0 {
		top := r.catalog.Top(ctx, "all", 1, limit)
		if top == nil {
			return nil, nil
		}
		return top.Items[:min(limit, len(top.Items))], nil
	}

	exclude := make(map[int]bool, len(known))
	for _, id := range known {
		exclude[id] = true
	}

	out := make([]domain.Anime, 0, limit)
	take := func(items []domain.Anime) {
		for _, a := range items {
			if len(out) == limit {
				return
			}
			if exclude[a.ID] {
				continue
			}
			exclude[a.ID] = true
			out = append(out, a)
		}
	}

	for _, g := range r.topGenres(ctx, known, topGenreCount) {
		if len(out) == limit {
			break
		}
		take(r.catalog.AnimeByGenre(ctx, g.ID, genreFetchLimit))
	}
	if len(out) < limit {
		if top := r.catalog.Top(ctx, "all", 1, backfillLimit); top != nil {
			take(top.Items)
		}
	}
	return out, nil
}

// Similar returns titles sharing the first genres of a, excluding a itself.
func (r *Recommender) Similar(ctx context.Context, a *domain.Anime, limit int) []domain.Anime {
	seen := map[int]bool{a.ID: true}
	out := make([]domain.Anime, 0, limit)
	for i, g := range a.Genres {
		if i == similarGenres || len(out) == limit {
			break
		}
		for _, s := range r.catalog.AnimeByGenre(ctx, g.ID, similarFetchSize) {
			if len(out) == limit {
				break
			}
			if !seen[s.ID] {
				seen[s.ID] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// FavoriteGenres is the user's n most frequent genres over the known set.
func (r *Recommender) FavoriteGenres(ctx context.Context, userID int64, n int) ([]domain.NamedRef, error) {
	known, _, _, err := knownSet(ctx, r.library, userID)
	if err != nil {
		return nil, err
	}
	return r.topGenres(ctx, known, n), nil
}
