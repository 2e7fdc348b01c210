package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anidex/anidex/src/internal/domain"
)

func ids(items []domain.Anime) []int {
	out := make([]int, len(items))
	for i, a := range items {
		out[i] = a.ID
	}
	return out
}

func TestPersonalWithoutHistoryReturnsTop(t *testing.T) {
	env := newTestEnv(t)
	env.provider.top = []domain.Anime{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}, {ID: 5}, {ID: 6}}

	recs, err := NewRecommender(env.store, env.catalog).Personal(context.Background(), 7, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(recs))
	assert.Zero(t, env.provider.callCount("genre"))
}

func TestPersonalGenreTieBreakIsFirstSeen(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.provider.addAnime(domain.Anime{ID: 100, Title: "Seed", Genres: genres(40, 10, 30, 20)})
	require.NoError(t, env.store.AddFavorite(ctx, 7, 100))

	_, err := NewRecommender(env.store, env.catalog).Personal(ctx, 7, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{40, 10, 30}, env.provider.genreCalls)
}

func TestFavoriteGenresRankByCount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.provider.addAnime(
		domain.Anime{ID: 100, Genres: genres(1, 2)},
		domain.Anime{ID: 101, Genres: genres(2, 3)},
		domain.Anime{ID: 102, Genres: genres(3, 4)},
		domain.Anime{ID: 103, Genres: genres(3)},
	)
	require.NoError(t, env.store.AddFavorite(ctx, 7, 100))
	for _, id := range []int{101, 102, 103} {
		_, err := env.store.UpsertWatchRecord(ctx, 7, id, domain.WatchUpdate{})
		require.NoError(t, err)
	}

	top, err := NewRecommender(env.store, env.catalog).FavoriteGenres(ctx, 7, 3)
	require.NoError(t, err)
	got := make([]int, len(top))
	for i, g := range top {
		got[i] = g.ID
	}
	assert.Equal(t, []int{3, 2, 1}, got)
}

func TestPersonalExcludesKnownAndBackfills(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.provider.addAnime(domain.Anime{ID: 1, Genres: genres(10)})
	env.provider.byGenre[10] = []domain.Anime{{ID: 1}, {ID: 2}, {ID: 3}}
	env.provider.top = []domain.Anime{{ID: 2}, {ID: 1}, {ID: 4}, {ID: 5}, {ID: 6}, {ID: 7}}
	require.NoError(t, env.store.AddFavorite(ctx, 7, 1))

	recs, err := NewRecommender(env.store, env.catalog).Personal(ctx, 7, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4, 5, 6}, ids(recs))
}

func TestPersonalIsDeterministic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.provider.addAnime(domain.Anime{ID: 1, Genres: genres(10, 11)})
	env.provider.byGenre[10] = []domain.Anime{{ID: 2}, {ID: 3}}
	env.provider.byGenre[11] = []domain.Anime{{ID: 3}, {ID: 4}}
	env.provider.top = []domain.Anime{{ID: 9}, {ID: 8}}
	require.NoError(t, env.store.AddFavorite(ctx, 7, 1))

	r := NewRecommender(env.store, env.catalog)
	first, err := r.Personal(ctx, 7, 5)
	require.NoError(t, err)
	second, err := r.Personal(ctx, 7, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4, 9, 8}, ids(first))
	assert.Equal(t, ids(first), ids(second))
}

func TestSimilarSkipsSource(t *testing.T) {
	env := newTestEnv(t)
	env.provider.byGenre[10] = []domain.Anime{{ID: 1}, {ID: 2}}
	env.provider.byGenre[11] = []domain.Anime{{ID: 2}, {ID: 3}}
	env.provider.byGenre[12] = []domain.Anime{{ID: 4}}

	src := &domain.Anime{ID: 1, Genres: genres(10, 11, 12)}
	out := NewRecommender(env.store, env.catalog).Similar(context.Background(), src, 5)
	assert.Equal(t, []int{2, 3}, ids(out), "only the first two genres are used")
}
