// Package storetest holds the behavioural contract every Entity Store
// adapter must satisfy. Adapter tests call Run with their own constructor.
package storetest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anidex/anidex/src/internal/domain"
	"github.com/anidex/anidex/src/internal/ports"
)

func Run(t *testing.T, newStore func(t *testing.T) ports.EntityStore) {
	t.Run("UserUpsertIsIdempotent", func(t *testing.T) { testUserUpsert(t, newStore(t)) })
	t.Run("FavoritesInsertOrReplace", func(t *testing.T) { testFavorites(t, newStore(t)) })
	t.Run("WatchRecordPartialUpdates", func(t *testing.T) { testWatchPartialUpdates(t, newStore(t)) })
	t.Run("WatchRecordFilterByStatus", func(t *testing.T) { testWatchFilter(t, newStore(t)) })
	t.Run("WatchRecordConcurrentWrites", func(t *testing.T) { testWatchConcurrent(t, newStore(t)) })
	t.Run("WatchRecordRejectsInvalid", func(t *testing.T) { testWatchInvalid(t, newStore(t)) })
	t.Run("CustomLists", func(t *testing.T) { testCustomLists(t, newStore(t)) })
	t.Run("AchievementFirstGrantWins", func(t *testing.T) { testAchievements(t, newStore(t)) })
	t.Run("AnimeCacheOverwrite", func(t *testing.T) { testAnimeCache(t, newStore(t)) })
	t.Run("CharacterCache", func(t *testing.T) { testCharacterCache(t, newStore(t)) })
}

func ptr[T any](v T) *T { return &v }

func testUserUpsert(t *testing.T, s ports.EntityStore) {
	ctx := context.Background()

	missing, err := s.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, s.AddUser(ctx, &domain.User{ID: 1, Handle: "mika", DisplayName: "Mika", Locale: "fr"}))
	first, err := s.GetUser(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, first)

	// A later contact without a handle keeps the stored one.
	require.NoError(t, s.AddUser(ctx, &domain.User{ID: 1, DisplayName: "Mika S."}))
	again, err := s.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "mika", again.Handle)
	assert.Equal(t, "Mika S.", again.DisplayName)
	assert.Equal(t, "fr", again.Locale)
	assert.True(t, first.CreatedAt.Equal(again.CreatedAt), "created_at must not move")
}

func testFavorites(t *testing.T, s ports.EntityStore) {
	ctx := context.Background()

	require.NoError(t, s.AddFavorite(ctx, 7, 42))
	require.NoError(t, s.AddFavorite(ctx, 7, 42))
	require.NoError(t, s.AddFavorite(ctx, 7, 43))

	favs, err := s.ListFavorites(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, favs, 2)

	ok, err := s.IsFavorite(ctx, 7, 42)
	require.NoError(t, err)
	assert.True(t, ok)

	removed, err := s.RemoveFavorite(ctx, 7, 42)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.RemoveFavorite(ctx, 7, 42)
	require.NoError(t, err)
	assert.False(t, removed)

	ok, err = s.IsFavorite(ctx, 7, 42)
	require.NoError(t, err)
	assert.False(t, ok)
}

func testWatchPartialUpdates(t *testing.T, s ports.EntityStore) {
	ctx := context.Background()

	rec, err := s.GetWatchRecord(ctx, 1, 42)
	require.NoError(t, err)
	assert.Nil(t, rec)

	rec, err = s.UpsertWatchRecord(ctx, 1, 42, domain.WatchUpdate{Score: ptr(8)})
	require.NoError(t, err)
	assert.Equal(t, domain.WatchStatusPlanned, rec.Status)
	assert.Equal(t, 0, rec.Progress)
	require.NotNil(t, rec.Score)
	assert.Equal(t, 8, *rec.Score)

	// Progress only: score survives.
	rec, err = s.UpsertWatchRecord(ctx, 1, 42, domain.WatchUpdate{Progress: ptr(5)})
	require.NoError(t, err)
	assert.Equal(t, 5, rec.Progress)
	require.NotNil(t, rec.Score)
	assert.Equal(t, 8, *rec.Score)

	// Status only: score and progress survive.
	rec, err = s.UpsertWatchRecord(ctx, 1, 42, domain.WatchUpdate{Status: ptr(domain.WatchStatusWatching)})
	require.NoError(t, err)
	assert.Equal(t, domain.WatchStatusWatching, rec.Status)
	assert.Equal(t, 5, rec.Progress)
	assert.Equal(t, 8, *rec.Score)

	// Score only: progress survives.
	rec, err = s.UpsertWatchRecord(ctx, 1, 42, domain.WatchUpdate{Score: ptr(9)})
	require.NoError(t, err)
	assert.Equal(t, 5, rec.Progress)
	assert.Equal(t, 9, *rec.Score)

	stored, err := s.GetWatchRecord(ctx, 1, 42)
	require.NoError(t, err)
	assert.Equal(t, rec.Status, stored.Status)
	assert.Equal(t, rec.Progress, stored.Progress)
	assert.Equal(t, *rec.Score, *stored.Score)
}

func testWatchFilter(t *testing.T, s ports.EntityStore) {
	ctx := context.Background()

	_, err := s.UpsertWatchRecord(ctx, 1, 1, domain.WatchUpdate{Status: ptr(domain.WatchStatusCompleted)})
	require.NoError(t, err)
	_, err = s.UpsertWatchRecord(ctx, 1, 2, domain.WatchUpdate{Status: ptr(domain.WatchStatusWatching)})
	require.NoError(t, err)
	_, err = s.UpsertWatchRecord(ctx, 2, 3, domain.WatchUpdate{Status: ptr(domain.WatchStatusCompleted)})
	require.NoError(t, err)

	all, err := s.ListWatchRecords(ctx, 1, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	done, err := s.ListWatchRecords(ctx, 1, domain.WatchStatusCompleted)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, 1, done[0].AnimeID)
}

func testWatchConcurrent(t *testing.T, s ports.EntityStore) {
	ctx := context.Background()
	_, err := s.UpsertWatchRecord(ctx, 1, 42, domain.WatchUpdate{Score: ptr(7)})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 1; i <= 10; i++ {
		wg.Add(2)
		go func(p int) {
			defer wg.Done()
			_, err := s.UpsertWatchRecord(ctx, 1, 42, domain.WatchUpdate{Progress: ptr(p)})
			assert.NoError(t, err)
		}(i)
		go func() {
			defer wg.Done()
			_, err := s.UpsertWatchRecord(ctx, 1, 42, domain.WatchUpdate{Status: ptr(domain.WatchStatusWatching)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rec, err := s.GetWatchRecord(ctx, 1, 42)
	require.NoError(t, err)
	assert.Equal(t, domain.WatchStatusWatching, rec.Status)
	assert.GreaterOrEqual(t, rec.Progress, 1)
	assert.LessOrEqual(t, rec.Progress, 10)
	require.NotNil(t, rec.Score)
	assert.Equal(t, 7, *rec.Score)
}

func testWatchInvalid(t *testing.T, s ports.EntityStore) {
	ctx := context.Background()

	_, err := s.UpsertWatchRecord(ctx, 1, 1, domain.WatchUpdate{Score: ptr(11)})
	assert.Error(t, err)
	_, err = s.UpsertWatchRecord(ctx, 1, 1, domain.WatchUpdate{Progress: ptr(-1)})
	assert.Error(t, err)
	_, err = s.UpsertWatchRecord(ctx, 1, 1, domain.WatchUpdate{Status: ptr(domain.WatchStatus("paused"))})
	assert.Error(t, err)

	rec, err := s.GetWatchRecord(ctx, 1, 1)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func testCustomLists(t *testing.T, s ports.EntityStore) {
	ctx := context.Background()

	l, err := s.CreateList(ctx, 1, "Rewatch")
	require.NoError(t, err)
	assert.NotZero(t, l.ID)

	same, err := s.CreateList(ctx, 1, "Rewatch")
	require.NoError(t, err)
	assert.Equal(t, l.ID, same.ID, "same name returns the existing list")

	other, err := s.CreateList(ctx, 1, "Classics")
	require.NoError(t, err)
	assert.NotEqual(t, l.ID, other.ID)

	_, err = s.CreateList(ctx, 1, "   ")
	assert.Error(t, err)

	lists, err := s.ListLists(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, lists, 2)

	foreign, err := s.GetList(ctx, 2, l.ID)
	require.NoError(t, err)
	assert.Nil(t, foreign, "lists are only visible to their owner")

	require.NoError(t, s.AddListItem(ctx, l.ID, 42))
	require.NoError(t, s.AddListItem(ctx, l.ID, 42))
	require.NoError(t, s.AddListItem(ctx, l.ID, 43))
	items, err := s.ListItems(ctx, l.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	removed, err := s.RemoveListItem(ctx, l.ID, 43)
	require.NoError(t, err)
	assert.True(t, removed)

	deleted, err := s.DeleteList(ctx, 2, l.ID)
	require.NoError(t, err)
	assert.False(t, deleted, "only the owner may delete")

	deleted, err = s.DeleteList(ctx, 1, l.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	items, err = s.ListItems(ctx, l.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func testAchievements(t *testing.T, s ports.EntityStore) {
	ctx := context.Background()

	granted, err := s.GrantAchievement(ctx, 1, domain.AchievementAnimeLover)
	require.NoError(t, err)
	assert.True(t, granted)

	granted, err = s.GrantAchievement(ctx, 1, domain.AchievementAnimeLover)
	require.NoError(t, err)
	assert.False(t, granted, "second grant reports already granted")

	list, err := s.ListAchievements(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.AchievementAnimeLover, list[0].Kind)

	revoked, err := s.RevokeAchievement(ctx, 1, domain.AchievementAnimeLover)
	require.NoError(t, err)
	assert.True(t, revoked)

	list, err = s.ListAchievements(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testAnimeCache(t *testing.T, s ports.EntityStore) {
	ctx := context.Background()

	miss, err := s.GetAnime(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, miss)

	a := &domain.Anime{
		ID:       42,
		Title:    "Example",
		Episodes: 12,
		Year:     2020,
		Season:   domain.SeasonSpring,
		Score:    8.25,
		Genres:   []domain.NamedRef{{ID: 1, Name: "Action"}, {ID: 4, Name: "Comedy"}},
		Studios:  []domain.NamedRef{{ID: 10, Name: "Studio X"}},
	}
	require.NoError(t, s.PutAnime(ctx, a))

	got, err := s.GetAnime(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Example", got.Title)
	assert.Equal(t, a.Genres, got.Genres)
	assert.Equal(t, a.Studios, got.Studios)
	assert.Nil(t, got.Producers)
	assert.Equal(t, "2020-spring", got.SeasonKey())
	assert.InDelta(t, 8.25, got.Score, 0.0001)

	// Wholesale overwrite: fields missing from the new snapshot disappear.
	require.NoError(t, s.PutAnime(ctx, &domain.Anime{ID: 42, Title: "Example (TV)"}))
	got, err = s.GetAnime(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Example (TV)", got.Title)
	assert.Nil(t, got.Genres)
	assert.Zero(t, got.Episodes)
}

func testCharacterCache(t *testing.T, s ports.EntityStore) {
	ctx := context.Background()

	c := &domain.Character{
		ID:          9,
		Name:        "Mikasa Ackerman",
		NameKanji:   "ミカサ",
		Nicknames:   []string{"Mika"},
		Anime:       []domain.CharacterAppearance{{AnimeID: 16498, Title: "Shingeki no Kyojin", Role: "Main"}},
		VoiceActors: []domain.VoiceActor{{Name: "Ishikawa, Yui", Language: "Japanese"}},
	}
	require.NoError(t, s.PutCharacter(ctx, c))

	got, err := s.GetCharacter(ctx, 9)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, c.Name, got.Name)
	assert.Equal(t, c.Nicknames, got.Nicknames)
	assert.Equal(t, c.Anime, got.Anime)
	assert.Equal(t, c.VoiceActors, got.VoiceActors)

	miss, err := s.GetCharacter(ctx, 10)
	require.NoError(t, err)
	assert.Nil(t, miss)
}
