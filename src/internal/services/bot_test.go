package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anidex/anidex/src/internal/domain"
	nav "github.com/anidex/anidex/src/internal/navigation"
	"github.com/anidex/anidex/src/internal/render"
)

const testUser = int64(7)

func press(env *testEnv, a nav.Action) []domain.Reply {
	return env.bot.Handle(context.Background(), domain.Interaction{
		UserID:    testUser,
		Kind:      domain.InteractionButton,
		Payload:   nav.Encode(a),
		MessageID: 99,
	})
}

func command(env *testEnv, payload string) []domain.Reply {
	return env.bot.Handle(context.Background(), domain.Interaction{
		UserID:  testUser,
		Kind:    domain.InteractionCommand,
		Payload: payload,
	})
}

func keyboardData(kb domain.Keyboard) []string {
	var out []string
	for _, row := range kb {
		for _, b := range row {
			out = append(out, b.Data)
		}
	}
	return out
}

func TestFirstContactCreatesUser(t *testing.T) {
	env := newTestEnv(t)
	env.bot.Handle(context.Background(), domain.Interaction{
		UserID: testUser, Kind: domain.InteractionCommand, Payload: "/start", Handle: "sora", Locale: "fr",
	})

	u, err := env.store.GetUser(context.Background(), testUser)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "sora", u.Handle)
}

func TestProgressClampsAndCompletes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.provider.addAnime(domain.Anime{ID: 1, Title: "Short", Episodes: 3})

	replies := press(env, nav.AdjustProgress{AnimeID: 1, Op: nav.ProgressSet, Value: 5})
	require.NotEmpty(t, replies)
	assert.Equal(t, domain.DisciplineEdit, replies[0].Discipline)
	assert.Equal(t, int64(99), replies[0].EditMessageID)

	rec, err := env.store.GetWatchRecord(ctx, testUser, 1)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 3, rec.Progress)
	assert.Equal(t, domain.WatchStatusCompleted, rec.Status)
	updated := rec.UpdatedAt

	press(env, nav.AdjustProgress{AnimeID: 1, Op: nav.ProgressIncrement})
	rec, err = env.store.GetWatchRecord(ctx, testUser, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, rec.Progress)
	assert.Equal(t, updated, rec.UpdatedAt, "increment at the bound writes nothing")

	press(env, nav.AdjustProgress{AnimeID: 1, Op: nav.ProgressSet, Value: 0})
	press(env, nav.AdjustProgress{AnimeID: 1, Op: nav.ProgressDecrement})
	rec, err = env.store.GetWatchRecord(ctx, testUser, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Progress)
}

func TestIncrementOntoLastEpisodeCompletes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.provider.addAnime(domain.Anime{ID: 1, Title: "Short", Episodes: 3})

	press(env, nav.AdjustProgress{AnimeID: 1, Op: nav.ProgressSet, Value: 2})
	rec, err := env.store.GetWatchRecord(ctx, testUser, 1)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, domain.WatchStatusWatching, rec.Status)

	replies := press(env, nav.AdjustProgress{AnimeID: 1, Op: nav.ProgressIncrement})
	require.NotEmpty(t, replies)
	rec, err = env.store.GetWatchRecord(ctx, testUser, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, rec.Progress)
	assert.Equal(t, domain.WatchStatusCompleted, rec.Status)
	assert.Contains(t, replies[0].Text, "3/3")
	assert.Equal(t, "✅ Completed!", replies[0].Notice)
}

func TestProgressWithoutRecordStartsWatching(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.provider.addAnime(domain.Anime{ID: 2, Title: "Ongoing"})

	press(env, nav.AdjustProgress{AnimeID: 2, Op: nav.ProgressIncrement})
	rec, err := env.store.GetWatchRecord(ctx, testUser, 2)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 1, rec.Progress)
	assert.Equal(t, domain.WatchStatusWatching, rec.Status)

	press(env, nav.AdjustProgress{AnimeID: 2, Op: nav.ProgressSet, Value: 1100})
	rec, err = env.store.GetWatchRecord(ctx, testUser, 2)
	require.NoError(t, err)
	assert.Equal(t, 1100, rec.Progress, "no upper bound while the episode count is unknown")
	assert.Equal(t, domain.WatchStatusWatching, rec.Status)
}

func TestSearchThenPage(t *testing.T) {
	env := newTestEnv(t)
	for id := 1; id <= 12; id++ {
		env.provider.search = append(env.provider.search, domain.Anime{ID: id, Title: "Naruto"})
	}

	replies := env.bot.Handle(context.Background(), domain.Interaction{
		UserID: testUser, Kind: domain.InteractionText, Payload: "naruto",
	})
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "12 anime found")
	assert.Equal(t, domain.DisciplineNew, replies[0].Discipline)

	key := nav.SessionKey(domain.ResultAnimeSearch, "naruto")
	next := nav.Page{Kind: domain.ResultAnimeSearch, Key: key, Index: 2}
	assert.Contains(t, keyboardData(replies[0].Keyboard), nav.Encode(nav.Page{Kind: domain.ResultAnimeSearch, Key: key, Index: 1}))

	replies = press(env, next)
	require.Len(t, replies, 1)
	assert.Equal(t, domain.DisciplineEdit, replies[0].Discipline)
	assert.Contains(t, keyboardData(replies[0].Keyboard), nav.Encode(nav.ShowAnime{AnimeID: 11, From: next}))
}

func TestBackFromCardReopensResults(t *testing.T) {
	env := newTestEnv(t)
	for id := 1; id <= 12; id++ {
		env.provider.search = append(env.provider.search, domain.Anime{ID: id, Title: "Naruto", ImageURL: "https://img.example/n.jpg"})
	}
	env.provider.addAnime(env.provider.search...)
	command(env, "/search naruto")
	results := nav.Page{Kind: domain.ResultAnimeSearch, Key: nav.SessionKey(domain.ResultAnimeSearch, "naruto"), Index: 2}

	card := press(env, nav.ShowAnime{AnimeID: 11, From: results})
	require.Len(t, card, 1)
	assert.Equal(t, "https://img.example/n.jpg", card[0].Photo)
	back := nav.Back{To: results}
	assert.Contains(t, keyboardData(card[0].Keyboard), nav.Encode(back))

	toggled := press(env, nav.ToggleFavorite{AnimeID: 11, From: results})
	require.NotEmpty(t, toggled)
	assert.Contains(t, keyboardData(toggled[0].Keyboard), nav.Encode(back), "the edited card keeps its way back")

	replies := press(env, back)
	require.Len(t, replies, 1)
	assert.Equal(t, domain.DisciplineNew, replies[0].Discipline, "a photo card cannot be edited into a list")
	assert.Zero(t, replies[0].EditMessageID)
	assert.Empty(t, replies[0].Photo)
	assert.Contains(t, replies[0].Text, "12 anime found")
	assert.Contains(t, keyboardData(replies[0].Keyboard), nav.Encode(nav.ShowAnime{AnimeID: 11, From: results}))
}

func TestBackFromCharacterSearch(t *testing.T) {
	env := newTestEnv(t)
	env.provider.charSearch = []domain.Character{{ID: 5, Name: "Levi"}}
	env.provider.characters[5] = &domain.Character{ID: 5, Name: "Levi Ackerman"}

	replies := command(env, "/character levi")
	require.Len(t, replies, 1)
	results := nav.Page{Kind: domain.ResultCharacterSearch, Key: nav.SessionKey(domain.ResultCharacterSearch, "levi")}
	char := nav.ShowCharacter{CharacterID: 5, From: results}
	require.Contains(t, keyboardData(replies[0].Keyboard), nav.Encode(char))

	replies = press(env, char)
	require.Len(t, replies, 1)
	back := nav.Back{To: results}
	require.Contains(t, keyboardData(replies[0].Keyboard), nav.Encode(back))

	replies = press(env, back)
	require.Len(t, replies, 1)
	assert.Equal(t, domain.DisciplineNew, replies[0].Discipline)
	assert.Contains(t, replies[0].Text, "Characters found")
}

func TestBackFromTopReopensTheSamePage(t *testing.T) {
	env := newTestEnv(t)
	env.provider.top = []domain.Anime{{ID: 3, Title: "Gintama"}}
	env.provider.addAnime(env.provider.top...)
	top := nav.Top{Filter: "all", Page: 1}

	card := press(env, nav.ShowAnime{AnimeID: 3, From: top})
	require.Len(t, card, 1)
	require.Contains(t, keyboardData(card[0].Keyboard), nav.Encode(nav.Back{To: top}))

	replies := press(env, nav.Back{To: top})
	require.Len(t, replies, 1)
	assert.Equal(t, domain.DisciplineNew, replies[0].Discipline)
	assert.Contains(t, replies[0].Text, "Gintama")
}

func TestStalePagesAreUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.provider.search = []domain.Anime{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}}
	command(env, "/search a")
	key := nav.SessionKey(domain.ResultAnimeSearch, "a")

	cases := map[string]nav.Page{
		"unknown key":    {Kind: domain.ResultAnimeSearch, Key: "00ff", Index: 0},
		"past the end":   {Kind: domain.ResultAnimeSearch, Key: key, Index: 4},
		"different kind": {Kind: domain.ResultCharacterSearch, Key: key, Index: 0},
	}
	for name, p := range cases {
		replies := press(env, p)
		require.Len(t, replies, 1, name)
		assert.Equal(t, render.Unavailable, replies[0].Text, name)
		assert.Equal(t, domain.DisciplineNew, replies[0].Discipline, name)
	}
}

func TestGroupTextNeedsMention(t *testing.T) {
	env := newTestEnv(t)
	env.provider.search = []domain.Anime{{ID: 1, Title: "Bleach"}}
	group := func(text string) []domain.Reply {
		return env.bot.Handle(context.Background(), domain.Interaction{
			UserID: testUser, Kind: domain.InteractionText, Payload: text, Group: true,
		})
	}

	assert.Empty(t, group("bleach"))
	assert.Zero(t, env.provider.callCount("search"))

	replies := group("@anidexbot  bleach")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "« bleach »")

	replies = group("@AniDexBot")
	require.Len(t, replies, 1)
	assert.Equal(t, render.UsageMention, replies[0].Text)
}

func TestCommandParsing(t *testing.T) {
	name, args := splitCommand("/search@AniDexBot  One Piece ")
	assert.Equal(t, "search", name)
	assert.Equal(t, "One Piece", args)

	env := newTestEnv(t)
	assert.Equal(t, render.UsageSearch, command(env, "/recherche")[0].Text)
	assert.Equal(t, render.UsageSeason, command(env, "/season 2023 monsoon")[0].Text)
	assert.Equal(t, render.UsageTop, command(env, "/top weekly")[0].Text)
	assert.Equal(t, render.UsageSchedule, command(env, "/schedule someday")[0].Text)
	assert.Equal(t, render.UnknownCommand, command(env, "/dance")[0].Text)
	assert.Equal(t, render.Help, command(env, "/aide")[0].Text)
}

func TestFavoriteToggleEditsAndGrants(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for id := 1; id <= 20; id++ {
		env.provider.addAnime(domain.Anime{ID: id, Title: "Title", ImageURL: "https://img.example/t.jpg"})
	}
	for id := 1; id <= 19; id++ {
		require.NoError(t, env.store.AddFavorite(ctx, testUser, id))
	}

	replies := press(env, nav.ToggleFavorite{AnimeID: 20})
	require.Len(t, replies, 2)
	assert.Equal(t, domain.DisciplineEdit, replies[0].Discipline)
	assert.Contains(t, replies[0].Text, "In your favorites")
	assert.Equal(t, "https://img.example/t.jpg", replies[0].Photo, "the edit replaces a photo caption")
	assert.NotEmpty(t, replies[0].Notice)
	assert.Equal(t, domain.DisciplineNew, replies[1].Discipline)
	assert.Contains(t, replies[1].Text, "Anime Lover")

	replies = press(env, nav.ToggleFavorite{AnimeID: 20})
	require.Len(t, replies, 1, "removing grants nothing new")
	fav, err := env.store.IsFavorite(ctx, testUser, 20)
	require.NoError(t, err)
	assert.False(t, fav)
}

func TestAddToUnknownListIsStale(t *testing.T) {
	env := newTestEnv(t)
	env.provider.addAnime(domain.Anime{ID: 1, Title: "A"})

	replies := press(env, nav.AddToList{ListID: 42, AnimeID: 1})
	require.Len(t, replies, 1)
	assert.Equal(t, render.Unavailable, replies[0].Text)
}

func TestNewListThenAdd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.provider.addAnime(domain.Anime{ID: 1, Title: "A"})

	replies := command(env, "/newlist Rewatch")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Rewatch")

	lists, err := env.store.ListLists(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, lists, 1)

	replies = press(env, nav.AddToList{ListID: lists[0].ID, AnimeID: 1})
	require.NotEmpty(t, replies)
	assert.Equal(t, "🗂️ Added to Rewatch", replies[0].Notice)
	items, err := env.store.ListItems(ctx, lists[0].ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestMalformedButtonIsIgnored(t *testing.T) {
	env := newTestEnv(t)
	replies := env.bot.Handle(context.Background(), domain.Interaction{
		UserID: testUser, Kind: domain.InteractionButton, Payload: "anime_42",
	})
	assert.Empty(t, replies)
}

func TestCastButtonsLinkBack(t *testing.T) {
	env := newTestEnv(t)
	env.provider.addAnime(domain.Anime{ID: 16498, Title: "Shingeki no Kyojin"})
	env.provider.cast[16498] = []domain.CharacterRole{{CharacterID: 40881, Name: "Mikasa", Role: "Main"}}
	env.provider.characters[40881] = &domain.Character{ID: 40881, Name: "Mikasa Ackerman"}

	replies := press(env, nav.Cast{AnimeID: 16498})
	require.Len(t, replies, 1)
	char := nav.ShowCharacter{CharacterID: 40881, FromAnimeID: 16498}
	assert.Contains(t, keyboardData(replies[0].Keyboard), nav.Encode(char))

	replies = press(env, char)
	require.Len(t, replies, 1)
	assert.Contains(t, keyboardData(replies[0].Keyboard), nav.Encode(nav.Cast{AnimeID: 16498}))
}

func TestSchedule(t *testing.T) {
	env := newTestEnv(t)
	env.provider.schedule["monday"] = []domain.Anime{{ID: 1, Title: "Monday Show"}}
	env.provider.schedule["wednesday"] = []domain.Anime{{ID: 2, Title: "Wednesday Show"}}
	env.bot.now = func() time.Time { return time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC) }

	replies := command(env, "/schedule")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Monday Show")
	assert.Contains(t, replies[0].Text, "Wednesday Show")
	assert.Equal(t, 7, env.provider.callCount("schedule"))

	replies = press(env, nav.Schedule{Day: "today"})
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Airing on Wednesday")
	assert.NotContains(t, replies[0].Text, "Monday Show")
}

func TestProfileViews(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.provider.addAnime(domain.Anime{ID: 1, Title: "Mushishi", Genres: genres(5)})
	require.NoError(t, env.store.AddFavorite(ctx, testUser, 1))
	score := 9
	_, err := env.store.UpsertWatchRecord(ctx, testUser, 1, domain.WatchUpdate{Score: &score})
	require.NoError(t, err)

	replies := command(env, "/profil")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "1 favorites")

	replies = press(env, nav.Profile{View: nav.ProfileFavorites})
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Mushishi")

	replies = press(env, nav.Profile{View: nav.ProfileStats})
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "9.00")
	assert.Contains(t, replies[0].Text, "Genre 5")

	replies = press(env, nav.Profile{View: nav.ProfileWatchlist, Status: domain.WatchStatusPlanned})
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Mushishi")
	assert.Equal(t, domain.DisciplineEdit, replies[0].Discipline)
}
