package render

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anidex/anidex/src/internal/domain"
	nav "github.com/anidex/anidex/src/internal/navigation"
)

type fakeTranslator struct {
	calls  []string
	locale string
	err    error
}

func (f *fakeTranslator) Translate(_ context.Context, text, locale string) (string, error) {
	f.calls = append(f.calls, text)
	f.locale = locale
	if f.err != nil {
		return "", f.err
	}
	return "[" + locale + "] " + text, nil
}

func sampleAnime() *domain.Anime {
	return &domain.Anime{
		ID:            42,
		Title:         "Example <script>",
		TitleJapanese: "例",
		Type:          "TV",
		Episodes:      12,
		Status:        "Finished Airing",
		Score:         8.1,
		Rank:          100,
		Year:          2020,
		Season:        domain.SeasonSpring,
		Synopsis:      "A story & more.",
		TrailerURL:    "https://www.youtube.com/watch?v=abc",
		Genres:        []domain.NamedRef{{ID: 1, Name: "Action"}},
	}
}

func buttons(kb domain.Keyboard) map[string]domain.Button {
	out := map[string]domain.Button{}
	for _, row := range kb {
		for _, b := range row {
			out[b.Data] = b
		}
	}
	return out
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdef...", Truncate("abcdefghijkl", 9))
	out := Truncate(strings.Repeat("é", 20), 10)
	assert.Equal(t, 10, utf8.RuneCountInString(out))
	assert.True(t, strings.HasSuffix(out, "..."))
}

func TestFitHTML(t *testing.T) {
	s := "<b>" + strings.Repeat("x", 50) + "</b> <a href=\"u\">link</a>"
	out := FitHTML(s, 20)
	assert.LessOrEqual(t, utf8.RuneCountInString(out), 20)
	assert.True(t, strings.HasPrefix(out, "<b>x"))
	assert.True(t, strings.HasSuffix(out, "...</b>"))

	out = FitHTML("abc &amp; "+strings.Repeat("y", 30), 8)
	assert.NotContains(t, out, "&am")
	assert.Equal(t, "abc ...", out)

	assert.Equal(t, "fits", FitHTML("fits", 10))
}

func TestAnimeCardEscapesAndShowsViewerState(t *testing.T) {
	r := NewRenderer(nil, "fr")
	score := 9
	text, kb := r.AnimeCard(sampleAnime(), Viewer{
		Favorite: true,
		Watch:    &domain.WatchRecord{Status: domain.WatchStatusWatching, Progress: 3, Score: &score},
	})

	assert.Contains(t, text, "Example &lt;script&gt;")
	assert.NotContains(t, text, "<script>")
	assert.Contains(t, text, "In your favorites")
	assert.Contains(t, text, "3/12 episodes")
	assert.Contains(t, text, "(Spring 2020)")
	assert.LessOrEqual(t, utf8.RuneCountInString(text), CaptionLimit)

	bs := buttons(kb)
	assert.Contains(t, bs, nav.Encode(nav.Trailer{AnimeID: 42}))
	assert.Contains(t, bs, nav.Encode(nav.ProgressEditor{AnimeID: 42}))
	assert.Equal(t, "❤️ Remove from favorites", bs[nav.Encode(nav.ToggleFavorite{AnimeID: 42})].Text)
	for data := range bs {
		assert.LessOrEqual(t, len(data), nav.MaxLength)
	}
}

func TestCardsLeadBackToTheirList(t *testing.T) {
	r := NewRenderer(nil, "fr")
	results := nav.Page{Kind: domain.ResultAnimeSearch, Key: "00ff", Index: 1}

	cases := map[string]nav.Action{
		"🔙 Back to results": results,
		"🔙 Back to top":     nav.Top{Filter: "airing", Page: 2},
		"🔙 Back to profile": nav.Profile{View: nav.ProfileFavorites},
	}
	for text, from := range cases {
		_, kb := r.AnimeCard(sampleAnime(), Viewer{Back: from})
		bs := buttons(kb)
		assert.Equal(t, text, bs[nav.Encode(nav.Back{To: from})].Text)
		assert.Contains(t, bs, nav.Encode(nav.ToggleFavorite{AnimeID: 42, From: from}), "the favorite toggle keeps the way back")
	}

	_, kb := r.AnimeCard(sampleAnime(), Viewer{})
	for data := range buttons(kb) {
		assert.NotEqual(t, "back", nav.Decode(data).Name(), "no back row without an origin")
	}

	c := &domain.Character{ID: 9, Name: "Mikasa"}
	_, kb = r.CharacterCard(context.Background(), c, nil, Viewer{Back: results}, 0)
	assert.Equal(t, "🔙 Back to results", buttons(kb)[nav.Encode(nav.Back{To: results})].Text)

	_, kb = r.CharacterCard(context.Background(), c, nil, Viewer{Back: results}, 16498)
	require.Len(t, kb, 1)
	assert.Contains(t, buttons(kb), nav.Encode(nav.Cast{AnimeID: 16498}), "the cast list wins over other origins")
}

func TestListsCarryTheirOrigin(t *testing.T) {
	r := NewRenderer(nil, "fr")

	chars := resultList(domain.ResultCharacterSearch, 3)
	_, kb, ok := r.ResultPage(chars, "00ff", 0)
	require.True(t, ok)
	here := nav.Page{Kind: domain.ResultCharacterSearch, Key: "00ff", Index: 0}
	assert.Contains(t, buttons(kb), nav.Encode(nav.ShowCharacter{CharacterID: 2, From: here}))

	_, kb = r.Top(&domain.TopPage{Page: 3, LastPage: 5, Items: []domain.Anime{{ID: 7, Title: "Seven"}}}, "tv")
	assert.Contains(t, buttons(kb), nav.Encode(nav.ShowAnime{AnimeID: 7, From: nav.Top{Filter: "tv", Page: 3}}))

	_, kb = r.ProfileRecommendations([]domain.Anime{{ID: 8, Title: "Eight"}})
	assert.Contains(t, buttons(kb), nav.Encode(nav.ShowAnime{AnimeID: 8, From: nav.Profile{View: nav.ProfileRecommendations}}))
}

func TestAnimeCardWithoutTrailer(t *testing.T) {
	a := sampleAnime()
	a.TrailerURL = ""
	_, kb := NewRenderer(nil, "fr").AnimeCard(a, Viewer{})
	assert.NotContains(t, buttons(kb), nav.Encode(nav.Trailer{AnimeID: 42}))
	assert.NotContains(t, buttons(kb), nav.Encode(nav.ProgressEditor{AnimeID: 42}))
}

func TestSynopsisTranslation(t *testing.T) {
	ctx := context.Background()

	t.Run("translated into the default locale", func(t *testing.T) {
		tr := &fakeTranslator{}
		text, kb := NewRenderer(tr, "fr").Synopsis(ctx, sampleAnime(), Viewer{})
		assert.Equal(t, "fr", tr.locale)
		assert.Contains(t, text, "[fr] A story &amp; more.")
		assert.Contains(t, buttons(kb), nav.Encode(nav.ShowAnime{AnimeID: 42}))
	})

	t.Run("english viewers skip translation", func(t *testing.T) {
		tr := &fakeTranslator{}
		text, _ := NewRenderer(tr, "fr").Synopsis(ctx, sampleAnime(), Viewer{Locale: "en-GB"})
		assert.Empty(t, tr.calls)
		assert.Contains(t, text, "A story &amp; more.")
	})

	t.Run("failure falls back to source", func(t *testing.T) {
		tr := &fakeTranslator{err: errors.New("boom")}
		text, _ := NewRenderer(tr, "fr").Synopsis(ctx, sampleAnime(), Viewer{Locale: "de"})
		assert.Equal(t, "de", tr.locale)
		assert.Contains(t, text, "A story &amp; more.")
	})

	t.Run("long synopsis is cut before translation", func(t *testing.T) {
		tr := &fakeTranslator{}
		a := sampleAnime()
		a.Synopsis = strings.Repeat("word ", 400)
		NewRenderer(tr, "fr").Synopsis(ctx, a, Viewer{})
		require.Len(t, tr.calls, 1)
		assert.LessOrEqual(t, utf8.RuneCountInString(tr.calls[0]), synopsisSourceLimit)
	})
}

func TestCharacterCard(t *testing.T) {
	tr := &fakeTranslator{}
	c := &domain.Character{
		ID:          9,
		Name:        "Mikasa",
		NameKanji:   "ミカサ",
		About:       strings.Repeat("b", 3000),
		Favorites:   100,
		Anime:       []domain.CharacterAppearance{{AnimeID: 1, Title: "Attack", Role: "Main"}},
		VoiceActors: []domain.VoiceActor{{Name: "Ishikawa, Yui", Language: "Japanese"}, {Name: "Someone", Language: "English"}},
	}

	t.Run("plain", func(t *testing.T) {
		text, kb := NewRenderer(tr, "fr").CharacterCard(context.Background(), c, nil, Viewer{}, 0)
		assert.Nil(t, kb)
		assert.Contains(t, text, "Ishikawa, Yui")
		assert.NotContains(t, text, "Someone")
		assert.LessOrEqual(t, utf8.RuneCountInString(text), CaptionLimit)
		assert.LessOrEqual(t, utf8.RuneCountInString(tr.calls[len(tr.calls)-1]), biographySourceLimit)
	})

	t.Run("enriched", func(t *testing.T) {
		e := &domain.Enrichment{Title: "Ackerman Mikasa", URL: "https://www.nautiljon.com/personnages/m.html", Description: "Soldate."}
		text, kb := NewRenderer(nil, "fr").CharacterCard(context.Background(), c, e, Viewer{}, 16498)
		assert.Contains(t, text, "Soldate.")
		assert.Contains(t, text, `href="https://www.nautiljon.com/personnages/m.html"`)
		assert.Contains(t, buttons(kb), nav.Encode(nav.Cast{AnimeID: 16498}))
	})
}

func resultList(kind domain.ResultKind, n int) *domain.ResultList {
	l := &domain.ResultList{Kind: kind, Query: "q", Title: "Title"}
	for i := 1; i <= n; i++ {
		l.Items = append(l.Items, domain.ResultItem{ID: i, Label: "Item"})
	}
	return l
}

func TestResultPage(t *testing.T) {
	r := NewRenderer(nil, "fr")
	list := resultList(domain.ResultAnimeSearch, 12)

	_, kb, ok := r.ResultPage(list, "00ff", 1)
	require.True(t, ok)
	bs := buttons(kb)
	here := nav.Page{Kind: domain.ResultAnimeSearch, Key: "00ff", Index: 1}
	assert.Contains(t, bs, nav.Encode(nav.ShowAnime{AnimeID: 6, From: here}))
	assert.Contains(t, bs, nav.Encode(nav.ShowAnime{AnimeID: 10, From: here}))
	assert.NotContains(t, bs, nav.Encode(nav.ShowAnime{AnimeID: 11, From: here}))
	assert.Contains(t, bs, nav.Encode(nav.Page{Kind: domain.ResultAnimeSearch, Key: "00ff", Index: 0}))
	assert.Contains(t, bs, nav.Encode(nav.Page{Kind: domain.ResultAnimeSearch, Key: "00ff", Index: 2}))
	assert.Equal(t, "2/3", bs[nav.Encode(nav.Noop{})].Text)

	_, _, ok = r.ResultPage(list, "00ff", 3)
	assert.False(t, ok, "page past the end")
	_, _, ok = r.ResultPage(resultList(domain.ResultAnimeSearch, 0), "00ff", 0)
	assert.False(t, ok)
}

func TestCastPageLinksBack(t *testing.T) {
	list := &domain.ResultList{Kind: domain.ResultAnimeCast, Query: "42", Title: "Example", Items: []domain.ResultItem{
		{ID: 9, Label: "Mikasa", Detail: "Main"},
	}}
	text, kb, ok := NewRenderer(nil, "fr").ResultPage(list, "00ff", 0)
	require.True(t, ok)
	assert.Contains(t, text, "1. Mikasa (Main)")
	bs := buttons(kb)
	assert.Equal(t, "🎯 Mikasa", bs[nav.Encode(nav.ShowCharacter{CharacterID: 9, FromAnimeID: 42})].Text)
	assert.Contains(t, bs, nav.Encode(nav.ShowAnime{AnimeID: 42}))
}

func TestProgressEditor(t *testing.T) {
	r := NewRenderer(nil, "fr")
	a := sampleAnime()

	_, kb := r.ProgressEditor(a, &domain.WatchRecord{Progress: 11})
	bs := buttons(kb)
	assert.Contains(t, bs, nav.Encode(nav.AdjustProgress{AnimeID: 42, Op: nav.ProgressIncrement}))
	assert.Contains(t, bs, nav.Encode(nav.AdjustProgress{AnimeID: 42, Op: nav.ProgressSet, Value: 12}))

	_, kb = r.ProgressEditor(a, &domain.WatchRecord{Progress: 12})
	assert.NotContains(t, buttons(kb), nav.Encode(nav.AdjustProgress{AnimeID: 42, Op: nav.ProgressIncrement}))

	a.Episodes = 0
	_, kb = r.ProgressEditor(a, nil)
	bs = buttons(kb)
	assert.Contains(t, bs, nav.Encode(nav.AdjustProgress{AnimeID: 42, Op: nav.ProgressIncrement}))
	assert.Contains(t, bs, nav.Encode(nav.Lists{AnimeID: 42}))
}

func TestTopKeyboard(t *testing.T) {
	text, kb := NewRenderer(nil, "fr").Top(&domain.TopPage{
		Items:    []domain.Anime{{ID: 1, Title: "A", Score: 9.1}},
		Page:     1,
		LastPage: 4,
	}, "movie")
	assert.Contains(t, text, "Movies")
	assert.Contains(t, text, "Page 1/4")
	bs := buttons(kb)
	assert.Contains(t, bs, nav.Encode(nav.Top{Filter: "movie", Page: 2}))
	assert.NotContains(t, bs, nav.Encode(nav.Top{Filter: "movie", Page: 0}))
}

func TestAchievementsView(t *testing.T) {
	text, _ := NewRenderer(nil, "fr").ProfileAchievements([]domain.Achievement{{Kind: domain.AchievementAnimeLover}})
	assert.Contains(t, text, "✅ <b>Anime Lover</b>")
	assert.Contains(t, text, "🔒 Completionist")
}
