package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/anidex/anidex/src/internal/adapters/kv"
	"github.com/anidex/anidex/src/internal/adapters/memory"
	"github.com/anidex/anidex/src/internal/domain"
	"github.com/anidex/anidex/src/internal/render"
)

// fakeCatalog is an in-process ports.CatalogProvider that counts calls.
type fakeCatalog struct {
	mu         sync.Mutex
	anime      map[int]*domain.Anime
	characters map[int]*domain.Character
	cast       map[int][]domain.CharacterRole
	search     []domain.Anime
	charSearch []domain.Character
	byGenre    map[int][]domain.Anime
	top        []domain.Anime
	schedule   map[string][]domain.Anime
	err        error
	gate       chan struct{}

	calls      map[string]int
	genreCalls []int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		anime:      map[int]*domain.Anime{},
		characters: map[int]*domain.Character{},
		cast:       map[int][]domain.CharacterRole{},
		byGenre:    map[int][]domain.Anime{},
		schedule:   map[string][]domain.Anime{},
		calls:      map[string]int{},
	}
}

func (f *fakeCatalog) addAnime(items ...domain.Anime) {
	for i := range items {
		a := items[i]
		f.anime[a.ID] = &a
	}
}

func (f *fakeCatalog) count(endpoint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[endpoint]++
	return f.err
}

func (f *fakeCatalog) callCount(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[endpoint]
}

func (f *fakeCatalog) SearchAnime(ctx context.Context, query string, limit int) ([]domain.Anime, error) {
	if err := f.count("search"); err != nil {
		return nil, err
	}
	return f.search, nil
}

func (f *fakeCatalog) GetAnime(ctx context.Context, id int) (*domain.Anime, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.count("anime"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.anime[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *a
	return &out, nil
}

func (f *fakeCatalog) SeasonAnime(ctx context.Context, year int, season domain.Season, limit int) ([]domain.Anime, error) {
	if err := f.count("season"); err != nil {
		return nil, err
	}
	return f.search, nil
}

func (f *fakeCatalog) TopAnime(ctx context.Context, filter string, page, limit int) (*domain.TopPage, error) {
	if err := f.count("top"); err != nil {
		return nil, err
	}
	return &domain.TopPage{Items: f.top[:min(limit, len(f.top))], Page: page, LastPage: 1}, nil
}

func (f *fakeCatalog) RandomAnime(ctx context.Context) (*domain.Anime, error) {
	if err := f.count("random"); err != nil {
		return nil, err
	}
	for _, a := range f.anime {
		return a, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeCatalog) Schedule(ctx context.Context, day string) ([]domain.Anime, error) {
	if err := f.count("schedule"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.schedule[day], nil
}

func (f *fakeCatalog) AnimeCharacters(ctx context.Context, animeID int) ([]domain.CharacterRole, error) {
	if err := f.count("characters"); err != nil {
		return nil, err
	}
	return f.cast[animeID], nil
}

func (f *fakeCatalog) GetCharacter(ctx context.Context, id int) (*domain.Character, error) {
	if err := f.count("character"); err != nil {
		return nil, err
	}
	c, ok := f.characters[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (f *fakeCatalog) SearchCharacters(ctx context.Context, query string, limit int) ([]domain.Character, error) {
	if err := f.count("character_search"); err != nil {
		return nil, err
	}
	return f.charSearch, nil
}

func (f *fakeCatalog) AnimeByGenre(ctx context.Context, genreID int, limit int) ([]domain.Anime, error) {
	if err := f.count("genre"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.genreCalls = append(f.genreCalls, genreID)
	return f.byGenre[genreID], nil
}

type fakeProber struct{}

func (fakeProber) Probe(ctx context.Context, title string) []domain.StreamingLink {
	return []domain.StreamingLink{{Site: "VoirAnime", URL: "https://v.example/" + title, Direct: true}}
}

type testEnv struct {
	store    *memory.InMemoryStore
	provider *fakeCatalog
	catalog  *CatalogService
	bot      *Bot
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	kvStore, err := kv.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { kvStore.Close() })

	store := memory.NewStore()
	provider := newFakeCatalog()
	catalog := NewCatalogService(provider, NewCatalogCache(store))
	recommender := NewRecommender(store, catalog)
	bot := NewBot(BotDeps{
		Store:        store,
		Sessions:     kvStore.Sessions(time.Hour),
		Catalog:      catalog,
		Recommender:  recommender,
		Achievements: NewAchievementService(store, catalog),
		Streaming:    fakeProber{},
		Renderer:     render.NewRenderer(nil, "fr"),
		Username:     "AniDexBot",
	})
	return &testEnv{store: store, provider: provider, catalog: catalog, bot: bot}
}

func genres(ids ...int) []domain.NamedRef {
	out := make([]domain.NamedRef, len(ids))
	for i, id := range ids {
		out[i] = domain.NamedRef{ID: id, Name: fmt.Sprintf("Genre %d", id)}
	}
	return out
}
