package ports

import (
	"context"

	"github.com/anidex/anidex/src/internal/domain"
)

type UserRepository interface {
	// AddUser inserts the user if absent and refreshes handle, display name
	// and locale otherwise. CreatedAt is never rewritten.
	AddUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}

type FavoriteRepository interface {
	AddFavorite(ctx context.Context, userID int64, animeID int) error
	RemoveFavorite(ctx context.Context, userID int64, animeID int) (bool, error)
	IsFavorite(ctx context.Context, userID int64, animeID int) (bool, error)
	// ListFavorites returns the newest favorites first.
	ListFavorites(ctx context.Context, userID int64) ([]domain.Favorite, error)
}

type WatchlistRepository interface {
	// UpsertWatchRecord applies a partial update atomically and returns the
	// stored row.
	UpsertWatchRecord(ctx context.Context, userID int64, animeID int, update domain.WatchUpdate) (*domain.WatchRecord, error)
	GetWatchRecord(ctx context.Context, userID int64, animeID int) (*domain.WatchRecord, error)
	// ListWatchRecords filters by status unless status is empty.
	ListWatchRecords(ctx context.Context, userID int64, status domain.WatchStatus) ([]domain.WatchRecord, error)
}

type CustomListRepository interface {
	CreateList(ctx context.Context, userID int64, name string) (*domain.CustomList, error)
	GetList(ctx context.Context, userID int64, listID int64) (*domain.CustomList, error)
	ListLists(ctx context.Context, userID int64) ([]domain.CustomList, error)
	DeleteList(ctx context.Context, userID int64, listID int64) (bool, error)
	AddListItem(ctx context.Context, listID int64, animeID int) error
	RemoveListItem(ctx context.Context, listID int64, animeID int) (bool, error)
	ListItems(ctx context.Context, listID int64) ([]domain.ListItem, error)
}

type AchievementRepository interface {
	// GrantAchievement reports false when the kind was already granted.
	GrantAchievement(ctx context.Context, userID int64, kind domain.AchievementKind) (bool, error)
	RevokeAchievement(ctx context.Context, userID int64, kind domain.AchievementKind) (bool, error)
	ListAchievements(ctx context.Context, userID int64) ([]domain.Achievement, error)
}

type CatalogCacheRepository interface {
	PutAnime(ctx context.Context, anime *domain.Anime) error
	GetAnime(ctx context.Context, id int) (*domain.Anime, error)
	PutCharacter(ctx context.Context, character *domain.Character) error
	GetCharacter(ctx context.Context, id int) (*domain.Character, error)
}

// EntityStore is the full durable store.
type EntityStore interface {
	UserRepository
	FavoriteRepository
	WatchlistRepository
	CustomListRepository
	AchievementRepository
	CatalogCacheRepository
}

// CatalogProvider is the raw external catalog. Implementations return errors;
// the catalog service turns them into empty results.
type CatalogProvider interface {
	SearchAnime(ctx context.Context, query string, limit int) ([]domain.Anime, error)
	GetAnime(ctx context.Context, id int) (*domain.Anime, error)
	SeasonAnime(ctx context.Context, year int, season domain.Season, limit int) ([]domain.Anime, error)
	TopAnime(ctx context.Context, filter string, page, limit int) (*domain.TopPage, error)
	RandomAnime(ctx context.Context) (*domain.Anime, error)
	Schedule(ctx context.Context, day string) ([]domain.Anime, error)
	AnimeCharacters(ctx context.Context, animeID int) ([]domain.CharacterRole, error)
	GetCharacter(ctx context.Context, id int) (*domain.Character, error)
	SearchCharacters(ctx context.Context, query string, limit int) ([]domain.Character, error)
	AnimeByGenre(ctx context.Context, genreID int, limit int) ([]domain.Anime, error)
}

type Translator interface {
	Translate(ctx context.Context, text, targetLocale string) (string, error)
}

type Enricher interface {
	Lookup(ctx context.Context, name string) (*domain.Enrichment, error)
}

// EnrichmentCache holds lookup outcomes for the process lifetime. A cached
// miss is stored as a nil entry with ok=true.
type EnrichmentCache interface {
	Get(name string) (entry *domain.Enrichment, ok bool, err error)
	Put(name string, entry *domain.Enrichment) error
}

type SessionStore interface {
	PutResults(ctx context.Context, userID int64, key string, list *domain.ResultList) error
	// GetResults returns nil when the entry expired or never existed.
	GetResults(ctx context.Context, userID int64, key string) (*domain.ResultList, error)
}

type StreamingProber interface {
	Probe(ctx context.Context, title string) []domain.StreamingLink
}
