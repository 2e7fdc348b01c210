package domain

import "time"

type User struct {
	ID          int64 // opaque transport id
	Handle      string
	DisplayName string
	Locale      string
	CreatedAt   time.Time
}

type WatchStatus string

const (
	WatchStatusPlanned   WatchStatus = "plan_to_watch"
	WatchStatusWatching  WatchStatus = "watching"
	WatchStatusCompleted WatchStatus = "completed"
	WatchStatusDropped   WatchStatus = "dropped"
)

var WatchStatuses = []WatchStatus{WatchStatusPlanned, WatchStatusWatching, WatchStatusCompleted, WatchStatusDropped}

func (s WatchStatus) Valid() bool {
	switch s {
	case WatchStatusPlanned, WatchStatusWatching, WatchStatusCompleted, WatchStatusDropped:
		return true
	}
	return false
}

type Favorite struct {
	UserID  int64
	AnimeID int
	AddedAt time.Time
}

type WatchRecord struct {
	UserID    int64
	AnimeID   int
	Status    WatchStatus
	Score     *int // nil until the user rates it
	Progress  int
	UpdatedAt time.Time
}

// WatchUpdate is a partial write. Nil fields keep the stored value on update
// and fall back to defaults (planned, no score, progress 0) on insert.
type WatchUpdate struct {
	Status   *WatchStatus
	Score    *int
	Progress *int
}

type CustomList struct {
	ID        int64
	UserID    int64
	Name      string
	CreatedAt time.Time
}

type ListItem struct {
	ListID  int64
	AnimeID int
	AddedAt time.Time
}

type AchievementKind string

const (
	AchievementExplorer      AchievementKind = "anime_explorer"
	AchievementGenreMaster   AchievementKind = "genre_master"
	AchievementSeasonWatcher AchievementKind = "season_watcher"
	AchievementAnimeLover    AchievementKind = "anime_lover"
	AchievementCompletionist AchievementKind = "completionist"
)

// AchievementKinds lists every kind in evaluation and display order.
var AchievementKinds = []AchievementKind{
	AchievementExplorer,
	AchievementGenreMaster,
	AchievementSeasonWatcher,
	AchievementAnimeLover,
	AchievementCompletionist,
}

func (k AchievementKind) Title() string {
	switch k {
	case AchievementExplorer:
		return "Explorer"
	case AchievementGenreMaster:
		return "Genre Master"
	case AchievementSeasonWatcher:
		return "Season Watcher"
	case AchievementAnimeLover:
		return "Anime Lover"
	case AchievementCompletionist:
		return "Completionist"
	}
	return string(k)
}

func (k AchievementKind) Description() string {
	switch k {
	case AchievementExplorer:
		return "Track 50 anime between favorites and watchlist"
	case AchievementGenreMaster:
		return "Touch 10 different genres"
	case AchievementSeasonWatcher:
		return "Follow anime from 4 different seasons"
	case AchievementAnimeLover:
		return "Add 20 anime to your favorites"
	case AchievementCompletionist:
		return "Complete 10 anime"
	}
	return ""
}

type Achievement struct {
	UserID    int64
	Kind      AchievementKind
	GrantedAt time.Time
}
