// Package navigation defines the button actions a rendered message can carry
// and their wire form, "token[:arg]*", which has to fit the transport's 64
// byte limit.
package navigation

import "github.com/anidex/anidex/src/internal/domain"

// Action is one decoded button press. Handlers type-switch over the concrete
// types below.
type Action interface {
	// Name is the action token; it doubles as a metrics label.
	Name() string
}

// Ignore is what unknown or malformed identifiers decode to.
type Ignore struct {
	Raw string
}

// Noop backs inert buttons such as the "2/5" page label.
type Noop struct{}

// Page shows one page of a result list held in the user's session.
type Page struct {
	Kind  domain.ResultKind
	Key   string
	Index int
}

// ShowAnime opens an anime card. From, when set, is the list the anime was
// picked from; the card offers a way back to it.
type ShowAnime struct {
	AnimeID int
	From    Action
}

type Synopsis struct{ AnimeID int }

type Details struct{ AnimeID int }

type Studio struct{ AnimeID int }

type Trailer struct{ AnimeID int }

// Cast lists the characters of an anime.
type Cast struct{ AnimeID int }

// ShowCharacter opens a character. FromAnimeID, when set, is the cast list
// the character was picked from and becomes the back target; otherwise From
// may hold the search page it came from.
type ShowCharacter struct {
	CharacterID int
	FromAnimeID int
	From        Action
}

type Similar struct{ AnimeID int }

type Streaming struct{ AnimeID int }

// ToggleFavorite re-renders the card it was pressed on, so it carries the
// card's origin along.
type ToggleFavorite struct {
	AnimeID int
	From    Action
}

// Lists opens the status and custom list picker for an anime.
type Lists struct{ AnimeID int }

type AddToList struct {
	ListID  int64
	AnimeID int
}

type SetStatus struct {
	AnimeID int
	Status  domain.WatchStatus
}

type ProgressEditor struct{ AnimeID int }

type ProgressOp int

const (
	ProgressIncrement ProgressOp = iota
	ProgressDecrement
	ProgressSet
)

// AdjustProgress moves the episode counter by one or sets it to Value.
type AdjustProgress struct {
	AnimeID int
	Op      ProgressOp
	Value   int
}

type Top struct {
	Filter string
	Page   int
}

// Schedule shows airing titles for a weekday, "today" or "week".
type Schedule struct{ Day string }

// Back reopens a list view as a new message. It is used from cards, which
// are photos and cannot be edited into a text list.
type Back struct{ To Action }

type ProfileView string

const (
	ProfileMain            ProfileView = "main"
	ProfileFavorites       ProfileView = "favs"
	ProfileWatchlist       ProfileView = "watch"
	ProfileStats           ProfileView = "stats"
	ProfileAchievements    ProfileView = "ach"
	ProfileRecommendations ProfileView = "recs"
	ProfileLists           ProfileView = "lists"
)

// Profile opens a profile view. Status narrows the watchlist view to one
// status; empty shows the status picker.
type Profile struct {
	View   ProfileView
	Status domain.WatchStatus
}

const (
	tokIgnore    = "ignore"
	tokNoop      = "noop"
	tokPage      = "page"
	tokAnime     = "anime"
	tokSynopsis  = "syn"
	tokDetails   = "det"
	tokStudio    = "studio"
	tokTrailer   = "trailer"
	tokCast      = "cast"
	tokCharacter = "char"
	tokSimilar   = "sim"
	tokStreaming = "stream"
	tokFavorite  = "fav"
	tokLists     = "lists"
	tokListAdd   = "ladd"
	tokStatus    = "st"
	tokProgress  = "prog"
	tokAdjust    = "pg"
	tokTop       = "top"
	tokSchedule  = "sched"
	tokProfile   = "prof"
	tokBack      = "back"
)

func (Ignore) Name() string         { return tokIgnore }
func (Noop) Name() string           { return tokNoop }
func (Page) Name() string           { return tokPage }
func (ShowAnime) Name() string      { return tokAnime }
func (Synopsis) Name() string       { return tokSynopsis }
func (Details) Name() string        { return tokDetails }
func (Studio) Name() string         { return tokStudio }
func (Trailer) Name() string        { return tokTrailer }
func (Cast) Name() string           { return tokCast }
func (ShowCharacter) Name() string  { return tokCharacter }
func (Similar) Name() string        { return tokSimilar }
func (Streaming) Name() string      { return tokStreaming }
func (ToggleFavorite) Name() string { return tokFavorite }
func (Lists) Name() string          { return tokLists }
func (AddToList) Name() string      { return tokListAdd }
func (SetStatus) Name() string      { return tokStatus }
func (ProgressEditor) Name() string { return tokProgress }
func (AdjustProgress) Name() string { return tokAdjust }
func (Top) Name() string            { return tokTop }
func (Schedule) Name() string       { return tokSchedule }
func (Profile) Name() string        { return tokProfile }
func (Back) Name() string           { return tokBack }

// IsOrigin reports whether a can be returned to from a card: a result page,
// a top ranking page or a profile view.
func IsOrigin(a Action) bool {
	switch a.(type) {
	case Page, Top, Profile:
		return true
	}
	return false
}

// Mutates reports whether handling a changes stored user state, which is
// when achievements need another look.
func Mutates(a Action) bool {
	switch a.(type) {
	case ToggleFavorite, SetStatus, AdjustProgress, AddToList:
		return true
	}
	return false
}
