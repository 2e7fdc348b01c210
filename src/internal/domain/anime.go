package domain

import (
	"errors"
	"strconv"
	"time"
)

type Season string

const (
	SeasonWinter Season = "winter"
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonFall   Season = "fall"
)

// ParseSeason accepts the English season names plus the French ones users
// tend to type ("printemps", "ete", "automne", "hiver").
func ParseSeason(s string) (Season, bool) {
	switch s {
	case "winter", "hiver":
		return SeasonWinter, true
	case "spring", "printemps":
		return SeasonSpring, true
	case "summer", "ete", "été":
		return SeasonSummer, true
	case "fall", "autumn", "automne":
		return SeasonFall, true
	}
	return "", false
}

// NamedRef is the {mal_id, name} pair the catalog uses for genres, studios
// and producers.
type NamedRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Anime struct {
	ID            int        `json:"id"`
	Title         string     `json:"title"`
	TitleEnglish  string     `json:"titleEnglish,omitempty"`
	TitleJapanese string     `json:"titleJapanese,omitempty"`
	Synopsis      string     `json:"synopsis,omitempty"`
	Type          string     `json:"type,omitempty"`
	Episodes      int        `json:"episodes"` // 0 when the catalog does not know yet
	Status        string     `json:"status,omitempty"`
	Score         float64    `json:"score"`
	Rank          int        `json:"rank"`
	Popularity    int        `json:"popularity"`
	Year          int        `json:"year"`
	Season        Season     `json:"season,omitempty"`
	Aired         string     `json:"aired,omitempty"`
	Duration      string     `json:"duration,omitempty"`
	Rating        string     `json:"rating,omitempty"`
	Source        string     `json:"source,omitempty"`
	ImageURL      string     `json:"imageUrl,omitempty"`
	TrailerURL    string     `json:"trailerUrl,omitempty"`
	Genres        []NamedRef `json:"genres,omitempty"`
	Studios       []NamedRef `json:"studios,omitempty"`
	Producers     []NamedRef `json:"producers,omitempty"`
	CachedAt      time.Time  `json:"cachedAt"`
}

// SeasonKey identifies the (year, season) pair an anime aired in, or "" when
// either half is unknown.
func (a *Anime) SeasonKey() string {
	if a.Year == 0 || a.Season == "" {
		return ""
	}
	return strconv.Itoa(a.Year) + "-" + string(a.Season)
}

func (a *Anime) GenreNames() []string {
	names := make([]string, 0, len(a.Genres))
	for _, g := range a.Genres {
		names = append(names, g.Name)
	}
	return names
}

type CharacterAppearance struct {
	AnimeID int    `json:"animeId"`
	Title   string `json:"title"`
	Role    string `json:"role"`
}

type VoiceActor struct {
	Name     string `json:"name"`
	Language string `json:"language"`
}

type Character struct {
	ID          int                   `json:"id"`
	Name        string                `json:"name"`
	NameKanji   string                `json:"nameKanji,omitempty"`
	Nicknames   []string              `json:"nicknames,omitempty"`
	About       string                `json:"about,omitempty"`
	ImageURL    string                `json:"imageUrl,omitempty"`
	Favorites   int                   `json:"favorites"`
	Anime       []CharacterAppearance `json:"anime,omitempty"`
	VoiceActors []VoiceActor          `json:"voiceActors,omitempty"`
	CachedAt    time.Time             `json:"cachedAt"`
}

// CharacterRole is one entry of an anime's cast list.
type CharacterRole struct {
	CharacterID int    `json:"characterId"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// ScheduleDays are the lowercase English weekdays the catalog uses.
var ScheduleDays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

var TopFilters = []string{"all", "airing", "upcoming", "tv", "movie", "ova", "special", "bypopularity", "favorite"}

// TopPage is one page of the global ranking.
type TopPage struct {
	Items    []Anime
	Page     int
	LastPage int
}

// ErrNotFound is what catalog providers wrap when the entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrNoEnrichment is what enrichers wrap when the source has no entry for a
// name. It is a cacheable answer, unlike a transport failure.
var ErrNoEnrichment = errors.New("no enrichment for name")

// Enrichment is the optional scraped add-on shown under a character.
type Enrichment struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// StreamingLink is the outcome of probing one streaming site for a title.
type StreamingLink struct {
	Site   string `json:"site"`
	URL    string `json:"url"`
	Direct bool   `json:"direct"` // false when URL is the site's search page
}
