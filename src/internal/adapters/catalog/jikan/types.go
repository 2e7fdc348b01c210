package jikan

import (
	"strings"

	"github.com/anidex/anidex/src/internal/domain"
)

// Responses

type images struct {
	JPG struct {
		ImageURL      string `json:"image_url"`
		LargeImageURL string `json:"large_image_url"`
	} `json:"jpg"`
}

func (i images) best() string {
	if i.JPG.LargeImageURL != "" {
		return i.JPG.LargeImageURL
	}
	return i.JPG.ImageURL
}

type namedRef struct {
	MalID int    `json:"mal_id"`
	Name  string `json:"name"`
}

type animeData struct {
	MalID   int    `json:"mal_id"`
	Images  images `json:"images"`
	Trailer struct {
		YoutubeID string `json:"youtube_id"`
		URL       string `json:"url"`
	} `json:"trailer"`
	Title         string  `json:"title"`
	TitleEnglish  string  `json:"title_english"`
	TitleJapanese string  `json:"title_japanese"`
	Type          string  `json:"type"`
	Source        string  `json:"source"`
	Episodes      int     `json:"episodes"`
	Status        string  `json:"status"`
	Duration      string  `json:"duration"`
	Rating        string  `json:"rating"`
	Score         float64 `json:"score"`
	Rank          int     `json:"rank"`
	Popularity    int     `json:"popularity"`
	Synopsis      string  `json:"synopsis"`
	Season        string  `json:"season"`
	Year          int     `json:"year"`
	Aired         struct {
		String string `json:"string"`
		Prop   struct {
			From struct {
				Year int `json:"year"`
			} `json:"from"`
		} `json:"prop"`
	} `json:"aired"`
	Studios   []namedRef `json:"studios"`
	Producers []namedRef `json:"producers"`
	Genres    []namedRef `json:"genres"`
}

type pagination struct {
	LastVisiblePage int  `json:"last_visible_page"`
	HasNextPage     bool `json:"has_next_page"`
}

type animeListResponse struct {
	Data       []animeData `json:"data"`
	Pagination pagination  `json:"pagination"`
}

type animeResponse struct {
	Data *animeData `json:"data"`
}

type castResponse struct {
	Data []struct {
		Character struct {
			MalID  int    `json:"mal_id"`
			Name   string `json:"name"`
			Images images `json:"images"`
		} `json:"character"`
		Role string `json:"role"`
	} `json:"data"`
}

type characterData struct {
	MalID     int      `json:"mal_id"`
	Name      string   `json:"name"`
	NameKanji string   `json:"name_kanji"`
	Nicknames []string `json:"nicknames"`
	Favorites int      `json:"favorites"`
	About     string   `json:"about"`
	Images    images   `json:"images"`
	Anime     []struct {
		Role  string `json:"role"`
		Anime struct {
			MalID int    `json:"mal_id"`
			Title string `json:"title"`
		} `json:"anime"`
	} `json:"anime"`
	Voices []struct {
		Language string `json:"language"`
		Person   struct {
			Name string `json:"name"`
		} `json:"person"`
	} `json:"voices"`
}

type characterResponse struct {
	Data *characterData `json:"data"`
}

type characterListResponse struct {
	Data []characterData `json:"data"`
}

func toRefs(in []namedRef) []domain.NamedRef {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.NamedRef, 0, len(in))
	for _, r := range in {
		out = append(out, domain.NamedRef{ID: r.MalID, Name: r.Name})
	}
	return out
}

func (d *animeData) toDomain() domain.Anime {
	a := domain.Anime{
		ID:            d.MalID,
		Title:         d.Title,
		TitleEnglish:  d.TitleEnglish,
		TitleJapanese: d.TitleJapanese,
		Synopsis:      d.Synopsis,
		Type:          d.Type,
		Episodes:      d.Episodes,
		Status:        d.Status,
		Score:         d.Score,
		Rank:          d.Rank,
		Popularity:    d.Popularity,
		Year:          d.Year,
		Aired:         d.Aired.String,
		Duration:      d.Duration,
		Rating:        d.Rating,
		Source:        d.Source,
		ImageURL:      d.Images.best(),
		Genres:        toRefs(d.Genres),
		Studios:       toRefs(d.Studios),
		Producers:     toRefs(d.Producers),
	}
	if s, ok := domain.ParseSeason(strings.ToLower(d.Season)); ok {
		a.Season = s
	}
	// Older titles carry no "year" but do carry an airing start date.
	if a.Year == 0 {
		a.Year = d.Aired.Prop.From.Year
	}
	switch {
	case d.Trailer.URL != "":
		a.TrailerURL = d.Trailer.URL
	case d.Trailer.YoutubeID != "":
		a.TrailerURL = "https://www.youtube.com/watch?v=" + d.Trailer.YoutubeID
	}
	return a
}

func (d *characterData) toDomain() domain.Character {
	c := domain.Character{
		ID:        d.MalID,
		Name:      d.Name,
		NameKanji: d.NameKanji,
		Nicknames: d.Nicknames,
		About:     d.About,
		ImageURL:  d.Images.best(),
		Favorites: d.Favorites,
	}
	if len(c.Nicknames) == 0 {
		c.Nicknames = nil
	}
	for _, a := range d.Anime {
		c.Anime = append(c.Anime, domain.CharacterAppearance{
			AnimeID: a.Anime.MalID,
			Title:   a.Anime.Title,
			Role:    a.Role,
		})
	}
	for _, v := range d.Voices {
		c.VoiceActors = append(c.VoiceActors, domain.VoiceActor{Name: v.Person.Name, Language: v.Language})
	}
	return c
}
