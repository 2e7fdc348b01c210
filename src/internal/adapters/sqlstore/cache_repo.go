package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/anidex/anidex/src/internal/domain"
)

// PutAnime overwrites the whole cached snapshot.
func (s *Store) PutAnime(ctx context.Context, a *domain.Anime) error {
	genres, err := marshalBlob(a.Genres)
	if err != nil {
		return err
	}
	studios, err := marshalBlob(a.Studios)
	if err != nil {
		return err
	}
	producers, err := marshalBlob(a.Producers)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO anime_cache (
			id, title, title_english, title_japanese, synopsis, type, episodes, status,
			score, rank, popularity, year, season, aired, duration, rating, source,
			image_url, trailer_url, genres, studios, producers, cached_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			title_english = excluded.title_english,
			title_japanese = excluded.title_japanese,
			synopsis = excluded.synopsis,
			type = excluded.type,
			episodes = excluded.episodes,
			status = excluded.status,
			score = excluded.score,
			rank = excluded.rank,
			popularity = excluded.popularity,
			year = excluded.year,
			season = excluded.season,
			aired = excluded.aired,
			duration = excluded.duration,
			rating = excluded.rating,
			source = excluded.source,
			image_url = excluded.image_url,
			trailer_url = excluded.trailer_url,
			genres = excluded.genres,
			studios = excluded.studios,
			producers = excluded.producers,
			cached_at = excluded.cached_at
	`
	_, err = s.exec(ctx, query,
		a.ID, a.Title, a.TitleEnglish, a.TitleJapanese, a.Synopsis, a.Type, a.Episodes, a.Status,
		a.Score, a.Rank, a.Popularity, a.Year, string(a.Season), a.Aired, a.Duration, a.Rating, a.Source,
		a.ImageURL, a.TrailerURL, genres, studios, producers, s.stamp(a.CachedAt),
	)
	return err
}

func (s *Store) GetAnime(ctx context.Context, id int) (*domain.Anime, error) {
	query := `
		SELECT id, title, title_english, title_japanese, synopsis, type, episodes, status,
			score, rank, popularity, year, season, aired, duration, rating, source,
			image_url, trailer_url, genres, studios, producers, cached_at
		FROM anime_cache
		WHERE id = ?
	`
	var (
		a                          domain.Anime
		season                     string
		genres, studios, producers string
	)
	err := s.queryRow(ctx, query, id).Scan(
		&a.ID, &a.Title, &a.TitleEnglish, &a.TitleJapanese, &a.Synopsis, &a.Type, &a.Episodes, &a.Status,
		&a.Score, &a.Rank, &a.Popularity, &a.Year, &season, &a.Aired, &a.Duration, &a.Rating, &a.Source,
		&a.ImageURL, &a.TrailerURL, &genres, &studios, &producers, &a.CachedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.Season = domain.Season(season)
	if err := unmarshalBlob(genres, &a.Genres); err != nil {
		return nil, err
	}
	if err := unmarshalBlob(studios, &a.Studios); err != nil {
		return nil, err
	}
	if err := unmarshalBlob(producers, &a.Producers); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) PutCharacter(ctx context.Context, c *domain.Character) error {
	nicknames, err := marshalBlob(c.Nicknames)
	if err != nil {
		return err
	}
	anime, err := marshalBlob(c.Anime)
	if err != nil {
		return err
	}
	voices, err := marshalBlob(c.VoiceActors)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO character_cache (id, name, name_kanji, about, image_url, favorites, nicknames, anime, voice_actors, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			name_kanji = excluded.name_kanji,
			about = excluded.about,
			image_url = excluded.image_url,
			favorites = excluded.favorites,
			nicknames = excluded.nicknames,
			anime = excluded.anime,
			voice_actors = excluded.voice_actors,
			cached_at = excluded.cached_at
	`
	_, err = s.exec(ctx, query,
		c.ID, c.Name, c.NameKanji, c.About, c.ImageURL, c.Favorites, nicknames, anime, voices, s.stamp(c.CachedAt),
	)
	return err
}

func (s *Store) GetCharacter(ctx context.Context, id int) (*domain.Character, error) {
	query := `
		SELECT id, name, name_kanji, about, image_url, favorites, nicknames, anime, voice_actors, cached_at
		FROM character_cache
		WHERE id = ?
	`
	var (
		c                        domain.Character
		nicknames, anime, voices string
	)
	err := s.queryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.NameKanji, &c.About, &c.ImageURL, &c.Favorites, &nicknames, &anime, &voices, &c.CachedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := unmarshalBlob(nicknames, &c.Nicknames); err != nil {
		return nil, err
	}
	if err := unmarshalBlob(anime, &c.Anime); err != nil {
		return nil, err
	}
	if err := unmarshalBlob(voices, &c.VoiceActors); err != nil {
		return nil, err
	}
	return &c, nil
}

// marshalBlob always yields a JSON array so the NOT NULL blob columns never
// hold "null".
func marshalBlob[T any](v []T) (string, error) {
	if v == nil {
		v = []T{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode blob: %w", err)
	}
	return string(b), nil
}

func unmarshalBlob[T any](raw string, dst *[]T) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("failed to decode blob: %w", err)
	}
	if len(*dst) == 0 {
		*dst = nil
	}
	return nil
}
