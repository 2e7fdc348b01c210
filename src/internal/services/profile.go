package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/anidex/anidex/src/internal/domain"
	nav "github.com/anidex/anidex/src/internal/navigation"
	"github.com/anidex/anidex/src/internal/render"
)

const (
	profileItemLimit = 10
	titleWorkers     = 4
	statsGenreCount  = 3
)

func (b *Bot) profile(ctx context.Context, in domain.Interaction, p nav.Profile) []domain.Reply {
	var (
		text string
		kb   domain.Keyboard
		err  error
	)
	switch p.View {
	case nav.ProfileFavorites:
		text, kb, err = b.profileFavorites(ctx, in.UserID)
	case nav.ProfileWatchlist:
		text, kb, err = b.profileWatchlist(ctx, in.UserID, p.Status)
	case nav.ProfileStats:
		text, kb, err = b.profileStats(ctx, in.UserID)
	case nav.ProfileAchievements:
		var granted []domain.Achievement
		granted, err = b.store.ListAchievements(ctx, in.UserID)
		text, kb = b.render.ProfileAchievements(granted)
	case nav.ProfileRecommendations:
		var recs []domain.Anime
		recs, err = b.recommender.Personal(ctx, in.UserID, recommendationLimit)
		text, kb = b.render.ProfileRecommendations(recs)
	case nav.ProfileLists:
		text, kb, err = b.profileLists(ctx, in.UserID)
	default:
		text, kb = b.profileMain(ctx, in, nil)
	}
	if err != nil {
		b.log.Error().Err(err).Int64("user_id", in.UserID).Str("view", string(p.View)).Msg("profile view failed")
		return loadFailed()
	}
	return []domain.Reply{editReply(in, text, kb)}
}

func (b *Bot) profileMain(ctx context.Context, in domain.Interaction, fresh []domain.AchievementKind) (string, domain.Keyboard) {
	s := render.ProfileSummary{NewAchievements: fresh}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		s.User, err = b.store.GetUser(gctx, in.UserID)
		return err
	})
	g.Go(func() error {
		favs, err := b.store.ListFavorites(gctx, in.UserID)
		s.Favorites = len(favs)
		return err
	})
	g.Go(func() error {
		recs, err := b.store.ListWatchRecords(gctx, in.UserID, "")
		s.Tracked = len(recs)
		return err
	})
	g.Go(func() error {
		lists, err := b.store.ListLists(gctx, in.UserID)
		s.Lists = len(lists)
		return err
	})
	g.Go(func() error {
		ach, err := b.store.ListAchievements(gctx, in.UserID)
		s.Achievements = len(ach)
		return err
	})
	if err := g.Wait(); err != nil {
		b.log.Warn().Err(err).Int64("user_id", in.UserID).Msg("profile counts incomplete")
	}
	return b.render.ProfileMain(s)
}

// titles resolves anime ids for display, a few at a time. Ids the catalog
// cannot resolve keep an empty title.
func (b *Bot) titles(ctx context.Context, ids []int) []render.TitledItem {
	out := make([]render.TitledItem, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(titleWorkers)
	for i, id := range ids {
		g.Go(func() error {
			out[i] = render.TitledItem{AnimeID: id}
			if a := b.catalog.Anime(gctx, id); a != nil {
				out[i].Title = a.Title
				out[i].Episodes = a.Episodes
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (b *Bot) profileFavorites(ctx context.Context, userID int64) (string, domain.Keyboard, error) {
	favs, err := b.store.ListFavorites(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	ids := make([]int, 0, profileItemLimit)
	for _, f := range favs[:min(len(favs), profileItemLimit)] {
		ids = append(ids, f.AnimeID)
	}
	text, kb := b.render.ProfileFavorites(b.titles(ctx, ids), len(favs))
	return text, kb, nil
}

func (b *Bot) profileWatchlist(ctx context.Context, userID int64, status domain.WatchStatus) (string, domain.Keyboard, error) {
	recs, err := b.store.ListWatchRecords(ctx, userID, status)
	if err != nil {
		return "", nil, err
	}
	if status == "" {
		counts := make(map[domain.WatchStatus]int, len(domain.WatchStatuses))
		for _, r := range recs {
			counts[r.Status]++
		}
		text, kb := b.render.ProfileWatchlistPicker(counts)
		return text, kb, nil
	}

	shown := recs[:min(len(recs), profileItemLimit)]
	ids := make([]int, len(shown))
	for i, r := range shown {
		ids[i] = r.AnimeID
	}
	items := b.titles(ctx, ids)
	out := make([]render.TitledRecord, len(shown))
	for i, r := range shown {
		out[i] = render.TitledRecord{TitledItem: items[i], Record: r}
	}
	text, kb := b.render.ProfileWatchlist(status, out, len(recs))
	return text, kb, nil
}

func (b *Bot) profileStats(ctx context.Context, userID int64) (string, domain.Keyboard, error) {
	favs, err := b.store.ListFavorites(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	recs, err := b.store.ListWatchRecords(ctx, userID, "")
	if err != nil {
		return "", nil, err
	}
	ach, err := b.store.ListAchievements(ctx, userID)
	if err != nil {
		return "", nil, err
	}

	s := render.Stats{
		Favorites:    len(favs),
		ByStatus:     make(map[domain.WatchStatus]int, len(domain.WatchStatuses)),
		Achievements: len(ach),
	}
	total := 0
	for _, r := range recs {
		s.ByStatus[r.Status]++
		s.Episodes += r.Progress
		if r.Score != nil {
			total += *r.Score
			s.Scored++
		}
	}
	if s.Scored > 0 {
		s.MeanScore = float64(total) / float64(s.Scored)
	}

	genres, err := b.recommender.FavoriteGenres(ctx, userID, statsGenreCount)
	if err != nil {
		return "", nil, err
	}
	for _, g := range genres {
		s.TopGenres = append(s.TopGenres, g.Name)
	}
	text, kb := b.render.ProfileStats(s)
	return text, kb, nil
}

func (b *Bot) profileLists(ctx context.Context, userID int64) (string, domain.Keyboard, error) {
	lists, err := b.store.ListLists(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	views := make([]render.ListView, 0, len(lists))
	for _, l := range lists {
		items, err := b.store.ListItems(ctx, l.ID)
		if err != nil {
			return "", nil, err
		}
		ids := make([]int, len(items))
		for i, it := range items {
			ids[i] = it.AnimeID
		}
		// Only the shown entries need titles; the rest are counted.
		resolved := b.titles(ctx, ids[:min(len(ids), profileItemLimit)])
		for _, id := range ids[len(resolved):] {
			resolved = append(resolved, render.TitledItem{AnimeID: id})
		}
		views = append(views, render.ListView{List: l, Items: resolved})
	}
	text, kb := b.render.ProfileLists(views)
	return text, kb, nil
}
