package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/anidex/anidex/src/internal/domain"
	"github.com/anidex/anidex/src/internal/metrics"
	nav "github.com/anidex/anidex/src/internal/navigation"
	"github.com/anidex/anidex/src/internal/render"
)

func (b *Bot) button(ctx context.Context, in domain.Interaction, a nav.Action) []domain.Reply {
	replies, mutated := b.dispatch(ctx, in, a)
	if mutated && nav.Mutates(a) {
		if fresh := b.checkAchievements(ctx, in.UserID); len(fresh) > 0 {
			replies = append(replies, newReply(render.AchievementNotice(fresh), nil))
		}
	}
	return replies
}

func (b *Bot) stale() []domain.Reply {
	metrics.StaleReferences.Inc()
	return []domain.Reply{newReply(render.Unavailable, nil)}
}

func loadFailed() []domain.Reply {
	return []domain.Reply{newReply(render.LoadFailed, nil)}
}

// dispatch handles one action and reports whether stored user state changed.
func (b *Bot) dispatch(ctx context.Context, in domain.Interaction, a nav.Action) ([]domain.Reply, bool) {
	switch act := a.(type) {
	case nav.Ignore:
		b.log.Debug().Str("payload", act.Raw).Msg("ignoring unknown button")
		return nil, false
	case nav.Noop:
		return nil, false
	case nav.Page:
		return b.page(ctx, in, act), false

	case nav.ShowAnime:
		return b.withAnime(ctx, act.AnimeID, func(an *domain.Anime) []domain.Reply {
			return b.showAnime(ctx, in, an, act.From)
		}), false
	case nav.Synopsis:
		return b.withAnime(ctx, act.AnimeID, func(an *domain.Anime) []domain.Reply {
			text, kb := b.render.Synopsis(ctx, an, render.Viewer{Locale: in.Locale})
			return []domain.Reply{newReply(text, kb)}
		}), false
	case nav.Details:
		return b.withAnime(ctx, act.AnimeID, func(an *domain.Anime) []domain.Reply {
			text, kb := b.render.Details(an)
			return []domain.Reply{newReply(text, kb)}
		}), false
	case nav.Studio:
		return b.withAnime(ctx, act.AnimeID, func(an *domain.Anime) []domain.Reply {
			text, kb := b.render.Studio(an)
			return []domain.Reply{newReply(text, kb)}
		}), false
	case nav.Trailer:
		return b.withAnime(ctx, act.AnimeID, func(an *domain.Anime) []domain.Reply {
			text, kb := b.render.Trailer(an)
			return []domain.Reply{newReply(text, kb)}
		}), false
	case nav.Cast:
		return b.cast(ctx, in, act.AnimeID), false
	case nav.ShowCharacter:
		return b.character(ctx, in, act), false
	case nav.Similar:
		return b.withAnime(ctx, act.AnimeID, func(an *domain.Anime) []domain.Reply {
			text, kb := b.render.Similar(an, b.recommender.Similar(ctx, an, similarLimit))
			return []domain.Reply{newReply(text, kb)}
		}), false
	case nav.Streaming:
		return b.withAnime(ctx, act.AnimeID, func(an *domain.Anime) []domain.Reply {
			text, kb := b.render.Streaming(an, b.streaming.Probe(ctx, an.Title))
			return []domain.Reply{newReply(text, kb)}
		}), false

	case nav.ToggleFavorite:
		return b.toggleFavorite(ctx, in, act.AnimeID, act.From)
	case nav.Lists:
		return b.withAnime(ctx, act.AnimeID, func(an *domain.Anime) []domain.Reply {
			text, kb, ok := b.listsPicker(ctx, in, an)
			if !ok {
				return loadFailed()
			}
			return []domain.Reply{newReply(text, kb)}
		}), false
	case nav.AddToList:
		return b.addToList(ctx, in, act)
	case nav.SetStatus:
		return b.setStatus(ctx, in, act)
	case nav.ProgressEditor:
		return b.withAnime(ctx, act.AnimeID, func(an *domain.Anime) []domain.Reply {
			rec, err := b.store.GetWatchRecord(ctx, in.UserID, an.ID)
			if err != nil {
				b.log.Error().Err(err).Int64("user_id", in.UserID).Msg("watch record lookup failed")
				return loadFailed()
			}
			text, kb := b.render.ProgressEditor(an, rec)
			return []domain.Reply{newReply(text, kb)}
		}), false
	case nav.AdjustProgress:
		return b.adjustProgress(ctx, in, act)

	case nav.Top:
		text, kb := b.top(ctx, act.Filter, act.Page)
		return []domain.Reply{editReply(in, text, kb)}, false
	case nav.Schedule:
		text, kb := b.schedule(ctx, act.Day)
		return []domain.Reply{editReply(in, text, kb)}, false
	case nav.Profile:
		return b.profile(ctx, in, act), false
	case nav.Back:
		return asNew(b.dispatch(ctx, in, act.To))
	}

	b.log.Warn().Str("action", a.Name()).Msg("unhandled action")
	return nil, false
}

// asNew turns edits into new messages. Back is pressed under a photo card,
// whose caption cannot become a text list.
func asNew(replies []domain.Reply, mutated bool) ([]domain.Reply, bool) {
	for i := range replies {
		replies[i].Discipline = domain.DisciplineNew
		replies[i].EditMessageID = 0
	}
	return replies, mutated
}

func (b *Bot) withAnime(ctx context.Context, id int, fn func(*domain.Anime) []domain.Reply) []domain.Reply {
	a := b.catalog.Anime(ctx, id)
	if a == nil {
		return loadFailed()
	}
	return fn(a)
}

// page re-renders a stored result list. A list that expired, was replaced by
// a different kind, or is shorter than the requested page is stale.
func (b *Bot) page(ctx context.Context, in domain.Interaction, p nav.Page) []domain.Reply {
	list, err := b.sessions.GetResults(ctx, in.UserID, p.Key)
	if err != nil {
		b.log.Error().Err(err).Int64("user_id", in.UserID).Msg("session read failed")
		return b.stale()
	}
	if list == nil || list.Kind != p.Kind {
		return b.stale()
	}
	text, kb, ok := b.render.ResultPage(list, p.Key, p.Index)
	if !ok {
		return b.stale()
	}
	return []domain.Reply{editReply(in, text, kb)}
}

func (b *Bot) cast(ctx context.Context, in domain.Interaction, animeID int) []domain.Reply {
	return b.withAnime(ctx, animeID, func(an *domain.Anime) []domain.Reply {
		roles := b.catalog.Characters(ctx, an.ID)
		if len(roles) == 0 {
			return []domain.Reply{newReply(render.NothingFound(an.Title), nil)}
		}
		query := strconv.Itoa(an.ID)
		list := &domain.ResultList{Kind: domain.ResultAnimeCast, Query: query, Title: an.Title}
		for _, r := range roles {
			list.Items = append(list.Items, domain.ResultItem{ID: r.CharacterID, Label: r.Name, Detail: r.Role})
		}
		return b.storeResults(ctx, in, list, query)
	})
}

func (b *Bot) character(ctx context.Context, in domain.Interaction, act nav.ShowCharacter) []domain.Reply {
	c := b.catalog.Character(ctx, act.CharacterID)
	if c == nil {
		return loadFailed()
	}
	e, err := b.enrichment.Lookup(ctx, c.Name)
	if err != nil {
		b.log.Debug().Err(err).Int("character_id", c.ID).Msg("enrichment skipped")
	}
	text, kb := b.render.CharacterCard(ctx, c, e, render.Viewer{Locale: in.Locale, Back: act.From}, act.FromAnimeID)
	return []domain.Reply{photoReply(c.ImageURL, text, kb)}
}

// toggleFavorite flips the favorite and edits the card's caption in place,
// keeping the card's way back to from.
func (b *Bot) toggleFavorite(ctx context.Context, in domain.Interaction, animeID int, from nav.Action) ([]domain.Reply, bool) {
	a := b.catalog.Anime(ctx, animeID)
	if a == nil {
		return loadFailed(), false
	}

	fav, err := b.store.IsFavorite(ctx, in.UserID, animeID)
	if err == nil {
		if fav {
			_, err = b.store.RemoveFavorite(ctx, in.UserID, animeID)
		} else {
			err = b.store.AddFavorite(ctx, in.UserID, animeID)
		}
	}
	if err != nil {
		b.log.Error().Err(err).Int64("user_id", in.UserID).Int("anime_id", animeID).Msg("favorite toggle failed")
		return loadFailed(), false
	}

	v := b.viewer(ctx, in, animeID)
	v.Back = from
	text, kb := b.render.AnimeCard(a, v)
	r := editReply(in, text, kb)
	r.Photo = a.ImageURL
	r.Notice = "❤️ Added to favorites"
	if fav {
		r.Notice = "💔 Removed from favorites"
	}
	return []domain.Reply{r}, true
}

func (b *Bot) listsPicker(ctx context.Context, in domain.Interaction, a *domain.Anime) (string, domain.Keyboard, bool) {
	rec, err := b.store.GetWatchRecord(ctx, in.UserID, a.ID)
	if err != nil {
		b.log.Error().Err(err).Int64("user_id", in.UserID).Msg("watch record lookup failed")
		return "", nil, false
	}
	lists, err := b.store.ListLists(ctx, in.UserID)
	if err != nil {
		b.log.Error().Err(err).Int64("user_id", in.UserID).Msg("list lookup failed")
		return "", nil, false
	}
	text, kb := b.render.ListsPicker(a, rec, lists)
	return text, kb, true
}

func (b *Bot) addToList(ctx context.Context, in domain.Interaction, act nav.AddToList) ([]domain.Reply, bool) {
	list, err := b.store.GetList(ctx, in.UserID, act.ListID)
	if err != nil {
		b.log.Error().Err(err).Int64("user_id", in.UserID).Msg("list lookup failed")
		return loadFailed(), false
	}
	if list == nil {
		return b.stale(), false
	}
	a := b.catalog.Anime(ctx, act.AnimeID)
	if a == nil {
		return loadFailed(), false
	}
	if err := b.store.AddListItem(ctx, list.ID, a.ID); err != nil {
		b.log.Error().Err(err).Int64("list_id", list.ID).Msg("failed to add list item")
		return loadFailed(), false
	}

	text, kb, ok := b.listsPicker(ctx, in, a)
	if !ok {
		return loadFailed(), true
	}
	r := editReply(in, text, kb)
	r.Notice = "🗂️ Added to " + list.Name
	return []domain.Reply{r}, true
}

func (b *Bot) setStatus(ctx context.Context, in domain.Interaction, act nav.SetStatus) ([]domain.Reply, bool) {
	a := b.catalog.Anime(ctx, act.AnimeID)
	if a == nil {
		return loadFailed(), false
	}
	status := act.Status
	if _, err := b.store.UpsertWatchRecord(ctx, in.UserID, a.ID, domain.WatchUpdate{Status: &status}); err != nil {
		b.log.Error().Err(err).Int64("user_id", in.UserID).Msg("failed to set status")
		return loadFailed(), false
	}

	text, kb, ok := b.listsPicker(ctx, in, a)
	if !ok {
		return loadFailed(), true
	}
	r := editReply(in, text, kb)
	r.Notice = "📋 Status updated"
	return []domain.Reply{r}, true
}

// adjustProgress moves the episode counter within [0, episodes], or [0, ∞)
// when the count is unknown. Reaching a known count completes the title in
// the same write; a change that would not move the counter writes nothing.
func (b *Bot) adjustProgress(ctx context.Context, in domain.Interaction, act nav.AdjustProgress) ([]domain.Reply, bool) {
	a := b.catalog.Anime(ctx, act.AnimeID)
	if a == nil {
		return loadFailed(), false
	}
	rec, err := b.store.GetWatchRecord(ctx, in.UserID, a.ID)
	if err != nil {
		b.log.Error().Err(err).Int64("user_id", in.UserID).Msg("watch record lookup failed")
		return loadFailed(), false
	}

	current := 0
	if rec != nil {
		current = rec.Progress
	}
	next := current
	switch act.Op {
	case nav.ProgressIncrement:
		next++
	case nav.ProgressDecrement:
		next--
	case nav.ProgressSet:
		next = act.Value
	}
	next = max(next, 0)
	if a.Episodes > 0 {
		next = min(next, a.Episodes)
	}

	if next == current {
		text, kb := b.render.ProgressEditor(a, rec)
		r := editReply(in, text, kb)
		r.Notice = fmt.Sprintf("Progress stays at %d", current)
		return []domain.Reply{r}, false
	}

	update := domain.WatchUpdate{Progress: &next}
	switch {
	case a.Episodes > 0 && next == a.Episodes:
		st := domain.WatchStatusCompleted
		update.Status = &st
	case rec == nil:
		st := domain.WatchStatusWatching
		update.Status = &st
	}
	rec, err = b.store.UpsertWatchRecord(ctx, in.UserID, a.ID, update)
	if err != nil {
		b.log.Error().Err(err).Int64("user_id", in.UserID).Msg("failed to update progress")
		return loadFailed(), false
	}

	text, kb := b.render.ProgressEditor(a, rec)
	r := editReply(in, text, kb)
	r.Notice = fmt.Sprintf("📊 Episode %d", next)
	if update.Status != nil && *update.Status == domain.WatchStatusCompleted {
		r.Notice = "✅ Completed!"
	}
	return []domain.Reply{r}, true
}

func (b *Bot) today() string {
	return strings.ToLower(b.now().Weekday().String())
}

// schedule renders one weekday, or all seven fetched in parallel for "week".
func (b *Bot) schedule(ctx context.Context, day string) (string, domain.Keyboard) {
	if day == "today" {
		day = b.today()
	}
	if day != "week" {
		return b.render.ScheduleDay(render.DaySchedule{Day: day, Items: b.catalog.Schedule(ctx, day)})
	}

	days := make([]render.DaySchedule, len(domain.ScheduleDays))
	g, gctx := errgroup.WithContext(ctx)
	for i, d := range domain.ScheduleDays {
		g.Go(func() error {
			days[i] = render.DaySchedule{Day: d, Items: b.catalog.Schedule(gctx, d)}
			return nil
		})
	}
	_ = g.Wait()
	return b.render.ScheduleWeek(days)
}
