package services

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/anidex/anidex/src/internal/domain"
	nav "github.com/anidex/anidex/src/internal/navigation"
	"github.com/anidex/anidex/src/internal/render"
)

const maxListName = 64

var frenchDays = map[string]string{
	"lundi":    "monday",
	"mardi":    "tuesday",
	"mercredi": "wednesday",
	"jeudi":    "thursday",
	"vendredi": "friday",
	"samedi":   "saturday",
	"dimanche": "sunday",
}

// splitCommand turns "/search@AniDexBot One Piece" into ("search", "One
// Piece").
func splitCommand(payload string) (name, args string) {
	payload = strings.TrimPrefix(strings.TrimSpace(payload), "/")
	name, args, _ = strings.Cut(payload, " ")
	name, _, _ = strings.Cut(name, "@")
	return strings.ToLower(name), strings.TrimSpace(args)
}

func (b *Bot) command(ctx context.Context, in domain.Interaction, name, args string) []domain.Reply {
	switch name {
	case "start":
		return []domain.Reply{newReply(render.Welcome, render.StartKeyboard())}
	case "help", "aide":
		return []domain.Reply{newReply(render.Help, nil)}
	case "search", "recherche", "anime":
		if args == "" {
			return []domain.Reply{newReply(render.UsageSearch, nil)}
		}
		return b.searchAnime(ctx, in, args)
	case "season", "saison":
		return b.season(ctx, in, args)
	case "character", "personnage":
		if args == "" {
			return []domain.Reply{newReply(render.UsageCharacter, nil)}
		}
		return b.searchCharacters(ctx, in, args)
	case "top":
		filter := strings.ToLower(args)
		if filter == "" {
			filter = "all"
		}
		if !slices.Contains(domain.TopFilters, filter) {
			return []domain.Reply{newReply(render.UsageTop, nil)}
		}
		text, kb := b.top(ctx, filter, 1)
		return []domain.Reply{newReply(text, kb)}
	case "random":
		a := b.catalog.Random(ctx)
		if a == nil {
			return []domain.Reply{newReply(render.LoadFailed, nil)}
		}
		return b.showAnime(ctx, in, a, nil)
	case "schedule", "planning":
		day := strings.ToLower(args)
		if d, ok := frenchDays[day]; ok {
			day = d
		}
		switch day {
		case "", "semaine":
			day = "week"
		case "aujourd'hui":
			day = "today"
		}
		if day != "week" && day != "today" && !slices.Contains(domain.ScheduleDays, day) {
			return []domain.Reply{newReply(render.UsageSchedule, nil)}
		}
		text, kb := b.schedule(ctx, day)
		return []domain.Reply{newReply(text, kb)}
	case "profile", "profil":
		fresh := b.checkAchievements(ctx, in.UserID)
		text, kb := b.profileMain(ctx, in, fresh)
		return []domain.Reply{newReply(text, kb)}
	case "newlist":
		return b.newList(ctx, in, args)
	}
	return []domain.Reply{newReply(render.UnknownCommand, nil)}
}

func (b *Bot) season(ctx context.Context, in domain.Interaction, args string) []domain.Reply {
	fields := strings.Fields(strings.ToLower(args))
	if len(fields) != 2 {
		return []domain.Reply{newReply(render.UsageSeason, nil)}
	}
	year, err := strconv.Atoi(fields[0])
	season, ok := domain.ParseSeason(fields[1])
	if err != nil || !ok || year < 1917 || year > b.now().Year()+1 {
		return []domain.Reply{newReply(render.UsageSeason, nil)}
	}

	query := fmt.Sprintf("%d %s", year, season)
	items := b.catalog.Season(ctx, year, season, seasonFetchLimit)
	if len(items) == 0 {
		return []domain.Reply{newReply(render.NothingFound(query), nil)}
	}
	list := &domain.ResultList{
		Kind:  domain.ResultSeason,
		Query: query,
		Title: fmt.Sprintf("%s %d anime", strings.ToUpper(string(season[:1]))+string(season[1:]), year),
	}
	for _, a := range items {
		list.Items = append(list.Items, domain.ResultItem{ID: a.ID, Label: a.Title})
	}
	return b.storeResults(ctx, in, list, query)
}

func (b *Bot) newList(ctx context.Context, in domain.Interaction, name string) []domain.Reply {
	if name == "" || utf8.RuneCountInString(name) > maxListName {
		return []domain.Reply{newReply(render.UsageNewList, nil)}
	}
	if _, err := b.store.CreateList(ctx, in.UserID, name); err != nil {
		b.log.Error().Err(err).Int64("user_id", in.UserID).Msg("failed to create list")
		return []domain.Reply{newReply(render.LoadFailed, nil)}
	}
	return []domain.Reply{newReply(render.ListCreated(name), nil)}
}

func (b *Bot) top(ctx context.Context, filter string, page int) (string, domain.Keyboard) {
	p := b.catalog.Top(ctx, filter, page, topPageSize)
	if p == nil {
		return render.LoadFailed, domain.Keyboard{{{Text: "🔄 Retry", Data: nav.Encode(nav.Top{Filter: filter, Page: page})}}}
	}
	return b.render.Top(p, filter)
}
