package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/anidex/anidex/src/internal/domain"
	"github.com/anidex/anidex/src/internal/logging"
	"github.com/anidex/anidex/src/internal/metrics"
	nav "github.com/anidex/anidex/src/internal/navigation"
	"github.com/anidex/anidex/src/internal/ports"
	"github.com/anidex/anidex/src/internal/render"
)

const (
	searchFetchLimit    = 25
	seasonFetchLimit    = 20
	characterFetchLimit = 25
	topPageSize         = 10
	similarLimit        = 5
	recommendationLimit = 5
)

type BotDeps struct {
	Store        ports.EntityStore
	Sessions     ports.SessionStore
	Catalog      *CatalogService
	Recommender  *Recommender
	Achievements *AchievementService
	Enrichment   *EnrichmentService
	Streaming    ports.StreamingProber
	Renderer     *render.Renderer
	// Username is the bot's handle without "@", used to spot mentions in
	// group chats.
	Username string
}

// Bot turns one inbound interaction into the replies the transport should
// deliver. It holds no per-user state of its own: paged lists live in the
// session store and everything else in the entity store.
type Bot struct {
	store        ports.EntityStore
	sessions     ports.SessionStore
	catalog      *CatalogService
	recommender  *Recommender
	achievements *AchievementService
	enrichment   *EnrichmentService
	streaming    ports.StreamingProber
	render       *render.Renderer
	username     string
	now          func() time.Time
	log          zerolog.Logger
}

func NewBot(d BotDeps) *Bot {
	return &Bot{
		store:        d.Store,
		sessions:     d.Sessions,
		catalog:      d.Catalog,
		recommender:  d.Recommender,
		achievements: d.Achievements,
		enrichment:   d.Enrichment,
		streaming:    d.Streaming,
		render:       d.Renderer,
		username:     strings.ToLower(strings.TrimPrefix(d.Username, "@")),
		now:          time.Now,
		log:          logging.WithComponent("bot"),
	}
}

// Handle never fails: collaborator errors are logged and answered with the
// matching user-facing copy.
func (b *Bot) Handle(ctx context.Context, in domain.Interaction) []domain.Reply {
	b.touchUser(ctx, in)

	switch in.Kind {
	case domain.InteractionCommand:
		name, args := splitCommand(in.Payload)
		metrics.InteractionsTotal.WithLabelValues(string(in.Kind), name).Inc()
		return b.command(ctx, in, name, args)

	case domain.InteractionText:
		metrics.InteractionsTotal.WithLabelValues(string(in.Kind), "search").Inc()
		text := strings.TrimSpace(in.Payload)
		if in.Group {
			var mentioned bool
			text, mentioned = b.stripMention(text)
			if !mentioned {
				return nil
			}
			if text == "" {
				return []domain.Reply{newReply(render.UsageMention, nil)}
			}
		}
		if text == "" {
			return nil
		}
		return b.searchAnime(ctx, in, text)

	case domain.InteractionButton:
		a := nav.Decode(in.Payload)
		metrics.InteractionsTotal.WithLabelValues(string(in.Kind), a.Name()).Inc()
		return b.button(ctx, in, a)
	}
	return nil
}

func (b *Bot) touchUser(ctx context.Context, in domain.Interaction) {
	u := &domain.User{ID: in.UserID, Handle: in.Handle, DisplayName: in.DisplayName, Locale: in.Locale}
	if err := b.store.AddUser(ctx, u); err != nil {
		b.log.Error().Err(err).Int64("user_id", in.UserID).Msg("failed to upsert user")
	}
}

// stripMention removes "@username" from text and reports whether it was
// there.
func (b *Bot) stripMention(text string) (string, bool) {
	if b.username == "" {
		return text, false
	}
	mention := "@" + b.username
	i := strings.Index(strings.ToLower(text), mention)
	if i < 0 {
		return text, false
	}
	out := text[:i] + text[i+len(mention):]
	return strings.Join(strings.Fields(out), " "), true
}

func newReply(text string, kb domain.Keyboard) domain.Reply {
	return domain.Reply{Text: text, Keyboard: kb, Discipline: domain.DisciplineNew}
}

// editReply replaces the message the button was pressed on, or sends a new
// one when the transport did not say which message that was.
func editReply(in domain.Interaction, text string, kb domain.Keyboard) domain.Reply {
	if in.MessageID == 0 {
		return newReply(text, kb)
	}
	return domain.Reply{Text: text, Keyboard: kb, Discipline: domain.DisciplineEdit, EditMessageID: in.MessageID}
}

func photoReply(photo, text string, kb domain.Keyboard) domain.Reply {
	r := newReply(text, kb)
	r.Photo = photo
	return r
}

func (b *Bot) viewer(ctx context.Context, in domain.Interaction, animeID int) render.Viewer {
	v := render.Viewer{Locale: in.Locale}
	if animeID == 0 {
		return v
	}
	fav, err := b.store.IsFavorite(ctx, in.UserID, animeID)
	if err != nil {
		b.log.Warn().Err(err).Int64("user_id", in.UserID).Msg("favorite lookup failed")
	}
	v.Favorite = fav
	rec, err := b.store.GetWatchRecord(ctx, in.UserID, animeID)
	if err != nil {
		b.log.Warn().Err(err).Int64("user_id", in.UserID).Msg("watch record lookup failed")
	}
	v.Watch = rec
	return v
}

// storeResults saves list for paging and renders its first page.
func (b *Bot) storeResults(ctx context.Context, in domain.Interaction, list *domain.ResultList, query string) []domain.Reply {
	key := nav.SessionKey(list.Kind, query)
	if err := b.sessions.PutResults(ctx, in.UserID, key, list); err != nil {
		b.log.Error().Err(err).Int64("user_id", in.UserID).Msg("failed to store result list")
	}
	text, kb, ok := b.render.ResultPage(list, key, 0)
	if !ok {
		return []domain.Reply{newReply(render.NothingFound(query), nil)}
	}
	return []domain.Reply{newReply(text, kb)}
}

func (b *Bot) searchAnime(ctx context.Context, in domain.Interaction, query string) []domain.Reply {
	items := b.catalog.SearchAnime(ctx, query, searchFetchLimit)
	if len(items) == 0 {
		return []domain.Reply{newReply(render.NothingFound(query), nil)}
	}
	list := &domain.ResultList{Kind: domain.ResultAnimeSearch, Query: query}
	for _, a := range items {
		list.Items = append(list.Items, domain.ResultItem{ID: a.ID, Label: a.Title})
	}
	return b.storeResults(ctx, in, list, query)
}

func (b *Bot) searchCharacters(ctx context.Context, in domain.Interaction, query string) []domain.Reply {
	items := b.catalog.SearchCharacters(ctx, query, characterFetchLimit)
	if len(items) == 0 {
		return []domain.Reply{newReply(render.NothingFound(query), nil)}
	}
	list := &domain.ResultList{Kind: domain.ResultCharacterSearch, Query: query}
	for _, c := range items {
		list.Items = append(list.Items, domain.ResultItem{ID: c.ID, Label: c.Name})
	}
	return b.storeResults(ctx, in, list, query)
}

// showAnime sends the card for a. from is the list it was picked from, or nil.
func (b *Bot) showAnime(ctx context.Context, in domain.Interaction, a *domain.Anime, from nav.Action) []domain.Reply {
	v := b.viewer(ctx, in, a.ID)
	v.Back = from
	text, kb := b.render.AnimeCard(a, v)
	return []domain.Reply{photoReply(a.ImageURL, text, kb)}
}

func (b *Bot) checkAchievements(ctx context.Context, userID int64) []domain.AchievementKind {
	fresh, err := b.achievements.Check(ctx, userID)
	if err != nil {
		b.log.Error().Err(err).Int64("user_id", userID).Msg("achievement check failed")
	}
	return fresh
}
