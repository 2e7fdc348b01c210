package render

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/anidex/anidex/src/internal/domain"
	nav "github.com/anidex/anidex/src/internal/navigation"
)

var statusLabels = map[domain.WatchStatus]string{
	domain.WatchStatusPlanned:   "📥 Plan to watch",
	domain.WatchStatusWatching:  "👁️ Watching",
	domain.WatchStatusCompleted: "✅ Completed",
	domain.WatchStatusDropped:   "❌ Dropped",
}

var seasonLabels = map[domain.Season]string{
	domain.SeasonWinter: "Winter",
	domain.SeasonSpring: "Spring",
	domain.SeasonSummer: "Summer",
	domain.SeasonFall:   "Fall",
}

func button(text string, a nav.Action) domain.Button {
	return domain.Button{Text: text, Data: nav.Encode(a)}
}

func backToAnime(id int) domain.Keyboard {
	return domain.Keyboard{{button("🔙 Back to anime", nav.ShowAnime{AnimeID: id})}}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return Escape(s)
}

func episodes(n int) string {
	if n == 0 {
		return "?"
	}
	return strconv.Itoa(n)
}

func score(s float64) string {
	if s == 0 {
		return "N/A"
	}
	return strconv.FormatFloat(s, 'f', -1, 64)
}

func joinNames(refs []domain.NamedRef, limit int) string {
	names := make([]string, 0, len(refs))
	for i, r := range refs {
		if limit > 0 && i == limit {
			break
		}
		names = append(names, Escape(r.Name))
	}
	return strings.Join(names, ", ")
}

// WatchLine describes a watch record, e.g. "👁️ Watching · 3/12 episodes · ⭐ 8/10".
func WatchLine(rec *domain.WatchRecord, totalEpisodes int) string {
	parts := []string{statusLabels[rec.Status]}
	if rec.Progress > 0 || totalEpisodes > 0 {
		parts = append(parts, fmt.Sprintf("%d/%s episodes", rec.Progress, episodes(totalEpisodes)))
	}
	if rec.Score != nil {
		parts = append(parts, fmt.Sprintf("⭐ %d/10", *rec.Score))
	}
	return strings.Join(parts, " · ")
}

// AnimeCard is the photo caption and keyboard of an anime's main view.
func (r *Renderer) AnimeCard(a *domain.Anime, v Viewer) (string, domain.Keyboard) {
	var b strings.Builder
	fmt.Fprintf(&b, "🎌 <b>%s</b>", Escape(a.Title))
	if a.TitleJapanese != "" {
		fmt.Fprintf(&b, " (%s)", Escape(a.TitleJapanese))
	}
	b.WriteString("\n")
	if a.TitleEnglish != "" && a.TitleEnglish != a.Title {
		fmt.Fprintf(&b, "🇬🇧 %s\n", Escape(a.TitleEnglish))
	}
	fmt.Fprintf(&b, "📺 <b>Type</b>: %s · <b>Episodes</b>: %s\n", orNA(a.Type), episodes(a.Episodes))
	fmt.Fprintf(&b, "📊 <b>Status</b>: %s\n", orNA(a.Status))
	fmt.Fprintf(&b, "⭐ <b>Score</b>: %s/10", score(a.Score))
	if a.Rank > 0 {
		fmt.Fprintf(&b, " · <b>Rank</b> #%d", a.Rank)
	}
	if a.Popularity > 0 {
		fmt.Fprintf(&b, " · <b>Popularity</b> #%d", a.Popularity)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "📅 <b>Aired</b>: %s", orNA(a.Aired))
	if a.Season != "" && a.Year > 0 {
		fmt.Fprintf(&b, " (%s %d)", seasonLabels[a.Season], a.Year)
	}
	b.WriteString("\n")
	if len(a.Genres) > 0 {
		fmt.Fprintf(&b, "🎭 <b>Genres</b>: %s\n", joinNames(a.Genres, 0))
	}
	if v.Favorite {
		b.WriteString("❤️ In your favorites\n")
	}
	if v.Watch != nil {
		b.WriteString(WatchLine(v.Watch, a.Episodes) + "\n")
	}
	b.WriteString("👇 <i>Use the buttons for more</i>")

	return FitHTML(b.String(), CaptionLimit), animeKeyboard(a, v)
}

func animeKeyboard(a *domain.Anime, v Viewer) domain.Keyboard {
	id := a.ID
	media := []domain.Button{button("🏢 Studio", nav.Studio{AnimeID: id})}
	if a.TrailerURL != "" {
		media = append(media, button("🎬 Trailer", nav.Trailer{AnimeID: id}))
	}

	fav := "🤍 Add to favorites"
	if v.Favorite {
		fav = "❤️ Remove from favorites"
	}

	kb := domain.Keyboard{
		{button("📝 Synopsis", nav.Synopsis{AnimeID: id}), button("🔍 Details", nav.Details{AnimeID: id})},
		media,
		{button("👥 Characters", nav.Cast{AnimeID: id}), button("🎯 Similar", nav.Similar{AnimeID: id})},
		{button("📺 Streaming", nav.Streaming{AnimeID: id})},
		{button(fav, nav.ToggleFavorite{AnimeID: id, From: v.Back}), button("📋 Lists", nav.Lists{AnimeID: id})},
	}
	if v.Watch != nil {
		kb = append(kb, []domain.Button{button("📊 Progress", nav.ProgressEditor{AnimeID: id})})
	}
	if row := backToOrigin(v.Back); row != nil {
		kb = append(kb, row)
	}
	return kb
}

// backToOrigin is the row leading from a card back to the list it was
// picked from, or nil when there is none.
func backToOrigin(from nav.Action) []domain.Button {
	var text string
	switch from.(type) {
	case nav.Page:
		text = "🔙 Back to results"
	case nav.Top:
		text = "🔙 Back to top"
	case nav.Profile:
		text = "🔙 Back to profile"
	default:
		return nil
	}
	return []domain.Button{button(text, nav.Back{To: from})}
}

// Synopsis translates at most synopsisSourceLimit characters of the synopsis.
func (r *Renderer) Synopsis(ctx context.Context, a *domain.Anime, v Viewer) (string, domain.Keyboard) {
	text := "No synopsis available."
	if strings.TrimSpace(a.Synopsis) != "" {
		text = r.translate(ctx, Truncate(a.Synopsis, synopsisSourceLimit), v.Locale)
	}
	out := fmt.Sprintf("📝 <b>Synopsis of %s</b>:\n%s", Escape(a.Title), Escape(text))
	return FitHTML(out, MessageLimit), backToAnime(a.ID)
}

func (r *Renderer) Details(a *domain.Anime) (string, domain.Keyboard) {
	genres := joinNames(a.Genres, 0)
	if genres == "" {
		genres = "N/A"
	}
	out := fmt.Sprintf(
		"🔍 <b>Details of %s</b>:\n🎭 <b>Genres</b>: %s\n⏱️ <b>Duration</b>: %s\n📚 <b>Source</b>: %s\n🔞 <b>Rating</b>: %s",
		Escape(a.Title), genres, orNA(a.Duration), orNA(a.Source), orNA(a.Rating),
	)
	return FitHTML(out, MessageLimit), backToAnime(a.ID)
}

func (r *Renderer) Studio(a *domain.Anime) (string, domain.Keyboard) {
	studios := joinNames(a.Studios, 0)
	if studios == "" {
		studios = "Unknown"
	}
	producers := joinNames(a.Producers, 3)
	if producers == "" {
		producers = "Unknown"
	}
	out := fmt.Sprintf("🏢 <b>Production of %s</b>:\n🎬 <b>Studios</b>: %s\n👔 <b>Producers</b>: %s",
		Escape(a.Title), studios, producers)
	return FitHTML(out, MessageLimit), backToAnime(a.ID)
}

func (r *Renderer) Trailer(a *domain.Anime) (string, domain.Keyboard) {
	if a.TrailerURL == "" {
		return "❌ No trailer available for this anime.", backToAnime(a.ID)
	}
	out := fmt.Sprintf("🎬 <b>Trailer of %s</b>:\n%s", Escape(a.Title), Escape(a.TrailerURL))
	return FitHTML(out, MessageLimit), backToAnime(a.ID)
}

func (r *Renderer) Similar(a *domain.Anime, similar []domain.Anime) (string, domain.Keyboard) {
	if len(similar) == 0 {
		return "❌ No similar anime found. Try again later.", backToAnime(a.ID)
	}
	kb := make(domain.Keyboard, 0, len(similar)+1)
	for _, s := range similar {
		kb = append(kb, []domain.Button{button(label(s.Title), nav.ShowAnime{AnimeID: s.ID})})
	}
	kb = append(kb, backToAnime(a.ID)...)
	return fmt.Sprintf("🎯 <b>Similar to %s</b>\nBased on shared genres:", Escape(a.Title)), kb
}

func (r *Renderer) Streaming(a *domain.Anime, links []domain.StreamingLink) (string, domain.Keyboard) {
	var b strings.Builder
	fmt.Fprintf(&b, "📺 <b>Watch %s</b>\nWhere you might find it:\n", Escape(a.Title))
	kb := make(domain.Keyboard, 0, len(links)+1)
	for _, l := range links {
		kind := "search"
		if l.Direct {
			kind = "title page"
		}
		fmt.Fprintf(&b, "• <a href=\"%s\">%s</a> (%s)\n", Escape(l.URL), Escape(l.Site), kind)
		kb = append(kb, []domain.Button{{Text: l.Site, URL: l.URL}})
	}
	b.WriteString("\n🔍 <i>Links open the title page when the site has one, its search page otherwise.</i>")
	kb = append(kb, backToAnime(a.ID)...)
	return FitHTML(b.String(), MessageLimit), kb
}

// ListsPicker offers the watch statuses, the user's custom lists and, once
// the anime is tracked, the progress editor.
func (r *Renderer) ListsPicker(a *domain.Anime, rec *domain.WatchRecord, lists []domain.CustomList) (string, domain.Keyboard) {
	id := a.ID
	kb := domain.Keyboard{
		{
			button(statusLabels[domain.WatchStatusPlanned], nav.SetStatus{AnimeID: id, Status: domain.WatchStatusPlanned}),
			button(statusLabels[domain.WatchStatusWatching], nav.SetStatus{AnimeID: id, Status: domain.WatchStatusWatching}),
		},
		{
			button(statusLabels[domain.WatchStatusCompleted], nav.SetStatus{AnimeID: id, Status: domain.WatchStatusCompleted}),
			button(statusLabels[domain.WatchStatusDropped], nav.SetStatus{AnimeID: id, Status: domain.WatchStatusDropped}),
		},
	}
	for _, l := range lists {
		kb = append(kb, []domain.Button{button("➕ "+label(l.Name), nav.AddToList{ListID: l.ID, AnimeID: id})})
	}
	if rec != nil {
		kb = append(kb, []domain.Button{button("📊 Edit progress", nav.ProgressEditor{AnimeID: id})})
	}
	kb = append(kb, backToAnime(id)...)

	var b strings.Builder
	fmt.Fprintf(&b, "📋 <b>Lists for %s</b>\n", Escape(a.Title))
	if rec != nil {
		b.WriteString(WatchLine(rec, a.Episodes) + "\n")
	}
	if len(lists) == 0 {
		b.WriteString("<i>Create your own list with /newlist &lt;name&gt;.</i>\n")
	}
	b.WriteString("Pick an option:")
	return FitHTML(b.String(), MessageLimit), kb
}

// ProgressEditor shows -1/+1 buttons, dropping +1 once the counter reaches a
// known episode count, and a jump-to-end button when the count is known.
func (r *Renderer) ProgressEditor(a *domain.Anime, rec *domain.WatchRecord) (string, domain.Keyboard) {
	progress := 0
	if rec != nil {
		progress = rec.Progress
	}
	id := a.ID

	row := []domain.Button{
		button("➖", nav.AdjustProgress{AnimeID: id, Op: nav.ProgressDecrement}),
		button(strconv.Itoa(progress), nav.Noop{}),
	}
	if a.Episodes == 0 || progress < a.Episodes {
		row = append(row, button("➕", nav.AdjustProgress{AnimeID: id, Op: nav.ProgressIncrement}))
	}
	kb := domain.Keyboard{row}
	if a.Episodes > 0 {
		kb = append(kb, []domain.Button{
			button(fmt.Sprintf("✅ Finish (%d)", a.Episodes), nav.AdjustProgress{AnimeID: id, Op: nav.ProgressSet, Value: a.Episodes}),
		})
	}
	kb = append(kb, []domain.Button{button("🔙 Back", nav.Lists{AnimeID: id})})

	text := fmt.Sprintf("📊 <b>Progress on %s</b>\n%d/%s episodes", Escape(a.Title), progress, episodes(a.Episodes))
	if rec != nil {
		text += "\n" + WatchLine(rec, a.Episodes)
	}
	return FitHTML(text, MessageLimit), kb
}
