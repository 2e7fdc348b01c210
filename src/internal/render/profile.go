package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/anidex/anidex/src/internal/domain"
	nav "github.com/anidex/anidex/src/internal/navigation"
)

const profileListLimit = 10

// TitledItem is an anime reference resolved for display. Title is empty when
// the catalog could not resolve it.
type TitledItem struct {
	AnimeID  int
	Title    string
	Episodes int
}

func (t TitledItem) name() string {
	if t.Title == "" {
		return "Anime #" + strconv.Itoa(t.AnimeID)
	}
	return Escape(t.Title)
}

type TitledRecord struct {
	TitledItem
	Record domain.WatchRecord
}

type ProfileSummary struct {
	User            *domain.User
	Favorites       int
	Tracked         int
	Lists           int
	Achievements    int
	NewAchievements []domain.AchievementKind
}

type Stats struct {
	Favorites    int
	ByStatus     map[domain.WatchStatus]int
	Episodes     int
	MeanScore    float64
	Scored       int
	TopGenres    []string
	Achievements int
}

type ListView struct {
	List  domain.CustomList
	Items []TitledItem
}

func backToProfile() []domain.Button {
	return []domain.Button{button("🔙 Back", nav.Profile{View: nav.ProfileMain})}
}

func profileKeyboard() domain.Keyboard {
	view := func(text string, v nav.ProfileView) domain.Button { return button(text, nav.Profile{View: v}) }
	return domain.Keyboard{
		{view("❤️ Favorites", nav.ProfileFavorites), view("📋 Watchlist", nav.ProfileWatchlist)},
		{view("📊 Stats", nav.ProfileStats), view("🏆 Achievements", nav.ProfileAchievements)},
		{view("🎯 Recommendations", nav.ProfileRecommendations), view("🗂️ My lists", nav.ProfileLists)},
	}
}

func (r *Renderer) ProfileMain(s ProfileSummary) (string, domain.Keyboard) {
	var b strings.Builder
	name := "Your"
	if s.User != nil && s.User.DisplayName != "" {
		name = Escape(s.User.DisplayName) + "'s"
	}
	fmt.Fprintf(&b, "👤 <b>%s anime profile</b>\n", name)
	if s.User != nil && !s.User.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "📆 Member since %s\n", s.User.CreatedAt.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "❤️ %d favorites · 📋 %d tracked · 🗂️ %d lists · 🏆 %d achievements\n",
		s.Favorites, s.Tracked, s.Lists, s.Achievements)
	if len(s.NewAchievements) > 0 {
		b.WriteString("\n" + AchievementNotice(s.NewAchievements) + "\n")
	}
	b.WriteString("Pick a view:")
	return FitHTML(b.String(), MessageLimit), profileKeyboard()
}

func writeMore(b *strings.Builder, total int) {
	if total > profileListLimit {
		fmt.Fprintf(b, "\n... and %d more", total-profileListLimit)
	}
}

func (r *Renderer) ProfileFavorites(items []TitledItem, total int) (string, domain.Keyboard) {
	if total == 0 {
		return "❤️ <b>Your favorites</b>\nNo favorites yet.", domain.Keyboard{backToProfile()}
	}
	var b strings.Builder
	b.WriteString("❤️ <b>Your favorites</b>\n")
	kb := domain.Keyboard{}
	here := nav.Profile{View: nav.ProfileFavorites}
	for i, it := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, it.name())
		if it.Title != "" {
			kb = append(kb, []domain.Button{button(label(it.Title), nav.ShowAnime{AnimeID: it.AnimeID, From: here})})
		}
	}
	writeMore(&b, total)
	kb = append(kb, backToProfile())
	return FitHTML(b.String(), MessageLimit), kb
}

func (r *Renderer) ProfileWatchlistPicker(counts map[domain.WatchStatus]int) (string, domain.Keyboard) {
	status := func(s domain.WatchStatus) domain.Button {
		return button(fmt.Sprintf("%s (%d)", statusLabels[s], counts[s]), nav.Profile{View: nav.ProfileWatchlist, Status: s})
	}
	kb := domain.Keyboard{
		{status(domain.WatchStatusPlanned), status(domain.WatchStatusWatching)},
		{status(domain.WatchStatusCompleted), status(domain.WatchStatusDropped)},
		backToProfile(),
	}
	return "📋 <b>Your watchlist</b>\nPick a category:", kb
}

func (r *Renderer) ProfileWatchlist(status domain.WatchStatus, recs []TitledRecord, total int) (string, domain.Keyboard) {
	back := domain.Keyboard{{button("🔙 Back", nav.Profile{View: nav.ProfileWatchlist})}}
	if total == 0 {
		return statusLabels[status] + "\nNothing in this category.", back
	}
	var b strings.Builder
	b.WriteString("<b>" + statusLabels[status] + "</b>\n")
	for i, rec := range recs {
		fmt.Fprintf(&b, "%d. %s", i+1, rec.name())
		if rec.Record.Progress > 0 {
			fmt.Fprintf(&b, " (%d/%s)", rec.Record.Progress, episodes(rec.Episodes))
		}
		if rec.Record.Score != nil {
			fmt.Fprintf(&b, " ⭐ %d", *rec.Record.Score)
		}
		b.WriteString("\n")
	}
	writeMore(&b, total)
	return FitHTML(b.String(), MessageLimit), back
}

func (r *Renderer) ProfileStats(s Stats) (string, domain.Keyboard) {
	var b strings.Builder
	b.WriteString("📊 <b>Your stats</b>\n")
	fmt.Fprintf(&b, "❤️ <b>Favorites</b>: %d\n", s.Favorites)
	total := 0
	for _, st := range domain.WatchStatuses {
		fmt.Fprintf(&b, "%s: %d\n", statusLabels[st], s.ByStatus[st])
		total += s.ByStatus[st]
	}
	fmt.Fprintf(&b, "📈 <b>Tracked</b>: %d\n", total)
	fmt.Fprintf(&b, "🎞️ <b>Episodes watched</b>: %d\n", s.Episodes)
	if s.Scored > 0 {
		fmt.Fprintf(&b, "⭐ <b>Mean score</b>: %.2f (%d rated)\n", s.MeanScore, s.Scored)
	}
	if len(s.TopGenres) > 0 {
		genres := make([]string, len(s.TopGenres))
		for i, g := range s.TopGenres {
			genres[i] = Escape(g)
		}
		fmt.Fprintf(&b, "🎭 <b>Top genres</b>: %s\n", strings.Join(genres, ", "))
	}
	fmt.Fprintf(&b, "🏆 <b>Achievements</b>: %d/%d", s.Achievements, len(domain.AchievementKinds))
	return FitHTML(b.String(), MessageLimit), domain.Keyboard{backToProfile()}
}

func (r *Renderer) ProfileAchievements(granted []domain.Achievement) (string, domain.Keyboard) {
	have := make(map[domain.AchievementKind]domain.Achievement, len(granted))
	for _, a := range granted {
		have[a.Kind] = a
	}

	var b strings.Builder
	b.WriteString("🏆 <b>Your achievements</b>\n")
	for _, k := range domain.AchievementKinds {
		if a, ok := have[k]; ok {
			fmt.Fprintf(&b, "✅ <b>%s</b>: %s\n   <i>Unlocked %s</i>\n", k.Title(), k.Description(), a.GrantedAt.Format("2006-01-02"))
		} else {
			fmt.Fprintf(&b, "🔒 %s: %s\n", k.Title(), k.Description())
		}
	}
	return FitHTML(b.String(), MessageLimit), domain.Keyboard{backToProfile()}
}

func (r *Renderer) ProfileRecommendations(recs []domain.Anime) (string, domain.Keyboard) {
	if len(recs) == 0 {
		return "🎯 <b>Recommendations</b>\nCould not build recommendations right now. Try again later.",
			domain.Keyboard{backToProfile()}
	}
	var b strings.Builder
	b.WriteString("🎯 <b>Recommendations</b>\nBased on your favorites and watchlist:\n")
	kb := make(domain.Keyboard, 0, len(recs)+1)
	here := nav.Profile{View: nav.ProfileRecommendations}
	for i, a := range recs {
		fmt.Fprintf(&b, "%d. %s ⭐ %s\n", i+1, Escape(a.Title), score(a.Score))
		kb = append(kb, []domain.Button{button(label(a.Title), nav.ShowAnime{AnimeID: a.ID, From: here})})
	}
	kb = append(kb, backToProfile())
	return FitHTML(b.String(), MessageLimit), kb
}

func (r *Renderer) ProfileLists(lists []ListView) (string, domain.Keyboard) {
	if len(lists) == 0 {
		return "🗂️ <b>Your lists</b>\nNo lists yet. Create one with /newlist &lt;name&gt;.", domain.Keyboard{backToProfile()}
	}
	var b strings.Builder
	b.WriteString("🗂️ <b>Your lists</b>\n")
	for _, l := range lists {
		fmt.Fprintf(&b, "\n<b>%s</b> (%d)\n", Escape(l.List.Name), len(l.Items))
		for i, it := range l.Items {
			if i == profileListLimit {
				fmt.Fprintf(&b, "... and %d more\n", len(l.Items)-profileListLimit)
				break
			}
			fmt.Fprintf(&b, "• %s\n", it.name())
		}
	}
	return FitHTML(b.String(), MessageLimit), domain.Keyboard{backToProfile()}
}

// AchievementNotice announces freshly granted achievements.
func AchievementNotice(kinds []domain.AchievementKind) string {
	var b strings.Builder
	b.WriteString("🎉 <b>New achievements unlocked!</b>")
	for _, k := range kinds {
		fmt.Fprintf(&b, "\n• <b>%s</b>: %s", k.Title(), k.Description())
	}
	return b.String()
}
