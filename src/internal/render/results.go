package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/anidex/anidex/src/internal/domain"
	nav "github.com/anidex/anidex/src/internal/navigation"
)

const (
	scheduleDayLimit  = 10
	scheduleWeekLimit = 5
)

// PageSize is how many items of a result list fit on one page.
func PageSize(kind domain.ResultKind) int {
	switch kind {
	case domain.ResultCharacterSearch, domain.ResultAnimeCast:
		return 10
	}
	return 5
}

func pageCount(n, size int) int {
	if n == 0 {
		return 0
	}
	return (n + size - 1) / size
}

// ResultPage renders page index of list. ok is false when the page does not
// exist, which callers report as stale data rather than an empty page.
func (r *Renderer) ResultPage(list *domain.ResultList, key string, index int) (text string, kb domain.Keyboard, ok bool) {
	size := PageSize(list.Kind)
	total := pageCount(len(list.Items), size)
	if index < 0 || index >= total {
		return "", nil, false
	}
	start := index * size
	end := min(start+size, len(list.Items))
	items := list.Items[start:end]

	var b strings.Builder
	switch list.Kind {
	case domain.ResultAnimeSearch:
		fmt.Fprintf(&b, "🔍 %d anime found for « %s »:\nPick one:", len(list.Items), Escape(list.Query))
	case domain.ResultSeason:
		fmt.Fprintf(&b, "📅 <b>%s</b>\nFound %d anime. Pick one:", Escape(list.Title), len(list.Items))
	case domain.ResultCharacterSearch:
		fmt.Fprintf(&b, "👤 Characters found for « %s »:\nPick one:", Escape(list.Query))
	case domain.ResultAnimeCast:
		fmt.Fprintf(&b, "👥 <b>Characters of %s</b>\n", Escape(list.Title))
		for i, it := range items {
			fmt.Fprintf(&b, "%d. %s", start+i+1, Escape(it.Label))
			if it.Detail != "" {
				fmt.Fprintf(&b, " (%s)", Escape(it.Detail))
			}
			b.WriteString("\n")
		}
	}

	castOf := 0
	if list.Kind == domain.ResultAnimeCast {
		if id, err := strconv.Atoi(list.Query); err == nil && id > 0 {
			castOf = id
		}
	}

	here := nav.Page{Kind: list.Kind, Key: key, Index: index}
	kb = make(domain.Keyboard, 0, len(items)+2)
	for _, it := range items {
		switch list.Kind {
		case domain.ResultAnimeSearch, domain.ResultSeason:
			kb = append(kb, []domain.Button{button(label(it.Label), nav.ShowAnime{AnimeID: it.ID, From: here})})
		default:
			a := nav.ShowCharacter{CharacterID: it.ID, FromAnimeID: castOf}
			if castOf == 0 {
				a.From = here
			}
			kb = append(kb, []domain.Button{button(roleMark(it.Detail)+label(it.Label), a)})
		}
	}

	if total > 1 {
		row := []domain.Button{}
		if index > 0 {
			row = append(row, button("⬅️", nav.Page{Kind: list.Kind, Key: key, Index: index - 1}))
		}
		row = append(row, button(fmt.Sprintf("%d/%d", index+1, total), nav.Noop{}))
		if index < total-1 {
			row = append(row, button("➡️", nav.Page{Kind: list.Kind, Key: key, Index: index + 1}))
		}
		kb = append(kb, row)
	}

	if castOf > 0 {
		kb = append(kb, backToAnime(castOf)...)
	}
	return FitHTML(b.String(), MessageLimit), kb, true
}

func roleMark(role string) string {
	switch role {
	case "Main":
		return "🎯 "
	case "Supporting":
		return "👥 "
	}
	return ""
}

var topFilterLabels = map[string]string{
	"all":          "All time",
	"airing":       "Airing",
	"upcoming":     "Upcoming",
	"tv":           "TV series",
	"movie":        "Movies",
	"ova":          "OVA",
	"special":      "Specials",
	"bypopularity": "Most popular",
	"favorite":     "Most favorited",
}

func (r *Renderer) Top(page *domain.TopPage, filter string) (string, domain.Keyboard) {
	var b strings.Builder
	fmt.Fprintf(&b, "🏆 <b>Top anime: %s</b>\n", topFilterLabels[filter])
	for i, a := range page.Items {
		fmt.Fprintf(&b, "%d. %s ⭐ %s\n", i+1, Escape(a.Title), score(a.Score))
	}
	last := max(page.LastPage, page.Page)
	fmt.Fprintf(&b, "\n📄 Page %d/%d", page.Page, last)

	kb := domain.Keyboard{
		{topButton("🎯 All", "all"), topButton("📡 Airing", "airing"), topButton("🔮 Upcoming", "upcoming")},
		{topButton("📺 TV", "tv"), topButton("🎬 Movies", "movie"), topButton("💎 OVA", "ova")},
		{topButton("✨ Specials", "special"), topButton("⭐ Popular", "bypopularity"), topButton("❤️ Favorited", "favorite")},
	}
	row := []domain.Button{}
	if page.Page > 1 {
		row = append(row, button("⬅️", nav.Top{Filter: filter, Page: page.Page - 1}))
	}
	row = append(row, button(fmt.Sprintf("%d/%d", page.Page, last), nav.Noop{}))
	if page.Page < last {
		row = append(row, button("➡️", nav.Top{Filter: filter, Page: page.Page + 1}))
	}
	kb = append(kb, row)

	// Items become buttons too so the list is actionable.
	here := nav.Top{Filter: filter, Page: page.Page}
	for _, a := range page.Items {
		kb = append(kb, []domain.Button{button(label(a.Title), nav.ShowAnime{AnimeID: a.ID, From: here})})
	}
	return FitHTML(b.String(), MessageLimit), kb
}

func topButton(text, filter string) domain.Button {
	return button(text, nav.Top{Filter: filter, Page: 1})
}

var dayLabels = map[string]string{
	"monday":    "Monday",
	"tuesday":   "Tuesday",
	"wednesday": "Wednesday",
	"thursday":  "Thursday",
	"friday":    "Friday",
	"saturday":  "Saturday",
	"sunday":    "Sunday",
}

// DaySchedule is the airing list of one weekday.
type DaySchedule struct {
	Day   string
	Items []domain.Anime
}

func (r *Renderer) ScheduleDay(day DaySchedule) (string, domain.Keyboard) {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 <b>Airing on %s</b>\n", dayLabels[day.Day])
	if len(day.Items) == 0 {
		b.WriteString("Nothing scheduled for this day. The catalog may also be unreachable; try again later.")
		return b.String(), scheduleKeyboard()
	}
	writeSchedule(&b, day.Items, scheduleDayLimit)
	return FitHTML(b.String(), MessageLimit), scheduleKeyboard()
}

func (r *Renderer) ScheduleWeek(days []DaySchedule) (string, domain.Keyboard) {
	var b strings.Builder
	b.WriteString("📅 <b>Airing this week</b>\n")
	empty := true
	for _, d := range days {
		if len(d.Items) == 0 {
			continue
		}
		empty = false
		fmt.Fprintf(&b, "\n<b>%s</b>\n", dayLabels[d.Day])
		writeSchedule(&b, d.Items, scheduleWeekLimit)
	}
	if empty {
		b.WriteString("Nothing scheduled. The catalog may also be unreachable; try again later.")
	}
	return FitHTML(b.String(), MessageLimit), scheduleKeyboard()
}

func writeSchedule(b *strings.Builder, items []domain.Anime, limit int) {
	for i, a := range items {
		if i == limit {
			fmt.Fprintf(b, "... and %d more\n", len(items)-limit)
			break
		}
		fmt.Fprintf(b, "• %s", Escape(a.Title))
		if a.Score > 0 {
			fmt.Fprintf(b, " ⭐ %s", score(a.Score))
		}
		b.WriteString("\n")
	}
}

func scheduleKeyboard() domain.Keyboard {
	day := func(text, d string) domain.Button { return button(text, nav.Schedule{Day: d}) }
	return domain.Keyboard{
		{day("📅 Today", "today"), day("📅 Week", "week")},
		{day("Mon", "monday"), day("Tue", "tuesday"), day("Wed", "wednesday")},
		{day("Thu", "thursday"), day("Fri", "friday"), day("Sat", "saturday")},
		{day("Sun", "sunday")},
	}
}
