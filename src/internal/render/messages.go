package render

import (
	"fmt"

	"github.com/anidex/anidex/src/internal/domain"
	nav "github.com/anidex/anidex/src/internal/navigation"
)

const (
	// Unavailable answers buttons whose session data expired or never
	// existed.
	Unavailable = "⌛ This data is no longer available, please redo the action."

	// LoadFailed is shown when an entity a button points at cannot be
	// fetched.
	LoadFailed = "❌ Could not load this right now. Please try again in a moment."

	Welcome = `👋 Hi! I help you discover anime.

✨ <b>What I can do</b>
• 🔍 Search anime and browse their details
• 📝 Translated synopses and character biographies
• 🎬 Trailers, studios, similar titles and streaming links
• 📅 Seasons and the weekly airing schedule
• 🏆 Top rankings and a random pick
• ❤️ Favorites, watchlist, progress tracking and custom lists
• 🏆 Achievements and personal recommendations

Type an anime title to start, or /help for every command.`

	Help = `🤖 <b>Commands</b>
• Type a title, or <code>/search &lt;title&gt;</code> (also <code>/anime</code>, <code>/recherche</code>)
• <code>/season &lt;year&gt; &lt;season&gt;</code>, e.g. <code>/season 2023 fall</code>
• <code>/character &lt;name&gt;</code>, e.g. <code>/character Mikasa</code>
• <code>/top [filter]</code>: all, airing, upcoming, tv, movie, ova, special, bypopularity, favorite
• <code>/random</code>: a random anime
• <code>/schedule [day]</code>: monday to sunday, today or week
• <code>/profile</code>: favorites, watchlist, stats, achievements, recommendations
• <code>/newlist &lt;name&gt;</code>: create a custom list

👥 In groups, mention me followed by the title.`

	UsageSearch    = "❌ Tell me what to look for, e.g. <code>/search One Piece</code>."
	UsageSeason    = "❌ Usage: <code>/season &lt;year&gt; &lt;season&gt;</code>\nSeasons: <code>spring</code>, <code>summer</code>, <code>fall</code>, <code>winter</code>\nExample: <code>/season 2023 fall</code>"
	UsageCharacter = "❌ Tell me which character, e.g. <code>/character Naruto</code>."
	UsageSchedule  = "❌ Unknown day. Use monday to sunday, <code>today</code> or <code>week</code>."
	UsageTop       = "❌ Unknown filter. Use all, airing, upcoming, tv, movie, ova, special, bypopularity or favorite."
	UsageNewList   = "❌ Usage: <code>/newlist &lt;name&gt;</code> (at most 64 characters)."
	UsageMention   = "❌ Mention me followed by an anime title."
	UnknownCommand = "🤔 Unknown command. See /help."
)

// NothingFound covers both an empty result and an unreachable catalog, which
// look the same from here.
func NothingFound(query string) string {
	return fmt.Sprintf("❌ Nothing found for « %s ». Try another name, or try again in a moment.", Escape(query))
}

func ListCreated(name string) string {
	return fmt.Sprintf("🗂️ List <b>%s</b> is ready. Add anime to it from their 📋 Lists button.", Escape(name))
}

// StartKeyboard is attached to the welcome message.
func StartKeyboard() domain.Keyboard {
	return domain.Keyboard{
		{button("👤 My profile", nav.Profile{View: nav.ProfileMain})},
		{button("🏆 Top anime", nav.Top{Filter: "all", Page: 1}), button("📅 Schedule", nav.Schedule{Day: "today"})},
	}
}
