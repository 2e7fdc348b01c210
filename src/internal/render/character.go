package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/anidex/anidex/src/internal/domain"
	nav "github.com/anidex/anidex/src/internal/navigation"
)

const maxAppearances = 3

// CharacterCard is the caption under a character's picture. The biography
// comes from the enrichment when there is one, is cut to biographySourceLimit
// before translation and to biographyLimit after. backAnimeID, when set,
// adds a button back to that anime's cast; otherwise v.Back does.
func (r *Renderer) CharacterCard(ctx context.Context, c *domain.Character, e *domain.Enrichment, v Viewer, backAnimeID int) (string, domain.Keyboard) {
	var b strings.Builder
	fmt.Fprintf(&b, "👤 <b>%s</b>", Escape(c.Name))
	if c.NameKanji != "" {
		fmt.Fprintf(&b, " (%s)", Escape(c.NameKanji))
	}
	if len(c.Nicknames) > 0 {
		nicks := make([]string, len(c.Nicknames))
		for i, n := range c.Nicknames {
			nicks[i] = Escape(n)
		}
		fmt.Fprintf(&b, "\n🎭 <b>Nicknames</b>: %s", strings.Join(nicks, ", "))
	}
	fmt.Fprintf(&b, "\n❤️ <b>Favorites</b>: %d", c.Favorites)

	about := c.About
	if e != nil && e.Description != "" {
		about = e.Description
	}
	if strings.TrimSpace(about) != "" {
		bio := r.translate(ctx, Truncate(about, biographySourceLimit), v.Locale)
		fmt.Fprintf(&b, "\n📝 <b>Biography</b>:\n%s", Escape(Truncate(bio, biographyLimit)))
	}

	if len(c.Anime) > 0 {
		titles := make([]string, 0, maxAppearances)
		for _, app := range c.Anime {
			if len(titles) == maxAppearances {
				break
			}
			titles = append(titles, fmt.Sprintf("%s (%s)", Escape(app.Title), Escape(app.Role)))
		}
		fmt.Fprintf(&b, "\n📺 <b>Appears in</b>: %s", strings.Join(titles, ", "))
	}

	var seiyuu []string
	for _, va := range c.VoiceActors {
		if va.Language == "Japanese" {
			seiyuu = append(seiyuu, Escape(va.Name))
		}
	}
	if len(seiyuu) > 0 {
		fmt.Fprintf(&b, "\n🎙️ <b>Seiyuu</b>: %s", strings.Join(seiyuu, ", "))
	}

	if e != nil && e.URL != "" {
		fmt.Fprintf(&b, "\n🔗 <a href=\"%s\">%s on Nautiljon</a>", Escape(e.URL), Escape(e.Title))
	}

	var kb domain.Keyboard
	if backAnimeID > 0 {
		kb = domain.Keyboard{{button("🔙 Back to characters", nav.Cast{AnimeID: backAnimeID})}}
	} else if row := backToOrigin(v.Back); row != nil {
		kb = domain.Keyboard{row}
	}
	return FitHTML(b.String(), CaptionLimit), kb
}
