// Package render turns catalog entities and user state into HTML messages and
// button keyboards. Catalog text is untrusted: every interpolated field goes
// through Escape.
package render

import (
	"context"
	"strings"

	"github.com/anidex/anidex/src/internal/domain"
	"github.com/anidex/anidex/src/internal/logging"
	"github.com/anidex/anidex/src/internal/metrics"
	nav "github.com/anidex/anidex/src/internal/navigation"
	"github.com/anidex/anidex/src/internal/ports"
)

const (
	synopsisSourceLimit  = 800
	biographySourceLimit = 1500
	biographyLimit       = 800
)

// Viewer is what the renderer knows about the person looking at a message.
type Viewer struct {
	Locale   string
	Favorite bool
	Watch    *domain.WatchRecord
	// Back is the list view the card was opened from, if any.
	Back nav.Action
}

type Renderer struct {
	translator    ports.Translator
	defaultLocale string
}

// NewRenderer returns a renderer that translates long-form text into the
// viewer's locale, or defaultLocale when the viewer has none. A nil
// translator disables translation.
func NewRenderer(translator ports.Translator, defaultLocale string) *Renderer {
	return &Renderer{translator: translator, defaultLocale: defaultLocale}
}

func (r *Renderer) targetLocale(locale string) string {
	if locale == "" {
		locale = r.defaultLocale
	}
	base, _, _ := strings.Cut(strings.ToLower(locale), "-")
	return base
}

// translate returns text in the viewer's language, or text itself when the
// viewer reads English, translation is off, or the translator fails.
func (r *Renderer) translate(ctx context.Context, text, locale string) string {
	target := r.targetLocale(locale)
	if r.translator == nil || target == "" || target == "en" || strings.TrimSpace(text) == "" {
		return text
	}
	out, err := r.translator.Translate(ctx, text, target)
	if err != nil || strings.TrimSpace(out) == "" {
		metrics.TranslationFallbacks.Inc()
		logging.Debug().Err(err).Str("locale", target).Msg("translation failed, keeping source text")
		return text
	}
	return out
}
