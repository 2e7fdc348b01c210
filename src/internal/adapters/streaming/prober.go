// Package streaming checks which French streaming sites carry a title.
package streaming

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/anidex/anidex/src/internal/domain"
	"github.com/anidex/anidex/src/internal/logging"
	"github.com/anidex/anidex/src/internal/metrics"
)

// Site describes one streaming site. SlugURL and SearchURL each hold a single
// %s verb; SlugURL may be empty when the site has no predictable title page.
type Site struct {
	Name      string
	SlugURL   string
	SearchURL string
}

var DefaultSites = []Site{
	{Name: "VoirAnime", SlugURL: "https://voiranime.com/anime/%s", SearchURL: "https://voiranime.com/?s=%s"},
	{Name: "Anime-Sama", SlugURL: "https://www.anime-sama.fr/anime/%s", SearchURL: "https://www.anime-sama.fr/search/?q=%s"},
	{Name: "French-Anime", SlugURL: "https://french-anime.com/anime/%s", SearchURL: "https://french-anime.com/search?q=%s"},
	{Name: "Franime", SlugURL: "https://franime.fr/anime/%s", SearchURL: "https://franime.fr/?s=%s"},
	{Name: "Anime-Ultime", SearchURL: "https://www.anime-ultime.net/search-0-0-%s.html"},
}

var (
	whitespace = regexp.MustCompile(`\s+`)
	nonSlug    = regexp.MustCompile(`[^a-z0-9-]`)
	dashes     = regexp.MustCompile(`-+`)
)

// Slug lowercases title and keeps only [a-z0-9-], turning whitespace runs into
// single dashes.
func Slug(title string) string {
	s := strings.ToLower(title)
	s = whitespace.ReplaceAllString(s, "-")
	s = nonSlug.ReplaceAllString(s, "")
	s = dashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

type Prober struct {
	sites   []Site
	client  *http.Client
	timeout time.Duration
}

func NewProber(sites []Site, timeout time.Duration) *Prober {
	if len(sites) == 0 {
		sites = DefaultSites
	}
	return &Prober{
		sites:   sites,
		client:  &http.Client{},
		timeout: timeout,
	}
}

// Probe returns one link per site, in site order. Sites are checked
// concurrently; a site whose title page does not answer 200 gets its search
// URL instead.
func (p *Prober) Probe(ctx context.Context, title string) []domain.StreamingLink {
	slug := Slug(title)
	query := url.QueryEscape(title)
	links := make([]domain.StreamingLink, len(p.sites))

	g, ctx := errgroup.WithContext(ctx)
	for i, site := range p.sites {
		g.Go(func() error {
			links[i] = domain.StreamingLink{Site: site.Name, URL: fmt.Sprintf(site.SearchURL, query)}
			if site.SlugURL == "" || slug == "" {
				return nil
			}
			direct := fmt.Sprintf(site.SlugURL, slug)
			if p.exists(ctx, direct) {
				links[i].URL = direct
				links[i].Direct = true
			}
			return nil
		})
	}
	_ = g.Wait()
	return links
}

func (p *Prober) exists(ctx context.Context, u string) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
	if err != nil {
		return false
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	metrics.ExternalCallDuration.WithLabelValues("streaming").Observe(time.Since(start).Seconds())
	if err != nil {
		logging.Debug().Err(err).Str("url", u).Msg("streaming probe failed")
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
