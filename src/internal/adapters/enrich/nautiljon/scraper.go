// Package nautiljon scrapes character pages from nautiljon.com to add a
// French description and a link under a character card.
package nautiljon

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/anidex/anidex/src/internal/domain"
	"github.com/anidex/anidex/src/internal/metrics"
)

const (
	DefaultBaseURL = "https://www.nautiljon.com"
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	maxDescription = 1000
)

// ErrNoMatch means the search page had no character result for the name.
var ErrNoMatch = fmt.Errorf("nautiljon: no matching character: %w", domain.ErrNoEnrichment)

var spaces = regexp.MustCompile(`\s+`)

type Scraper struct {
	baseURL string
	client  *http.Client
	policy  *bluemonday.Policy
}

func NewScraper(baseURL string, timeout time.Duration) *Scraper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Scraper{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		policy:  bluemonday.StrictPolicy(),
	}
}

// Lookup searches for name and scrapes the first character result.
func (s *Scraper) Lookup(ctx context.Context, name string) (*domain.Enrichment, error) {
	title, href, err := s.search(ctx, name)
	if err != nil {
		return nil, err
	}

	doc, err := s.document(ctx, href)
	if err != nil {
		return nil, err
	}

	raw, _ := doc.Find("div.description").First().Html()
	return &domain.Enrichment{
		Title:       title,
		URL:         href,
		Description: s.clean(raw),
	}, nil
}

func (s *Scraper) search(ctx context.Context, name string) (title, href string, err error) {
	q := url.Values{}
	q.Set("mot", name)
	q.Set("type", "personnages")

	doc, err := s.document(ctx, s.baseURL+"/recherche/?"+q.Encode())
	if err != nil {
		return "", "", err
	}

	doc.Find("a[href][title]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		link, _ := a.Attr("href")
		if !strings.Contains(link, "/personnages/") {
			return true
		}
		t, _ := a.Attr("title")
		title = strings.TrimSpace(html.UnescapeString(t))
		href = s.absolute(link)
		return false
	})
	if href == "" {
		return "", "", ErrNoMatch
	}
	return title, href, nil
}

func (s *Scraper) document(ctx context.Context, u string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := s.client.Do(req)
	metrics.ExternalCallDuration.WithLabelValues("nautiljon").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nautiljon returned %d for %s", resp.StatusCode, u)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

func (s *Scraper) absolute(link string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	if !strings.HasPrefix(link, "/") {
		link = "/" + link
	}
	return s.baseURL + link
}

// clean strips markup with the strict policy, decodes entities and caps the
// text at maxDescription runes.
func (s *Scraper) clean(raw string) string {
	text := html.UnescapeString(s.policy.Sanitize(raw))
	text = strings.TrimSpace(spaces.ReplaceAllString(text, " "))
	if utf8.RuneCountInString(text) > maxDescription {
		r := []rune(text)
		text = string(r[:maxDescription]) + "..."
	}
	return text
}
