// Package jikan talks to the Jikan v4 REST API (an unofficial MyAnimeList
// mirror). Every call is a single attempt: callers decide what a failure means.
package jikan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/anidex/anidex/src/internal/domain"
	"github.com/anidex/anidex/src/internal/logging"
	"github.com/anidex/anidex/src/internal/metrics"
)

const DefaultBaseURL = "https://api.jikan.moe/v4"

const maxBodyBytes = 4 << 20

var (
	ErrNotFound         = fmt.Errorf("jikan: %w", domain.ErrNotFound)
	ErrUnexpectedStatus = errors.New("jikan: unexpected status")

	// errCallerDone marks failures caused by the caller's own context ending
	// rather than by the API.
	errCallerDone = errors.New("jikan: caller context done")
)

type Options struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	BreakerFailures   uint32
	BreakerCooldown   time.Duration
	HTTPClient        *http.Client
}

type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
	log     zerolog.Logger
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 3
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = 30 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	c := &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		client:  httpClient,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		log:     logging.WithComponent("jikan"),
	}

	failures := opts.BreakerFailures
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "jikan",
		MaxRequests: 1,
		Timeout:     opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// A 404 is an answer, not an outage. A caller that gave up says nothing
		// about the API either; outages are judged by the client timeout.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, errCallerDone)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			c.log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	metrics.CircuitBreakerState.WithLabelValues("jikan").Set(0)
	return c
}

func (c *Client) get(ctx context.Context, path string, q url.Values, dst any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.fetch(ctx, u)
	})
	metrics.ExternalCallDuration.WithLabelValues("jikan").Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, callerErr(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, callerErr(ctx, err)
	}
	return body, nil
}

func callerErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %w", errCallerDone, ctx.Err())
	}
	return err
}

func (c *Client) animeList(ctx context.Context, path string, q url.Values) ([]domain.Anime, error) {
	var res animeListResponse
	if err := c.get(ctx, path, q, &res); err != nil {
		return nil, err
	}
	return toAnimeList(res.Data), nil
}

func toAnimeList(data []animeData) []domain.Anime {
	out := make([]domain.Anime, 0, len(data))
	for i := range data {
		out = append(out, data[i].toDomain())
	}
	return out
}

func (c *Client) single(ctx context.Context, path string) (*domain.Anime, error) {
	var res animeResponse
	if err := c.get(ctx, path, nil, &res); err != nil {
		return nil, err
	}
	if res.Data == nil || res.Data.MalID == 0 {
		return nil, fmt.Errorf("decode %s: empty data", path)
	}
	a := res.Data.toDomain()
	return &a, nil
}

func (c *Client) SearchAnime(ctx context.Context, query string, limit int) ([]domain.Anime, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))
	return c.animeList(ctx, "/anime", q)
}

func (c *Client) GetAnime(ctx context.Context, id int) (*domain.Anime, error) {
	return c.single(ctx, "/anime/"+strconv.Itoa(id))
}

func (c *Client) SeasonAnime(ctx context.Context, year int, season domain.Season, limit int) ([]domain.Anime, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	items, err := c.animeList(ctx, fmt.Sprintf("/seasons/%d/%s", year, season), q)
	if err != nil {
		return nil, err
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// TopAnime maps the type-like filters (tv, movie, ova, special) onto the
// "type" parameter and the rest onto "filter".
func (c *Client) TopAnime(ctx context.Context, filter string, page, limit int) (*domain.TopPage, error) {
	q := url.Values{}
	switch filter {
	case "", "all":
	case "tv", "movie", "ova", "special":
		q.Set("type", filter)
	default:
		q.Set("filter", filter)
	}
	if page < 1 {
		page = 1
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var res animeListResponse
	if err := c.get(ctx, "/top/anime", q, &res); err != nil {
		return nil, err
	}
	last := res.Pagination.LastVisiblePage
	if last < page {
		last = page
	}
	return &domain.TopPage{Items: toAnimeList(res.Data), Page: page, LastPage: last}, nil
}

func (c *Client) RandomAnime(ctx context.Context) (*domain.Anime, error) {
	return c.single(ctx, "/random/anime")
}

func (c *Client) Schedule(ctx context.Context, day string) ([]domain.Anime, error) {
	q := url.Values{}
	if day != "" {
		q.Set("filter", day)
	}
	return c.animeList(ctx, "/schedules", q)
}

func (c *Client) AnimeCharacters(ctx context.Context, animeID int) ([]domain.CharacterRole, error) {
	var res castResponse
	if err := c.get(ctx, fmt.Sprintf("/anime/%d/characters", animeID), nil, &res); err != nil {
		return nil, err
	}
	out := make([]domain.CharacterRole, 0, len(res.Data))
	for _, e := range res.Data {
		out = append(out, domain.CharacterRole{
			CharacterID: e.Character.MalID,
			Name:        e.Character.Name,
			Role:        e.Role,
			ImageURL:    e.Character.Images.best(),
		})
	}
	return out, nil
}

func (c *Client) GetCharacter(ctx context.Context, id int) (*domain.Character, error) {
	var res characterResponse
	path := fmt.Sprintf("/characters/%d/full", id)
	if err := c.get(ctx, path, nil, &res); err != nil {
		return nil, err
	}
	if res.Data == nil || res.Data.MalID == 0 {
		return nil, fmt.Errorf("decode %s: empty data", path)
	}
	ch := res.Data.toDomain()
	return &ch, nil
}

func (c *Client) SearchCharacters(ctx context.Context, query string, limit int) ([]domain.Character, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("order_by", "favorites")
	q.Set("sort", "desc")

	var res characterListResponse
	if err := c.get(ctx, "/characters", q, &res); err != nil {
		return nil, err
	}
	out := make([]domain.Character, 0, len(res.Data))
	for i := range res.Data {
		out = append(out, res.Data[i].toDomain())
	}
	return out, nil
}

func (c *Client) AnimeByGenre(ctx context.Context, genreID int, limit int) ([]domain.Anime, error) {
	q := url.Values{}
	q.Set("genres", strconv.Itoa(genreID))
	q.Set("order_by", "score")
	q.Set("sort", "desc")
	q.Set("limit", strconv.Itoa(limit))
	return c.animeList(ctx, "/anime", q)
}
