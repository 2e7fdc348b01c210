// Package gtx calls the public Google Translate "gtx" endpoint.
package gtx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/anidex/anidex/src/internal/metrics"
)

const DefaultBaseURL = "https://translate.googleapis.com"

var ErrMalformed = errors.New("gtx: malformed response")

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Translate returns text in targetLocale. The response is a nested array whose
// first element lists [translated, source, ...] segments.
func (c *Client) Translate(ctx context.Context, text, targetLocale string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	u, _ := url.Parse(c.baseURL + "/translate_a/single")
	q := u.Query()
	q.Set("client", "gtx")
	q.Set("sl", "auto")
	q.Set("tl", targetLocale)
	q.Set("dt", "t")
	q.Set("q", text)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.ExternalCallDuration.WithLabelValues("translate").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gtx returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	var raw []any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(raw) == 0 {
		return "", ErrMalformed
	}
	segments, ok := raw[0].([]any)
	if !ok || len(segments) == 0 {
		return "", ErrMalformed
	}

	var b strings.Builder
	for _, seg := range segments {
		parts, ok := seg.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if s, ok := parts[0].(string); ok {
			b.WriteString(s)
		}
	}
	if b.Len() == 0 {
		return "", ErrMalformed
	}
	return b.String(), nil
}
