package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anidex/anidex/src/internal/domain"
)

type echoRouter struct {
	mu   sync.Mutex
	seen []domain.Interaction
}

func (e *echoRouter) Handle(_ context.Context, in domain.Interaction) []domain.Reply {
	e.mu.Lock()
	e.seen = append(e.seen, in)
	e.mu.Unlock()
	if in.Payload == "silent" {
		return nil
	}
	return []domain.Reply{{Text: "echo: " + in.Payload, Discipline: domain.DisciplineNew}}
}

type tokenVerifier string

func (v tokenVerifier) Verify(_ context.Context, token string) error {
	if token != string(v) {
		return errors.New("bad token")
	}
	return nil
}

func newGateway(t *testing.T, opts Options) (*echoRouter, *httptest.Server) {
	t.Helper()
	router := &echoRouter{}
	srv := httptest.NewServer(NewServer(router, opts).Routes())
	t.Cleanup(srv.Close)
	return router, srv
}

func text(user int64, payload string) domain.Interaction {
	return domain.Interaction{UserID: user, Kind: domain.InteractionText, Payload: payload}
}

func TestInteractionRoundTrip(t *testing.T) {
	router, srv := newGateway(t, Options{})

	resp, err := NewClient(srv.URL, "").Send(context.Background(), text(7, "naruto"))
	require.NoError(t, err)
	require.Len(t, resp.Replies, 1)
	assert.Equal(t, "echo: naruto", resp.Replies[0].Text)
	_, err = uuid.Parse(resp.RequestID)
	assert.NoError(t, err)
	require.Len(t, router.seen, 1)
	assert.Equal(t, int64(7), router.seen[0].UserID)
}

func TestNoRepliesIsAnEmptyList(t *testing.T) {
	_, srv := newGateway(t, Options{})

	res, err := http.Post(srv.URL+"/v1/interactions", "application/json",
		strings.NewReader(`{"userId":7,"kind":"text","payload":"silent"}`))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"replies":[]`)
}

func TestInvalidInteractionsAreRejected(t *testing.T) {
	router, srv := newGateway(t, Options{})
	client := NewClient(srv.URL, "")

	_, err := client.Send(context.Background(), domain.Interaction{UserID: 7, Kind: "voice"})
	require.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "422")

	_, err = client.Send(context.Background(), domain.Interaction{Kind: domain.InteractionText, Payload: "x"})
	require.ErrorIs(t, err, ErrUnexpectedStatus)

	res, err := http.Post(srv.URL+"/v1/interactions", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	assert.Empty(t, router.seen)
}

func TestRateLimitIsPerUser(t *testing.T) {
	_, srv := newGateway(t, Options{RateLimit: 2})
	client := NewClient(srv.URL, "")
	ctx := context.Background()

	for range 2 {
		_, err := client.Send(ctx, text(7, "a"))
		require.NoError(t, err)
	}
	_, err := client.Send(ctx, text(7, "a"))
	assert.ErrorIs(t, err, ErrRateLimited)

	_, err = client.Send(ctx, text(8, "a"))
	assert.NoError(t, err, "another user has their own budget")
}

func TestBearerVerification(t *testing.T) {
	router, srv := newGateway(t, Options{Verifier: tokenVerifier("s3cret")})
	ctx := context.Background()

	_, err := NewClient(srv.URL, "").Send(ctx, text(7, "a"))
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = NewClient(srv.URL, "guess").Send(ctx, text(7, "a"))
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, router.seen)

	_, err = NewClient(srv.URL, "s3cret").Send(ctx, text(7, "a"))
	require.NoError(t, err)

	res, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode, "health is not authenticated")
}

func TestRequestIDIsPropagated(t *testing.T) {
	_, srv := newGateway(t, Options{})
	id := uuid.NewString()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/interactions",
		strings.NewReader(`{"userId":7,"kind":"command","payload":"/start"}`))
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, id)

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, id, res.Header.Get(requestIDHeader))
}

func TestServeStopsOnCancel(t *testing.T) {
	s := NewServer(&echoRouter{}, Options{Addr: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, "gateway", s.String())
}
