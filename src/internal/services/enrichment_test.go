package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anidex/anidex/src/internal/adapters/kv"
	"github.com/anidex/anidex/src/internal/domain"
)

type fakeEnricher struct {
	entries map[string]*domain.Enrichment
	err     error
	calls   int
}

func (f *fakeEnricher) Lookup(_ context.Context, name string) (*domain.Enrichment, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	e, ok := f.entries[name]
	if !ok {
		return nil, fmt.Errorf("fake: %w", domain.ErrNoEnrichment)
	}
	return e, nil
}

func newEnrichmentCache(t *testing.T) *kv.EnrichmentCache {
	t.Helper()
	s, err := kv.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s.Enrichments(time.Hour, time.Hour)
}

func TestEnrichmentCachesHits(t *testing.T) {
	want := &domain.Enrichment{Title: "Ackerman Mikasa", URL: "https://www.nautiljon.com/personnages/m.html"}
	src := &fakeEnricher{entries: map[string]*domain.Enrichment{"Mikasa Ackerman": want}}
	svc := NewEnrichmentService(src, newEnrichmentCache(t))

	for range 2 {
		got, err := svc.Lookup(context.Background(), "Mikasa Ackerman")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 1, src.calls)
}

func TestEnrichmentRemembersMisses(t *testing.T) {
	src := &fakeEnricher{}
	svc := NewEnrichmentService(src, newEnrichmentCache(t))

	for range 2 {
		got, err := svc.Lookup(context.Background(), "Nobody")
		require.NoError(t, err)
		assert.Nil(t, got)
	}
	assert.Equal(t, 1, src.calls)
}

func TestEnrichmentTransportErrorIsTypedAndRetried(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	src := &fakeEnricher{err: cause}
	svc := NewEnrichmentService(src, newEnrichmentCache(t))

	_, err := svc.Lookup(context.Background(), "Levi")
	var enrichErr *EnrichmentError
	require.ErrorAs(t, err, &enrichErr)
	assert.Equal(t, "Levi", enrichErr.Name)
	assert.ErrorIs(t, err, cause)

	src.err = nil
	got, err := svc.Lookup(context.Background(), "Levi")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 2, src.calls, "failures are not cached")
}

func TestNilEnrichmentServiceIsInert(t *testing.T) {
	var svc *EnrichmentService
	got, err := svc.Lookup(context.Background(), "Levi")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Nil(t, NewEnrichmentService(nil, nil))
}
