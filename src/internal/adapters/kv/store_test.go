package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anidex/anidex/src/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionRoundTrip(t *testing.T) {
	sessions := openTestStore(t).Sessions(time.Hour)
	ctx := context.Background()

	list := &domain.ResultList{
		Kind:  domain.ResultAnimeSearch,
		Query: "naruto",
		Items: []domain.ResultItem{{ID: 20, Label: "Naruto"}, {ID: 1735, Label: "Naruto: Shippuuden"}},
	}
	require.NoError(t, sessions.PutResults(ctx, 7, "a1b2", list))

	got, err := sessions.GetResults(ctx, 7, "a1b2")
	require.NoError(t, err)
	assert.Equal(t, list, got)

	other, err := sessions.GetResults(ctx, 8, "a1b2")
	require.NoError(t, err)
	assert.Nil(t, other, "sessions are per user")
}

func TestSessionExpires(t *testing.T) {
	sessions := openTestStore(t).Sessions(time.Second)
	ctx := context.Background()

	require.NoError(t, sessions.PutResults(ctx, 1, "k", &domain.ResultList{Kind: domain.ResultSeason}))
	got, err := sessions.GetResults(ctx, 1, "k")
	require.NoError(t, err)
	require.NotNil(t, got)

	// badger TTLs have second granularity
	time.Sleep(2100 * time.Millisecond)
	got, err = sessions.GetResults(ctx, 1, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEnrichmentCache(t *testing.T) {
	cache := openTestStore(t).Enrichments(time.Hour, time.Hour)

	_, ok, err := cache.Get("Mikasa")
	require.NoError(t, err)
	assert.False(t, ok)

	entry := &domain.Enrichment{Title: "Mikasa Ackerman", URL: "https://x/m.html", Description: "desc"}
	require.NoError(t, cache.Put("Mikasa", entry))
	require.NoError(t, cache.Put("Nobody", nil))

	got, ok, err := cache.Get(" mikasa ")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, entry, got)

	got, ok, err = cache.Get("Nobody")
	require.NoError(t, err)
	assert.True(t, ok, "misses are remembered")
	assert.Nil(t, got)
}

func TestEnrichmentMissesExpireFirst(t *testing.T) {
	cache := openTestStore(t).Enrichments(time.Hour, time.Second)

	require.NoError(t, cache.Put("Mikasa", &domain.Enrichment{Title: "Mikasa Ackerman"}))
	require.NoError(t, cache.Put("Nobody", nil))

	// badger TTLs have second granularity
	time.Sleep(2100 * time.Millisecond)
	_, ok, err := cache.Get("Nobody")
	require.NoError(t, err)
	assert.False(t, ok, "an expired miss is looked up again")

	got, ok, err := cache.Get("Mikasa")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Mikasa Ackerman", got.Title)
}

func TestCollectGarbageInMemory(t *testing.T) {
	n, err := openTestStore(t).CollectGarbage()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCollectGarbageOnDisk(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.CollectGarbage()
	assert.NoError(t, err)
}
