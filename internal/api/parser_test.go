package api

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParserServiceCachesSuccessfulResults(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		title := "Lego"
		writeJSON(w, http.StatusOK, ParsedProduct{Title: &title, Success: true})
	}))
	parser := NewParserService(client, time.Minute)

	first, err := parser.ParseURL(context.Background(), " https://ozon.ru/product/1#reviews ")
	require.NoError(t, err)
	second, err := parser.ParseURL(context.Background(), "https://ozon.ru/product/1")
	require.NoError(t, err)

	require.NotNil(t, first.Title)
	assert.Equal(t, "Lego", *first.Title)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestParserServiceSkipsFailedResults(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusOK, ParsedProduct{Success: false})
	}))
	parser := NewParserService(client, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := parser.ParseURL(context.Background(), "https://wildberries.ru/catalog/2")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestParserServiceRejectsInvalidURL(t *testing.T) {
	parser := NewParserService(NewClient(nil, ClientOptions{}), 0)
	_, err := parser.ParseURL(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestCacheExpires(t *testing.T) {
	cache := NewCache[int](time.Minute)
	now := time.Now()
	cache.now = func() time.Time { return now }

	cache.Set("k", 1)
	v, ok := cache.Get("k")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Minute)
	_, ok = cache.Get("k")
	assert.False(t, ok)

	cache.Set("k", 2)
	cache.Invalidate("k")
	_, ok = cache.Get("k")
	assert.False(t, ok)
}

func TestCacheEvictsExpiredEntries(t *testing.T) {
	cache := NewCache[int](time.Minute)
	now := time.Now()
	cache.now = func() time.Time { return now }

	cache.Set("a", 1)
	cache.Set("b", 2)
	require.Equal(t, 2, cache.Len())

	now = now.Add(2 * time.Minute)
	_, ok := cache.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, cache.Len())

	// "b" nunca mais foi lida; o próximo Set a varre
	cache.Set("c", 3)
	assert.Equal(t, 1, cache.Len())
	v, ok := cache.Get("c")
	require.True(t, ok)
	assert.Equal(t, 3, v)
}
