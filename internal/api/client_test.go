package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"wishlist/internal/tokens"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *tokens.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := tokens.NewMemoryStore()
	client := NewClient(store, ClientOptions{BaseURL: srv.URL + "/", Timeout: 5 * time.Second})
	return client, store
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClientAttachesBearerToken(t *testing.T) {
	var gotAuth, gotRequestID string
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		writeJSON(w, http.StatusOK, User{ID: 1, Email: "a@b.com"})
	}))
	require.NoError(t, store.Set(tokens.TokenPair{AccessToken: "A1", RefreshToken: "R1"}))

	var user User
	require.NoError(t, client.Get(context.Background(), "/auth/me", &user))
	assert.Equal(t, "Bearer A1", gotAuth)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, "a@b.com", user.Email)
}

func TestClientOmitsAuthorizationWithoutToken(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, client.Post(context.Background(), "/auth/logout", nil, nil))
	assert.Empty(t, gotAuth)
}

func TestClientRefreshesOnceAndRetries(t *testing.T) {
	var refreshCalls, meCalls int32
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh":
			atomic.AddInt32(&refreshCalls, 1)
			assert.Empty(t, r.Header.Get("Authorization"))
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "R1", body["refresh_token"])
			writeJSON(w, http.StatusOK, map[string]string{"access_token": "A2"})
		case "/auth/me":
			atomic.AddInt32(&meCalls, 1)
			if r.Header.Get("Authorization") != "Bearer A2" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "expired"})
				return
			}
			writeJSON(w, http.StatusOK, User{ID: 7, Email: "a@b.com"})
		}
	}))
	require.NoError(t, store.Set(tokens.TokenPair{AccessToken: "A1", RefreshToken: "R1"}))

	var user User
	require.NoError(t, client.Get(context.Background(), "/auth/me", &user))
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&meCalls))
	assert.Equal(t, "A2", store.AccessToken())
	assert.Equal(t, "R1", store.RefreshToken())
	assert.Equal(t, TokenValid, client.TokenState())
}

func TestClientPersistsRotatedRefreshToken(t *testing.T) {
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			writeJSON(w, http.StatusOK, map[string]string{"access_token": "A2", "refresh_token": "R2"})
			return
		}
		if r.Header.Get("Authorization") != "Bearer A2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, []Wishlist{})
	}))
	require.NoError(t, store.Set(tokens.TokenPair{AccessToken: "A1", RefreshToken: "R1"}))

	require.NoError(t, client.Get(context.Background(), "/wishlists/", nil))
	assert.Equal(t, "R2", store.RefreshToken())
}

func TestClientSecondUnauthorizedIsFinal(t *testing.T) {
	var refreshCalls int32
	expired := false
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			atomic.AddInt32(&refreshCalls, 1)
			writeJSON(w, http.StatusOK, map[string]string{"access_token": "A2"})
			return
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Not authenticated"})
	}))
	client.SetSessionExpiredHandler(func(error) { expired = true })
	require.NoError(t, store.Set(tokens.TokenPair{AccessToken: "A1", RefreshToken: "R1"}))

	err := client.Get(context.Background(), "/wishlists/", nil)
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "Not authenticated", ErrorMessage(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
	assert.False(t, expired)
}

func TestClientWithoutRefreshTokenExpiresSession(t *testing.T) {
	var refreshCalls int32
	var reason error
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			atomic.AddInt32(&refreshCalls, 1)
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	client.SetSessionExpiredHandler(func(err error) { reason = err })
	require.NoError(t, store.SetAccessToken("A1"))

	err := client.Get(context.Background(), "/wishlists/", nil)
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.ErrorIs(t, reason, ErrNoRefreshToken)
	assert.Zero(t, atomic.LoadInt32(&refreshCalls))
	assert.False(t, store.HasAccessToken())
	assert.Equal(t, TokenExpired, client.TokenState())
}

func TestClientRefreshFailureClearsTokens(t *testing.T) {
	hookCalls := 0
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid refresh token"})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	client.SetSessionExpiredHandler(func(error) { hookCalls++ })
	require.NoError(t, store.Set(tokens.TokenPair{AccessToken: "A1", RefreshToken: "R1"}))
	require.NoError(t, store.MarkOnboardingCompleted())

	err := client.Get(context.Background(), "/auth/me", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, 1, hookCalls)

	_, ok := store.Get()
	assert.False(t, ok)
	assert.Empty(t, store.RefreshToken())
	assert.True(t, store.OnboardingCompleted())
}

func TestClientAnonymousUnauthorizedPassesThrough(t *testing.T) {
	hookCalls := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect email or password"})
	}))
	client.SetSessionExpiredHandler(func(error) { hookCalls++ })

	err := client.Post(context.Background(), "/auth/login", LoginCredentials{Email: "a@b.com", Password: "wrong"}, nil)
	require.Error(t, err)
	assert.Equal(t, "Incorrect email or password", ErrorMessage(err))
	assert.Zero(t, hookCalls)
	assert.Equal(t, TokenValid, client.TokenState())
}

func TestClientConcurrentUnauthorizedSharesRefresh(t *testing.T) {
	var refreshCalls int32
	release := make(chan struct{})
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			atomic.AddInt32(&refreshCalls, 1)
			<-release
			writeJSON(w, http.StatusOK, map[string]string{"access_token": "A2"})
			return
		}
		if r.Header.Get("Authorization") != "Bearer A2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}))
	require.NoError(t, store.Set(tokens.TokenPair{AccessToken: "A1", RefreshToken: "R1"}))

	const n = 5
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- client.Get(context.Background(), "/items/1", nil)
		}()
	}

	// dá tempo para todos ficarem presos no refresh
	require.Eventually(t, func() bool { return atomic.LoadInt32(&refreshCalls) >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
}

func TestClientConcurrentRefreshFailureExpiresOnce(t *testing.T) {
	var refreshCalls, hookCalls int32
	release := make(chan struct{})
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			atomic.AddInt32(&refreshCalls, 1)
			<-release
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid refresh token"})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	client.SetSessionExpiredHandler(func(error) { atomic.AddInt32(&hookCalls, 1) })
	require.NoError(t, store.Set(tokens.TokenPair{AccessToken: "A1", RefreshToken: "R1"}))

	const n = 6
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- client.Get(context.Background(), "/wishlists/", nil)
		}()
	}

	require.Eventually(t, func() bool { return atomic.LoadInt32(&refreshCalls) >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.ErrorIs(t, err, ErrSessionExpired)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hookCalls))
	assert.False(t, store.HasAccessToken())
	assert.Equal(t, TokenExpired, client.TokenState())
}

func TestClientRequestAfterExpiryDoesNotExpireAgain(t *testing.T) {
	var hookCalls int32
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	client.SetSessionExpiredHandler(func(error) { atomic.AddInt32(&hookCalls, 1) })
	require.NoError(t, store.Set(tokens.TokenPair{AccessToken: "A1", RefreshToken: "R1"}))

	require.ErrorIs(t, client.Get(context.Background(), "/wishlists/", nil), ErrSessionExpired)

	// a resposta de uma requisição feita com o token antigo chega depois
	first := &rawResponse{status: http.StatusUnauthorized}
	err := client.retryAfterRefresh(context.Background(), http.MethodGet, "/items/1", nil, "A1", first, nil)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hookCalls))
}

func TestClientNetworkErrorUsesGenericMessage(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client := NewClient(tokens.NewMemoryStore(), ClientOptions{BaseURL: srv.URL, Timeout: time.Second})
	err := client.Get(context.Background(), "/wishlists/", nil)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "network", apiErr.Type)
	assert.Equal(t, MessageGeneric, ErrorMessage(err))
}

func TestNextTokenState(t *testing.T) {
	tests := []struct {
		name    string
		current TokenState
		event   TokenEvent
		want    TokenState
	}{
		{"valid on 401", TokenValid, EventUnauthorized, TokenRefreshing},
		{"refreshing ignores 401", TokenRefreshing, EventUnauthorized, TokenRefreshing},
		{"refresh ok", TokenRefreshing, EventRefreshSucceeded, TokenValid},
		{"refresh failed", TokenRefreshing, EventRefreshFailed, TokenExpired},
		{"stale success ignored", TokenExpired, EventRefreshSucceeded, TokenExpired},
		{"login after expiry", TokenExpired, EventTokensSet, TokenValid},
		{"expired retries", TokenExpired, EventUnauthorized, TokenRefreshing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextTokenState(tt.current, tt.event))
		})
	}
}
