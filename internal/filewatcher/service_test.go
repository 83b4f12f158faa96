package filewatcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemanticEventKey(t *testing.T) {
	event := FileEvent{
		Type:    EventChanged,
		Path:    "/tmp/wishlist/./tokens.json",
		Details: map[string]string{"digest": "abc"},
	}

	assert.Equal(t, "changed|/tmp/wishlist/tokens.json|digest=abc", semanticEventKey(event))
}

func TestShouldEmitDedupesWithinWindow(t *testing.T) {
	svc := &Service{
		recent: make(map[string]time.Time),
		window: 80 * time.Millisecond,
	}

	event := FileEvent{Type: EventChanged, Path: "/tmp/tokens.json", Details: map[string]string{"digest": "1"}}
	other := FileEvent{Type: EventChanged, Path: "/tmp/tokens.json", Details: map[string]string{"digest": "2"}}

	require.True(t, svc.shouldEmit(event), "first event should be emitted")
	require.False(t, svc.shouldEmit(event), "same content inside window should be ignored")
	require.True(t, svc.shouldEmit(other), "different content always passes")

	time.Sleep(100 * time.Millisecond)

	require.True(t, svc.shouldEmit(event), "event should be emitted again after dedupe window")
}

func TestClassifyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")

	removed := classifyFile(path, time.Now())
	assert.Equal(t, EventRemoved, removed.Type)

	require.NoError(t, os.WriteFile(path, []byte(`{"access_token":"x"}`), 0600))
	changed := classifyFile(path, time.Now())
	assert.Equal(t, EventChanged, changed.Type)
	assert.Len(t, changed.Details["digest"], 64)
}

func TestWatchReportsAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tokens.json")

	var mu sync.Mutex
	var events []FileEvent
	var emitted []string

	svc, err := NewService(func(name string, _ interface{}) {
		mu.Lock()
		emitted = append(emitted, name)
		mu.Unlock()
	}, nil)
	require.NoError(t, err)
	defer svc.Close()
	svc.delay = 20 * time.Millisecond

	svc.OnChange(func(event FileEvent) {
		mu.Lock()
		events = append(events, event)
		mu.Unlock()
	})
	require.NoError(t, svc.Watch(path))
	require.NoError(t, svc.Watch(path))

	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(`{"access_token":"A1"}`), 0600))
	require.NoError(t, os.Rename(tmp, path))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) > 0
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, EventChanged, events[len(events)-1].Type)
	assert.Contains(t, emitted, "file:changed")
	mu.Unlock()

	require.NoError(t, svc.Unwatch(path))
	require.NoError(t, svc.Close())
	require.Error(t, svc.Watch(path))
}
