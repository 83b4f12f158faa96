package state

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	Value int
	Log   []string
}

type add struct{ n int }
type note struct{ text string }

func reduceCounter(s counter, a Action) counter {
	switch act := a.(type) {
	case add:
		s.Value += act.n
	case note:
		s.Log = append(append([]string(nil), s.Log...), act.text)
	}
	return s
}

func TestDispatchReturnsAppliedState(t *testing.T) {
	store := New(counter{}, reduceCounter)
	defer store.Close()

	next, err := store.Dispatch(context.Background(), add{n: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, next.Value)
	assert.Equal(t, 2, store.Get().Value)
}

func TestDispatchNotifiesSubscribersBeforeReturning(t *testing.T) {
	store := New(counter{}, reduceCounter)
	defer store.Close()

	var seen []int
	store.Subscribe(func(c counter) { seen = append(seen, c.Value) })

	_, err := store.Dispatch(context.Background(), add{n: 1})
	require.NoError(t, err)
	_, err = store.Dispatch(context.Background(), add{n: 1})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, seen)
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	store := New(counter{}, reduceCounter)
	defer store.Close()

	calls := 0
	unsubscribe := store.Subscribe(func(counter) { calls++ })
	_, _ = store.Dispatch(context.Background(), add{n: 1})
	unsubscribe()
	unsubscribe()
	_, _ = store.Dispatch(context.Background(), add{n: 1})

	assert.Equal(t, 1, calls)
}

func TestConcurrentDispatchesAreAllApplied(t *testing.T) {
	store := New(counter{}, reduceCounter)
	defer store.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Dispatch(context.Background(), add{n: 1})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, store.Get().Value)
}

func TestDispatchAfterCloseFails(t *testing.T) {
	store := New(counter{}, reduceCounter)
	store.Close()
	store.Close()

	_, err := store.Dispatch(context.Background(), add{n: 1})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDispatchHonorsCanceledContext(t *testing.T) {
	store := New(counter{}, reduceCounter)
	defer store.Close()

	// subscriber lento segura o loop enquanto o segundo dispatch espera
	release := make(chan struct{})
	store.Subscribe(func(c counter) {
		if c.Value == 1 {
			<-release
		}
	})
	go func() { _, _ = store.Dispatch(context.Background(), add{n: 1}) }()
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.Dispatch(ctx, note{text: "late"})
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
}
