package state

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrClosed é retornado por Dispatch depois de Close.
var ErrClosed = errors.New("state store is closed")

// Action é qualquer valor que o reducer saiba interpretar.
type Action interface{}

// Reducer é uma função pura: estado anterior + ação -> novo estado.
type Reducer[S any] func(S, Action) S

type envelope[S any] struct {
	action Action
	done   chan S
}

// Store é a única fonte de verdade de um conceito (sessão, wishlists, itens).
// Todas as mutações passam pelo canal de ações e são aplicadas por uma única
// goroutine, na ordem de chegada.
type Store[S any] struct {
	reducer Reducer[S]
	actions chan envelope[S]
	quit    chan struct{}
	stopped chan struct{}

	mu      sync.RWMutex
	current S
	subs    map[uuid.UUID]func(S)
	order   []uuid.UUID

	closeOnce sync.Once
}

// New cria o store e inicia o loop de ações.
func New[S any](initial S, reducer Reducer[S]) *Store[S] {
	s := &Store[S]{
		reducer: reducer,
		actions: make(chan envelope[S]),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
		current: initial,
		subs:    make(map[uuid.UUID]func(S)),
	}
	go s.loop()
	return s
}

func (s *Store[S]) loop() {
	defer close(s.stopped)
	for {
		select {
		case <-s.quit:
			return
		case env := <-s.actions:
			s.mu.Lock()
			next := s.reducer(s.current, env.action)
			s.current = next
			listeners := make([]func(S), 0, len(s.order))
			for _, id := range s.order {
				listeners = append(listeners, s.subs[id])
			}
			s.mu.Unlock()

			for _, fn := range listeners {
				fn(next)
			}
			env.done <- next
		}
	}
}

// Dispatch envia a ação e só retorna depois que o novo estado foi aplicado e
// todos os subscribers foram notificados. O retorno é o sinal de conclusão.
func (s *Store[S]) Dispatch(ctx context.Context, action Action) (S, error) {
	env := envelope[S]{action: action, done: make(chan S, 1)}

	select {
	case s.actions <- env:
	case <-s.quit:
		return s.Get(), ErrClosed
	case <-ctx.Done():
		return s.Get(), ctx.Err()
	}

	// Uma vez aceita, a ação sempre é aplicada; esperar aqui não depende do ctx.
	return <-env.done, nil
}

// Get retorna uma cópia rasa do estado atual.
func (s *Store[S]) Get() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Subscribe registra um listener chamado após cada ação. Listeners não devem
// chamar Dispatch no mesmo store de forma síncrona.
func (s *Store[S]) Subscribe(fn func(S)) (unsubscribe func()) {
	id := uuid.New()

	s.mu.Lock()
	s.subs[id] = fn
	s.order = append(s.order, id)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[id]; !ok {
			return
		}
		delete(s.subs, id)
		for i, existing := range s.order {
			if existing == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

// Close para o loop. Dispatch posterior retorna ErrClosed.
func (s *Store[S]) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
		<-s.stopped
	})
}
