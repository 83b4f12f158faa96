package filewatcher

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 200 * time.Millisecond

// Service implementa IFileWatcher usando fsnotify. Monitora o diretório pai
// de cada arquivo, porque gravações atômicas (tmp + rename) trocam o inode.
type Service struct {
	mu       sync.RWMutex
	watcher  *fsnotify.Watcher
	handlers []func(FileEvent)
	debounce map[string]*time.Timer
	recent   map[string]time.Time
	files    map[string]struct{} // arquivos monitorados
	dirs     map[string]int      // diretório -> quantos arquivos dependem dele
	loopOn   bool
	done     chan struct{}
	closed   bool
	delay    time.Duration
	window   time.Duration
	log      *zap.Logger

	// Callback para emitir eventos Wails (injetado pelo app.go)
	emitEvent func(eventName string, data interface{})
}

var _ IFileWatcher = (*Service)(nil)

// NewService cria um novo FileWatcher Service
func NewService(emitEvent func(eventName string, data interface{}), log *zap.Logger) (*Service, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		watcher:   watcher,
		handlers:  make([]func(FileEvent), 0),
		debounce:  make(map[string]*time.Timer),
		recent:    make(map[string]time.Time),
		files:     make(map[string]struct{}),
		dirs:      make(map[string]int),
		done:      make(chan struct{}),
		delay:     defaultDebounce,
		window:    900 * time.Millisecond,
		log:       log.Named("filewatcher"),
		emitEvent: emitEvent,
	}, nil
}

// Watch inicia o monitoramento de um arquivo (que pode ainda não existir)
func (s *Service) Watch(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("watcher is closed")
	}

	path = filepath.Clean(path)
	if _, alreadyWatching := s.files[path]; alreadyWatching {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to prepare %s: %w", dir, err)
	}
	if s.dirs[dir] == 0 {
		if err := s.watcher.Add(dir); err != nil {
			return fmt.Errorf("could not watch %s: %w", dir, err)
		}
	}
	s.dirs[dir]++
	s.files[path] = struct{}{}
	s.log.Info("watching file", zap.String("path", path))

	// Iniciar event loop apenas uma vez
	if !s.loopOn {
		s.loopOn = true
		go s.eventLoop()
	}

	return nil
}

// Unwatch para o monitoramento de um arquivo
func (s *Service) Unwatch(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path = filepath.Clean(path)
	if _, exists := s.files[path]; !exists {
		return nil
	}
	delete(s.files, path)

	dir := filepath.Dir(path)
	s.dirs[dir]--
	if s.dirs[dir] <= 0 {
		delete(s.dirs, dir)
		_ = s.watcher.Remove(dir)
	}
	if timer, exists := s.debounce[path]; exists {
		timer.Stop()
		delete(s.debounce, path)
	}

	s.log.Info("unwatched file", zap.String("path", path))
	return nil
}

// OnChange registra um handler para receber eventos
func (s *Service) OnChange(handler func(event FileEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// Close encerra todos os watchers
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	// Cancelar todos os debounce timers
	for _, timer := range s.debounce {
		timer.Stop()
	}

	close(s.done)
	return s.watcher.Close()
}

// === Event Loop ===

func (s *Service) eventLoop() {
	for {
		select {
		case <-s.done:
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			if !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) &&
				!event.Has(fsnotify.Remove) {
				continue
			}

			key := filepath.Clean(event.Name)
			s.mu.Lock()
			if _, watched := s.files[key]; !watched || s.closed {
				s.mu.Unlock()
				continue
			}
			// Debounce por arquivo: o handler lê o estado final do disco.
			if timer, exists := s.debounce[key]; exists {
				timer.Stop()
			}
			s.debounce[key] = time.AfterFunc(s.delay, func() {
				s.handleDebouncedEvent(key)
			})
			s.mu.Unlock()

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("watcher error", zap.Error(err))
		}
	}
}

func (s *Service) handleDebouncedEvent(path string) {
	s.mu.RLock()
	_, watched := s.files[path]
	closed := s.closed
	s.mu.RUnlock()
	if !watched || closed {
		return
	}

	fileEvent := classifyFile(path, time.Now())
	if !s.shouldEmit(fileEvent) {
		s.log.Debug("event deduped", zap.String("type", fileEvent.Type), zap.String("path", path))
		return
	}

	s.log.Debug("file event", zap.String("type", fileEvent.Type), zap.String("path", path))

	// Notificar handlers registrados
	s.mu.RLock()
	handlers := make([]func(FileEvent), len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.RUnlock()

	for _, handler := range handlers {
		handler(fileEvent)
	}

	// Emitir evento Wails se callback configurado
	if s.emitEvent != nil {
		s.emitEvent("file:"+fileEvent.Type, fileEvent)
	}
}

// classifyFile olha o estado atual do arquivo no disco
func classifyFile(path string, now time.Time) FileEvent {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return FileEvent{Type: EventRemoved, Path: path, Timestamp: now, Details: map[string]string{}}
	}

	details := map[string]string{}
	if err == nil {
		sum := sha256.Sum256(data)
		details["digest"] = hex.EncodeToString(sum[:])
	}
	return FileEvent{Type: EventChanged, Path: path, Timestamp: now, Details: details}
}

// shouldEmit descarta notificações repetidas do mesmo conteúdo dentro da janela
func (s *Service) shouldEmit(event FileEvent) bool {
	key := semanticEventKey(event)
	now := time.Now()
	cutoff := now.Add(-3 * s.window)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ts := range s.recent {
		if ts.Before(cutoff) {
			delete(s.recent, k)
		}
	}

	if last, exists := s.recent[key]; exists && now.Sub(last) <= s.window {
		return false
	}

	s.recent[key] = now
	return true
}

func semanticEventKey(event FileEvent) string {
	var b strings.Builder
	b.Grow(128)
	b.WriteString(event.Type)
	b.WriteString("|")
	b.WriteString(filepath.Clean(event.Path))
	if digest, ok := event.Details["digest"]; ok && digest != "" {
		b.WriteString("|digest=")
		b.WriteString(digest)
	}
	return b.String()
}
