package tokens

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Chaves persistidas. A presença do access token é o único sinal local de
// "possivelmente autenticado".
const (
	KeyAccessToken         = "access_token"
	KeyRefreshToken        = "refresh_token"
	KeyOnboardingCompleted = "onboarding_completed"
)

// TokenPair armazena os tokens de acesso e refresh
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Backend é o armazenamento durável chave/valor por trás do Store.
// get retorna "" quando a chave não existe.
type Backend interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Store é o token store do processo. Não controla expiração: ela é
// descoberta reativamente por um 401.
type Store struct {
	backend Backend
	log     *zap.Logger
	mu      sync.Mutex
}

func NewStore(backend Backend, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{backend: backend, log: log.Named("tokens")}
}

// Get retorna o par atual; ok=false quando não há access token.
func (s *Store) Get() (TokenPair, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pair := TokenPair{
		AccessToken:  s.read(KeyAccessToken),
		RefreshToken: s.read(KeyRefreshToken),
	}
	return pair, pair.AccessToken != ""
}

// Set grava os dois tokens
func (s *Store) Set(pair TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(pair.AccessToken) == "" {
		return fmt.Errorf("access token must not be empty")
	}
	if err := s.backend.Set(KeyAccessToken, pair.AccessToken); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}
	if pair.RefreshToken == "" {
		return s.deleteLocked(KeyRefreshToken)
	}
	if err := s.backend.Set(KeyRefreshToken, pair.RefreshToken); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// SetAccessToken troca só o access token (resultado de um refresh)
func (s *Store) SetAccessToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("access token must not be empty")
	}
	if err := s.backend.Set(KeyAccessToken, token); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}
	return nil
}

// Clear remove os dois tokens. O flag de onboarding é mantido.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, key := range []string{KeyAccessToken, KeyRefreshToken} {
		if err := s.deleteLocked(key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Store) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(KeyAccessToken)
}

func (s *Store) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(KeyRefreshToken)
}

func (s *Store) HasAccessToken() bool {
	return s.AccessToken() != ""
}

// OnboardingCompleted informa se o onboarding já foi concluído neste perfil
func (s *Store) OnboardingCompleted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(KeyOnboardingCompleted) == "true"
}

func (s *Store) MarkOnboardingCompleted() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Set(KeyOnboardingCompleted, "true"); err != nil {
		return fmt.Errorf("failed to store onboarding flag: %w", err)
	}
	return nil
}

func (s *Store) read(key string) string {
	value, err := s.backend.Get(key)
	if err != nil {
		s.log.Warn("failed to read key", zap.String("key", key), zap.Error(err))
		return ""
	}
	return value
}

func (s *Store) deleteLocked(key string) error {
	if err := s.backend.Delete(key); err != nil {
		s.log.Warn("failed to delete key", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
