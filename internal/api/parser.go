package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
)

const defaultParserCacheTTL = 10 * time.Minute

// ParserService chama /parser/parse-url e guarda resultados bem sucedidos por URL.
type ParserService struct {
	client *Client
	cache  *Cache[*ParsedProduct]
}

func NewParserService(client *Client, ttl time.Duration) *ParserService {
	if ttl <= 0 {
		ttl = defaultParserCacheTTL
	}
	return &ParserService{client: client, cache: NewCache[*ParsedProduct](ttl)}
}

// ParseURL extrai dados de produto de um link de marketplace
func (s *ParserService) ParseURL(ctx context.Context, rawURL string) (*ParsedProduct, error) {
	key, err := normalizeProductURL(rawURL)
	if err != nil {
		return nil, err
	}
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	var out ParsedProduct
	if err := s.client.Post(ctx, "/parser/parse-url", map[string]string{"url": key}, &out); err != nil {
		return nil, err
	}
	// falhas de parsing não entram no cache: o marketplace pode voltar a responder
	if out.Success {
		s.cache.Set(key, &out)
	}
	return &out, nil
}

func normalizeProductURL(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", fmt.Errorf("invalid product url: %q", rawURL)
	}
	parsed.Fragment = ""
	return parsed.String(), nil
}

// Cache é um cache em memória com TTL por chave
type Cache[V any] struct {
	mu        sync.RWMutex
	values    map[string]V
	updatedAt map[string]time.Time
	ttl       time.Duration
	now       func() time.Time
}

// NewCache cria um novo cache com TTL
func NewCache[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		values:    make(map[string]V),
		updatedAt: make(map[string]time.Time),
		ttl:       ttl,
		now:       time.Now,
	}
}

// isExpired verifica se uma entrada do cache expirou
func (c *Cache[V]) isExpired(key string) bool {
	t, ok := c.updatedAt[key]
	if !ok {
		return true
	}
	return c.now().Sub(t) > c.ttl
}

// Get devolve o valor ainda válido; uma entrada vencida é removida aqui.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	if c.isExpired(key) {
		c.evict(key)
		return zero, false
	}
	v, ok := c.values[key]
	return v, ok
}

// Set grava o valor e varre as entradas vencidas, para que URLs consultadas
// uma única vez não fiquem para sempre no mapa.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.updatedAt {
		if c.isExpired(k) {
			c.evict(k)
		}
	}
	c.values[key] = value
	c.updatedAt[key] = c.now()
}

// Len conta as entradas guardadas, vencidas ou não
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

func (c *Cache[V]) evict(key string) {
	delete(c.values, key)
	delete(c.updatedAt, key)
}

// Invalidate remove uma chave
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evict(key)
}
