package router

import (
	"context"

	"wishlist/internal/auth"
)

// Tipos de decisão do guard
const (
	DecisionRender   = "render"
	DecisionLoading  = "loading"
	DecisionRedirect = "redirect"
)

// Decision diz o que a UI deve fazer com uma navegação
type Decision struct {
	Kind       string            `json:"kind"`
	View       string            `json:"view,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
	RedirectTo string            `json:"redirectTo,omitempty"`
	From       string            `json:"from,omitempty"`
}

// SessionSource é o que o guard precisa da sessão
type SessionSource interface {
	Session() auth.Session
	FetchUser(ctx context.Context) error
}

// TokenChecker informa se há access token guardado
type TokenChecker interface {
	HasAccessToken() bool
}

// Guard protege as rotas privadas
type Guard struct {
	table   *Table
	session SessionSource
	tokens  TokenChecker
}

func NewGuard(table *Table, session SessionSource, tokens TokenChecker) *Guard {
	return &Guard{table: table, session: session, tokens: tokens}
}

// Resolve decide a navegação para path. Numa rota protegida com token mas
// sem sessão confirmada, FetchUser roda antes da decisão.
func (g *Guard) Resolve(ctx context.Context, path string) Decision {
	route, params := g.table.Match(path)
	if !route.Protected {
		return Decision{Kind: DecisionRender, View: route.View, Params: params}
	}

	current := g.session.Session()
	if g.tokens.HasAccessToken() && !current.IsAuthenticated && !current.IsLoading {
		// falha já deixa a sessão anônima; a decisão abaixo cuida do redirect
		_ = g.session.FetchUser(ctx)
		current = g.session.Session()
	}

	switch {
	case current.IsLoading:
		return Decision{Kind: DecisionLoading, View: route.View, Params: params}
	case !current.IsAuthenticated:
		return Decision{Kind: DecisionRedirect, RedirectTo: auth.PathLogin, From: path}
	default:
		return Decision{Kind: DecisionRender, View: route.View, Params: params}
	}
}
