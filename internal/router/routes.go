package router

import (
	"sort"
	"strings"
)

// Nomes das views
const (
	ViewHome         = "home"
	ViewLogin        = "login"
	ViewRegister     = "register"
	ViewAuthCallback = "auth-callback"
	ViewPublicList   = "public-wishlist"
	ViewSharedList   = "shared-wishlist"
	ViewTerms        = "terms"
	ViewPrivacy      = "privacy"
	ViewOnboarding   = "onboarding"
	ViewDashboard    = "dashboard"
	ViewWishlist     = "wishlist"
	ViewProfile      = "profile"
	ViewNotFound     = "not-found"
)

// Route liga um padrão de caminho a uma view
type Route struct {
	Pattern   string `json:"pattern"`
	View      string `json:"view"`
	Protected bool   `json:"protected"`

	segments []string
}

// DefaultRoutes é a tabela de rotas do app
func DefaultRoutes() []Route {
	return []Route{
		{Pattern: "/", View: ViewHome},
		{Pattern: "/login", View: ViewLogin},
		{Pattern: "/register", View: ViewRegister},
		{Pattern: "/auth/callback", View: ViewAuthCallback},
		{Pattern: "/public/:id", View: ViewPublicList},
		{Pattern: "/terms", View: ViewTerms},
		{Pattern: "/privacy", View: ViewPrivacy},
		{Pattern: "/onboarding", View: ViewOnboarding},
		{Pattern: "/dashboard", View: ViewDashboard, Protected: true},
		{Pattern: "/wishlist/:id", View: ViewWishlist},
		{Pattern: "/profile", View: ViewProfile, Protected: true},
		{Pattern: "/:username/:id", View: ViewSharedList},
	}
}

// Table resolve caminhos para rotas
type Table struct {
	routes []Route
}

// NewTable ordena as rotas: segmentos estáticos vencem parâmetros na mesma
// posição, então /public/:id ganha de /:username/:id.
func NewTable(routes []Route) *Table {
	sorted := make([]Route, len(routes))
	for i, r := range routes {
		r.segments = splitPath(r.Pattern)
		sorted[i] = r
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return moreSpecific(sorted[i].segments, sorted[j].segments)
	})
	return &Table{routes: sorted}
}

// Match retorna a rota e os parâmetros; a rota not-found quando nada casa.
func (t *Table) Match(path string) (Route, map[string]string) {
	segments := splitPath(path)
	for _, route := range t.routes {
		if params, ok := matchSegments(route.segments, segments); ok {
			return route, params
		}
	}
	return Route{Pattern: "*", View: ViewNotFound}, map[string]string{}
}

func splitPath(path string) []string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func matchSegments(pattern, path []string) (map[string]string, bool) {
	if len(pattern) != len(path) {
		return nil, false
	}
	params := make(map[string]string)
	for i, seg := range pattern {
		if strings.HasPrefix(seg, ":") {
			if path[i] == "" {
				return nil, false
			}
			params[seg[1:]] = path[i]
			continue
		}
		if seg != path[i] {
			return nil, false
		}
	}
	return params, true
}

func moreSpecific(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		aParam := strings.HasPrefix(a[i], ":")
		bParam := strings.HasPrefix(b[i], ":")
		if aParam != bParam {
			return !aParam
		}
	}
	return false
}
