package auth

import (
	"wishlist/internal/api"
	"wishlist/internal/state"
)

// Status resumido da sessão, usado pelo guard e pela UI
const (
	StatusAnonymous     = "anonymous"
	StatusLoading       = "loading"
	StatusAuthenticated = "authenticated"
)

// Session é o estado de autenticação do processo
type Session struct {
	User            *api.User `json:"user,omitempty"`
	IsAuthenticated bool      `json:"isAuthenticated"`
	IsLoading       bool      `json:"isLoading"`
	Error           string    `json:"error,omitempty"`
}

// Status deriva anonymous | loading | authenticated
func (s Session) Status() string {
	switch {
	case s.IsLoading:
		return StatusLoading
	case s.IsAuthenticated:
		return StatusAuthenticated
	default:
		return StatusAnonymous
	}
}

type (
	actionLoading       struct{}
	actionAuthenticated struct{ user *api.User }
	actionAuthFailed    struct{ message string }
	actionUpdateFailed  struct{ message string }
	actionTokensSet     struct{}
	actionSetUser       struct{ user *api.User }
	actionClearError    struct{}
	actionReset         struct{}
)

// reduceSession é o reducer puro da sessão
func reduceSession(s Session, action state.Action) Session {
	switch a := action.(type) {
	case actionLoading:
		s.IsLoading = true
		s.Error = ""
	case actionAuthenticated:
		s = Session{User: a.user, IsAuthenticated: true}
	case actionAuthFailed:
		s = Session{Error: a.message}
	case actionUpdateFailed:
		// perfil anterior é mantido
		s.IsLoading = false
		s.Error = a.message
	case actionTokensSet:
		s.IsAuthenticated = true
		s.IsLoading = false
		s.Error = ""
	case actionSetUser:
		s.User = a.user
		s.IsAuthenticated = a.user != nil
	case actionClearError:
		s.Error = ""
	case actionReset:
		s = Session{}
	}
	return s
}
