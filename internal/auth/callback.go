package auth

import (
	"context"
	"net/url"
	"strings"
	"time"

	"wishlist/internal/api"
	"wishlist/internal/tokens"

	"go.uber.org/zap"
)

// MessageMissingTokens é exibido quando o provedor volta sem o par de tokens
const MessageMissingTokens = "Отсутствуют токены авторизации"

const (
	defaultCallbackErrorDelay = 2 * time.Second

	PathLogin     = "/login"
	PathDashboard = "/dashboard"
)

// TokenSetter é o que o callback precisa da sessão
type TokenSetter interface {
	SetTokens(ctx context.Context, pair tokens.TokenPair) error
}

// CallbackResult é o que a tela de callback exibe
type CallbackResult struct {
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	RedirectTo string `json:"redirectTo"`
}

// CallbackHandler finaliza o login OAuth a partir da query do redirect.
type CallbackHandler struct {
	session    TokenSetter
	navigate   func(path string)
	errorDelay time.Duration
	log        *zap.Logger

	// afterFunc é trocado nos testes
	afterFunc func(d time.Duration, f func()) *time.Timer
}

// NewCallbackHandler cria o handler. navigate recebe o destino final.
func NewCallbackHandler(session TokenSetter, navigate func(path string), errorDelay time.Duration, log *zap.Logger) *CallbackHandler {
	if errorDelay <= 0 {
		errorDelay = defaultCallbackErrorDelay
	}
	if log == nil {
		log = zap.NewNop()
	}
	if navigate == nil {
		navigate = func(string) {}
	}
	return &CallbackHandler{
		session:    session,
		navigate:   navigate,
		errorDelay: errorDelay,
		log:        log.Named("oauth"),
		afterFunc:  time.AfterFunc,
	}
}

// Handle lê access_token e refresh_token da query. Os dois são obrigatórios;
// sem eles SetTokens nunca é chamado e o usuário volta para /login depois
// do atraso configurado.
func (h *CallbackHandler) Handle(ctx context.Context, query url.Values) CallbackResult {
	accessToken := strings.TrimSpace(query.Get("access_token"))
	refreshToken := strings.TrimSpace(query.Get("refresh_token"))

	if accessToken == "" || refreshToken == "" {
		h.log.Warn("oauth callback without tokens",
			zap.Bool("hasAccessToken", accessToken != ""),
			zap.Bool("hasRefreshToken", refreshToken != ""),
			zap.String("providerError", query.Get("error")))
		return h.fail(MessageMissingTokens)
	}

	// SetTokens só retorna depois que a sessão autenticada foi aplicada,
	// então o guard de /dashboard já enxerga isAuthenticated=true.
	if err := h.session.SetTokens(ctx, tokens.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}); err != nil {
		h.log.Error("failed to store oauth tokens", zap.Error(err))
		return h.fail(api.ErrorMessage(err))
	}

	h.navigate(PathDashboard)
	return CallbackResult{Success: true, RedirectTo: PathDashboard}
}

func (h *CallbackHandler) fail(message string) CallbackResult {
	h.afterFunc(h.errorDelay, func() {
		h.navigate(PathLogin)
	})
	return CallbackResult{Error: message, RedirectTo: PathLogin}
}
