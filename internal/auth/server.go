package auth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const callbackPath = "/auth/callback"

// CallbackServer é o servidor HTTP local que recebe o redirect do backend
// (/auth/callback?access_token=..&refresh_token=..).
type CallbackServer struct {
	handler *CallbackHandler
	log     *zap.Logger

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

func NewCallbackServer(handler *CallbackHandler, log *zap.Logger) *CallbackServer {
	if log == nil {
		log = zap.NewNop()
	}
	return &CallbackServer{handler: handler, log: log.Named("callback-server")}
}

// Start escuta em addr; se a porta estiver ocupada usa uma porta livre.
// Retorna a URL de callback efetiva.
func (s *CallbackServer) Start(addr string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return s.callbackURL(), nil
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		s.log.Warn("callback port busy, falling back to a free port", zap.String("addr", addr), zap.Error(err))
		listener, err = net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return "", fmt.Errorf("failed to start callback server: %w", err)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, s.handleCallback)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Wishlist authentication server"))
	})

	s.listener = listener
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	server := s.server
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("callback server error", zap.Error(err))
		}
	}()

	url := s.callbackURL()
	s.log.Info("callback server started", zap.String("url", url))
	return url, nil
}

// URL retorna a URL de callback atual ("" se parado)
func (s *CallbackServer) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.callbackURL()
}

func (s *CallbackServer) callbackURL() string {
	return fmt.Sprintf("http://%s%s", s.listener.Addr().String(), callbackPath)
}

// Stop desliga o servidor
func (s *CallbackServer) Stop() {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	if server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		s.log.Warn("callback server shutdown failed", zap.Error(err))
		return
	}
	s.log.Info("callback server stopped")
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	result := s.handler.Handle(r.Context(), r.URL.Query())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if !result.Success {
		w.WriteHeader(http.StatusBadRequest)
	}
	fmt.Fprint(w, renderCallbackPage(result))
}

func renderCallbackPage(result CallbackResult) string {
	title := "Вход выполнен"
	body := "Можно закрыть это окно и вернуться в приложение."
	if !result.Success {
		title = "Ошибка входа"
		body = html.EscapeString(result.Error)
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Wishlist - %s</title></head>
<body style="font-family: system-ui; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0;">
<div style="text-align: center;">
<h1>%s</h1>
<p>%s</p>
</div>
</body>
</html>`, title, title, body)
}
