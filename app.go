package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"wishlist/internal/api"
	"wishlist/internal/auth"
	"wishlist/internal/binding"
	"wishlist/internal/config"
	"wishlist/internal/database"
	fw "wishlist/internal/filewatcher"
	"wishlist/internal/router"
	"wishlist/internal/stores"
	"wishlist/internal/tokens"
	"wishlist/internal/validation"

	"github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"
)

const deepLinkPrefix = "wishlist://auth/callback"

// Provedores OAuth aceitos por StartOAuth
var oauthProviders = map[string]struct{}{
	"yandex":   {},
	"telegram": {},
}

var errTokensRemovedElsewhere = errors.New("tokens removed by another instance")

// App é a raiz de composição: dona de todos os serviços e dos bindings
// expostos ao frontend.
type App struct {
	ctx      context.Context
	settings *config.Settings
	log      *zap.Logger

	db             *database.Service
	tokens         *tokens.Store
	tokenFile      string
	client         *api.Client
	wishlistsAPI   *api.WishlistsService
	parser         *api.ParserService
	session        *auth.Service
	wishlists      *stores.WishlistsStore
	items          *stores.ItemsStore
	guard          *router.Guard
	callback       *auth.CallbackHandler
	callbackServer *auth.CallbackServer
	fileWatcher    fw.IFileWatcher

	mu            sync.RWMutex
	currentPath   string
	unsubscribers []func()

	// emitter substitui runtime.EventsEmit nos testes
	emitter func(eventName string, data interface{})
}

// NewApp creates a new App application struct
func NewApp(settings *config.Settings, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	return &App{
		settings:    settings,
		log:         log,
		currentPath: "/",
	}
}

// Startup is called when the app starts
// Abre banco e token store, monta os serviços e sobe o servidor de callback
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx
	a.log.Info("starting up", zap.String("version", config.AppVersion), zap.String("api", a.settings.APIBaseURL))

	// 1. Garantir diretórios existem
	if err := config.EnsureDataDirs(); err != nil {
		a.log.Error("failed to create data dirs", zap.Error(err))
	}

	// 2. Banco SQLite (cai para memória se não houver caminho gravável)
	db, err := database.NewService(a.settings.DBPath, a.log)
	if err != nil {
		a.log.Error("failed to open database, using in-memory fallback", zap.Error(err))
		db, err = database.NewMemoryService(a.log)
		if err != nil {
			a.log.Error("failed to open in-memory database", zap.Error(err))
		}
	}

	// 3. Token store
	store := tokens.NewStore(a.tokenBackend(), a.log)

	a.wire(store, db)

	// 4. Servidor local de callback OAuth
	if _, err := a.callbackServer.Start(a.settings.CallbackAddr); err != nil {
		a.log.Error("failed to start oauth callback server", zap.Error(err))
	}

	// 5. Outras instâncias do app mexendo no arquivo de tokens
	if a.tokenFile != "" {
		a.startTokenWatcher()
	}
}

func (a *App) tokenBackend() tokens.Backend {
	switch a.settings.TokenBackend {
	case config.TokenBackendFile:
		backend := tokens.NewFileBackend(config.TokenFilePath())
		a.tokenFile = backend.Path()
		return backend
	case config.TokenBackendMemory:
		return tokens.NewMemoryBackend()
	default:
		return tokens.NewKeyringBackend(config.AppBundleID)
	}
}

// wire monta o grafo de serviços sobre um token store e um banco já abertos.
func (a *App) wire(store *tokens.Store, db *database.Service) {
	a.tokens = store
	a.db = db

	a.client = api.NewClient(store, api.ClientOptions{
		BaseURL: a.settings.APIBaseURL,
		Timeout: a.settings.RequestTimeout,
		DevMode: a.settings.DevMode,
		Logger:  a.log,
	})
	authAPI := api.NewAuthService(a.client)
	a.wishlistsAPI = api.NewWishlistsService(a.client)
	a.parser = api.NewParserService(a.client, a.settings.ParserCacheTTL)

	opts := auth.Options{
		API:         authAPI,
		Tokens:      store,
		Logger:      a.log,
		OnTokensSet: a.client.NotifyTokensSet,
	}
	if db != nil {
		opts.Snapshots = auth.NewDatabaseSnapshots(db)
		opts.Events = db
	} else {
		opts.Snapshots = &auth.MemorySnapshots{}
	}
	a.session = auth.NewService(opts)

	a.wishlists = stores.NewWishlistsStore(a.wishlistsAPI, a.log)
	a.items = stores.NewItemsStore(api.NewItemsService(a.client), api.NewReservationsService(a.client), a.log)
	a.guard = router.NewGuard(router.NewTable(router.DefaultRoutes()), a.session, store)

	a.callback = auth.NewCallbackHandler(a.session, a.navigate, a.settings.CallbackErrorDelay, a.log)
	a.callbackServer = auth.NewCallbackServer(a.callback, a.log)

	a.client.SetSessionExpiredHandler(a.handleSessionExpired)

	a.unsubscribers = append(a.unsubscribers,
		a.session.Subscribe(func(s auth.Session) { a.emit("session:changed", newSessionDTO(s)) }),
		a.wishlists.Subscribe(func(s stores.WishlistsState) { a.emit("wishlists:changed", s) }),
		a.items.Subscribe(func(s stores.ItemsState) { a.emit("items:changed", s) }),
	)
}

// handleSessionExpired é a transição terminal do cliente HTTP: sessão
// zerada, stores limpos e navegação para /login.
func (a *App) handleSessionExpired(reason error) {
	ctx := a.context()
	a.session.Expire(ctx, reason)
	a.wishlists.Reset(ctx)
	a.items.Reset(ctx)
	a.navigate(auth.PathLogin)
}

func (a *App) startTokenWatcher() {
	var watcher fw.IFileWatcher
	watcher, err := fw.NewService(a.emit, a.log)
	if err != nil {
		a.log.Error("failed to initialize token watcher", zap.Error(err))
		return
	}
	watcher.OnChange(func(fw.FileEvent) {
		a.syncSessionWithTokens()
	})
	if err := watcher.Watch(a.tokenFile); err != nil {
		a.log.Warn("could not watch token file", zap.String("path", a.tokenFile), zap.Error(err))
		_ = watcher.Close()
		return
	}
	a.fileWatcher = watcher
}

// syncSessionWithTokens reconcilia a sessão quando outra instância faz
// login ou logout.
func (a *App) syncSessionWithTokens() {
	ctx := a.context()
	current := a.session.Session()
	hasToken := a.tokens.HasAccessToken()

	switch {
	case !hasToken && current.IsAuthenticated:
		a.log.Info("tokens removed externally, signing out")
		a.session.Expire(ctx, errTokensRemovedElsewhere)
		a.wishlists.Reset(ctx)
		a.items.Reset(ctx)
		a.navigate(auth.PathLogin)
	case hasToken && !current.IsAuthenticated && !current.IsLoading:
		a.log.Info("tokens stored externally, confirming session")
		a.client.NotifyTokensSet()
		if err := a.session.FetchUser(ctx); err != nil {
			a.log.Debug("external session could not be confirmed", zap.Error(err))
		}
	}
}

// DomReady is called when the frontend DOM is ready
func (a *App) DomReady(ctx context.Context) {
	a.log.Debug("dom ready")
	a.emit("app:hydrated", a.GetHydration())
}

// Shutdown is called when the app is shutting down
func (a *App) Shutdown(ctx context.Context) {
	a.log.Info("shutting down")

	if a.callbackServer != nil {
		a.callbackServer.Stop()
	}
	if a.fileWatcher != nil {
		if err := a.fileWatcher.Unwatch(a.tokenFile); err != nil {
			a.log.Debug("token file was not watched", zap.Error(err))
		}
		if err := a.fileWatcher.Close(); err != nil {
			a.log.Warn("failed to close token watcher", zap.Error(err))
		}
	}

	for _, unsubscribe := range a.unsubscribers {
		unsubscribe()
	}
	a.unsubscribers = nil

	if a.items != nil {
		a.items.Close()
	}
	if a.wishlists != nil {
		a.wishlists.Close()
	}
	if a.session != nil {
		a.session.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("failed to close database", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}

// HandleDeepLink recebe wishlist://auth/callback?access_token=..&refresh_token=..
func (a *App) HandleDeepLink(urlStr string) {
	if !strings.HasPrefix(urlStr, deepLinkPrefix) {
		a.log.Debug("ignored unknown deep link")
		return
	}
	parsed, err := url.Parse(urlStr)
	if err != nil {
		a.log.Warn("invalid deep link", zap.Error(err))
		return
	}
	result := a.callback.Handle(a.context(), parsed.Query())
	a.emit("auth:callback", result)
}

func (a *App) context() context.Context {
	if a.ctx != nil {
		return a.ctx
	}
	return context.Background()
}

func (a *App) emit(eventName string, data interface{}) {
	if a.emitter != nil {
		a.emitter(eventName, data)
		return
	}
	if a.ctx == nil || strings.TrimSpace(eventName) == "" {
		return
	}
	runtime.EventsEmit(a.ctx, eventName, data)
}

func (a *App) navigate(path string) {
	a.mu.Lock()
	a.currentPath = path
	a.mu.Unlock()
	a.emit("router:navigate", path)
}

// CurrentPath retorna o último destino de navegação
func (a *App) CurrentPath() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.currentPath
}

// === Tipos expostos ao Frontend via Wails bindings ===

// SessionDTO é a sessão com o status derivado
type SessionDTO struct {
	auth.Session
	Status string `json:"status"`
}

func newSessionDTO(s auth.Session) SessionDTO {
	return SessionDTO{Session: s, Status: s.Status()}
}

// HydrationPayload é o payload enviado ao frontend no startup
type HydrationPayload struct {
	Session             SessionDTO `json:"session"`
	OnboardingCompleted bool       `json:"onboardingCompleted"`
	Version             string     `json:"version"`
	APIBaseURL          string     `json:"apiBaseUrl"`
	CallbackURL         string     `json:"callbackUrl,omitempty"`
}

// GetHydration retorna o estado inicial para o frontend
func (a *App) GetHydration() HydrationPayload {
	payload := HydrationPayload{
		Version:    config.AppVersion,
		APIBaseURL: a.settings.APIBaseURL,
	}
	if a.session != nil {
		payload.Session = newSessionDTO(a.session.Session())
	}
	if a.tokens != nil {
		payload.OnboardingCompleted = a.tokens.OnboardingCompleted()
	}
	if a.callbackServer != nil {
		payload.CallbackURL = a.callbackServer.URL()
	}
	return payload
}

// bindingError normaliza erros para o contrato do frontend
func bindingError(err error) error {
	if err == nil {
		return nil
	}
	return binding.Normalize(err)
}

func validateForm(form interface{}) error {
	if err := validation.Struct(form); err != nil {
		return binding.Normalize(err)
	}
	return nil
}

func (a *App) requireServices() error {
	if a.session == nil {
		return binding.NewError(binding.CodeUnknown, api.MessageUnknown, "services not initialized")
	}
	return nil
}

func (a *App) resetDomainStores(ctx context.Context) {
	a.wishlists.Reset(ctx)
	a.items.Reset(ctx)
}

// startOAuthURL monta a URL de entrada do provedor no backend
func (a *App) startOAuthURL(provider string) (string, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if _, ok := oauthProviders[provider]; !ok {
		return "", binding.NewError(binding.CodeValidation, "Неизвестный провайдер", fmt.Sprintf("unsupported provider %q", provider))
	}
	return strings.TrimRight(a.settings.APIBaseURL, "/") + "/oauth/" + provider, nil
}
