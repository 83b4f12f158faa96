package main

import (
	"net/url"
	"strings"

	"wishlist/internal/api"
	"wishlist/internal/auth"
	"wishlist/internal/binding"
	"wishlist/internal/database"
	"wishlist/internal/router"
	"wishlist/internal/stores"
	"wishlist/internal/validation"

	"github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"
)

// ============================================================================
// Sessão
// ============================================================================

// GetSession retorna a sessão atual
func (a *App) GetSession() SessionDTO {
	if a.session == nil {
		return SessionDTO{}
	}
	return newSessionDTO(a.session.Session())
}

// Login autentica por email e senha
func (a *App) Login(form validation.LoginForm) (*api.User, error) {
	if err := a.requireServices(); err != nil {
		return nil, err
	}
	if err := validateForm(form); err != nil {
		return nil, err
	}
	user, err := a.session.Login(a.context(), form.Credentials())
	if err != nil {
		return nil, bindingError(err)
	}
	a.navigate(auth.PathDashboard)
	return user, nil
}

// Register cria a conta e já entra
func (a *App) Register(form validation.RegisterForm) (*api.User, error) {
	if err := a.requireServices(); err != nil {
		return nil, err
	}
	if err := validateForm(form); err != nil {
		return nil, err
	}
	user, err := a.session.Register(a.context(), form.Credentials())
	if err != nil {
		return nil, bindingError(err)
	}
	a.navigate(auth.PathDashboard)
	return user, nil
}

// Logout encerra a sessão local mesmo se o servidor falhar
func (a *App) Logout() {
	if a.session == nil {
		return
	}
	ctx := a.context()
	a.session.Logout(ctx)
	a.resetDomainStores(ctx)
	a.navigate(auth.PathLogin)
}

// FetchUser confirma a sessão com /auth/me
func (a *App) FetchUser() (SessionDTO, error) {
	if err := a.requireServices(); err != nil {
		return SessionDTO{}, err
	}
	err := a.session.FetchUser(a.context())
	return newSessionDTO(a.session.Session()), bindingError(err)
}

// UpdateProfile edita o perfil do usuário logado
func (a *App) UpdateProfile(form validation.ProfileForm) (*api.User, error) {
	if err := a.requireServices(); err != nil {
		return nil, err
	}
	if err := validateForm(form); err != nil {
		return nil, err
	}
	user, err := a.session.UpdateUser(a.context(), form.Update())
	return user, bindingError(err)
}

// DeleteAccount apaga a conta e encerra a sessão
func (a *App) DeleteAccount() error {
	if err := a.requireServices(); err != nil {
		return err
	}
	ctx := a.context()
	if err := a.session.DeleteAccount(ctx); err != nil {
		return bindingError(err)
	}
	a.resetDomainStores(ctx)
	a.navigate(auth.PathLogin)
	return nil
}

// ClearAuthError limpa a mensagem de erro da sessão
func (a *App) ClearAuthError() SessionDTO {
	if a.session == nil {
		return SessionDTO{}
	}
	return newSessionDTO(a.session.ClearError(a.context()))
}

// GetAuthHistory lista o histórico local de login/logout
func (a *App) GetAuthHistory(limit int) ([]database.AuthEvent, error) {
	if a.db == nil {
		return []database.AuthEvent{}, nil
	}
	events, err := a.db.ListAuthEvents(limit)
	if err != nil {
		a.log.Warn("failed to list auth history", zap.Error(err))
		return nil, bindingError(err)
	}
	return events, nil
}

// ============================================================================
// Navegação e OAuth
// ============================================================================

// Navigate resolve uma rota passando pelo guard
func (a *App) Navigate(path string) router.Decision {
	if a.guard == nil {
		return router.Decision{Kind: router.DecisionRedirect, RedirectTo: auth.PathLogin}
	}
	decision := a.guard.Resolve(a.context(), path)
	a.mu.Lock()
	if decision.Kind == router.DecisionRedirect {
		a.currentPath = decision.RedirectTo
	} else {
		a.currentPath = path
	}
	a.mu.Unlock()
	return decision
}

// StartOAuth abre o navegador na entrada OAuth do provedor
func (a *App) StartOAuth(provider string) (string, error) {
	target, err := a.startOAuthURL(provider)
	if err != nil {
		return "", err
	}
	if a.ctx != nil {
		runtime.BrowserOpenURL(a.ctx, target)
	}
	a.log.Info("oauth started", zap.String("provider", provider))
	return target, nil
}

// HandleAuthCallback processa a query string de /auth/callback vinda do
// frontend (ex.: quando o callback caiu na webview).
func (a *App) HandleAuthCallback(rawQuery string) (CallbackDTO, error) {
	if err := a.requireServices(); err != nil {
		return CallbackDTO{}, err
	}
	query, err := parseCallbackQuery(rawQuery)
	if err != nil {
		return CallbackDTO{}, binding.NewError(binding.CodeValidation, api.MessageGeneric, err.Error())
	}
	return CallbackDTO(a.callback.Handle(a.context(), query)), nil
}

// ============================================================================
// Onboarding
// ============================================================================

// CompleteOnboarding grava a flag de onboarding concluído
func (a *App) CompleteOnboarding() error {
	if a.tokens == nil {
		return binding.NewError(binding.CodeUnknown, api.MessageUnknown, "token store not initialized")
	}
	if err := a.tokens.MarkOnboardingCompleted(); err != nil {
		a.log.Warn("failed to persist onboarding flag", zap.Error(err))
		return bindingError(err)
	}
	return nil
}

// IsOnboardingCompleted informa se o onboarding já foi visto
func (a *App) IsOnboardingCompleted() bool {
	return a.tokens != nil && a.tokens.OnboardingCompleted()
}

// ============================================================================
// Wishlists
// ============================================================================

// ListWishlists carrega as wishlists do usuário
func (a *App) ListWishlists() (stores.WishlistsState, error) {
	if err := a.requireServices(); err != nil {
		return stores.WishlistsState{}, err
	}
	current, err := a.wishlists.FetchAll(a.context())
	return current, bindingError(err)
}

// GetWishlist carrega uma wishlist e os itens embutidos nela
func (a *App) GetWishlist(id int64) (stores.WishlistsState, error) {
	if err := a.requireServices(); err != nil {
		return stores.WishlistsState{}, err
	}
	current, err := a.wishlists.FetchOne(a.context(), id)
	if err != nil {
		return current, bindingError(err)
	}
	a.loadEmbeddedItems(current.Current)
	return current, nil
}

// GetPublicWishlist carrega a visão pública de uma wishlist
func (a *App) GetPublicWishlist(id int64) (stores.WishlistsState, error) {
	if err := a.requireServices(); err != nil {
		return stores.WishlistsState{}, err
	}
	current, err := a.wishlists.FetchPublic(a.context(), id)
	if err != nil {
		return current, bindingError(err)
	}
	a.loadEmbeddedItems(current.Current)
	return current, nil
}

// GetSharedWishlist carrega /:username/:id
func (a *App) GetSharedWishlist(username string, id int64) (stores.WishlistsState, error) {
	if err := a.requireServices(); err != nil {
		return stores.WishlistsState{}, err
	}
	current, err := a.wishlists.FetchByOwner(a.context(), username, id)
	if err != nil {
		return current, bindingError(err)
	}
	a.loadEmbeddedItems(current.Current)
	return current, nil
}

func (a *App) loadEmbeddedItems(wishlist *api.Wishlist) {
	if wishlist == nil || wishlist.Items == nil {
		return
	}
	a.items.Load(a.context(), wishlist.Items)
}

// CreateWishlist cria uma wishlist
func (a *App) CreateWishlist(form validation.WishlistForm) (*api.Wishlist, error) {
	if err := a.requireServices(); err != nil {
		return nil, err
	}
	if err := validateForm(form); err != nil {
		return nil, err
	}
	created, err := a.wishlists.Create(a.context(), form.Create())
	return created, bindingError(err)
}

// UpdateWishlist envia só os campos que diferem da wishlist carregada
func (a *App) UpdateWishlist(id int64, form validation.WishlistForm) (*api.Wishlist, error) {
	if err := a.requireServices(); err != nil {
		return nil, err
	}
	if err := validateForm(form); err != nil {
		return nil, err
	}
	ctx := a.context()
	current, ok := a.wishlists.Find(id)
	if !ok {
		if _, err := a.wishlists.FetchOne(ctx, id); err != nil {
			return nil, bindingError(err)
		}
		if current, ok = a.wishlists.Find(id); !ok {
			return nil, binding.NewError(binding.CodeNotFound, stores.MessageWishlistNotFound, "")
		}
	}

	patch := form.Patch(current)
	if patch.IsEmpty() {
		return &current, nil
	}
	updated, err := a.wishlists.Update(ctx, id, patch)
	return updated, bindingError(err)
}

// DeleteWishlist remove uma wishlist
func (a *App) DeleteWishlist(id int64) error {
	if err := a.requireServices(); err != nil {
		return err
	}
	return bindingError(a.wishlists.Delete(a.context(), id))
}

// GetWishlistStats pede as estatísticas ao servidor e, se falhar, calcula
// a partir dos itens carregados daquela wishlist.
func (a *App) GetWishlistStats(id int64) (api.WishlistStats, error) {
	if err := a.requireServices(); err != nil {
		return api.WishlistStats{}, err
	}
	stats, err := a.wishlistsAPI.Stats(a.context(), id)
	if err == nil && stats != nil {
		return *stats, nil
	}

	local := make([]api.WishlistItem, 0)
	for _, item := range a.items.State().Items {
		if item.WishlistID == id {
			local = append(local, item)
		}
	}
	if len(local) == 0 {
		return api.WishlistStats{}, bindingError(err)
	}
	a.log.Debug("using local wishlist stats", zap.Int64("wishlist_id", id), zap.Error(err))
	return stores.ComputeStats(local), nil
}

// ============================================================================
// Itens
// ============================================================================

// ListItems carrega os itens de uma wishlist
func (a *App) ListItems(wishlistID int64) (stores.ItemsState, error) {
	if err := a.requireServices(); err != nil {
		return stores.ItemsState{}, err
	}
	current, err := a.items.FetchAll(a.context(), wishlistID)
	return current, bindingError(err)
}

// GetItem carrega um item
func (a *App) GetItem(id int64) (stores.ItemsState, error) {
	if err := a.requireServices(); err != nil {
		return stores.ItemsState{}, err
	}
	current, err := a.items.FetchOne(a.context(), id)
	return current, bindingError(err)
}

// CreateItem adiciona um item à wishlist
func (a *App) CreateItem(wishlistID int64, form validation.ItemForm) (*api.WishlistItem, error) {
	if err := a.requireServices(); err != nil {
		return nil, err
	}
	if err := validateForm(form); err != nil {
		return nil, err
	}
	created, err := a.items.Create(a.context(), wishlistID, form.Create(wishlistID))
	return created, bindingError(err)
}

// UpdateItem envia só os campos que diferem do item carregado
func (a *App) UpdateItem(id int64, form validation.ItemForm) (*api.WishlistItem, error) {
	if err := a.requireServices(); err != nil {
		return nil, err
	}
	if err := validateForm(form); err != nil {
		return nil, err
	}
	ctx := a.context()
	current, ok := a.items.Find(id)
	if !ok {
		if _, err := a.items.FetchOne(ctx, id); err != nil {
			return nil, bindingError(err)
		}
		if current, ok = a.items.Find(id); !ok {
			return nil, binding.NewError(binding.CodeNotFound, stores.MessageItemLoadFailed, "")
		}
	}

	patch := form.Patch(current)
	if patch.IsEmpty() {
		return &current, nil
	}
	updated, err := a.items.Update(ctx, id, patch)
	return updated, bindingError(err)
}

// UpdateItemPriority muda só a prioridade
func (a *App) UpdateItemPriority(id int64, priority string) (*api.WishlistItem, error) {
	if err := a.requireServices(); err != nil {
		return nil, err
	}
	if err := validation.Struct(priorityInput{Priority: priority}); err != nil {
		return nil, binding.Normalize(err)
	}
	updated, err := a.items.UpdatePriority(a.context(), id, priority)
	return updated, bindingError(err)
}

// UpdateItemStatus muda só o status
func (a *App) UpdateItemStatus(id int64, status string) (*api.WishlistItem, error) {
	if err := a.requireServices(); err != nil {
		return nil, err
	}
	if err := validation.Struct(statusInput{Status: status}); err != nil {
		return nil, binding.Normalize(err)
	}
	updated, err := a.items.UpdateStatus(a.context(), id, status)
	return updated, bindingError(err)
}

// DeleteItem remove um item
func (a *App) DeleteItem(id int64) error {
	if err := a.requireServices(); err != nil {
		return err
	}
	return bindingError(a.items.Delete(a.context(), id))
}

// ============================================================================
// Reservas
// ============================================================================

// ReserveItem reserva um item para o convidado
func (a *App) ReserveItem(itemID int64, form validation.ReservationForm) (*api.Reservation, error) {
	if err := a.requireServices(); err != nil {
		return nil, err
	}
	if err := validateForm(form); err != nil {
		return nil, err
	}
	reservation, err := a.items.Reserve(a.context(), form.Create(itemID))
	return reservation, bindingError(err)
}

// UpdateReservation edita os dados do convidado numa reserva existente
func (a *App) UpdateReservation(itemID, reservationID int64, form validation.ReservationForm) (*api.Reservation, error) {
	if err := a.requireServices(); err != nil {
		return nil, err
	}
	if err := validateForm(form); err != nil {
		return nil, err
	}

	current := api.Reservation{ID: reservationID, ItemID: itemID}
	if item, ok := a.items.Find(itemID); ok && item.Reservation != nil && item.Reservation.ID == reservationID {
		current = *item.Reservation
	}
	patch := form.Patch(current)
	if patch.IsEmpty() {
		return &current, nil
	}
	reservation, err := a.items.UpdateReservation(a.context(), itemID, reservationID, patch)
	return reservation, bindingError(err)
}

// CancelReservation desfaz uma reserva
func (a *App) CancelReservation(itemID, reservationID int64) error {
	if err := a.requireServices(); err != nil {
		return err
	}
	return bindingError(a.items.CancelReservation(a.context(), itemID, reservationID))
}

// ============================================================================
// Parser de produtos
// ============================================================================

// ParseProductURL extrai título, preço e imagem de uma página de loja
func (a *App) ParseProductURL(rawURL string) (*api.ParsedProduct, error) {
	if a.parser == nil {
		return nil, binding.NewError(binding.CodeUnknown, api.MessageUnknown, "parser not initialized")
	}
	product, err := a.parser.ParseURL(a.context(), rawURL)
	return product, bindingError(err)
}

// ============================================================================
// Helpers
// ============================================================================

// CallbackDTO é o resultado do callback OAuth para o frontend
type CallbackDTO struct {
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	RedirectTo string `json:"redirectTo"`
}

type priorityInput struct {
	Priority string `json:"priority" validate:"required,oneof=low medium high"`
}

type statusInput struct {
	Status string `json:"status" validate:"required,oneof=available reserved purchased"`
}

// parseCallbackQuery aceita "?a=b", "a=b" ou a URL inteira do callback
func parseCallbackQuery(raw string) (url.Values, error) {
	raw = strings.TrimSpace(raw)
	if idx := strings.Index(raw, "?"); idx >= 0 {
		raw = raw[idx+1:]
	}
	return url.ParseQuery(raw)
}
