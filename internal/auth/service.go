package auth

import (
	"context"
	"fmt"

	"wishlist/internal/api"
	"wishlist/internal/database"
	"wishlist/internal/state"
	"wishlist/internal/tokens"

	"go.uber.org/zap"
)

// Mensagens de fallback quando o servidor não envia detail
const (
	MessageLoginFailed    = "Ошибка входа"
	MessageRegisterFailed = "Ошибка регистрации"
	MessageUpdateFailed   = "Ошибка обновления профиля"
)

// AuthAPI é o subconjunto de /auth/* usado pela sessão
type AuthAPI interface {
	Login(ctx context.Context, creds api.LoginCredentials) (*api.AuthResponse, error)
	Register(ctx context.Context, creds api.RegisterCredentials) (*api.AuthResponse, error)
	CurrentUser(ctx context.Context) (*api.User, error)
	UpdateProfile(ctx context.Context, patch api.UserUpdate) (*api.User, error)
	DeleteAccount(ctx context.Context) error
	Logout(ctx context.Context) error
}

// TokenStore é o subconjunto do token store usado pela sessão
type TokenStore interface {
	Set(pair tokens.TokenPair) error
	Clear() error
	HasAccessToken() bool
}

// EventRecorder registra o histórico local de autenticação
type EventRecorder interface {
	RecordAuthEvent(userID int64, action, details string) error
}

// Options agrupa as dependências do Service
type Options struct {
	API       AuthAPI
	Tokens    TokenStore
	Snapshots SnapshotRepository
	Events    EventRecorder
	Logger    *zap.Logger
	// OnTokensSet é avisado sempre que tokens novos são gravados
	OnTokensSet func()
}

// Service é a sessão do processo: usuário atual, flags de loading/erro e as
// ações que as alteram.
type Service struct {
	api         AuthAPI
	tokens      TokenStore
	snapshots   SnapshotRepository
	events      EventRecorder
	log         *zap.Logger
	onTokensSet func()

	store *state.Store[Session]
	unsub func()
}

// NewService restaura o snapshot salvo e passa a persistir cada mudança.
func NewService(opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		api:         opts.API,
		tokens:      opts.Tokens,
		snapshots:   opts.Snapshots,
		events:      opts.Events,
		log:         log.Named("auth"),
		onTokensSet: opts.OnTokensSet,
	}

	s.store = state.New(s.restore(), reduceSession)
	if s.snapshots != nil {
		s.unsub = s.store.Subscribe(func(current Session) {
			if err := s.snapshots.SaveSnapshot(ToSnapshot(current)); err != nil {
				s.log.Warn("failed to persist session snapshot", zap.Error(err))
			}
		})
	}
	return s
}

func (s *Service) restore() Session {
	if s.snapshots == nil {
		return Session{}
	}
	snap, err := s.snapshots.LoadSnapshot()
	if err != nil {
		s.log.Warn("failed to load session snapshot", zap.Error(err))
		return Session{}
	}
	return FromSnapshot(snap, s.tokens.HasAccessToken())
}

// Session retorna o estado atual
func (s *Service) Session() Session {
	return s.store.Get()
}

// Subscribe registra um listener de mudanças de sessão
func (s *Service) Subscribe(fn func(Session)) func() {
	return s.store.Subscribe(fn)
}

// Close para o loop da sessão
func (s *Service) Close() {
	if s.unsub != nil {
		s.unsub()
	}
	s.store.Close()
}

func (s *Service) dispatch(ctx context.Context, action state.Action) Session {
	// ações de sessão não são canceláveis: o estado precisa refletir o que já aconteceu
	next, err := s.store.Dispatch(context.WithoutCancel(ctx), action)
	if err != nil {
		s.log.Debug("session dispatch dropped", zap.Error(err))
	}
	return next
}

// Login autentica com email/senha
func (s *Service) Login(ctx context.Context, creds api.LoginCredentials) (*api.User, error) {
	s.dispatch(ctx, actionLoading{})

	resp, err := s.api.Login(ctx, creds)
	if err != nil {
		s.dispatch(ctx, actionAuthFailed{message: api.DetailOr(err, MessageLoginFailed)})
		return nil, err
	}
	user, err := s.establish(ctx, resp)
	if err != nil {
		s.dispatch(ctx, actionAuthFailed{message: api.DetailOr(err, MessageLoginFailed)})
		return nil, err
	}

	s.record(user.ID, database.ActionLogin, "")
	return user, nil
}

// Register cria a conta e já entra nela
func (s *Service) Register(ctx context.Context, creds api.RegisterCredentials) (*api.User, error) {
	s.dispatch(ctx, actionLoading{})

	resp, err := s.api.Register(ctx, creds)
	if err != nil {
		s.dispatch(ctx, actionAuthFailed{message: api.DetailOr(err, MessageRegisterFailed)})
		return nil, err
	}
	user, err := s.establish(ctx, resp)
	if err != nil {
		s.dispatch(ctx, actionAuthFailed{message: api.DetailOr(err, MessageRegisterFailed)})
		return nil, err
	}

	s.record(user.ID, database.ActionRegister, "")
	return user, nil
}

// establish grava os tokens e completa o usuário via /auth/me quando a
// resposta traz só tokens.
func (s *Service) establish(ctx context.Context, resp *api.AuthResponse) (*api.User, error) {
	if resp == nil || resp.AccessToken == "" {
		return nil, fmt.Errorf("auth response without access token")
	}
	if err := s.storeTokens(tokens.TokenPair{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}); err != nil {
		return nil, err
	}

	user := resp.User
	if user == nil {
		fetched, err := s.api.CurrentUser(ctx)
		if err != nil {
			s.clearTokens()
			return nil, err
		}
		user = fetched
	}

	s.dispatch(ctx, actionAuthenticated{user: user})
	return user, nil
}

// FetchUser confirma a sessão com o servidor. Sem access token não há
// requisição. Qualquer falha derruba a sessão local.
func (s *Service) FetchUser(ctx context.Context) error {
	if !s.tokens.HasAccessToken() {
		s.dispatch(ctx, actionReset{})
		return nil
	}

	s.dispatch(ctx, actionLoading{})
	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		s.log.Info("failed to fetch current user, resetting session", zap.Error(err))
		s.clearTokens()
		s.dispatch(ctx, actionReset{})
		return err
	}

	s.dispatch(ctx, actionAuthenticated{user: user})
	return nil
}

// Logout avisa o servidor (melhor esforço) e sempre limpa a sessão local.
func (s *Service) Logout(ctx context.Context) {
	current := s.Session()
	if s.tokens.HasAccessToken() {
		if err := s.api.Logout(ctx); err != nil {
			s.log.Debug("server logout failed", zap.Error(err))
		}
	}
	s.clearTokens()
	s.dispatch(ctx, actionReset{})

	if current.User != nil {
		s.record(current.User.ID, database.ActionLogout, "")
	}
}

// UpdateUser aplica um patch no perfil. Em falha o perfil anterior é mantido.
func (s *Service) UpdateUser(ctx context.Context, patch api.UserUpdate) (*api.User, error) {
	s.dispatch(ctx, actionLoading{})

	user, err := s.api.UpdateProfile(ctx, patch)
	if err != nil {
		s.dispatch(ctx, actionUpdateFailed{message: api.DetailOr(err, MessageUpdateFailed)})
		return nil, err
	}

	s.dispatch(ctx, actionAuthenticated{user: user})
	return user, nil
}

// DeleteAccount apaga a conta no servidor e encerra a sessão
func (s *Service) DeleteAccount(ctx context.Context) error {
	if err := s.api.DeleteAccount(ctx); err != nil {
		s.dispatch(ctx, actionUpdateFailed{message: api.ErrorMessage(err)})
		return err
	}
	s.clearTokens()
	s.dispatch(ctx, actionReset{})

	// a conta não existe mais; nada dela fica no disco
	if s.snapshots != nil {
		if err := s.snapshots.ClearSnapshot(); err != nil {
			s.log.Warn("failed to clear session snapshot", zap.Error(err))
		}
	}
	return nil
}

// SetTokens grava tokens vindos de fora (OAuth) e marca a sessão como
// autenticada sem buscar o usuário. Só retorna depois que a transição foi
// aplicada e os subscribers notificados.
func (s *Service) SetTokens(ctx context.Context, pair tokens.TokenPair) error {
	if err := s.storeTokens(pair); err != nil {
		return err
	}
	s.dispatch(ctx, actionTokensSet{})
	s.record(0, database.ActionOAuth, "")
	return nil
}

// SetUser troca o usuário; nil equivale a sair
func (s *Service) SetUser(ctx context.Context, user *api.User) Session {
	return s.dispatch(ctx, actionSetUser{user: user})
}

func (s *Service) ClearError(ctx context.Context) Session {
	return s.dispatch(ctx, actionClearError{})
}

// Expire é chamado quando o refresh falhou; o cliente HTTP já limpou os tokens.
func (s *Service) Expire(ctx context.Context, reason error) {
	current := s.Session()
	s.dispatch(ctx, actionReset{})

	var userID int64
	if current.User != nil {
		userID = current.User.ID
	}
	details := ""
	if reason != nil {
		details = reason.Error()
	}
	s.record(userID, database.ActionExpired, details)
}

func (s *Service) storeTokens(pair tokens.TokenPair) error {
	if err := s.tokens.Set(pair); err != nil {
		return fmt.Errorf("failed to store tokens: %w", err)
	}
	if s.onTokensSet != nil {
		s.onTokensSet()
	}
	return nil
}

func (s *Service) clearTokens() {
	if err := s.tokens.Clear(); err != nil {
		s.log.Warn("failed to clear tokens", zap.Error(err))
	}
}

// record grava no histórico local só o id e a ação; credenciais e e-mail
// nunca vão para o disco.
func (s *Service) record(userID int64, action, details string) {
	if s.events == nil {
		return
	}
	if err := s.events.RecordAuthEvent(userID, action, details); err != nil {
		s.log.Debug("failed to record auth event", zap.String("action", action), zap.Error(err))
	}
}
