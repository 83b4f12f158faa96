package stores

import (
	"context"

	"wishlist/internal/api"
	"wishlist/internal/state"

	"go.uber.org/zap"
)

// Mensagens de fallback das ações de wishlist
const (
	MessageWishlistsLoadFailed  = "Ошибка загрузки списков"
	MessageWishlistLoadFailed   = "Ошибка загрузки списка"
	MessageWishlistNotFound     = "Список не найден"
	MessageWishlistCreateFailed = "Ошибка создания списка"
	MessageWishlistUpdateFailed = "Ошибка обновления списка"
	MessageWishlistDeleteFailed = "Ошибка удаления списка"
)

// WishlistsAPI é o subconjunto de /wishlists/* usado pelo store
type WishlistsAPI interface {
	List(ctx context.Context) ([]api.Wishlist, error)
	Get(ctx context.Context, id int64) (*api.Wishlist, error)
	GetPublic(ctx context.Context, id int64) (*api.Wishlist, error)
	GetByOwner(ctx context.Context, username string, id int64) (*api.Wishlist, error)
	Create(ctx context.Context, data api.WishlistCreate) (*api.Wishlist, error)
	Update(ctx context.Context, id int64, patch api.WishlistUpdate) (*api.Wishlist, error)
	Delete(ctx context.Context, id int64) error
}

// WishlistsState espelha as wishlists do usuário
type WishlistsState struct {
	Wishlists []api.Wishlist `json:"wishlists"`
	Current   *api.Wishlist  `json:"current,omitempty"`
	IsLoading bool           `json:"isLoading"`
	Error     string         `json:"error,omitempty"`
}

type (
	wlLoading    struct{}
	wlListLoaded struct{ wishlists []api.Wishlist }
	wlCurrent    struct{ wishlist *api.Wishlist }
	wlCreated    struct{ wishlist api.Wishlist }
	wlUpdated    struct{ wishlist api.Wishlist }
	wlDeleted    struct{ id int64 }
	wlFailed     struct{ message string }
	wlClearError struct{}
	wlReset      struct{}
)

func wishlistID(w api.Wishlist) int64 { return w.ID }

func reduceWishlists(s WishlistsState, action state.Action) WishlistsState {
	switch a := action.(type) {
	case wlLoading:
		s.IsLoading = true
		s.Error = ""
	case wlListLoaded:
		s.Wishlists = cloneSlice(a.wishlists)
		s.IsLoading = false
	case wlCurrent:
		s.Current = a.wishlist
		s.IsLoading = false
	case wlCreated:
		s.Wishlists = appendItem(s.Wishlists, a.wishlist)
		s.IsLoading = false
	case wlUpdated:
		s.Wishlists = replaceByID(s.Wishlists, a.wishlist.ID, wishlistID, a.wishlist)
		if s.Current != nil && s.Current.ID == a.wishlist.ID {
			updated := a.wishlist
			s.Current = &updated
		}
		s.IsLoading = false
	case wlDeleted:
		s.Wishlists = removeByID(s.Wishlists, a.id, wishlistID)
		if s.Current != nil && s.Current.ID == a.id {
			s.Current = nil
		}
		s.IsLoading = false
	case wlFailed:
		s.Error = a.message
		s.IsLoading = false
	case wlClearError:
		s.Error = ""
	case wlReset:
		s = WishlistsState{}
	}
	return s
}

// WishlistsStore aplica as respostas do servidor ao estado local depois da
// confirmação. Chamadas concorrentes não são serializadas.
type WishlistsStore struct {
	api   WishlistsAPI
	store *state.Store[WishlistsState]
	log   *zap.Logger
}

func NewWishlistsStore(wishlists WishlistsAPI, log *zap.Logger) *WishlistsStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &WishlistsStore{
		api:   wishlists,
		store: state.New(WishlistsState{}, reduceWishlists),
		log:   log.Named("wishlists"),
	}
}

func (w *WishlistsStore) State() WishlistsState {
	return w.store.Get()
}

func (w *WishlistsStore) Subscribe(fn func(WishlistsState)) func() {
	return w.store.Subscribe(fn)
}

func (w *WishlistsStore) Close() {
	w.store.Close()
}

func (w *WishlistsStore) dispatch(ctx context.Context, action state.Action) WishlistsState {
	next, err := w.store.Dispatch(context.WithoutCancel(ctx), action)
	if err != nil {
		w.log.Debug("wishlists dispatch dropped", zap.Error(err))
	}
	return next
}

func (w *WishlistsStore) fail(ctx context.Context, err error, fallback string) WishlistsState {
	w.log.Warn("wishlist action failed", zap.String("fallback", fallback), zap.Error(err))
	return w.dispatch(ctx, wlFailed{message: api.DetailOr(err, fallback)})
}

// FetchAll carrega as wishlists do usuário. Falhas ficam em Error e o erro
// da própria requisição é devolvido junto.
func (w *WishlistsStore) FetchAll(ctx context.Context) (WishlistsState, error) {
	w.dispatch(ctx, wlLoading{})
	list, err := w.api.List(ctx)
	if err != nil {
		return w.fail(ctx, err, MessageWishlistsLoadFailed), err
	}
	return w.dispatch(ctx, wlListLoaded{wishlists: list}), nil
}

// FetchOne carrega uma wishlist do usuário em Current
func (w *WishlistsStore) FetchOne(ctx context.Context, id int64) (WishlistsState, error) {
	w.dispatch(ctx, wlLoading{})
	wishlist, err := w.api.Get(ctx, id)
	if err != nil {
		return w.fail(ctx, err, MessageWishlistLoadFailed), err
	}
	return w.dispatch(ctx, wlCurrent{wishlist: wishlist}), nil
}

// FetchPublic carrega uma wishlist pública (sem login)
func (w *WishlistsStore) FetchPublic(ctx context.Context, id int64) (WishlistsState, error) {
	w.dispatch(ctx, wlLoading{})
	wishlist, err := w.api.GetPublic(ctx, id)
	if err != nil {
		return w.fail(ctx, err, MessageWishlistNotFound), err
	}
	return w.dispatch(ctx, wlCurrent{wishlist: wishlist}), nil
}

// FetchByOwner carrega pelo link /{username}/{id}
func (w *WishlistsStore) FetchByOwner(ctx context.Context, username string, id int64) (WishlistsState, error) {
	w.dispatch(ctx, wlLoading{})
	wishlist, err := w.api.GetByOwner(ctx, username, id)
	if err != nil {
		return w.fail(ctx, err, MessageWishlistNotFound), err
	}
	return w.dispatch(ctx, wlCurrent{wishlist: wishlist}), nil
}

// Create anexa a wishlist criada pelo servidor
func (w *WishlistsStore) Create(ctx context.Context, data api.WishlistCreate) (*api.Wishlist, error) {
	w.dispatch(ctx, wlLoading{})
	created, err := w.api.Create(ctx, data)
	if err != nil {
		w.fail(ctx, err, MessageWishlistCreateFailed)
		return nil, err
	}
	w.dispatch(ctx, wlCreated{wishlist: *created})
	return created, nil
}

// Update substitui a wishlist pelo retorno do servidor
func (w *WishlistsStore) Update(ctx context.Context, id int64, patch api.WishlistUpdate) (*api.Wishlist, error) {
	w.dispatch(ctx, wlLoading{})
	updated, err := w.api.Update(ctx, id, patch)
	if err != nil {
		w.fail(ctx, err, MessageWishlistUpdateFailed)
		return nil, err
	}
	w.dispatch(ctx, wlUpdated{wishlist: *updated})
	return updated, nil
}

func (w *WishlistsStore) Delete(ctx context.Context, id int64) error {
	w.dispatch(ctx, wlLoading{})
	if err := w.api.Delete(ctx, id); err != nil {
		w.fail(ctx, err, MessageWishlistDeleteFailed)
		return err
	}
	w.dispatch(ctx, wlDeleted{id: id})
	return nil
}

// Find procura a wishlist por id em Current e na coleção
func (w *WishlistsStore) Find(id int64) (api.Wishlist, bool) {
	current := w.State()
	if current.Current != nil && current.Current.ID == id {
		return *current.Current, true
	}
	for _, wishlist := range current.Wishlists {
		if wishlist.ID == id {
			return wishlist, true
		}
	}
	return api.Wishlist{}, false
}

func (w *WishlistsStore) SetCurrent(ctx context.Context, wishlist *api.Wishlist) WishlistsState {
	return w.dispatch(ctx, wlCurrent{wishlist: wishlist})
}

func (w *WishlistsStore) ClearError(ctx context.Context) WishlistsState {
	return w.dispatch(ctx, wlClearError{})
}

// Reset descarta tudo (logout)
func (w *WishlistsStore) Reset(ctx context.Context) WishlistsState {
	return w.dispatch(ctx, wlReset{})
}
