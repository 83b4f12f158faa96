package stores

import (
	"context"

	"wishlist/internal/api"
	"wishlist/internal/state"

	"go.uber.org/zap"
)

// Mensagens de fallback das ações de item
const (
	MessageItemsLoadFailed         = "Ошибка загрузки подарков"
	MessageItemLoadFailed          = "Ошибка загрузки подарка"
	MessageItemCreateFailed        = "Ошибка добавления подарка"
	MessageItemUpdateFailed        = "Ошибка обновления подарка"
	MessageItemDeleteFailed        = "Ошибка удаления подарка"
	MessageReservationFailed       = "Ошибка бронирования подарка"
	MessageReservationCancelFailed = "Ошибка отмены бронирования"
	MessageReservationUpdateFailed = "Ошибка изменения бронирования"
)

// ItemsAPI é o subconjunto de /items/* usado pelo store
type ItemsAPI interface {
	ListByWishlist(ctx context.Context, wishlistID int64) ([]api.WishlistItem, error)
	Get(ctx context.Context, id int64) (*api.WishlistItem, error)
	Create(ctx context.Context, wishlistID int64, data api.ItemCreate) (*api.WishlistItem, error)
	Update(ctx context.Context, id int64, patch api.ItemUpdate) (*api.WishlistItem, error)
	Delete(ctx context.Context, id int64) error
}

// ReservationsAPI é o subconjunto de /reservations/* usado pelo store
type ReservationsAPI interface {
	Create(ctx context.Context, data api.ReservationCreate) (*api.Reservation, error)
	Cancel(ctx context.Context, reservationID int64) error
	Update(ctx context.Context, reservationID int64, patch api.ReservationUpdate) (*api.Reservation, error)
}

// ItemsState espelha os presentes da wishlist aberta
type ItemsState struct {
	Items     []api.WishlistItem `json:"items"`
	Current   *api.WishlistItem  `json:"current,omitempty"`
	IsLoading bool               `json:"isLoading"`
	Error     string             `json:"error,omitempty"`
}

type (
	itLoading    struct{}
	itListLoaded struct{ items []api.WishlistItem }
	itCurrent    struct{ item *api.WishlistItem }
	itCreated    struct{ item api.WishlistItem }
	itUpdated    struct{ item api.WishlistItem }
	itDeleted    struct{ id int64 }
	itReserved   struct {
		itemID      int64
		reservation *api.Reservation
	}
	itUnreserved struct{ itemID int64 }
	itFailed     struct{ message string }
	itClearError struct{}
	itReset      struct{}
)

func itemID(i api.WishlistItem) int64 { return i.ID }

func reduceItems(s ItemsState, action state.Action) ItemsState {
	switch a := action.(type) {
	case itLoading:
		s.IsLoading = true
		s.Error = ""
	case itListLoaded:
		s.Items = cloneSlice(a.items)
		s.IsLoading = false
	case itCurrent:
		s.Current = a.item
		s.IsLoading = false
	case itCreated:
		s.Items = appendItem(s.Items, a.item)
		s.IsLoading = false
	case itUpdated:
		s = applyItem(s, a.item)
		s.IsLoading = false
	case itDeleted:
		s.Items = removeByID(s.Items, a.id, itemID)
		if s.Current != nil && s.Current.ID == a.id {
			s.Current = nil
		}
		s.IsLoading = false
	case itReserved:
		if item, ok := findItem(s, a.itemID); ok {
			item.Status = api.StatusReserved
			item.Reservation = a.reservation
			s = applyItem(s, item)
		}
		s.IsLoading = false
	case itUnreserved:
		if item, ok := findItem(s, a.itemID); ok {
			item.Status = api.StatusAvailable
			item.Reservation = nil
			s = applyItem(s, item)
		}
		s.IsLoading = false
	case itFailed:
		s.Error = a.message
		s.IsLoading = false
	case itClearError:
		s.Error = ""
	case itReset:
		s = ItemsState{}
	}
	return s
}

// applyItem substitui o item por id na coleção e em Current
func applyItem(s ItemsState, item api.WishlistItem) ItemsState {
	s.Items = replaceByID(s.Items, item.ID, itemID, item)
	if s.Current != nil && s.Current.ID == item.ID {
		updated := item
		s.Current = &updated
	}
	return s
}

func findItem(s ItemsState, id int64) (api.WishlistItem, bool) {
	for _, item := range s.Items {
		if item.ID == id {
			return item, true
		}
	}
	if s.Current != nil && s.Current.ID == id {
		return *s.Current, true
	}
	return api.WishlistItem{}, false
}

// ItemsStore segue a mesma política confirm-then-apply do WishlistsStore e
// também controla reservas.
type ItemsStore struct {
	items        ItemsAPI
	reservations ReservationsAPI
	store        *state.Store[ItemsState]
	log          *zap.Logger
}

func NewItemsStore(items ItemsAPI, reservations ReservationsAPI, log *zap.Logger) *ItemsStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &ItemsStore{
		items:        items,
		reservations: reservations,
		store:        state.New(ItemsState{}, reduceItems),
		log:          log.Named("items"),
	}
}

func (i *ItemsStore) State() ItemsState {
	return i.store.Get()
}

func (i *ItemsStore) Subscribe(fn func(ItemsState)) func() {
	return i.store.Subscribe(fn)
}

func (i *ItemsStore) Close() {
	i.store.Close()
}

func (i *ItemsStore) dispatch(ctx context.Context, action state.Action) ItemsState {
	next, err := i.store.Dispatch(context.WithoutCancel(ctx), action)
	if err != nil {
		i.log.Debug("items dispatch dropped", zap.Error(err))
	}
	return next
}

func (i *ItemsStore) fail(ctx context.Context, err error, fallback string) ItemsState {
	i.log.Warn("item action failed", zap.String("fallback", fallback), zap.Error(err))
	return i.dispatch(ctx, itFailed{message: api.DetailOr(err, fallback)})
}

// FetchAll carrega os presentes de uma wishlist
func (i *ItemsStore) FetchAll(ctx context.Context, wishlistID int64) (ItemsState, error) {
	i.dispatch(ctx, itLoading{})
	items, err := i.items.ListByWishlist(ctx, wishlistID)
	if err != nil {
		return i.fail(ctx, err, MessageItemsLoadFailed), err
	}
	return i.dispatch(ctx, itListLoaded{items: items}), nil
}

func (i *ItemsStore) FetchOne(ctx context.Context, id int64) (ItemsState, error) {
	i.dispatch(ctx, itLoading{})
	item, err := i.items.Get(ctx, id)
	if err != nil {
		return i.fail(ctx, err, MessageItemLoadFailed), err
	}
	return i.dispatch(ctx, itCurrent{item: item}), nil
}

// Find procura o item por id na coleção e em Current
func (i *ItemsStore) Find(id int64) (api.WishlistItem, bool) {
	return findItem(i.State(), id)
}

// Load usa os itens que já vieram embutidos no detalhe da wishlist
func (i *ItemsStore) Load(ctx context.Context, items []api.WishlistItem) ItemsState {
	return i.dispatch(ctx, itListLoaded{items: items})
}

func (i *ItemsStore) Create(ctx context.Context, wishlistID int64, data api.ItemCreate) (*api.WishlistItem, error) {
	i.dispatch(ctx, itLoading{})
	created, err := i.items.Create(ctx, wishlistID, data)
	if err != nil {
		i.fail(ctx, err, MessageItemCreateFailed)
		return nil, err
	}
	i.dispatch(ctx, itCreated{item: *created})
	return created, nil
}

// Update aplica o retorno do servidor. Respostas fora de ordem para o mesmo
// id ficam com a última que chegar.
func (i *ItemsStore) Update(ctx context.Context, id int64, patch api.ItemUpdate) (*api.WishlistItem, error) {
	i.dispatch(ctx, itLoading{})
	updated, err := i.items.Update(ctx, id, patch)
	if err != nil {
		i.fail(ctx, err, MessageItemUpdateFailed)
		return nil, err
	}
	i.dispatch(ctx, itUpdated{item: *updated})
	return updated, nil
}

func (i *ItemsStore) UpdatePriority(ctx context.Context, id int64, priority string) (*api.WishlistItem, error) {
	return i.Update(ctx, id, api.ItemUpdate{Priority: &priority})
}

func (i *ItemsStore) UpdateStatus(ctx context.Context, id int64, status string) (*api.WishlistItem, error) {
	return i.Update(ctx, id, api.ItemUpdate{Status: &status})
}

func (i *ItemsStore) Delete(ctx context.Context, id int64) error {
	i.dispatch(ctx, itLoading{})
	if err := i.items.Delete(ctx, id); err != nil {
		i.fail(ctx, err, MessageItemDeleteFailed)
		return err
	}
	i.dispatch(ctx, itDeleted{id: id})
	return nil
}

// Reserve cria a reserva e marca o item como reservado
func (i *ItemsStore) Reserve(ctx context.Context, data api.ReservationCreate) (*api.Reservation, error) {
	i.dispatch(ctx, itLoading{})
	reservation, err := i.reservations.Create(ctx, data)
	if err != nil {
		i.fail(ctx, err, MessageReservationFailed)
		return nil, err
	}
	i.dispatch(ctx, itReserved{itemID: data.ItemID, reservation: reservation})
	return reservation, nil
}

// UpdateReservation troca os dados do convidado; o item segue reservado
func (i *ItemsStore) UpdateReservation(ctx context.Context, itemID, reservationID int64, patch api.ReservationUpdate) (*api.Reservation, error) {
	i.dispatch(ctx, itLoading{})
	reservation, err := i.reservations.Update(ctx, reservationID, patch)
	if err != nil {
		i.fail(ctx, err, MessageReservationUpdateFailed)
		return nil, err
	}
	i.dispatch(ctx, itReserved{itemID: itemID, reservation: reservation})
	return reservation, nil
}

// CancelReservation libera o item de novo
func (i *ItemsStore) CancelReservation(ctx context.Context, itemID, reservationID int64) error {
	i.dispatch(ctx, itLoading{})
	if err := i.reservations.Cancel(ctx, reservationID); err != nil {
		i.fail(ctx, err, MessageReservationCancelFailed)
		return err
	}
	i.dispatch(ctx, itUnreserved{itemID: itemID})
	return nil
}

// Stats calcula o resumo a partir dos itens carregados
func (i *ItemsStore) Stats() api.WishlistStats {
	return ComputeStats(i.State().Items)
}

// ComputeStats: reservados contam reserved e purchased; preço ausente vale zero.
func ComputeStats(items []api.WishlistItem) api.WishlistStats {
	stats := api.WishlistStats{TotalItems: len(items)}
	for _, item := range items {
		if item.Status == api.StatusReserved || item.Status == api.StatusPurchased {
			stats.ReservedItems++
		}
		if item.Price != nil {
			stats.TotalPrice += *item.Price
		}
	}
	return stats
}

func (i *ItemsStore) SetCurrent(ctx context.Context, item *api.WishlistItem) ItemsState {
	return i.dispatch(ctx, itCurrent{item: item})
}

func (i *ItemsStore) ClearError(ctx context.Context) ItemsState {
	return i.dispatch(ctx, itClearError{})
}

func (i *ItemsStore) Reset(ctx context.Context) ItemsState {
	return i.dispatch(ctx, itReset{})
}
