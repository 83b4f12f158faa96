package api

import "time"

// User é a projeção do usuário mantida pelo servidor; sempre substituída inteira.
type User struct {
	ID               int64      `json:"id"`
	Email            string     `json:"email"`
	FullName         string     `json:"full_name"`
	Username         *string    `json:"username,omitempty"`
	TelegramID       *int64     `json:"telegram_id,omitempty"`
	TelegramUsername *string    `json:"telegram_username,omitempty"`
	IsVerified       bool       `json:"is_verified"`
	AvatarURL        *string    `json:"avatar_url,omitempty"`
	BirthDate        *string    `json:"birth_date,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	LastLogin        *time.Time `json:"last_login,omitempty"`
}

// UserUpdate é o patch parcial do perfil
type UserUpdate struct {
	FullName  *string `json:"full_name,omitempty"`
	Username  *string `json:"username,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	BirthDate *string `json:"birth_date,omitempty"`
}

// Tipos de acesso de uma wishlist
const (
	AccessPrivate = "private"
	AccessByLink  = "by_link"
	AccessPublic  = "public"
)

// Wishlist representa uma lista de desejos
type Wishlist struct {
	ID                int64          `json:"id"`
	Title             string         `json:"title"`
	Description       *string        `json:"description,omitempty"`
	Emoji             *string        `json:"emoji,omitempty"`
	EventDate         *string        `json:"event_date,omitempty"`
	AccessType        string         `json:"access_type"`
	AllowReservations bool           `json:"allow_reservations"`
	OwnerID           int64          `json:"owner_id"`
	Owner             *User          `json:"owner,omitempty"`
	Items             []WishlistItem `json:"items,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// WishlistCreate é o payload de criação
type WishlistCreate struct {
	Title             string  `json:"title"`
	Description       *string `json:"description,omitempty"`
	Emoji             *string `json:"emoji,omitempty"`
	EventDate         *string `json:"event_date,omitempty"`
	AccessType        string  `json:"access_type"`
	AllowReservations *bool   `json:"allow_reservations,omitempty"`
}

// WishlistUpdate carrega só os campos alterados. Clear lista os campos
// (nome json) enviados como null.
type WishlistUpdate struct {
	Title             *string  `json:"title,omitempty"`
	Description       *string  `json:"description,omitempty"`
	Emoji             *string  `json:"emoji,omitempty"`
	EventDate         *string  `json:"event_date,omitempty"`
	AccessType        *string  `json:"access_type,omitempty"`
	AllowReservations *bool    `json:"allow_reservations,omitempty"`
	Clear             []string `json:"-"`
}

// WishlistStats é o resumo servido por /wishlists/{id}/stats
type WishlistStats struct {
	TotalItems    int     `json:"total_items"`
	ReservedItems int     `json:"reserved_items"`
	TotalPrice    float64 `json:"total_price"`
}

// Prioridades e status de um item
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	StatusAvailable = "available"
	StatusReserved  = "reserved"
	StatusPurchased = "purchased"
)

// WishlistItem representa um presente dentro de uma wishlist
type WishlistItem struct {
	ID          int64        `json:"id"`
	WishlistID  int64        `json:"wishlist_id"`
	Title       string       `json:"title"`
	Description *string      `json:"description,omitempty"`
	Price       *float64     `json:"price,omitempty"`
	Link        *string      `json:"link,omitempty"`
	ImageURL    *string      `json:"image_url,omitempty"`
	Priority    string       `json:"priority"`
	Status      string       `json:"status"`
	Marketplace *string      `json:"marketplace,omitempty"`
	Images      []string     `json:"images,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	Position    *int         `json:"position,omitempty"`
	Reservation *Reservation `json:"reservation,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// ItemCreate é o payload de criação; WishlistID é preenchido pelo service.
type ItemCreate struct {
	WishlistID  int64    `json:"wishlist_id"`
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Link        *string  `json:"link,omitempty"`
	ImageURL    *string  `json:"image_url,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	Status      string   `json:"status,omitempty"`
	Marketplace *string  `json:"marketplace,omitempty"`
	Images      []string `json:"images,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Position    *int     `json:"position,omitempty"`
}

// ItemUpdate carrega só os campos alterados. Clear lista os campos
// (nome json) enviados como null.
type ItemUpdate struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Link        *string  `json:"link,omitempty"`
	ImageURL    *string  `json:"image_url,omitempty"`
	Priority    *string  `json:"priority,omitempty"`
	Status      *string  `json:"status,omitempty"`
	Marketplace *string  `json:"marketplace,omitempty"`
	Images      []string `json:"images,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Position    *int     `json:"position,omitempty"`
	Clear       []string `json:"-"`
}

// Reservation é a reserva de um item por um convidado
type Reservation struct {
	ID          int64     `json:"id"`
	ItemID      int64     `json:"item_id"`
	UserID      *int64    `json:"user_id,omitempty"`
	GuestName   *string   `json:"guest_name,omitempty"`
	GuestEmail  *string   `json:"guest_email,omitempty"`
	Comment     *string   `json:"comment,omitempty"`
	IsAnonymous bool      `json:"is_anonymous"`
	CreatedAt   time.Time `json:"created_at"`
}

type ReservationCreate struct {
	ItemID      int64   `json:"item_id"`
	GuestName   *string `json:"guest_name,omitempty"`
	GuestEmail  *string `json:"guest_email,omitempty"`
	Comment     *string `json:"comment,omitempty"`
	IsAnonymous bool    `json:"is_anonymous"`
}

// ReservationUpdate carrega só os campos alterados; Clear vai como null
type ReservationUpdate struct {
	GuestName   *string  `json:"guest_name,omitempty"`
	GuestEmail  *string  `json:"guest_email,omitempty"`
	Comment     *string  `json:"comment,omitempty"`
	IsAnonymous *bool    `json:"is_anonymous,omitempty"`
	Clear       []string `json:"-"`
}

type LoginCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterCredentials struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Username *string `json:"username,omitempty"`
	FullName *string `json:"full_name,omitempty"`
}

// AuthResponse é a resposta de login/registro. O backend atual devolve só os
// tokens; User vem preenchido quando o servidor o inclui.
type AuthResponse struct {
	User         *User  `json:"user,omitempty"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
}

// ParsedProduct é o resultado do parser de marketplaces
type ParsedProduct struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Currency    string   `json:"currency,omitempty"`
	ImageURL    *string  `json:"image_url,omitempty"`
	Images      []string `json:"images,omitempty"`
	Marketplace string   `json:"marketplace,omitempty"`
	Success     bool     `json:"success"`
	Error       *string  `json:"error,omitempty"`
}
