package validation

import (
	"strings"

	"wishlist/internal/api"
)

// LoginForm é o formulário de entrada
type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (f LoginForm) Credentials() api.LoginCredentials {
	return api.LoginCredentials{Email: strings.TrimSpace(f.Email), Password: f.Password}
}

// RegisterForm é o formulário de cadastro
type RegisterForm struct {
	FullName        string `json:"full_name" validate:"required,min=2,max=100"`
	Username        string `json:"username" validate:"omitempty,min=3,max=50,alphanum"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,password_mix"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

func (f RegisterForm) Credentials() api.RegisterCredentials {
	creds := api.RegisterCredentials{
		Email:    strings.TrimSpace(f.Email),
		Password: f.Password,
		FullName: optional(f.FullName),
		Username: optional(f.Username),
	}
	return creds
}

// ProfileForm edita o perfil; campos vazios não são enviados
type ProfileForm struct {
	FullName  string `json:"full_name" validate:"omitempty,min=2,max=100"`
	Username  string `json:"username" validate:"omitempty,min=3,max=50,alphanum"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
	BirthDate string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
}

func (f ProfileForm) Update() api.UserUpdate {
	return api.UserUpdate{
		FullName:  optional(f.FullName),
		Username:  optional(f.Username),
		AvatarURL: optional(f.AvatarURL),
		BirthDate: optional(f.BirthDate),
	}
}

// WishlistForm cria ou edita uma wishlist
type WishlistForm struct {
	Title             string `json:"title" validate:"required,min=3,max=100"`
	Description       string `json:"description" validate:"max=500"`
	Emoji             string `json:"emoji" validate:"max=10"`
	EventDate         string `json:"event_date" validate:"omitempty,datetime=2006-01-02,not_past"`
	AccessType        string `json:"access_type" validate:"required,oneof=private by_link public"`
	AllowReservations bool   `json:"allow_reservations"`
}

func (f WishlistForm) Create() api.WishlistCreate {
	allow := f.AllowReservations
	return api.WishlistCreate{
		Title:             strings.TrimSpace(f.Title),
		Description:       optional(f.Description),
		Emoji:             optional(f.Emoji),
		EventDate:         optional(f.EventDate),
		AccessType:        f.AccessType,
		AllowReservations: &allow,
	}
}

// Patch compara o formulário com a wishlist atual e devolve só o que mudou.
// Campos opcionais esvaziados vão como null.
func (f WishlistForm) Patch(current api.Wishlist) api.WishlistUpdate {
	var d differ
	patch := api.WishlistUpdate{
		Title:       d.required(f.Title, current.Title),
		Description: d.optional("description", f.Description, current.Description),
		Emoji:       d.optional("emoji", f.Emoji, current.Emoji),
		EventDate:   d.optional("event_date", f.EventDate, current.EventDate),
		AccessType:  d.required(f.AccessType, current.AccessType),
	}
	if f.AllowReservations != current.AllowReservations {
		allow := f.AllowReservations
		patch.AllowReservations = &allow
	}
	patch.Clear = d.clear
	return patch
}

// ItemForm cria ou edita um presente
type ItemForm struct {
	Title       string   `json:"title" validate:"required,min=3,max=200"`
	Description string   `json:"description" validate:"max=1000"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0,lte=10000000"`
	Link        string   `json:"link" validate:"omitempty,url"`
	ImageURL    string   `json:"image_url" validate:"omitempty,url"`
	Priority    string   `json:"priority" validate:"required,oneof=low medium high"`
	Status      string   `json:"status" validate:"omitempty,oneof=available reserved purchased"`
	Marketplace string   `json:"marketplace" validate:"max=50"`
}

func (f ItemForm) Create(wishlistID int64) api.ItemCreate {
	return api.ItemCreate{
		WishlistID:  wishlistID,
		Title:       strings.TrimSpace(f.Title),
		Description: optional(f.Description),
		Price:       f.Price,
		Link:        optional(f.Link),
		ImageURL:    optional(f.ImageURL),
		Priority:    f.Priority,
		Status:      f.Status,
		Marketplace: optional(f.Marketplace),
	}
}

// Patch compara o formulário com o item atual e devolve só o que mudou.
// Status vazio mantém o atual.
func (f ItemForm) Patch(current api.WishlistItem) api.ItemUpdate {
	var d differ
	patch := api.ItemUpdate{
		Title:       d.required(f.Title, current.Title),
		Description: d.optional("description", f.Description, current.Description),
		Price:       d.price(f.Price, current.Price),
		Link:        d.optional("link", f.Link, current.Link),
		ImageURL:    d.optional("image_url", f.ImageURL, current.ImageURL),
		Priority:    d.required(f.Priority, current.Priority),
		Marketplace: d.optional("marketplace", f.Marketplace, current.Marketplace),
	}
	if f.Status != "" {
		patch.Status = d.required(f.Status, current.Status)
	}
	patch.Clear = d.clear
	return patch
}

// ReservationForm é preenchido pelo convidado que reserva um presente
type ReservationForm struct {
	GuestName   string `json:"guest_name" validate:"required,min=2,max=100"`
	GuestEmail  string `json:"guest_email" validate:"omitempty,email"`
	Comment     string `json:"comment" validate:"max=500"`
	IsAnonymous bool   `json:"is_anonymous"`
}

func (f ReservationForm) Create(itemID int64) api.ReservationCreate {
	return api.ReservationCreate{
		ItemID:      itemID,
		GuestName:   optional(f.GuestName),
		GuestEmail:  optional(f.GuestEmail),
		Comment:     optional(f.Comment),
		IsAnonymous: f.IsAnonymous,
	}
}

// Patch compara o formulário com a reserva atual
func (f ReservationForm) Patch(current api.Reservation) api.ReservationUpdate {
	var d differ
	patch := api.ReservationUpdate{
		GuestName:  d.optional("guest_name", f.GuestName, current.GuestName),
		GuestEmail: d.optional("guest_email", f.GuestEmail, current.GuestEmail),
		Comment:    d.optional("comment", f.Comment, current.Comment),
	}
	if f.IsAnonymous != current.IsAnonymous {
		anonymous := f.IsAnonymous
		patch.IsAnonymous = &anonymous
	}
	patch.Clear = d.clear
	return patch
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

// differ acumula os campos a limpar enquanto compara valores
type differ struct {
	clear []string
}

func (d *differ) required(value, current string) *string {
	value = strings.TrimSpace(value)
	if value == current {
		return nil
	}
	return &value
}

func (d *differ) optional(field, value string, current *string) *string {
	next := optional(value)
	switch {
	case next == nil:
		if current != nil && *current != "" {
			d.clear = append(d.clear, field)
		}
		return nil
	case current != nil && *current == *next:
		return nil
	default:
		return next
	}
}

func (d *differ) price(value, current *float64) *float64 {
	switch {
	case value == nil:
		if current != nil {
			d.clear = append(d.clear, "price")
		}
		return nil
	case current != nil && *current == *value:
		return nil
	default:
		next := *value
		return &next
	}
}
