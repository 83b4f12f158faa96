package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// AuthService cobre /auth/*
type AuthService struct {
	client *Client
}

func NewAuthService(client *Client) *AuthService {
	return &AuthService{client: client}
}

func (s *AuthService) Register(ctx context.Context, creds RegisterCredentials) (*AuthResponse, error) {
	var resp AuthResponse
	if err := s.client.Post(ctx, "/auth/register", creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *AuthService) Login(ctx context.Context, creds LoginCredentials) (*AuthResponse, error) {
	var resp AuthResponse
	if err := s.client.Post(ctx, "/auth/login", creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CurrentUser busca o usuário dono do access token
func (s *AuthService) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := s.client.Get(ctx, "/auth/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, patch UserUpdate) (*User, error) {
	var user User
	if err := s.client.Patch(ctx, "/auth/me", patch, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) DeleteAccount(ctx context.Context) error {
	return s.client.Delete(ctx, "/auth/me")
}

// Logout só notifica o servidor; limpar tokens é responsabilidade da sessão.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.client.Post(ctx, "/auth/logout", nil, nil)
}

// WishlistsService cobre /wishlists/*
type WishlistsService struct {
	client *Client
}

func NewWishlistsService(client *Client) *WishlistsService {
	return &WishlistsService{client: client}
}

func (s *WishlistsService) List(ctx context.Context) ([]Wishlist, error) {
	var out []Wishlist
	if err := s.client.Get(ctx, "/wishlists/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *WishlistsService) Get(ctx context.Context, id int64) (*Wishlist, error) {
	var out Wishlist
	if err := s.client.Get(ctx, fmt.Sprintf("/wishlists/%d", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *WishlistsService) GetPublic(ctx context.Context, id int64) (*Wishlist, error) {
	var out Wishlist
	if err := s.client.Get(ctx, fmt.Sprintf("/wishlists/public/%d", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetByOwner busca pelo link compartilhável /{username}/{id}
func (s *WishlistsService) GetByOwner(ctx context.Context, username string, id int64) (*Wishlist, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	var out Wishlist
	if err := s.client.Get(ctx, fmt.Sprintf("/wishlists/u/%s/%d", url.PathEscape(username), id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *WishlistsService) Create(ctx context.Context, data WishlistCreate) (*Wishlist, error) {
	var out Wishlist
	if err := s.client.Post(ctx, "/wishlists/", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *WishlistsService) Update(ctx context.Context, id int64, patch WishlistUpdate) (*Wishlist, error) {
	var out Wishlist
	if err := s.client.Patch(ctx, fmt.Sprintf("/wishlists/%d", id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *WishlistsService) Delete(ctx context.Context, id int64) error {
	return s.client.Delete(ctx, fmt.Sprintf("/wishlists/%d", id))
}

func (s *WishlistsService) Stats(ctx context.Context, id int64) (*WishlistStats, error) {
	var out WishlistStats
	if err := s.client.Get(ctx, fmt.Sprintf("/wishlists/%d/stats", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ItemsService cobre /items/*
type ItemsService struct {
	client *Client
}

func NewItemsService(client *Client) *ItemsService {
	return &ItemsService{client: client}
}

func (s *ItemsService) ListByWishlist(ctx context.Context, wishlistID int64) ([]WishlistItem, error) {
	var out []WishlistItem
	if err := s.client.Get(ctx, fmt.Sprintf("/items/wishlist/%d", wishlistID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ItemsService) Get(ctx context.Context, id int64) (*WishlistItem, error) {
	var out WishlistItem
	if err := s.client.Get(ctx, fmt.Sprintf("/items/%d", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ItemsService) Create(ctx context.Context, wishlistID int64, data ItemCreate) (*WishlistItem, error) {
	data.WishlistID = wishlistID
	var out WishlistItem
	if err := s.client.Post(ctx, "/items/", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ItemsService) Update(ctx context.Context, id int64, patch ItemUpdate) (*WishlistItem, error) {
	var out WishlistItem
	if err := s.client.Put(ctx, fmt.Sprintf("/items/%d", id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ItemsService) Delete(ctx context.Context, id int64) error {
	return s.client.Delete(ctx, fmt.Sprintf("/items/%d", id))
}

// ReservationsService cobre /reservations/*
type ReservationsService struct {
	client *Client
}

func NewReservationsService(client *Client) *ReservationsService {
	return &ReservationsService{client: client}
}

func (s *ReservationsService) Create(ctx context.Context, data ReservationCreate) (*Reservation, error) {
	var out Reservation
	if err := s.client.Post(ctx, "/reservations/", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ReservationsService) Cancel(ctx context.Context, reservationID int64) error {
	return s.client.Delete(ctx, fmt.Sprintf("/reservations/%d", reservationID))
}

func (s *ReservationsService) Update(ctx context.Context, reservationID int64, patch ReservationUpdate) (*Reservation, error) {
	var out Reservation
	if err := s.client.Patch(ctx, fmt.Sprintf("/reservations/%d", reservationID), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
