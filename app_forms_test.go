package main

import "wishlist/internal/validation"

func loginForm(email, password string) validation.LoginForm {
	return validation.LoginForm{Email: email, Password: password}
}

func wishlistForm(title string) validation.WishlistForm {
	return validation.WishlistForm{Title: title, AccessType: "by_link", AllowReservations: true}
}

func reservationForm(guest string) validation.ReservationForm {
	return validation.ReservationForm{GuestName: guest}
}

func itemForm(title, priority string) validation.ItemForm {
	return validation.ItemForm{Title: title, Priority: priority}
}

func strPtr(s string) *string { return &s }
