package api

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON envia os campos de Clear como null
func (u WishlistUpdate) MarshalJSON() ([]byte, error) {
	type plain WishlistUpdate
	return marshalPatch(plain(u), u.Clear)
}

// IsEmpty informa se o patch não altera nada
func (u WishlistUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Emoji == nil && u.EventDate == nil &&
		u.AccessType == nil && u.AllowReservations == nil && len(u.Clear) == 0
}

// MarshalJSON envia os campos de Clear como null
func (u ItemUpdate) MarshalJSON() ([]byte, error) {
	type plain ItemUpdate
	return marshalPatch(plain(u), u.Clear)
}

// IsEmpty informa se o patch não altera nada
func (u ItemUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Price == nil && u.Link == nil &&
		u.ImageURL == nil && u.Priority == nil && u.Status == nil && u.Marketplace == nil &&
		u.Images == nil && u.Tags == nil && u.Position == nil && len(u.Clear) == 0
}

// MarshalJSON envia os campos de Clear como null
func (u ReservationUpdate) MarshalJSON() ([]byte, error) {
	type plain ReservationUpdate
	return marshalPatch(plain(u), u.Clear)
}

// IsEmpty informa se o patch não altera nada
func (u ReservationUpdate) IsEmpty() bool {
	return u.GuestName == nil && u.GuestEmail == nil && u.Comment == nil && u.IsAnonymous == nil && len(u.Clear) == 0
}

func marshalPatch(v interface{}, clear []string) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil || len(clear) == 0 {
		return body, err
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("failed to rebuild patch: %w", err)
	}
	for _, name := range clear {
		fields[name] = json.RawMessage("null")
	}
	return json.Marshal(fields)
}
