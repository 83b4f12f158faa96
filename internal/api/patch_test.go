package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemUpdateSendsClearedFieldsAsNull(t *testing.T) {
	title := "Teddy bear"
	body, err := json.Marshal(ItemUpdate{Title: &title, Clear: []string{"description", "price"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Teddy bear","description":null,"price":null}`, string(body))
}

func TestWishlistUpdateWithoutClearKeepsOmitEmpty(t *testing.T) {
	allow := false
	body, err := json.Marshal(WishlistUpdate{AllowReservations: &allow})
	require.NoError(t, err)
	assert.JSONEq(t, `{"allow_reservations":false}`, string(body))
}

func TestPatchIsEmpty(t *testing.T) {
	assert.True(t, ItemUpdate{}.IsEmpty())
	assert.False(t, ItemUpdate{Clear: []string{"link"}}.IsEmpty())
	assert.True(t, WishlistUpdate{}.IsEmpty())

	emoji := "🎄"
	assert.False(t, WishlistUpdate{Emoji: &emoji}.IsEmpty())
}
