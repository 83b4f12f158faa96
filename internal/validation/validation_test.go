package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixNow(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func TestLoginForm(t *testing.T) {
	require.NoError(t, Struct(LoginForm{Email: "a@b.com", Password: "secret1"}))

	err := Struct(LoginForm{Email: "not-an-email", Password: "123"})
	errs, ok := AsErrors(err)
	require.True(t, ok)
	assert.Equal(t, "Некорректный email", errs["email"])
	assert.Equal(t, "Пароль должен содержать минимум 6 символов", errs["password"])
}

func TestRegisterForm(t *testing.T) {
	valid := RegisterForm{FullName: "Ann", Email: "a@b.com", Password: "Secret12", ConfirmPassword: "Secret12"}
	require.NoError(t, Struct(valid))

	weak := valid
	weak.Password = "secret12"
	weak.ConfirmPassword = "secret12"
	errs, ok := AsErrors(Struct(weak))
	require.True(t, ok)
	assert.Contains(t, errs, "password")

	mismatch := valid
	mismatch.ConfirmPassword = "Secret13"
	errs, ok = AsErrors(Struct(mismatch))
	require.True(t, ok)
	assert.Equal(t, "Пароли не совпадают", errs["confirm_password"])
}

func TestWishlistFormEventDate(t *testing.T) {
	fixNow(t, time.Date(2026, 5, 10, 15, 0, 0, 0, time.Local))

	form := WishlistForm{Title: "Birthday", AccessType: "private", EventDate: "2026-05-10"}
	require.NoError(t, Struct(form))

	form.EventDate = "2026-05-09"
	errs, ok := AsErrors(Struct(form))
	require.True(t, ok)
	assert.Equal(t, "Дата события не может быть в прошлом", errs["event_date"])

	form.EventDate = "10.05.2026"
	errs, ok = AsErrors(Struct(form))
	require.True(t, ok)
	assert.Equal(t, "Некорректная дата события", errs["event_date"])
}

func TestWishlistFormRejectsUnknownAccessType(t *testing.T) {
	errs, ok := AsErrors(Struct(WishlistForm{Title: "Birthday", AccessType: "friends"}))
	require.True(t, ok)
	assert.Equal(t, "Выберите тип доступа", errs["access_type"])
}

func TestItemForm(t *testing.T) {
	price := 1500.0
	form := ItemForm{Title: "Lego", Priority: "high", Price: &price, Link: "https://ozon.ru/p/1"}
	require.NoError(t, Struct(form))

	tooExpensive := 20000000.0
	form.Price = &tooExpensive
	form.ImageURL = "not a url"
	errs, ok := AsErrors(Struct(form))
	require.True(t, ok)
	assert.Equal(t, "Цена слишком большая", errs["price"])
	assert.Equal(t, "Некорректная ссылка на изображение", errs["image_url"])

	create := ItemForm{Title: " Lego ", Priority: "low"}.Create(42)
	assert.Equal(t, int64(42), create.WishlistID)
	assert.Equal(t, "Lego", create.Title)
	assert.Nil(t, create.Link)
}

func TestReservationForm(t *testing.T) {
	require.NoError(t, Struct(ReservationForm{GuestName: "Bob"}))

	errs, ok := AsErrors(Struct(ReservationForm{GuestName: "B", GuestEmail: "bob"}))
	require.True(t, ok)
	assert.Equal(t, "Имя должно содержать минимум 2 символа", errs["guest_name"])
	assert.Equal(t, "Некорректный email", errs["guest_email"])
}

func TestErrorsMessageIsSorted(t *testing.T) {
	errs := Errors{"title": "x", "emoji": "y"}
	assert.Equal(t, "validation failed: emoji: y; title: x", errs.Error())
}

func TestTitleMessagesDependOnForm(t *testing.T) {
	errs, ok := AsErrors(Struct(ItemForm{Priority: "low"}))
	require.True(t, ok)
	assert.Equal(t, "Название подарка обязательно", errs["title"])

	errs, ok = AsErrors(Struct(WishlistForm{AccessType: "private"}))
	require.True(t, ok)
	assert.Equal(t, "Название обязательно", errs["title"])

	errs, ok = AsErrors(Struct(WishlistForm{Title: "ab", AccessType: "private"}))
	require.True(t, ok)
	assert.Equal(t, "Название должно содержать минимум 3 символа", errs["title"])

	errs, ok = AsErrors(Struct(ItemForm{Title: strings.Repeat("x", 201), Priority: "urgent"}))
	require.True(t, ok)
	assert.Equal(t, "Название слишком длинное (макс. 200 символов)", errs["title"])
	assert.Equal(t, "Выберите приоритет", errs["priority"])
}

func TestChars(t *testing.T) {
	for param, want := range map[string]string{
		"1":   "1 символ",
		"2":   "2 символа",
		"5":   "5 символов",
		"11":  "11 символов",
		"12":  "12 символов",
		"21":  "21 символ",
		"22":  "22 символа",
		"100": "100 символов",
	} {
		assert.Equal(t, want, chars(param), param)
	}
}
