package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestSetGetDelete(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("panier", []int{1, 2}))
	require.True(t, s.Changed())

	var got []int
	require.True(t, s.Get("panier", &got))
	require.Equal(t, []int{1, 2}, got)

	s.Delete("panier")
	require.False(t, s.Get("panier", &got))
}

func TestFlashesArePoppedOnce(t *testing.T) {
	s := New()
	s.Flash("success", "Produit ajouté au panier !")
	s.Flash("warning", "Votre panier est vide !")

	require.Equal(t, []Flash{
		{Kind: "success", Message: "Produit ajouté au panier !"},
		{Kind: "warning", Message: "Votre panier est vide !"},
	}, s.Flashes())
	require.Empty(t, s.Flashes())
}

func TestInvalidateChangesID(t *testing.T) {
	s := New()
	_ = s.Set("k", "v")
	old := s.ID()
	s.Invalidate()
	require.NotEqual(t, old, s.ID())
	require.False(t, s.Get("k", new(string)))
}

func TestMemoryStoreExpiry(t *testing.T) {
	m := NewMemoryStore()
	now := time.Now()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, "id", nil, time.Minute))
	data, err := m.Load(ctx, "id")
	require.NoError(t, err)
	require.Nil(t, data)

	s := New()
	_ = s.Set("a", 1)
	require.NoError(t, m.Save(ctx, "id", s.data, time.Minute))
	data, err = m.Load(ctx, "id")
	require.NoError(t, err)
	require.Contains(t, data, "a")

	m.now = func() time.Time { return now.Add(2 * time.Minute) }
	data, err = m.Load(ctx, "id")
	require.NoError(t, err)
	require.Nil(t, data)
}

func TestMiddlewarePersistsAcrossRequests(t *testing.T) {
	store := NewMemoryStore()
	e := echo.New()
	e.Use(Middleware(store, DefaultOptions()))
	e.POST("/set", func(c echo.Context) error {
		_ = FromContext(c).Set("panier", map[string]int{"3": 2})
		return c.Redirect(http.StatusSeeOther, "/get")
	})
	e.GET("/get", func(c echo.Context) error {
		var cart map[string]int
		FromContext(c).Get("panier", &cart)
		return c.JSON(http.StatusOK, cart)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/set", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/get", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.JSONEq(t, `{"3":2}`, rec.Body.String())
}
