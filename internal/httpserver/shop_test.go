package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestHealth(t *testing.T) {
	site := newTestSite(t)
	b := site.browser(t)

	assert.Equal(t, http.StatusOK, b.get("/health/live").Code)
	assert.Equal(t, http.StatusOK, b.get("/health/ready").Code)
}

func TestCatalogPages(t *testing.T) {
	site := newTestSite(t)
	p := site.product(t, "Pull en laine", "45.90")
	b := site.browser(t)

	rec := b.get("/Produits")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Pull en laine")
	assert.Contains(t, rec.Body.String(), "45,90 €")

	rec = b.get(fmt.Sprintf("/produits/%d", p.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="quantite"`)

	rec = b.get("/Produits/recherche?q=laine")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Pull en laine")
}

func TestNotFound(t *testing.T) {
	site := newTestSite(t)
	b := site.browser(t)

	assert.Equal(t, http.StatusNotFound, b.get("/produits/999").Code)
	assert.Equal(t, http.StatusNotFound, b.get("/produits/abc").Code)
	assert.Equal(t, http.StatusNotFound, b.get("/Produits/categorie/42").Code)
	assert.Equal(t, http.StatusNotFound, b.get("/nulle-part").Code)
	assert.Equal(t, http.StatusNotFound, b.post("/panier/ajouter/999", nil).Code)
}

func TestPostWithoutCSRFTokenIsRejected(t *testing.T) {
	site := newTestSite(t)
	p := site.product(t, "Bonnet", "12")
	b := site.browser(t)

	rec := b.do(http.MethodPost, fmt.Sprintf("/panier/ajouter/%d", p.ID),
		strings.NewReader("quantite=1"), "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCartAndCheckout(t *testing.T) {
	site := newTestSite(t)
	p := site.product(t, "Chemise", "12.50")
	b := site.browser(t)

	rec := b.post(fmt.Sprintf("/panier/ajouter/%d", p.ID), url.Values{"quantite": {"3"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, fmt.Sprintf("/produits/%d", p.ID), rec.Header().Get("Location"))

	rec = b.post(fmt.Sprintf("/panier/modifier-quantite/%d", p.ID), url.Values{"action": {"moins"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = b.get("/Panier")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Total : 25,00 €")
	assert.Contains(t, rec.Body.String(), "Panier (2)")

	rec = b.get("/panier/commander")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = b.post("/panier/commander", url.Values{
		"nom":                 {"Jeanne Martin"},
		"telephone":           {"0601020304"},
		"adresse_facturation": {"1 rue de la Paix, Paris"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	confirmation := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(confirmation, "/panier/confirmation/"), confirmation)

	rec = b.get(confirmation)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "CMD-")
	assert.Contains(t, body, "Total : 25,00 €")
	assert.Contains(t, body, "Livraison : 1 rue de la Paix, Paris")

	orders, err := site.repo.AllOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "25", orders[0].Total.String())

	assert.Contains(t, b.get("/Panier").Body.String(), "Votre panier est vide.")

	stranger := site.browser(t)
	assert.Equal(t, http.StatusNotFound, stranger.get(confirmation).Code)
}

func TestCheckoutRequiresItemsAndFields(t *testing.T) {
	site := newTestSite(t)
	p := site.product(t, "Ceinture", "20")
	b := site.browser(t)

	rec := b.get("/panier/commander")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/Panier", rec.Header().Get("Location"))

	b.post(fmt.Sprintf("/panier/ajouter/%d", p.ID), nil)
	rec = b.post("/panier/commander", url.Values{"nom": {"Jeanne"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="error"`)

	orders, err := site.repo.AllOrders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Contains(t, b.get("/Panier").Body.String(), "Ceinture")
}

func TestRegisterAndLogin(t *testing.T) {
	site := newTestSite(t)
	b := site.browser(t)

	form := url.Values{
		"email":                 {"client@example.com"},
		"username":              {"client"},
		"password":              {"motdepasse"},
		"password_confirmation": {"motdepasse"},
	}
	rec := b.post("/inscription", form)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/connexion", rec.Header().Get("Location"))

	rec = b.post("/inscription", form)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "déjà utilisée")

	rec = b.post("/connexion", url.Values{"email": {"client@example.com"}, "password": {"mauvais"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	b.login("client@example.com", "motdepasse")
	rec = b.get("/profil")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "client@example.com")

	rec = b.post("/deconnexion", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.NotContains(t, b.cookies, "accessToken")
}

func TestProfileRequiresLogin(t *testing.T) {
	site := newTestSite(t)
	b := site.browser(t)

	rec := b.get("/profil")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/connexion?next=%2Fprofil", rec.Header().Get("Location"))
}

func TestPasswordReset(t *testing.T) {
	site := newTestSite(t)
	b := site.browser(t)

	rec := b.post("/mot-de-passe-oublie", url.Values{"email": {adminEmail}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	mail := site.mail.last()
	i := strings.Index(mail, "/reset-password/")
	require.GreaterOrEqual(t, i, 0, mail)
	token := strings.FieldsFunc(mail[i+len("/reset-password/"):], func(r rune) bool {
		return r == '"' || r == '<' || r == ' ' || r == '\n'
	})[0]
	link := "/reset-password/" + token

	require.Equal(t, http.StatusOK, b.get(link).Code)

	rec = b.post(link, url.Values{"password": {"nouveau-mdp"}, "password_confirmation": {"nouveau-mdp"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	b.login(adminEmail, "nouveau-mdp")

	rec = b.get(link)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "déjà été utilisé")

	rec = b.get("/reset-password/inconnu")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalide")
}

func TestCartRejectsOversizedQuantity(t *testing.T) {
	site := newTestSite(t)
	p := site.product(t, "Gants", "10")
	b := site.browser(t)
	target := fmt.Sprintf("/panier/ajouter/%d", p.ID)

	require.Equal(t, http.StatusSeeOther, b.post(target, url.Values{"quantite": {"2"}}).Code)
	rec := b.post(target, url.Values{"quantite": {"9223372036854775807"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	body := b.get("/Panier").Body.String()
	assert.Contains(t, body, "Total : 20,00 €")
	assert.Contains(t, body, "La quantité doit être comprise entre 1 et 999.")
}

func TestRegisterRejectsPasswordOverBcryptLimit(t *testing.T) {
	site := newTestSite(t)
	b := site.browser(t)
	long := strings.Repeat("é", 40)

	rec := b.post("/inscription", url.Values{
		"email":                 {"client@example.com"},
		"username":              {"client"},
		"password":              {long},
		"password_confirmation": {long},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, err := site.repo.UserByEmail(context.Background(), "client@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
