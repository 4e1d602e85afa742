package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
)

func TestAdminPagesNeedAdminRole(t *testing.T) {
	site := newTestSite(t)

	anon := site.browser(t)
	rec := anon.get("/admin/produit/new")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/connexion?next=%2Fadmin%2Fproduit%2Fnew", rec.Header().Get("Location"))

	member := site.browser(t)
	member.post("/inscription", url.Values{
		"email":                 {"membre@example.com"},
		"username":              {"membre"},
		"password":              {"motdepasse"},
		"password_confirmation": {"motdepasse"},
	})
	member.login("membre@example.com", "motdepasse")
	assert.Equal(t, http.StatusForbidden, member.get("/admin/produit/new").Code)
	assert.Equal(t, http.StatusForbidden, member.post("/admin/categories", url.Values{"nom": {"Robes"}}).Code)

	admin := site.browser(t)
	admin.login(adminEmail, adminPassword)
	rec = admin.get("/admin/produit/new")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `enctype="multipart/form-data"`)
}

func TestAdminCreatesProductWithImage(t *testing.T) {
	site := newTestSite(t)
	admin := site.browser(t)
	admin.login(adminEmail, adminPassword)

	rec := admin.postMultipart("/admin/produit/new", url.Values{
		"nom":      {"Robe d'été"},
		"prix":     {"39,90"},
		"couleurs": {"rouge", "bleu"},
		"tailles":  {"M"},
	}, file{name: "robe.png", data: pngBytes()})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())

	var p models.Product
	require.NoError(t, site.repo.DB.Preload("Images").First(&p).Error)
	assert.Equal(t, "Robe d'été", p.Name)
	assert.Equal(t, "39.9", p.Price.String())
	assert.Equal(t, fmt.Sprintf("/produits/%d", p.ID), rec.Header().Get("Location"))
	require.Len(t, p.Images, 1)
	assert.True(t, strings.HasPrefix(p.Images[0].URL, "/uploads/products/"))

	_, err := os.Stat(filepath.Join(site.disk.Root(), p.Images[0].Path))
	require.NoError(t, err)

	rec = admin.get(p.Images[0].URL)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminUploadRejections(t *testing.T) {
	site := newTestSite(t)
	admin := site.browser(t)
	admin.login(adminEmail, adminPassword)
	fields := func() url.Values { return url.Values{"nom": {"Sac"}, "prix": {"50"}} }

	rec := admin.postMultipart("/admin/produit/new", fields(),
		file{name: "notes.png", data: []byte("ceci n'est pas une image")})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Format d&#39;image non accepté")

	big := append(pngBytes(), make([]byte, service.MaxUploadSize)...)
	rec = admin.postMultipart("/admin/produit/new", fields(), file{name: "grand.png", data: big})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Image trop volumineuse")

	var count int64
	require.NoError(t, site.repo.DB.Model(&models.Product{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAdminDeletesImageAndFallsBackToPlaceholder(t *testing.T) {
	site := newTestSite(t)
	admin := site.browser(t)
	admin.login(adminEmail, adminPassword)

	admin.postMultipart("/admin/produit/new", url.Values{"nom": {"Écharpe"}, "prix": {"15"}},
		file{name: "echarpe.png", data: pngBytes()})
	var p models.Product
	require.NoError(t, site.repo.DB.Preload("Images").First(&p).Error)
	require.Len(t, p.Images, 1)

	rec := admin.post(fmt.Sprintf("/admin/images/%d/supprimer", p.Images[0].ID), nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, fmt.Sprintf("/produits/%d/modifier", p.ID), rec.Header().Get("Location"))

	reloaded, err := site.repo.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Images, 1)
	assert.Equal(t, service.PlaceholderURL, reloaded.Images[0].URL)
}

func TestAdminCategories(t *testing.T) {
	site := newTestSite(t)
	admin := site.browser(t)
	admin.login(adminEmail, adminPassword)

	rec := admin.post("/admin/categories", url.Values{"nom": {"Accessoires"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	cats, err := site.repo.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 1)

	rec = admin.get(fmt.Sprintf("/Produits/categorie/%d", cats[0].ID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Accessoires")

	rec = admin.post(fmt.Sprintf("/admin/categories/%d/supprimer", cats[0].ID), nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	cats, err = site.repo.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cats)
}
