package httpserver

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/middleware/ratelimit"
	"github.com/Skotchmaster/storefront/pkg/session"
	"github.com/Skotchmaster/storefront/pkg/storage"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-secret"
)

type outbox struct {
	mu   sync.Mutex
	sent []string
}

func (o *outbox) Send(_ context.Context, _, _, body string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, body)
	return nil
}

func (o *outbox) last() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sent) == 0 {
		return ""
	}
	return o.sent[len(o.sent)-1]
}

type testSite struct {
	e        *echo.Echo
	repo     *repo.GormRepo
	disk     *storage.Local
	accounts *service.AccountService
	mail     *outbox
}

func newTestSite(t *testing.T) *testSite {
	t.Helper()
	ctx := context.Background()

	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	r := repo.New(gdb)
	require.NoError(t, r.Migrate(ctx))

	disk, err := storage.NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)

	mailer := &outbox{}
	media := &service.MediaService{Repo: r, Disk: disk}
	search := &service.SearchService{Repo: r}
	accounts := &service.AccountService{Repo: r, Mailer: mailer, BaseURL: "http://example.com"}
	_, err = accounts.EnsureAdmin(ctx, adminEmail, adminPassword)
	require.NoError(t, err)

	e, err := New(&Deps{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Catalog:  &service.CatalogService{Repo: r, Media: media, Search: search},
		Search:   search,
		Cart:     &service.CartService{Repo: r},
		Orders:   &service.OrderService{Repo: r},
		Accounts: accounts,
		Auth: &service.AuthService{
			Repo:          r,
			JWTSecret:     []byte("access-secret"),
			RefreshSecret: []byte("refresh-secret"),
		},
		Media:          media,
		DB:             r,
		JWTSecret:      []byte("access-secret"),
		Sessions:       session.NewMemoryStore(),
		SessionOptions: session.DefaultOptions(),
		UploadsDir:     disk.Root(),
		Limiter:        ratelimit.New(time.Millisecond, 100),
	})
	require.NoError(t, err)

	return &testSite{e: e, repo: r, disk: disk, accounts: accounts, mail: mailer}
}

func (s *testSite) product(t *testing.T, name, price string) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: decimal.RequireFromString(price)}
	require.NoError(t, s.repo.CreateProduct(context.Background(), p))
	return p
}

// browser keeps cookies between requests the way a visitor's browser would.
type browser struct {
	t       *testing.T
	e       *echo.Echo
	cookies map[string]*http.Cookie
}

func (s *testSite) browser(t *testing.T) *browser {
	return &browser{t: t, e: s.e, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	b.t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if method != http.MethodGet {
		req.Header.Set(echo.HeaderOrigin, "http://example.com")
	}
	for _, c := range b.cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}

	rec := httptest.NewRecorder()
	b.e.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) get(target string) *httptest.ResponseRecorder {
	return b.do(http.MethodGet, target, nil, "")
}

func (b *browser) csrfToken() string {
	if _, ok := b.cookies["XSRF-TOKEN"]; !ok {
		b.get("/")
	}
	return b.cookies["XSRF-TOKEN"].Value
}

func (b *browser) post(target string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf_token", b.csrfToken())
	return b.do(http.MethodPost, target, strings.NewReader(form.Encode()), echo.MIMEApplicationForm)
}

type file struct {
	name string
	data []byte
}

func (b *browser) postMultipart(target string, fields url.Values, files ...file) *httptest.ResponseRecorder {
	b.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields.Set("csrf_token", b.csrfToken())
	for k, vs := range fields {
		for _, v := range vs {
			require.NoError(b.t, w.WriteField(k, v))
		}
	}
	for _, f := range files {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="images"; filename="`+f.name+`"`)
		h.Set("Content-Type", "application/octet-stream")
		part, err := w.CreatePart(h)
		require.NoError(b.t, err)
		_, err = part.Write(f.data)
		require.NoError(b.t, err)
	}
	require.NoError(b.t, w.Close())
	return b.do(http.MethodPost, target, &buf, w.FormDataContentType())
}

func (b *browser) login(email, password string) {
	b.t.Helper()
	rec := b.post("/connexion", url.Values{"email": {email}, "password": {password}})
	require.Equal(b.t, http.StatusSeeOther, rec.Code, rec.Body.String())
	require.Contains(b.t, b.cookies, "accessToken")
}

func pngBytes() []byte {
	return append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 64)...)
}
