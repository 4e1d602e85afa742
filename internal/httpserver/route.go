package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/metrics"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/Skotchmaster/storefront/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
	"github.com/Skotchmaster/storefront/pkg/middleware/ratelimit"
	"github.com/Skotchmaster/storefront/pkg/session"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger *slog.Logger

	Catalog  *service.CatalogService
	Search   *service.SearchService
	Cart     *service.CartService
	Orders   *service.OrderService
	Accounts *service.AccountService
	Auth     *service.AuthService
	Media    *service.MediaService

	DB        Pinger
	JWTSecret []byte

	Sessions       session.Store
	SessionOptions session.Options
	SecureCookies  bool

	// UploadsDir is served under /uploads when images are stored on local disk.
	UploadsDir string
	Limiter    *ratelimit.Limiter
}

// New builds the echo instance with the middleware chain, renderer and routes.
func New(d *Deps) (*echo.Echo, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.Validator = NewFormValidator()
	e.HTTPErrorHandler = ErrorHandler

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(
		echomw.RequestID(),
		loggingmw.RequestLogger(d.Logger, loggingmw.DefaultSkip...),
		echomw.Recover(),
		metrics.Middleware(),
		echomw.BodyLimit("40M"),
		echomw.Secure(),
	)

	Register(e, d)
	return e, nil
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := d.DB.Ping(ctx); err != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", metrics.Handler())
	if d.UploadsDir != "" {
		e.Static("/uploads", d.UploadsDir)
	}

	catalog := &CatalogHTTP{Svc: d.Catalog, Search: d.Search}
	cart := &CartHTTP{Svc: d.Cart, Catalog: d.Catalog}
	orders := &OrderHTTP{Svc: d.Orders, Carts: d.Cart, Accounts: d.Accounts}
	accounts := &AccountHTTP{Svc: d.Accounts, Orders: d.Orders}
	auth := &AuthHTTP{Svc: d.Auth}
	admin := &AdminHTTP{Catalog: d.Catalog, Media: d.Media}

	csrfCfg := csrf.DefaultConfig()
	csrfCfg.Secure = d.SecureCookies
	sessOpts := d.SessionOptions
	sessOpts.Secure = d.SecureCookies

	authMW := middleware.NewAutoRefreshMiddleware(d.JWTSecret, d.Auth)
	limiter := d.Limiter
	if limiter == nil {
		limiter = ratelimit.New(6*time.Second, 10)
	}
	limited := limiter.Middleware
	requireAdmin := authMW.RequireAdmin
	requireAuth := authMW.RequireAuth

	site := e.Group("",
		session.Middleware(d.Sessions, sessOpts),
		csrf.Middleware(csrfCfg),
		authMW.Identify,
	)

	site.GET("/", catalog.Home)
	site.GET("/categories", catalog.Categories)
	site.GET("/Produits", catalog.Products)
	site.GET("/Produits/recherche", catalog.SearchProducts)
	site.GET("/Produits/categorie/:id", catalog.ProductsByCategory)
	site.GET("/produits/:id", catalog.Product)

	site.GET("/Panier", cart.View)
	site.POST("/panier/ajouter/:id", cart.Add)
	site.GET("/panier/supprimer/:id", cart.Remove)
	site.POST("/panier/modifier-quantite/:id", cart.ChangeQuantity)
	site.GET("/panier/commander", orders.CheckoutForm)
	site.POST("/panier/commander", orders.Checkout)
	site.GET("/panier/confirmation/:id", orders.Confirmation)

	site.GET("/inscription", accounts.RegisterForm)
	site.POST("/inscription", accounts.Register, limited)
	site.GET("/connexion", auth.LoginForm)
	site.POST("/connexion", auth.Login, limited)
	site.POST("/deconnexion", auth.LogOut)
	site.GET("/profil", accounts.Profile, requireAuth)
	site.POST("/profil", accounts.UpdateProfile, requireAuth)
	site.GET("/mot-de-passe-oublie", accounts.ForgotPasswordForm)
	site.POST("/mot-de-passe-oublie", accounts.ForgotPassword, limited)
	site.GET("/reset-password/:token", accounts.ResetPasswordForm)
	site.POST("/reset-password/:token", accounts.ResetPassword, limited)

	site.GET("/admin/produit/new", admin.NewProductForm, requireAdmin)
	site.POST("/admin/produit/new", admin.CreateProduct, requireAdmin)
	site.GET("/produits/:id/modifier", admin.EditProductForm, requireAdmin)
	site.POST("/produits/:id/modifier", admin.UpdateProduct, requireAdmin)
	site.POST("/produits/:id/supprimer", admin.DeleteProduct, requireAdmin)
	site.POST("/admin/images/:id/supprimer", admin.DeleteImage, requireAdmin)
	site.GET("/admin/categories", admin.Categories, requireAdmin)
	site.POST("/admin/categories", admin.CreateCategory, requireAdmin)
	site.POST("/admin/categories/:id/supprimer", admin.DeleteCategory, requireAdmin)
}
