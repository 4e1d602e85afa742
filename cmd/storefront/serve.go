package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/service"
	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/mail"
	"github.com/Skotchmaster/storefront/pkg/session"
	"github.com/Skotchmaster/storefront/pkg/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web shop",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(ctx context.Context) error {
	a, err := boot(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	cfg, l := a.cfg, a.log
	ctx = logging.IntoContext(ctx, l)

	if cfg.AutoMigrate {
		if err := a.repo.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	var sessions session.Store = session.NewMemoryStore()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		sessions = session.NewRedisStore(rdb)
	} else {
		l.Warn("REDIS_ADDR not set, sessions are kept in memory")
	}

	jwthelp.Secure = cfg.SecureCookies

	accounts := &service.AccountService{
		Repo:    a.repo,
		Mailer:  mail.New(cfg.Mail, l),
		Events:  a.bus,
		BaseURL: cfg.BaseURL,
	}
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if _, err := accounts.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return fmt.Errorf("admin account: %w", err)
		}
		l.Info("admin account ready", "email", cfg.AdminEmail)
	}

	var uploadsDir string
	if local, ok := a.disk.(*storage.Local); ok {
		uploadsDir = local.Root()
	}

	sessOpts := session.DefaultOptions()
	sessOpts.TTL = cfg.SessionTTL

	e, err := httpserver.New(&httpserver.Deps{
		Logger:   l,
		Catalog:  a.catalog(),
		Search:   a.search(),
		Cart:     &service.CartService{Repo: a.repo},
		Orders:   &service.OrderService{Repo: a.repo, Events: a.bus},
		Accounts: accounts,
		Auth: &service.AuthService{
			Repo:          a.repo,
			JWTSecret:     cfg.JWTAccessSecret,
			RefreshSecret: cfg.JWTRefreshSecret,
		},
		Media:          a.media(),
		DB:             a.repo,
		JWTSecret:      cfg.JWTAccessSecret,
		Sessions:       sessions,
		SessionOptions: sessOpts,
		SecureCookies:  cfg.SecureCookies,
		UploadsDir:     uploadsDir,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		l.Info("http server listening", "addr", srv.Addr, "base_url", cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 2)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	case <-quit:
	}

	go func() {
		<-quit
		l.Warn("force exit")
		os.Exit(1)
	}()

	l.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("server_shutdown_error", "error", err)
	}
	l.Info("shutdown complete")
	return nil
}
