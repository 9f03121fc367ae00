// Command samba-ad-api serves an HTTP API for Samba/Active Directory
// administration with stateless, credential-bearing token authentication.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bzdvdn/samba-ad-api/internal/auth"
	"github.com/bzdvdn/samba-ad-api/internal/config"
	"github.com/bzdvdn/samba-ad-api/internal/crypto"
	"github.com/bzdvdn/samba-ad-api/internal/directory"
	"github.com/bzdvdn/samba-ad-api/internal/ldap"
	"github.com/bzdvdn/samba-ad-api/internal/logger"
	handler "github.com/bzdvdn/samba-ad-api/internal/server/handler/http"
	"github.com/bzdvdn/samba-ad-api/internal/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	cipher, err := crypto.NewCipher(cfg.SecretSalt)
	if err != nil {
		return err
	}
	codec := token.NewCodec(cipher, cfg.SecretKey)

	opts, err := ldap.NewOptions()
	if err != nil {
		return err
	}
	opts.URL = cfg.SambaHost
	opts.Domain = cfg.SambaDomain
	opts.UseTLS = cfg.UseTLS
	opts.InsecureSkipVerify = cfg.InsecureSkipVerify

	connector, err := ldap.NewConnector(opts, zl.Named("ldap"))
	if err != nil {
		return err
	}

	authn := auth.NewAuthenticator(codec, connector, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, zl.Named("auth"))

	factory := func(cred directory.Credential) handler.Directory {
		return directory.NewClient(connector, cred, zl.Named("directory"))
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler.NewRouter(authn, factory, zl.Named("http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		zl.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
