package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"estate-journal/internal/access"
	"estate-journal/internal/auth"
	"estate-journal/internal/config"
	"estate-journal/internal/controllers"
	"estate-journal/internal/credentials"
	"estate-journal/internal/db"
	"estate-journal/internal/logger"
	"estate-journal/internal/mailer"
	"estate-journal/internal/redis"
	"estate-journal/internal/token"
	"estate-journal/internal/verification"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogJSON)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	dbConn, err := db.Open(cfg.DatabaseDSN, cfg.DBDebug)
	if err != nil {
		return err
	}
	defer db.Close(dbConn)

	var backend verification.Backend
	switch cfg.CodeStore {
	case config.CodeStoreRedis:
		rdb, err := redis.Init(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		backend = verification.NewRedisBackend(rdb)
	default:
		backend = verification.NewGormBackend(dbConn)
	}

	hasher, err := credentials.NewHasher(cfg.BcryptCost, cfg.HashWorkers)
	if err != nil {
		return err
	}
	tokens, err := token.NewService([]byte(cfg.JWTSecret), cfg.TokenTTL, token.WithIssuer(cfg.JWTIssuer))
	if err != nil {
		return err
	}

	var mail mailer.Mailer = mailer.LogMailer{Log: log}
	if cfg.SMTP.Configured() {
		mail = mailer.NewSMTPClient(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From)
	} else {
		log.Warn("SMTP not configured, verification mail goes to the log")
	}

	whitelist := access.NewGormWhitelist(dbConn)
	seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = access.Seed(seedCtx, whitelist, cfg.AdminEmails, log)
	cancel()
	if err != nil {
		return err
	}

	svc := auth.New(auth.Deps{
		Users:     credentials.NewStore(credentials.NewGormRepository(dbConn), hasher),
		Tokens:    tokens,
		Codes:     verification.NewCodeStore(backend, verification.WithTTL(cfg.CodeTTL), verification.WithLength(cfg.CodeLength)),
		Whitelist: whitelist,
		Mailer:    mail,
		Log:       log,
	})
	defer svc.Wait()

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           controllers.NewRouter(svc, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr, "code_store", cfg.CodeStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	log.Info("shutting down server")

	ctx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	return srv.Shutdown(ctx)
}
