package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/njprem/password-reset-api/internal/config"
	"github.com/njprem/password-reset-api/internal/logging"
	"github.com/njprem/password-reset-api/internal/repository"
	"github.com/njprem/password-reset-api/internal/service"
	transporthttp "github.com/njprem/password-reset-api/internal/transport/http"
	"github.com/njprem/password-reset-api/internal/transport/mail"
)

func main() {
	cfg := config.Load()

	logger, flush, err := logging.New(logging.Options{
		Level:        cfg.LogLevel,
		LogstashAddr: cfg.LogstashTCPAddr,
		FilePath:     cfg.LogFile,
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = flush() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		_ = flush()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repository.Open(ctx, cfg.DatabaseURL, cfg.DatabaseName)
	if err != nil {
		return err
	}
	logger.Info("storage ready", zap.String("backend", store.Backend))

	var mailer service.MailSender
	if cfg.MailConfigured() {
		mailer = mail.NewSMTPMailer(mail.Config{
			Host:               cfg.SMTPHost,
			Port:               cfg.SMTPPort,
			Username:           cfg.SMTPUsername,
			Password:           cfg.SMTPPassword,
			From:               cfg.SMTPFrom,
			UseTLS:             cfg.SMTPUseTLS,
			InsecureSkipVerify: cfg.SMTPTLSInsecureSkipVerify,
		})
	} else {
		logger.Warn("SMTP_HOST not set; password reset emails are disabled")
	}

	authSvc := service.NewAuthService(store.Users, mailer, service.AuthConfig{
		PasswordCost:    cfg.BcryptCost,
		ResetTTL:        cfg.PasswordResetTTL,
		FrontendBaseURL: cfg.FrontendBaseURL,
		MailTimeout:     cfg.MailSendTimeout,
	}, logger.Named("auth"))

	e := transporthttp.NewRouter(cfg.AllowOrigins, logger.Named("http"))
	transporthttp.RegisterAuth(e, authSvc, logger.Named("auth"))
	transporthttp.RegisterSwagger(e, cfg.SwaggerSpecPath, logger.Named("swagger"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("port", cfg.Port))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", zap.Error(err))
		}
		return store.Close(shutdownCtx)
	})
	return g.Wait()
}
