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

	"golang.org/x/sync/errgroup"

	"github.com/adedoyinyusuf/CSIMS-sub005/auth"
	"github.com/adedoyinyusuf/CSIMS-sub005/config"
	"github.com/adedoyinyusuf/CSIMS-sub005/dashboard"
	"github.com/adedoyinyusuf/CSIMS-sub005/db"
	"github.com/adedoyinyusuf/CSIMS-sub005/loan"
	"github.com/adedoyinyusuf/CSIMS-sub005/mail"
	"github.com/adedoyinyusuf/CSIMS-sub005/notification"
	"github.com/adedoyinyusuf/CSIMS-sub005/outbox"
	"github.com/adedoyinyusuf/CSIMS-sub005/savings"
	"github.com/adedoyinyusuf/CSIMS-sub005/signoff"
	"github.com/adedoyinyusuf/CSIMS-sub005/web"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{
		MaxConns:        cfg.DB.MaxConns,
		MaxConnIdleTime: cfg.DB.MaxConnIdleTime,
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
	})
	if err != nil {
		log.Fatalf("bootstrap database pool: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	logger := log.Default()
	writer := outbox.NewWriter()
	authService := auth.NewService(auth.NewRepository(pool, writer), cfg.SessionSecret, cfg.SessionTTL, cfg.ResetTTL)
	signoffService := signoff.NewService(signoff.NewRepository(pool, writer))
	loanService := loan.NewService(loan.NewRepository(pool), signoffService)
	notificationRepo := notification.NewRepository(pool)
	notificationService := notification.NewService(notificationRepo)
	savingsService := savings.NewService(savings.NewRepository(pool))

	var sender mail.Sender = mail.NewLogSender(logger)
	if cfg.SMTP.Host != "" {
		sender = mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		log.Printf("smtp host not set; outgoing mail is logged only")
	}

	dispatcher := outbox.NewDispatcher(pool, outbox.DispatcherConfig{
		PollInterval: cfg.Outbox.PollInterval,
		BatchSize:    cfg.Outbox.BatchSize,
		MaxAttempts:  cfg.Outbox.MaxAttempts,
	}).
		WithLogger(logger).
		Register(auth.OutboxTopicPasswordReset, mail.PasswordResetHandler(sender, cfg.BaseURL)).
		Register(signoff.OutboxTopicRequested, mail.GuarantorInviteHandler(sender, cfg.BaseURL)).
		Register(signoff.OutboxTopicSigned, notification.GuarantorSignedHandler(notificationRepo, logger))

	server, err := web.NewServer(web.Deps{
		Auth:          authService,
		Signoff:       signoffService,
		Loans:         loanService,
		Notifications: notificationService,
		Savings:       savingsService,
		Dashboard:     dashboard.NewService(loanService, savingsService, notificationService),
		DB:            pool,
	}, web.Options{
		CurrencySymbol: cfg.CurrencySymbol,
		SecureCookies:  cfg.SecureCookies,
		Logger:         logger,
		AccessLog:      logger,
	})
	if err != nil {
		log.Fatalf("build web server: %v", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dispatcher.Run(gctx)
	})
	g.Go(func() error {
		log.Printf("portal listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("portal stopped: %v", err)
	}
	log.Printf("portal stopped")
}
