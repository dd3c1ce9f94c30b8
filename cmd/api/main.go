package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nourhamdy/ordermgmt/internal/bootstrap"
	"github.com/nourhamdy/ordermgmt/internal/controller"
	"github.com/nourhamdy/ordermgmt/internal/gateway"
	"github.com/nourhamdy/ordermgmt/internal/infrastructure/observability"
	infraRedis "github.com/nourhamdy/ordermgmt/internal/infrastructure/redis"
	"github.com/nourhamdy/ordermgmt/internal/repository/postgres"
	"github.com/nourhamdy/ordermgmt/internal/service"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, "ordermgmt-api", "ordermgmt")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	// --- Repositories ---
	orderRepo := postgres.NewOrderRepository(app.Pool)
	paymentRepo := postgres.NewPaymentRepository(app.Pool)
	txManager := postgres.NewTxManager(app.Pool)

	// --- Payment gateways ---
	registry, err := gateway.NewRegistry(
		gateway.NewCreditCard(gateway.CreditCardConfig{
			APIKey:      app.Config.Gateways.CreditCard.APIKey,
			APISecret:   app.Config.Gateways.CreditCard.APISecret,
			Environment: app.Config.Gateways.CreditCard.Environment,
		}),
		gateway.NewPayPal(gateway.PayPalConfig{
			ClientID:     app.Config.Gateways.PayPal.ClientID,
			ClientSecret: app.Config.Gateways.PayPal.ClientSecret,
			Environment:  app.Config.Gateways.PayPal.Environment,
		}),
		gateway.NewStripe(gateway.StripeConfig{
			APIKey:      app.Config.Gateways.Stripe.APIKey,
			SecretKey:   app.Config.Gateways.Stripe.SecretKey,
			Environment: app.Config.Gateways.Stripe.Environment,
		}),
	)
	if err != nil {
		app.Logger.Fatal().Err(err).Msg("Failed to build gateway registry")
	}

	// --- Services ---
	locks := infraRedis.NewLockFactory(app.Redis, app.Config.Payment.LockTTL)
	orderService := service.NewOrderService(orderRepo, paymentRepo, txManager, app.Metrics)
	paymentService := service.NewPaymentService(
		orderRepo,
		paymentRepo,
		txManager,
		registry,
		locks,
		app.Config.Payment.GatewayTimeout,
		app.Metrics,
	)

	// --- Build router ---
	router := controller.NewRouter(controller.RouterDeps{
		Pool:           app.Pool,
		RedisClient:    app.Redis,
		OrderService:   orderService,
		PaymentService: paymentService,
		Metrics:        app.Metrics,
		CORSConfig:     app.Config.Server.CORS,
		JWTSecret:      app.Config.Auth.JWTSecret,
	})

	// --- HTTP server ---
	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		reportBreakerStates(gCtx, registry, app.Metrics)
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		app.Logger.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		app.Logger.Error().Err(err).Msg("Server exited with error")
		return
	}
	app.Logger.Info().Msg("Server exited")
}

// reportBreakerStates periodically exports each gateway's circuit breaker
// state as a gauge until the context is cancelled.
func reportBreakerStates(ctx context.Context, registry *gateway.Registry, metrics *observability.Metrics) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for name, state := range registry.BreakerStates() {
				metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
			}
		}
	}
}
