package controller

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nourhamdy/ordermgmt/internal/infrastructure/config"
	"github.com/nourhamdy/ordermgmt/internal/infrastructure/observability"
	customMW "github.com/nourhamdy/ordermgmt/internal/middleware"
	"github.com/nourhamdy/ordermgmt/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type RouterDeps struct {
	Pool           *pgxpool.Pool
	RedisClient    *redis.Client
	OrderService   *service.OrderService
	PaymentService *service.PaymentService
	Metrics        *observability.Metrics
	CORSConfig     config.CORSConfig
	JWTSecret      string
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(customMW.Tracing())
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSConfig.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: deps.CORSConfig.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(customMW.Metrics(deps.Metrics))

	healthH := NewHealthController(deps.Pool, deps.RedisClient)
	orderH := NewOrderController(deps.OrderService)
	paymentH := NewPaymentController(deps.PaymentService)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(customMW.RequireAuth(deps.JWTSecret))

		// Orders
		r.Post("/orders", orderH.CreateOrder)
		r.Get("/orders", orderH.ListOrders)
		r.Get("/orders/{id}", orderH.GetOrder)
		r.Put("/orders/{id}", orderH.UpdateOrder)
		r.Delete("/orders/{id}", orderH.DeleteOrder)
		r.Post("/orders/{id}/confirm", orderH.ConfirmOrder)
		r.Post("/orders/{id}/cancel", orderH.CancelOrder)

		// Payments
		r.Post("/orders/{id}/payments", paymentH.ProcessPayment)
		r.Get("/payments", paymentH.ListPayments)
		r.Get("/payments/{id}", paymentH.GetPayment)
		r.Post("/payments/{id}/refund", paymentH.RefundPayment)

		// Gateways
		r.Get("/gateways", paymentH.ListGateways)
	})

	return r
}
