package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopmall-be/internal/cart"
	"shopmall-be/internal/catalog"
	"shopmall-be/internal/checkout"
	"shopmall-be/internal/checkout/webhook"
	"shopmall-be/internal/config"
	"shopmall-be/internal/db"
	"shopmall-be/internal/logger"
	"shopmall-be/internal/member"
	"shopmall-be/internal/metrics"
	"shopmall-be/internal/middleware"
	"shopmall-be/internal/mileage"
	"shopmall-be/internal/order"
	"shopmall-be/internal/payment"
	"shopmall-be/internal/rest"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var (
	initDBFunc      = db.InitDB
	startServerFunc = serve
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := initDBFunc(cfg)
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router := newServer(ctx, cfg, database)

	addr := ":" + cfg.AppPort
	logger.L().Info("http server starting", zap.String("addr", addr), zap.String("env", cfg.AppEnv))
	return startServerFunc(ctx, addr, router)
}

// serve blocks until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.L().Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type routerDeps struct {
	api           *rest.Handler
	webhook       http.Handler
	limiter       *middleware.RateLimiter
	metrics       *metrics.Metrics
	gatherer      prometheus.Gatherer
	jwtSecret     string
	allowedOrigin string
}

func newServer(ctx context.Context, cfg *config.Config, database *sql.DB) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	tx := db.NewTxManager(database)

	catalogRepo := catalog.NewRepository(database)
	memberRepo := member.NewRepository(database)
	paymentRepo := payment.NewRepository(database)

	cartSvc := cart.NewService(cart.NewRepository(database), catalogRepo, tx)
	ledger := mileage.NewService(mileage.NewRepository(database), cfg.MileageAccrualRate)

	gateway := payment.NewIamportGateway(payment.IamportConfig{
		APIKey:              cfg.IamportAPIKey,
		APISecret:           cfg.IamportAPISecret,
		BaseURL:             cfg.IamportBaseURL,
		WebhookToken:        cfg.IamportWebhookToken,
		RequireWebhookToken: cfg.AppEnv == "production",
		Timeout:             cfg.GatewayTimeout,
	}, m)

	orderSvc := order.NewService(
		order.NewRepository(database),
		memberRepo,
		catalogRepo,
		ledger,
		paymentRepo,
		tx,
		order.Config{DeliveryAmount: cfg.DeliveryAmount, PageSize: cfg.OrderPageSize},
	)

	reconciler := checkout.NewReconciler(orderSvc, paymentRepo, ledger, gateway, tx, m)

	limiter := middleware.NewRateLimiter(cfg.ServiceAuthKey)
	go limiter.RunCleanup(ctx)

	return setupRouter(routerDeps{
		api:           rest.NewHandler(cartSvc, orderSvc, reconciler),
		webhook:       webhook.NewHandler(reconciler, paymentRepo, gateway, m),
		limiter:       limiter,
		metrics:       m,
		gatherer:      reg,
		jwtSecret:     cfg.JWTSecret,
		allowedOrigin: cfg.CORSAllowedOrigin,
	})
}

func setupRouter(d routerDeps) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)
	r.Use(middleware.CORS(d.allowedOrigin))
	r.Use(middleware.Instrument(d.metrics))

	r.Get("/health", rest.Health)
	r.Handle("/metrics", metrics.Handler(d.gatherer))

	// Webhooks carry the proxy-injected shared token, not a member JWT.
	r.With(d.limiter.Middleware).Post("/webhook/payment", d.webhook.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(d.jwtSecret))
		r.Use(d.limiter.Middleware)
		d.api.Routes(r)
	})

	return r
}
