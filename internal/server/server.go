package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"retail-ledger/internal/config"
	"retail-ledger/internal/logger"
	"retail-ledger/internal/middleware"
	"retail-ledger/internal/mirror"
	"retail-ledger/internal/repository"
	"retail-ledger/internal/service"
	"retail-ledger/internal/store"
	"retail-ledger/internal/telemetry"
	"retail-ledger/internal/transport"
)

type Server struct {
	*http.Server
	config  *config.Config
	logger  *zap.Logger
	backend store.Backend
	mirror  *mirror.Mongo
	limiter *redis.Client // owned only when it is not the store's client
}

// NewServer wires repositories, use cases and handlers on top of the given
// backend. remote may be nil, in which case the repositories run local only.
func NewServer(cfg *config.Config, log *zap.Logger, telem *telemetry.Telemetry, backend store.Backend, remote *mirror.Mongo) *Server {
	router := chi.NewRouter()

	for _, mw := range middleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(middleware.ErrorHandlingMiddleware(log))
	router.Use(middleware.LoggingMiddleware(logger.Component(log, "http")))
	router.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.Env == "development"))

	s := &Server{
		config:  cfg,
		logger:  log,
		backend: backend,
		mirror:  remote,
	}

	if cfg.RateLimit.Enabled {
		client := s.rateLimitClient()
		router.Use(middleware.RateLimitMiddleware(client, middleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
			KeyPrefix:         cfg.Redis.KeyPrefix + "ratelimit",
		}, logger.Component(log, "ratelimit")))
	}

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.RespondWithJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"store":  backend.Name(),
			"mirror": mirrorState(remote),
		})
	})
	router.Handle("/metrics", telem.MetricsHandler())

	// a typed nil must not reach the repositories as a non-nil interface
	var (
		productMirror repository.ProductMirror
		saleMirror    repository.SaleMirror
	)
	if remote != nil {
		productMirror = remote
		saleMirror = remote
	}

	window := cfg.Sales.WeeklyWindow()
	tracer, meter := telem.Tracer(), telem.Meter()

	inventoryRepo := repository.NewInventoryRepository(backend, productMirror,
		log,
		repository.WithSerializedWrites(cfg.Store.SerializeWrites),
		repository.WithLowStockThreshold(cfg.Inventory.LowStockThreshold),
	)
	salesRepo := repository.NewSalesRepository(backend, saleMirror,
		log,
		repository.WithSerializedWrites(cfg.Store.SerializeWrites),
		repository.WithWeeklyWindow(window),
	)

	registerSale := service.NewRegisterSaleUseCase(salesRepo, inventoryRepo, cfg.Sales.IdempotentProjection, tracer, meter, log)
	checkout := service.NewCheckoutUseCase(inventoryRepo, registerSale, nil, tracer)
	adjust := service.NewAdjustInventoryUseCase(inventoryRepo, tracer, meter, log)
	lowStock := service.NewGetLowStockAlertsUseCase(inventoryRepo, tracer)
	seed := service.NewSeedInventoryUseCase(inventoryRepo, tracer, log)
	weekly := service.NewGetWeeklyReportUseCase(salesRepo, inventoryRepo, window, nil, tracer, meter)

	transport.NewInventoryHandler(inventoryRepo, adjust, lowStock, seed, log).RegisterRoutes(router)
	transport.NewSalesHandler(salesRepo, checkout, window, log).RegisterRoutes(router)
	transport.NewReportHandler(weekly, log).RegisterRoutes(router)

	handler := otelhttp.NewHandler(router, "http.server",
		otelhttp.WithTracerProvider(telem.TracerProvider),
		otelhttp.WithMeterProvider(telem.MeterProvider),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)

	s.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// rateLimitClient reuses the store's redis connection when there is one
func (s *Server) rateLimitClient() *redis.Client {
	if rb, ok := s.backend.(*store.RedisBackend); ok {
		return rb.Client()
	}
	s.limiter = redis.NewClient(&redis.Options{
		Addr:     s.config.Redis.Addr(),
		Password: s.config.Redis.Password,
		DB:       s.config.Redis.DB,
	})
	return s.limiter
}

func mirrorState(remote *mirror.Mongo) string {
	if remote == nil {
		return "disabled"
	}
	return "enabled"
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.limiter != nil {
		if err := s.limiter.Close(); err != nil {
			s.logger.Error("Failed to close rate limit client", zap.Error(err))
		}
	}

	if s.mirror != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.mirror.Close(ctx); err != nil {
			s.logger.Error("Failed to disconnect mirror", zap.Error(err))
		}
	}

	if err := s.backend.Close(); err != nil {
		s.logger.Error("Failed to close store", zap.String("backend", s.backend.Name()), zap.Error(err))
	}

	s.logger.Sync()
	return nil
}
