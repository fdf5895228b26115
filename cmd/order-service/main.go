// @title        Bookstore Order Service API
// @version      1.0
// @description  Order submission, order history and stock administration for the bookstore.
// @BasePath     /
// @securityDefinitions.basic  BasicAuth
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	_ "github.com/MikeMC777/bookstore/docs"
	"github.com/MikeMC777/bookstore/internal/account"
	"github.com/MikeMC777/bookstore/internal/catalog"
	"github.com/MikeMC777/bookstore/internal/config"
	"github.com/MikeMC777/bookstore/internal/events"
	"github.com/MikeMC777/bookstore/internal/idempotency"
	"github.com/MikeMC777/bookstore/internal/order"
	"github.com/MikeMC777/bookstore/internal/storage"
)

const (
	shutdownGrace      = 10 * time.Second
	storeCheckInterval = 10 * time.Second
)

func main() {
	cfg := config.Load()
	log := cfg.Logger(os.Stdout)
	cfg.Log(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("storage")
	}
	defer closeStore()

	var pub order.Publisher
	if cfg.RabbitURL != "" {
		rabbit, err := events.NewRabbit(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			log.Fatal().Err(err).Msg("rabbit")
		}
		defer rabbit.Close()
		pub = rabbit
		log.Info().Str("exchange", cfg.RabbitExchange).Msg("publishing order events")
	}

	var idem idemGuard
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis")
		}
		idem = idempotency.New(rdb, cfg.IdempotencyTTL, cfg.IdempotencyClaimTTL)
	}

	gin.SetMode(gin.ReleaseMode)
	router := newRouter(deps{
		orders:    order.NewService(store, pub, log),
		books:     catalog.NewService(store, cfg.BookCacheSize, cfg.BookCacheTTL, log),
		auth:      account.NewService(store, log),
		idem:      idem,
		db:        store,
		log:       log,
		rateRPS:   cfg.RateLimitRPS,
		rateBurst: cfg.RateLimitBurst,
	})
	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: cors.New(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
			ExposedHeaders: []string{"Location", "X-Request-ID", "Idempotent-Replayed"},
		}).Handler(router),
		ReadHeaderTimeout: 5 * time.Second,
	}

	gs, hs := grpcHealth()
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.GRPCAddr).Msg("grpc listen")
	}
	go watchStore(ctx, store, hs, storeCheckInterval, log)

	errc := make(chan error, 2)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	go func() {
		log.Info().Str("addr", cfg.GRPCAddr).Msg("grpc listening")
		if err := gs.Serve(lis); err != nil {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Warn().Msg("shutting down...")
	case err := <-errc:
		log.Error().Err(err).Msg("server failed")
	}

	hs.Shutdown()
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	gs.GracefulStop()
}

func grpcHealth() (*grpc.Server, *health.Server) {
	gs := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)
	return gs, hs
}

// watchStore reports NOT_SERVING on the gRPC health service while the
// database does not answer.
func watchStore(ctx context.Context, db pinger, hs *health.Server, every time.Duration, log zerolog.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()
	last := healthpb.HealthCheckResponse_UNKNOWN
	for {
		st := healthpb.HealthCheckResponse_SERVING
		if err := db.Ping(ctx); err != nil {
			st = healthpb.HealthCheckResponse_NOT_SERVING
			if last != st {
				log.Warn().Err(err).Msg("database unreachable")
			}
		}
		if st != last {
			hs.SetServingStatus("", st)
			last = st
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
