// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/plaza/internal/cache"
	"github.com/jason-s-yu/plaza/internal/catalog"
	"github.com/jason-s-yu/plaza/internal/config"
	"github.com/jason-s-yu/plaza/internal/database"
	"github.com/jason-s-yu/plaza/internal/handlers"
	"github.com/jason-s-yu/plaza/internal/protocol"
	"github.com/jason-s-yu/plaza/internal/session"
	"github.com/jason-s-yu/plaza/internal/transport"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const version = "0.3.0"

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()

	cmd := &cobra.Command{
		Use:     "plaza",
		Short:   "Real-time presence server for the multiplayer lobby",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (env: LOG_LEVEL)")
	pf.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: text, json (env: LOG_FORMAT)")
	pf.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "redis address (env: REDIS_ADDR)")
	pf.IntVar(&cfg.RedisPoolSize, "redis-pool-size", cfg.RedisPoolSize, "redis connection pool size, 0 for the client default (env: REDIS_POOL_SIZE)")
	pf.StringVar(&cfg.RedisGamesKey, "redis-key", cfg.RedisGamesKey, "redis hash holding saved games (env: REDIS_GAMES_KEY)")
	pf.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "postgres connection string (env: DATABASE_URL)")

	f := cmd.Flags()
	f.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address (env: PLAZA_ADDR)")
	f.DurationVar(&cfg.IdleTimeout, "idle-timeout", cfg.IdleTimeout, "evict players idle longer than this (env: IDLE_TIMEOUT)")
	f.DurationVar(&cfg.ReaperInterval, "reaper-interval", cfg.ReaperInterval, "idle sweep interval (env: REAPER_INTERVAL)")
	f.StringVar(&cfg.CatalogBackend, "catalog", cfg.CatalogBackend, "game catalog backend: memory, redis, postgres (env: CATALOG_BACKEND)")
	f.StringSliceVar(&cfg.OriginPatterns, "origin", cfg.OriginPatterns, "allowed websocket origins (env: WS_ORIGIN_PATTERNS)")

	cmd.AddCommand(newArchiveCmd(&cfg))
	return cmd
}

// newArchiveCmd copies the redis game catalog into postgres.
func newArchiveCmd(cfg *config.Config) *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Copy saved games from the redis catalog into postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.DatabaseURL == "" {
				return errors.New("archive requires --database-url or DATABASE_URL")
			}
			logger := cfg.NewLogger()
			ctx := cmd.Context()

			rdb, err := cache.ConnectRedis(ctx, redisOptions(*cfg))
			if err != nil {
				return err
			}
			defer rdb.Close()

			pool, err := database.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := database.EnsureSchema(ctx, pool); err != nil {
				return err
			}

			_, err = catalog.Archive(ctx, catalog.NewRedis(rdb, cfg.RedisGamesKey), catalog.NewPostgres(pool), batchSize, logger)
			return err
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch", catalog.DefaultArchiveBatch, "games written per transaction")
	return cmd
}

// server is one running plaza instance.
type server struct {
	logger       *logrus.Logger
	hub          *transport.Hub
	coord        *session.Coordinator
	reaper       *session.Reaper
	http         *http.Server
	closeCatalog func()
}

func serve(ctx context.Context, cfg config.Config) error {
	s, err := newServer(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.closeCatalog()

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}
	s.logger.Infof("plaza %s listening on %s (catalog: %s)", version, ln.Addr(), cfg.CatalogBackend)
	return s.run(ctx, ln)
}

func newServer(ctx context.Context, cfg config.Config) (*server, error) {
	logger := cfg.NewLogger()

	games, closeCatalog, err := openCatalog(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	hub := transport.NewHub(logger, cfg.SendBuffer)
	coord := session.NewCoordinator(logger, hub, games, nil)
	status := handlers.NewStatusServer(logger, coord, games, version, nil)

	router := handlers.NewRouter(handlers.RouterDeps{
		Logger:         logger,
		Status:         status,
		Hub:            hub,
		Coordinator:    coord,
		OriginPatterns: cfg.OriginPatterns,
	})

	return &server{
		logger:       logger,
		hub:          hub,
		coord:        coord,
		reaper:       session.NewReaper(coord, cfg.ReaperInterval, cfg.IdleTimeout, logger),
		closeCatalog: closeCatalog,
		http: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// run serves on ln until ctx is done, then shuts down. It returns only after every
// websocket has flushed its queue and closed, or shutdownTimeout has passed.
func (s *server) run(ctx context.Context, ln net.Listener) error {
	reaperCtx, stopReaper := context.WithCancel(ctx)
	defer stopReaper()
	go s.reaper.Run(reaperCtx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server exited: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	stopReaper()
	s.hub.Broadcast(protocol.ErrorMessage("Server shutting down"))
	s.hub.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Shutdown does not track hijacked websocket connections; the hub does.
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Warnf("graceful shutdown incomplete: %v", err)
		_ = s.http.Close()
	}
	if err := s.hub.Wait(shutdownCtx); err != nil {
		s.logger.Warnf("websockets not drained: %v", err)
	}
	return nil
}

func redisOptions(cfg config.Config) cache.Options {
	return cache.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB, PoolSize: cfg.RedisPoolSize}
}

// openCatalog builds the configured game catalog and a func releasing its connections.
func openCatalog(ctx context.Context, cfg config.Config, logger *logrus.Logger) (catalog.Catalog, func(), error) {
	switch cfg.CatalogBackend {
	case config.BackendRedis:
		rdb, err := cache.ConnectRedis(ctx, redisOptions(cfg))
		if err != nil {
			return nil, nil, err
		}
		logger.Infof("game catalog: redis %s key %s", cfg.RedisAddr, cfg.RedisGamesKey)
		return catalog.NewRedis(rdb, cfg.RedisGamesKey), func() { _ = rdb.Close() }, nil

	case config.BackendPostgres:
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := database.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("game catalog: postgres")
		return catalog.NewPostgres(pool), pool.Close, nil

	default:
		logger.Info("game catalog: in-memory, saved games are lost on restart")
		return catalog.NewMemory(), func() {}, nil
	}
}
