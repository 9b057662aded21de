package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MosinFAM/blog-posts/internal/auth"
	"github.com/MosinFAM/blog-posts/internal/config"
	"github.com/MosinFAM/blog-posts/internal/db"
	"github.com/MosinFAM/blog-posts/internal/handler"
	"github.com/MosinFAM/blog-posts/internal/logger"
	"github.com/MosinFAM/blog-posts/internal/metrics"
	"github.com/MosinFAM/blog-posts/internal/notify"
	"github.com/MosinFAM/blog-posts/internal/service"
	"github.com/MosinFAM/blog-posts/internal/storage"
	"github.com/MosinFAM/blog-posts/internal/tracing"

	"github.com/256dpi/lungo"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func loadConfig() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, err
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}

func serve(ctx context.Context) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(cfg.Tracing.Enabled, os.Stdout)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	backend, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backend.close()

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	m := metrics.New()
	tokens := auth.NewTokenManager(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	h := handler.New(
		service.NewCommentService(backend.store, backend.notifier, m, log),
		service.NewPostService(backend.store, m, log),
		service.NewUserService(backend.store, tokens, log),
		log,
	)
	srv := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: handler.NewRouter(h, handler.RouterConfig{
			Tokens:         tokens,
			Metrics:        m,
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
			Log:            log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server is running", zap.String("addr", cfg.HTTP.Addr), zap.String("storage", cfg.Storage.Type))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

type backend struct {
	store    storage.Storage
	notifier notify.Notifier
	closers  []func()
}

func (b *backend) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackend picks the storage named by the config, and puts the redis post
// cache in front of it when redis is configured.
func openBackend(ctx context.Context, cfg config.Config, log *zap.Logger) (*backend, error) {
	b := &backend{notifier: notify.NewHub(log)}

	switch cfg.Storage.Type {
	case config.StoragePostgres:
		conn, err := db.Connect(cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { conn.Close() })

		pg := storage.NewPostgresStorage(conn, cfg.Storage.DatabaseURL, log)
		if err := pg.InitDB(cfg.Storage.MigrationsDir); err != nil {
			b.close()
			return nil, err
		}
		b.store = pg
		b.notifier = notify.NewPGNotifier(conn, cfg.Storage.DatabaseURL, pg, log)

	case config.StorageMongo:
		client, err := db.ConnectMongo(ctx, cfg.Storage.MongoURI)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { client.Disconnect(context.Background()) })
		if b.store, err = mongoStore(ctx, client.Database(cfg.Storage.MongoDatabase), log); err != nil {
			b.close()
			return nil, err
		}

	case config.StorageMongoMemory:
		client, engine, err := db.OpenMemoryMongo(ctx)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { engine.Close() })
		if b.store, err = mongoStore(ctx, client.Database(cfg.Storage.MongoDatabase), log); err != nil {
			b.close()
			return nil, err
		}

	default:
		b.store = storage.NewMemoryStorage(log)
	}

	if cfg.Redis.Addr != "" {
		client, err := db.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			b.close()
			return nil, err
		}
		b.closers = append(b.closers, func() { client.Close() })
		b.store = storage.NewCachedStorage(b.store, client, cfg.Redis.TTL, log)
	}
	return b, nil
}

func mongoStore(ctx context.Context, database lungo.IDatabase, log *zap.Logger) (storage.Storage, error) {
	s := storage.NewMongoStorage(database, log)
	if err := s.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
