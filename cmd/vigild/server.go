package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	slogecho "github.com/samber/slog-echo"
	"golang.org/x/sync/errgroup"

	"github.com/fairmarket/vigil/cachestore"
	"github.com/fairmarket/vigil/content"
	"github.com/fairmarket/vigil/countstore"
	"github.com/fairmarket/vigil/engine"
	"github.com/fairmarket/vigil/flagstore"
	"github.com/fairmarket/vigil/setstore"
	"github.com/fairmarket/vigil/store"
)

type Server struct {
	logger        *slog.Logger
	engine        *engine.Engine
	store         *store.DbStore
	echo          *echo.Echo
	bind          string
	metricsListen string
}

type Config struct {
	DatabaseURL      string
	MaxDBConnections int
	RedisURL         string
	SetsFileJSON     string
	Bind             string
	MetricsListen    string
	Logger           *slog.Logger
}

// Named sets the lexicon is compiled from. Deployments override them through
// the sets JSON file.
const (
	setProfanityWords = "profanity-words"
	setSpamPatterns   = "spam-patterns"
)

func NewServer(config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	db, err := store.SetupDatabase(config.DatabaseURL, config.MaxDBConnections)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	dbs, err := store.NewDbStore(db, logger)
	if err != nil {
		return nil, err
	}

	sets := setstore.NewMemSetStore()
	if config.SetsFileJSON != "" {
		if err := sets.LoadFromFileJSON(config.SetsFileJSON); err != nil {
			return nil, fmt.Errorf("initializing in-process setstore: %v", err)
		}
		logger.Info("loaded set config from JSON", "path", config.SetsFileJSON)
	}
	ctx := context.Background()
	profanity, err := sets.GetSet(ctx, setProfanityWords)
	if err != nil {
		return nil, err
	}
	patterns, err := sets.GetSet(ctx, setSpamPatterns)
	if err != nil {
		return nil, err
	}
	if len(patterns) == 0 {
		patterns = content.DefaultSpamPatterns()
	}
	lexicon, err := content.NewLexicon(profanity, patterns)
	if err != nil {
		return nil, fmt.Errorf("compiling lexicon: %w", err)
	}

	var counters countstore.CountStore
	var cache cachestore.CacheStore
	var flags flagstore.FlagStore
	if config.RedisURL != "" {
		opt, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis URL: %v", err)
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			return nil, fmt.Errorf("redis ping failed: %v", err)
		}

		cnt, err := countstore.NewRedisCountStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis countstore: %v", err)
		}
		counters = cnt

		csh, err := cachestore.NewRedisCacheStore(config.RedisURL, 30*time.Minute)
		if err != nil {
			return nil, fmt.Errorf("initializing redis cachestore: %v", err)
		}
		cache = csh

		flg, err := flagstore.NewRedisFlagStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis flagstore: %v", err)
		}
		flags = flg
	} else {
		counters = countstore.NewMemCountStore()
		cache = cachestore.NewMemCacheStore(5_000, 30*time.Minute)
		flags = flagstore.NewMemFlagStore()
	}

	eng := &engine.Engine{
		Logger:   logger,
		Repo:     dbs,
		Writer:   dbs,
		Counters: counters,
		Cache:    cache,
		Flags:    flags,
		Analyzer: &content.Analyzer{Lexicon: lexicon, Logger: logger},
	}

	s := &Server{
		logger:        logger,
		engine:        eng,
		store:         dbs,
		bind:          config.Bind,
		metricsListen: config.MetricsListen,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(slogecho.New(logger))
	e.Use(middleware.Recover())
	s.registerRoutes(e)
	s.echo = e

	return s, nil
}

// Blocks until shutdown. The API and metrics listeners run concurrently; the
// first fatal error (or a termination signal) stops both.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		s.logger.Info("starting API server", "bind", s.bind)
		if err := s.echo.Start(s.bind); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		return s.RunMetrics(s.metricsListen)
	})
	eg.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}

func (s *Server) RunMetrics(listen string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, nil)
}
