// Command storerank 运行推荐服务，或执行一次共购图批量重建。
//
//	storerank serve   -config storerank.yaml
//	storerank rebuild -config storerank.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/thejerf/suture/v4"
	"go.uber.org/zap"

	"github.com/rushteam/storerank/config"
	"github.com/rushteam/storerank/core"
	"github.com/rushteam/storerank/graph"
	"github.com/rushteam/storerank/metrics"
	"github.com/rushteam/storerank/server"
	"github.com/rushteam/storerank/service"
	"github.com/rushteam/storerank/store"
	"github.com/rushteam/storerank/worker"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s <serve|rebuild> [-config path]\n", os.Args[0])
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd := os.Args[1]
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	cfgPath := fs.String("config", os.Getenv("STORERANK_CONFIG"), "path to YAML config")
	_ = fs.Parse(os.Args[2:])

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := cfg.Logging.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "serve":
		err = serve(ctx, cfg, logger)
	case "rebuild":
		err = rebuild(ctx, cfg, logger)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("storerank exited", zap.String("command", cmd), zap.Error(err))
		os.Exit(1)
	}
}

// backend 是一个存储后端需要同时提供的能力。
type backend interface {
	core.CatalogStore
	core.InteractionStore
	core.CoPurchaseStore
	core.OrderStore
}

// stores 是打开的存储以及关闭它们的函数。
type stores struct {
	backend  backend
	trending core.TrendingStore // 可以为空
	close    func(context.Context)
}

func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (*stores, error) {
	s := &stores{close: func(context.Context) {}}
	var closers []func(context.Context)

	switch cfg.Backend {
	case "memory":
		ms := store.NewMemoryStore()
		s.backend = ms
		s.trending = ms
		logger.Warn("using in-memory backend, data is not persisted and co-purchase rebuild is disabled")
	default:
		ms, err := store.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.MongoOptions())
		if err != nil {
			return nil, err
		}
		closers = append(closers, func(ctx context.Context) {
			if err := ms.Close(ctx); err != nil {
				logger.Warn("close mongo", zap.Error(err))
			}
		})
		if cfg.Mongo.EnsureIndexes {
			if err := ms.EnsureIndexes(ctx); err != nil {
				_ = ms.Close(ctx)
				return nil, err
			}
		}
		s.backend = ms
		logger.Info("connected to mongo", zap.String("database", cfg.Mongo.Database))
	}

	if cfg.Redis.Addr != "" {
		client, err := store.DialRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			// 热门榜可以退回目录销量，Redis 不可用不阻止启动
			logger.Warn("redis unavailable, trending falls back to catalog popularity",
				zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			s.trending = store.NewRedisTrending(client, cfg.Redis.TrendingKey)
			closers = append(closers, func(context.Context) { _ = client.Close() })
		}
	}

	s.close = func(ctx context.Context) {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i](ctx)
		}
	}
	return s, nil
}

func serve(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		st.close(closeCtx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	builder := graph.NewBuilder(st.backend, st.backend, cfg.GraphOptions(), logger, m)
	queue := worker.New(cfg.WorkerOptions(), logger, m)

	rec, err := service.New(cfg.ServiceOptions(), service.Deps{
		Catalog:      st.backend,
		Interactions: st.backend,
		Edges:        st.backend,
		Trending:     st.trending,
		Graph:        builder,
		Tasks:        queue,
	}, logger, m)
	if err != nil {
		return err
	}

	srv := server.New(rec, server.Options{
		RequestTimeout: cfg.HTTP.RequestTimeout,
		Gatherer:       reg,
	}, logger, m)
	httpServer := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	sup := suture.New("storerank", suture.Spec{
		EventHook: func(e suture.Event) {
			logger.Warn(e.String(), zap.Any("event", e.Map()))
		},
		Timeout: cfg.HTTP.ShutdownTimeout,
	})
	sup.Add(queue)
	if cfg.ScheduledRebuild() {
		sup.Add(graph.NewRebuildService(builder, cfg.Graph.RebuildInterval, cfg.Graph.RebuildOnStart, logger))
	}
	sup.Add(server.NewService(httpServer, cfg.HTTP.ShutdownTimeout))

	logger.Info("starting storerank",
		zap.String("addr", cfg.HTTP.Addr),
		zap.String("backend", cfg.Backend),
		zap.Bool("redis_trending", cfg.Redis.Addr != ""),
		zap.Bool("scheduled_rebuild", cfg.ScheduledRebuild()),
	)
	err = sup.Serve(ctx)
	if pending := queue.Pending(); pending > 0 {
		logger.Warn("background tasks discarded on shutdown", zap.Int("pending", pending))
	}
	logger.Info("storerank stopped")
	return err
}

func rebuild(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	if cfg.Backend == "memory" {
		return errors.New("rebuild requires a persistent backend")
	}
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close(context.Background())

	builder := graph.NewBuilder(st.backend, st.backend, cfg.GraphOptions(), logger, nil)
	stats, err := builder.Rebuild(ctx)
	if err != nil {
		return err
	}
	logger.Info("rebuild finished",
		zap.Int("orders", stats.Orders),
		zap.Int("pairs", stats.Pairs),
		zap.Int("edges_written", stats.EdgesWritten),
		zap.Int64("edges_decayed", stats.EdgesDecayed),
		zap.Duration("duration", stats.Duration),
	)
	return nil
}
