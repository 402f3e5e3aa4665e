package redisholder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/trunov/stickerbot/internal/config"
)

// Build connects according to cfg.Mode ("auto" tries cluster first, then a
// single node) and keeps the connection healthy until ctx is done.
func Build(ctx context.Context, cfg *config.RedisConfig, log *zap.Logger) (*Holder, error) {
	log = log.With(zap.String("component", "redis"))

	cl, err := connect(cfg, log)
	if err != nil {
		return nil, err
	}

	h := NewHolder(cl)

	if cfg.HealthCheckInterval > 0 {
		go healthLoop(ctx, h, cfg, log)
	}

	return h, nil
}

func connect(cfg *config.RedisConfig, log *zap.Logger) (redis.UniversalClient, error) {
	switch cfg.Mode {
	case "single":
		cl, err := newClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("create redis client: %w", err)
		}
		return cl, nil
	case "cluster":
		cl, err := newClusterClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("create redis cluster client: %w", err)
		}
		return cl, nil
	}

	cl, err := newClusterClient(cfg)
	if err == nil {
		return cl, nil
	}
	clusterErr := err

	single, err := newClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create redis client: %w", err)
	}
	log.Info("cluster client failed, using single-node client", zap.NamedError("cluster_error", clusterErr))
	return single, nil
}

func healthLoop(ctx context.Context, h *Holder, cfg *config.RedisConfig, log *zap.Logger) {
	interval := cfg.HealthCheckInterval * time.Second
	log.Info("health loop started", zap.Duration("interval", interval))

	ping := func() {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := h.Get().Ping(pingCtx).Err()
		cancel()

		if err == nil {
			log.Debug("ping ok")
			return
		}
		if ctx.Err() != nil {
			return
		}
		log.Warn("ping failed, attempting reconnect", zap.Error(err))

		newCl, err := connect(cfg, log)
		if err != nil {
			log.Error("reconnect failed", zap.Error(err))
			return
		}

		old := h.swap(newCl)
		if old != nil {
			_ = old.Close()
		}
		log.Info("reconnected successfully")
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = h.Close()
			log.Info("health loop stopped", zap.Error(ctx.Err()))
			return
		case <-t.C:
			ping()
		}
	}
}

func newClusterClient(cfg *config.RedisConfig) (*redis.ClusterClient, error) {
	if len(cfg.Nodes) < 1 {
		return nil, errors.New("no nodes defined")
	}

	nodeAddrs := make([]string, 0, len(cfg.Nodes))
	for _, node := range cfg.Nodes {
		nodeAddrs = append(nodeAddrs, node.Addr())
	}

	poolSize := cfg.PoolSize
	if poolSize == 0 {
		poolSize = 20
	}

	cl := redis.NewClusterClient(&redis.ClusterOptions{
		RouteByLatency: true,
		Password:       cfg.Password,
		Addrs:          nodeAddrs,
		DialTimeout:    cfg.DialTimeout * time.Second,
		ReadTimeout:    cfg.ReadTimeout * time.Second,
		WriteTimeout:   cfg.WriteTimeout * time.Second,
		PoolSize:       poolSize,
		PoolTimeout:    30 * time.Second,
		MaxRetries:     3,
	})

	if err := cl.Ping(context.Background()).Err(); err != nil {
		_ = cl.Close()
		return nil, fmt.Errorf("error pinging redis cluster: %w", err)
	}

	return cl, nil
}

func newClient(cfg *config.RedisConfig) (*redis.Client, error) {
	var stickyErr = errors.New("no nodes defined")

	for _, node := range cfg.Nodes {
		cl := redis.NewClient(&redis.Options{
			Addr:         node.Addr(),
			Password:     cfg.Password,
			DB:           cfg.DatabaseID,
			DialTimeout:  cfg.DialTimeout * time.Second,
			ReadTimeout:  cfg.ReadTimeout * time.Second,
			WriteTimeout: cfg.WriteTimeout * time.Second,
			PoolSize:     cfg.PoolSize,
		})

		if err := cl.Ping(context.Background()).Err(); err != nil {
			_ = cl.Close()
			stickyErr = fmt.Errorf("error pinging redis server %s: %w", node.Addr(), err)
			continue
		}

		return cl, nil
	}

	return nil, stickyErr
}
