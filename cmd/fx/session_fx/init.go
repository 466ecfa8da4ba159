package session_fx

import (
	"context"
	"crypto/rand"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"foodinsight/internal/config"
	"foodinsight/pkg/session"
)

var Module = fx.Provide(
	provideStore,
	provideManager)

// provideStore uses Redis when REDIS_URL is set so several instances can share sessions.
func provideStore(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (session.Store, error) {
	if cfg.Session.RedisURL == "" {
		return session.NewMemoryStore(), nil
	}

	store, err := session.NewRedisStore(cfg.Session.RedisURL)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := store.Ping(ctx); err != nil {
				return err
			}
			logger.Info("session store connected", zap.String("backend", "redis"))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return store.Close()
		},
	})
	return store, nil
}

func provideManager(cfg *config.Config, store session.Store, logger *zap.Logger) (*session.Manager, error) {
	secret := []byte(cfg.Session.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
		logger.Warn("SECRET_KEY is not set; using a random key, sessions will not survive a restart")
	}
	return session.NewManager(store, secret, cfg.Session.TTL, cfg.Session.CookieSecure, logger), nil
}
