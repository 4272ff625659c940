package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"zawamis/config"
	"zawamis/files"
	"zawamis/middleware"
	"zawamis/store"
	"zawamis/store/mongostore"
	"zawamis/store/pgstore"
)

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		return mongostore.Open(ctx, mongostore.Config{
			URI:            cfg.MongoURI,
			Database:       cfg.MongoDatabase,
			Transactions:   cfg.MongoTransactions,
			ConnectTimeout: 10 * time.Second,
		}, logger)
	case config.StorePostgres:
		return pgstore.Open(ctx, pgstore.Config{
			DSN:             cfg.PostgresDSN,
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxIdle:     cfg.DBConnMaxIdle,
			ConnMaxLifetime: cfg.DBConnMaxLife,
			PingTimeout:     30 * time.Second,
		}, logger)
	case config.StoreMemory:
		logger.Warn("using the in-memory store; data is lost on restart")
		return store.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// openFiles returns the file storage and, for local disk, the handler that
// serves it.
func openFiles(ctx context.Context, cfg *config.Config) (files.Storage, http.Handler, error) {
	switch cfg.FileStorage {
	case config.FilesS3:
		s, err := files.NewS3Storage(ctx, files.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicURL:       cfg.S3PublicURL,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	case config.FilesLocal:
		s := files.NewLocalStorage(cfg.MediaRoot, cfg.MediaURL)
		return s, s.Handler(), nil
	}
	return nil, nil, fmt.Errorf("unknown file storage %q", cfg.FileStorage)
}

func openLimiter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (middleware.Limiter, error) {
	if cfg.RedisAddr == "" {
		return middleware.NewRateLimiter(), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return middleware.NewRedisLimiter(client, logger), nil
}
