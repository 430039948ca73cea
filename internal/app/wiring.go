package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/vadimbarashkov/shortlink/internal/analytics"
	"github.com/vadimbarashkov/shortlink/internal/config"
	"github.com/vadimbarashkov/shortlink/internal/database/dynamodb"
	"github.com/vadimbarashkov/shortlink/internal/database/memory"
	"github.com/vadimbarashkov/shortlink/internal/service"
	"github.com/vadimbarashkov/shortlink/pkg/postgres"

	pgstore "github.com/vadimbarashkov/shortlink/internal/database/postgres"
	redisstore "github.com/vadimbarashkov/shortlink/internal/database/redis"
)

type closeFunc func(ctx context.Context) error

func nopClose(context.Context) error { return nil }

// urlStore is satisfied by every backend: the service reads and writes
// records, the tracker increments click counts.
type urlStore interface {
	service.URLRepository
	analytics.ClickCounter
}

func newStore(ctx context.Context, cfg *config.Config) (urlStore, closeFunc, error) {
	const op = "app.newStore"

	switch cfg.Store.Driver {
	case config.StoreMemory:
		return memory.NewURLRepository(), nopClose, nil

	case config.StorePostgres:
		dsn := cfg.Postgres.DSN()

		db, err := postgres.New(
			ctx,
			dsn,
			postgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
			postgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
			postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
			postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
		}

		if err := postgres.RunMigrations(pgstore.Migrations, pgstore.MigrationsDir, dsn); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("%s: failed to run migrations: %w", op, err)
		}

		return pgstore.NewURLRepository(db), func(context.Context) error {
			return db.Close()
		}, nil

	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("%s: failed to connect to redis: %w", op, err)
		}

		return redisstore.NewURLRepository(client, cfg.Store.Table), func(context.Context) error {
			return client.Close()
		}, nil

	case config.StoreDynamoDB:
		client, err := dynamodb.NewClient(ctx, dynamodb.ClientConfig{
			Region:          cfg.DynamoDB.Region,
			Endpoint:        cfg.DynamoDB.Endpoint,
			AccessKeyID:     cfg.DynamoDB.AccessKeyID,
			SecretAccessKey: cfg.DynamoDB.SecretAccessKey,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}

		return dynamodb.NewURLRepository(client, cfg.Store.Table), nopClose, nil
	}

	return nil, nil, fmt.Errorf("%s: unknown store driver %q", op, cfg.Store.Driver)
}

func newSink(cfg *config.Config, logger *slog.Logger) (analytics.Sink, closeFunc, error) {
	const op = "app.newSink"

	switch cfg.Analytics.Sink {
	case config.SinkLog:
		return analytics.NewLogSink(logger), nopClose, nil

	case config.SinkKafka:
		w := analytics.NewKafkaWriter(cfg.Analytics.Kafka.Brokers, cfg.Analytics.Kafka.Topic)

		return analytics.NewKafkaSink(w), func(context.Context) error {
			return w.Close()
		}, nil

	case config.SinkNATS:
		nc, err := nats.Connect(cfg.Analytics.NATS.URL, nats.Name("shortlink"))
		if err != nil {
			return nil, nil, fmt.Errorf("%s: failed to connect to nats: %w", op, err)
		}

		return analytics.NewNATSSink(nc, cfg.Analytics.NATS.Subject), func(context.Context) error {
			return nc.Drain()
		}, nil
	}

	return nil, nil, fmt.Errorf("%s: unknown analytics sink %q", op, cfg.Analytics.Sink)
}
