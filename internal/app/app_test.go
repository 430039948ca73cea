package app

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadimbarashkov/shortlink/internal/analytics"
	"github.com/vadimbarashkov/shortlink/internal/config"
	"github.com/vadimbarashkov/shortlink/internal/database/memory"
)

func testConfig() *config.Config {
	return &config.Config{
		Env: config.EnvDev,
		ShortCode: config.ShortCode{
			Length:     6,
			MaxRetries: 5,
		},
		HTTPServer: config.HTTPServer{
			Port:            0,
			ShutdownTimeout: time.Second,
		},
		Store: config.Store{
			Driver: config.StoreMemory,
		},
		Analytics: config.Analytics{
			Sink:      config.SinkLog,
			Workers:   1,
			QueueSize: 8,
			Timeout:   time.Second,
		},
	}
}

func TestNewStore(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		store, closeStore, err := newStore(context.Background(), testConfig())

		require.NoError(t, err)
		assert.IsType(t, &memory.URLRepository{}, store)
		assert.NoError(t, closeStore(context.Background()))
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := testConfig()
		cfg.Store.Driver = "cassandra"

		store, _, err := newStore(context.Background(), cfg)

		assert.ErrorContains(t, err, `unknown store driver "cassandra"`)
		assert.Nil(t, store)
	})
}

func TestNewSink(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	t.Run("log", func(t *testing.T) {
		sink, closeSink, err := newSink(testConfig(), logger)

		require.NoError(t, err)
		assert.IsType(t, &analytics.LogSink{}, sink)
		assert.NoError(t, closeSink(context.Background()))
	})

	t.Run("kafka", func(t *testing.T) {
		cfg := testConfig()
		cfg.Analytics.Sink = config.SinkKafka
		cfg.Analytics.Kafka = config.Kafka{Brokers: []string{"localhost:9092"}, Topic: "clicks"}

		sink, closeSink, err := newSink(cfg, logger)

		require.NoError(t, err)
		assert.IsType(t, &analytics.KafkaSink{}, sink)
		assert.NoError(t, closeSink(context.Background()))
	})

	t.Run("unknown sink", func(t *testing.T) {
		cfg := testConfig()
		cfg.Analytics.Sink = "carrier-pigeon"

		_, _, err := newSink(cfg, logger)

		assert.ErrorContains(t, err, `unknown analytics sink "carrier-pigeon"`)
	})
}

func TestRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, testConfig())
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
