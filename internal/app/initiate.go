package app

import (
	"context"
	"log/slog"
	"os"

	"github.com/nats-io/nats.go"
	"github.com/shandysiswandi/wireq/internal/pkg/clock"
	"github.com/shandysiswandi/wireq/internal/pkg/config"
	"github.com/shandysiswandi/wireq/internal/pkg/emitter"
	"github.com/shandysiswandi/wireq/internal/pkg/goroutine"
	"github.com/shandysiswandi/wireq/internal/pkg/instrument"
	"github.com/shandysiswandi/wireq/internal/pkg/socket"
	"github.com/shandysiswandi/wireq/internal/queue"
)

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(a.ctx, &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.max_goroutine"))
	a.clock = clock.NewSystem()
	a.sink = emitter.New()
}

func (a *App) initSocketFactory() {
	driver := a.config.GetString("queue.driver")

	factory, err := socket.NewFromDriver(a.ctx, driver, socket.FactoryOptions{
		NATS: socket.NATSConfig{
			URL: a.config.GetString("queue.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("instrument.service_name")),
				nats.MaxReconnects(a.config.GetInt("queue.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("queue.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("queue.nats.reconnect_wait_seconds")),
			},
		},
	})
	if err != nil {
		slog.Error("failed to init socket factory", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.factory = factory
}

func (a *App) initQueue() {
	a.sink.On(queue.EventReady, func(any) {
		slog.Info("queue provider ready", "queue", a.config.GetString("queue.name"))
	})
	a.sink.On(queue.EventError, func(payload any) {
		slog.Error("queue provider error", "error", payload)
	})
	a.sink.On(queue.EventMessage, func(payload any) {
		msg, ok := payload.(queue.Message)
		if !ok {
			return
		}

		ctx := instrument.WithCorrelationID(a.ctx, instrument.NewCorrelationID())
		ctx, span := a.ins.Tracer("app.queue").Start(ctx, "ConsumeQueueMessage")
		defer span.End()

		slog.InfoContext(ctx, "queue message received", "payload", msg.Text(), "size", len(msg.Raw()))
	})

	provider, err := queue.New(a.sink, &queue.Options{
		QueueName: a.config.GetString("queue.name"),
		Hostname:  a.config.GetString("queue.hostname"),
		Port:      a.config.GetInt("queue.port"),
	}, a.factory)
	if err != nil {
		slog.Error("failed to init queue provider", "error", err)
		os.Exit(1)
	}

	a.provider = provider
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "QueueProvider",
			fn: func(context.Context) error {
				return a.provider.Close()
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}
