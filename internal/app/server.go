package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Start brings the queue provider up and returns a channel closed on shutdown.
func (a *App) Start() <-chan struct{} {
	terminateChan := make(chan struct{})

	slog.Info("queue provider starting",
		"queue", a.config.GetString("queue.name"),
		"driver", a.config.GetString("queue.driver"),
	)
	a.provider.Start(a.ctx)
	a.provider.Subscribe()

	// Heartbeats published before the bind completes simply queue and
	// drain once the provider becomes ready.
	if every := a.config.GetSecond("queue.heartbeat_seconds"); every > 0 {
		a.goroutine.Go(a.ctx, "heartbeat", func(ctx context.Context) error {
			ticker := time.NewTicker(every)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					a.provider.Publish(map[string]any{
						"service": a.config.GetString("instrument.service_name"),
						"ts":      a.clock.Now().UTC().Format(time.RFC3339),
					})
				}
			}
		})
	}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		defer signal.Stop(sigint)

		<-sigint

		if a.cancel != nil {
			a.cancel()
		}

		close(terminateChan)

		slog.Info("application gracefully shutdown")
	}()

	return terminateChan
}

// Stop gracefully detaches from the queue and closes resources.
func (a *App) Stop(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}

	a.provider.Unsubscribe()

	slog.InfoContext(ctx, "waiting for all goroutine to finish")
	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "error from goroutines executions", "error", err)
	}

	for _, closer := range a.closers {
		if err := closer.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", closer.name, "error", err)
		}
	}
}
