package app

import (
	"context"

	"github.com/shandysiswandi/wireq/internal/pkg/clock"
	"github.com/shandysiswandi/wireq/internal/pkg/config"
	"github.com/shandysiswandi/wireq/internal/pkg/emitter"
	"github.com/shandysiswandi/wireq/internal/pkg/goroutine"
	"github.com/shandysiswandi/wireq/internal/pkg/instrument"
	"github.com/shandysiswandi/wireq/internal/pkg/socket"
	"github.com/shandysiswandi/wireq/internal/queue"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	clock     clock.Clock

	// resources
	sink     *emitter.Emitter
	factory  socket.Factory
	provider *queue.Provider

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initSocketFactory()
	app.initQueue()
	app.initClosers()

	return app
}
