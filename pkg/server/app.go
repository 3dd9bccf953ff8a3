package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	applogger "FinTrack/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Runner is a long-lived component that blocks until ctx is cancelled.
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context) error

func (f RunnerFunc) Run(ctx context.Context) error { return f(ctx) }

type namedRunner struct {
	name string
	r    Runner
}

type namedCloser struct {
	name string
	c    io.Closer
}

// App encapsulates the entire application lifecycle.
type App struct {
	log     *applogger.Logger
	runners []namedRunner
	closers []namedCloser
}

// New creates an App. A nil logger discards output.
func New(l *applogger.Logger) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{log: l}
}

// Add registers a component that runs for the lifetime of the App.
func (a *App) Add(name string, r Runner) *App {
	if r != nil {
		a.runners = append(a.runners, namedRunner{name: name, r: r})
	}
	return a
}

// OnClose registers a resource released after every runner has returned.
// Resources are closed in reverse registration order.
func (a *App) OnClose(name string, c io.Closer) *App {
	if c != nil {
		a.closers = append(a.closers, namedCloser{name: name, c: c})
	}
	return a
}

// Run starts every runner and blocks until ctx is cancelled, SIGINT or
// SIGTERM is received, or one runner fails. The first runner error is returned.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(a.runners) == 0 {
		a.closeAll()
		return errors.New("no components to run")
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, nr := range a.runners {
		g.Go(func() error {
			a.log.Info("component starting", applogger.String("component", nr.name))
			start := time.Now()
			err := nr.r.Run(gctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				a.log.Error("component failed",
					applogger.String("component", nr.name),
					applogger.Duration("uptime", time.Since(start)),
					applogger.Error(err),
				)
				return fmt.Errorf("%s: %w", nr.name, err)
			}
			a.log.Info("component stopped", applogger.String("component", nr.name))
			return nil
		})
	}

	err := g.Wait()
	a.closeAll()
	if err == nil {
		a.log.Info("application stopped")
	}
	return err
}

func (a *App) closeAll() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		nc := a.closers[i]
		if err := nc.c.Close(); err != nil {
			a.log.Warn("close failed", applogger.String("resource", nc.name), applogger.Error(err))
		}
	}
}

// CloserFunc adapts a function to io.Closer.
type CloserFunc func() error

func (f CloserFunc) Close() error { return f() }
