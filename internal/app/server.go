package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
)

type purger interface {
	Purge(ctx context.Context) (int64, error)
}

// Start serves HTTP on the configured address and starts background jobs.
// The returned channel closes on SIGINT, SIGTERM or SIGHUP, or when the
// listener fails.
func (a *App) Start() <-chan struct{} {
	sigCtx, stop := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		slog.Info("http server listening", "address", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped unexpectedly", "error", err)
			stop()
		}
	}()

	a.startPurge()

	done := make(chan struct{})
	go func() {
		<-sigCtx.Done()
		stop()
		close(done)
		slog.Info("shutdown requested")
	}()

	return done
}

// Serve is Start without signals on a caller-owned listener.
func (a *App) Serve(l net.Listener) <-chan error {
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		errs <- a.httpServer.Serve(l)
	}()

	a.startPurge()

	return errs
}

// startPurge schedules Purge for storages that keep expired rows. Redis
// expires keys itself and is skipped.
func (a *App) startPurge() {
	p, ok := a.storage.(purger)
	if !ok {
		return
	}

	interval := a.config.GetSecond("storage.purge_interval_seconds")
	if interval <= 0 {
		interval = defaultPurgeInterval
	}

	a.goroutine.Every(a.ctx, "otp.purge", interval, func(ctx context.Context) error {
		n, err := p.Purge(ctx)
		if n > 0 {
			slog.InfoContext(ctx, "purged otp records", "count", n)
		}
		return err
	})
}

// Stop drains HTTP, waits for background jobs, then releases resources in
// the reverse order they were opened.
func (a *App) Stop(ctx context.Context) {
	a.cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "http server shutdown", "error", err)
	}

	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "background job failed", "error", err)
	}

	for _, c := range slices.Backward(a.closers) {
		if err := c.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resource", "name", c.name, "error", err)
		}
	}

	slog.InfoContext(ctx, "application stopped")
}

// onClose registers fn to run during Stop.
func (a *App) onClose(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}
