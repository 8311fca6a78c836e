package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	parley "github.com/parley-ai/parley"
	"github.com/parley-ai/parley/logging"
	"github.com/parley-ai/parley/server"
)

// ServeCmd starts the deliberation HTTP server.
// Usage: parley serve --addr :8080
type ServeCmd struct {
	Addr string `short:"a" long:"addr" description:"listen address (overrides config)"`
}

func (s *ServeCmd) Execute(_ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if s.Addr != "" {
		cfg.Server.Addr = s.Addr
	}

	logger := logging.NewSlogLogger(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format, false)

	p, err := parley.New(context.Background(), func(o *parley.Options) {
		o.Config = cfg
		o.Logger = logger
	})
	if err != nil {
		return err
	}
	defer p.Close()

	handler := server.New(p, func(o *server.Options) { o.Logger = logger }).Handler()

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server.listening addr=%s provider=%s model=%s",
			cfg.Server.Addr, cfg.Model.Provider, cfg.Model.ID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	// Wait for a termination signal or a server error.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("server.shutdown signal=%s", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	case err := <-errCh:
		return err
	}
}
