package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/conorfennell/thaiflash/internal/config"
	"github.com/conorfennell/thaiflash/internal/storage"
	"github.com/conorfennell/thaiflash/internal/sync"
	"github.com/conorfennell/thaiflash/internal/trainer"
	"github.com/conorfennell/thaiflash/internal/web"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "thaiflash: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// 1. Flags, config file and environment
	fs := config.FlagSet("thaiflash")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	// 2. Open the database
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("Database opened", "path", cfg.DBPath)

	// 3. Load the vocabulary; a failure leaves the trainer usable but empty
	vocab := sync.Load(sync.Source{
		Path:     cfg.VocabPath,
		Repo:     cfg.VocabRepo,
		File:     cfg.VocabFile,
		ReposDir: cfg.ReposDir,
	})

	tr, err := trainer.New(trainer.Config{
		Store:       db,
		Categories:  vocab.Categories,
		VocabStatus: vocab.Status,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	srv, err := web.NewServer(tr, logger)
	if err != nil {
		return err
	}

	// 4. Serve until interrupted
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Serving trainer", "addr", "http://"+cfg.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
