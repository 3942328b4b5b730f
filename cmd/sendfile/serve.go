package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sagarc03/sendfile"
	"github.com/sagarc03/sendfile/config"
	"github.com/sagarc03/sendfile/filesystem"
	sendhttp "github.com/sagarc03/sendfile/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Serve the configured root directory over HTTP until interrupted.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 5708, "HTTP server port")
	serveCmd.Flags().String("error-format", "text", "error body format: text, json, html")
	serveCmd.Flags().String("max-age", "", "Cache-Control max-age, e.g. 1h or 30d")
	serveCmd.Flags().Bool("immutable", false, "add the immutable Cache-Control directive")

	rootCmd.AddCommand(serveCmd)
}

// newSender builds a sender for cfg. A local root is made absolute so it
// does not depend on the working directory later on; an s3 root is the
// bucket itself.
func newSender(ctx context.Context, cfg *config.Config, hooks sendfile.Hooks) (*sendfile.Sender, error) {
	opts, err := cfg.Send.Options()
	if err != nil {
		return nil, fmt.Errorf("send options: %w", err)
	}
	opts.Hooks = hooks

	var fsys sendfile.FileSystem
	switch cfg.Storage.Backend {
	case "s3":
		s3cfg := cfg.Storage.S3()
		client, err := filesystem.NewS3Client(ctx, s3cfg)
		if err != nil {
			return nil, err
		}
		opts.Root = "/"
		fsys = filesystem.NewS3Storage(client, s3cfg.Bucket, s3cfg.Prefix)
	default:
		root, err := filepath.Abs(opts.Root)
		if err != nil {
			return nil, fmt.Errorf("resolve root: %w", err)
		}
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat root: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("root %s is not a directory", root)
		}
		opts.Root = root
		fsys = filesystem.NewOSStorage()
	}

	sendfile.DefaultContentType = cfg.Send.DefaultType

	return sendfile.New(fsys, opts)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	onError, err := sendhttp.ErrorHook(sendhttp.ErrorFormat(cfg.Server.ErrorFormat))
	if err != nil {
		return fmt.Errorf("error format: %w", err)
	}

	sender, err := newSender(ctx, cfg, sendfile.Hooks{OnError: onError})
	if err != nil {
		return err
	}

	handlerConfig := sendhttp.HandlerConfig{
		HealthPath: cfg.Server.HealthPath,
		CORS:       cfg.CORS,
	}
	handler := sendhttp.NewHandler(&handlerConfig, sender)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
		case <-ctx.Done():
			return
		}

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "storage", cfg.Storage.Backend, "root", sender.Options().Root)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
