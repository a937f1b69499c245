package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveRunner = runServe

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an OpenAPI document with request validation",
		Long: "Serve every operation of an OpenAPI/Swagger document. Requests are validated " +
			"against the declared parameters and JSON body before the builtin handlers run.",
		Example: strings.TrimSpace(`  openapiroute serve --spec openapi.yaml --addr :8080
  OPENAPIROUTE_SPEC=openapi.yaml openapiroute serve --verbose`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			return serveRunner(cmd.Context(), cfg)
		},
	}

	addSpecFlags(cmd.Flags())
	cmd.Flags().String("addr", "", "Listen address (default :8080)")
	cmd.Flags().Duration("shutdown-timeout", 0, "Grace period for in-flight requests on shutdown (default 10s)")

	return cmd
}

func runServe(ctx context.Context, cfg *Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := newLogger(os.Stderr, cfg.Verbose)
	api, err := buildAPI(ctx, cfg, log)
	if err != nil {
		return err
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	if err := api.Mount(engine); err != nil {
		return friendlyError(err)
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return newUsageError(fmt.Sprintf("listen on %s: %v", cfg.Addr, err))
	}
	return serve(ctx, ln, engine, cfg.ShutdownTimeout, log)
}

// serve runs an HTTP server on ln until ctx is done, then drains in-flight
// requests for up to grace.
func serve(ctx context.Context, ln net.Listener, h http.Handler, grace time.Duration, log *slog.Logger) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server.listening", slog.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("server.shutdown", slog.Duration("grace", grace))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
