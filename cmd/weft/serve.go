package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/weftworks/weft"
	httpadapter "github.com/weftworks/weft/pkg/adapters/http"
	"github.com/weftworks/weft/pkg/adapters/memory"
	redisadapter "github.com/weftworks/weft/pkg/adapters/redis"
	"github.com/weftworks/weft/pkg/observability"
	"github.com/weftworks/weft/pkg/ports"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the workflow HTTP server",
	Long: `Starts the engine in server mode: graphs are registered over a JSON
API, runs execute in the background and progress streams out over SSE.

Environment (also read from a .env file in the working directory):
  WEFT_REDIS_ADDR  Redis address for the run store (empty = in-memory)
  WEFT_RUN_TTL     Retention for stored runs, e.g. 24h (Redis only)`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServe(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
}

func buildRunStore() (ports.RunStore, error) {
	addr := os.Getenv("WEFT_REDIS_ADDR")
	if addr == "" {
		slog.Info("using in-memory run store")
		return memory.NewStore(), nil
	}

	var opts []redisadapter.Option
	if ttlStr := os.Getenv("WEFT_RUN_TTL"); ttlStr != "" {
		ttl, err := time.ParseDuration(ttlStr)
		if err != nil {
			return nil, fmt.Errorf("invalid WEFT_RUN_TTL: %w", err)
		}
		opts = append(opts, redisadapter.WithTTL(ttl))
	}
	slog.Info("using redis run store", "addr", addr)
	return redisadapter.New(addr, opts...), nil
}

func runServe(cmd *cobra.Command) error {
	// Optional; a missing .env file is fine.
	_ = godotenv.Load()

	port, _ := cmd.Flags().GetString("port")

	store, err := buildRunStore()
	if err != nil {
		return err
	}

	streams := httpadapter.NewStreamManager()
	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	engine, err := newEngine(cmd,
		weft.WithObserver(streams),
		weft.WithObserver(metrics),
		weft.WithObserver(observability.NewLogObserver(slog.Default())),
	)
	if err != nil {
		return err
	}

	server := httpadapter.NewServer(engine, store, streams, slog.Default())

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", server.Handler())

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		fmt.Printf("Starting Weft Server on %s\n", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return err

	case sig := <-shutdown:
		fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		fmt.Println("Weft Server stopped gracefully")
		return nil
	}
}
