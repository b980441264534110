package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/circuitchat/internal/api"
	"github.com/ziadkadry99/circuitchat/internal/chat"
	"github.com/ziadkadry99/circuitchat/internal/history"
	"github.com/ziadkadry99/circuitchat/internal/server"
	"github.com/ziadkadry99/circuitchat/internal/web"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the circuit chat web server",
	Long: `Starts the circuitchat web server: the chat page with the digitaljs viewer,
the circuit generation and analysis API, generation history, and the
Prometheus /metrics endpoint.`,
	RunE: runServer,
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 0, "port to listen on (overrides config)")
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.cfg

	if serverPort > 0 {
		cfg.Server.Port = serverPort
	}

	if cfg.History.RetentionDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -cfg.History.RetentionDays)
		n, err := a.store.DeleteBefore(ctx, cutoff)
		if err != nil {
			a.logger.Warn("pruning generation history", zap.Error(err))
		} else if n > 0 {
			a.logger.Info("pruned generation history", zap.Int64("deleted", n), zap.Int("retention_days", cfg.History.RetentionDays))
		}
	}

	site, err := web.New(web.Options{
		DigitalJSURL: cfg.Web.DigitalJSURL,
		StaticDir:    cfg.Web.StaticDir,
	})
	if err != nil {
		return fmt.Errorf("building web pages: %w", err)
	}

	// Upstream calls must finish before the route timeout cuts them off.
	timeout := server.DefaultRequestTimeout
	if t := cfg.LLM.Timeout + 30*time.Second; t > timeout {
		timeout = t
	}

	srv := server.New(server.Config{
		Port:           cfg.Server.Port,
		AllowAll:       cfg.Server.AllowAllOrigins,
		RequestTimeout: timeout,
		Logger:         a.logger,
		Metrics:        a.metrics,
	})

	chatHandler := chat.NewHandler(a.generator, chat.Options{
		Store:   chat.NewStore(a.db),
		Logger:  a.logger.Named("chat"),
		Metrics: a.metrics,
	})

	srv.Routes(func(r chi.Router) {
		api.RegisterRoutes(r, a.generator, a.logger.Named("api"))
		history.RegisterRoutes(r, a.store, a.index)
		site.RegisterRoutes(r)
	})
	srv.Streams(func(r chi.Router) {
		chat.RegisterRoutes(r, chatHandler)
	})

	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nShutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	fmt.Fprintf(os.Stderr, "circuitchat server %s starting on port %d\n", Version, cfg.Server.Port)
	fmt.Fprintf(os.Stderr, "  Provider: %s (%s)\n", cfg.Provider, cfg.Model)
	fmt.Fprintf(os.Stderr, "  Database: %s\n", a.dbPath())
	if a.index != nil {
		fmt.Fprintf(os.Stderr, "  Prompts indexed: %d\n", a.index.Count())
	}

	return srv.Start()
}
