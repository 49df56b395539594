package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"leadbot-backend/internal/config"
	"leadbot-backend/internal/dialog"
	"leadbot-backend/internal/logging"
	"leadbot-backend/internal/server"
)

const shutdownGrace = 10 * time.Second

var rootCmd = &cobra.Command{
	Use:   "leadbot-server",
	Short: "Lead-capture chatbot backend",
	Long: `leadbot-server answers website chat messages, walks interested visitors
through an industry form and stores the completed lead.

Run without a subcommand to start the HTTP server.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var flowsCmd = &cobra.Command{
	Use:   "flows",
	Short: "Print the form flow of every industry",
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "INDUSTRY\tSTEP\tFIELD\tQUESTION")
		for _, industry := range dialog.Industries() {
			for i, f := range industry.Flow() {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", industry, i+1, f, f.Question())
			}
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, flowsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func serve(ctx context.Context) error {
	cfg := config.Load()
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = logger.Sync() }()

	s, err := server.NewServer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to create server", zap.Error(err))
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.Warn("failed to release resources", zap.Error(err))
		}
	}()

	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("leadbot server listening",
			zap.String("addr", httpServer.Addr),
			zap.String("llm_provider", cfg.LLM.Provider),
			zap.String("lead_sink", cfg.Leads.Sink),
			zap.String("session_backend", cfg.Session.Backend),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		logger.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
