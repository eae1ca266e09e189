package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/returnlens-cli/internal/analysis"
	"github.com/KaramelBytes/returnlens-cli/internal/derive"
	"github.com/KaramelBytes/returnlens-cli/internal/predict"
	"github.com/KaramelBytes/returnlens-cli/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var srvAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the overview, analytics and prediction API over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.ServerAddr
		if srvAddr != "" {
			addr = srvAddr
		}
		opt, err := loadOptions()
		if err != nil {
			return err
		}

		deriver := derive.NewDeriver()
		cache, err := newCache(deriver)
		if err != nil {
			return err
		}
		// Fail fast on an unreadable dataset; later edits are picked up per request.
		if _, err := cache.Load(cfg.DataPath, opt); err != nil {
			return err
		}

		// Keep the interface nil when there is no model so /api/predict answers 503.
		var clf predict.Classifier
		if m, err := loadModel(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: prediction disabled: %v\n", err)
			logger.Warn("model not loaded", zap.Error(err))
		} else {
			clf = m
		}

		h := server.NewHandler(server.Options{
			DataPath: cfg.DataPath,
			Load:     opt,
			HeadRows: cfg.HeadRows,
			Chart:    analysis.ChartOptions{Width: cfg.ChartWidth, Height: cfg.ChartHeight},
		}, cache, analysis.NewRunner(deriver), clf, logger)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Serving %s on %s\n", cfg.DataPath, addr)
		return server.Run(ctx, addr, server.NewRouter(h, cfg.CORSOrigins, logger), logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (default from config server_addr)")
}
