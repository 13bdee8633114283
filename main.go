package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TarekGIS4/bns-agriculture-project/logging"
	"github.com/TarekGIS4/bns-agriculture-project/pipeline"
	"github.com/TarekGIS4/bns-agriculture-project/reftable"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the NDVI dashboard",
		RunE:  func(cmd *cobra.Command, args []string) error { return runServe(cmd.Context()) },
	}
	root := &cobra.Command{
		Use:          "bns-ndvi",
		Short:        "Landsat NDVI time-series dashboard for Beni Suef",
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	root.AddCommand(serve, newSeriesCmd(), newBandsCmd())
	return root
}

func setup() (Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return Config{}, err
	}
	if err := logging.Init(cfg.Debug); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func runServe(ctx context.Context) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	defer logging.Sync()

	app, err := newApp(cfg, nil)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          zap.NewStdLog(logging.Logger()),
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logging.Infow("NDVI dashboard listening", "addr", srv.Addr, "region", cfg.Study.Region)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newSeriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "series",
		Short: "Run the pipeline once and print the composite series as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			defer logging.Sync()
			return printSeries(cmd.Context(), cmd.OutOrStdout(), cfg, nil)
		},
	}
}

// printSeries runs the stages without registering maps: there is no server
// to proxy tiles, so only years, archive sizes and the trend are reported.
func printSeries(ctx context.Context, w io.Writer, cfg Config, dial pipeline.DialFunc) error {
	if dial == nil {
		dial = serviceDialer(cfg)
	}
	ev, err := pipeline.Bootstrap(ctx, cfg.Credentials, dial)
	if err != nil {
		return err
	}
	res, err := pipeline.Run(ctx, ev, cfg.Study, cfg.RequestTimeout)
	if err != nil {
		return err
	}

	out := resultDTO(cfg.Study, res)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func newBandsCmd() *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "bands",
		Short: "Export the Landsat band reference table",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return writeBands(w, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table, csv or pdf")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func writeBands(w io.Writer, format string) error {
	switch format {
	case "table":
		_, err := io.WriteString(w, reftable.Render(reftable.All()...))
		return err
	case "csv":
		return reftable.WriteCSV(w, reftable.All()...)
	case "pdf":
		return reftable.WritePDF(w, "Landsat 5 and Landsat 8 satellite data", reftable.All()...)
	}
	return fmt.Errorf("unknown format %q", format)
}
