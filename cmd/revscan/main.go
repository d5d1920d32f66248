package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/use-agent/revscan/api"
	"github.com/use-agent/revscan/browser"
	"github.com/use-agent/revscan/cache"
	"github.com/use-agent/revscan/config"
	"github.com/use-agent/revscan/discovery"
	"github.com/use-agent/revscan/jobs"
	"github.com/use-agent/revscan/llm"
	"github.com/use-agent/revscan/models"
	"github.com/use-agent/revscan/pipeline"
	"github.com/use-agent/revscan/scan"
	"github.com/use-agent/revscan/search"
	"github.com/use-agent/revscan/store"
)

func main() {
	root := &cobra.Command{
		Use:           "revscan",
		Short:         "Detect revenue-management technology on hotel websites",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), scanCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newAnalyzer wires the browser session and discovery clients together.
func newAnalyzer(cfg *config.Config) (*scan.Analyzer, error) {
	session, err := browser.Open(cfg.Browser)
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	httpClient := &http.Client{Timeout: 60 * time.Second}
	return &scan.Analyzer{
		Session: session,
		Finder: &discovery.Finder{
			LLM:    llm.NewClient(httpClient, cfg.LLM),
			Search: search.NewClient(httpClient, cfg.Search),
		},
		Cfg:     cfg.Scan,
		Lookups: cache.New(cfg.Cache.MaxEntries),
	}, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			initLogger(cfg.Log)
			slog.Info("revscan starting",
				"host", cfg.Server.Host,
				"port", cfg.Server.Port,
				"mode", cfg.Server.Mode,
			)

			analyzer, err := newAnalyzer(cfg)
			if err != nil {
				return err
			}
			defer analyzer.Session.Close()

			st, err := store.Open(cfg.Store.Path)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()
			if err := st.RecoverOrphanedJobs(); err != nil {
				slog.Warn("orphaned job recovery failed", "error", err)
			}

			scanOne := func(ctx context.Context, index int, hotel models.Hotel) *models.DetectionResult {
				return analyzer.AnalyzeHotel(ctx, hotel.Name, hotel.Website, hotel.City)
			}
			runner := jobs.New(st, scanOne, cfg.Scan)
			if cfg.Webhook.URL != "" {
				runner.SetWebhook(cfg.Webhook.URL, cfg.Webhook.Secret)
			}

			router := api.NewRouter(runner, st, cfg, time.Now())
			addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
			srv := &http.Server{Addr: addr, Handler: router}

			errCh := make(chan error, 1)
			go func() {
				slog.Info("HTTP server listening", "addr", addr)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return fmt.Errorf("HTTP server: %w", err)
			case sig := <-quit:
				slog.Info("shutdown signal received", "signal", sig.String())
			}

			// Give in-flight requests 5 seconds to complete.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				slog.Error("HTTP server forced shutdown", "error", err)
			} else {
				slog.Info("HTTP server drained gracefully")
			}

			slog.Info("revscan stopped")
			return nil
		},
	}
}

func scanCmd() *cobra.Command {
	var (
		csvPath string
		name    string
		website string
		city    string
		output  string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan hotels from a CSV file or a single hotel from flags",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			initLogger(cfg.Log)

			var hotels []models.Hotel
			switch {
			case csvPath != "":
				f, err := os.Open(csvPath)
				if err != nil {
					return fmt.Errorf("open CSV: %w", err)
				}
				defer f.Close()
				hotels, err = pipeline.ParseHotels(f)
				if err != nil {
					return err
				}
				if len(hotels) == 0 {
					return fmt.Errorf("no scannable rows in %s (need a name plus a website or city)", csvPath)
				}
			case name != "" && (website != "" || city != ""):
				hotels = []models.Hotel{{Name: name, Website: website, City: city}}
			default:
				return fmt.Errorf("provide --csv, or --name with --url or --city")
			}

			analyzer, err := newAnalyzer(cfg)
			if err != nil {
				return err
			}
			defer analyzer.Session.Close()

			scanOne := func(ctx context.Context, index int, hotel models.Hotel) *models.DetectionResult {
				return analyzer.AnalyzeHotel(ctx, hotel.Name, hotel.Website, hotel.City)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			results := scan.Batch(ctx, hotels, scanOne,
				cfg.Scan.MaxConcurrentScans, cfg.Scan.InterScanDelay,
				func(index, done, total int, hotel models.Hotel, result *models.DetectionResult) {
					fmt.Fprintf(os.Stderr, "[%d/%d] %s: %s (%s)\n",
						done, total, hotel.Name,
						firstProduct(result), result.Confidence)
				})

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			} else {
				out := os.Stdout
				if output != "" {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("create output: %w", err)
					}
					defer f.Close()
					out = f
				}
				if err := pipeline.WriteResults(out, results); err != nil {
					return err
				}
			}

			summary := jobs.Summarize(results)
			fmt.Fprintf(os.Stderr, "\nScanned %d/%d hotels: pixel %d, gamechanger %d, competitor rms %d\n",
				summary.Scanned, summary.TotalHotels,
				summary.PixelCount, summary.GameChangerCount, summary.CompetitorCount)
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV file with hotel rows (name, website, city)")
	cmd.Flags().StringVar(&name, "name", "", "hotel name for a single scan")
	cmd.Flags().StringVar(&website, "url", "", "hotel website URL for a single scan")
	cmd.Flags().StringVar(&city, "city", "", "hotel city, used to resolve a missing website")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write results CSV to this file instead of stdout")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit full results as JSON instead of CSV")
	return cmd
}

func firstProduct(result *models.DetectionResult) string {
	if result == nil || len(result.Products) == 0 {
		return models.ProductNone
	}
	return result.Products[0]
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
