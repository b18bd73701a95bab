package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/amaumene/foldpredict/internal/app"
	"github.com/amaumene/foldpredict/internal/clients"
	"github.com/amaumene/foldpredict/internal/config"
	"github.com/amaumene/foldpredict/internal/domain"
	"github.com/amaumene/foldpredict/internal/service"
	"github.com/amaumene/foldpredict/internal/storage"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	colorReset = "\033[0m"
	colorCyan  = "\033[36m"

	defaultLockTimeout = 2 * time.Second
)

type historyStats struct {
	Total          int
	Residues       int
	WithConfidence int
	MeanConfidence float64
	Oldest         time.Time
	Newest         time.Time
}

func historyCmd(configPath *string) *cobra.Command {
	var limit int
	var statsOnly bool
	var noColor bool
	var serverURL string
	var lockTimeout time.Duration

	c := &cobra.Command{
		Use:   "history",
		Short: "Show stored predictions",
		Long: "Show stored predictions from the database. When a running server holds the\n" +
			"database lock, the history is read from that server's API instead, which\n" +
			"returns at most " + strconv.Itoa(service.MaxListLimit) + " predictions.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if err := app.ConfigureLogging(cfg); err != nil {
				return err
			}
			if serverURL == "" {
				serverURL = localServerURL(cfg.ServerAddr)
			}

			predictions, err := loadHistory(cmd.Context(), cfg, serverURL, lockTimeout)
			if err != nil {
				return err
			}

			colorize := colorizer(noColor)
			out := cmd.OutOrStdout()
			if !statsOnly {
				shown := predictions
				if limit > 0 && len(shown) > limit {
					shown = shown[:limit]
				}
				printPredictions(out, colorize, shown)
				fmt.Fprintln(out)
			}
			printStats(out, colorize, calculateStats(predictions))
			return nil
		},
	}

	c.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum predictions to list (0 for all)")
	c.Flags().BoolVar(&statsOnly, "stats", false, "Show only statistics")
	c.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	c.Flags().StringVar(&serverURL, "server", "", "Server to ask when the database is locked (defaults to SERVER_ADDR)")
	c.Flags().DurationVar(&lockTimeout, "lock-timeout", defaultLockTimeout, "How long to wait for the database lock")
	return c
}

// loadHistory reads the database directly and falls back to the server API
// when the database is locked.
func loadHistory(ctx context.Context, cfg *config.Config, serverURL string, lockTimeout time.Duration) ([]domain.Prediction, error) {
	store, err := storage.OpenStoreReadOnly(cfg.DBPath(), lockTimeout)
	if errors.Is(err, storage.ErrLocked) {
		log.WithFields(log.Fields{
			"db":     cfg.DBPath(),
			"server": serverURL,
		}).Info("database locked, reading history from server")

		client := clients.NewHistoryClient(serverURL, cfg.APIKey, cfg.HTTPTimeout)
		predictions, err := client.List(ctx, service.MaxListLimit)
		if err != nil {
			return nil, fmt.Errorf("%w and the server at %s could not be queried (stop the server or pass --server): %w",
				storage.ErrLocked, serverURL, err)
		}
		return predictions, nil
	}
	if err != nil {
		return nil, err
	}

	repo := storage.NewPredictionRepository(store)
	defer repo.Close()
	return repo.List(ctx, 0)
}

func localServerURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func colorizer(disabled bool) func(color, text string) string {
	return func(color, text string) string {
		if disabled {
			return text
		}
		return color + text + colorReset
	}
}

func printPredictions(w io.Writer, colorize func(string, string) string, predictions []domain.Prediction) {
	fmt.Fprintln(w, colorize(colorCyan, "=== PREDICTIONS ==="))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tLENGTH\tCONFIDENCE\tWEIGHT")
	for _, p := range predictions {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			p.ID,
			p.CreatedAt.Local().Format(time.DateTime),
			p.SequenceLength,
			p.Confidence,
			p.MolecularWeight,
		)
	}
	tw.Flush()
}

func calculateStats(predictions []domain.Prediction) historyStats {
	var stats historyStats
	var confidenceSum float64

	for _, p := range predictions {
		stats.Total++
		stats.Residues += p.SequenceLength
		if p.Confidence.Valid {
			stats.WithConfidence++
			confidenceSum += p.Confidence.Value
		}
		if stats.Oldest.IsZero() || p.CreatedAt.Before(stats.Oldest) {
			stats.Oldest = p.CreatedAt
		}
		if p.CreatedAt.After(stats.Newest) {
			stats.Newest = p.CreatedAt
		}
	}
	if stats.WithConfidence > 0 {
		stats.MeanConfidence = domain.Round2(confidenceSum / float64(stats.WithConfidence))
	}
	return stats
}

func printStats(w io.Writer, colorize func(string, string) string, stats historyStats) {
	fmt.Fprintln(w, colorize(colorCyan, "=== SUMMARY ==="))
	fmt.Fprintf(w, "Predictions:      %d\n", stats.Total)
	fmt.Fprintf(w, "Residues folded:  %d\n", stats.Residues)
	if stats.WithConfidence > 0 {
		fmt.Fprintf(w, "Mean confidence:  %.2f\n", stats.MeanConfidence)
	}
	if stats.Total > 0 {
		fmt.Fprintf(w, "Oldest:           %s\n", stats.Oldest.Local().Format(time.DateTime))
		fmt.Fprintf(w, "Newest:           %s\n", stats.Newest.Local().Format(time.DateTime))
	}
}
