package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/streamscout/streamscout/internal/config"
	"github.com/streamscout/streamscout/internal/gateway"
	"github.com/streamscout/streamscout/internal/scout"
)

type globalOptions struct {
	configPath string
	gatewayURL string
	token      string
	timeout    time.Duration
	jsonOutput bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(&globalOptions{}).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(opts *globalOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "streamscout",
		Short: "Find where to stream a title and keep a watchlist",
		Long: `Stream Scout - search TMDB with IMDb ratings and streaming providers
merged in, keep a watchlist and a watched list, and ask for AI suggestions.

Run "streamscout serve" to start the gateway; the other commands talk to it.`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to config file")
	pf.StringVar(&opts.gatewayURL, "gateway", envOr("STREAMSCOUT_GATEWAY", gateway.DefaultURL), "Gateway base URL")
	pf.StringVar(&opts.token, "token", os.Getenv("STREAMSCOUT_TOKEN"), "Bearer token for a gateway with auth enabled")
	pf.DurationVar(&opts.timeout, "timeout", 60*time.Second, "Gateway request timeout")
	pf.BoolVar(&opts.jsonOutput, "json", false, "Output JSON")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newSearchCmd(opts),
		newLookupCmd(opts),
		newRecommendCmd(opts),
		newGenresCmd(opts),
		newListCmd(opts),
		newTokenCmd(opts),
	)
	return rootCmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (o *globalOptions) client() *gateway.Client {
	return gateway.NewClient(o.gatewayURL, o.token, o.timeout)
}

func (o *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printItems renders items as JSON or as an aligned table.
func printItems(w io.Writer, items []scout.Item, asJSON bool) error {
	if asJSON {
		if items == nil {
			items = []scout.Item{}
		}
		return writeJSON(w, items)
	}
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TITLE\tYEAR\tTYPE\tIMDB\tSCORE\tPROVIDERS\tKEY")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			it.Title,
			orDash(it.Year),
			it.Type.Label(),
			orDash(it.Rating),
			orDash(it.Score.String()),
			orDash(strings.Join(it.Providers, ", ")),
			it.Key,
		)
		if it.Reason != "" {
			fmt.Fprintf(tw, "  %s\t\t\t\t\t\t\n", it.Reason)
		}
	}
	return tw.Flush()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
