// Command sportsettle answers sports outcome and statistic questions from
// the terminal using the multi-provider resolution pipeline.
package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/bytedance/sonic"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sportsettle/sportsettle/internal/cache"
	"github.com/sportsettle/sportsettle/internal/circuit"
	"github.com/sportsettle/sportsettle/internal/config"
	"github.com/sportsettle/sportsettle/internal/httpclient"
	"github.com/sportsettle/sportsettle/internal/providers"
	"github.com/sportsettle/sportsettle/internal/resolve"
)

var (
	resolveTimeout time.Duration
	resolveFormat  string
	configPath     string
)

// rootCmd is the base command for the sportsettle CLI
var rootCmd = &cobra.Command{
	Use:   "sportsettle",
	Short: "sportsettle deterministic sports resolution engine",
	Long: `sportsettle answers natural-language questions about sports outcomes and
match statistics by fanning out to independent data providers and
reconciling their answers under tiering and consensus rules.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("sportsettle - multi-provider sports resolution")
		fmt.Println("Use 'sportsettle resolve \"<question>\"' to resolve a query")
	},
}

// resolveCmd runs one query through the pipeline.
var resolveCmd = &cobra.Command{
	Use:   "resolve <question>",
	Short: "Resolve a sports question against all configured providers",
	Long: `Resolve a natural-language sports question. The answer carries a
calibrated confidence score and the full evidence trail.

Example usage:
  sportsettle resolve "Did Lakers beat Suns on 2025-01-15?"
  sportsettle resolve "Total yellow cards Arsenal vs Chelsea 2024-11-05"
  sportsettle resolve --format=json "Over 8 total cards in Real Madrid vs Barcelona 2024-10-26"`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

// providersCmd lists the provider table with configuration status.
var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List providers and their configuration status",
	RunE:  runProviders,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(providersCmd)

	resolveCmd.Flags().DurationVar(&resolveTimeout, "timeout", 30*time.Second, "Deadline for the whole resolution")
	resolveCmd.Flags().StringVar(&resolveFormat, "format", "text", "Output format: text, json")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to tuning YAML (optional)")
}

func setup() (*resolve.Resolver, *providers.Registry, error) {
	// .env is a convenience for local runs; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	breakers := circuit.NewManager(circuit.Config{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		Cooldown:         cfg.Cooldown(),
	})
	fetcher := httpclient.New(httpclient.Config{
		Timeout:   cfg.Timeout(),
		HostRPS:   float64(cfg.Fetch.HostRPS),
		HostBurst: cfg.Fetch.HostBurst,
		UserAgent: cfg.Fetch.UserAgent,
	}, breakers)

	registry := providers.NewRegistry(fetcher,
		providers.WithCache(cache.New(cfg.RedisAddr, cfg.CacheTTL())),
		providers.WithRetry(cfg.RetryPolicy()),
	)
	resolver := resolve.New(resolve.NewRegistrySource(registry))
	return resolver, registry, nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	resolver, _, err := setup()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	result := resolver.Resolve(ctx, args[0])

	if resolveFormat == "json" {
		out, err := sonic.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("Resolution: %s\n", result.Resolution)
	fmt.Printf("Confidence: %.2f\n", result.Confidence)
	fmt.Printf("Reasoning:  %s\n", result.Reasoning)
	if len(result.Sources) > 0 {
		fmt.Printf("Sources:    %v\n", result.Sources)
	}
	if len(result.Evidence.Errors) > 0 {
		fmt.Printf("Errors:     %d (see --format=json for the evidence trail)\n", len(result.Evidence.Errors))
	}
	return nil
}

func runProviders(cmd *cobra.Command, args []string) error {
	_, registry, err := setup()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tNAME\tTIER\tWEIGHT\tSTATUS")
	for _, spec := range registry.Specs() {
		status := "configured"
		if ok, reason := registry.Configured(spec); !ok {
			status = "skipped: " + reason
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%s\n",
			spec.Key, spec.Name, spec.Tier, providers.Weight(spec.Tier), status)
	}
	for _, feed := range providers.Feeds(os.Getenv) {
		fmt.Fprintf(w, "%s%s\t%s\t%d\t%.2f\t%s\n",
			providers.RSSPrefix, circuit.Host(feed), "RSS feed", 3, providers.Weight(3), "configured")
	}
	return w.Flush()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
