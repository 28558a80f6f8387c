// Command fetch runs one-shot lookups against the provider gateway and prints
// the normalized records as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lubixbot/internal/aggregate"
	"lubixbot/internal/bootstrap"
	"lubixbot/internal/config"
	"lubixbot/internal/engine"
	"lubixbot/internal/logging"
)

type gatewayFactory func(cfg config.Config, log *zap.Logger) (engine.Gateway, error)

func defaultGateway(cfg config.Config, log *zap.Logger) (engine.Gateway, error) {
	return bootstrap.Gateway(cfg, log)
}

type options struct {
	configPath string
	timeout    time.Duration
	verbose    bool
}

func main() {
	if err := newRootCmd(os.Stdout, defaultGateway).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer, newGateway gatewayFactory) *cobra.Command {
	opts := &options{}
	var gw engine.Gateway
	var logger *zap.Logger

	root := &cobra.Command{
		Use:           "fetch",
		Short:         "Query market data upstreams the way the bot does",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if opts.verbose {
				cfg.Logging.Level = "debug"
			}
			cfg.Logging.Development = true
			logger, err = logging.New(cfg.Logging)
			if err != nil {
				return err
			}
			gw, err = newGateway(cfg, logger)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.json or config.yaml")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "overall deadline")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	run := func(fn func(ctx context.Context, args []string) (any, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()
			v, err := fn(ctx, args)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(out)
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "crypto SYMBOL...",
			Short: "Merged crypto quotes, newest source wins",
			Args:  cobra.MinimumNArgs(1),
			RunE: run(func(ctx context.Context, args []string) (any, error) {
				snap, err := gw.FetchMultiCryptoSnapshot(ctx, args)
				if err != nil {
					return nil, err
				}
				return aggregate.Ordered(snap, aggregate.NormalizeSymbols(args)), nil
			}),
		},
		&cobra.Command{
			Use:   "market",
			Short: "Snapshot of the majors shown by the market overview",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, _ []string) (any, error) {
				snap, err := gw.FetchMultiCryptoSnapshot(ctx, engine.DefaultMarketSymbols)
				if err != nil {
					return nil, err
				}
				return aggregate.Ordered(snap, engine.DefaultMarketSymbols), nil
			}),
		},
		&cobra.Command{
			Use:   "stock CODE",
			Short: "IDX equity with sharia screening",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(ctx context.Context, args []string) (any, error) {
				return gw.FetchEquity(ctx, args[0])
			}),
		},
		&cobra.Command{
			Use:   "token QUERY",
			Short: "On-chain token by symbol or contract address",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(ctx context.Context, args []string) (any, error) {
				return gw.FetchOnChainToken(ctx, args[0])
			}),
		},
		&cobra.Command{
			Use:   "sentiment",
			Short: "Fear and greed index",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, _ []string) (any, error) {
				return gw.FetchSentiment(ctx)
			}),
		},
		&cobra.Command{
			Use:   "pulse SYMBOL",
			Short: "1h/24h/7d momentum of one coin",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(ctx context.Context, args []string) (any, error) {
				return gw.FetchMomentum(ctx, args[0])
			}),
		},
	)
	return root
}
