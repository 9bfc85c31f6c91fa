// Command currencyctl converts and prices amounts against the marketplace
// rate source and load tests a running currency service.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dalfonso89/marketplace-currency-service/internal/config"
	"github.com/dalfonso89/marketplace-currency-service/internal/logger"
	"github.com/dalfonso89/marketplace-currency-service/internal/service"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cli carries state shared by every subcommand
type cli struct {
	out           io.Writer
	configuration *config.Config
	logger        *logrus.Logger
	offline       bool
}

func newRootCmd(out io.Writer) *cobra.Command {
	state := &cli{out: out}

	rootCmd := &cobra.Command{
		Use:           "currencyctl",
		Short:         "Marketplace currency conversion and pricing tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configuration, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if logLevel, _ := cmd.Flags().GetString("log-level"); logLevel != "" {
				configuration.LogLevel = logLevel
			}
			state.configuration = configuration
			state.logger = logger.NewWithOutput(configuration.LogLevel, "text", cmd.ErrOrStderr())
			return nil
		},
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().String("log-level", "warn", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&state.offline, "offline", false, "skip the rate source and use the built-in rates")

	rootCmd.AddCommand(state.convertCmd())
	rootCmd.AddCommand(state.ratesCmd())
	rootCmd.AddCommand(state.quoteCmd())
	rootCmd.AddCommand(state.loadtestCmd())

	return rootCmd
}

// rateCache builds a cache and, unless offline, fetches once from the configured sources
func (state *cli) rateCache(ctx context.Context) *service.RateCache {
	var source service.RateSource
	if !state.offline && len(state.configuration.RatesSourceURLs) > 0 {
		source = service.NewRateSourceFromConfig(state.configuration, state.logger)
	}
	rateCache := service.NewRateCache(state.configuration, source, state.logger)
	if source != nil {
		rateCache.InitializeRates(ctx)
	}
	return rateCache
}
