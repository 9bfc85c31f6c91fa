package main

import (
	"fmt"
	"math"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dalfonso89/marketplace-currency-service/internal/currency"
	"github.com/dalfonso89/marketplace-currency-service/internal/loadtest"
	"github.com/dalfonso89/marketplace-currency-service/internal/pricing"

	"github.com/spf13/cobra"
)

func parseAmount(raw string) (float64, error) {
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil || amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("invalid amount %q: must be a finite, non-negative number", raw)
	}
	return amount, nil
}

func requireSupported(codes ...string) error {
	for _, code := range codes {
		if !currency.IsSupported(code) {
			return fmt.Errorf("unsupported currency %q (supported: %v)", currency.Normalize(code), currency.Codes())
		}
	}
	return nil
}

// --- Convert Command ---

func (state *cli) convertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert AMOUNT FROM TO",
		Short: "Convert an amount between two currencies",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			if err := requireSupported(args[1], args[2]); err != nil {
				return err
			}
			from, to := currency.Normalize(args[1]), currency.Normalize(args[2])

			rateCache := state.rateCache(cmd.Context())
			converted := rateCache.Convert(amount, from, to)
			if math.IsInf(converted, 0) || math.IsNaN(converted) {
				return fmt.Errorf("amount out of range: %v %s does not fit in %s", amount, from, to)
			}

			fmt.Fprintf(state.out, "%s = %s (%s) [%s]\n",
				currency.Format(amount, from),
				currency.Format(converted, to),
				currency.FormatRate(rateCache.DisplayRate(from, to), from, to),
				rateCache.State())
			return nil
		},
	}
}

// --- Rates Command ---

func (state *cli) ratesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rates",
		Short: "Print the current rate table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot := state.rateCache(cmd.Context()).Snapshot()

			lastUpdated := "never"
			if !snapshot.UpdatedAt.IsZero() {
				lastUpdated = snapshot.UpdatedAt.UTC().Format(time.RFC3339)
			}
			fmt.Fprintf(state.out, "State: %s  Source: %s  Updated: %s\n\n", snapshot.State, snapshot.Source, lastUpdated)

			writer := tabwriter.NewWriter(state.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(writer, "CODE\tNAME\tPER USD")
			for _, info := range currency.All() {
				rate, _ := snapshot.Rates.Rate(info.Code)
				fmt.Fprintf(writer, "%s\t%s\t%g\n", info.Code, info.Name, rate)
			}
			return writer.Flush()
		},
	}
}

// --- Quote Command ---

func (state *cli) quoteCmd() *cobra.Command {
	var region string

	quoteCmd := &cobra.Command{
		Use:   "quote AMOUNT CURRENCY",
		Short: "Quote payment totals with regional fees",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}

			calculator := pricing.NewCalculator(state.rateCache(cmd.Context()))

			var quotes []pricing.Quote
			if region == "" {
				quotes, err = calculator.QuoteAll(amount, args[1])
			} else {
				var quote pricing.Quote
				quote, err = calculator.Quote(amount, args[1], region)
				quotes = []pricing.Quote{quote}
			}
			if err != nil {
				return err
			}

			writer := tabwriter.NewWriter(state.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(writer, "REGION\tCURRENCY\tSUBTOTAL\tFEE\tTOTAL")
			for _, quote := range quotes {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n",
					quote.Region, quote.Currency, quote.SubtotalFormatted, quote.FeeFormatted, quote.TotalFormatted)
			}
			return writer.Flush()
		},
	}
	quoteCmd.Flags().StringVar(&region, "region", "", "payment region code (default: all regions)")

	return quoteCmd
}

// --- Loadtest Command ---

func (state *cli) loadtestCmd() *cobra.Command {
	var loadConfig loadtest.Config

	loadtestCmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Load test a running currency service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if loadConfig.URL == "" {
				loadConfig.URL = fmt.Sprintf("http://localhost:%s/api/v1/convert?amount=10000000&from=GYD&to=USD", state.configuration.Port)
			}

			fmt.Fprintf(state.out, "Starting load test...\n")
			fmt.Fprintf(state.out, "URL: %s\n", loadConfig.URL)
			fmt.Fprintf(state.out, "Concurrent Users: %d\n", loadConfig.ConcurrentUsers)
			fmt.Fprintf(state.out, "Requests per User: %d\n", loadConfig.RequestsPerUser)
			fmt.Fprintf(state.out, "Ramp-up Duration: %v\n", loadConfig.RampUpDuration)
			fmt.Fprintf(state.out, "Think Time: %v\n\n", loadConfig.ThinkTime)

			summary := loadtest.Run(cmd.Context(), loadConfig)
			loadtest.Print(state.out, summary)
			return nil
		},
	}

	flags := loadtestCmd.Flags()
	flags.StringVar(&loadConfig.URL, "url", "", "target URL (default: convert endpoint on the configured port)")
	flags.IntVar(&loadConfig.ConcurrentUsers, "users", 10, "number of concurrent users")
	flags.IntVar(&loadConfig.RequestsPerUser, "requests", 100, "number of requests per user")
	flags.DurationVar(&loadConfig.Timeout, "timeout", 30*time.Second, "request timeout")
	flags.DurationVar(&loadConfig.TestDuration, "duration", 0, "test duration (0 = run until all requests complete)")
	flags.DurationVar(&loadConfig.RampUpDuration, "rampup", 5*time.Second, "ramp-up duration")
	flags.DurationVar(&loadConfig.ThinkTime, "think", 100*time.Millisecond, "think time between requests")

	return loadtestCmd
}
