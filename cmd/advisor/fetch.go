package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"StockAdvisor/internal/advisor"
	"StockAdvisor/internal/collector"
)

func init() {
	fetchCmd.Flags().Int("years", 0, "history window in years (default data_source.window_years)")
	fetchCmd.Flags().StringP("output", "o", "", "output CSV file (default stdout)")
	RootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch TICKER",
	Short: "download daily bars and write them as CSV for the csv provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		years, _ := cmd.Flags().GetInt("years")
		output, _ := cmd.Flags().GetString("output")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		f, err := newFetcher(cfg)
		if err != nil {
			return err
		}
		if years == 0 {
			years = cfg.DataSource.WindowYears
		}
		if years < 1 || years > advisor.MaxWindowYears {
			return advisor.ErrInvalidWindow
		}

		w := collector.LastYears(timeNow(), years)
		series, err := collector.NewCollector(f).Collect(cmd.Context(), args[0], w)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), advisor.UserMessage(err))
			return err
		}

		var out io.Writer = cmd.OutOrStdout()
		if output != "" {
			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			defer file.Close()
			out = file
		}
		if err := collector.WriteCSV(out, series); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		if output != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "%d bars of %s written to %s\n", series.Len(), series.Symbol, output)
		}
		return nil
	},
}
