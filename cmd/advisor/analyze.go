package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"StockAdvisor/internal/advisor"
	"StockAdvisor/internal/chart"
	"StockAdvisor/internal/config"
	"StockAdvisor/internal/report"
)

func init() {
	analyzeCmd.Flags().Int("years", 0, "history window in years (default data_source.window_years)")
	analyzeCmd.Flags().Int("rows", report.DefaultRows, "number of trailing rows to print")
	analyzeCmd.Flags().String("chart-dir", "", "write price, indicator, RSI and MACD charts as PNG files into this directory")
	analyzeCmd.Flags().Bool("json", false, "print the result as JSON")
	RootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze TICKER",
	Short: "analyze one ticker and print the suggestion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		years, _ := cmd.Flags().GetInt("years")
		rows, _ := cmd.Flags().GetInt("rows")
		chartDir, _ := cmd.Flags().GetString("chart-dir")
		asJSON, _ := cmd.Flags().GetBool("json")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc, rec, err := newService(cfg, nil)
		if err != nil {
			return err
		}
		defer rec.Close()

		res, err := svc.Analyze(cmd.Context(), advisor.Request{Ticker: args[0], Years: years, Source: "cli"})
		if err != nil {
			color.New(color.FgRed).Fprintln(os.Stderr, advisor.UserMessage(err))
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(struct {
				*advisor.Result
				Rows interface{} `json:"rows"`
			}{res, res.Frame.Tail(rows)}); err != nil {
				return err
			}
		} else {
			report.Write(out, res, rows)
		}

		if chartDir != "" {
			return writeCharts(out, chartDir, res, cfg)
		}
		return nil
	},
}

// writeCharts renders every chart of res into dir. A chart without enough
// defined points is skipped with a warning.
func writeCharts(out io.Writer, dir string, res *advisor.Result, cfg *config.Config) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create chart dir: %w", err)
	}
	opt := chart.Options{Width: cfg.Chart.Width, Height: cfg.Chart.Height}
	charts := []struct {
		name string
		draw func(w io.Writer) error
	}{
		{"price", func(w io.Writer) error { return chart.Price(w, res.Frame, res.History, opt) }},
		{"indicators", func(w io.Writer) error { return chart.Indicators(w, res.Frame, opt) }},
		{"rsi", func(w io.Writer) error { return chart.RSI(w, res.Frame, cfg.Signal.Oversold, cfg.Signal.Overbought, opt) }},
		{"macd", func(w io.Writer) error { return chart.MACD(w, res.Frame, opt) }},
	}
	for _, c := range charts {
		var buf bytes.Buffer
		if err := c.draw(&buf); err != nil {
			log.WithError(err).Warnf("skip %s chart", c.name)
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", res.Ticker, c.name))
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintf(out, "chart written: %s\n", path)
	}
	return nil
}
