package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"StockAdvisor/internal/advisor"
	"StockAdvisor/internal/report"
)

func init() {
	promptCmd.Flags().Int("rows", report.DefaultRows, "number of trailing rows to print")
	RootCmd.AddCommand(promptCmd)
}

const promptText = "Enter Stock Code (e.g., AAPL for Apple or 0005.HK for HSBC): "

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "read tickers from stdin and analyze each one",
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, _ := cmd.Flags().GetInt("rows")
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc, rec, err := newService(cfg, nil)
		if err != nil {
			return err
		}
		defer rec.Close()

		return promptLoop(cmd.Context(), svc, cmd.InOrStdin(), cmd.OutOrStdout(), rows)
	},
}

// promptLoop analyzes one ticker per input line until EOF, "quit" or a
// cancelled context. Analysis errors are printed and the loop continues.
func promptLoop(ctx context.Context, svc *advisor.Service, in io.Reader, out io.Writer, rows int) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, promptText)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit", "q":
			return nil
		}

		res, err := svc.Analyze(ctx, advisor.Request{Ticker: line, Source: "cli"})
		if err != nil {
			color.New(color.FgRed).Fprintln(out, advisor.UserMessage(err))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		report.Write(out, res, rows)
		fmt.Fprintln(out)
	}
}
