package main

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"StockAdvisor/internal/chart"
	"StockAdvisor/internal/metrics"
	"StockAdvisor/internal/notifier"
	"StockAdvisor/internal/scheduler"
	"StockAdvisor/internal/server"
)

func init() {
	serveCmd.Flags().String("listen", "", "HTTP listen address (default server.listen)")
	serveCmd.Flags().Bool("run-on-start", false, "scan the watchlist once at startup")
	serveCmd.Flags().Bool("no-telegram", false, "disable Telegram polling and notifications")
	RootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the HTTP API, the Telegram bot and the watchlist scanner",
	RunE: func(cmd *cobra.Command, args []string) error {
		listen, _ := cmd.Flags().GetString("listen")
		runOnStart, _ := cmd.Flags().GetBool("run-on-start")
		noTelegram, _ := cmd.Flags().GetBool("no-telegram")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if listen == "" {
			listen = cfg.Server.Listen
		}
		log.Info("stock advisor starting...")

		m := metrics.NewMetrics()
		svc, rec, err := newService(cfg, m)
		if err != nil {
			return err
		}
		defer rec.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		opt := chart.Options{Width: cfg.Chart.Width, Height: cfg.Chart.Height}

		var tn *notifier.TelegramNotifier
		var sender scheduler.Sender
		if cfg.TelegramEnabled() && !noTelegram {
			tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
			tn.AllowedChats = cfg.Telegram.AllowedChats
			sender = tn
		} else {
			log.Info("telegram disabled")
		}

		sched := scheduler.NewScheduler(ctx, svc, sender, cfg.Schedule.Watchlist)
		sched.Chart = opt
		if err := sched.Register(cfg.Schedule.ScanCron); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()

		if tn != nil {
			go tn.StartPolling(ctx, sched.HandleCommand)
			log.Info("telegram polling started")
		}

		if runOnStart {
			log.Info("run-on-start enabled, scanning watchlist now")
			go sched.RunScanNow()
		}

		srv := server.New(svc, m)
		srv.Thresholds = cfg.Signal
		srv.Chart = opt

		log.Info("stock advisor is running. Press Ctrl+C to stop.")
		err = srv.ListenAndServe(ctx, listen)
		log.Info("shutdown signal received, stopping...")
		cancel()
		return err
	},
}
