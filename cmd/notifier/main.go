package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"farm-market/internal/notify"
	"farm-market/pkg/config"
	"farm-market/pkg/logger"
	"farm-market/pkg/rabbit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New("notifier", cfg.Common.LogLevel, cfg.Common.LogFormat)

	rc, err := rabbit.Connect(cfg.Rabbit.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("rabbit connect failed")
	}
	defer func() { _ = rc.Close() }()

	if err := rabbit.DeclareBase(rc.Ch); err != nil {
		log.Fatal().Err(err).Msg("declare base failed")
	}
	if err := rabbit.DeclareQueueWithDLQ(rc.Ch, rabbit.QueueSpec{
		Name:     "notify.q",
		BindKeys: []string{"order.placed"},
		DLQKey:   "notify.dlq",
		Prefetch: 20,
	}); err != nil {
		log.Fatal().Err(err).Msg("declare notify topology failed")
	}

	deliveries, err := rabbit.NewConsumer(rc.Ch).Consume("notify.q", 20)
	if err != nil {
		log.Fatal().Err(err).Msg("consume failed")
	}

	w := &notify.Consumer{Log: log}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, deliveries)

	log.Info().Msg("notifier started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutdown")
	cancel()
}
