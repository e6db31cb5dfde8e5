package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SJParthi/IndianFutureBillionaire/internal/breaker"
	"github.com/SJParthi/IndianFutureBillionaire/internal/consumer"
	"github.com/SJParthi/IndianFutureBillionaire/internal/engine"
	"github.com/SJParthi/IndianFutureBillionaire/internal/feed"
	"github.com/SJParthi/IndianFutureBillionaire/internal/monitor"
	"github.com/SJParthi/IndianFutureBillionaire/internal/ring"
	"github.com/SJParthi/IndianFutureBillionaire/internal/rpc"
	"github.com/SJParthi/IndianFutureBillionaire/internal/sink"
	"github.com/SJParthi/IndianFutureBillionaire/internal/telemetry"
	"github.com/SJParthi/IndianFutureBillionaire/pkg/config"
	"github.com/SJParthi/IndianFutureBillionaire/pkg/logger"
	"github.com/SJParthi/IndianFutureBillionaire/pkg/redis"
)

var cfg *config.Config
var log *logger.Logger

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		panic(err)
	}

	log, err = logger.NewLogger(logger.WithLoggingLevel(logger.Level(cfg.App.LogLevel)))
	if err != nil {
		panic(err)
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	tickRing, err := ring.New(cfg.Aggregator.RingBufferSize)
	if err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "create_ring"})
		return
	}

	tracker := telemetry.NewTracker()

	brk, err := breaker.New(breaker.Thresholds{
		RingUsageMeltdown: cfg.Risk.MeltdownRingUsageThreshold,
		PartialSkip:       cfg.Risk.PartialSkipThreshold,
		FeedRateSpike:     cfg.Risk.FeedRateSpikeThreshold,
		BarVolumeMeltdown: cfg.Risk.BarVolumeMeltdownThreshold,
	}, log, tracker)
	if err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "create_breaker"})
		return
	}

	// Redis carries finalized bars to dashboards and strategy processes.
	redisClient := redis.NewClient(log, &cfg.Redis)
	if err := redisClient.Connect(ctx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "connect_redis"})
		return
	}

	marketStore := sink.NewMarketStore()
	volumeGuard := sink.NewVolumeGuard(brk, log)
	barPublisher := sink.NewRedisPublisher(redisClient, cfg.Redis.BarChannel, log)
	barPublisher.Start(ctx)

	barSink := sink.NewMultiSink(marketStore, volumeGuard, barPublisher)

	manager := engine.NewManager(
		cfg.Aggregator, brk, tickRing, tracker, barSink, log,
		cfg.Monitor.IdleSweepMaxAge,
	)

	tickConsumer := consumer.NewTickConsumer(tickRing, manager, log)
	tickConsumer.Start(ctx)

	overloadMonitor := monitor.New(cfg.Monitor, brk, tracker, tickRing, manager, log)
	overloadMonitor.Start(ctx)

	tickFeed := feed.NewKafkaFeed(cfg.TickKafka, tickRing, log)
	tickFeed.Start(ctx)

	telemetryServer := rpc.NewServer(cfg.App.Port, tracker, tickRing, brk, marketStore, log)
	go func() {
		if err := telemetryServer.Start(); err != nil {
			log.Error(err, logger.Field{Key: "action", Value: "serve_telemetry"})
		}
	}()

	log.Info("bar aggregator started",
		logger.Field{Key: "timeframes", Value: manager.Timeframes()},
		logger.Field{Key: "ringCapacity", Value: tickRing.Cap()},
	)

	sig := <-sigChan
	log.Info("received shutdown signal", logger.Field{
		Key:   "signal",
		Value: sig.String(),
	})

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := tickFeed.Stop(); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "stop_tick_feed"})
	}
	if err := tickConsumer.Stop(shutdownCtx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "stop_tick_consumer"})
	}
	if err := overloadMonitor.Stop(shutdownCtx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "stop_overload_monitor"})
	}
	if err := barPublisher.Stop(shutdownCtx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "stop_bar_publisher"})
	}
	if err := telemetryServer.Stop(shutdownCtx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "stop_telemetry_server"})
	}
	if err := redisClient.Disconnect(shutdownCtx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "disconnect_redis"})
	}

	log.Info("bar aggregator shutdown complete")
}
