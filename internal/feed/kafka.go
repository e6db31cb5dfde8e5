// Package feed holds the tick producers: the Kafka feed adapter used in
// live mode and the replay feed used for backtests and load tests. Both
// publish into the ingestion ring and are otherwise decoupled from the
// aggregation core.
package feed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	tickv1 "github.com/SJParthi/IndianFutureBillionaire/internal/domain/tick/v1"
	"github.com/SJParthi/IndianFutureBillionaire/internal/ring"
	"github.com/SJParthi/IndianFutureBillionaire/pkg/config"
	"github.com/SJParthi/IndianFutureBillionaire/pkg/errors"
	"github.com/SJParthi/IndianFutureBillionaire/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// RawTickEvent is the wire format of a tick on the feed topic.
type RawTickEvent struct {
	InstrumentID uint64  `json:"instrumentId"`
	Price        float64 `json:"price"`
	EventTime    int64   `json:"eventTime"`
}

// KafkaFeed consumes tick events from Kafka and publishes them into the
// ingestion ring. When the ring is full, Publish blocks and that
// backpressure propagates to the Kafka consumer offset.
type KafkaFeed struct {
	kafkaReader *kafka.Reader
	ring        *ring.Ring
	logger      logger.Interface

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewKafkaFeed creates the feed adapter from the tick topic configuration.
func NewKafkaFeed(cfg config.TickKafkaConfig, r *ring.Ring, log logger.Interface) *KafkaFeed {
	kafkaReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})

	return &KafkaFeed{
		kafkaReader: kafkaReader,
		ring:        r,
		logger:      log,
	}
}

// Start launches the read loop.
func (f *KafkaFeed) Start(ctx context.Context) {
	f.ctx, f.cancel = context.WithCancel(ctx)

	f.wg.Add(1)
	go f.run()

	f.logger.InfoContext(ctx, "kafka tick feed started", logger.Field{
		Key:   "action",
		Value: "tick_feed_start",
	})
}

// Stop cancels the read loop and closes the reader.
func (f *KafkaFeed) Stop() error {
	if f.cancel != nil {
		f.cancel()
	}
	f.wg.Wait()

	f.logger.Info("kafka tick feed stopped", logger.Field{
		Key:   "action",
		Value: "tick_feed_stop",
	})
	return f.kafkaReader.Close()
}

func (f *KafkaFeed) run() {
	defer f.wg.Done()

	for {
		select {
		case <-f.ctx.Done():
			f.logger.Info("kafka tick feed shutting down")
			return
		default:
			msg, err := f.kafkaReader.ReadMessage(f.ctx)
			if err != nil {
				if f.ctx.Err() != nil {
					return
				}
				f.logger.ErrorContext(f.ctx, err, logger.Field{
					Key:   "action",
					Value: "read_tick_message",
				})
				time.Sleep(100 * time.Millisecond)
				continue
			}

			f.handleMessage(msg)
		}
	}
}

func (f *KafkaFeed) handleMessage(msg kafka.Message) {
	var raw RawTickEvent
	if err := json.Unmarshal(msg.Value, &raw); err != nil {
		f.logger.Error(errors.NewErrorDetails(
			err.Error(),
			string(errors.ErrTickDecode),
			"",
		), logger.Field{
			Key:   "action",
			Value: "unmarshal_tick",
		})
		return
	}

	f.ring.Publish(tickv1.Tick{
		InstrumentID: raw.InstrumentID,
		Price:        raw.Price,
		EventTime:    raw.EventTime,
		ArrivalTime:  time.Now().UnixNano(),
	})
}
