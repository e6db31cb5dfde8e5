package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// TickEvent mirrors the feed wire format consumed by the aggregator.
type TickEvent struct {
	InstrumentID uint64  `json:"instrumentId"`
	Price        float64 `json:"price"`
	EventTime    int64   `json:"eventTime"`
}

// generateTicks produces a random-walk price series across the given
// number of instruments. burstEvery inserts a dense burst of extra ticks
// periodically to exercise the meltdown path.
func generateTicks(count, instruments int, basePrice, walkStep float64, burstEvery, burstSize int) []TickEvent {
	prices := make([]float64, instruments)
	for i := range prices {
		prices[i] = basePrice * (0.5 + rand.Float64())
	}

	ticks := make([]TickEvent, 0, count)
	now := time.Now().UnixNano()

	for i := 0; i < count; i++ {
		inst := rand.Intn(instruments)
		prices[inst] += (rand.Float64() - 0.5) * walkStep
		if prices[inst] <= 0 {
			prices[inst] = basePrice
		}

		ticks = append(ticks, TickEvent{
			InstrumentID: uint64(inst + 1),
			Price:        float64(int(prices[inst]*100)) / 100,
			EventTime:    now + int64(i)*int64(time.Millisecond),
		})

		if burstEvery > 0 && (i+1)%burstEvery == 0 {
			for j := 0; j < burstSize; j++ {
				ticks = append(ticks, TickEvent{
					InstrumentID: uint64(inst + 1),
					Price:        float64(int(prices[inst]*100)) / 100,
					EventTime:    now + int64(i)*int64(time.Millisecond) + int64(j),
				})
			}
		}
	}

	return ticks
}

func main() {
	var (
		brokers     = flag.String("brokers", "localhost:9092", "Kafka broker addresses (comma-separated)")
		topic       = flag.String("topic", "ticks", "Kafka topic name")
		delay       = flag.Duration("delay", time.Millisecond, "Delay between sending ticks")
		count       = flag.Int("count", 100000, "Number of ticks to generate")
		instruments = flag.Int("instruments", 50, "Number of distinct instruments")
		basePrice   = flag.Float64("base-price", 1500.0, "Base price for the random walk")
		walkStep    = flag.Float64("walk-step", 2.0, "Max price move per tick")
		burstEvery  = flag.Int("burst-every", 0, "Insert a tick burst every N ticks (0 disables)")
		burstSize   = flag.Int("burst-size", 5000, "Ticks per burst")
	)
	flag.Parse()

	rand.Seed(time.Now().UnixNano())

	writer := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(*brokers, ",")...),
		Topic:        *topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	defer writer.Close()

	ctx := context.Background()

	log.Printf("Generating %d ticks across %d instruments...", *count, *instruments)
	ticks := generateTicks(*count, *instruments, *basePrice, *walkStep, *burstEvery, *burstSize)
	log.Printf("Generated %d ticks (bursts included)", len(ticks))

	log.Printf("Sending ticks to Kafka broker: %s, topic: %s, delay: %v", *brokers, *topic, *delay)

	for i, tick := range ticks {
		payload, err := json.Marshal(tick)
		if err != nil {
			log.Printf("Failed to marshal tick %d: %v", i+1, err)
			continue
		}

		msg := kafka.Message{
			Key:   []byte(strconv.FormatUint(tick.InstrumentID, 10)),
			Value: payload,
			Time:  time.Now(),
		}

		if err := writer.WriteMessages(ctx, msg); err != nil {
			log.Printf("Failed to send tick %d: %v", i+1, err)
			continue
		}

		if (i+1)%10000 == 0 || i == len(ticks)-1 {
			log.Printf("Sent tick %d/%d: instrument=%d price=%.2f",
				i+1, len(ticks), tick.InstrumentID, tick.Price)
		}

		if *delay > 0 && i < len(ticks)-1 {
			time.Sleep(*delay)
		}
	}

	log.Printf("Successfully sent all %d ticks!", len(ticks))
}
