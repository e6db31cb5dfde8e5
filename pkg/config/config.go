package config

import (
	"time"

	"github.com/SJParthi/IndianFutureBillionaire/pkg/errors"
	"github.com/SJParthi/IndianFutureBillionaire/pkg/redis"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Load loads the configuration from environment variables and .env file.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.NewErrorDetails(err.Error(), string(errors.ConfigParseError), "")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Config represents the application configuration.
type Config struct {
	App        AppConfig        `envPrefix:"APP_"`
	Aggregator AggregatorConfig `envPrefix:"AGGREGATOR_"`
	Risk       RiskConfig       `envPrefix:"RISK_"`
	Monitor    MonitorConfig    `envPrefix:"MONITOR_"`
	TickKafka  TickKafkaConfig  `envPrefix:"TICK_KAFKA_"`
	Redis      redis.Config     `envPrefix:"REDIS_"`
}

// AppConfig represents the application configuration.
type AppConfig struct {
	Name        string `env:"NAME" envDefault:"bar-aggregator"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

// AggregatorConfig holds the tick-to-bar aggregation settings.
type AggregatorConfig struct {
	// RingBufferSize is the ingestion channel capacity, rounded up to a power of two.
	RingBufferSize int `env:"RING_BUFFER_SIZE" envDefault:"65536"`

	DefaultTimeframe string   `env:"DEFAULT_TIMEFRAME" envDefault:"1m"`
	MultiTimeframes  []string `env:"MULTI_TIMEFRAMES" envSeparator:"," envDefault:"1m,5m,15m"`

	// EnablePartialBars lets the aggregator finalize a bar early when price
	// moves more than PartialBarThresholdPercent from the bar open.
	EnablePartialBars          bool    `env:"ENABLE_PARTIAL_BARS" envDefault:"true"`
	PartialBarThresholdPercent float64 `env:"PARTIAL_BAR_THRESHOLD_PERCENT" envDefault:"0.02"`

	// QuietZoneThresholdMinutes closes a bar whose instrument went silent.
	QuietZoneThresholdMinutes int `env:"QUIET_ZONE_THRESHOLD_MINUTES" envDefault:"5"`

	// SubCycle forcibly finalizes a bar once past half its timeframe duration.
	SubCycle bool `env:"SUB_CYCLE" envDefault:"false"`

	// BarMergeThresholdVolume is informational only; no merge logic acts on it.
	BarMergeThresholdVolume int `env:"BAR_MERGE_THRESHOLD_VOLUME" envDefault:"0"`

	BarSoftCloseSeconds int `env:"BAR_SOFT_CLOSE_SECONDS" envDefault:"5"`
}

// RiskConfig holds the circuit breaker thresholds.
type RiskConfig struct {
	MeltdownRingUsageThreshold float64 `env:"MELTDOWN_RING_USAGE_THRESHOLD" envDefault:"0.90"`
	PartialSkipThreshold       float64 `env:"PARTIAL_SKIP_THRESHOLD" envDefault:"0.80"`
	FeedRateSpikeThreshold     int64   `env:"FEED_RATE_SPIKE_THRESHOLD" envDefault:"20000"`
	BarVolumeMeltdownThreshold int64   `env:"BAR_VOLUME_MELTDOWN_THRESHOLD" envDefault:"500000"`
}

// MonitorConfig holds the overload monitor settings.
type MonitorConfig struct {
	Interval        time.Duration `env:"INTERVAL" envDefault:"100ms"`
	LowUsageSamples int           `env:"LOW_USAGE_SAMPLES" envDefault:"5"`
	LowUsageRate    int64         `env:"LOW_USAGE_RATE" envDefault:"1000"`

	// IdleSweep proactively finalizes bars whose instrument stopped ticking.
	IdleSweepEnabled bool          `env:"IDLE_SWEEP_ENABLED" envDefault:"true"`
	IdleSweepMaxAge  time.Duration `env:"IDLE_SWEEP_MAX_AGE" envDefault:"5m"`
}

// TickKafkaConfig represents the Kafka configuration for the tick feed.
type TickKafkaConfig struct {
	Brokers       []string `env:"BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	Topic         string   `env:"TOPIC" envDefault:"ticks"`
	ConsumerGroup string   `env:"CONSUMER_GROUP" envDefault:"bar-aggregator"`
	MaxRetries    int      `env:"MAX_RETRIES" envDefault:"3"`
}

// Validate checks cross-field invariants that env tags cannot express.
func (c *Config) Validate() error {
	if c.Aggregator.RingBufferSize <= 0 {
		return errors.NewErrorDetails(
			"ring buffer size must be positive",
			string(errors.ErrInvalidRingCapacity),
			"Aggregator.RingBufferSize",
		)
	}

	// Partial skip must engage before full meltdown or the degraded band is empty.
	if c.Risk.PartialSkipThreshold >= c.Risk.MeltdownRingUsageThreshold {
		return errors.NewErrorDetails(
			"partial skip threshold must be below the meltdown threshold",
			string(errors.ConfigThresholdError),
			"Risk.PartialSkipThreshold",
		)
	}

	return nil
}
