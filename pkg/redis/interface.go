package redis

import (
	"context"

	v9 "github.com/redis/go-redis/v9"
)

// Client is the subset of Redis operations the bar pipeline uses:
// connection management plus pub/sub fan-out of finalized bars.
//
//go:generate mockgen -source interface.go -destination=mock/client_mock.go -package=redis_mock
type Client interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Ping(ctx context.Context) error
	Publish(ctx context.Context, channel string, message any) (int64, error)
	Subscribe(ctx context.Context, channels ...string) (*v9.PubSub, error)
}
