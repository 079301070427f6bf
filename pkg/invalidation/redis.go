package invalidation

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"imgcache/pkg/logger"
)

// Redis publishes and subscribes to removals over a Redis pub/sub
// channel. It uses Redis purely as a notification bus: no blob bytes or
// ETags are ever stored there, only "this URL changed" events.
type Redis struct {
	client  *redis.Client
	channel string
	log     *logger.Logger
}

// NewRedis connects to addr and prepares to publish/subscribe on
// channel.
func NewRedis(addr, channel string, log *logger.Logger) *Redis {
	return &Redis{
		client:  redis.NewClient(&redis.Options{Addr: addr}),
		channel: channel,
		log:     log,
	}
}

func (r *Redis) Publish(url string) error {
	if err := r.client.Publish(context.Background(), r.channel, url).Err(); err != nil {
		return fmt.Errorf("publish invalidation for %s: %w", url, err)
	}
	return nil
}

func (r *Redis) Subscribe(stop <-chan struct{}) <-chan string {
	out := make(chan string)
	sub := r.client.Subscribe(context.Background(), r.channel)
	msgs := sub.Channel()

	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-stop:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-stop:
					return
				}
			}
		}
	}()
	return out
}

func (r *Redis) Close() error {
	return r.client.Close()
}
