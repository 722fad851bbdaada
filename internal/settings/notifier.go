package settings

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// configChannel is the Redis pub/sub channel for configuration changes.
const configChannel = "creditd:config-changed"

// Notifier broadcasts configuration changes to sibling processes over Redis.
//
// A nil Notifier (or one built from a nil client) is valid and degrades to
// local-only behavior; single-process deployments need no Redis at all.
type Notifier struct {
	client *redis.Client
}

// NewNotifier constructs a Notifier. client may be nil.
func NewNotifier(client *redis.Client) *Notifier {
	if client == nil {
		return nil
	}
	return &Notifier{client: client}
}

// Publish announces a configuration change to other processes.
func (n *Notifier) Publish(ctx context.Context, topic string) {
	if n == nil || n.client == nil {
		return
	}
	if errPublish := n.client.Publish(ctx, configChannel, topic).Err(); errPublish != nil {
		log.WithError(errPublish).Warn("settings notifier: publish failed")
	}
}

// Listen subscribes to configuration changes and invokes onChange for each
// message until ctx is cancelled. It reconnects with a short delay on
// subscription errors.
func (n *Notifier) Listen(ctx context.Context, onChange func(topic string)) {
	if n == nil || n.client == nil || onChange == nil {
		return
	}
	go func() {
		for {
			if ctx.Err() != nil {
				return
			}
			sub := n.client.Subscribe(ctx, configChannel)
			ch := sub.Channel()
		recv:
			for {
				select {
				case <-ctx.Done():
					_ = sub.Close()
					return
				case msg, ok := <-ch:
					if !ok {
						break recv
					}
					onChange(msg.Payload)
				}
			}
			_ = sub.Close()
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}
	}()
}
