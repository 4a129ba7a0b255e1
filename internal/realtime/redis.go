package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const NotificationChannel = "civic:notifications"

// NewRedis creates a new Redis client
func NewRedis(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

type envelope struct {
	UserID uuid.UUID       `json:"userId"`
	Event  json.RawMessage `json:"event"`
}

// RedisNotifier publishes events so every API instance subscribed to the
// channel can relay them to its own websocket clients.
type RedisNotifier struct {
	RDB     *redis.Client
	Channel string
}

func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{RDB: rdb, Channel: NotificationChannel}
}

func (n *RedisNotifier) Notify(ctx context.Context, userID uuid.UUID, ev Event) error {
	evb, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	b, err := json.Marshal(envelope{UserID: userID, Event: evb})
	if err != nil {
		return err
	}
	return n.RDB.Publish(ctx, n.Channel, b).Err()
}

// Subscribe relays published events into hub until ctx is cancelled.
// ready, when non-nil, is closed once the subscription is confirmed.
func Subscribe(ctx context.Context, rdb *redis.Client, channel string, hub *Hub, log *slog.Logger, ready chan<- struct{}) error {
	pubsub := rdb.Subscribe(ctx, channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	if ready != nil {
		close(ready)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Warn("realtime: bad notification payload", "error", err)
				continue
			}
			hub.sendRaw(env.UserID, env.Event)
		}
	}
}
