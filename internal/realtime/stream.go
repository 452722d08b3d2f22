package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/events"
)

const (
	streamMaxLen   = 10000
	streamReadSize = 100
	eventField     = "event"
	typeField      = "type"
)

// StreamPublisher appends committed events to a Redis stream so every API
// instance can relay them to its own subscribers.
type StreamPublisher struct {
	client *redis.Client
	stream string
}

// NewStreamPublisher builds a publisher for stream.
func NewStreamPublisher(client *redis.Client, stream string) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream}
}

// Broadcast implements service.Broadcaster.
func (p *StreamPublisher) Broadcast(ctx context.Context, event events.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]any{
			typeField:  string(event.Type),
			eventField: string(data),
		},
	}).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Relay tails the Redis stream and delivers events into the local directory.
type Relay struct {
	client    *redis.Client
	stream    string
	block     time.Duration
	directory *Directory
	logger    *zap.Logger
}

// NewRelay builds a relay reading stream with the given block timeout.
func NewRelay(client *redis.Client, stream string, block time.Duration, directory *Directory, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{client: client, stream: stream, block: block, directory: directory, logger: logger}
}

// Run reads new stream entries until ctx is cancelled. Only entries added
// after Run starts are relayed.
func (r *Relay) Run(ctx context.Context) error {
	lastID := "$"
	for {
		if ctx.Err() != nil {
			return nil
		}
		res, err := r.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{r.stream, lastID},
			Block:   r.block,
			Count:   streamReadSize,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			r.logger.Warn("realtime relay read failed", zap.String("stream", r.stream), zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		for _, streamRes := range res {
			for _, msg := range streamRes.Messages {
				lastID = msg.ID
				event, err := decodeEvent(msg.Values)
				if err != nil {
					r.logger.Warn("skipping malformed stream entry", zap.String("id", msg.ID), zap.Error(err))
					continue
				}
				r.directory.Deliver(event)
			}
		}
	}
}

func decodeEvent(values map[string]any) (events.Event, error) {
	var event events.Event
	raw, ok := values[eventField]
	if !ok {
		return event, errors.New("missing event field")
	}
	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return event, fmt.Errorf("unexpected event field type %T", raw)
	}
	if err := json.Unmarshal(data, &event); err != nil {
		return event, fmt.Errorf("decode event: %w", err)
	}
	return event, nil
}
