// Package eventstream fans run and batch events out to SSE subscribers
// over watermill's in-memory gochannel transport: one topic per run, one
// subscriber goroutine per client draining to an SSE writer. Execution
// never crosses a process boundary, so no broker is involved.
package eventstream

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Bus is the shared pub/sub fabric for run and batch event topics.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger watermill.LoggerAdapter
}

func NewBus() *Bus {
	logger := watermill.NewStdLogger(false, false)
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
		// A run starts producing events before its client reaches the stream
		// endpoint; persistence replays the topic's earlier messages to a
		// late subscriber so the client still sees the run from `started`.
		Persistent: true,
	}, logger)
	return &Bus{pubsub: pubsub, logger: logger}
}

// Topic returns the topic name a run or batch's events are published under.
func Topic(kind, id string) string { return kind + "." + id }

// Publish sends a JSON-encoded payload to topic.
func (b *Bus) Publish(topic string, payload []byte) error {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	return b.pubsub.Publish(topic, msg)
}

// Subscribe returns a channel of raw message payloads for topic. The
// returned channel closes when ctx is cancelled.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	messages, err := b.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return nil, err
	}
	out := make(chan []byte)
	go func() {
		defer close(out)
		for msg := range messages {
			select {
			case out <- msg.Payload:
			case <-ctx.Done():
				msg.Ack()
				return
			}
			msg.Ack()
		}
	}()
	return out, nil
}

// Close shuts the bus down, closing every open subscription.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
