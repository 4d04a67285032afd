package server

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Subscriber receives every message published on the channels it was
// subscribed to. Channel is closed after Unsubscribe.
type Subscriber struct {
	Channel chan []byte

	cancel context.CancelFunc
}

// Broker fans room traffic out to subscribers. The in-process
// implementation below is enough for a single host; the interface leaves
// room for an external pub/sub when rooms move across processes.
type Broker interface {
	Subscribe(ctx context.Context, channels ...string) *Subscriber
	Unsubscribe(ctx context.Context, sub *Subscriber, channels ...string)
	Publish(ctx context.Context, topic string, message []byte) error
	Close()
}

type ChannelBroker struct {
	pubsub *gochannel.GoChannel
}

func NewChannelBroker() Broker {
	return &ChannelBroker{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 64,
		}, watermill.NopLogger{}),
	}
}

func (b *ChannelBroker) Subscribe(ctx context.Context, channels ...string) *Subscriber {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscriber{
		Channel: make(chan []byte, 16),
		cancel:  cancel,
	}
	var wg sync.WaitGroup
	for _, topic := range channels {
		msgs, err := b.pubsub.Subscribe(ctx, topic)
		if err != nil {
			continue
		}
		wg.Add(1)
		go func(msgs <-chan *message.Message) {
			defer wg.Done()
			for msg := range msgs {
				select {
				case sub.Channel <- msg.Payload:
				case <-ctx.Done():
					msg.Ack()
					return
				}
				msg.Ack()
			}
		}(msgs)
	}
	go func() {
		wg.Wait()
		close(sub.Channel)
	}()
	return sub
}

func (b *ChannelBroker) Unsubscribe(_ context.Context, sub *Subscriber, _ ...string) {
	sub.cancel()
}

func (b *ChannelBroker) Publish(_ context.Context, topic string, payload []byte) error {
	return b.pubsub.Publish(topic, message.NewMessage(watermill.NewUUID(), payload))
}

func (b *ChannelBroker) Close() {
	_ = b.pubsub.Close()
}
