// Package eventbus builds the watermill publisher/subscriber pair used for
// realtime delivery: core NATS in production, an in-process channel otherwise.
package eventbus

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nkeys"
)

// Config selects the transport. An empty URL selects the in-process channel.
type Config struct {
	URL      string
	NKeySeed string
}

// PubSub is a publisher/subscriber pair sharing one transport.
type PubSub struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
	closers    []func() error
}

// Close closes the subscriber before the publisher.
func (p *PubSub) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// New builds the pub/sub for cfg.
func New(cfg Config, logger *slog.Logger) (*PubSub, error) {
	wmLogger := NewSlogAdapter(logger)
	if cfg.URL == "" {
		logger.Info("NATS URL not configured, realtime delivery stays in-process")
		return NewGoChannel(wmLogger), nil
	}
	return NewNATS(cfg, wmLogger)
}

// NewGoChannel returns an in-process pub/sub. Publish never waits for subscribers.
func NewGoChannel(logger watermill.LoggerAdapter) *PubSub {
	ch := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            64,
		BlockPublishUntilSubscriberAck: false,
	}, logger)
	return &PubSub{
		Publisher:  ch,
		Subscriber: ch,
		closers:    []func() error{ch.Close},
	}
}

// NewNATS returns a core-NATS pub/sub without JetStream: realtime pushes are
// ephemeral and every API instance receives every message for its connections.
func NewNATS(cfg Config, logger watermill.LoggerAdapter) (*PubSub, error) {
	opts := []nc.Option{
		nc.MaxReconnects(-1),
		nc.ReconnectWait(2 * time.Second),
	}
	if cfg.NKeySeed != "" {
		opt, err := NKeyOption(cfg.NKeySeed)
		if err != nil {
			return nil, err
		}
		opts = append(opts, opt)
	}

	jsConfig := nats.JetStreamConfig{Disabled: true}
	marshaler := &nats.GobMarshaler{}

	publisher, err := nats.NewPublisher(nats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: opts,
		Marshaler:   marshaler,
		JetStream:   jsConfig,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
	}

	subscriber, err := nats.NewSubscriber(nats.SubscriberConfig{
		URL:            cfg.URL,
		NatsOptions:    opts,
		Unmarshaler:    marshaler,
		JetStream:      jsConfig,
		CloseTimeout:   10 * time.Second,
		AckWaitTimeout: 5 * time.Second,
	}, logger)
	if err != nil {
		_ = publisher.Close()
		return nil, fmt.Errorf("failed to create NATS subscriber: %w", err)
	}

	return &PubSub{
		Publisher:  publisher,
		Subscriber: subscriber,
		closers:    []func() error{publisher.Close, subscriber.Close},
	}, nil
}

// NKeyOption authenticates the NATS connection with a user nkey seed.
func NKeyOption(seed string) (nc.Option, error) {
	kp, err := nkeys.FromSeed([]byte(seed))
	if err != nil {
		return nil, fmt.Errorf("failed to parse NATS nkey seed: %w", err)
	}
	pub, err := kp.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("failed to derive NATS nkey public key: %w", err)
	}
	return nc.Nkey(pub, func(nonce []byte) ([]byte, error) {
		return kp.Sign(nonce)
	}), nil
}
