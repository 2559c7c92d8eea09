package eventbus

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/nkeys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsToGoChannel(t *testing.T) {
	ps, err := New(Config{}, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ps.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgs, err := ps.Subscriber.Subscribe(ctx, "party.test")
	require.NoError(t, err)

	msg := message.NewMessage(watermill.NewUUID(), []byte(`{"ok":true}`))
	msg.Metadata.Set("event_name", "LeaderboardUpdated")
	require.NoError(t, ps.Publisher.Publish("party.test", msg))

	select {
	case got := <-msgs:
		assert.Equal(t, `{"ok":true}`, string(got.Payload))
		assert.Equal(t, "LeaderboardUpdated", got.Metadata.Get("event_name"))
		got.Ack()
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}

func TestGoChannel_PublishWithoutSubscribersDoesNotBlock(t *testing.T) {
	ps := NewGoChannel(watermill.NopLogger{})
	t.Cleanup(func() { _ = ps.Close() })

	done := make(chan error, 1)
	go func() {
		done <- ps.Publisher.Publish("party.nobody", message.NewMessage(watermill.NewUUID(), []byte("x")))
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked without subscribers")
	}
}

func TestNKeyOption(t *testing.T) {
	kp, err := nkeys.CreateUser()
	require.NoError(t, err)
	seed, err := kp.Seed()
	require.NoError(t, err)

	opt, err := NKeyOption(string(seed))
	require.NoError(t, err)
	assert.NotNil(t, opt)

	_, err = NKeyOption("not-a-seed")
	assert.Error(t, err)
}
