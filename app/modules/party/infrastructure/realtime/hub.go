// Package realtime fans party envelopes out to connected clients.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Black-And-White-Club/frolf-bot-shared/observability/attr"
	partydomain "github.com/Black-And-White-Club/hunting-party/app/modules/party/domain"
	"github.com/Black-And-White-Club/hunting-party/app/observability"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// DefaultBuffer is the per-connection queue length. A client that falls
// further behind loses messages instead of slowing anyone else down.
const DefaultBuffer = 32

var ErrHubClosed = errors.New("realtime hub closed")

// Hub holds one broker subscription per active topic and fans each message
// out to the connections joined to it.
type Hub struct {
	subscriber message.Subscriber
	logger     *slog.Logger
	metrics    observability.RealtimeMetrics
	buffer     int

	mu     sync.RWMutex
	topics map[string]*topicGroup
	conns  map[string]*conn
	closed bool
}

type topicGroup struct {
	cancel context.CancelFunc
	conns  map[string]*conn
}

type conn struct {
	id      string
	partyID uuid.UUID
	userID  string
	topics  []string
	ch      chan partydomain.Envelope
}

// NewHub creates a Hub reading from subscriber.
func NewHub(subscriber message.Subscriber, logger *slog.Logger, metrics observability.RealtimeMetrics, buffer int) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoOpMetrics{}
	}
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subscriber: subscriber,
		logger:     logger,
		metrics:    metrics,
		buffer:     buffer,
		topics:     make(map[string]*topicGroup),
		conns:      make(map[string]*conn),
	}
}

// Join registers a connection for the party topic and the user's own topic.
// The returned channel closes after leave is called, the hub closes, or ctx
// is done. leave is safe to call more than once.
func (h *Hub) Join(ctx context.Context, connID string, partyID uuid.UUID, userID string) (<-chan partydomain.Envelope, func(), error) {
	if connID == "" {
		connID = uuid.NewString()
	}
	c := &conn{
		id:      connID,
		partyID: partyID,
		userID:  userID,
		topics:  []string{partydomain.PartyTopic(partyID), partydomain.UserTopic(partyID, userID)},
		ch:      make(chan partydomain.Envelope, h.buffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, nil, ErrHubClosed
	}
	if _, dup := h.conns[connID]; dup {
		h.mu.Unlock()
		return nil, nil, fmt.Errorf("connection %s already joined", connID)
	}
	for i, topic := range c.topics {
		if err := h.attachLocked(topic, c); err != nil {
			for _, joined := range c.topics[:i] {
				h.detachLocked(joined, c)
			}
			h.mu.Unlock()
			return nil, nil, err
		}
	}
	h.conns[connID] = c
	count := len(h.conns)
	h.mu.Unlock()

	h.metrics.SetRealtimeSubscribers(count)
	h.logger.DebugContext(ctx, "Realtime connection joined",
		attr.String("conn_id", connID),
		attr.String("party_id", partyID.String()),
		attr.String("user_id", userID),
	)

	var once sync.Once
	leave := func() { once.Do(func() { h.leave(c) }) }

	go func() {
		<-ctx.Done()
		leave()
	}()

	return c.ch, leave, nil
}

// attachLocked adds c to topic, subscribing on first use.
func (h *Hub) attachLocked(topic string, c *conn) error {
	group, ok := h.topics[topic]
	if !ok {
		subCtx, cancel := context.WithCancel(context.Background())
		msgs, err := h.subscriber.Subscribe(subCtx, topic)
		if err != nil {
			cancel()
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
		group = &topicGroup{cancel: cancel, conns: make(map[string]*conn)}
		h.topics[topic] = group
		go h.pump(topic, group, msgs)
	}
	group.conns[c.id] = c
	return nil
}

// detachLocked removes c from topic and drops the subscription when it was
// the last listener.
func (h *Hub) detachLocked(topic string, c *conn) {
	group, ok := h.topics[topic]
	if !ok {
		return
	}
	delete(group.conns, c.id)
	if len(group.conns) == 0 {
		group.cancel()
		delete(h.topics, topic)
	}
}

func (h *Hub) leave(c *conn) {
	h.mu.Lock()
	if _, ok := h.conns[c.id]; !ok {
		h.mu.Unlock()
		return
	}
	h.removeLocked(c)
	count := len(h.conns)
	h.mu.Unlock()

	h.metrics.SetRealtimeSubscribers(count)
}

func (h *Hub) removeLocked(c *conn) {
	for _, topic := range c.topics {
		h.detachLocked(topic, c)
	}
	delete(h.conns, c.id)
	close(c.ch)
}

// Evict disconnects every connection userID holds on partyID and returns how
// many were closed. Their leave funcs become no-ops.
func (h *Hub) Evict(partyID uuid.UUID, userID string) int {
	h.mu.Lock()
	evicted := 0
	for _, c := range h.conns {
		if c.partyID == partyID && c.userID == userID {
			h.removeLocked(c)
			evicted++
		}
	}
	count := len(h.conns)
	h.mu.Unlock()

	if evicted > 0 {
		h.metrics.SetRealtimeSubscribers(count)
		h.logger.Debug("Evicted realtime connections",
			attr.String("party_id", partyID.String()),
			attr.String("user_id", userID),
			attr.Int("connections", evicted),
		)
	}
	return evicted
}

// pump decodes messages for one topic until its subscription is cancelled.
func (h *Hub) pump(topic string, group *topicGroup, msgs <-chan *message.Message) {
	for msg := range msgs {
		var env partydomain.Envelope
		err := json.Unmarshal(msg.Payload, &env)
		msg.Ack()
		if err != nil {
			h.logger.Warn("Dropping undecodable realtime message",
				attr.String("topic", topic),
				attr.String("message_uuid", msg.UUID),
				attr.Error(err),
			)
			continue
		}
		h.deliver(msg.Context(), group, env)
	}
}

// deliver never blocks: a full connection queue drops the envelope.
func (h *Hub) deliver(ctx context.Context, group *topicGroup, env partydomain.Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range group.conns {
		select {
		case c.ch <- env:
		default:
			h.metrics.RecordDroppedMessage(ctx)
		}
	}
}

// Subscribers reports the number of joined connections.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Close disconnects every connection and cancels all subscriptions.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for topic, group := range h.topics {
		group.cancel()
		clear(group.conns)
		delete(h.topics, topic)
	}
	for id, c := range h.conns {
		close(c.ch)
		delete(h.conns, id)
	}
	h.metrics.SetRealtimeSubscribers(0)
}
