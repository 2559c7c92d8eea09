package partyservice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Black-And-White-Club/frolf-bot-shared/observability/attr"
	partydomain "github.com/Black-And-White-Club/hunting-party/app/modules/party/domain"
	"github.com/Black-And-White-Club/hunting-party/app/observability"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// EventNameMetadataKey carries the realtime event name on watermill messages.
const EventNameMetadataKey = "event_name"

// Broadcaster publishes realtime envelopes off the request path. Every
// failure is logged and counted, never returned to the mutation.
type Broadcaster struct {
	publisher message.Publisher
	logger    *slog.Logger
	metrics   observability.RealtimeMetrics
	timeout   time.Duration
	now       func() time.Time
	wg        sync.WaitGroup

	mu    sync.Mutex
	lanes map[string][]queuedJob
}

type queuedJob struct {
	label string
	job   func(ctx context.Context) error
}

// NewBroadcaster creates a Broadcaster. timeout bounds each background job.
func NewBroadcaster(publisher message.Publisher, logger *slog.Logger, metrics observability.RealtimeMetrics, timeout time.Duration) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoOpMetrics{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Broadcaster{
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		timeout:   timeout,
		now:       func() time.Time { return time.Now().UTC() },
		lanes:     make(map[string][]queuedJob),
	}
}

// Go runs job on its own goroutine with a fresh bounded context, detached
// from the caller's request.
func (b *Broadcaster) Go(label string, job func(ctx context.Context) error) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.run(label, job)
	}()
}

// GoOrdered runs job once every job queued earlier under the same key has
// finished. Jobs under different keys still run concurrently.
func (b *Broadcaster) GoOrdered(key, label string, job func(ctx context.Context) error) {
	b.wg.Add(1)
	next := queuedJob{label: label, job: job}

	b.mu.Lock()
	if queue, busy := b.lanes[key]; busy {
		b.lanes[key] = append(queue, next)
		b.mu.Unlock()
		return
	}
	b.lanes[key] = nil
	b.mu.Unlock()

	go b.drain(key, next)
}

// drain runs the lane for key until its queue is empty.
func (b *Broadcaster) drain(key string, next queuedJob) {
	for {
		b.run(next.label, next.job)
		b.wg.Done()

		b.mu.Lock()
		queue := b.lanes[key]
		if len(queue) == 0 {
			delete(b.lanes, key)
			b.mu.Unlock()
			return
		}
		next = queue[0]
		b.lanes[key] = queue[1:]
		b.mu.Unlock()
	}
}

func (b *Broadcaster) run(label string, job func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Panic in broadcast job", attr.String("job", label), attr.Any("panic", r))
			b.metrics.RecordBroadcastFailure(ctx, label)
		}
	}()

	// Publish failures are already counted per event.
	if err := job(ctx); err != nil {
		b.logger.WarnContext(ctx, "Broadcast job failed", attr.String("job", label), attr.Error(err))
	}
}

// detached returns a bounded context that outlives the caller's request.
func (b *Broadcaster) detached() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), b.timeout)
}

// Wait blocks until every scheduled job has finished.
func (b *Broadcaster) Wait() {
	b.wg.Wait()
}

// Publish sends one envelope to topic. Failures are counted and returned so
// the caller can keep publishing the rest of a batch.
func (b *Broadcaster) Publish(ctx context.Context, topic, event string, partyID uuid.UUID, userID string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		b.metrics.RecordBroadcastFailure(ctx, event)
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}
	env := partydomain.Envelope{
		Event:   event,
		PartyID: partyID,
		UserID:  userID,
		Payload: raw,
		SentAt:  b.now(),
	}
	body, err := json.Marshal(env)
	if err != nil {
		b.metrics.RecordBroadcastFailure(ctx, event)
		return fmt.Errorf("marshal %s envelope: %w", event, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), body)
	msg.Metadata.Set(EventNameMetadataKey, event)
	msg.SetContext(ctx)
	if err := b.publisher.Publish(topic, msg); err != nil {
		b.metrics.RecordBroadcastFailure(ctx, event)
		return fmt.Errorf("publish %s to %s: %w", event, topic, err)
	}
	return nil
}
