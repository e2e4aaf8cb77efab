// Package feed turns the Redis change stream into live snapshot
// subscriptions. Every observed change re-lists the subject's history and
// pushes the fresh snapshot to that subject's subscribers; consumers never
// poll.
package feed

import (
	"context"
	"log/slog"
	"time"

	"medrisk.app/console/common/logger"
	"medrisk.app/console/internal/model"
	"medrisk.app/console/internal/queue"
)

// subscriberBuffer bounds each subscriber channel. A slow consumer loses
// intermediate snapshots, never the latest one.
const subscriberBuffer = 8

// Lister is the snapshot source, satisfied by the history store.
type Lister interface {
	ListBySubject(ctx context.Context, subjectID string) (model.HistorySnapshot, error)
}

// Consumer is the change source, satisfied by the queue's Redis consumer.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
}

// Subscription is one live snapshot stream. The first value is the current
// snapshot at subscribe time; each further value reflects one observed
// change. Snapshots is closed without delivering anything when that first
// read fails. Close releases the subscription.
type Subscription struct {
	Snapshots <-chan model.HistorySnapshot
	cancel    func()
}

func (s *Subscription) Close() {
	s.cancel()
}

type subscriber struct {
	subjectID string
	ch        chan model.HistorySnapshot
}

type subscribeCmd struct{ sub *subscriber }

type unsubscribeCmd struct{ sub *subscriber }

// Hub owns the subscriber table. A single event loop serializes
// subscription changes and snapshot computation, so at most one snapshot is
// being computed/delivered at a time and deliveries follow the order
// changes were observed. No ordering is promised between appends from
// different submissions; the stream decides who was observed first.
type Hub struct {
	lister   Lister
	consumer Consumer
	events   chan any
	stopped  chan struct{}
}

func NewHub(lister Lister, consumer Consumer) *Hub {
	return &Hub{
		lister:   lister,
		consumer: consumer,
		events:   make(chan any),
		stopped:  make(chan struct{}),
	}
}

// Run processes subscriptions and change messages until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "console.feed.hub"})
	defer close(h.stopped)

	go h.pump(ctx)

	subscribers := make(map[string]map[*subscriber]struct{})

	for {
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case ev := <-h.events:
			switch e := ev.(type) {
			case subscribeCmd:
				// Initial snapshot, promptly after subscribe. If it cannot
				// be read the subscription ends immediately instead of
				// sitting open with no first event; the caller retries.
				snapshot, ok := h.list(ctx, e.sub.subjectID)
				if !ok {
					close(e.sub.ch)
					continue
				}
				subs := subscribers[e.sub.subjectID]
				if subs == nil {
					subs = make(map[*subscriber]struct{})
					subscribers[e.sub.subjectID] = subs
				}
				subs[e.sub] = struct{}{}
				deliver(e.sub, snapshot)
			case unsubscribeCmd:
				if subs, ok := subscribers[e.sub.subjectID]; ok {
					delete(subs, e.sub)
					if len(subs) == 0 {
						delete(subscribers, e.sub.subjectID)
					}
				}
			case queue.Message:
				h.handleChange(ctx, e, subscribers[e.Change.SubjectID])
			}
		}
	}
}

// pump moves consumer reads onto the hub loop.
func (h *Hub) pump(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		msgs, err := h.consumer.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.ErrorContext(ctx, "reading change stream failed", "error", err)
			time.Sleep(time.Second)
			continue
		}
		for _, msg := range msgs {
			select {
			case h.events <- msg:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (h *Hub) handleChange(ctx context.Context, msg queue.Message, subs map[*subscriber]struct{}) {
	traceID := ""
	if msg.Change.TraceID != nil {
		traceID = *msg.Change.TraceID
	}
	sc := logger.StartSpanFromTraceID(ctx, traceID, "feed.handle_change")
	defer sc.End()
	ctx = logger.WithLogFields(sc.Context(), logger.LogFields{
		SubjectID: logger.Ptr(msg.Change.SubjectID),
		EntryID:   msg.Change.EntryID,
	})

	if len(subs) > 0 {
		if snapshot, ok := h.list(ctx, msg.Change.SubjectID); ok {
			for sub := range subs {
				deliver(sub, snapshot)
			}
			slog.DebugContext(ctx, "snapshot delivered",
				"kind", msg.Change.Kind,
				"entries", len(snapshot),
				"subscribers", len(subs))
		}
	}

	if err := h.consumer.Ack(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "acking change message failed", "error", err)
	}
}

func (h *Hub) list(ctx context.Context, subjectID string) (model.HistorySnapshot, bool) {
	snapshot, err := h.lister.ListBySubject(ctx, subjectID)
	if err != nil {
		slog.ErrorContext(ctx, "listing snapshot failed", "error", err,
			"subject_id", subjectID)
		return nil, false
	}
	return snapshot, true
}

// deliver never blocks the hub loop. When the subscriber's buffer is full
// the oldest pending snapshot is dropped so the newest one gets through.
func deliver(sub *subscriber, snapshot model.HistorySnapshot) {
	select {
	case sub.ch <- snapshot:
	default:
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- snapshot:
		default:
		}
	}
}

// Subscribe registers a listener for one subject's history. The current
// snapshot is delivered first, then one snapshot per observed change.
func (h *Hub) Subscribe(ctx context.Context, subjectID string) (*Subscription, error) {
	sub := &subscriber{
		subjectID: subjectID,
		ch:        make(chan model.HistorySnapshot, subscriberBuffer),
	}

	select {
	case h.events <- subscribeCmd{sub: sub}:
	case <-h.stopped:
		return nil, context.Canceled
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return &Subscription{
		Snapshots: sub.ch,
		cancel: func() {
			select {
			case h.events <- unsubscribeCmd{sub: sub}:
			case <-h.stopped:
			}
		},
	}, nil
}
