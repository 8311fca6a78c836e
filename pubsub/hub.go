package pubsub

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/parley-ai/parley/frame"
	"github.com/parley-ai/parley/logging"
)

// ErrClosed is returned by Subscribe variants after the hub shut down.
var ErrClosed = errors.New("pubsub: hub closed")

// Envelope pairs a published frame with the topic it arrived on, so tree
// subscribers can tell persona topics apart.
type Envelope struct {
	Topic string
	Frame frame.Frame
}

// Subscription is one subscriber's receive handle. C is closed when the
// subscription or the hub closes.
type Subscription struct {
	C <-chan Envelope

	hub  *Hub
	id   string
	once sync.Once
}

// Close detaches the subscription from the hub and closes C. Safe to call
// more than once.
func (s *Subscription) Close() {
	s.once.Do(func() { s.hub.unsubscribe(s.id) })
}

// subscriber is the hub-side record of a subscription.
type subscriber struct {
	topic string
	tree  bool
	ch    chan Envelope
}

// Options configures construction of a Hub.
type Options struct {
	// BufferSize is the per-subscriber channel capacity. Frames beyond it
	// are dropped for that subscriber.
	BufferSize int
	Logger     logging.Logger
}

// Hub is an in-process topic fanout. Safe for concurrent use: rounds
// publish while HTTP handlers subscribe and unsubscribe.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*subscriber
	closed bool
	buffer int
	logger logging.Logger
}

// NewHub constructs a hub with a per-subscriber buffer of 64 frames unless
// overridden.
func NewHub(optFns ...func(o *Options)) *Hub {
	opts := Options{BufferSize: 64, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.BufferSize < 1 {
		opts.BufferSize = 1
	}
	return &Hub{
		subs:   make(map[string]*subscriber),
		buffer: opts.BufferSize,
		logger: opts.Logger,
	}
}

// Publish delivers a frame to every subscriber matching the topic. Best
// effort: subscribers with a full buffer miss this frame, and publishing
// to a closed hub is a no-op.
func (h *Hub) Publish(topic string, f frame.Frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	env := Envelope{Topic: topic, Frame: f}
	for id, sub := range h.subs {
		if !sub.matches(topic) {
			continue
		}
		select {
		case sub.ch <- env:
		default:
			h.logger.Debug("pubsub.drop_frame topic=%s subscriber=%s", topic, id)
		}
	}
}

// Subscribe attaches a subscriber to one exact topic.
func (h *Hub) Subscribe(topic string) (*Subscription, error) {
	return h.add(topic, false)
}

// SubscribeTree attaches a subscriber to a whole topic subtree: the base
// itself plus every topic under "<base>/".
func (h *Hub) SubscribeTree(base string) (*Subscription, error) {
	return h.add(base, true)
}

func (h *Hub) add(topic string, tree bool) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	id := uuid.NewString()
	sub := &subscriber{topic: topic, tree: tree, ch: make(chan Envelope, h.buffer)}
	h.subs[id] = sub
	return &Subscription{C: sub.ch, hub: h, id: id}, nil
}

func (h *Hub) unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sub, ok := h.subs[id]
	if !ok {
		return
	}
	delete(h.subs, id)
	close(sub.ch)
}

// Subscribers reports the number of attached subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close terminates every subscription and rejects future subscribers.
// Idempotent.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.ch)
	}
}

// matches reports whether a subscriber should receive a frame on topic.
func (s *subscriber) matches(topic string) bool {
	if s.topic == topic {
		return true
	}
	return s.tree && strings.HasPrefix(topic, s.topic+"/")
}
