package pubsub

import (
	"sync"
	"testing"

	"github.com/parley-ai/parley/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_SubscribeExactTopic(t *testing.T) {
	h := NewHub()
	defer h.Close()

	sub, err := h.Subscribe("round/1/gandalf")
	require.NoError(t, err)

	h.Publish("round/1/gandalf", frame.NewStart("gandalf"))
	h.Publish("round/1/terminator", frame.NewStart("terminator"))

	require.Len(t, sub.C, 1, "only the subscribed topic is delivered")
	env := <-sub.C
	assert.Equal(t, "round/1/gandalf", env.Topic)
	assert.Equal(t, frame.KindStart, env.Frame.Type)
}

func TestHub_SubscribeTree(t *testing.T) {
	h := NewHub()
	defer h.Close()

	sub, err := h.SubscribeTree("round/1")
	require.NoError(t, err)

	h.Publish("round/1/gandalf", frame.NewText("gandalf", "hi"))
	h.Publish("round/1/done", frame.NewAllComplete())
	h.Publish("round/1", frame.NewStart("x"))
	h.Publish("round/10/gandalf", frame.NewStart("gandalf"))
	h.Publish("other/1/gandalf", frame.NewStart("gandalf"))

	assert.Len(t, sub.C, 3, "tree match covers the base and its children, not lookalike prefixes")
}

func TestHub_SlowSubscriberDropsFrames(t *testing.T) {
	h := NewHub(func(o *Options) { o.BufferSize = 1 })
	defer h.Close()

	sub, err := h.Subscribe("t")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		h.Publish("t", frame.NewText("p", "chunk"))
	}

	assert.Len(t, sub.C, 1, "frames beyond the buffer are dropped, not blocked on")
}

func TestHub_SubscriptionClose(t *testing.T) {
	h := NewHub()
	defer h.Close()

	sub, err := h.Subscribe("t")
	require.NoError(t, err)
	assert.Equal(t, 1, h.Subscribers())

	sub.Close()
	sub.Close() // idempotent
	assert.Equal(t, 0, h.Subscribers())

	_, open := <-sub.C
	assert.False(t, open, "channel closes with the subscription")

	// Publishing after the subscriber left must not panic.
	h.Publish("t", frame.NewStart("p"))
}

func TestHub_Close(t *testing.T) {
	h := NewHub()
	a, err := h.Subscribe("t")
	require.NoError(t, err)
	b, err := h.SubscribeTree("base")
	require.NoError(t, err)

	h.Close()
	h.Close() // idempotent

	_, openA := <-a.C
	_, openB := <-b.C
	assert.False(t, openA)
	assert.False(t, openB)

	_, err = h.Subscribe("t")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = h.SubscribeTree("t")
	assert.ErrorIs(t, err, ErrClosed)

	h.Publish("t", frame.NewStart("p")) // no-op, no panic

	// Closing a subscription after hub shutdown is harmless.
	a.Close()
}

func TestHub_ConcurrentPublish(t *testing.T) {
	h := NewHub(func(o *Options) { o.BufferSize = 256 })
	defer h.Close()

	sub, err := h.SubscribeTree("round")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < 2; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				h.Publish("round/p", frame.NewText("p", "x"))
			}
		}()
	}
	wg.Wait()

	assert.Len(t, sub.C, 100)
}
