package testutil

import (
	"sync"

	"github.com/parley-ai/parley/frame"
)

// Published is one recorded publish call.
type Published struct {
	Topic string
	Frame frame.Frame
}

// RecordingPublisher is an engine.Publisher test double that captures every
// frame in publish order.
type RecordingPublisher struct {
	mu     sync.Mutex
	frames []Published
}

// NewRecordingPublisher constructs an empty RecordingPublisher.
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

// Publish records the frame.
func (p *RecordingPublisher) Publish(topic string, f frame.Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = append(p.frames, Published{Topic: topic, Frame: f})
}

// All returns a copy of every recorded publish, in order.
func (p *RecordingPublisher) All() []Published {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Published, len(p.frames))
	copy(out, p.frames)
	return out
}

// Topic returns the frames published to one topic, in order.
func (p *RecordingPublisher) Topic(topic string) []frame.Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []frame.Frame
	for _, rec := range p.frames {
		if rec.Topic == topic {
			out = append(out, rec.Frame)
		}
	}
	return out
}

// Kinds returns just the frame kinds published to one topic, in order.
// Handy for asserting lifecycle sequences.
func (p *RecordingPublisher) Kinds(topic string) []frame.Kind {
	var out []frame.Kind
	for _, f := range p.Topic(topic) {
		out = append(out, f.Type)
	}
	return out
}

// Last returns the final recorded publish.
func (p *RecordingPublisher) Last() (Published, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.frames) == 0 {
		return Published{}, false
	}
	return p.frames[len(p.frames)-1], true
}

// Len reports the total number of recorded publishes.
func (p *RecordingPublisher) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frames)
}
