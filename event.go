package lukchat

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Event is a payload which is not yet a part of any block.
type Event[T Payload] struct {
	ID        uuid.UUID
	Payload   T
	Timestamp time.Time
}

// NewEvent returns a new event with p created at ts.
func NewEvent[T Payload](p T, ts time.Time) (Event[T], error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Event[T]{}, errors.Wrap(err, "can't generate event ID")
	}

	return Event[T]{
		ID:        id,
		Payload:   p,
		Timestamp: ts,
	}, nil
}

// eventPool is an insertion-ordered set of loose events. Events carrying
// payloads with the same encoding are stored once.
type eventPool[T Payload] struct {
	events []Event[T]
	seen   map[uint64]struct{}
}

func newEventPool[T Payload]() *eventPool[T] {
	return &eventPool[T]{
		seen: make(map[uint64]struct{}),
	}
}

func (p *eventPool[T]) add(e Event[T]) (bool, error) {
	id, err := payloadID(e.Payload)
	if err != nil {
		return false, err
	}

	if _, ok := p.seen[id]; ok {
		return false, nil
	}

	p.seen[id] = struct{}{}
	p.events = append(p.events, e)

	return true, nil
}

// remove drops every event carrying payload equal to pl.
func (p *eventPool[T]) remove(pl T) int {
	var (
		n    int
		kept = p.events[:0]
	)

	for _, e := range p.events {
		if e.Payload == pl {
			n++
			continue
		}
		kept = append(kept, e)
	}

	if n != 0 {
		if id, err := payloadID(pl); err == nil {
			delete(p.seen, id)
		}
	}

	// Do not keep references to removed events in the tail of the array.
	clear(p.events[len(kept):])
	p.events = kept

	return n
}

func (p *eventPool[T]) list() []Event[T] {
	res := make([]Event[T], len(p.events))
	copy(res, p.events)

	return res
}

func (p *eventPool[T]) drain() []Event[T] {
	res := p.events
	p.events = nil
	p.seen = make(map[uint64]struct{})

	return res
}

func (p *eventPool[T]) len() int {
	return len(p.events)
}

func payloadID[T Payload](pl T) (uint64, error) {
	data, err := pl.MarshalBinary()
	if err != nil {
		return 0, errors.Wrap(err, "can't marshal payload")
	}

	return fetchID(data), nil
}
