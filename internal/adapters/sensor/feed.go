package sensor

import (
	"context"
	"errors"
	"home-compass-service/internal/domain"
	"sync"
)

var ErrAlreadySubscribed = errors.New("sensor: already subscribed")

const feedBuffer = 32

// feed is the subscribe/unsubscribe plumbing shared by the sensors in this package.
// The event channel is closed exactly once, by Unsubscribe or when the subscribing
// context ends, whichever comes first.
type feed struct {
	kind domain.SensorKind

	mu   sync.Mutex
	ch   chan domain.SensorEvent
	stop context.CancelFunc
}

func (f *feed) Kind() domain.SensorKind { return f.kind }

func (f *feed) subscribe(ctx context.Context) (<-chan domain.SensorEvent, context.Context, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ch != nil {
		return nil, nil, ErrAlreadySubscribed
	}

	subCtx, cancel := context.WithCancel(ctx)
	ch := make(chan domain.SensorEvent, feedBuffer)
	f.ch, f.stop = ch, cancel

	go func() {
		<-subCtx.Done()
		f.closeIfCurrent(ch)
	}()

	return ch, subCtx, nil
}

func (f *feed) Unsubscribe() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ch == nil {
		return nil
	}
	f.stop()
	close(f.ch)
	f.ch, f.stop = nil, nil
	return nil
}

func (f *feed) closeIfCurrent(ch chan domain.SensorEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ch != ch {
		return
	}
	f.stop()
	close(ch)
	f.ch, f.stop = nil, nil
}

// push delivers ev to the current subscriber. It never blocks: events are dropped
// when nobody listens or the subscriber is behind.
func (f *feed) push(ev domain.SensorEvent) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ch == nil {
		return false
	}
	select {
	case f.ch <- ev:
		return true
	default:
		return false
	}
}

// Subscribed reports whether a subscriber is attached.
func (f *feed) Subscribed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ch != nil
}
