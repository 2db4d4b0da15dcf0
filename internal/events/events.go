// Package events carries backend notifications to whichever surface is
// driving the installer.
package events

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/moonlight-mod/moonlight-installer/internal/moonerr"
)

// Kind names an event on the backend to UI boundary.
type Kind string

// Event kinds.
const (
	KindError                   Kind = "error"
	KindPatchingInstall         Kind = "patching_install"
	KindUnpatchingInstall       Kind = "unpatching_install"
	KindInstalledVersionChanged Kind = "installed_version_changed"
)

// Event is a single notification. Only the fields relevant to Kind are set.
type Event struct {
	Kind    Kind           `json:"kind"`
	Error   *moonerr.Error `json:"error,omitempty"`
	Channel string         `json:"channel,omitempty"`
	// Version is the new installed payload version; empty means absent.
	Version string `json:"version,omitempty"`
}

// Error builds an error event.
func Error(err *moonerr.Error) Event {
	return Event{Kind: KindError, Error: err}
}

// Patching builds a patching_install event for channel.
func Patching(channel string) Event {
	return Event{Kind: KindPatchingInstall, Channel: channel}
}

// Unpatching builds an unpatching_install event for channel.
func Unpatching(channel string) Event {
	return Event{Kind: KindUnpatchingInstall, Channel: channel}
}

// InstalledVersionChanged builds an installed_version_changed event.
func InstalledVersionChanged(version string) Event {
	return Event{Kind: KindInstalledVersionChanged, Version: version}
}

// Sink receives events. Emit must not block on the emitter's locks.
type Sink interface {
	Emit(Event)
}

// Discard drops every event.
var Discard Sink = discard{}

type discard struct{}

func (discard) Emit(Event) {}

// Bus delivers each event synchronously to every subscriber, in subscription
// order. Delivery is at-least-once from the subscriber's point of view; the
// emitter never inspects the outcome.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Event)
	order  []int
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Event))}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.order = append(b.order, id)
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
		for i, v := range b.order {
			if v == id {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}
}

// Emit delivers ev to all current subscribers.
func (b *Bus) Emit(ev Event) {
	b.mu.RLock()
	handlers := make([]func(Event), 0, len(b.order))
	for _, id := range b.order {
		handlers = append(handlers, b.subs[id])
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

// Recorder collects events, mainly for tests and request-scoped surfaces.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit appends ev.
func (r *Recorder) Emit(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// LogSink mirrors events into a zerolog logger.
type LogSink struct {
	Logger zerolog.Logger
}

// Emit logs ev at a level matching its kind.
func (s LogSink) Emit(ev Event) {
	switch ev.Kind {
	case KindError:
		entry := s.Logger.Error().Str("event", string(ev.Kind))
		if ev.Error != nil {
			entry = entry.Str("code", string(ev.Error.Code)).Str("detail", ev.Error.Message)
		}
		entry.Msg("backend error")
	case KindInstalledVersionChanged:
		s.Logger.Info().Str("event", string(ev.Kind)).Str("version", ev.Version).Msg("installed payload version changed")
	default:
		s.Logger.Info().Str("event", string(ev.Kind)).Str("channel", ev.Channel).Msg("install operation started")
	}
}
