// Package patch serializes patch and unpatch transitions per installation and
// turns mutation failures into classified error events.
package patch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/moonlight-mod/moonlight-installer/internal/events"
	"github.com/moonlight-mod/moonlight-installer/internal/install"
	"github.com/moonlight-mod/moonlight-installer/internal/logging"
	"github.com/moonlight-mod/moonlight-installer/internal/messages"
	"github.com/moonlight-mod/moonlight-installer/internal/moonerr"
	"github.com/moonlight-mod/moonlight-installer/internal/paths"
	"github.com/moonlight-mod/moonlight-installer/internal/payload"
)

// Rejections. None of them touches the installation.
var (
	ErrBusy        = errors.New(messages.PatchBusy)
	ErrNoPayload   = errors.New(messages.PatchNoPayload)
	ErrPayloadBusy = errors.New(messages.PatchPayloadBusy)
)

// State is the on-disk patch state of an installation. It is always derived,
// never stored.
type State string

// Patch states.
const (
	StateUnknown   State = "unknown"
	StateUnpatched State = "unpatched"
	StatePatched   State = "patched"
)

// Patcher performs the file mutations.
type Patcher interface {
	Patch(ctx context.Context, inst install.Installation, override string) error
	Unpatch(ctx context.Context, inst install.Installation) error
	IsPatched(inst install.Installation) (bool, error)
}

// Gate exposes the payload state a patch depends on.
type Gate interface {
	InstalledVersion() string
	Guard() *payload.Guard
}

// Result describes one transition. Err carries a mutation failure; the call
// itself still succeeds so the caller can render both states.
type Result struct {
	Install install.Installation `json:"install"`
	Before  State                `json:"before"`
	After   State                `json:"after"`
	Changed bool                 `json:"changed"`
	Err     *moonerr.Error       `json:"error,omitempty"`
}

// Manager owns the per-installation lock table.
type Manager struct {
	patcher Patcher
	gate    Gate
	events  events.Sink

	mu       sync.Mutex
	inflight map[install.Key]struct{}
}

// NewManager returns a Manager. A nil sink discards events.
func NewManager(patcher Patcher, gate Gate, sink events.Sink) *Manager {
	if sink == nil {
		sink = events.Discard
	}
	return &Manager{
		patcher:  patcher,
		gate:     gate,
		events:   sink,
		inflight: make(map[install.Key]struct{}),
	}
}

// CanPatch reports whether a payload is installed. UIs disable patching when
// it is false.
func (m *Manager) CanPatch() bool {
	return m.gate != nil && m.gate.InstalledVersion() != ""
}

// Busy reports whether a transition on inst is in flight.
func (m *Manager) Busy(inst install.Installation) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.inflight[inst.Key()]
	return ok
}

// State inspects the installation. Probe failures read as unknown.
func (m *Manager) State(inst install.Installation) State {
	patched, err := m.patcher.IsPatched(inst)
	switch {
	case err != nil:
		return StateUnknown
	case patched:
		return StatePatched
	default:
		return StateUnpatched
	}
}

// Patch moves inst to the patched state.
func (m *Manager) Patch(ctx context.Context, inst install.Installation, override string) (Result, error) {
	return m.transition(ctx, inst, override, func(State) State { return StatePatched })
}

// Unpatch moves inst to the unpatched state.
func (m *Manager) Unpatch(ctx context.Context, inst install.Installation) (Result, error) {
	return m.transition(ctx, inst, "", func(State) State { return StateUnpatched })
}

// Toggle flips inst. An unknown state is treated as unpatched.
func (m *Manager) Toggle(ctx context.Context, inst install.Installation, override string) (Result, error) {
	return m.transition(ctx, inst, override, func(s State) State {
		if s == StatePatched {
			return StateUnpatched
		}
		return StatePatched
	})
}

func (m *Manager) transition(ctx context.Context, inst install.Installation, override string, target func(State) State) (Result, error) {
	if !m.acquire(inst.Key()) {
		return Result{}, ErrBusy
	}
	defer m.release(inst.Key())

	before := m.State(inst)
	want := target(before)
	res := Result{Install: inst, Before: before, After: before}
	if before == want {
		return res, nil
	}

	if want == StatePatched {
		if !m.CanPatch() {
			return res, ErrNoPayload
		}
		guard := m.gate.Guard()
		if !guard.TryRLock() {
			return res, ErrPayloadBusy
		}
		defer guard.RUnlock()
	}

	log := logging.GetLogger("patch")
	var err error
	if want == StatePatched {
		m.events.Emit(events.Patching(string(inst.Channel)))
		err = m.patcher.Patch(ctx, inst, override)
	} else {
		m.events.Emit(events.Unpatching(string(inst.Channel)))
		err = m.patcher.Unpatch(ctx, inst)
	}

	res.After = m.State(inst)
	res.Changed = res.After != before

	if err != nil {
		if errors.Is(err, paths.ErrPayloadMissing) {
			return res, fmt.Errorf("%w: %w", ErrNoPayload, err)
		}
		res.Err = moonerr.Classify(err)
		m.events.Emit(events.Error(res.Err))
		log.Error().Err(err).
			Str("channel", string(inst.Channel)).
			Str("code", string(res.Err.Code)).
			Str("state", string(res.After)).
			Msg(messages.PatchTransitionFailedLog)
		return res, nil
	}
	log.Info().Str("channel", string(inst.Channel)).Str("from", string(before)).Str("to", string(res.After)).Msg(messages.PatchTransitionLog)
	return res, nil
}

func (m *Manager) acquire(key install.Key) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.inflight[key]; ok {
		return false
	}
	m.inflight[key] = struct{}{}
	return true
}

func (m *Manager) release(key install.Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inflight, key)
}
