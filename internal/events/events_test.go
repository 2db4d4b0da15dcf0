package events

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonlight-mod/moonlight-installer/internal/moonerr"
)

func TestBusDeliversInOrderToAllSubscribers(t *testing.T) {
	bus := NewBus()
	var got []string
	bus.Subscribe(func(ev Event) { got = append(got, "a:"+string(ev.Kind)) })
	bus.Subscribe(func(ev Event) { got = append(got, "b:"+string(ev.Kind)) })

	bus.Emit(Patching("Stable"))

	assert.Equal(t, []string{"a:patching_install", "b:patching_install"}, got)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()
	count := 0
	cancel := bus.Subscribe(func(Event) { count++ })
	bus.Emit(InstalledVersionChanged("v1.0.0"))
	cancel()
	bus.Emit(InstalledVersionChanged("v1.0.1"))

	assert.Equal(t, 1, count)
}

func TestBusSubscriberMayEmit(t *testing.T) {
	bus := NewBus()
	rec := &Recorder{}
	bus.Subscribe(rec.Emit)
	bus.Subscribe(func(ev Event) {
		if ev.Kind == KindPatchingInstall {
			bus.Emit(Error(moonerr.New(moonerr.CodeUnknown, "nested")))
		}
	})

	bus.Emit(Patching("Canary"))

	evs := rec.Events()
	require.Len(t, evs, 2)
	assert.Equal(t, KindError, evs[1].Kind)
}

func TestConstructors(t *testing.T) {
	assert.Equal(t, Event{Kind: KindUnpatchingInstall, Channel: "PTB"}, Unpatching("PTB"))
	assert.Equal(t, Event{Kind: KindInstalledVersionChanged}, InstalledVersionChanged(""))
	err := moonerr.New(moonerr.CodeWindowsFileLock, "locked")
	assert.Same(t, err, Error(err).Error)
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := LogSink{Logger: zerolog.New(&buf)}

	sink.Emit(Error(moonerr.New(moonerr.CodeWindowsFileLock, "locked")))
	sink.Emit(Patching("Stable"))
	sink.Emit(InstalledVersionChanged("abc1234"))
	Discard.Emit(Patching("Stable"))

	out := buf.String()
	assert.Contains(t, out, `"code":"WindowsFileLock"`)
	assert.Contains(t, out, `"channel":"Stable"`)
	assert.Contains(t, out, `"version":"abc1234"`)
}
