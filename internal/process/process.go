// Package process stops running host processes so locked archives can be
// replaced.
package process

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/multierr"

	"github.com/moonlight-mod/moonlight-installer/internal/install"
	"github.com/moonlight-mod/moonlight-installer/internal/logging"
	"github.com/moonlight-mod/moonlight-installer/internal/messages"
)

// Process is the subset of a gopsutil process used here.
type Process interface {
	NameWithContext(ctx context.Context) (string, error)
	KillWithContext(ctx context.Context) error
}

var listProcesses = func(ctx context.Context) ([]Process, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Process, 0, len(procs))
	for _, p := range procs {
		out = append(out, p)
	}
	return out, nil
}

// Names returns the executable names the channel runs under on any platform.
func Names(channel install.Channel) []string {
	names := []string{channel.DirName()}
	if bundle := channel.BundleName(); bundle != channel.DirName() {
		names = append(names, bundle)
	}
	return names
}

// KillDiscord kills every process of the given channel, or of all channels
// when channel is nil, and returns how many were killed. Processes that
// vanish or cannot be inspected are skipped.
func KillDiscord(ctx context.Context, channel *install.Channel) (int, error) {
	channels := install.Channels
	if channel != nil {
		channels = []install.Channel{*channel}
	}
	wanted := make(map[string]struct{})
	for _, c := range channels {
		for _, name := range Names(c) {
			wanted[strings.ToLower(name)] = struct{}{}
		}
	}

	procs, err := listProcesses(ctx)
	if err != nil {
		return 0, err
	}

	log := logging.GetLogger("process")
	killed := 0
	var errs error
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if _, ok := wanted[strings.ToLower(strings.TrimSuffix(name, ".exe"))]; !ok {
			continue
		}
		if err := p.KillWithContext(ctx); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		killed++
		log.Debug().Str("name", name).Msg(messages.ProcessKilledLog)
	}
	return killed, errs
}
