// Package injector wires a host archive to the moonlight payload. The payload
// is reached through the Injector capability so the patch workflow never
// depends on how a particular payload version performs the injection.
package injector

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/moonlight-mod/moonlight-installer/internal/logging"
	"github.com/moonlight-mod/moonlight-installer/internal/messages"
	"github.com/moonlight-mod/moonlight-installer/internal/paths"
)

// Injector performs the injection into a host archive.
type Injector interface {
	Inject(ctx context.Context, archivePath string) error
}

// Loader turns a resolved entry point into an Injector.
type Loader interface {
	Load(location string) (Injector, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(location string) (Injector, error)

// Load calls f.
func (f LoaderFunc) Load(location string) (Injector, error) {
	return f(location)
}

// Bootstrap resolves the injector entry point, loads it and runs exactly one
// injection into archivePath. Resolution happens on every call so a freshly
// downloaded payload is used without restarting.
func Bootstrap(ctx context.Context, sys System, loader Loader, archivePath string, override string) error {
	if sys == nil {
		return errors.New(messages.InjectorSystemRequired)
	}
	if loader == nil {
		return errors.New(messages.InjectorLoaderRequired)
	}
	loc, err := paths.ResolveInjector(sys, override)
	if err != nil {
		return err
	}

	log := logging.GetLogger("injector")

	log.Info().
		Str("injector", loc.Path).
		Str("source", string(loc.Source)).
		Str("archive", archivePath).
		Msg(messages.InjectorBootstrapLog)

	inj, err := loader.Load(loc.Path)
	if err != nil {
		return fmt.Errorf(messages.InjectorLoadFmt, loc.Path, err)
	}
	if err := inj.Inject(ctx, archivePath); err != nil {
		return fmt.Errorf(messages.InjectorInjectFmt, loc.Path, err)
	}
	return nil
}

// DefaultLoader picks the injection strategy from the entry point: JavaScript
// entry points are loaded by the host through a shim, anything else is
// treated as an executable implementing `<injector> inject <archive>`.
type DefaultLoader struct {
	Sys System
}

// Load implements Loader.
func (l DefaultLoader) Load(location string) (Injector, error) {
	if strings.TrimSpace(location) == "" {
		return nil, errors.New(messages.InjectorLocationRequired)
	}
	sys := l.Sys
	if sys == nil {
		sys = RealSystem{}
	}
	if strings.EqualFold(filepath.Ext(location), ".js") {
		return &ShimInjector{Sys: sys, EntryPoint: location}, nil
	}
	return &ExecInjector{Path: location}, nil
}

var execCommandContext = exec.CommandContext

// ExecInjector runs an external injector binary.
type ExecInjector struct {
	Path string
}

// Inject runs `<Path> inject <archivePath>` and reports its combined output on failure.
func (e *ExecInjector) Inject(ctx context.Context, archivePath string) error {
	cmd := execCommandContext(ctx, e.Path, "inject", archivePath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf(messages.InjectorExecFmt, e.Path, strings.TrimSpace(string(out)), err)
	}
	return nil
}
