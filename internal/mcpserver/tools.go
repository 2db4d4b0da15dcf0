package mcpserver

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/moonlight-mod/moonlight-installer/internal/backend"
	"github.com/moonlight-mod/moonlight-installer/internal/install"
	"github.com/moonlight-mod/moonlight-installer/internal/payload"
)

type handlers struct {
	cmds Commands
}

type noInput struct{}

// TargetInput selects installations by channel name or path.
type TargetInput struct {
	Target string `json:"target,omitempty" jsonschema:"channel name (stable, ptb, canary, development) or installation path; empty selects every installation"`
}

// PatchInput selects installations and an optional injector override.
type PatchInput struct {
	Target    string `json:"target,omitempty" jsonschema:"channel name or installation path; empty selects every installation"`
	Moonlight string `json:"moonlight,omitempty" jsonschema:"path to a local moonlight checkout or injector.js to inject instead of the download"`
}

// BranchInput names a payload branch. Empty means the selected branch.
type BranchInput struct {
	Branch string `json:"branch,omitempty" jsonschema:"stable or nightly"`
}

// ChannelInput names a host channel.
type ChannelInput struct {
	Channel string `json:"channel,omitempty" jsonschema:"stable, ptb, canary or development"`
}

// InstallsOutput lists installations.
type InstallsOutput struct {
	Installs []install.Info `json:"installs"`
}

// PatchStateOutput reports the patch state per installation path.
type PatchStateOutput struct {
	Patched map[string]bool `json:"patched"`
}

// ChangedOutput lists the installation paths a command acted on.
type ChangedOutput struct {
	Paths []string `json:"paths"`
}

// BranchOutput describes a payload branch.
type BranchOutput struct {
	Branch      payload.Branch `json:"branch"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
}

// VersionOutput is an optional payload version.
type VersionOutput struct {
	Version string `json:"version,omitempty"`
	Present bool   `json:"present"`
}

// ResetOutput reports where a config was backed up.
type ResetOutput struct {
	Backup string `json:"backup,omitempty"`
}

// Empty is returned by commands without a payload.
type Empty struct{}

func (h handlers) detectInstalls(ctx context.Context, _ *mcp.CallToolRequest, _ noInput) (*mcp.CallToolResult, InstallsOutput, error) {
	infos, err := h.cmds.GetInstalls(ctx)
	if err != nil {
		return nil, InstallsOutput{}, err
	}
	if infos == nil {
		infos = []install.Info{}
	}
	return nil, InstallsOutput{Installs: infos}, nil
}

func (h handlers) isInstallPatched(ctx context.Context, _ *mcp.CallToolRequest, in TargetInput) (*mcp.CallToolResult, PatchStateOutput, error) {
	installs, err := h.cmds.ResolveTarget(ctx, in.Target)
	if err != nil {
		return nil, PatchStateOutput{}, err
	}
	out := PatchStateOutput{Patched: make(map[string]bool, len(installs))}
	for _, inst := range installs {
		patched, err := h.cmds.IsInstallPatched(ctx, inst)
		if err != nil {
			return nil, PatchStateOutput{}, err
		}
		out.Patched[inst.Path] = patched
	}
	return nil, out, nil
}

func (h handlers) patchInstall(ctx context.Context, _ *mcp.CallToolRequest, in PatchInput) (*mcp.CallToolResult, ChangedOutput, error) {
	return h.eachInstall(ctx, in.Target, func(inst install.Installation) error {
		return h.cmds.PatchInstall(ctx, inst, in.Moonlight)
	})
}

func (h handlers) unpatchInstall(ctx context.Context, _ *mcp.CallToolRequest, in TargetInput) (*mcp.CallToolResult, ChangedOutput, error) {
	return h.eachInstall(ctx, in.Target, func(inst install.Installation) error {
		return h.cmds.UnpatchInstall(ctx, inst)
	})
}

// eachInstall stops at the first failure; installations already handled
// stay handled.
func (h handlers) eachInstall(ctx context.Context, target string, fn func(install.Installation) error) (*mcp.CallToolResult, ChangedOutput, error) {
	installs, err := h.cmds.ResolveTarget(ctx, target)
	if err != nil {
		return nil, ChangedOutput{}, err
	}
	out := ChangedOutput{Paths: []string{}}
	for _, inst := range installs {
		if err := fn(inst); err != nil {
			return nil, out, err
		}
		out.Paths = append(out.Paths, inst.Path)
	}
	return nil, out, nil
}

func (h handlers) getBranch(_ context.Context, _ *mcp.CallToolRequest, _ noInput) (*mcp.CallToolResult, BranchOutput, error) {
	return nil, describeBranch(h.cmds.GetMoonlightBranch()), nil
}

func (h handlers) setBranch(ctx context.Context, _ *mcp.CallToolRequest, in BranchInput) (*mcp.CallToolResult, BranchOutput, error) {
	b, err := payload.ParseBranch(in.Branch)
	if err != nil {
		return nil, BranchOutput{}, err
	}
	if err := h.cmds.SetMoonlightBranch(ctx, b); err != nil {
		return nil, BranchOutput{}, err
	}
	return nil, describeBranch(b), nil
}

func (h handlers) getDownloaded(_ context.Context, _ *mcp.CallToolRequest, _ noInput) (*mcp.CallToolResult, VersionOutput, error) {
	v, ok := h.cmds.GetDownloadedMoonlight()
	return nil, VersionOutput{Version: v, Present: ok}, nil
}

func (h handlers) getLatest(ctx context.Context, _ *mcp.CallToolRequest, in BranchInput) (*mcp.CallToolResult, VersionOutput, error) {
	b, err := h.branchOrSelected(in.Branch)
	if err != nil {
		return nil, VersionOutput{}, err
	}
	v, ok := h.cmds.GetLatestMoonlightVersion(ctx, b)
	return nil, VersionOutput{Version: v, Present: ok}, nil
}

func (h handlers) download(ctx context.Context, _ *mcp.CallToolRequest, in BranchInput) (*mcp.CallToolResult, VersionOutput, error) {
	b, err := h.branchOrSelected(in.Branch)
	if err != nil {
		return nil, VersionOutput{}, err
	}
	if err := h.cmds.DownloadMoonlight(ctx, b); err != nil {
		return nil, VersionOutput{}, err
	}
	v, ok := h.cmds.GetDownloadedMoonlight()
	return nil, VersionOutput{Version: v, Present: ok}, nil
}

func (h handlers) killDiscord(ctx context.Context, _ *mcp.CallToolRequest, in ChannelInput) (*mcp.CallToolResult, Empty, error) {
	var channel *install.Channel
	if strings.TrimSpace(in.Channel) != "" {
		c, err := install.ParseChannel(in.Channel)
		if err != nil {
			return nil, Empty{}, err
		}
		channel = &c
	}
	return nil, Empty{}, h.cmds.KillDiscord(ctx, channel)
}

func (h handlers) resetConfig(_ context.Context, _ *mcp.CallToolRequest, in ChannelInput) (*mcp.CallToolResult, ResetOutput, error) {
	c, err := install.ParseChannel(in.Channel)
	if err != nil {
		return nil, ResetOutput{}, err
	}
	backup, err := h.cmds.ResetConfig(c)
	if err != nil {
		return nil, ResetOutput{}, err
	}
	return nil, ResetOutput{Backup: backup}, nil
}

func (h handlers) status(ctx context.Context, _ *mcp.CallToolRequest, _ noInput) (*mcp.CallToolResult, backend.Status, error) {
	st, err := h.cmds.Status(ctx)
	if err != nil {
		return nil, backend.Status{}, err
	}
	if st.Installs == nil {
		st.Installs = []install.Info{}
	}
	return nil, st, nil
}

func (h handlers) branchOrSelected(name string) (payload.Branch, error) {
	if strings.TrimSpace(name) == "" {
		return h.cmds.GetMoonlightBranch(), nil
	}
	return payload.ParseBranch(name)
}

func describeBranch(b payload.Branch) BranchOutput {
	return BranchOutput{Branch: b, Name: b.Name(), Description: b.Description()}
}
