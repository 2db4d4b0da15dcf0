// Package mcpserver exposes the installer commands as MCP tools over stdio.
package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/moonlight-mod/moonlight-installer/internal/backend"
	"github.com/moonlight-mod/moonlight-installer/internal/install"
	"github.com/moonlight-mod/moonlight-installer/internal/messages"
	"github.com/moonlight-mod/moonlight-installer/internal/payload"
)

// Commands is the subset of the backend served as tools.
type Commands interface {
	GetInstalls(ctx context.Context) ([]install.Info, error)
	ResolveTarget(ctx context.Context, target string) ([]install.Installation, error)
	IsInstallPatched(ctx context.Context, inst install.Installation) (bool, error)
	PatchInstall(ctx context.Context, inst install.Installation, override string) error
	UnpatchInstall(ctx context.Context, inst install.Installation) error
	GetMoonlightBranch() payload.Branch
	SetMoonlightBranch(ctx context.Context, branch payload.Branch) error
	GetDownloadedMoonlight() (string, bool)
	GetLatestMoonlightVersion(ctx context.Context, branch payload.Branch) (string, bool)
	DownloadMoonlight(ctx context.Context, branch payload.Branch) error
	KillDiscord(ctx context.Context, channel *install.Channel) error
	ResetConfig(channel install.Channel) (string, error)
	Status(ctx context.Context) (backend.Status, error)
}

type serverRunner func(ctx context.Context, server *mcp.Server) error

// Run serves cmds over stdio until ctx is done or the client disconnects.
func Run(ctx context.Context, version string, cmds Commands) error {
	return run(ctx, version, cmds, defaultRunner)
}

func run(ctx context.Context, version string, cmds Commands, runner serverRunner) error {
	if runner == nil {
		return fmt.Errorf(messages.McpRunServerFailedFmt, errors.New(messages.McpRunnerNil))
	}
	if err := runner(ctx, NewServer(version, cmds)); err != nil {
		return fmt.Errorf(messages.McpRunServerFailedFmt, err)
	}
	return nil
}

func defaultRunner(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// NewServer builds an MCP server with one tool per installer command.
func NewServer(version string, cmds Commands) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "moonlight-installer",
		Version: version,
	}, nil)
	h := handlers{cmds: cmds}

	mcp.AddTool(server, &mcp.Tool{Name: "detect_installs", Description: messages.McpToolDetectInstalls}, h.detectInstalls)
	mcp.AddTool(server, &mcp.Tool{Name: "is_install_patched", Description: messages.McpToolIsInstallPatched}, h.isInstallPatched)
	mcp.AddTool(server, &mcp.Tool{Name: "patch_install", Description: messages.McpToolPatchInstall}, h.patchInstall)
	mcp.AddTool(server, &mcp.Tool{Name: "unpatch_install", Description: messages.McpToolUnpatchInstall}, h.unpatchInstall)
	mcp.AddTool(server, &mcp.Tool{Name: "get_moonlight_branch", Description: messages.McpToolGetBranch}, h.getBranch)
	mcp.AddTool(server, &mcp.Tool{Name: "set_moonlight_branch", Description: messages.McpToolSetBranch}, h.setBranch)
	mcp.AddTool(server, &mcp.Tool{Name: "get_downloaded_moonlight", Description: messages.McpToolGetDownloaded}, h.getDownloaded)
	mcp.AddTool(server, &mcp.Tool{Name: "get_latest_moonlight_version", Description: messages.McpToolGetLatest}, h.getLatest)
	mcp.AddTool(server, &mcp.Tool{Name: "download_moonlight", Description: messages.McpToolDownload}, h.download)
	mcp.AddTool(server, &mcp.Tool{Name: "kill_discord", Description: messages.McpToolKillDiscord}, h.killDiscord)
	mcp.AddTool(server, &mcp.Tool{Name: "reset_config", Description: messages.McpToolResetConfig}, h.resetConfig)
	mcp.AddTool(server, &mcp.Tool{Name: "status", Description: messages.McpToolStatus}, h.status)
	return server
}
