// Package mcp exposes node introspection, tree encoding and generation as
// Model Context Protocol tools.
package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sanonone/noisegraph/pkg/handle"
	"github.com/sanonone/noisegraph/pkg/persistence"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

func NewMCPServer(table *handle.Table, presets *persistence.Store, maxSamples int) *mcp.Server {
	service := NewService(table, presets, maxSamples)

	s := mcp.NewServer(&mcp.Implementation{
		Name:    "noisegraph",
		Version: Version,
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_kinds",
		Description: "List the available noise node kinds with their type ids and groups.",
	}, service.ListKinds)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "describe_kind",
		Description: "Describe one node kind: its variables (with ranges and enum options), source slots and hybrid slots.",
	}, service.DescribeKind)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "build_tree",
		Description: "Build a node tree from a nested object and return its compact encoded form.",
	}, service.BuildTree)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "decode_tree",
		Description: "Expand an encoded node tree into a nested object.",
	}, service.DecodeTree)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "open_tree",
		Description: "Instantiate an encoded tree or saved preset and return a handle for generation.",
	}, service.OpenTree)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "release_tree",
		Description: "Release a handle returned by open_tree.",
	}, service.ReleaseTree)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "generate",
		Description: "Sample an open tree over a 2D or 3D grid and return the output range and statistics.",
	}, service.Generate)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "sample",
		Description: "Evaluate an open tree at a single 2D, 3D or 4D position.",
	}, service.Sample)

	if presets != nil {
		mcp.AddTool(s, &mcp.Tool{
			Name:        "save_preset",
			Description: "Save an encoded tree under a name in the preset store.",
		}, service.SavePreset)

		mcp.AddTool(s, &mcp.Tool{
			Name:        "list_presets",
			Description: "List saved presets, optionally filtered by name prefix.",
		}, service.ListPresets)
	}

	return s
}
