package mcp

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sanonone/noisegraph/internal/config"
	"github.com/sanonone/noisegraph/internal/render"
	"github.com/sanonone/noisegraph/pkg/handle"
	"github.com/sanonone/noisegraph/pkg/metadata"
	"github.com/sanonone/noisegraph/pkg/nodetree"
	"github.com/sanonone/noisegraph/pkg/noise"
	"github.com/sanonone/noisegraph/pkg/persistence"
	"github.com/sanonone/noisegraph/pkg/simd"
)

// ErrPresetsDisabled is returned by preset tools when the server runs
// without a preset store.
var ErrPresetsDisabled = errors.New("preset store not configured")

// ErrTooManySamples is returned when a generate call exceeds the sample cap.
var ErrTooManySamples = errors.New("too many samples requested")

const defaultFrequency = 0.01

type Service struct {
	table      *handle.Table
	presets    *persistence.Store
	maxSamples int
}

// NewService creates the tool handlers. presets may be nil.
func NewService(table *handle.Table, presets *persistence.Store, maxSamples int) *Service {
	return &Service{
		table:      table,
		presets:    presets,
		maxSamples: maxSamples,
	}
}

// --- Tool Handlers ---

func (s *Service) ListKinds(ctx context.Context, req *mcp.CallToolRequest, args ListKindsArgs) (*mcp.CallToolResult, ListKindsResult, error) {
	res := ListKindsResult{Kinds: []KindSummary{}}
	for _, m := range noise.Registry().All() {
		if args.Group != "" && !m.InGroup(args.Group) {
			continue
		}
		res.Kinds = append(res.Kinds, KindSummary{ID: int(m.ID), Name: m.Name, Groups: m.Groups})
	}
	return nil, res, nil
}

func (s *Service) DescribeKind(ctx context.Context, req *mcp.CallToolRequest, args DescribeKindArgs) (*mcp.CallToolResult, handle.KindInfo, error) {
	id, err := strconv.Atoi(args.Kind)
	if err != nil {
		m, ok := noise.Registry().ByName(args.Kind)
		if !ok {
			return nil, handle.KindInfo{}, fmt.Errorf("%w: %q", handle.ErrUnknownKind, args.Kind)
		}
		id = int(m.ID)
	}
	info, err := handle.Describe(id)
	return nil, info, err
}

func (s *Service) BuildTree(ctx context.Context, req *mcp.CallToolRequest, args BuildTreeArgs) (*mcp.CallToolResult, EncodedTreeResult, error) {
	d, err := config.BuildNodeData(noise.Registry(), args.Tree)
	if err != nil {
		return nil, EncodedTreeResult{}, err
	}
	encoded, err := nodetree.Encode(d, false)
	if err != nil {
		return nil, EncodedTreeResult{}, err
	}
	nodes := 0
	d.Walk(func(*metadata.NodeData) { nodes++ })
	return nil, EncodedTreeResult{Encoded: encoded, Nodes: nodes}, nil
}

func (s *Service) DecodeTree(ctx context.Context, req *mcp.CallToolRequest, args DecodeTreeArgs) (*mcp.CallToolResult, DecodeTreeResult, error) {
	root, all, err := nodetree.DecodeNodeData(args.Encoded)
	if err != nil {
		return nil, DecodeTreeResult{}, err
	}
	return nil, DecodeTreeResult{Tree: config.TreeMap(root), Nodes: len(all)}, nil
}

func (s *Service) OpenTree(ctx context.Context, req *mcp.CallToolRequest, args OpenTreeArgs) (*mcp.CallToolResult, OpenTreeResult, error) {
	level, err := simd.ParseLevel(args.Level)
	if err != nil {
		return nil, OpenTreeResult{}, err
	}

	encoded := args.Encoded
	if args.Preset != "" {
		if encoded != "" {
			return nil, OpenTreeResult{}, errors.New("set either encoded or preset, not both")
		}
		if s.presets == nil {
			return nil, OpenTreeResult{}, ErrPresetsDisabled
		}
		p, err := s.presets.Get(args.Preset)
		if err != nil {
			return nil, OpenTreeResult{}, err
		}
		encoded = p.Encoded
	}

	h, err := s.table.NewFromEncoded(encoded, level)
	if err != nil {
		return nil, OpenTreeResult{}, err
	}
	actual, err := s.table.Level(h)
	if err != nil {
		return nil, OpenTreeResult{}, err
	}
	return nil, OpenTreeResult{Handle: h.String(), Level: actual.String()}, nil
}

func (s *Service) ReleaseTree(ctx context.Context, req *mcp.CallToolRequest, args HandleArgs) (*mcp.CallToolResult, ReleaseResult, error) {
	h, err := handle.ParseHandle(args.Handle)
	if err != nil {
		return nil, ReleaseResult{}, err
	}
	if err := s.table.Release(h); err != nil {
		return nil, ReleaseResult{}, err
	}
	return nil, ReleaseResult{Released: true, Open: s.table.Len()}, nil
}

func (s *Service) Generate(ctx context.Context, req *mcp.CallToolRequest, args GenerateArgs) (*mcp.CallToolResult, GenerateResult, error) {
	h, err := handle.ParseHandle(args.Handle)
	if err != nil {
		return nil, GenerateResult{}, err
	}
	depth := max(args.Depth, 1)
	if args.Width <= 0 || args.Height <= 0 {
		return nil, GenerateResult{}, fmt.Errorf("width and height must be positive, got %dx%d", args.Width, args.Height)
	}
	if args.Tileable && depth > 1 {
		return nil, GenerateResult{}, errors.New("tileable output is 2D only")
	}
	total := args.Width * args.Height * depth
	if total > s.maxSamples || total/depth/args.Height != args.Width {
		return nil, GenerateResult{}, fmt.Errorf("%w: %d (limit %d)", ErrTooManySamples, total, s.maxSamples)
	}
	freq := args.Frequency
	if freq == 0 {
		freq = defaultFrequency
	}

	out := make([]float32, total)
	var r noise.OutputMinMax
	switch {
	case args.Tileable:
		r, err = s.table.GenTileable2D(h, out, args.Width, args.Height, freq, args.Seed)
	case depth > 1:
		r, err = s.table.GenUniformGrid3D(h, out, args.XStart, args.YStart, args.ZStart, args.Width, args.Height, depth, freq, args.Seed)
	default:
		r, err = s.table.GenUniformGrid2D(h, out, args.XStart, args.YStart, args.Width, args.Height, freq, args.Seed)
	}
	if err != nil {
		return nil, GenerateResult{}, err
	}

	res := GenerateResult{Min: r.Min, Max: r.Max, Summary: render.Summarize(out)}
	if args.Samples {
		res.Samples = out
	}
	return nil, res, nil
}

func (s *Service) Sample(ctx context.Context, req *mcp.CallToolRequest, args SampleArgs) (*mcp.CallToolResult, SampleResult, error) {
	h, err := handle.ParseHandle(args.Handle)
	if err != nil {
		return nil, SampleResult{}, err
	}
	var v float32
	switch {
	case args.W != nil && args.Z == nil:
		return nil, SampleResult{}, errors.New("w requires z")
	case args.W != nil:
		v, err = s.table.GenSingle4D(h, args.X, args.Y, *args.Z, *args.W, args.Seed)
	case args.Z != nil:
		v, err = s.table.GenSingle3D(h, args.X, args.Y, *args.Z, args.Seed)
	default:
		v, err = s.table.GenSingle2D(h, args.X, args.Y, args.Seed)
	}
	return nil, SampleResult{Value: v}, err
}

func (s *Service) SavePreset(ctx context.Context, req *mcp.CallToolRequest, args SavePresetArgs) (*mcp.CallToolResult, SavePresetResult, error) {
	if s.presets == nil {
		return nil, SavePresetResult{}, ErrPresetsDisabled
	}
	status := "created"
	if _, err := s.presets.Get(args.Name); err == nil {
		status = "replaced"
	}
	err := s.presets.Put(persistence.Preset{
		Name:        args.Name,
		Encoded:     args.Encoded,
		Description: args.Description,
	})
	if err != nil {
		return nil, SavePresetResult{}, err
	}
	return nil, SavePresetResult{Name: args.Name, Status: status}, nil
}

func (s *Service) ListPresets(ctx context.Context, req *mcp.CallToolRequest, args ListPresetsArgs) (*mcp.CallToolResult, ListPresetsResult, error) {
	if s.presets == nil {
		return nil, ListPresetsResult{}, ErrPresetsDisabled
	}
	list, err := s.presets.List(args.Prefix)
	if err != nil {
		return nil, ListPresetsResult{}, err
	}
	res := ListPresetsResult{Presets: []PresetSummary{}}
	for _, p := range list {
		res.Presets = append(res.Presets, PresetSummary{Name: p.Name, Description: p.Description, Encoded: p.Encoded})
	}
	return nil, res, nil
}
