package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"

	"github.com/sanonone/noisegraph/internal/config"
	"github.com/sanonone/noisegraph/internal/mcp"
	"github.com/sanonone/noisegraph/internal/render"
	"github.com/sanonone/noisegraph/pkg/handle"
	"github.com/sanonone/noisegraph/pkg/nodetree"
	"github.com/sanonone/noisegraph/pkg/noise"
	"github.com/sanonone/noisegraph/pkg/persistence"
	"github.com/sanonone/noisegraph/pkg/simd"
)

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

func (c *cli) openPresets() (*persistence.Store, error) {
	return persistence.Open(c.cfg.PresetsPath, persistence.DefaultOptions())
}

// --- render ---

func (c *cli) render(args []string) error {
	job := c.cfg.Render
	level := c.cfg.Level

	fs := c.flags("render")
	fs.StringVar(&job.Output, "o", job.Output, "output file, - for stdout")
	fs.StringVar(&job.Format, "format", job.Format, "png, f16 or raw")
	fs.IntVar(&job.Width, "width", job.Width, "samples along x")
	fs.IntVar(&job.Height, "height", job.Height, "samples along y")
	fs.IntVar(&job.Depth, "depth", job.Depth, "samples along z")
	fs.IntVar(&job.Origin[0], "x", job.Origin[0], "x origin in samples")
	fs.IntVar(&job.Origin[1], "y", job.Origin[1], "y origin in samples")
	fs.IntVar(&job.Origin[2], "z", job.Origin[2], "z origin in samples")
	freq := fs.Float64("freq", float64(job.Frequency), "distance between samples")
	seed := fs.Int("seed", int(job.Seed), "seed")
	fs.BoolVar(&job.Tileable, "tileable", job.Tileable, "wrap seamlessly (2D only)")
	tree := fs.String("tree", "", "encoded node tree")
	preset := fs.String("preset", "", "preset name")
	fs.TextVar(&level, "level", level, "feature level cap")
	stats := fs.Bool("stats", false, "print sample statistics as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	job.Frequency = float32(*freq)
	job.Seed = int32(*seed)
	if *tree != "" || *preset != "" {
		job.Tree = config.TreeConfig{Encoded: *tree, Preset: *preset}
	}
	if err := job.Validate(); err != nil {
		return err
	}

	var store *persistence.Store
	encoded, err := job.Tree.EncodedTree(func(name string) (string, error) {
		var err error
		if store, err = c.openPresets(); err != nil {
			return "", err
		}
		p, err := store.Get(name)
		return p.Encoded, err
	})
	if store != nil {
		defer store.Close()
	}
	if err != nil {
		return err
	}

	n, err := nodetree.NewFromEncodedNodeTree(encoded, level)
	if err != nil {
		return err
	}
	defer n.Release()

	start := time.Now()
	field, err := render.Generate(n, job)
	if err != nil {
		return err
	}
	if err := c.writeOutput(job.Output, func(w io.Writer) error {
		return render.Write(w, job.Format, field)
	}); err != nil {
		return err
	}

	summary := render.Summarize(field.Data)
	slog.Info("[Render] Done",
		"output", job.Output, "format", job.Format, "level", n.Level(),
		"samples", summary.Count, "min", summary.Min, "max", summary.Max,
		"elapsed", time.Since(start))
	if *stats {
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	return nil
}

func (c *cli) writeOutput(path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(c.stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// --- describe ---

func (c *cli) describe(args []string) error {
	fs := c.flags("describe")
	schema := fs.Bool("schema", false, "print the JSON schema of the kind")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() == 0 {
		tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tGROUPS")
		for _, m := range noise.Registry().All() {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", m.ID, m.Name, strings.Join(m.Groups, ", "))
		}
		return tw.Flush()
	}

	id, err := strconv.Atoi(fs.Arg(0))
	if err != nil {
		m, ok := noise.Registry().ByName(fs.Arg(0))
		if !ok {
			return fmt.Errorf("%w: %q", handle.ErrUnknownKind, fs.Arg(0))
		}
		id = int(m.ID)
	}
	var v any
	if *schema {
		if id < 0 || id > 0xFFFF {
			return fmt.Errorf("%w: %d", handle.ErrUnknownKind, id)
		}
		m, ok := noise.Registry().ByID(uint16(id))
		if !ok {
			return fmt.Errorf("%w: %d", handle.ErrUnknownKind, id)
		}
		v = m.JSONSchema()
	} else if v, err = handle.Describe(id); err != nil {
		return err
	}
	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --- encode / decode ---

func (c *cli) encode(args []string) error {
	fs := c.flags("encode")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var r io.Reader = c.stdin
	if fs.NArg() > 0 && fs.Arg(0) != "-" {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	var node map[string]any
	if err := yaml.NewDecoder(r).Decode(&node); err != nil {
		return fmt.Errorf("YAML syntax error in node tree: %w", err)
	}
	d, err := config.BuildNodeData(noise.Registry(), node)
	if err != nil {
		return err
	}
	s, err := nodetree.Encode(d, false)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.stdout, s)
	return err
}

func (c *cli) decode(args []string) error {
	fs := c.flags("decode")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(c.stderr, "usage: noisegraph decode <encoded>")
		return errUsage
	}
	root, _, err := nodetree.DecodeNodeData(fs.Arg(0))
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(c.stdout)
	enc.SetIndent(2)
	if err := enc.Encode(config.TreeMap(root)); err != nil {
		return err
	}
	return enc.Close()
}

// --- levels ---

func (c *cli) levels(args []string) error {
	fs := c.flags("levels")
	if err := fs.Parse(args); err != nil {
		return err
	}
	auto, _ := simd.Resolve(simd.Auto)
	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LEVEL\tLANES\tSUPPORTED\tSELECTED")
	for _, l := range simd.CompiledLevels() {
		sel := ""
		if l == auto {
			sel = "*"
		}
		fmt.Fprintf(tw, "%s\t%d\t%t\t%s\n", l, l.Width(), simd.Supported(l), sel)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(c.stdout, "cpu maximum: %s\n", simd.DetectMaxSupportedLevel())
	return err
}

// --- presets ---

func (c *cli) presets(args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(c.stderr, "usage: noisegraph presets list|get|put|rm|compact ...")
		return errUsage
	}
	store, err := c.openPresets()
	if err != nil {
		return err
	}
	defer store.Close()

	sub, args := args[0], args[1:]
	switch sub {
	case "list":
		prefix := ""
		if len(args) > 0 {
			prefix = args[0]
		}
		list, err := store.List(prefix)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tUPDATED\tDESCRIPTION")
		for _, p := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, p.Updated.Format(time.RFC3339), p.Description)
		}
		return tw.Flush()
	case "get":
		if len(args) != 1 {
			return errUsage
		}
		p, err := store.Get(args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(c.stdout, p.Encoded)
		return err
	case "put":
		fs := c.flags("presets put")
		desc := fs.String("d", "", "description")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() != 2 {
			fmt.Fprintln(c.stderr, "usage: noisegraph presets put [-d description] <name> <encoded>")
			return errUsage
		}
		return store.Put(persistence.Preset{Name: fs.Arg(0), Encoded: fs.Arg(1), Description: *desc})
	case "rm":
		if len(args) != 1 {
			return errUsage
		}
		return store.Delete(args[0])
	case "compact":
		return store.Compact()
	}
	fmt.Fprintf(c.stderr, "unknown presets command %q\n", sub)
	return errUsage
}

// --- mcp ---

func (c *cli) mcp(args []string) error {
	cfg := c.cfg.MCP
	fs := c.flags("mcp")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "stdio or http")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address for http")
	noPresets := fs.Bool("no-presets", false, "run without the preset store")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var store *persistence.Store
	if !*noPresets {
		var err error
		if store, err = c.openPresets(); err != nil {
			return err
		}
		defer store.Close()
	}
	table := handle.NewTable()
	defer table.Close()
	server := mcp.NewMCPServer(table, store, cfg.MaxSamples)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.Transport {
	case "stdio":
		slog.Info("[MCP] Serving on stdio")
		return server.Run(ctx, &sdk.StdioTransport{})
	case "http":
		h := sdk.NewStreamableHTTPHandler(func(*http.Request) *sdk.Server { return server }, nil)
		srv := &http.Server{Addr: cfg.Addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		slog.Info("[MCP] Serving on http", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
	return fmt.Errorf("%w: mcp transport %q", config.ErrInvalidConfig, cfg.Transport)
}
