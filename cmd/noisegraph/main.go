package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanonone/noisegraph/internal/config"
)

const usage = `usage: noisegraph [-config job.yaml] <command> [flags]

commands:
  render    sample a node tree into a png, f16 or raw file
  describe  list node kinds, or describe one kind
  encode    encode a YAML node tree
  decode    expand an encoded tree into YAML
  levels    show compiled and supported feature levels
  presets   list, get, put, rm or compact saved presets
  mcp       serve the MCP tools over stdio or http
`

var errUsage = errors.New("invalid usage")

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) && !errors.Is(err, flag.ErrHelp) {
			slog.Error("noisegraph failed", "error", err)
		}
		os.Exit(1)
	}
}

// cli carries what every subcommand needs.
type cli struct {
	cfg    config.Config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("noisegraph", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := fs.String("config", "", "YAML job file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	setupLogging(cfg, stderr)

	stopMetrics := serveMetrics(cfg.MetricsAddr)
	defer stopMetrics()

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errUsage
	}
	c := &cli{cfg: cfg, stdin: stdin, stdout: stdout, stderr: stderr}
	cmd, rest := rest[0], rest[1:]
	switch cmd {
	case "render":
		return c.render(rest)
	case "describe":
		return c.describe(rest)
	case "encode":
		return c.encode(rest)
	case "decode":
		return c.decode(rest)
	case "levels":
		return c.levels(rest)
	case "presets":
		return c.presets(rest)
	case "mcp":
		return c.mcp(rest)
	}
	fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
	fs.Usage()
	return errUsage
}

func setupLogging(cfg config.Config, w io.Writer) {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
}

// serveMetrics exposes the default Prometheus registry on addr and returns
// a function that shuts the listener down. An empty addr serves nothing.
func serveMetrics(addr string) func() {
	if addr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		slog.Info("[Metrics] Listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("[Metrics] Server failed", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
