// Command stickersync inspects and exercises the canvas operation-log
// engine: it resolves config paths and runs an in-process two-replica
// convergence simulation.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/hkcm91/stickersync/internal/app"
	"github.com/hkcm91/stickersync/internal/config"
	"github.com/hkcm91/stickersync/internal/domain"
	"github.com/hkcm91/stickersync/internal/platform"
)

// version stores a package-level helper value.
var version = "dev"

// main handles main.
func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// run runs the requested command flow.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("stickersync", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		configPath string
		replicaID  string
		appName    string
		devMode    bool
		showVer    bool
	)
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("STICKERSYNC_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	if envApp := strings.TrimSpace(os.Getenv("STICKERSYNC_APP_NAME")); envApp != "" {
		appName = envApp
	} else {
		appName = "stickersync"
	}
	fs.StringVar(&configPath, "config", "", "path to config TOML")
	fs.StringVar(&replicaID, "replica", "", "replica id override")
	fs.StringVar(&appName, "app", appName, "application name for config path resolution")
	fs.BoolVar(&devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")
	fs.BoolVar(&showVer, "version", false, "show version")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showVer {
		_, _ = fmt.Fprintf(stdout, "stickersync %s\n", version)
		return nil
	}

	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: appName,
		DevMode: devMode,
	})
	if err != nil {
		return err
	}

	command := firstArg(fs.Args())
	switch command {
	case "paths":
		_, _ = fmt.Fprintf(stdout, "app: %s\n", appName)
		_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", devMode)
		_, _ = fmt.Fprintf(stdout, "config: %s\n", paths.ConfigPath)
		_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
		return nil
	case "simulate":
		// Continue.
	case "":
		return fmt.Errorf("missing command: expected paths or simulate")
	default:
		return fmt.Errorf("unknown command: %s", command)
	}

	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("STICKERSYNC_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}

	if replicaID == "" {
		replicaID = "replica-" + uuid.NewString()[:8]
	}
	cfg, err := config.Load(configPath, config.Default(replicaID))
	if err != nil {
		return err
	}

	logger, err := newRuntimeLogger(stderr, appName, cfg.Logging)
	if err != nil {
		return err
	}
	charmLog.SetDefault(logger)

	return runSimulate(ctx, cfg, stdout)
}

// newRuntimeLogger configures the console log sink from config state.
func newRuntimeLogger(stderr io.Writer, appName string, cfg config.LoggingConfig) (*charmLog.Logger, error) {
	level, err := charmLog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}
	if stderr == nil {
		stderr = io.Discard
	}

	return charmLog.NewWithOptions(stderr, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.TextFormatter,
	}), nil
}

// runSimulate drives two in-process replicas through concurrent edits on
// one canvas and prints how each conflict resolves and how the replicas
// converge.
func runSimulate(_ context.Context, cfg config.Config, stdout io.Writer) error {
	maxAge, err := cfg.MaxAge()
	if err != nil {
		return err
	}

	base := app.Config{
		CanvasID:      "demo-canvas",
		MaxOperations: cfg.Retention.MaxOperations,
		MaxAge:        maxAge,
	}
	cfgA := base
	cfgA.ReplicaID = cfg.Replica.ID + "-a"
	cfgB := base
	cfgB.ReplicaID = cfg.Replica.ID + "-b"

	a := app.NewLog(cfgA, nil, nil)
	b := app.NewLog(cfgB, nil, nil)
	userID := cfg.Replica.UserID

	// Concurrent move and resize on the same widget: neither replica has
	// seen the other's edit, so the clocks are concurrent and the
	// orthogonal payloads merge.
	move := a.RecordOperation(domain.OperationMove, "widget-1", domain.TargetWidget,
		domain.Payload{"x": 120, "y": 80}, userID, nil)
	resize := b.RecordOperation(domain.OperationResize, "widget-1", domain.TargetWidget,
		domain.Payload{"width": 320, "height": 240}, userID, nil)

	mergeAtA, err := a.ApplyRemoteOperation(resize)
	if err != nil {
		return fmt.Errorf("apply resize at %s: %w", a.ReplicaID(), err)
	}
	mergeAtB, err := b.ApplyRemoteOperation(move)
	if err != nil {
		return fmt.Errorf("apply move at %s: %w", b.ReplicaID(), err)
	}
	_, _ = fmt.Fprintf(stdout, "move/resize at %s: %s -> %v\n", a.ReplicaID(), mergeAtA.Type, mergeAtA.Data)
	_, _ = fmt.Fprintf(stdout, "move/resize at %s: %s -> %v\n", b.ReplicaID(), mergeAtB.Type, mergeAtB.Data)

	// Concurrent updates to the same key: the later timestamp wins on
	// both replicas, so they converge on one color.
	colorA := a.RecordOperation(domain.OperationUpdate, "widget-1", domain.TargetWidget,
		domain.Payload{"color": "#ff5500"}, userID, nil)
	colorB := b.RecordOperation(domain.OperationUpdate, "widget-1", domain.TargetWidget,
		domain.Payload{"color": "#0055ff"}, userID, nil)

	lwwAtA, err := a.ApplyRemoteOperation(colorB)
	if err != nil {
		return fmt.Errorf("apply color at %s: %w", a.ReplicaID(), err)
	}
	lwwAtB, err := b.ApplyRemoteOperation(colorA)
	if err != nil {
		return fmt.Errorf("apply color at %s: %w", b.ReplicaID(), err)
	}
	_, _ = fmt.Fprintf(stdout, "color at %s: %s winner=%s\n", a.ReplicaID(), lwwAtA.Type, lwwAtA.WinnerID)
	_, _ = fmt.Fprintf(stdout, "color at %s: %s winner=%s\n", b.ReplicaID(), lwwAtB.Type, lwwAtB.WinnerID)
	if lwwAtA.Type == domain.ResolutionLastWriteWins && lwwAtA.WinnerID == lwwAtB.WinnerID {
		_, _ = fmt.Fprintf(stdout, "replicas converge on color %v\n", lwwAtA.Data["color"])
	}

	// A third replica joins from scratch and catches up from the delta.
	delta := a.Delta("demo-canvas", 0)
	c := app.NewLog(app.Config{
		CanvasID:      "demo-canvas",
		ReplicaID:     cfg.Replica.ID + "-c",
		MaxOperations: cfg.Retention.MaxOperations,
		MaxAge:        maxAge,
	}, nil, nil)
	for _, op := range delta.Operations {
		if _, err := c.ApplyRemoteOperation(op); err != nil {
			return fmt.Errorf("replay delta at %s: %w", c.ReplicaID(), err)
		}
	}
	_, _ = fmt.Fprintf(stdout, "delta %d..%d replayed %d operations, late joiner at version %d\n",
		delta.FromVersion, delta.ToVersion, len(delta.Operations), c.Version())

	charmLog.Info("simulation complete",
		"canvas_id", "demo-canvas",
		"version_a", a.Version(),
		"version_b", b.Version(),
		"version_c", c.Version())
	return nil
}

// firstArg returns the first positional argument.
func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return strings.TrimSpace(args[0])
}

// parseBoolEnv parses a boolean environment variable.
func parseBoolEnv(key string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
