package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/fscan/internal/config"
	"github.com/sadopc/fscan/internal/fsys"
	"github.com/sadopc/fscan/internal/remote"
	"github.com/sadopc/fscan/internal/scan"
	"github.com/sadopc/fscan/internal/ui"
)

// scanRoot is one root together with the filesystem it lives on.
type scanRoot struct {
	src  fsys.FS
	path string
}

func run(cmd *cobra.Command, o *options, args []string, stdout, stderr io.Writer) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(cmd, o)
	if err != nil {
		return err
	}
	target, err := resolveScanTarget(args)
	if err != nil {
		return err
	}
	spec, err := parseFilters(o, cfg, time.Now())
	if err != nil {
		return err
	}
	if o.watch && target.Remote {
		return errors.New("--watch only works on local paths")
	}
	if o.watch && cfg.Export.Path != "" {
		return errors.New("--watch cannot be combined with --export")
	}

	headless := o.plain || o.watch || cfg.Export.Path != ""
	env, err := setupEnv(ctx, cfg, !headless, stderr)
	if err != nil {
		return err
	}
	defer env.close()

	roots, closeRoots, err := openRoots(ctx, target, cfg)
	if err != nil {
		return err
	}
	defer closeRoots()

	opts := scan.Options{
		Concurrency:    cfg.Scan.Concurrency,
		FollowSymlinks: cfg.Scan.FollowSymlinks,
		NotifyOnStop:   cfg.Scan.NotifyOnStop,
		Logger:         env.log,
		MeterProvider:  env.meter,
	}

	switch {
	case o.watch:
		return runWatch(ctx, cfg, o, roots, spec, opts, env, stdout, stderr)
	case headless:
		return runHeadless(ctx, cfg, o, roots, spec, opts, env, stdout, stderr)
	default:
		return runTUI(ctx, cfg, roots, spec, opts)
	}
}

// openRoots resolves the scan roots. Remote targets are dialed here and
// closed by the returned func.
func openRoots(ctx context.Context, target scanTarget, cfg *config.Config) ([]scanRoot, func(), error) {
	if !target.Remote {
		paths, err := absRoots(target.LocalPaths)
		if err != nil {
			return nil, nil, err
		}
		src := localSource(cfg.Scan.Backend)
		roots := make([]scanRoot, len(paths))
		for i, p := range paths {
			roots[i] = scanRoot{src: src, path: p}
		}
		return roots, func() {}, nil
	}

	rc := remote.DefaultConfig()
	rc.Target = target.SSHDestination
	rc.Port = cfg.SSH.Port
	rc.BatchMode = cfg.SSH.BatchMode
	rc.Timeout = cfg.SSH.Timeout
	rc.KnownHostsPath = cfg.SSH.KnownHosts

	src, err := remote.Dial(ctx, rc)
	if err != nil {
		return nil, nil, err
	}
	root, err := src.ResolveRoot(target.RemotePath)
	if err != nil {
		src.Close()
		return nil, nil, err
	}
	return []scanRoot{{src: src, path: root}}, func() { _ = src.Close() }, nil
}

// localSource returns the filesystem local roots are read through.
func localSource(backend string) fsys.FS {
	if backend == config.BackendBilly {
		return fsys.NewBillyOS()
	}
	return fsys.NewOS()
}

// newScanners builds one configured scanner per root.
func newScanners(roots []scanRoot, spec filterSpec, depth int, opts scan.Options) ([]*scan.Scanner, error) {
	scanners := make([]*scan.Scanner, 0, len(roots))
	pre := spec.preListingRule()
	for _, r := range roots {
		rule, err := spec.resultRule(r.src)
		if err != nil {
			return nil, err
		}
		s := scan.New(r.src, r.path, opts)
		s.SetDepthLimit(depth)
		s.SetResultFilter(rule)
		s.SetPreListingFilter(pre)
		scanners = append(scanners, s)
	}
	return scanners, nil
}

func rootPaths(roots []scanRoot) []string {
	paths := make([]string, len(roots))
	for i, r := range roots {
		paths[i] = r.path
	}
	return paths
}

func runTUI(ctx context.Context, cfg *config.Config, roots []scanRoot, spec filterSpec, opts scan.Options) error {
	d := &ui.Dispatcher{}
	opts.Dispatch = d.Dispatch

	scanners, err := newScanners(roots, spec, cfg.Scan.MaxDepth, opts)
	if err != nil {
		return err
	}

	app := ui.NewApp(ctx, scan.NewGroup(opts), scanners...)
	app.ExportPath = "fscan-export.json"
	app.Version = version
	app.SetShowHidden(!spec.skipHidden)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	d.Attach(p)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) {
			return errStopped
		}
		return fmt.Errorf("interactive view: %w", err)
	}
	return app.FatalError()
}
