package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"

	"github.com/sadopc/fscan/internal/config"
	"github.com/sadopc/fscan/internal/logging"
	"github.com/sadopc/fscan/internal/telemetry"
)

var (
	version = "dev"
)

// errStopped reports a scan ended by an interrupt.
var errStopped = errors.New("scan stopped")

type options struct {
	configPath string
	logLevel   string
	logFormat  string
	logFile    string
	metrics    string

	suffixes    []string
	categories  []string
	contains    []string
	notContains []string
	globs       []string
	excludes    []string
	filesOnly   bool
	dirsOnly    bool
	emptyDirs   bool
	skipHidden  bool
	minSize     string
	newer       time.Duration

	depth        int
	concurrency  int
	follow       bool
	notifyOnStop bool
	backend      string

	plain      bool
	long       bool
	watch      bool
	exportPath string

	sshPort    int
	sshBatch   bool
	sshTimeout time.Duration
	knownHosts string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, errStopped) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	o := &options{}

	cmd := &cobra.Command{
		Use:   "fscan [flags] [path...|user@host [remote-path]]",
		Short: "Find files and directories matching filters, concurrently",
		Long: `fscan walks one or more directory trees in parallel and reports the
entries that pass the filters. Matches stream into an interactive list,
or to stdout with --plain.

Examples:
  fscan -s apk,aab ~/Downloads        Android packages below ~/Downloads
  fscan -c documents /srv /home       Documents in two trees, one joint scan
  fscan --dirs --empty-dirs .         Empty directories
  fscan --plain -l -s log /var/log    Stream matches with size and age
  fscan --watch --plain -s tmp .      Rescan whenever the tree changes
  fscan --export out.json -s iso .    Save matches to JSON
  fscan user@10.0.0.5 /var/backups    Scan a remote host over SFTP
  fscan diff old.json new.json        Compare two exports`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, o, args, stdout, stderr)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.configPath, "config", "", "YAML config file (default $"+config.EnvConfigPath+")")
	f.StringVar(&o.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.StringVar(&o.logFormat, "log-format", "", "Log format: text or json")
	f.StringVar(&o.logFile, "log-file", "", "Write logs to this file instead of stderr")
	f.StringVar(&o.metrics, "metrics", "", "Metrics exporter: none or stdout")

	f.StringSliceVarP(&o.suffixes, "suffix", "s", nil, "Match file suffixes, e.g. apk,aab")
	f.StringSliceVarP(&o.categories, "category", "c", nil, "Match file categories, e.g. images,documents")
	f.StringSliceVar(&o.contains, "contains", nil, "Match names containing any of these")
	f.StringSliceVar(&o.notContains, "not-contains", nil, "Reject names containing any of these")
	f.StringSliceVarP(&o.globs, "glob", "g", nil, "Match names against glob patterns")
	f.StringSliceVarP(&o.excludes, "exclude", "e", nil, "Skip entries whose name contains any of these, with everything below them")
	f.BoolVar(&o.filesOnly, "files", false, "Match files only")
	f.BoolVar(&o.dirsOnly, "dirs", false, "Match directories only")
	f.BoolVar(&o.emptyDirs, "empty-dirs", false, "Match empty directories")
	f.BoolVar(&o.skipHidden, "skip-hidden", false, "Skip hidden entries and do not descend into hidden directories")
	f.StringVar(&o.minSize, "min-size", "", "Match files of at least this size, e.g. 10MB")
	f.DurationVar(&o.newer, "newer", 0, "Match entries modified within this duration, e.g. 24h")

	f.IntVarP(&o.depth, "depth", "d", 0, "Do not list directories this many levels below the root (0 = unlimited)")
	f.IntVarP(&o.concurrency, "concurrency", "j", 0, "Worker goroutines per root (0 = auto: 3x CPU cores)")
	f.BoolVar(&o.follow, "follow-symlinks", false, "Follow symbolic links to directories")
	f.BoolVar(&o.notifyOnStop, "notify-on-stop", false, "Report completion of stopped scans")
	f.StringVar(&o.backend, "backend", "", "Filesystem backend for local roots: os or billy")

	f.BoolVar(&o.plain, "plain", false, "Stream matches to stdout instead of the interactive view")
	f.BoolVarP(&o.long, "long", "l", false, "With --plain, print size and modification time")
	f.BoolVarP(&o.watch, "watch", "w", false, "After the scan, rescan local roots whenever they change (implies --plain)")
	f.StringVar(&o.exportPath, "export", "", "Export matches to a JSON file without the interactive view ('-' for stdout)")

	f.IntVar(&o.sshPort, "ssh-port", 22, "SSH port for remote scans")
	f.BoolVar(&o.sshBatch, "ssh-batch", false, "Disable SSH prompts (key/agent auth only)")
	f.DurationVar(&o.sshTimeout, "ssh-timeout", 15*time.Second, "SSH connection timeout")
	f.StringVar(&o.knownHosts, "known-hosts", "", "known_hosts file (default ~/.ssh/known_hosts)")

	cmd.AddCommand(newDiffCmd(stdout))
	return cmd
}

// loadConfig reads the config file and environment, then applies every
// flag the user set explicitly.
func loadConfig(cmd *cobra.Command, o *options) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if f.Changed("log-format") {
		cfg.Log.Format = o.logFormat
	}
	if f.Changed("log-file") {
		cfg.Log.File = o.logFile
	}
	if f.Changed("metrics") {
		cfg.Metrics.Exporter = o.metrics
	}
	if f.Changed("depth") {
		cfg.Scan.MaxDepth = o.depth
	}
	if f.Changed("concurrency") {
		cfg.Scan.Concurrency = o.concurrency
	}
	if f.Changed("skip-hidden") {
		cfg.Scan.SkipHidden = o.skipHidden
	}
	if f.Changed("follow-symlinks") {
		cfg.Scan.FollowSymlinks = o.follow
	}
	if f.Changed("notify-on-stop") {
		cfg.Scan.NotifyOnStop = o.notifyOnStop
	}
	if f.Changed("backend") {
		cfg.Scan.Backend = o.backend
	}
	if f.Changed("export") {
		cfg.Export.Path = o.exportPath
	}
	if f.Changed("ssh-port") {
		cfg.SSH.Port = o.sshPort
	}
	if f.Changed("ssh-batch") {
		cfg.SSH.BatchMode = o.sshBatch
	}
	if f.Changed("ssh-timeout") {
		cfg.SSH.Timeout = o.sshTimeout
	}
	if f.Changed("known-hosts") {
		cfg.SSH.KnownHosts = o.knownHosts
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runtimeEnv is the logger and meter provider shared by every mode.
type runtimeEnv struct {
	log     *logrus.Logger
	meter   metric.MeterProvider
	cleanup []func()
}

func (e *runtimeEnv) close() {
	for i := len(e.cleanup) - 1; i >= 0; i-- {
		e.cleanup[i]()
	}
}

// setupEnv builds the logger and metrics. Metrics share the log output.
// The interactive view owns the terminal, so without a log file both go
// nowhere.
func setupEnv(ctx context.Context, cfg *config.Config, interactive bool, stderr io.Writer) (*runtimeEnv, error) {
	env := &runtimeEnv{}

	var out io.Writer = stderr
	switch {
	case cfg.Log.File != "":
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("cannot open log file: %w", err)
		}
		out = f
		env.cleanup = append(env.cleanup, func() { _ = f.Close() })
	case interactive:
		out = io.Discard
	}

	if out == io.Discard {
		env.log = logging.Discard()
	} else {
		log, err := logging.New(out, cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			env.close()
			return nil, err
		}
		env.log = log
	}

	mp, shutdown, err := telemetry.Setup(ctx, telemetry.Options{
		Exporter:   cfg.Metrics.Exporter,
		Writer:     out,
		Interval:   cfg.Metrics.Interval,
		AppName:    "fscan",
		AppVersion: version,
	})
	if err != nil {
		env.close()
		return nil, err
	}
	env.meter = mp
	env.cleanup = append(env.cleanup, func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			env.log.WithError(err).Warn("metrics shutdown")
		}
	})
	return env, nil
}
