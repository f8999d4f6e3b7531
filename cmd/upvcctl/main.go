// Command upvcctl operates the ERP state from the shell: it applies
// commands, imports price lists, takes and restores backups and prints the
// derived reports.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"upvcerp/internal/backup"
	"upvcerp/internal/blob"
	"upvcerp/internal/config"
	"upvcerp/internal/core"
	"upvcerp/internal/logger"
	"upvcerp/internal/validation"
)

var (
	exitFunc   = os.Exit
	loadConfig = config.Load
)

// errUsage marks errors caused by bad arguments; they exit with status 2.
var errUsage = errors.New("usage")

func main() {
	code := cli(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	exitFunc(code)
}

// app bundles what a subcommand needs. close flushes metrics and releases
// the store.
type app struct {
	cfg      *config.Config
	svc      *core.Service
	store    core.PersistentStore
	backups  *backup.Manager
	registry *prometheus.Registry
	log      *zap.Logger
	stdin    io.Reader
	stdout   io.Writer
}

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"snapshot":       {"print the full state as JSON", runSnapshot},
	"apply":          {"execute command envelopes read from -f (default stdin)", runApply},
	"commands":       {"list the command types accepted by apply", runCommands},
	"import-catalog": {"import a CSV or .xlsx price list", runImportCatalog},
	"backup":         {"write a backup to blob storage", runBackup},
	"backups":        {"list stored backups", runBackups},
	"restore":        {"replace the state with a backup", runRestore},
	"reset":          {"clear all data (requires -yes)", runReset},
	"cutting-list":   {"print the cutting list for an order", runCuttingList},
	"low-stock":      {"list items at or below their reorder level", runLowStock},
	"dashboard":      {"print the inventory dashboard", runDashboard},
}

func cli(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("upvcctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	actor := fs.String("actor", core.DefaultActor, "name recorded on activity log entries")
	fs.Usage = func() { usage(fs, stderr) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	name, rest := fs.Arg(0), fs.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", name)
		fs.Usage()
		return 2
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	log, err := logger.Init(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	ctx := core.WithActor(logger.WithContext(context.Background(), log), *actor)
	a, err := open(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(stderr, "open: %v\n", err)
		return 1
	}
	a.stdin, a.stdout = stdin, stdout

	runErr := cmd.run(ctx, a, rest)
	if err := a.close(); err != nil && runErr == nil {
		runErr = err
	}
	switch {
	case runErr == nil:
		return 0
	case errors.Is(runErr, errUsage):
		fmt.Fprintf(stderr, "%s: %v\n", name, runErr)
		return 2
	default:
		fmt.Fprintf(stderr, "%s failed: %v\n", name, runErr)
		return 1
	}
}

func usage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "usage: upvcctl [-actor name] <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-15s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fs.PrintDefaults()
}

func open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	registry := prometheus.NewRegistry()
	metrics, err := core.NewMetrics(registry, cfg.Metrics.Namespace)
	if err != nil {
		return nil, err
	}
	store, err := core.OpenPersistentStore(cfg.Storage, core.NewDefaultRulesEngine())
	if err != nil {
		return nil, err
	}
	blobs, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	svc := core.NewService(core.NewGateway(store),
		core.WithLogger(log),
		core.WithMetrics(metrics),
		core.WithValidator(validation.New(cfg.Validation.PhoneRegion)),
		core.WithDeliveryLeadDays(cfg.Orders.DeliveryLeadDays),
	)
	return &app{
		cfg:      cfg,
		svc:      svc,
		store:    store,
		backups:  backup.New(blobs, backup.WithLogger(log)),
		registry: registry,
		log:      log,
	}, nil
}

func (a *app) close() error {
	var errs []error
	if path := strings.TrimSpace(a.cfg.Metrics.TextfilePath); path != "" {
		if err := prometheus.WriteToTextfile(path, a.registry); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}
