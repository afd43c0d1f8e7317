package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"ipdevo/internal/config"
	"ipdevo/internal/evo"
	"ipdevo/internal/logging"
	"ipdevo/pkg/ipdevo"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		var genErr *evo.GenerationError
		if errors.As(err, &genErr) {
			fmt.Fprintf(os.Stderr, "evolution halted at generation %d: %v\n", genErr.Generation, genErr.Err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath  string
	profile     string
	store       string
	dbPath      string
	logLevel    string
	logFormat   string
	metricsAddr string

	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "ipdctl",
		Short:         "Evolve iterated prisoner's dilemma strategies with a genetic algorithm",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML or JSON config file")
	root.PersistentFlags().StringVar(&opts.profile, "profile", "", "preset: classic|open|ablation")
	root.PersistentFlags().StringVar(&opts.store, "store", "", "run ledger backend: memory|sqlite")
	root.PersistentFlags().StringVar(&opts.dbPath, "db-path", "", "sqlite database path")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug|info|warn|error")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "text|json")
	root.PersistentFlags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")

	root.AddCommand(
		newRunCmd(opts),
		newMatchCmd(opts),
		newRunsCmd(opts),
		newHistoryCmd(opts),
		newProfilesCmd(opts),
	)
	return root
}

// loadConfig resolves file, profile and environment settings, then applies
// persistent flags that were set explicitly.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(o.configPath, o.profile)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.Storage.Kind = o.store
	}
	if flags.Changed("db-path") {
		cfg.Storage.Path = o.dbPath
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = o.logFormat
	}
	return cfg, cfg.Validate()
}

func (o *rootOptions) newLogger(cfg config.Config) (*slog.Logger, error) {
	return logging.New(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    logging.Format(cfg.Logging.Format),
		Output:    o.stderr,
		Component: "ipdctl",
	})
}

func (o *rootOptions) newClient(cfg config.Config, logger *slog.Logger) (*ipdevo.Client, error) {
	return ipdevo.New(ipdevo.Options{
		StoreKind:    cfg.Storage.Kind,
		DBPath:       cfg.Storage.Path,
		ArtifactsDir: cfg.Artifacts.Dir,
		Logger:       logger,
	})
}

// tableStyle picks box drawing for terminals and plain ASCII otherwise.
func (o *rootOptions) tableStyle() table.Style {
	if f, ok := o.stdout.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return table.StyleRounded
	}
	return table.StyleDefault
}

func usageError(msg string) error {
	return fmt.Errorf("usage: %s", msg)
}
