// Command featurectl reads and edits rollout percentages in the store
// selected with FEATURE_BACKEND and evaluates features the way a service
// would.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/alecthomas/kong"

	"github.com/dmitrymomot/featureflag/pkg/config"
	"github.com/dmitrymomot/featureflag/pkg/feature"
	"github.com/dmitrymomot/featureflag/pkg/featurebackend"
	"github.com/dmitrymomot/featureflag/pkg/logger"
)

type opener func(ctx context.Context, cfg featurebackend.Config, log *slog.Logger, opts ...config.Option) (*featurebackend.Backend, error)

type cli struct {
	EnvFile []string `name:"env-file" help:"Dotenv files to load before reading the environment."`
	Prefix  string   `help:"Prefix of the backend environment variables."`
	Backend string   `help:"Backend to use, overrides FEATURE_BACKEND."`
	Verbose bool     `short:"v" help:"Log backend calls to stderr."`

	Get    getCmd    `cmd:"" help:"Print the rollout percentage of a feature."`
	Set    setCmd    `cmd:"" help:"Store the rollout percentage of a feature."`
	Delete deleteCmd `cmd:"" help:"Remove a feature record."`
	Check  checkCmd  `cmd:"" help:"Evaluate a feature for one or more discriminators."`
}

// env is handed to every command's Run.
type env struct {
	ctx    context.Context
	out    io.Writer
	lookup feature.Lookup
	log    *slog.Logger
}

type getCmd struct {
	Feature string `arg:"" help:"Feature id."`
}

func (c *getCmd) Run(e *env) error {
	p, found, err := e.lookup.LookupPercentage(e.ctx, c.Feature)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%s: %w", c.Feature, feature.ErrNotFound)
	}
	_, err = fmt.Fprintln(e.out, strconv.FormatFloat(p, 'g', -1, 64))
	return err
}

type setCmd struct {
	Feature    string  `arg:"" help:"Feature id."`
	Percentage float64 `arg:"" help:"Share of discriminators to enable, between 0 and 1."`
}

func (c *setCmd) Run(e *env) error {
	accepted, err := e.lookup.SetPercentage(e.ctx, c.Feature, c.Percentage)
	if err != nil {
		return err
	}
	if !accepted {
		return fmt.Errorf("%s: write was not accepted by the backend", c.Feature)
	}
	_, err = fmt.Fprintf(e.out, "%s set to %s\n", c.Feature, strconv.FormatFloat(c.Percentage, 'g', -1, 64))
	return err
}

type deleteCmd struct {
	Feature string `arg:"" help:"Feature id."`
}

func (c *deleteCmd) Run(e *env) error {
	if err := e.lookup.DeletePercentage(e.ctx, c.Feature); err != nil {
		return err
	}
	_, err := fmt.Fprintf(e.out, "%s deleted\n", c.Feature)
	return err
}

type checkCmd struct {
	Feature        string   `arg:"" help:"Feature id."`
	Discriminators []string `arg:"" help:"Discriminators to evaluate, usually user ids."`
}

// Run goes through the same cache and evaluator path IsEnabled takes in a
// service. The record is read first because IsEnabled hides backend errors.
func (c *checkCmd) Run(e *env) error {
	if _, _, err := e.lookup.LookupPercentage(e.ctx, c.Feature); err != nil {
		return err
	}

	client, err := feature.New(feature.Config{Lookup: e.lookup, Logger: e.log, SweepInterval: -1})
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	for _, d := range c.Discriminators {
		if _, err := fmt.Fprintf(e.out, "%s\t%t\n", d, client.IsEnabled(e.ctx, c.Feature, d)); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, featurebackend.Open))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, open opener) int {
	var c cli
	parser, err := kong.New(&c,
		kong.Name("featurectl"),
		kong.Description("Inspect and change feature rollouts."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
	)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%s", err)
		return 2
	}

	if err := execute(ctx, c, kctx, stdout, stderr, open); err != nil {
		fmt.Fprintf(stderr, "featurectl: %v\n", err)
		return 1
	}
	return 0
}

func execute(ctx context.Context, c cli, kctx *kong.Context, stdout, stderr io.Writer, open opener) error {
	var opts []config.Option
	if len(c.EnvFile) > 0 {
		opts = append(opts, config.WithEnvFiles(c.EnvFile...))
	}
	if c.Prefix != "" {
		opts = append(opts, config.WithPrefix(c.Prefix))
	}

	var cfg featurebackend.Config
	if err := config.Load(&cfg, opts...); err != nil {
		return err
	}
	if c.Backend != "" {
		cfg.Backend = c.Backend
	}

	log := logger.Discard()
	if c.Verbose {
		log = logger.New(logger.WithOutput(stderr), logger.WithTextFormatter(), logger.WithLevel(slog.LevelDebug))
	}

	backend, err := open(ctx, cfg, log, opts...)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close(context.WithoutCancel(ctx)) }()

	lookup := feature.LoggingLookupDecorator(log)(backend.Lookup)
	return kctx.Run(&env{ctx: ctx, out: stdout, lookup: lookup, log: log})
}
