package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/urfave/cli/v2"

	params "github.com/goliatone/go-params"
	"github.com/goliatone/go-params/pkg/activity"
	"github.com/goliatone/go-params/pkg/loader"
)

const (
	exitFailure  = 1
	exitUsage    = 2
	exitNotFound = 3
)

type app struct {
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
	conf   *params.Configuration
}

func newApp(stdout, stderr io.Writer) *cli.App {
	a := &app{
		stdout: stdout,
		stderr: stderr,
		logger: slog.New(slog.DiscardHandler),
	}

	prefixFlag := &cli.StringFlag{Name: "prefix", Aliases: []string{"p"}, Usage: "scope the lookup under `PREFIX`"}

	return &cli.App{
		Name:           "paramctl",
		Usage:          "inspect, resolve and check parameter documents",
		Writer:         stdout,
		ErrWriter:      stderr,
		HideVersion:    true,
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "config", Aliases: []string{"c"}, Usage: "parameter document `FILE`; later files override earlier ones"},
			&cli.StringSliceFlag{Name: "dropins", Usage: "`DIR` of drop-in documents applied over --config"},
			&cli.StringFlag{Name: "log-level", Value: "warn", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "log-format", Value: "text", Usage: "text or json"},
		},
		Before: func(c *cli.Context) error {
			a.logger = newLogger(a.stderr, c.String("log-level"), c.String("log-format"))
			return nil
		},
		After: func(*cli.Context) error {
			if a.conf != nil {
				stats := a.conf.Stats()
				a.logger.Debug("params stats",
					"lookups", stats.Lookups,
					"resolutions", stats.Resolutions,
					"failures", stats.Failures,
				)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "print the values of a parameter",
				ArgsUsage: "NAME",
				Flags: []cli.Flag{
					prefixFlag,
					&cli.BoolFlag{Name: "raw", Usage: "skip variable resolution"},
				},
				Action: a.get,
			},
			{
				Name:      "resolve",
				Usage:     "expand {$name} variables in each VALUE",
				ArgsUsage: "VALUE...",
				Action:    a.resolve,
			},
			{
				Name:  "dump",
				Usage: "list every effective parameter",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "resolved", Usage: "expand variables in the listed values"},
					&cli.BoolFlag{Name: "json", Usage: "print JSON"},
				},
				Action: a.dump,
			},
			{
				Name:      "trace",
				Usage:     "print which precedence tier answers a lookup",
				ArgsUsage: "NAME",
				Flags:     []cli.Flag{prefixFlag},
				Action:    a.trace,
			},
			{
				Name:  "merge",
				Usage: "inherit missing entries from a parent document and list the result",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "parent", Usage: "parent document `FILE`", Required: true},
					&cli.BoolFlag{Name: "report", Usage: "print each inherit and override decision"},
				},
				Action: a.merge,
			},
			{
				Name:  "check",
				Usage: "evaluate document rules and --rule expressions",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "rule", Aliases: []string{"r"}, Usage: "rule as `NAME=EXPR` or a bare expression"},
					&cli.StringFlag{Name: "engine", Value: "expr", Usage: "expr, cel or js"},
				},
				Action: a.check,
			},
		},
	}
}

func (a *app) storeOptions() []params.Option {
	return []params.Option{
		params.WithLogger(a.logger),
		params.WithHooks(activity.LogHook{Logger: a.logger}),
	}
}

func (a *app) loader() *loader.Loader {
	return loader.New(
		loader.WithLogger(a.logger),
		loader.WithStoreOptions(a.storeOptions()...),
	)
}

// load builds the configuration from --config files, then applies every
// --dropins directory over it. With neither flag the default document is read.
func (a *app) load(c *cli.Context, opts ...params.Option) (*params.Configuration, []params.Rule, error) {
	l := a.loader()
	configs := c.StringSlice("config")
	dropins := c.StringSlice("dropins")

	var (
		store *params.Store
		rules []params.Rule
	)
	switch {
	case len(configs) > 0:
		merged, docRules, err := l.Merge(configs...)
		if err != nil {
			return nil, nil, err
		}
		store, rules = merged, docRules
	case len(dropins) == 0:
		doc, err := l.LoadWithFallback("")
		if err != nil {
			return nil, nil, err
		}
		store, rules = doc.Store(a.storeOptions()...), doc.Rules
	default:
		store = params.NewStore(a.storeOptions()...)
	}

	for _, dir := range dropins {
		layer, layerRules, err := l.LoadDropIns(dir)
		if err != nil {
			return nil, nil, err
		}
		if err := params.InheritAndOverride(layer, store, params.WithMergePrefix("drop-in")); err != nil {
			return nil, nil, err
		}
		store = layer
		rules = append(rules, layerRules...)
	}

	all := append(slices.Clone(a.storeOptions()), opts...)
	a.conf = params.FromStore(store, all...)
	return a.conf, rules, nil
}

func (a *app) get(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("get expects exactly one NAME", exitUsage)
	}
	conf, _, err := a.load(c)
	if err != nil {
		return err
	}
	name, prefix := c.Args().First(), c.String("prefix")

	var p *params.Parameter
	if c.Bool("raw") {
		p, _ = conf.ScopedParamRaw(prefix, name)
	} else if p, err = conf.ScopedParam(prefix, name); err != nil {
		return err
	}
	if p == nil {
		return cli.Exit(fmt.Sprintf("parameter %q not found", name), exitNotFound)
	}
	for _, value := range p.Values() {
		fmt.Fprintln(a.stdout, value)
	}
	return nil
}

func (a *app) resolve(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("resolve expects at least one VALUE", exitUsage)
	}
	conf, _, err := a.load(c)
	if err != nil {
		return err
	}
	resolved, err := conf.ResolveAll(c.Args().Slice())
	if err != nil {
		return err
	}
	for _, value := range resolved {
		fmt.Fprintln(a.stdout, value)
	}
	return nil
}

func (a *app) dump(c *cli.Context) error {
	conf, _, err := a.load(c)
	if err != nil {
		return err
	}
	return a.printEntries(conf, c.Bool("resolved"), c.Bool("json"))
}

func (a *app) printEntries(conf *params.Configuration, resolved, asJSON bool) error {
	entries := conf.Flatten()
	if resolved {
		for i, entry := range entries {
			values, err := conf.ResolveAll(entry.Values)
			if err != nil {
				return fmt.Errorf("%s: %w", entry.Name, err)
			}
			entries[i].Values = values
		}
	}
	if asJSON {
		payload, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, string(payload))
		return nil
	}
	for _, entry := range entries {
		fmt.Fprintf(a.stdout, "%s=%s\t# %s\n", entry.Name, strings.Join(entry.Values, ","), entry.Source)
	}
	return nil
}

func (a *app) trace(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("trace expects exactly one NAME", exitUsage)
	}
	conf, _, err := a.load(c)
	if err != nil {
		return err
	}
	payload, err := conf.Trace(c.String("prefix"), c.Args().First()).ToJSON()
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, string(payload))
	return nil
}

func (a *app) merge(c *cli.Context) error {
	conf, _, err := a.load(c)
	if err != nil {
		return err
	}
	parent, _, err := a.loader().LoadStore(c.String("parent"))
	if err != nil {
		return err
	}

	capture := &activity.CaptureHook{}
	if err := params.InheritAndOverride(conf.Store(), parent, params.WithMergeHooks(capture)); err != nil {
		return err
	}
	if c.Bool("report") {
		for _, event := range capture.Events {
			fmt.Fprintf(a.stdout, "# %s %s %s (%s <- %s)\n",
				strings.TrimPrefix(event.Verb, "params."), event.ObjectType, event.ObjectID, event.Layer, event.Source)
		}
	}
	return a.printEntries(conf, false, false)
}

func (a *app) check(c *cli.Context) error {
	evaluator, err := evaluatorFor(c.String("engine"))
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	conf, rules, err := a.load(c, params.WithEvaluator(evaluator))
	if err != nil {
		return err
	}
	for _, raw := range c.StringSlice("rule") {
		rules = append(rules, parseRule(raw))
	}
	if len(rules) == 0 {
		fmt.Fprintln(a.stdout, "no rules to check")
		return nil
	}
	if err := conf.CheckRules(rules...); err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}
	fmt.Fprintf(a.stdout, "%d rules passed\n", len(rules))
	return nil
}

func evaluatorFor(engine string) (params.Evaluator, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", "expr":
		return params.NewExprEvaluator(), nil
	case "cel":
		return params.NewCELEvaluator(), nil
	case "js":
		if !params.JSEvaluatorAvailable() {
			return nil, errors.New("js engine requires a build with the js_eval tag")
		}
		return params.NewJSEvaluator(), nil
	default:
		return nil, fmt.Errorf("unknown engine %q", engine)
	}
}

var ruleName = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// parseRule splits NAME=EXPR. Input whose left side is not a plain name, such
// as "a==b" or "a<=b", is taken as a bare expression.
func parseRule(raw string) params.Rule {
	name, expr, ok := strings.Cut(raw, "=")
	if !ok || !ruleName.MatchString(name) || strings.HasPrefix(expr, "=") {
		return params.Rule{Expr: strings.TrimSpace(raw)}
	}
	return params.Rule{Name: name, Expr: strings.TrimSpace(expr)}
}

func exitCode(err error) int {
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return exitFailure
}
