package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"chipforge/internal/codec"
	"chipforge/internal/config"
	"chipforge/internal/domain"
	"chipforge/internal/erc"
	"chipforge/internal/loader"
	"chipforge/internal/watcher"
)

// errChecksFailed makes the process exit 1 without logging anything further
var errChecksFailed = errors.New("one or more designs failed ERC")

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// command describes a CLI subcommand.
type command struct {
	name  string
	short string
	usage string
	long  string
	run   func(args []string) error
}

var commands = []command{
	{
		name:  "check",
		short: "Run the AHB rule checks on design files",
		usage: "erc check [-strict] [-lenient] [-format text|json|yaml] [-config path] <file>...",
		long: `Load each design file (YAML or JSON, by extension) and run the AHB
electrical rule checks on it. Files are checked concurrently; results
are printed in argument order.

Exits with status 1 when any file fails to load or reports an error.
Warnings alone do not fail the check.
`,
		run: runCheck,
	},
	{
		name:  "watch",
		short: "Re-check design files whenever they change",
		usage: "erc watch [-strict] [-lenient] [-config path] <file>...",
		long: `Check the files once, then re-check each one every time it is saved.
The debounce period comes from watch.debounce in the config file.
Stops on Ctrl-C.
`,
		run: runWatch,
	},
	{
		name:  "export",
		short: "Convert a design between YAML and JSON",
		usage: "erc export -format json|yaml [-o file] <file>",
		long: `Load a design file and write it in the requested format, to stdout
or to the file named by -o. The design must have no dangling references.
`,
		run: runExport,
	},
	{
		name:  "config",
		short: "Show the effective configuration",
		usage: "erc config [-config path] [-init] [-o file]",
		long: `Print which config file is in use and the settings it resolves to.

With -init, write a default config file to -o, or to
$XDG_CONFIG_HOME/chipforge/config.yaml (~/.config/chipforge/config.yaml
when XDG_CONFIG_HOME is unset). An existing file is never overwritten.
`,
		run: runConfig,
	},
	{
		name:  "rules",
		short: "List the rules the checker runs",
		usage: "erc rules",
		long: `Print the per-bus rules followed by the design-wide rules, in the
order the checker runs them.
`,
		run: runRules,
	},
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "erc - AMBA AHB electrical rule checker\n\n")
	fmt.Fprintf(w, "Usage:\n  erc <command> [arguments]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.short)
	}
	fmt.Fprintf(w, "\nRun 'erc help <command>' for details on a specific command.\n")
}

func printCommandHelp(w io.Writer, name string) {
	for _, cmd := range commands {
		if cmd.name == name {
			fmt.Fprintf(w, "Usage: %s\n\n%s", cmd.usage, cmd.long)
			return
		}
	}
	fmt.Fprintf(w, "erc: unknown command %q\n\nRun 'erc help' for usage.\n", name)
}

func dispatch(args []string) error {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		printUsage(stdout)
		return nil
	}
	if args[0] == "help" {
		if len(args) >= 2 {
			printCommandHelp(stdout, args[1])
		} else {
			printUsage(stdout)
		}
		return nil
	}
	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(args[1:])
		}
	}
	return fmt.Errorf("unknown command %q\n\nRun 'erc help' for usage.", args[0])
}

// ---------------------------------------------------------------------------
// shared flags
// ---------------------------------------------------------------------------

type checkFlags struct {
	strict     bool
	lenient    bool
	configPath string
}

func (f *checkFlags) register(fs *flag.FlagSet) {
	fs.BoolVar(&f.strict, "strict", false, "report connectivity findings as errors")
	fs.BoolVar(&f.lenient, "lenient", false, "skip the connectivity pass")
	fs.StringVar(&f.configPath, "config", "", "config file path")
}

// load resolves the config file and applies flag overrides to its ERC options
func (f *checkFlags) load() (*config.Config, erc.Options, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.configPath != "" {
		cfg, _, err = config.LoadFromPath(f.configPath)
	} else {
		cfg, _, err = config.Load()
	}
	if err != nil {
		return nil, erc.Options{}, err
	}

	opts := cfg.EffectiveERCOptions()
	if f.lenient {
		opts.Connectivity = false
	}
	if f.strict {
		opts.Strict = true
		opts.Connectivity = true
	}
	return cfg, opts, nil
}

// ---------------------------------------------------------------------------
// check
// ---------------------------------------------------------------------------

// fileResult is one checked file, as printed by -format json|yaml
type fileResult struct {
	File      string   `json:"file" yaml:"file"`
	DesignID  string   `json:"design_id,omitempty" yaml:"design_id,omitempty"`
	Name      string   `json:"name,omitempty" yaml:"name,omitempty"`
	LoadError string   `json:"load_error,omitempty" yaml:"load_error,omitempty"`
	Errors    []string `json:"errors" yaml:"errors"`
	Warnings  []string `json:"warnings" yaml:"warnings"`

	size   uint64
	design *domain.Design
}

func (r *fileResult) failed() bool {
	return r.LoadError != "" || len(r.Errors) > 0
}

func checkFile(path string, engine *erc.Engine) *fileResult {
	res := &fileResult{File: path, Errors: []string{}, Warnings: []string{}}

	if info, err := os.Stat(path); err == nil {
		res.size = uint64(info.Size())
	}

	design, err := loader.LoadFile(path)
	if err != nil {
		res.LoadError = err.Error()
		return res
	}
	res.design = design
	res.DesignID = design.ID
	res.Name = design.Name

	result := engine.Validate(design)
	res.Errors = result.Errors
	res.Warnings = result.Warnings
	return res
}

// checkFiles validates files concurrently, keeping argument order
func checkFiles(paths []string, engine *erc.Engine, workers int) []*fileResult {
	results := make([]*fileResult, len(paths))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			results[i] = checkFile(path, engine)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func runCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var flags checkFlags
	flags.register(fs)
	format := fs.String("format", "text", "output format: text, json or yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: erc check [-strict] [-format text|json|yaml] <file>...")
	}

	cfg, opts, err := flags.load()
	if err != nil {
		return err
	}

	results := checkFiles(fs.Args(), erc.New(opts), cfg.Validate.Workers)

	if err := printResults(stdout, results, *format); err != nil {
		return err
	}

	for _, r := range results {
		if r.failed() {
			return errChecksFailed
		}
	}
	return nil
}

func printResults(w io.Writer, results []*fileResult, format string) error {
	switch format {
	case "text", "":
		for _, r := range results {
			printText(w, r)
		}
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(results); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q, must be text, json or yaml", format)
	}
}

func printText(w io.Writer, r *fileResult) {
	if r.LoadError != "" {
		fmt.Fprintf(w, "%s: LOAD FAILED\n  %s\n", r.File, r.LoadError)
		return
	}

	status := "PASS"
	if r.failed() {
		status = "FAIL"
	}
	fmt.Fprintf(w, "%s (%s, %d components, %d nets, %s): %s\n",
		r.File, r.Name, len(r.design.Components), len(r.design.Nets), humanize.Bytes(r.size), status)
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  error: %s\n", e)
	}
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warn)
	}
	if len(r.Errors)+len(r.Warnings) > 0 {
		fmt.Fprintf(w, "  %s, %s\n",
			plural(len(r.Errors), "error"), plural(len(r.Warnings), "warning"))
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return humanize.Comma(int64(n)) + " " + noun + "s"
}

// ---------------------------------------------------------------------------
// watch
// ---------------------------------------------------------------------------

func runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var flags checkFlags
	flags.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: erc watch [-strict] <file>...")
	}

	cfg, opts, err := flags.load()
	if err != nil {
		return err
	}
	engine := erc.New(opts)

	for _, r := range checkFiles(fs.Args(), engine, cfg.Validate.Workers) {
		printText(stdout, r)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := watcher.New(func(path string) {
		printText(stdout, checkFile(path, engine))
	}, fs.Args()...).WithDebounce(cfg.Watch.Debounce.Duration())

	if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// export
// ---------------------------------------------------------------------------

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.String("format", "", "target format: json or yaml")
	out := fs.String("o", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *format == "" {
		return fmt.Errorf("usage: erc export -format json|yaml [-o file] <file>")
	}

	c, err := codec.ForFormat(*format)
	if err != nil {
		return err
	}

	design, err := loader.LoadFile(fs.Arg(0))
	if err != nil {
		return err
	}

	if *out == "" {
		return c.Export(design, stdout)
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", *out, err)
	}
	if err := c.Export(design, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "wrote %s\n", filepath.Clean(*out))
	return nil
}

// ---------------------------------------------------------------------------
// config
// ---------------------------------------------------------------------------

func runConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file path")
	initFile := fs.Bool("init", false, "write a default config file")
	out := fs.String("o", "", "target of -init")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *initFile {
		target := *out
		if target == "" {
			target = config.DefaultConfigPath()
		}
		if _, err := os.Stat(target); err == nil {
			return fmt.Errorf("%s already exists", target)
		}
		if err := config.DefaultConfig().Save(target); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
		fmt.Fprintf(stdout, "wrote %s\n", target)
		return nil
	}

	var (
		cfg  *config.Config
		path string
		err  error
	)
	if *configPath != "" {
		cfg, path, err = config.LoadFromPath(*configPath)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return err
	}

	if path == "" {
		path = "(none found, using defaults)"
	}
	fmt.Fprintf(stdout, "Config file: %s\n%s\n", path, cfg.Summary())
	return nil
}

// ---------------------------------------------------------------------------
// rules
// ---------------------------------------------------------------------------

func runRules(args []string) error {
	for i, name := range erc.RuleNames() {
		fmt.Fprintf(stdout, "%2d  %s\n", i+1, name)
	}
	return nil
}

func main() {
	if err := dispatch(os.Args[1:]); err != nil {
		if errors.Is(err, errChecksFailed) {
			os.Exit(1)
		}
		log.Fatal(err)
	}
}
