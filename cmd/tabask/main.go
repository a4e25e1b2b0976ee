package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/vegasq/tabask/config"
	"github.com/vegasq/tabask/logging"
	"github.com/vegasq/tabask/narrative"
	"github.com/vegasq/tabask/output"
	"github.com/vegasq/tabask/query"
	"github.com/vegasq/tabask/reader"
	"github.com/vegasq/tabask/server"
	"github.com/vegasq/tabask/table"
)

// stringList collects a repeatable flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, "; ") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type options struct {
	question   string
	format     string
	limit      int
	schema     bool
	plan       bool
	match      string
	ask        string
	sql        stringList
	dsn        string
	serve      string
	configPath string
	pattern    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], afero.NewOsFs(), os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func newFlagSet(opts *options, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("tabask", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.question, "q", "", "Question about the data (e.g., \"total sales in March 2023\")")
	fs.StringVar(&opts.format, "f", "", "Output format: jsonl, json, csv, table, xlsx (default from config, jsonl)")
	fs.IntVar(&opts.limit, "limit", -1, "Limit number of rows (0 = unlimited, default from config)")
	fs.BoolVar(&opts.schema, "schema", false, "Show schema information instead of data")
	fs.BoolVar(&opts.plan, "plan", false, "Print the parsed plan for -q as JSON instead of executing it")
	fs.StringVar(&opts.match, "match", "", "Find the column a token refers to")
	fs.StringVar(&opts.ask, "ask", "", "Ask the narrative service about the data (or about the -q result)")
	fs.Var(&opts.sql, "sql", "SQL query to load data from -dsn (repeatable)")
	fs.StringVar(&opts.dsn, "dsn", "", "Database for -sql: postgres://..., sqlite:///path, duckdb://path or a DuckDB path (empty = in-memory)")
	fs.StringVar(&opts.serve, "serve", "", "Serve the HTTP API on this address instead of printing results")
	fs.StringVar(&opts.configPath, "config", "", "Config file (yaml, toml or json)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: tabask [options] <file|glob>\n\n")
		fmt.Fprintf(stderr, "Ask plain-language questions about CSV, Parquet, Excel or SQL data.\n\n")
		fmt.Fprintf(stderr, "IMPORTANT: All flags must come BEFORE file arguments.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  tabask sales.csv\n")
		fmt.Fprintf(stderr, "  tabask -q \"total sales in March 2023\" sales.parquet\n")
		fmt.Fprintf(stderr, "  tabask -q \"average revenue for East\" -f table 'data/*.parquet'\n")
		fmt.Fprintf(stderr, "  tabask -plan -q \"max units in april\" sales.csv\n")
		fmt.Fprintf(stderr, "  tabask -q \"total sales for West\" -f xlsx sales.xlsx > west.xlsx\n")
		fmt.Fprintf(stderr, "  tabask -schema sales.parquet\n")
		fmt.Fprintf(stderr, "  tabask -match revnue sales.csv\n")
		fmt.Fprintf(stderr, "  tabask -dsn postgres://localhost/shop -sql \"select * from orders\" -q \"total amount\"\n")
		fmt.Fprintf(stderr, "  tabask -dsn sqlite:///shop.db -sql \"select * from orders\" -q \"average amount\"\n")
		fmt.Fprintf(stderr, "  tabask -serve :8080 sales.parquet\n")
	}
	return fs
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, fsys afero.Fs, stdout, stderr io.Writer) int {
	var opts options
	flags := newFlagSet(&opts, stderr)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if flags.NArg() >= 1 {
		opts.pattern = flags.Arg(0)
	}

	fail := func(format string, a ...interface{}) int {
		fmt.Fprintf(stderr, "Error: "+format+"\n", a...)
		return 1
	}

	if err := validateOptions(opts); err != nil {
		return fail("%v", err)
	}

	cfg, err := config.LoadFs(fsys, opts.configPath)
	if err != nil {
		return fail("%v", err)
	}
	applyFlags(cfg, opts)
	if err := cfg.Validate(); err != nil {
		return fail("%v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fail("%v", err)
	}
	defer func() { _ = logger.Sync() }()

	formatter, err := output.New(cfg.Output.Format, stdout)
	if err != nil {
		return fail("%v", err)
	}

	if opts.schema {
		if opts.pattern == "" {
			fmt.Fprintf(stderr, "Error: missing file argument\n\n")
			flags.Usage()
			return 1
		}
		if err := showSchema(fsys, opts.pattern, formatter, stderr); err != nil {
			return fail("%s", describeLoadError(opts.pattern, err))
		}
		return 0
	}

	if len(opts.sql) == 0 && opts.pattern == "" {
		fmt.Fprintf(stderr, "Error: missing file argument\n\n")
		flags.Usage()
		return 1
	}

	t, err := load(ctx, fsys, opts, cfg, logger)
	if err != nil {
		return fail("%s", describeLoadError(opts.pattern, err))
	}
	engine := query.NewEngine(t, logger)

	switch {
	case opts.serve != "":
		return serve(ctx, engine, cfg, logger, stderr)

	case opts.match != "":
		return printMatch(engine, opts.match, formatter, stderr)

	case opts.plan:
		data, err := json.MarshalIndent(engine.Parse(opts.question), "", "  ")
		if err != nil {
			return fail("failed to encode plan: %v", err)
		}
		fmt.Fprintln(stdout, string(data))
		return 0
	}

	result := t
	if opts.question != "" {
		_, result, err = engine.Run(opts.question)
		if err != nil {
			return fail("%v", err)
		}
	}

	if opts.ask != "" {
		return ask(ctx, cfg, logger, result, opts.ask, stdout, stderr)
	}

	if cfg.Output.Limit > 0 {
		result = result.Head(cfg.Output.Limit)
	}
	if err := formatter.Format(result); err != nil {
		return fail("failed to format output: %v", err)
	}
	return 0
}

func validateOptions(opts options) error {
	if opts.limit < -1 {
		return fmt.Errorf("-limit must be non-negative, got %d", opts.limit)
	}
	if opts.schema && (opts.question != "" || opts.plan || opts.match != "" || opts.ask != "" || opts.serve != "") {
		return errors.New("--schema cannot be combined with -q, -plan, -match, -ask or -serve")
	}
	if opts.schema && len(opts.sql) > 0 {
		return errors.New("--schema works on files, not -sql results")
	}
	if opts.plan && opts.question == "" {
		return errors.New("-plan requires -q")
	}
	if opts.serve != "" && (opts.question != "" || opts.match != "" || opts.ask != "" || opts.plan) {
		return errors.New("-serve cannot be combined with -q, -plan, -match or -ask")
	}
	if opts.match != "" && (opts.ask != "" || opts.plan) {
		return errors.New("-match cannot be combined with -plan or -ask")
	}
	if opts.ask != "" && opts.plan {
		return errors.New("-ask and -plan cannot be used together")
	}
	if len(opts.sql) > 0 && opts.pattern != "" {
		return errors.New("use either -sql or a file argument, not both")
	}
	return nil
}

// applyFlags lets explicitly set flags override the loaded configuration.
func applyFlags(cfg *config.Config, opts options) {
	if opts.format != "" {
		cfg.Output.Format = opts.format
	}
	if opts.limit >= 0 {
		cfg.Output.Limit = opts.limit
	}
	if opts.dsn != "" {
		cfg.Reader.DSN = opts.dsn
	}
	if opts.serve != "" {
		cfg.Server.Addr = opts.serve
	}
}

func load(ctx context.Context, fsys afero.Fs, opts options, cfg *config.Config, logger *zap.Logger) (*table.Table, error) {
	if len(opts.sql) > 0 {
		return reader.ReadSQL(ctx, cfg.Reader.DSN, opts.sql, logger)
	}
	readerOpts := cfg.ReaderOptions()
	readerOpts.Logger = logger
	return reader.ReadFiles(fsys, opts.pattern, readerOpts)
}

func describeLoadError(path string, err error) string {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Sprintf("file '%s' not found\nPlease check the file path and try again.", path)
	}
	return err.Error()
}

// showSchema prints the column schema of the file, or of the first match
// for a glob pattern.
func showSchema(fsys afero.Fs, pattern string, formatter output.Formatter, stderr io.Writer) error {
	path := pattern
	if strings.ContainsAny(pattern, "*?[") {
		matches, err := afero.Glob(fsys, pattern)
		if err != nil {
			return fmt.Errorf("invalid glob pattern: %w", err)
		}
		if len(matches) == 0 {
			return fmt.Errorf("no files match pattern: %s", pattern)
		}
		path = matches[0]
		if len(matches) > 1 {
			fmt.Fprintf(stderr, "# Showing schema from: %s (%d files matched)\n", path, len(matches))
		}
	}

	infos, err := reader.ExtractSchemaInfo(fsys, path)
	if err != nil {
		return err
	}
	return formatter.Format(schemaTable(infos))
}

func schemaTable(infos []reader.SchemaInfo) *table.Table {
	t := table.New(
		table.Column{Name: "name", Kind: table.KindCategorical},
		table.Column{Name: "kind", Kind: table.KindCategorical},
		table.Column{Name: "type", Kind: table.KindCategorical},
		table.Column{Name: "physical_type", Kind: table.KindCategorical},
		table.Column{Name: "logical_type", Kind: table.KindCategorical},
		table.Column{Name: "required", Kind: table.KindOther},
		table.Column{Name: "optional", Kind: table.KindOther},
		table.Column{Name: "repeated", Kind: table.KindOther},
	)
	for _, info := range infos {
		t.Append(table.Row{
			"name":          info.Name,
			"kind":          info.Kind.String(),
			"type":          info.Type,
			"physical_type": info.PhysicalType,
			"logical_type":  info.LogicalType,
			"required":      info.Required,
			"optional":      info.Optional,
			"repeated":      info.Repeated,
		})
	}
	return t
}

func printMatch(engine *query.Engine, token string, formatter output.Formatter, stderr io.Writer) int {
	matcher := engine.Matcher()
	candidate, score := matcher.Score(token)
	column, ok := matcher.Match(token)

	t := table.New(
		table.Column{Name: "token", Kind: table.KindCategorical},
		table.Column{Name: "column", Kind: table.KindCategorical},
		table.Column{Name: "candidate", Kind: table.KindCategorical},
		table.Column{Name: "score", Kind: table.KindNumeric},
		table.Column{Name: "matched", Kind: table.KindOther},
	)
	t.Append(table.Row{
		"token":     token,
		"column":    column,
		"candidate": candidate,
		"score":     score,
		"matched":   ok,
	})
	if err := formatter.Format(t); err != nil {
		fmt.Fprintf(stderr, "Error: failed to format output: %v\n", err)
		return 1
	}
	return 0
}

func ask(ctx context.Context, cfg *config.Config, logger *zap.Logger, t *table.Table, question string, stdout, stderr io.Writer) int {
	client, err := narrative.New(cfg.Narrative, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, narrative.Ask(ctx, client, t, question))
	return 0
}

func serve(ctx context.Context, engine *query.Engine, cfg *config.Config, logger *zap.Logger, stderr io.Writer) int {
	var gen narrative.Generator
	client, err := narrative.New(cfg.Narrative, logger)
	if err != nil {
		logger.Warn("narrative service disabled", zap.Error(err))
	} else {
		gen = client
	}

	handler := server.NewRouter(server.NewHandler(engine, gen, logger))
	err = server.ListenAndServe(ctx, server.Config{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, handler, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
