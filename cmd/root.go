package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/oakwood-commons/dvx/internal/config"
	"github.com/oakwood-commons/dvx/internal/formatter"
	"github.com/oakwood-commons/dvx/internal/limiter"
	"github.com/oakwood-commons/dvx/internal/loader"
	"github.com/oakwood-commons/dvx/internal/ui"
	"github.com/oakwood-commons/dvx/pkg/dataview"
	"github.com/oakwood-commons/dvx/pkg/filter"
	"github.com/oakwood-commons/dvx/pkg/logger"
	"github.com/oakwood-commons/dvx/pkg/record"
	"github.com/oakwood-commons/dvx/pkg/settings"
	"github.com/oakwood-commons/dvx/pkg/slot"
	"github.com/oakwood-commons/dvx/pkg/viewport"
)

var (
	interactive   bool
	watch         bool
	output        string
	inputFormat   string
	expression    string
	whereExpr     string
	searchTerm    string
	filterFlags   columnFilters
	tableSort     sortFlag
	cardSort      sortFlag
	viewName      string
	width         int
	height        int
	limitRecords  int
	offsetRecords int
	tailRecords   int
	configFile    string
	locale        string
	debug         bool
	noColor       bool
	sqlitePath    string
	sqliteQuery   string
)

var rootCtx = context.Background()

// ExitError carries the process exit code for an error.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode maps err to a process exit code: 0 for nil, 2 for invalid flags
// and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return 1
}

func usageError(err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: 2, Err: err}
}

var rootCmd = &cobra.Command{
	Use:   "dvx [file]",
	Short: getCLIShortHelp(),
	Long:  getCLILongHelp(),
	Example: "\n  dvx people.json\n" +
		"  dvx people.yaml --sort age:desc --limit 10\n" +
		"  dvx report.json -e '_.items' --where '_.active' -o cards\n" +
		"  dvx people.csv --filter team=core --view mobile\n" +
		"  dvx --sqlite app.db --query 'select * from users' -i\n" +
		"  cat people.ndjson | dvx --search ana -o json\n",
	Args: func(cmd *cobra.Command, args []string) error {
		return usageError(cobra.MaximumNArgs(1)(cmd, args))
	},
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		// debug => zap.DebugLevel (-1), else zap.InfoLevel (0)
		var level int8
		if debug {
			level = -1
		}
		lgr := logger.Get(level)
		lgr = logger.WithValues(lgr, logger.RootCommandKey, settings.CliBinaryName, logger.SubCommandKey, cmd.Name())
		rootCtx = logger.WithLogger(context.Background(), lgr)
	},
	RunE: runRoot,
}

func runRoot(cmd *cobra.Command, args []string) error {
	if err := validateFlags(); err != nil {
		return usageError(err)
	}
	lgr := *logger.FromContext(rootCtx)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	run, err := runSettings(cfg)
	if err != nil {
		return usageError(err)
	}
	format, err := outputFormat(cfg)
	if err != nil {
		return usageError(err)
	}
	ctx := settings.IntoContext(rootCtx, run)

	src, err := newRecordSource(args, cmd.InOrStdin(), run, lgr)
	if errors.Is(err, errShowHelp) {
		return cmd.Help()
	}
	if err != nil {
		return err
	}
	records, err := src.Load(ctx)
	if err != nil {
		return err
	}
	lgr.V(1).Info("loaded records", logger.SourceKey, src.Name(), logger.RecordsKey, len(records))

	size := resolveSize(cfg)
	vcfg, err := viewConfig(cfg, records, size, lgr)
	if err != nil {
		return err
	}
	if run.Interactive {
		return runInteractive(ctx, cfg, vcfg, src, lgr)
	}

	opts := formatter.Options{
		Width:      size.Width,
		NoColor:    plainOutput(ctx),
		CardFields: cfg.Defaults.CardFields,
		Title:      cfg.App.Name,
	}
	vcfg.Slots = viewSlots(vcfg.Views, opts)
	ctrl, err := dataview.New(vcfg)
	if err != nil {
		return err
	}
	if err := applyView(ctrl, cfg); err != nil {
		return err
	}
	return renderOnce(ctx, cmd.OutOrStdout(), ctrl, format, cfg, opts)
}

func loadConfig() (config.Config, error) {
	path := config.ResolvePath(configFile)
	if locale != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg.Locale = locale
		if _, err := cfg.Language(); err != nil {
			return cfg, usageError(fmt.Errorf("--locale: %w", err))
		}
		return cfg, nil
	}
	return config.Load(path)
}

func runSettings(cfg config.Config) (*settings.Run, error) {
	run := settings.NewCliParams()
	if debug {
		run.MinLogLevel = -1
	}
	if _, err := loader.ParseFormat(inputFormat); err != nil {
		return nil, err
	}
	run.Input.Format = inputFormat
	run.Interactive = interactive
	run.NoColor = noColor
	run.Locale = cfg.Locale
	return run, nil
}

func outputFormat(cfg config.Config) (formatter.Format, error) {
	name := output
	if name == "" {
		name = cfg.Defaults.Output
	}
	return formatter.ParseFormat(name)
}

func resolveSize(cfg config.Config) viewport.Size {
	w, h := width, height
	if w <= 0 {
		w = cfg.Defaults.Width
	}
	if h <= 0 {
		h = cfg.Defaults.Height
	}
	if w <= 0 || h <= 0 {
		dw, dh := detectTerminalSize()
		if w <= 0 {
			w = dw
		}
		if h <= 0 {
			h = dh
		}
	}
	if w <= 0 {
		w = defaultFallbackTermWidth
	}
	if h <= 0 {
		h = defaultFallbackTermHeight
	}
	return viewport.Size{Width: w, Height: h}
}

// initialState builds the filter state from flags, falling back to the
// configured default sort when no sort flag is given.
func initialState(cfg config.Config) (filter.State, error) {
	st := filter.State{FreeText: strings.TrimSpace(searchTerm)}
	if len(filterFlags) > 0 {
		st.Columns = make(map[string]string, len(filterFlags))
		for k, v := range filterFlags {
			if v != "" {
				st.Columns[k] = v
			}
		}
	}
	st.TableSort, st.CardSort = tableSort.spec, cardSort.spec
	if st.TableSort.IsZero() && st.CardSort.IsZero() {
		var err error
		if st.TableSort, err = parseSort(cfg.Defaults.Sort); err != nil {
			return st, fmt.Errorf("defaults.sort: %w", err)
		}
		if st.TableSort.IsZero() {
			if st.CardSort, err = parseSort(cfg.Defaults.CardSort); err != nil {
				return st, fmt.Errorf("defaults.card_sort: %w", err)
			}
		}
	}
	return st, nil
}

func viewConfig(cfg config.Config, records []record.Record, size viewport.Size, lgr logr.Logger) (dataview.Config, error) {
	lang, err := cfg.Language()
	if err != nil {
		return dataview.Config{}, err
	}
	st, err := initialState(cfg)
	if err != nil {
		return dataview.Config{}, err
	}
	return dataview.Config{
		Columns:     cfg.Columns,
		Records:     records,
		Breakpoints: cfg.Breakpoints,
		Views:       cfg.Views,
		Width:       size.Width,
		Height:      size.Height,
		Language:    lang,
		State:       st,
		Logger:      lgr.WithName("dataview"),
	}, nil
}

// applyView sets the manual override from --view or the configured default.
func applyView(ctrl *dataview.Controller, cfg config.Config) error {
	if viewName != "" {
		if err := ctrl.SetManualOverride(viewport.ViewKey(viewName)); err != nil {
			return usageError(fmt.Errorf("--view: %w", err))
		}
		return nil
	}
	if cfg.Defaults.View != "" {
		return ctrl.SetManualOverride(viewport.ViewKey(cfg.Defaults.View))
	}
	return nil
}

// plainOutput reports whether colors are disabled for this run.
func plainOutput(ctx context.Context) bool {
	if run, ok := settings.FromContext(ctx); ok {
		return run.NoColor
	}
	return noColor
}

// viewSlots installs the one-shot renderers as view defaults, laid out like
// the interactive views: the first view draws the table, tablet draws cards,
// and any other view falls back along the chain.
func viewSlots(views []viewport.View, opts formatter.Options) func(*slot.Builder) {
	if views == nil {
		views = viewport.DefaultViews()
	}
	keys := viewport.Keys(views)
	draw := func(f formatter.Format) slot.Producer {
		return func(ctx slot.Context) any {
			shown := limiter.Apply(limitConfig(), ctx.Records)
			switch f {
			case formatter.FormatCards:
				return formatter.RenderCards(ctx.Columns, shown, opts)
			default:
				return formatter.RenderTable(ctx.Columns, shown, opts)
			}
		}
	}
	return func(b *slot.Builder) {
		if len(keys) > 0 {
			b.DefaultView(keys[0], draw(formatter.FormatTable))
		}
		if len(keys) > 1 && slices.Contains(keys[1:], viewport.Tablet) {
			b.DefaultView(viewport.Tablet, draw(formatter.FormatCards))
		}
	}
}

func limitConfig() limiter.Config {
	return limiter.Config{Limit: limitRecords, Offset: offsetRecords, Tail: tailRecords}
}

func renderOnce(ctx context.Context, w io.Writer, ctrl *dataview.Controller, format formatter.Format, cfg config.Config, opts formatter.Options) error {
	lgr := *logger.FromContext(ctx)
	derived := ctrl.Derived()
	lim := limitConfig()

	if !opts.NoColor {
		th := cfg.Theme
		formatter.SetTheme(formatter.ThemeFromHex(th.Accent, th.Header, th.Border, th.Muted, th.Selected))
	}

	if format == formatter.FormatAuto {
		active := ctrl.ActiveView()
		source, _, _ := ctrl.Composer().ResolveView(active)
		lgr.V(1).Info("rendering",
			logger.FormatKey, string(format),
			logger.ViewKey, string(active),
			"source", string(source),
			logger.RecordsKey, lim.Describe(len(derived)))
		out, ok := ctrl.RenderActiveView()
		if !ok {
			return fmt.Errorf("no content for view %q", active)
		}
		_, err := fmt.Fprint(w, out)
		return err
	}

	lgr.V(1).Info("rendering",
		logger.FormatKey, string(format),
		logger.ViewKey, string(ctrl.ActiveView()),
		logger.RecordsKey, lim.Describe(len(derived)))
	return formatter.Render(w, format, ctrl.Columns(), limiter.Apply(lim, derived), opts)
}

func runInteractive(ctx context.Context, cfg config.Config, vcfg dataview.Config, src *recordSource, lgr logr.Logger) error {
	m, err := ui.New(vcfg, ui.Options{
		AppName:    cfg.App.Name,
		HelpText:   cfg.App.Help,
		Theme:      cfg.Theme,
		NoColor:    plainOutput(ctx),
		CardFields: cfg.Defaults.CardFields,
		FixedSize:  width > 0 && height > 0,
		Logger:     lgr,
	})
	if err != nil {
		return err
	}
	if err := applyView(m.Controller(), cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	opts, cleanup := getProgramOptions(gctx)
	defer cleanup()
	p := ui.NewProgram(gctx, m, opts...)

	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	if watch && src.Watchable() {
		fw := newFileWatcher(src.input.Path, src.Load, p.Send, lgr.WithName("watch"))
		g.Go(func() error { return fw.Run(gctx) })
	}
	return g.Wait()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() { //nolint:gochecknoinits
	f := rootCmd.Flags()
	f.BoolVarP(&interactive, "interactive", "i", false, "start the interactive collection view")
	f.BoolVar(&watch, "watch", false, "reload the data file when it changes (with -i)")
	f.StringVarP(&output, "output", "o", "", "output format: "+strings.Join(formatNames(), "|")+" (default from config or auto)")
	f.StringVar(&inputFormat, "format", "", "input format: auto|json|ndjson|yaml|toml|csv")
	f.StringVarP(&expression, "expression", "e", "_", "CEL expression selecting the collection, '_' is the document root. Example: '_.items'")
	f.StringVar(&whereExpr, "where", "", "CEL predicate applied to each record, '_' is the record. Example: '_.age > 30'")
	f.StringVar(&searchTerm, "search", "", "search all columns (case-insensitive)")
	f.Var(&filterFlags, "filter", "filter a column: key=value (repeatable)")
	f.Var(&tableSort, "sort", "table sort: field[:asc|desc]")
	f.Var(&cardSort, "card-sort", "card sort: field[:asc|desc]")
	f.StringVar(&viewName, "view", "", "force a view instead of choosing by width (e.g. desktop, tablet, mobile)")
	f.IntVar(&width, "width", 0, "output width in columns (affects the active view)")
	f.IntVar(&height, "height", 0, "output height in rows")
	f.IntVar(&limitRecords, "limit", 0, "limit total number of records displayed")
	f.IntVar(&offsetRecords, "offset", 0, "skip the first N records")
	f.IntVar(&tailRecords, "tail", 0, "show the last N records (mutually exclusive with --limit; ignores --offset)")
	f.StringVar(&sqlitePath, "sqlite", "", "read records from a SQLite database (requires --query)")
	f.StringVar(&sqliteQuery, "query", "", "SQL query for --sqlite")
	f.StringVar(&locale, "locale", "", "BCP 47 locale used to order strings (default from config)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config-file", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging on stderr")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable color output")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})
	rootCmd.Version = cliVersionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func formatNames() []string {
	names := make([]string, len(formatter.Formats))
	for i, f := range formatter.Formats {
		names[i] = string(f)
	}
	return names
}
