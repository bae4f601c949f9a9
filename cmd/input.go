package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/dvx/internal/expr"
	"github.com/oakwood-commons/dvx/internal/loader"
	"github.com/oakwood-commons/dvx/pkg/record"
	"github.com/oakwood-commons/dvx/pkg/settings"
)

// errShowHelp is returned by newRecordSource when no input is provided and
// help should be shown.
var errShowHelp = errors.New("no input provided")

// recordSource loads the collection: decode, select with the expression,
// convert to records and apply the --where predicate. Load can be called
// again to pick up changes.
type recordSource struct {
	input  settings.InputSettings
	stdin  io.Reader
	sqlite *loader.SQLiteSource

	selection string
	where     *expr.Predicate
	eval      *expr.Evaluator
	log       logr.Logger
}

func newRecordSource(args []string, stdin io.Reader, run *settings.Run, log logr.Logger) (*recordSource, error) {
	eval, err := expr.NewEvaluator(log.WithName("expr"))
	if err != nil {
		return nil, err
	}
	src := &recordSource{
		input:     run.Input,
		stdin:     stdin,
		selection: strings.TrimSpace(expression),
		eval:      eval,
		log:       log,
	}
	if src.selection == "" {
		src.selection = expr.RootVariable
	}
	if _, err := eval.Compile(src.selection); err != nil {
		return nil, err
	}
	if w := strings.TrimSpace(whereExpr); w != "" {
		p, err := eval.Predicate(w)
		if err != nil {
			return nil, fmt.Errorf("--where: %w", err)
		}
		src.where = p
	}

	switch {
	case sqlitePath != "":
		src.sqlite = &loader.SQLiteSource{Path: sqlitePath, Query: sqliteQuery}
		src.input = settings.InputSettings{Path: sqlitePath, Format: "sqlite"}
	case len(args) > 0:
		src.input.Path = args[0]
		src.input.FromStdin = args[0] == "-"
	case !stdinIsPiped():
		return nil, errShowHelp
	default:
		src.input.FromStdin = true
	}
	return src, nil
}

// Name is the source label used in logs and status lines.
func (s *recordSource) Name() string {
	if s.input.FromStdin {
		return "stdin"
	}
	return s.input.Path
}

// Watchable reports whether the source is a file that can be re-read.
func (s *recordSource) Watchable() bool {
	return s.sqlite == nil && !s.input.FromStdin && s.input.Path != ""
}

func (s *recordSource) Load(ctx context.Context) ([]record.Record, error) {
	if s.sqlite != nil {
		records, err := s.sqlite.Load(ctx)
		if err != nil {
			return nil, err
		}
		if s.selection != expr.RootVariable {
			return s.selectRecords(records)
		}
		return s.filter(records), nil
	}

	format, err := loader.ParseFormat(s.input.Format)
	if err != nil {
		return nil, err
	}
	var root any
	if s.input.FromStdin {
		root, err = loader.DecodeReader(s.stdin, format)
	} else {
		root, err = loader.DecodeFile(s.input.Path, format)
	}
	if err != nil {
		if errors.Is(err, loader.ErrEmptyInput) {
			return nil, nil
		}
		return nil, err
	}
	return s.selectRecords(root)
}

func (s *recordSource) selectRecords(root any) ([]record.Record, error) {
	selected := root
	if s.selection != expr.RootVariable {
		if rs, ok := root.([]record.Record); ok {
			rows := make([]any, len(rs))
			for i, r := range rs {
				rows[i] = map[string]any(r)
			}
			root = rows
		}
		v, err := s.eval.Evaluate(s.selection, root)
		if err != nil {
			return nil, fmt.Errorf("expression %q: %w", s.selection, err)
		}
		selected = v
	}
	records, err := loader.ToRecords(selected, s.log.WithName("loader"))
	if err != nil {
		return nil, fmt.Errorf("expression %q: %w", s.selection, err)
	}
	return s.filter(records), nil
}

func (s *recordSource) filter(records []record.Record) []record.Record {
	if s.where == nil {
		return records
	}
	out := s.where.Filter(records)
	s.log.V(1).Info("applied --where", "expression", s.where.String(), "kept", len(out), "total", len(records))
	return out
}
