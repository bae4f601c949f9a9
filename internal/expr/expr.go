// Package expr evaluates CEL expressions over decoded documents and records.
// The document or record is bound to the variable "_".
package expr

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	celext "github.com/google/cel-go/ext"

	"github.com/oakwood-commons/dvx/pkg/record"
)

// ErrCompile is wrapped by expression compile errors.
var ErrCompile = errors.New("invalid expression")

// RootVariable names the bound document.
const RootVariable = "_"

// Evaluator compiles CEL programs and caches them by source text.
type Evaluator struct {
	env *cel.Env
	log logr.Logger

	mu       sync.Mutex
	programs map[string]cel.Program
}

// NewEvaluator returns an evaluator with the strings, encoders, lists and
// math extensions loaded.
func NewEvaluator(log logr.Logger) (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable(RootVariable, cel.DynType),
		celext.Strings(),
		celext.Encoders(),
		celext.Lists(),
		celext.Math(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env, log: log, programs: make(map[string]cel.Program)}, nil
}

// Compile parses and type-checks src.
func (e *Evaluator) Compile(src string) (cel.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if prg, ok := e.programs[src]; ok {
		return prg, nil
	}
	ast, issues := e.env.Compile(src)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrCompile, src, issues.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrCompile, src, err)
	}
	e.programs[src] = prg
	return prg, nil
}

// Evaluate runs src against data and converts the result to Go values.
func (e *Evaluator) Evaluate(src string, data any) (any, error) {
	prg, err := e.Compile(src)
	if err != nil {
		return nil, err
	}
	return eval(prg, data)
}

func eval(prg cel.Program, data any) (any, error) {
	if r, ok := data.(record.Record); ok {
		data = map[string]any(r)
	}
	out, _, err := prg.Eval(map[string]any{RootVariable: data})
	if err != nil {
		return nil, fmt.Errorf("eval error: %w", err)
	}
	return ToGo(out), nil
}

// Predicate is a compiled per-record filter.
type Predicate struct {
	src string
	prg cel.Program
	log logr.Logger
}

// Predicate compiles src as a record filter.
func (e *Evaluator) Predicate(src string) (*Predicate, error) {
	prg, err := e.Compile(src)
	if err != nil {
		return nil, err
	}
	return &Predicate{src: src, prg: prg, log: e.log}, nil
}

// String returns the source expression.
func (p *Predicate) String() string { return p.src }

// Match reports whether r satisfies the predicate. Evaluation errors and
// non-boolean results count as no match.
func (p *Predicate) Match(r record.Record) bool {
	out, err := eval(p.prg, r)
	if err != nil {
		p.log.V(1).Info("predicate did not evaluate", "expression", p.src, "error", err.Error())
		return false
	}
	b, ok := out.(bool)
	return ok && b
}

// Filter returns the records that match, in order.
func (p *Predicate) Filter(records []record.Record) []record.Record {
	out := make([]record.Record, 0, len(records))
	for _, r := range records {
		if p.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// ToGo converts CEL values to plain Go values recursively.
func ToGo(val ref.Val) any {
	if val == nil {
		return nil
	}
	switch v := val.(type) {
	case types.Null:
		return nil
	case types.Bool:
		return bool(v)
	case types.Int:
		return int64(v)
	case types.Uint:
		return uint64(v)
	case types.Double:
		return float64(v)
	case types.String:
		return string(v)
	case types.Bytes:
		return []byte(v)
	}
	valuer, ok := val.(interface{ Value() any })
	if !ok {
		return val
	}
	return toGoNative(valuer.Value())
}

func toGoNative(v any) any {
	switch inner := v.(type) {
	case ref.Val:
		return ToGo(inner)
	case []ref.Val:
		out := make([]any, len(inner))
		for i, el := range inner {
			out[i] = ToGo(el)
		}
		return out
	case []any:
		out := make([]any, len(inner))
		for i, el := range inner {
			out[i] = toGoNative(el)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(inner))
		for k, el := range inner {
			out[k] = toGoNative(el)
		}
		return out
	case map[ref.Val]ref.Val:
		out := make(map[string]any, len(inner))
		for k, el := range inner {
			out[fmt.Sprint(toGoNative(k.Value()))] = ToGo(el)
		}
		return out
	}
	return v
}
