package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"github.com/oakwood-commons/dvx/internal/limiter"
	"github.com/oakwood-commons/dvx/pkg/filter"
)

// columnFilters collects repeated --filter key=value flags.
type columnFilters map[string]string

var _ pflag.Value = (*columnFilters)(nil)

func (f *columnFilters) String() string {
	if f == nil || len(*f) == 0 {
		return ""
	}
	keys := make([]string, 0, len(*f))
	for k := range *f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + (*f)[k]
	}
	return strings.Join(pairs, ",")
}

func (f *columnFilters) Set(s string) error {
	key, value, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	if *f == nil {
		*f = columnFilters{}
	}
	(*f)[key] = value
	return nil
}

func (f *columnFilters) Type() string { return "key=value" }

// sortFlag parses field[:asc|desc]; the direction defaults to asc.
type sortFlag struct {
	spec filter.SortSpec
}

var _ pflag.Value = (*sortFlag)(nil)

func (s *sortFlag) String() string {
	if s == nil || s.spec.IsZero() {
		return ""
	}
	return s.spec.String()
}

func (s *sortFlag) Set(v string) error {
	spec, err := parseSort(v)
	if err != nil {
		return err
	}
	s.spec = spec
	return nil
}

func (s *sortFlag) Type() string { return "field[:dir]" }

func parseSort(v string) (filter.SortSpec, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return filter.SortSpec{}, nil
	}
	field, dirText, hasDir := strings.Cut(v, ":")
	field = strings.TrimSpace(field)
	if field == "" {
		return filter.SortSpec{}, fmt.Errorf("sort %q has no field", v)
	}
	dir := filter.Ascending
	if hasDir {
		d, err := filter.ParseDirection(dirText)
		if err != nil {
			return filter.SortSpec{}, err
		}
		dir = d
	}
	if dir == filter.DirectionNone {
		return filter.SortSpec{}, nil
	}
	return filter.SortSpec{Field: field, Direction: dir}, nil
}

// validateFlags reports flag combinations that cannot be honored.
func validateFlags() error {
	var errs []error
	lim := limiter.Config{Limit: limitRecords, Offset: offsetRecords, Tail: tailRecords}
	if err := lim.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("record limiting: %w", err))
	}
	if strings.TrimSpace(searchTerm) != "" && len(filterFlags) > 0 {
		errs = append(errs, errors.New("--search and --filter are mutually exclusive"))
	}
	if !tableSort.spec.IsZero() && !cardSort.spec.IsZero() {
		errs = append(errs, errors.New("--sort and --card-sort are mutually exclusive"))
	}
	if (sqlitePath == "") != (sqliteQuery == "") {
		errs = append(errs, errors.New("--sqlite and --query must be used together"))
	}
	if watch && !interactive {
		errs = append(errs, errors.New("--watch requires --interactive"))
	}
	if watch && sqlitePath != "" {
		errs = append(errs, errors.New("--watch is not supported with --sqlite"))
	}
	if width < 0 || height < 0 {
		errs = append(errs, errors.New("--width and --height must be non-negative"))
	}
	return errors.Join(errs...)
}
