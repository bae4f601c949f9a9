// Package ui is the interactive collection view: a Bubble Tea model hosting a
// dataview.Controller. The active view, header, search line and help modal
// are all rendered through the controller's slots.
package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/go-logr/logr"

	"github.com/oakwood-commons/dvx/internal/config"
	"github.com/oakwood-commons/dvx/internal/ui/table"
	"github.com/oakwood-commons/dvx/pkg/column"
	"github.com/oakwood-commons/dvx/pkg/dataview"
	"github.com/oakwood-commons/dvx/pkg/filter"
	"github.com/oakwood-commons/dvx/pkg/record"
	"github.com/oakwood-commons/dvx/pkg/slot"
	"github.com/oakwood-commons/dvx/pkg/viewport"
)

type inputMode int

const (
	modeBrowse inputMode = iota
	modeSearch
	modeFilter
)

// chrome is the number of lines taken by header, search line and footer.
const chrome = 3

// RecordsMsg replaces the collection, e.g. after the data file changed.
type RecordsMsg struct {
	Records []record.Record
	Source  string
}

// ErrMsg reports a background failure in the footer.
type ErrMsg struct{ Err error }

// Options configures the model.
type Options struct {
	AppName    string
	HelpText   string
	Theme      config.Theme
	NoColor    bool
	CardFields int
	// FixedSize ignores terminal resizes and keeps the configured size.
	FixedSize bool
	Logger    logr.Logger
}

// Model is the Bubble Tea model of the collection view.
type Model struct {
	ctrl   *dataview.Controller
	table  *table.Model
	input  textinput.Model
	styles Styles
	opts   Options
	log    logr.Logger

	tableView viewport.ViewKey
	mode      inputMode
	filterKey string
	cursor    int // card cursor; the table tracks its own
	help      bool

	width  int
	height int
	status string
	err    error
}

// New builds the controller for cfg with the view's slot content installed
// as defaults, so content supplied through cfg.Slots takes precedence.
func New(cfg dataview.Config, opts Options) (*Model, error) {
	log := opts.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	m := &Model{
		opts:   opts,
		styles: NewStyles(opts.Theme, opts.NoColor),
		log:    log.WithName("ui"),
		width:  cfg.Width,
		height: cfg.Height,
	}
	views := cfg.Views
	if views == nil {
		views = viewport.DefaultViews()
	}
	keys := viewport.Keys(views)
	if len(keys) > 0 {
		m.tableView = keys[0]
	}
	if cfg.SlotNames != nil {
		for _, n := range []slot.Name{slot.HeaderActions, slot.Search, slot.Modal} {
			if !slices.Contains(cfg.SlotNames, n) {
				cfg.SlotNames = append(cfg.SlotNames, n)
			}
		}
	}
	callerSlots := cfg.Slots
	cfg.Slots = func(b *slot.Builder) {
		if callerSlots != nil {
			callerSlots(b)
		}
		m.installSlots(b, keys)
	}
	if cfg.Logger.GetSink() == nil {
		cfg.Logger = log
	}

	ctrl, err := dataview.New(cfg)
	if err != nil {
		return nil, err
	}
	m.ctrl = ctrl
	m.table = table.New(ctrl.Columns())
	m.table.SetNoColor(opts.NoColor)
	if !opts.NoColor {
		m.table.SetColors(m.styles.header, m.styles.accent, m.styles.selected, nil)
	}
	m.input = textinput.New()
	m.input.Prompt = ""
	m.layout()
	m.sync()
	return m, nil
}

// installSlots registers the built-in content: the first view is the table,
// the tablet view shows cards, and any other view falls back to them.
func (m *Model) installSlots(b *slot.Builder, keys []viewport.ViewKey) {
	if len(keys) > 0 {
		b.DefaultView(keys[0], slot.Producer(m.tableContent))
	}
	if len(keys) > 1 && slices.Contains(keys[1:], viewport.Tablet) {
		b.DefaultView(viewport.Tablet, slot.Producer(m.cardsContent))
	}
	b.Default(slot.HeaderActions, slot.Producer(m.headerContent))
	b.Default(slot.Search, slot.Producer(m.searchContent))
	b.Default(slot.Modal, slot.Producer(m.helpContent))
}

// Controller returns the hosted controller.
func (m *Model) Controller() *dataview.Controller { return m.ctrl }

// Status returns the footer message.
func (m *Model) Status() string { return m.status }

// HelpVisible reports whether the help modal is open.
func (m *Model) HelpVisible() bool { return m.help }

func (m *Model) bodyHeight() int {
	return max(m.height-chrome, 3)
}

func (m *Model) layout() {
	// the table header takes two lines
	m.table.SetSize(max(m.width, 20), max(m.bodyHeight()-2, 1))
	m.input.SetWidth(max(m.width-20, 10))
}

// sync pushes the derived view into the widgets after the controller changed.
func (m *Model) sync() {
	derived := m.ctrl.Derived()
	m.table.SetRecords(derived)
	m.table.SetSort(m.ctrl.State().TableSort)
	if m.cursor >= len(derived) {
		m.cursor = max(len(derived)-1, 0)
	}
}

// usesTable reports whether the active view is rendered by the table.
func (m *Model) usesTable() bool {
	source, _, ok := m.ctrl.Composer().ResolveView(m.ctrl.ActiveView())
	return ok && source == m.tableView && !m.ctrl.Composer().Filled(slot.ViewSlot(source))
}

// Cursor returns the index of the record under the cursor.
func (m *Model) Cursor() int {
	if m.usesTable() {
		return m.table.Cursor()
	}
	return m.cursor
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if m.opts.FixedSize && m.width > 0 && m.height > 0 {
			return m, nil
		}
		m.resize(msg.Width, msg.Height)
		return m, nil

	case RecordsMsg:
		m.ctrl.SetRecords(msg.Records)
		m.sync()
		m.err = nil
		m.status = fmt.Sprintf("reloaded %d records", len(msg.Records))
		if msg.Source != "" {
			m.status += " from " + msg.Source
		}
		m.log.V(1).Info("records replaced", "records", len(msg.Records), "source", msg.Source)
		return m, nil

	case ErrMsg:
		m.err = msg.Err
		return m, nil

	case tea.KeyPressMsg:
		key := msg.String()
		if m.help {
			switch ActionFor(key) {
			case ActionQuit:
				return m, tea.Quit
			case ActionHelp:
				m.help = false
			}
			if key == "esc" {
				m.help = false
			}
			return m, nil
		}
		if m.mode != modeBrowse {
			return m.updateInput(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m *Model) resize(width, height int) {
	before := m.ctrl.ActiveView()
	m.width, m.height = width, height
	m.ctrl.OnResize(viewport.Size{Width: width, Height: height})
	m.layout()
	if after := m.ctrl.ActiveView(); after != before {
		m.log.V(1).Info("view changed on resize", "from", before, "to", after, "width", width)
	}
}

func (m *Model) updateBrowse(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	switch ActionFor(msg.String()) {
	case ActionQuit:
		return m, tea.Quit
	case ActionHelp:
		m.help = true
	case ActionSearch:
		m.mode = modeSearch
		m.input.SetValue(m.ctrl.State().FreeText)
		m.input.CursorEnd()
		return m, m.input.Focus()
	case ActionFilter:
		return m, m.beginFilter()
	case ActionNextColumn:
		spec := m.table.NextColumn()
		m.status = "column: " + spec.Title()
	case ActionTableSort:
		m.toggleSort(filter.ModeTable)
	case ActionCardSort:
		m.toggleSort(filter.ModeCard)
	case ActionCycleView:
		key := m.ctrl.CycleView()
		m.status = "view: " + m.viewLabel(key)
	case ActionClearOverride:
		_ = m.ctrl.SetManualOverride("")
		m.status = "view: automatic"
	case ActionClearAll:
		m.ctrl.ClearAll()
		m.input.SetValue("")
		m.sync()
		m.status = "cleared search, filters and sorts"
	case ActionSelect:
		m.selectCursor()
	default:
		return m.moveCursor(msg)
	}
	return m, nil
}

func (m *Model) viewLabel(key viewport.ViewKey) string {
	if v, ok := m.ctrl.Resolver().View(key); ok {
		return v.Label()
	}
	return string(key)
}

func (m *Model) toggleSort(mode filter.Mode) {
	spec, ok := m.table.FocusedColumn()
	if !ok {
		return
	}
	if !spec.Sortable {
		m.status = fmt.Sprintf("column %q is not sortable", spec.Title())
		return
	}
	state := m.ctrl.ToggleSort(mode, spec.Key)
	m.sync()
	m.status = fmt.Sprintf("%s sort: %s", mode, state.Sort(mode))
}

func (m *Model) beginFilter() tea.Cmd {
	spec, ok := m.table.FocusedColumn()
	if !ok {
		return nil
	}
	if !spec.Filterable {
		m.status = fmt.Sprintf("column %q is not filterable", spec.Title())
		return nil
	}
	current := m.ctrl.State().ColumnFilter(spec.Key)
	if spec.EffectiveFilterKind() == column.FilterExact {
		next := nextOption(spec.FilterOptions, current)
		m.ctrl.SetColumnFilter(spec.Key, next)
		m.sync()
		if next == "" {
			m.status = fmt.Sprintf("filter %s: off", spec.Title())
		} else {
			m.status = fmt.Sprintf("filter %s = %s", spec.Title(), next)
		}
		return nil
	}
	m.mode = modeFilter
	m.filterKey = spec.Key
	m.input.SetValue(current)
	m.input.CursorEnd()
	return m.input.Focus()
}

// nextOption cycles "" -> options[0] -> ... -> options[n-1] -> "".
func nextOption(options []string, current string) string {
	if current == "" {
		if len(options) == 0 {
			return ""
		}
		return options[0]
	}
	i := slices.Index(options, current)
	if i < 0 || i+1 >= len(options) {
		return ""
	}
	return options[i+1]
}

func (m *Model) updateInput(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.input.SetValue("")
		m.applyInput()
		m.endInput()
		return m, nil
	case "enter":
		m.endInput()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.applyInput()
	return m, cmd
}

func (m *Model) applyInput() {
	value := m.input.Value()
	switch m.mode {
	case modeSearch:
		m.ctrl.SetFreeText(value)
	case modeFilter:
		m.ctrl.SetColumnFilter(m.filterKey, value)
	}
	m.sync()
}

func (m *Model) endInput() {
	m.mode = modeBrowse
	m.filterKey = ""
	m.input.Blur()
}

func (m *Model) selectCursor() {
	if len(m.ctrl.Derived()) == 0 {
		return
	}
	if err := m.ctrl.SetSelection(m.Cursor()); err != nil {
		m.err = err
		return
	}
	sel := m.ctrl.Selected()
	title := ""
	if spec, ok := firstColumn(m.ctrl.Columns()); ok && len(sel) == 1 {
		title = spec.Format(sel[0][spec.Key])
	}
	m.status = "selected " + strings.TrimSpace(title)
}

func firstColumn(cols *column.Set) (column.Spec, bool) {
	specs := cols.Specs()
	if len(specs) == 0 {
		return column.Spec{}, false
	}
	return specs[0], true
}

func (m *Model) moveCursor(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if m.usesTable() {
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	n := len(m.ctrl.Derived())
	switch msg.String() {
	case "up", "k", "left", "h":
		m.cursor--
	case "down", "j", "right", "l":
		m.cursor++
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = n - 1
	}
	m.cursor = min(max(m.cursor, 0), max(n-1, 0))
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() tea.View {
	v := tea.NewView(m.Render())
	v.AltScreen = true
	return v
}

// Render returns the screen content without terminal modes.
func (m *Model) Render() string {
	header := m.slotString(slot.HeaderActions)
	search := m.slotString(slot.Search)
	var body string
	if m.help {
		body = m.slotString(slot.Modal)
	} else {
		out, _ := m.ctrl.RenderActiveView()
		body = asString(out)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, search, body, m.footer())
}

func (m *Model) slotString(name slot.Name) string {
	out, _ := m.ctrl.Render(name)
	return asString(out)
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

func (m *Model) footer() string {
	if m.err != nil {
		return m.styles.Error.Render(truncate("error: "+m.err.Error(), m.width))
	}
	return m.styles.Status.Render(truncate(m.status, m.width))
}

// NewProgram returns a Bubble Tea program for m bound to ctx.
func NewProgram(ctx context.Context, m *Model, opts ...tea.ProgramOption) *tea.Program {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	if m.opts.FixedSize && m.width > 0 && m.height > 0 {
		opts = append(opts, tea.WithWindowSize(m.width, m.height))
	}
	return tea.NewProgram(m, opts...)
}
