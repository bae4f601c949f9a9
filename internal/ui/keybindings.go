package ui

// Action is what a key press does in the collection view.
type Action string

const (
	ActionNone          Action = ""
	ActionSearch        Action = "search"
	ActionFilter        Action = "filter"
	ActionNextColumn    Action = "next_column"
	ActionTableSort     Action = "table_sort"
	ActionCardSort      Action = "card_sort"
	ActionCycleView     Action = "cycle_view"
	ActionClearOverride Action = "clear_override"
	ActionClearAll      Action = "clear_all"
	ActionHelp          Action = "help"
	ActionSelect        Action = "select"
	ActionQuit          Action = "quit"
)

// KeyBindings maps key strings to actions. Keys not listed here move the
// cursor of the active view.
var KeyBindings = map[string]Action{
	"/":      ActionSearch,
	"f":      ActionFilter,
	"tab":    ActionNextColumn,
	"s":      ActionTableSort,
	"S":      ActionCardSort,
	"v":      ActionCycleView,
	"V":      ActionClearOverride,
	"c":      ActionClearAll,
	"?":      ActionHelp,
	"f1":     ActionHelp,
	"enter":  ActionSelect,
	"q":      ActionQuit,
	"ctrl+c": ActionQuit,
}

// ActionFor returns the action bound to key.
func ActionFor(key string) Action {
	return KeyBindings[key]
}

type binding struct {
	keys string
	help string
}

// helpBindings lists the bindings shown in the help modal, in order.
var helpBindings = []binding{
	{"/", "search all columns"},
	{"f", "filter the focused column (exact columns cycle options)"},
	{"tab", "focus the next column"},
	{"s", "toggle table sort on the focused column"},
	{"S", "toggle card sort on the focused column"},
	{"v", "switch to the next view"},
	{"V", "return to the automatic view"},
	{"c", "clear search, filters and sorts"},
	{"↑/↓ j/k", "move the cursor"},
	{"enter", "select the record under the cursor"},
	{"esc", "leave input or help"},
	{"? f1", "toggle this help"},
	{"q", "quit"},
}
