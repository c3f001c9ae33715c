package warehouse

import "sort"

type ViewMode int

const (
	ModeCollapsed ViewMode = iota
	ModeExpanded
	ModeSelecting
)

func (m ViewMode) String() string {
	switch m {
	case ModeExpanded:
		return "expanded"
	case ModeSelecting:
		return "selecting"
	default:
		return "collapsed"
	}
}

// ViewState is the single presentation state of the dashboard: nothing
// open, one order expanded, or a multi-selection in progress. Expansion and
// selection are mutually exclusive.
type ViewState struct {
	mode     ViewMode
	expanded string
	selected map[string]struct{}
}

func Collapsed() ViewState {
	return ViewState{mode: ModeCollapsed}
}

func Expanded(id string) ViewState {
	return ViewState{mode: ModeExpanded, expanded: id}
}

func Selecting(ids ...string) ViewState {
	selected := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		selected[id] = struct{}{}
	}
	return ViewState{mode: ModeSelecting, selected: selected}
}

func (v ViewState) Mode() ViewMode {
	return v.mode
}

// ExpandedID returns the open order, if any.
func (v ViewState) ExpandedID() (string, bool) {
	return v.expanded, v.mode == ModeExpanded
}

func (v ViewState) IsExpanded(id string) bool {
	return v.mode == ModeExpanded && v.expanded == id
}

func (v ViewState) IsSelected(id string) bool {
	_, ok := v.selected[id]
	return ok
}

// Selected returns the selected ids in sorted order.
func (v ViewState) Selected() []string {
	ids := make([]string, 0, len(v.selected))
	for id := range v.selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// toggle returns a copy with id's selection membership flipped. The receiver
// is left untouched so snapshots handed out earlier stay stable.
func (v ViewState) toggle(id string) ViewState {
	next := Selecting(v.Selected()...)
	if _, ok := next.selected[id]; ok {
		delete(next.selected, id)
	} else {
		next.selected[id] = struct{}{}
	}
	return next
}

// without drops id from the state, collapsing if it was the expanded order.
func (v ViewState) without(id string) ViewState {
	switch v.mode {
	case ModeExpanded:
		if v.expanded == id {
			return Collapsed()
		}
	case ModeSelecting:
		if v.IsSelected(id) {
			return v.toggle(id)
		}
	}
	return v
}
