package history

// BeginGroup starts collecting edits into a single entry. Calls nest; only
// the outermost group's label is kept.
func (h *History) BeginGroup(label string) {
	if h.groupDepth == 0 {
		h.group = &Entry{Label: label}
	}
	h.groupDepth++
}

// EndGroup closes the innermost group. When the outermost group closes, the
// collected edits are pushed as one entry. It returns true if an entry was
// pushed.
func (h *History) EndGroup() bool {
	if h.groupDepth == 0 {
		return false
	}
	h.groupDepth--
	if h.groupDepth > 0 {
		return false
	}

	g := h.group
	h.group = nil
	if g == nil || len(g.Ops) == 0 {
		return false
	}
	g.tail = nil
	h.push(g)
	h.sealed = true
	return true
}

// CancelGroup closes every open group without recording it and returns the
// edits collected so far, so the caller can revert them. It returns nil if
// no edits were collected.
func (h *History) CancelGroup() *Entry {
	if h.groupDepth == 0 {
		return nil
	}
	g := h.group
	h.group = nil
	h.groupDepth = 0
	if g == nil || len(g.Ops) == 0 {
		return nil
	}
	return g
}

// InGroup returns true if a group is open.
func (h *History) InGroup() bool {
	return h.groupDepth > 0
}

// GroupDepth returns the nesting depth of open groups.
func (h *History) GroupDepth() int {
	return h.groupDepth
}

func (h *History) accumulate(e *Entry) {
	g := h.group
	if len(g.Ops) == 0 {
		g.Before = e.Before
	}
	g.Ops = append(g.Ops, e.Ops...)
	g.After = e.After
	g.Time = e.Time
	g.edits++
}

// GroupScope closes a group when End or Cancel is called, typically via
// defer:
//
//	defer h.GroupScope("Indent").End()
type GroupScope struct {
	history *History
	active  bool
}

// GroupScope starts a new group scope.
func (h *History) GroupScope(label string) *GroupScope {
	h.BeginGroup(label)
	return &GroupScope{history: h, active: true}
}

// End ends the group scope. Only the first call has effect.
func (g *GroupScope) End() {
	if g.active {
		g.history.EndGroup()
		g.active = false
	}
}

// Cancel cancels the group scope and returns the collected edits.
func (g *GroupScope) Cancel() *Entry {
	if !g.active {
		return nil
	}
	g.active = false
	return g.history.CancelGroup()
}
