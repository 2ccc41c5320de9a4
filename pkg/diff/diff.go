package diff

import "github.com/tessera-ui/tessera/pkg/element"

// ChangeCategory classifies one element's difference as four
// independent flags. Layout implies a layout pass, Visual a repaint,
// Children a structural change in the child list, Handlers a change in
// event wiring.
type ChangeCategory struct {
	Layout   bool
	Visual   bool
	Children bool
	Handlers bool
}

// None reports whether no change was detected.
func (c ChangeCategory) None() bool {
	return !c.Layout && !c.Visual && !c.Children && !c.Handlers
}

// Any reports whether any change was detected.
func (c ChangeCategory) Any() bool {
	return !c.None()
}

// VisualOnly reports a repaint-only change, the cheapest repair.
func (c ChangeCategory) VisualOnly() bool {
	return c.Visual && !c.Layout && !c.Children
}

// NeedsLayout reports whether a layout pass is required.
func (c ChangeCategory) NeedsLayout() bool {
	return c.Layout || c.Children
}

func layoutHash(def *element.Def) uint64 {
	h := newHasher()
	h.layout(def.Layout)
	return h.sum()
}

func visualHash(def *element.Def) uint64 {
	h := newHasher()
	h.visual(def.Visual)
	return h.sum()
}

func handlerHash(def *element.Def) uint64 {
	h := newHasher()
	h.handlers(def.Handlers)
	return h.sum()
}

// Diff classifies the difference between two definitions of the same
// element. Matching own hashes short-circuit the property comparison;
// children are always checked separately because the own hash excludes
// them.
//
// Handler comparison is identity-based: kinds and stable Handler.ID
// values. Two closures registered under the same kind with the same
// (possibly zero) ID compare equal, so swapping a callback without
// changing its ID is not detected. Assign distinct IDs where that
// matters.
func Diff(old, new *element.Def) ChangeCategory {
	var cat ChangeCategory

	if OwnHash(old) != OwnHash(new) {
		if layoutHash(old) != layoutHash(new) {
			cat.Layout = true
		}
		if visualHash(old) != visualHash(new) {
			cat.Visual = true
		}
		if handlerHash(old) != handlerHash(new) {
			cat.Handlers = true
		}
		if old.LayoutBoundary != new.LayoutBoundary {
			cat.Layout = true
		}
	}

	if len(old.Children) != len(new.Children) {
		cat.Children = true
		return cat
	}
	for i := range old.Children {
		if SubtreeHash(&old.Children[i]) != SubtreeHash(&new.Children[i]) {
			cat.Children = true
			return cat
		}
	}
	return cat
}
