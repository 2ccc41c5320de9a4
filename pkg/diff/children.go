package diff

import "github.com/tessera-ui/tessera/pkg/element"

// ChildOp discriminates one entry in a child diff.
type ChildOp uint8

const (
	ChildUnchanged ChildOp = iota // same content, same position
	ChildMoved                    // same content, different position
	ChildAdded                    // content not present in the old list
	ChildRemoved                  // content not present in the new list
)

// String returns the string representation of the ChildOp.
func (op ChildOp) String() string {
	switch op {
	case ChildUnchanged:
		return "Unchanged"
	case ChildMoved:
		return "Moved"
	case ChildAdded:
		return "Added"
	case ChildRemoved:
		return "Removed"
	default:
		return "Unknown"
	}
}

// ChildDiff is one entry in the ordered child diff. OldIndex is set for
// Unchanged, Moved and Removed; NewIndex for Unchanged, Moved and
// Added.
type ChildDiff struct {
	Op       ChildOp
	OldIndex int
	NewIndex int
}

// DiffChildren matches old and new child lists by subtree hash and
// reports, in new-list order, which children are unchanged, moved or
// added, followed by the removals. Matching is content-addressed: a
// child found at a different position is a move, never a remove/add
// pair, so rotations cost nothing structurally. Duplicate hashes are
// interchangeable; the earliest unconsumed old index wins. Runs in
// O(len(old)+len(new)).
func DiffChildren(old, new []element.Def) []ChildDiff {
	if len(old) == 0 && len(new) == 0 {
		return nil
	}

	// Hash → queue of old indices still available for matching.
	byHash := make(map[uint64][]int, len(old))
	for i := range old {
		h := SubtreeHash(&old[i])
		byHash[h] = append(byHash[h], i)
	}

	var out []ChildDiff
	consumed := make([]bool, len(old))
	for newIdx := range new {
		h := SubtreeHash(&new[newIdx])
		queue := byHash[h]
		if len(queue) == 0 {
			out = append(out, ChildDiff{Op: ChildAdded, OldIndex: -1, NewIndex: newIdx})
			continue
		}
		oldIdx := queue[0]
		byHash[h] = queue[1:]
		consumed[oldIdx] = true
		op := ChildUnchanged
		if oldIdx != newIdx {
			op = ChildMoved
		}
		out = append(out, ChildDiff{Op: op, OldIndex: oldIdx, NewIndex: newIdx})
	}

	for oldIdx := range old {
		if !consumed[oldIdx] {
			out = append(out, ChildDiff{Op: ChildRemoved, OldIndex: oldIdx, NewIndex: -1})
		}
	}
	return out
}
