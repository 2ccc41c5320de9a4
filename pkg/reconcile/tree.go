package reconcile

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/tessera-ui/tessera/pkg/diff"
	"github.com/tessera-ui/tessera/pkg/element"
)

// NodeID identifies one render node. IDs are never reused.
type NodeID uint64

// ErrNodeLookup is returned when a node id is unknown or destroyed.
var ErrNodeLookup = errors.New("reconcile: unknown or destroyed node id")

// RenderNode is one live entry in the persistent tree. It stores the
// definition it was built from so later diffs and rebuilds can match
// children by content.
type RenderNode struct {
	ID       NodeID
	Parent   NodeID
	Children []NodeID
	Def      element.Def
}

// Tree is the arena of live render nodes. The zero parent id denotes
// the root position.
type Tree struct {
	mu     sync.RWMutex
	nodes  map[NodeID]*RenderNode
	nextID uint64
	root   NodeID
}

// NewTree creates an empty tree.
func NewTree() *Tree {
	return &Tree{nodes: make(map[NodeID]*RenderNode)}
}

func (t *Tree) allocID() NodeID {
	return NodeID(atomic.AddUint64(&t.nextID, 1))
}

// Root returns the root node id, zero when the tree is empty.
func (t *Tree) Root() NodeID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.root
}

// Get returns one node.
func (t *Tree) Get(id NodeID) (*RenderNode, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	node, ok := t.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %d: %w", id, ErrNodeLookup)
	}
	return node, nil
}

// Len returns the number of live nodes.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.nodes)
}

// Mount builds the initial tree from a root definition.
func (t *Tree) Mount(def *element.Def) NodeID {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.root = t.build(0, def)
	return t.root
}

// build constructs a subtree and returns its root id. Caller holds the
// lock.
func (t *Tree) build(parent NodeID, def *element.Def) NodeID {
	id := t.allocID()
	node := &RenderNode{ID: id, Parent: parent, Def: *def}
	t.nodes[id] = node
	for i := range def.Children {
		child := t.build(id, &def.Children[i])
		node.Children = append(node.Children, child)
	}
	return id
}

// remove deletes a subtree. Caller holds the lock and fixes up the
// parent's child list.
func (t *Tree) remove(id NodeID) {
	node, ok := t.nodes[id]
	if !ok {
		return
	}
	for _, child := range node.Children {
		t.remove(child)
	}
	delete(t.nodes, id)
}

// SetProps replaces a node's stored properties, including its layout
// boundary flag, without touching its children.
func (t *Tree) SetProps(id NodeID, layout element.LayoutProps, visual element.VisualProps, handlers []element.Handler, boundary bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	node, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("node %d: %w", id, ErrNodeLookup)
	}
	node.Def.Layout = layout
	node.Def.Visual = visual
	node.Def.Handlers = handlers
	node.Def.LayoutBoundary = boundary
	return nil
}

// Rebuild replaces a node's subtree with the given definition,
// preserving its identity and position under its parent. Children whose
// subtree hashes match an old child are reused wholesale, reordered as
// needed, so moves and rotations never reconstruct nodes. Returns the
// ids of newly constructed subtree roots so callers can register any
// bindings within them.
func (t *Tree) Rebuild(id NodeID, def *element.Def) ([]NodeID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	node, ok := t.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %d: %w", id, ErrNodeLookup)
	}

	oldChildren := node.Children
	oldDefs := node.Def.Children

	node.Def = *def

	var created []NodeID
	diffs := diff.DiffChildren(oldDefs, def.Children)
	newChildren := make([]NodeID, len(def.Children))
	for _, d := range diffs {
		switch d.Op {
		case diff.ChildUnchanged, diff.ChildMoved:
			newChildren[d.NewIndex] = oldChildren[d.OldIndex]
		case diff.ChildAdded:
			childID := t.build(id, &def.Children[d.NewIndex])
			newChildren[d.NewIndex] = childID
			created = append(created, childID)
		case diff.ChildRemoved:
			t.remove(oldChildren[d.OldIndex])
		}
	}
	node.Children = newChildren
	return created, nil
}

// Ancestors returns the parent chain from the node's parent up to the
// root, in order.
func (t *Tree) Ancestors(id NodeID) []NodeID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var chain []NodeID
	node, ok := t.nodes[id]
	if !ok {
		return nil
	}
	for node.Parent != 0 {
		chain = append(chain, node.Parent)
		node = t.nodes[node.Parent]
		if node == nil {
			break
		}
	}
	return chain
}

// LayoutScope returns the node whose layout must be recomputed when id
// changes size: the nearest ancestor-or-self marked as a layout
// boundary, or the root when none is.
func (t *Tree) LayoutScope(id NodeID) NodeID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	node, ok := t.nodes[id]
	if !ok {
		return 0
	}
	for node != nil {
		if node.Def.LayoutBoundary || node.Parent == 0 {
			return node.ID
		}
		node = t.nodes[node.Parent]
	}
	return t.root
}

// Walk visits every node depth-first from the root.
func (t *Tree) Walk(visit func(*RenderNode)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.root == 0 {
		return
	}
	t.walk(t.root, visit)
}

func (t *Tree) walk(id NodeID, visit func(*RenderNode)) {
	node, ok := t.nodes[id]
	if !ok {
		return
	}
	visit(node)
	for _, child := range node.Children {
		t.walk(child, visit)
	}
}

// FindByKey returns the first node (depth-first) whose definition
// carries the given key.
func (t *Tree) FindByKey(key string) (NodeID, bool) {
	var found NodeID
	t.Walk(func(n *RenderNode) {
		if found == 0 && n.Def.Key == key {
			found = n.ID
		}
	})
	return found, found != 0
}
