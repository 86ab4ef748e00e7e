package algorithms

import (
	"fmt"

	"rcsp/pkg/domain"
)

// =============================================================================
// Sidetrack Heap
// =============================================================================
//
// A binary min-heap over sidetrack edges ordered by delta (reduced cost).
// Nodes live in an arena and refer to each other through integer handles, so
// rotations only rewrite index fields and a copy is a plain slice duplication.
//
// Insertion places the n-th element at position n of a complete binary tree
// (children of position i are 2i+1 and 2i+2) by following the binary
// representation of n from the root, then sifts it up by rotating it with its
// parent. A rotation exchanges the two nodes' structural positions rather than
// their payloads, so a handle keeps pointing at the same edge for its lifetime.
//
// Time Complexity: O(log n) per insertion, O(n) per copy
// =============================================================================

// NoHandle marks an absent parent or child.
const NoHandle = -1

// HeapNode is a single arena slot.
type HeapNode struct {
	Edge  *domain.Edge
	Delta float64

	Parent int
	Left   int
	Right  int

	// Pos is the node's index in complete-binary-tree order.
	Pos int
}

// SidetrackHeap is a min-heap of sidetrack edges keyed by delta.
// The zero value is an empty heap.
type SidetrackHeap struct {
	nodes []HeapNode
	root  int
}

// NewSidetrackHeap creates an empty heap.
func NewSidetrackHeap() *SidetrackHeap {
	return &SidetrackHeap{root: NoHandle}
}

// Len returns the number of elements.
func (h *SidetrackHeap) Len() int {
	return len(h.nodes)
}

// Root returns the handle of the minimum element or NoHandle when empty.
func (h *SidetrackHeap) Root() int {
	if len(h.nodes) == 0 {
		return NoHandle
	}
	return h.root
}

// Node returns the arena slot for handle.
func (h *SidetrackHeap) Node(handle int) HeapNode {
	return h.nodes[handle]
}

// Min returns the minimum element.
func (h *SidetrackHeap) Min() (HeapNode, bool) {
	if len(h.nodes) == 0 {
		return HeapNode{}, false
	}
	return h.nodes[h.root], true
}

// Insert adds edge with the given delta and returns its handle.
func (h *SidetrackHeap) Insert(edge *domain.Edge, delta float64) int {
	n := len(h.nodes)
	handle := n
	h.nodes = append(h.nodes, HeapNode{
		Edge:   edge,
		Delta:  delta,
		Parent: NoHandle,
		Left:   NoHandle,
		Right:  NoHandle,
		Pos:    n,
	})

	if n == 0 {
		h.root = handle
		return handle
	}

	// Directions from position n up to the root: true = left child
	var dirs []bool
	for ix := n; ix > 0; ix = (ix - 1) / 2 {
		dirs = append(dirs, ix%2 == 1)
	}

	// Walk down to the parent slot, skipping the last step
	cur := h.root
	for i := len(dirs) - 1; i > 0; i-- {
		if dirs[i] {
			cur = h.nodes[cur].Left
		} else {
			cur = h.nodes[cur].Right
		}
	}

	h.nodes[handle].Parent = cur
	if dirs[0] {
		h.nodes[cur].Left = handle
	} else {
		h.nodes[cur].Right = handle
	}

	h.siftUp(handle)
	return handle
}

// siftUp rotates handle with its parent while it is smaller.
func (h *SidetrackHeap) siftUp(handle int) {
	for {
		p := h.nodes[handle].Parent
		if p == NoHandle || h.nodes[handle].Delta >= h.nodes[p].Delta {
			return
		}
		h.rotate(handle, p)
	}
}

// rotate swaps child c with its parent p, exchanging structural positions.
func (h *SidetrackHeap) rotate(c, p int) {
	nodes := h.nodes
	g := nodes[p].Parent
	cl, cr := nodes[c].Left, nodes[c].Right
	pl, pr := nodes[p].Left, nodes[p].Right

	// c takes p's place; p takes c's old side
	if pl == c {
		nodes[c].Left, nodes[c].Right = p, pr
		if pr != NoHandle {
			nodes[pr].Parent = c
		}
	} else {
		nodes[c].Left, nodes[c].Right = pl, p
		if pl != NoHandle {
			nodes[pl].Parent = c
		}
	}

	nodes[p].Left, nodes[p].Right = cl, cr
	if cl != NoHandle {
		nodes[cl].Parent = p
	}
	if cr != NoHandle {
		nodes[cr].Parent = p
	}

	nodes[c].Parent = g
	nodes[p].Parent = c
	switch {
	case g == NoHandle:
		h.root = c
	case nodes[g].Left == p:
		nodes[g].Left = c
	default:
		nodes[g].Right = c
	}

	nodes[c].Pos, nodes[p].Pos = nodes[p].Pos, nodes[c].Pos
}

// Copy returns an independent duplicate. Handles stay valid in the copy and
// inserting into either heap never affects the other.
func (h *SidetrackHeap) Copy() *SidetrackHeap {
	nodes := make([]HeapNode, len(h.nodes))
	copy(nodes, h.nodes)
	return &SidetrackHeap{nodes: nodes, root: h.root}
}

// Walk visits nodes in pre-order (node, left, right) until fn returns false.
func (h *SidetrackHeap) Walk(fn func(handle int, node HeapNode) bool) {
	if len(h.nodes) == 0 {
		return
	}

	stack := []int{h.root}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := h.nodes[cur]
		if !fn(cur, node) {
			return
		}
		if node.Right != NoHandle {
			stack = append(stack, node.Right)
		}
		if node.Left != NoHandle {
			stack = append(stack, node.Left)
		}
	}
}

// Verify checks the heap-order, link and position invariants.
func (h *SidetrackHeap) Verify() error {
	if len(h.nodes) == 0 {
		return nil
	}
	if h.nodes[h.root].Parent != NoHandle || h.nodes[h.root].Pos != 0 {
		return fmt.Errorf("root %d has parent or non-zero position", h.root)
	}

	var err error
	visited := 0
	h.Walk(func(handle int, node HeapNode) bool {
		visited++
		for i, child := range []int{node.Left, node.Right} {
			if child == NoHandle {
				continue
			}
			c := h.nodes[child]
			switch {
			case c.Parent != handle:
				err = fmt.Errorf("node %d: child %d has parent %d", handle, child, c.Parent)
			case c.Delta < node.Delta:
				err = fmt.Errorf("node %d: child %d has smaller delta %g < %g", handle, child, c.Delta, node.Delta)
			case c.Pos != 2*node.Pos+1+i:
				err = fmt.Errorf("node %d: child %d at position %d, want %d", handle, child, c.Pos, 2*node.Pos+1+i)
			}
			if err != nil {
				return false
			}
		}
		return true
	})
	if err != nil {
		return err
	}
	if visited != len(h.nodes) {
		return fmt.Errorf("reached %d of %d nodes from root", visited, len(h.nodes))
	}
	return nil
}
