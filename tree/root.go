package tree

import (
	"errors"
	"fmt"
)

// ErrOutgroupNotFound is returned when no leaf carries the outgroup name.
var ErrOutgroupNotFound = errors.New("outgroup not found")

// IsRooted returns true if the root is bifurcating.
func (tree *Tree) IsRooted() bool {
	return len(tree.childNodes) == 2
}

// Unroot removes the bifurcating root. The first internal child of
// the root is dissolved and its branch length is added to its
// sibling. Unroot returns the id of the merged branch, which can be
// passed to Root to restore the root.
func (tree *Tree) Unroot() (int, error) {
	if !tree.IsRooted() {
		return 0, errors.New("tree is not rooted")
	}
	var inner, kept *Node
	switch first, second := tree.childNodes[0], tree.childNodes[1]; {
	case !first.IsTerminal():
		inner, kept = first, second
	case !second.IsTerminal():
		inner, kept = second, first
	default:
		return 0, errors.New("cannot unroot a tree with two leaves")
	}

	kept.BranchLength += inner.BranchLength
	if kept.Class == 0 {
		kept.Class = inner.Class
	}

	children := make([]*Node, 0, len(inner.childNodes)+1)
	for _, child := range tree.childNodes {
		if child != inner {
			children = append(children, child)
			continue
		}
		for _, sub := range inner.childNodes {
			sub.Parent = tree.Node
			children = append(children, sub)
		}
	}
	tree.childNodes = children
	tree.renumber()

	return kept.Id, nil
}

// Root places a bifurcating root on the branch with the given id. The
// branch has to start at the root; its length is split in half.
func (tree *Tree) Root(id int) error {
	nodes := tree.Nodes()
	if id < 0 || id >= len(nodes) {
		return fmt.Errorf("no branch with id %d", id)
	}
	node := nodes[id]
	if node.Parent != tree.Node {
		return fmt.Errorf("branch %d does not start at the root", id)
	}
	if tree.IsRooted() {
		return nil
	}

	newNode := &Node{
		BranchLength: node.BranchLength / 2,
		Class:        node.Class,
	}
	node.BranchLength /= 2

	children := make([]*Node, 0, 2)
	for _, child := range tree.childNodes {
		if child == node {
			children = append(children, child)
			continue
		}
		if newNode.Parent == nil {
			newNode.Parent = tree.Node
			children = append(children, newNode)
		}
		newNode.AddChild(child)
	}
	tree.childNodes = children
	tree.renumber()

	return nil
}

// RootWithOutgroup roots the tree on the branch leading to the leaf
// named outgroup. Trees already rooted on this branch are unchanged.
func (tree *Tree) RootWithOutgroup(outgroup string) error {
	var og *Node
	for node := range tree.Terminals() {
		if node.Name == outgroup {
			og = node
			break
		}
	}
	if og == nil {
		return fmt.Errorf("%w: %q", ErrOutgroupNotFound, outgroup)
	}
	if og.IsRoot() || (og.Parent == tree.Node && tree.IsRooted()) {
		return nil
	}

	if tree.IsRooted() {
		if _, err := tree.Unroot(); err != nil {
			return err
		}
	}
	if og.Parent != tree.Node {
		tree.reroot(og.Parent)
	}
	log.Debugf("rooting with %s (branch %d)", outgroup, og.Id)

	return tree.Root(og.Id)
}

// reroot makes newRoot the root node by reversing the branches
// between it and the current root.
func (tree *Tree) reroot(newRoot *Node) {
	var path []*Node
	for node := newRoot; node != nil; node = node.Parent {
		path = append(path, node)
	}

	for i := len(path) - 1; i > 0; i-- {
		parent, child := path[i], path[i-1]
		parent.removeChild(child)
		parent.BranchLength = child.BranchLength
		parent.Class = child.Class
		child.AddChild(parent)
	}

	// The old root may be left with a single child or none.
	oldRoot := path[len(path)-1]
	if oldRoot != newRoot {
		switch len(oldRoot.childNodes) {
		case 0:
			oldRoot.Parent.removeChild(oldRoot)
		case 1:
			child := oldRoot.childNodes[0]
			child.BranchLength += oldRoot.BranchLength
			oldRoot.Parent.replaceChild(oldRoot, child)
		}
	}

	newRoot.Parent = nil
	newRoot.BranchLength = 0
	newRoot.Class = 0
	tree.Node = newRoot
	tree.renumber()
}
