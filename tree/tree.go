// Package tree implements rooted phylogenetic trees, a Newick reader
// and the rooting and comparison operations treediff relies on.
package tree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/op/go-logging"
)

// log is the global logging variable.
var log = logging.MustGetLogger("tree")

// Tree is a rooted tree. The embedded node is the root.
type Tree struct {
	*Node
	nNodes int
	nodes  []*Node
}

// ClearCache drops the cached node list. It has to be called after
// any change of the tree structure.
func (tree *Tree) ClearCache() {
	tree.nNodes = 0
	tree.nodes = nil
}

// renumber assigns node ids in preorder and leaf ids in leaf order.
func (tree *Tree) renumber() {
	tree.ClearCache()
	nodeID, leafID := 0, 0
	var walk func(*Node)
	walk = func(node *Node) {
		node.Id = nodeID
		nodeID++
		if node.IsTerminal() {
			node.LeafId = leafID
			leafID++
		}
		for _, child := range node.childNodes {
			walk(child)
		}
	}
	walk(tree.Node)
}

func (tree *Tree) NNodes() int {
	if tree.nNodes == 0 {
		tree.nNodes = tree.NSubNodes()
	}
	return tree.nNodes
}

// Nodes returns all the nodes indexed by their id.
func (tree *Tree) Nodes() []*Node {
	if tree.nodes == nil {
		tree.nodes = make([]*Node, tree.NNodes())
		for node := range tree.Walker(nil) {
			tree.nodes[node.Id] = node
		}
	}
	return tree.nodes
}

func (tree *Tree) Terminals() <-chan *Node {
	return tree.Walker(func(node *Node) bool {
		return node.IsTerminal()
	})
}

func (tree *Tree) NonTerminals() <-chan *Node {
	return tree.Walker(func(node *Node) bool {
		return !node.IsTerminal()
	})
}

func (tree *Tree) NLeaves() (i int) {
	for range tree.Terminals() {
		i++
	}
	return
}

// Leaves returns leaf names in preorder.
func (tree *Tree) Leaves() (names []string) {
	for node := range tree.Terminals() {
		names = append(names, node.Name)
	}
	return
}

// Walker returns a closed channel with all nodes accepted by filter
// (all the nodes if filter is nil) in preorder.
func (tree *Tree) Walker(filter func(*Node) bool) <-chan *Node {
	ch := make(chan *Node, tree.NNodes())
	tree.Walk(ch, filter)
	close(ch)
	return ch
}

// Copy creates independent copy of the tree.
func (tree *Tree) Copy() (newTree *Tree) {
	nNodes := tree.NNodes()
	newTree = &Tree{
		nNodes: nNodes,
		nodes:  make([]*Node, nNodes),
	}

	for i, node := range tree.Nodes() {
		if i != node.Id {
			panic("node id mismatch")
		}
		newTree.nodes[i] = node.Copy()
	}

	// Rewire node/parent connections.
	for i, node := range tree.Nodes() {
		newNode := newTree.nodes[i]
		for _, child := range node.childNodes {
			newNode.AddChild(newTree.nodes[child.Id])
		}
	}

	newTree.Node = newTree.nodes[0]
	return
}

// Canonical returns a string which is equal for two trees if and only
// if they have the same rooted topology and the same leaf names.
// Children are sorted, branch lengths, classes and internal node
// names are dropped.
func (tree *Tree) Canonical() string {
	return tree.Node.canonical()
}

// IsIdentical returns true if both trees have the same rooted
// topology and leaf names.
func (tree *Tree) IsIdentical(other *Tree) bool {
	return tree.Canonical() == other.Canonical()
}

// ClassString returns a newick string with class marks (#1, #2, ...).
func (tree *Tree) ClassString() string {
	return tree.Node.classString() + ";"
}

// BrString returns a newick string with branch ids (#brN).
func (tree *Tree) BrString() string {
	return tree.Node.brString() + ";"
}

type Node struct {
	Name         string
	BranchLength float64
	Parent       *Node
	childNodes   []*Node
	Id           int
	LeafId       int
	Class        int
}

func NewNode(parent *Node, nodeId int) (node *Node) {
	node = &Node{Parent: parent, Id: nodeId}
	return
}

// Copy creates copy of node with empty parent and children.
func (node *Node) Copy() *Node {
	return &Node{
		Name:         node.Name,
		BranchLength: node.BranchLength,
		childNodes:   make([]*Node, 0, len(node.childNodes)),
		Id:           node.Id,
		LeafId:       node.LeafId,
		Class:        node.Class,
	}
}

func (node *Node) AddChild(subNode *Node) {
	subNode.Parent = node
	node.childNodes = append(node.childNodes, subNode)
}

// removeChild detaches subNode, keeping the order of other children.
func (node *Node) removeChild(subNode *Node) {
	for i, child := range node.childNodes {
		if child == subNode {
			node.childNodes = append(node.childNodes[:i], node.childNodes[i+1:]...)
			subNode.Parent = nil
			return
		}
	}
}

// replaceChild puts newNode in place of oldNode.
func (node *Node) replaceChild(oldNode, newNode *Node) {
	for i, child := range node.childNodes {
		if child == oldNode {
			node.childNodes[i] = newNode
			newNode.Parent = node
			oldNode.Parent = nil
			return
		}
	}
}

func (node *Node) canonical() string {
	if node.IsTerminal() {
		return node.Name
	}
	parts := make([]string, len(node.childNodes))
	for i, child := range node.childNodes {
		parts[i] = child.canonical()
	}
	sort.Strings(parts)
	return "(" + strings.Join(parts, ",") + ")"
}

func (node *Node) brString() (s string) {
	if node.IsTerminal() {
		return fmt.Sprintf("%s#br%d", node.Name, node.Id)
	}
	s += "("
	for i, child := range node.childNodes {
		s += child.brString()
		if i != len(node.childNodes)-1 {
			s += ","
		}
	}
	return s + fmt.Sprintf(")#br%d", node.Id)
}

func (node *Node) classString() (s string) {
	if !node.IsTerminal() {
		s += "("
		for i, child := range node.childNodes {
			s += child.classString()
			if i != len(node.childNodes)-1 {
				s += ","
			}
		}
		s += ")"
	}
	s += node.Name
	if node.Class != 0 {
		s += fmt.Sprintf("#%d", node.Class)
	}
	return s + fmt.Sprintf(":%0.6f", node.BranchLength)
}

func (node *Node) String() (s string) {
	if node.IsTerminal() {
		return fmt.Sprintf("%s:%0.6f", node.Name, node.BranchLength)
	}
	s += "("
	for i, child := range node.childNodes {
		s += child.String()
		if i != len(node.childNodes)-1 {
			s += ","
		}
	}
	s += fmt.Sprintf("):%0.6f", node.BranchLength)
	if node.IsRoot() {
		s += ";"
	}
	return s
}

func (node *Node) ChildNodes() []*Node {
	return node.childNodes
}

func (node *Node) Walk(ch chan *Node, filter func(*Node) bool) {
	if filter == nil || filter(node) {
		ch <- node
	}
	for _, node := range node.childNodes {
		node.Walk(ch, filter)
	}
}

func (node *Node) NSubNodes() (size int) {
	for _, node := range node.childNodes {
		size += node.NSubNodes()
	}
	return size + 1
}

func (node *Node) IsRoot() bool {
	return node.Parent == nil
}

func (node *Node) IsTerminal() bool {
	return len(node.childNodes) == 0
}
