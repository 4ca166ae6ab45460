package domain

// ItemStyle carries the display color assigned to a top-level branch.
// Descendants inherit the color of their top-level ancestor. It is a
// presentation hint only and never participates in aggregation.
type ItemStyle struct {
	Color string `json:"color"`
}

// TreeNode is one node of the sunburst aggregate tree. Value equals the sum
// of the node's directly attributed leaf contributions plus the values of its
// children; the builders maintain this by construction. Name is unique among
// siblings.
type TreeNode struct {
	Name      string      `json:"name"`
	Value     float64     `json:"value"`
	ItemStyle *ItemStyle  `json:"itemStyle,omitempty"`
	Children  []*TreeNode `json:"children"`
}

// TreeRoot is the root of an aggregate tree. Name is the caller-supplied
// chart or client label and Value is the grand total.
type TreeRoot = TreeNode

// NewTreeRoot returns an empty root labelled with the given name.
func NewTreeRoot(name string) *TreeRoot {
	return &TreeRoot{Name: name, Children: []*TreeNode{}}
}

// Walk visits the node and every descendant in depth-first order.
func (n *TreeNode) Walk(fn func(node *TreeNode, depth int)) {
	n.walk(fn, 0)
}

func (n *TreeNode) walk(fn func(node *TreeNode, depth int), depth int) {
	fn(n, depth)
	for _, child := range n.Children {
		child.walk(fn, depth+1)
	}
}

// LeafSum returns the sum of all leaf values under the node. For a tree built
// by either builder this equals the node's Value.
func (n *TreeNode) LeafSum() float64 {
	if len(n.Children) == 0 {
		return n.Value
	}
	var sum float64
	for _, child := range n.Children {
		sum += child.LeafSum()
	}
	return sum
}
