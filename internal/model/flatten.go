package model

// TreeNode is an element with its nested children, used when rendering a
// tree read as a hierarchy instead of a flat list.
type TreeNode struct {
	Element  `yaml:",inline"`
	Children []TreeNode `yaml:"c,omitempty" json:"c,omitempty"`
}

// NestElements rebuilds a hierarchy from a pre-order list of elements
// annotated with Depth. An element becomes a child of the nearest preceding
// element with a smaller depth; elements with no such predecessor become
// roots. Filtered lists (with gaps in depth) nest under the closest kept
// ancestor.
func NestElements(elements []Element) []TreeNode {
	var roots []TreeNode
	// stack holds the open ancestors of the next element. Appending to a
	// parent only happens after all of its deeper descendants were popped, so
	// the pointers stay valid.
	var stack []*TreeNode
	for _, el := range elements {
		for len(stack) > 0 && stack[len(stack)-1].Depth >= el.Depth {
			stack = stack[:len(stack)-1]
		}
		node := TreeNode{Element: el}
		if len(stack) == 0 {
			roots = append(roots, node)
			stack = append(stack, &roots[len(roots)-1])
			continue
		}
		parent := stack[len(stack)-1]
		parent.Children = append(parent.Children, node)
		stack = append(stack, &parent.Children[len(parent.Children)-1])
	}
	return roots
}

// FlattenTree converts a nested tree back into a pre-order list.
func FlattenTree(nodes []TreeNode) []Element {
	var result []Element
	for _, n := range nodes {
		flattenRecursive(n, &result)
	}
	return result
}

func flattenRecursive(n TreeNode, result *[]Element) {
	*result = append(*result, n.Element)
	for _, child := range n.Children {
		flattenRecursive(child, result)
	}
}
