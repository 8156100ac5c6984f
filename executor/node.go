package executor

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Node is the simplified syntax tree handed to detection programs
type Node struct {
	Type     string  `json:"type"`
	Text     string  `json:"text"`
	Line     int     `json:"line"` // 1-based start line
	Children []*Node `json:"children"`
}

// Simplify converts a tree-sitter node and its descendants into Nodes
func Simplify(node *sitter.Node, src []byte) *Node {
	if node == nil {
		return nil
	}
	ret := &Node{
		Type: node.Type(),
		Text: node.Content(src),
		Line: int(node.StartPoint().Row) + 1,
	}
	count := int(node.ChildCount())
	ret.Children = make([]*Node, 0, count)
	for i := 0; i < count; i++ {
		if child := node.Child(i); child != nil {
			ret.Children = append(ret.Children, Simplify(child, src))
		}
	}
	return ret
}

// Walk visits n and its descendants depth first until visit returns false
func (n *Node) Walk(visit func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !visit(n) {
		return false
	}
	for _, child := range n.Children {
		if !child.Walk(visit) {
			return false
		}
	}
	return true
}

// object converts the node into plain maps and slices so each program gets an independent copy
func (n *Node) object() map[string]interface{} {
	children := make([]interface{}, 0, len(n.Children))
	for _, child := range n.Children {
		children = append(children, child.object())
	}
	return map[string]interface{}{
		"type":     n.Type,
		"text":     n.Text,
		"line":     n.Line,
		"children": children,
	}
}
