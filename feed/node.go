// Package feed turns REAXML-style property feed documents into a generic element tree
// and writes merged listing sets back out.
package feed

import "strings"

// Attr is one attribute of an element, kept in document order.
type Attr struct {
	Name  string
	Value string
}

// Node is one element of a parsed feed document. Text holds the element's own
// character data, concatenated and trimmed. Mixed content loses its interleaving:
// written back out, the text precedes every child element.
type Node struct {
	Name     string
	Attrs    []Attr
	Text     string
	Children []*Node
}

// Kind tells how many same-named children a Field holds.
type Kind int

const (
	Absent Kind = iota
	Single
	Many
)

func (k Kind) String() string {
	switch k {
	case Single:
		return "single"
	case Many:
		return "many"
	default:
		return "absent"
	}
}

// Field is the set of children sharing one name. Feeds write a collection as zero,
// one or several repeated elements; Field lets callers treat all three the same way.
type Field struct {
	nodes []*Node
}

func (f Field) Kind() Kind {
	switch len(f.nodes) {
	case 0:
		return Absent
	case 1:
		return Single
	default:
		return Many
	}
}

// Nodes returns the field as an ordered sequence. Absent yields nil.
func (f Field) Nodes() []*Node {
	return f.nodes
}

// First returns the first node, or nil when absent.
func (f Field) First() *Node {
	if len(f.nodes) == 0 {
		return nil
	}
	return f.nodes[0]
}

// Field collects the direct children named name.
func (n *Node) Field(name string) Field {
	if n == nil {
		return Field{}
	}
	var nodes []*Node
	for _, c := range n.Children {
		if c.Name == name {
			nodes = append(nodes, c)
		}
	}
	return Field{nodes: nodes}
}

// Child returns the first direct child named name.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildText returns the text of the first child named name, or "".
func (n *Node) ChildText(name string) string {
	return n.Child(name).TextValue()
}

// TextValue returns the node's text, or "" for a nil node.
func (n *Node) TextValue() string {
	if n == nil {
		return ""
	}
	return n.Text
}

// Attr returns the value of the named attribute, or "".
func (n *Node) Attr(name string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value
		}
	}
	return ""
}

// HasAttr reports whether the named attribute is present, even if empty.
func (n *Node) HasAttr(name string) bool {
	if n == nil {
		return false
	}
	for _, a := range n.Attrs {
		if a.Name == name {
			return true
		}
	}
	return false
}

// IsLeaf reports whether the node carries neither attributes nor child elements.
func (n *Node) IsLeaf() bool {
	return n != nil && len(n.Attrs) == 0 && len(n.Children) == 0
}

// IsEmpty reports whether the node has no attributes, no text and only empty children.
func (n *Node) IsEmpty() bool {
	if n == nil {
		return true
	}
	if len(n.Attrs) > 0 || strings.TrimSpace(n.Text) != "" {
		return false
	}
	for _, c := range n.Children {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}
