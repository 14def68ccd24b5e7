package feed

import (
	"bytes"
	"encoding/json"
)

// MarshalJSON renders the node the way the snapshot columns store it: a leaf without
// attributes becomes its text; anything else becomes an object with "@_"-prefixed
// attributes, "#text" when present, then children grouped by name in order of first
// appearance (an array when a name repeats). Output is deterministic.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (n *Node) writeJSON(buf *bytes.Buffer) error {
	if n == nil {
		buf.WriteString("null")
		return nil
	}
	if n.IsLeaf() {
		return writeJSONString(buf, n.Text)
	}

	buf.WriteByte('{')
	first := true
	key := func(k string) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err := writeJSONString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		return nil
	}

	for _, a := range n.Attrs {
		if err := key("@_" + a.Name); err != nil {
			return err
		}
		if err := writeJSONString(buf, a.Value); err != nil {
			return err
		}
	}

	if n.Text != "" {
		if err := key("#text"); err != nil {
			return err
		}
		if err := writeJSONString(buf, n.Text); err != nil {
			return err
		}
	}

	var order []string
	groups := make(map[string][]*Node)
	for _, c := range n.Children {
		if _, seen := groups[c.Name]; !seen {
			order = append(order, c.Name)
		}
		groups[c.Name] = append(groups[c.Name], c)
	}

	for _, name := range order {
		if err := key(name); err != nil {
			return err
		}
		nodes := groups[name]
		if len(nodes) == 1 {
			if err := nodes[0].writeJSON(buf); err != nil {
				return err
			}
			continue
		}
		buf.WriteByte('[')
		for i, c := range nodes {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := c.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	}

	buf.WriteByte('}')
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
