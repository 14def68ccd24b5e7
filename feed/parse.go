package feed

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding/ianaindex"
)

// ErrNoRoot is returned for documents without a root element.
var ErrNoRoot = errors.New("document has no root element")

// Parse reads one XML document into a Node tree. HTML entities such as &nbsp; are
// resolved, since exporters copy them into descriptions verbatim.
func Parse(data []byte) (*Node, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	doc.ReadSettings.Entity = xml.HTMLEntity
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, ErrNoRoot
	}
	return fromElement(root), nil
}

// charsetReader decodes documents declaring a non UTF-8 encoding, such as the
// ISO-8859-1 many feed exporters still emit.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("charset %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("charset %q is not supported", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

func fromElement(el *etree.Element) *Node {
	n := &Node{Name: el.FullTag()}
	for _, a := range el.Attr {
		n.Attrs = append(n.Attrs, Attr{Name: a.FullKey(), Value: a.Value})
	}

	var text strings.Builder
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.Element:
			n.Children = append(n.Children, fromElement(t))
		case *etree.CharData:
			text.WriteString(t.Data)
		}
	}
	n.Text = strings.TrimSpace(text.String())
	return n
}

// Listings locates the listing collection in a parsed document. The root may be the
// container (e.g. propertyList) holding listing elements, or a single listing element.
// The second result is false when the document exposes no listing collection.
func Listings(root *Node, container, listing string) ([]*Node, bool) {
	if root == nil {
		return nil, false
	}

	switch root.Name {
	case listing:
		return []*Node{root}, true
	case container:
		nodes := root.Field(listing).Nodes()
		if len(nodes) == 0 {
			return nil, false
		}
		return nodes, true
	}
	return nil, false
}
