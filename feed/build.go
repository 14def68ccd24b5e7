package feed

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/beevik/etree"
)

// WriteDocument serializes listings, in the given order, as children of a single root
// element. Empty nodes are dropped so the result keeps the shape of the input feeds.
func WriteDocument(w io.Writer, root string, listings []*Node) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	container := doc.CreateElement(root)

	for _, l := range listings {
		appendNode(container, l)
	}

	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

func appendNode(parent *etree.Element, n *Node) {
	if n.IsEmpty() {
		return
	}

	el := parent.CreateElement(n.Name)
	for _, a := range n.Attrs {
		el.CreateAttr(a.Name, a.Value)
	}
	if n.Text != "" {
		el.SetText(n.Text)
	}
	for _, c := range n.Children {
		appendNode(el, c)
	}
}

// WriteFile writes the document to path through a temp file in the same directory,
// so readers never observe a partially written artifact.
func WriteFile(path, root string, listings []*Node) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := WriteDocument(tmp, root, listings); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("chmod output: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}
