package synth

import (
	"encoding/xml"
	"strings"
)

// XLinkNamespace is the namespace of the linking attributes.
const XLinkNamespace = "http://www.w3.org/1999/xlink"

// Attr is a qualified attribute, e.g. "xlink:href".
type Attr struct {
	Name  string
	Value string
}

// Node is one element of a synthesized payload.
type Node struct {
	Namespace string
	Name      string
	Text      string
	Attrs     []Attr
	Children  []*Node
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Child returns the first direct child with the given name.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// XML renders the node as an XML document fragment. The namespace is
// declared as the default namespace wherever it differs from the parent's.
// A nil node renders as the empty string.
func (n *Node) XML() string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	n.write(&b, "")
	return b.String()
}

func (n *Node) write(b *strings.Builder, parentNS string) {
	b.WriteByte('<')
	b.WriteString(n.Name)
	if n.Namespace != parentNS {
		writeAttr(b, "xmlns", n.Namespace)
	}
	for _, a := range n.Attrs {
		writeAttr(b, a.Name, a.Value)
	}
	if n.Text == "" && len(n.Children) == 0 {
		b.WriteString(" />")
		return
	}
	b.WriteByte('>')
	_ = xml.EscapeText(b, []byte(n.Text))
	for _, c := range n.Children {
		c.write(b, n.Namespace)
	}
	b.WriteString("</")
	b.WriteString(n.Name)
	b.WriteByte('>')
}

func writeAttr(b *strings.Builder, name, value string) {
	b.WriteByte(' ')
	b.WriteString(name)
	b.WriteString(`="`)
	_ = xml.EscapeText(b, []byte(value))
	b.WriteByte('"')
}
