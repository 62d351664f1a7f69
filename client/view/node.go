// Package view renders client state into document trees. Renderers are pure:
// they read state and return nodes, and every clickable node carries the
// Action the app dispatches for it.
package view

import (
	"bytes"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attr is one element attribute. Order is preserved when rendering.
type Attr struct {
	Key, Val string
}

// Node is an element, or a text node when Tag is empty.
type Node struct {
	Tag      string
	Attrs    []Attr
	Text     string
	Children []*Node
	Action   *Action
}

// El builds an element. Nil children are skipped so optional parts can be
// passed inline.
func El(tag string, children ...*Node) *Node {
	n := &Node{Tag: tag}
	for _, c := range children {
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}
	return n
}

// Text builds a text node.
func Text(s string) *Node {
	return &Node{Text: s}
}

// Set adds or replaces an attribute.
func (n *Node) Set(key, val string) *Node {
	for i := range n.Attrs {
		if n.Attrs[i].Key == key {
			n.Attrs[i].Val = val
			return n
		}
	}
	n.Attrs = append(n.Attrs, Attr{Key: key, Val: val})
	return n
}

// ID sets the id attribute.
func (n *Node) ID(id string) *Node { return n.Set("id", id) }

// Class sets the class attribute.
func (n *Node) Class(c string) *Node { return n.Set("class", c) }

// On attaches the action dispatched when the node is used.
func (n *Node) On(a Action) *Node {
	n.Action = &a
	return n
}

// Get returns an attribute value or "".
func (n *Node) Get(key string) string {
	v, _ := n.Attr(key)
	return v
}

func (n *Node) IsText() bool { return n.Tag == "" }

func (n *Node) HasClass(c string) bool { return containsField(n.Get("class"), c) }

// Hidden reports whether the node is styled out of view.
func (n *Node) Hidden() bool {
	return strings.Contains(n.Get("style"), "display:none") || n.HasClass("hide")
}

// Attr looks up an attribute.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// TextContent concatenates the text of n and its descendants.
func (n *Node) TextContent() string {
	var b strings.Builder
	n.Walk(func(c *Node) bool {
		if c.IsText() {
			b.WriteString(c.Text)
		}
		return true
	})
	return b.String()
}

// Walk visits n and its descendants depth first until fn returns false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Find returns the first node matching pred, or nil.
func (n *Node) Find(pred func(*Node) bool) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if pred(c) {
			found = c
			return false
		}
		return true
	})
	return found
}

// FindAll returns every node matching pred in document order.
func (n *Node) FindAll(pred func(*Node) bool) []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		if pred(c) {
			out = append(out, c)
		}
		return true
	})
	return out
}

// ByID finds an element by id.
func (n *Node) ByID(id string) *Node {
	return n.Find(func(c *Node) bool { return c.Get("id") == id })
}

// ByClass finds every element carrying class c.
func (n *Node) ByClass(c string) []*Node {
	return n.FindAll(func(x *Node) bool { return x.HasClass(c) })
}

// Actions lists the actions reachable in the tree, in document order.
func (n *Node) Actions() []Action {
	var out []Action
	n.Walk(func(c *Node) bool {
		if c.Action != nil {
			out = append(out, *c.Action)
		}
		return true
	})
	return out
}

// HTML serializes the tree. Actions become data-* attributes so a page
// script can bind them.
func (n *Node) HTML() (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n.toHTML()); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (n *Node) toHTML() *html.Node {
	if n.IsText() {
		return &html.Node{Type: html.TextNode, Data: n.Text}
	}
	h := &html.Node{
		Type:     html.ElementNode,
		Data:     n.Tag,
		DataAtom: atom.Lookup([]byte(n.Tag)),
	}
	for _, a := range n.Attrs {
		h.Attr = append(h.Attr, html.Attribute{Key: a.Key, Val: a.Val})
	}
	if n.Action != nil {
		h.Attr = append(h.Attr, n.Action.attrs()...)
	}
	for _, c := range n.Children {
		h.AppendChild(c.toHTML())
	}
	return h
}

func containsField(list, want string) bool {
	for _, f := range strings.Fields(list) {
		if f == want {
			return true
		}
	}
	return false
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
