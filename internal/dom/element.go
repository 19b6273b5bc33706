package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Attr returns the value of attribute key and whether it is present.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil || n.Type != html.ElementNode {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// AttrOr returns the value of attribute key or def when absent.
func AttrOr(n *html.Node, key, def string) string {
	if v, ok := Attr(n, key); ok {
		return v
	}
	return def
}

// HasAttr reports whether attribute key is present.
func HasAttr(n *html.Node, key string) bool {
	_, ok := Attr(n, key)
	return ok
}

// SetAttr sets attribute key to val and reports whether the tree changed.
func SetAttr(n *html.Node, key, val string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			if a.Val == val {
				return false
			}
			n.Attr[i].Val = val
			return true
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
	return true
}

// RemoveAttr deletes attribute key and reports whether it was present.
func RemoveAttr(n *html.Node, key string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return true
		}
	}
	return false
}

// Classes returns the class list of n.
func Classes(n *html.Node) []string {
	v, _ := Attr(n, "class")
	return strings.Fields(v)
}

// HasClass reports whether n carries class c.
func HasClass(n *html.Node, c string) bool {
	for _, have := range Classes(n) {
		if have == c {
			return true
		}
	}
	return false
}

// AddClass appends the given classes that n does not carry yet.
func AddClass(n *html.Node, classes ...string) bool {
	list := Classes(n)
	changed := false
	for _, c := range classes {
		if c == "" || containsString(list, c) {
			continue
		}
		list = append(list, c)
		changed = true
	}
	if changed {
		SetAttr(n, "class", strings.Join(list, " "))
	}
	return changed
}

// RemoveClass removes class c from n.
func RemoveClass(n *html.Node, c string) bool {
	list := Classes(n)
	out := list[:0]
	for _, have := range list {
		if have != c {
			out = append(out, have)
		}
	}
	if len(out) == len(list) {
		return false
	}
	if len(out) == 0 {
		return RemoveAttr(n, "class")
	}
	return SetAttr(n, "class", strings.Join(out, " "))
}

// Tag returns the lower-case tag name of an element, or "".
func Tag(n *html.Node) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	return n.Data
}

// IsElement reports whether n is an element with one of the given tags.
// With no tags it reports whether n is any element.
func IsElement(n *html.Node, tags ...string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if len(tags) == 0 {
		return true
	}
	return containsString(tags, n.Data)
}

// Children returns the element children of n.
func Children(n *html.Node) []*html.Node {
	if n == nil {
		return nil
	}
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// ChildNodeCount counts child nodes of any type, like DOM childNodes.length.
func ChildNodeCount(n *html.Node) int {
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count++
	}
	return count
}

// PreviousElementSibling returns the closest preceding element sibling.
func PreviousElementSibling(n *html.Node) *html.Node {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

// ParentElement returns the parent of n when it is an element.
func ParentElement(n *html.Node) *html.Node {
	if n == nil || n.Parent == nil || n.Parent.Type != html.ElementNode {
		return nil
	}
	return n.Parent
}

// Closest returns n or its nearest ancestor satisfying match.
func Closest(n *html.Node, match func(*html.Node) bool) *html.Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && match(cur) {
			return cur
		}
	}
	return nil
}

// Detach removes n from its parent, if any.
func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// Append moves child to the end of parent.
func Append(parent, child *html.Node) {
	Detach(child)
	parent.AppendChild(child)
}

// Prepend moves child to the front of parent.
func Prepend(parent, child *html.Node) {
	Detach(child)
	if parent.FirstChild == nil {
		parent.AppendChild(child)
		return
	}
	parent.InsertBefore(child, parent.FirstChild)
}

// Precedes reports whether a comes before b in document order.
// A node precedes its own descendants.
func Precedes(a, b *html.Node) bool {
	if a == nil || b == nil || a == b {
		return false
	}
	pathA := ancestry(a)
	pathB := ancestry(b)
	if pathA[0] != pathB[0] {
		return false
	}
	i := 0
	for i < len(pathA) && i < len(pathB) && pathA[i] == pathB[i] {
		i++
	}
	switch {
	case i == len(pathA):
		return true // a is an ancestor of b
	case i == len(pathB):
		return false // b is an ancestor of a
	}
	for s := pathA[i].NextSibling; s != nil; s = s.NextSibling {
		if s == pathB[i] {
			return true
		}
	}
	return false
}

// ancestry returns the chain from the tree root down to n.
func ancestry(n *html.Node) []*html.Node {
	var chain []*html.Node
	for cur := n; cur != nil; cur = cur.Parent {
		chain = append(chain, cur)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
