package host

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

const emptyHTML = "<!DOCTYPE html><html><head></head><body></body></html>"

// HTMLDocument is an HTML page parsed into a node tree.
type HTMLDocument struct {
	log  *zap.Logger
	root *html.Node
}

// NewHTMLDocument creates an empty HTML5 page.
func NewHTMLDocument(log *zap.Logger) *HTMLDocument {
	root, err := html.Parse(strings.NewReader(emptyHTML))
	if err != nil {
		// this should never happen
		panic(fmt.Sprintf("unable to parse empty page: %v", err))
	}
	return &HTMLDocument{log: hostLogger(log), root: root}
}

// ReadHTMLDocument parses HTML page from r. Page encoding is detected from BOM
// or meta elements, UTF-8 is assumed otherwise.
func ReadHTMLDocument(r io.Reader, log *zap.Logger) (*HTMLDocument, error) {
	ur, err := charset.NewReader(r, "text/html")
	if err != nil {
		return nil, fmt.Errorf("unable to detect page encoding: %w", err)
	}
	root, err := html.Parse(ur)
	if err != nil {
		return nil, fmt.Errorf("unable to parse HTML page: %w", err)
	}
	return &HTMLDocument{log: hostLogger(log), root: root}, nil
}

// findNode returns the first element in document order for which match is true.
func findNode(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attrValue(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasID(id string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		v, ok := attrValue(n, "id")
		return ok && v == id
	}
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

func (d *HTMLDocument) head() *html.Node {
	if head := findNode(d.root, func(n *html.Node) bool { return n.DataAtom == atom.Head }); head != nil {
		return head
	}
	// parser always synthesizes head, but tree may have been built by hand
	head := &html.Node{Type: html.ElementNode, Data: "head", DataAtom: atom.Head}
	if root := findNode(d.root, func(n *html.Node) bool { return n.DataAtom == atom.Html }); root != nil {
		root.InsertBefore(head, root.FirstChild)
	} else {
		d.root.AppendChild(head)
	}
	return head
}

// Apply appends <style id="id" type="text/css"> with css to the page head.
func (d *HTMLDocument) Apply(id, css string) error {
	style := &html.Node{
		Type:     html.ElementNode,
		Data:     "style",
		DataAtom: atom.Style,
		Attr: []html.Attribute{
			{Key: "id", Val: id},
			{Key: "type", Val: "text/css"},
		},
	}
	style.AppendChild(&html.Node{Type: html.TextNode, Data: css})
	d.head().AppendChild(style)

	d.log.Debug("Style element created", zap.String("id", id), zap.Int("bytes", len(css)))
	return nil
}

// Remove deletes the first element with the id, absent id is not an error.
func (d *HTMLDocument) Remove(id string) error {
	n := findNode(d.root, hasID(id))
	if n == nil {
		return nil
	}
	n.Parent.RemoveChild(n)

	d.log.Debug("Element removed", zap.String("id", id), zap.String("tag", n.Data))
	return nil
}

// Style returns text of the style element with the id.
func (d *HTMLDocument) Style(id string) (string, bool) {
	n := findNode(d.root, hasID(id))
	if n == nil || n.DataAtom != atom.Style {
		return "", false
	}
	return textOf(n), true
}

// StyleSheets returns texts of all style elements in document order.
func (d *HTMLDocument) StyleSheets() []string {
	var sheets []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Style {
			sheets = append(sheets, textOf(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return sheets
}

// WriteTo renders the page, implementing io.WriterTo.
func (d *HTMLDocument) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return 0, fmt.Errorf("unable to render HTML page: %w", err)
	}
	return buf.WriteTo(w)
}
