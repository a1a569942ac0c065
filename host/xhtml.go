package host

import (
	"fmt"
	"io"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

// XHTMLDocument is an XHTML page kept as XML element tree.
type XHTMLDocument struct {
	log *zap.Logger
	doc *etree.Document
}

// NewXHTMLDocument creates an empty XHTML page.
func NewXHTMLDocument(log *zap.Logger) *XHTMLDocument {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("html")
	root.CreateAttr("xmlns", "http://www.w3.org/1999/xhtml")

	head := root.CreateElement("head")
	meta := head.CreateElement("meta")
	meta.CreateAttr("http-equiv", "Content-Type")
	meta.CreateAttr("content", "text/html; charset=utf-8")
	head.CreateElement("title")

	root.CreateElement("body")

	return &XHTMLDocument{log: hostLogger(log), doc: doc}
}

// ReadXHTMLDocument parses XHTML page from r. Pages often do not follow XML
// standard strictly, so parsing is permissive.
func ReadXHTMLDocument(r io.Reader, log *zap.Logger) (*XHTMLDocument, error) {
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		Permissive:    true,
	}
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("unable to parse XHTML page: %w", err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("unable to parse XHTML page: no root element")
	}
	return &XHTMLDocument{log: hostLogger(log), doc: doc}, nil
}

func findElement(e *etree.Element, match func(*etree.Element) bool) *etree.Element {
	if match(e) {
		return e
	}
	for _, child := range e.ChildElements() {
		if found := findElement(child, match); found != nil {
			return found
		}
	}
	return nil
}

func (d *XHTMLDocument) byID(id string) *etree.Element {
	return findElement(d.doc.Root(), func(e *etree.Element) bool {
		return e.SelectAttrValue("id", "") == id
	})
}

func (d *XHTMLDocument) head() *etree.Element {
	root := d.doc.Root()
	if head := findElement(root, func(e *etree.Element) bool { return e.Tag == "head" }); head != nil {
		return head
	}
	head := etree.NewElement("head")
	head.Space = root.Space
	root.InsertChildAt(0, head)
	return head
}

// Apply appends <style id="id" type="text/css"> with css to the page head.
func (d *XHTMLDocument) Apply(id, css string) error {
	head := d.head()
	style := head.CreateElement("style")
	style.Space = head.Space
	style.CreateAttr("id", id)
	style.CreateAttr("type", "text/css")
	style.SetText(css)

	d.log.Debug("Style element created", zap.String("id", id), zap.Int("bytes", len(css)))
	return nil
}

// Remove deletes the first element with the id, absent id is not an error.
func (d *XHTMLDocument) Remove(id string) error {
	e := d.byID(id)
	if e == nil {
		return nil
	}
	if parent := e.Parent(); parent != nil {
		parent.RemoveChild(e)
	} else {
		return fmt.Errorf("unable to remove root element #%s", id)
	}

	d.log.Debug("Element removed", zap.String("id", id), zap.String("tag", e.Tag))
	return nil
}

// Style returns text of the style element with the id.
func (d *XHTMLDocument) Style(id string) (string, bool) {
	e := d.byID(id)
	if e == nil || e.Tag != "style" {
		return "", false
	}
	return e.Text(), true
}

// StyleSheets returns texts of all style elements in document order.
func (d *XHTMLDocument) StyleSheets() []string {
	var sheets []string
	for _, e := range d.doc.FindElements("//style") {
		sheets = append(sheets, e.Text())
	}
	return sheets
}

// WriteTo writes the page, implementing io.WriterTo.
func (d *XHTMLDocument) WriteTo(w io.Writer) (int64, error) {
	n, err := d.doc.WriteTo(w)
	if err != nil {
		return n, fmt.Errorf("unable to write XHTML page: %w", err)
	}
	return n, nil
}
