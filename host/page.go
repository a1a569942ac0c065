// Package host provides pages styles are injected into. Every page implements
// css.StyleSink with DOM semantics: Apply appends a style element with the
// given id to the document head, Remove deletes the first element having the
// id anywhere in the document.
package host

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"cssw/common"
	"cssw/css"
)

// Page is a document which can receive styles and be written back.
type Page interface {
	css.StyleSink
	io.WriterTo

	// Style returns text of the style element with the given id.
	Style(id string) (string, bool)
	// StyleSheets returns texts of all style elements in document order.
	StyleSheets() []string
}

// NewPage creates an empty page of requested format.
func NewPage(format common.HostFormat, log *zap.Logger) (Page, error) {
	switch format {
	case common.HostFormatHtml:
		return NewHTMLDocument(log), nil
	case common.HostFormatXhtml:
		return NewXHTMLDocument(log), nil
	}
	return nil, fmt.Errorf("unsupported page format %s", format)
}

// ReadPage parses page of requested format from r.
func ReadPage(r io.Reader, format common.HostFormat, log *zap.Logger) (Page, error) {
	switch format {
	case common.HostFormatHtml:
		return ReadHTMLDocument(r, log)
	case common.HostFormatXhtml:
		return ReadXHTMLDocument(r, log)
	}
	return nil, fmt.Errorf("unsupported page format %s", format)
}

func hostLogger(log *zap.Logger) *zap.Logger {
	if log == nil {
		log = zap.NewNop()
	}
	return log.Named("host")
}
