// Package common keeps enums shared by configuration and commands.
package common

import (
	"fmt"
	"strings"
)

// Kind of page styles are injected into.
type HostFormat int

const (
	HostFormatHtml HostFormat = iota
	HostFormatXhtml
)

var hostFormatNames = []string{"html", "xhtml"}

func (f HostFormat) String() string {
	if f.IsValid() {
		return hostFormatNames[f]
	}
	return fmt.Sprintf("HostFormat(%d)", int(f))
}

func (f HostFormat) IsValid() bool {
	return f >= HostFormatHtml && int(f) < len(hostFormatNames)
}

// Ext returns file extension conventionally used for the format.
func (f HostFormat) Ext() string {
	switch f {
	case HostFormatXhtml:
		return ".xhtml"
	default:
		return ".html"
	}
}

// HostFormatNames returns list of possible string values.
func HostFormatNames() []string {
	return append([]string(nil), hostFormatNames...)
}

// ParseHostFormat converts case insensitive name into HostFormat.
func ParseHostFormat(name string) (HostFormat, error) {
	for i, n := range hostFormatNames {
		if strings.EqualFold(n, name) {
			return HostFormat(i), nil
		}
	}
	return HostFormatHtml, fmt.Errorf("%s is not a valid HostFormat, try [%s]", name, strings.Join(hostFormatNames, ", "))
}

// HostFormatFromPath guesses format by file extension, defaulting to html.
func HostFormatFromPath(path string) HostFormat {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".xhtml") || strings.HasSuffix(lower, ".xml") {
		return HostFormatXhtml
	}
	return HostFormatHtml
}

func (f HostFormat) MarshalText() ([]byte, error) {
	if !f.IsValid() {
		return nil, fmt.Errorf("invalid HostFormat %d", int(f))
	}
	return []byte(f.String()), nil
}

func (f *HostFormat) UnmarshalText(text []byte) error {
	v, err := ParseHostFormat(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
