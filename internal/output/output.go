// Package output encodes a render result as raw text, JSON or XML.
package output

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/stitch/internal/render"
	"github.com/temirov/stitch/internal/tokenizer"
	"github.com/temirov/stitch/internal/types"
)

const (
	indentPrefix = ""
	indentSpacer = "  "

	xmlRootElement = "stitch"

	unsupportedFormatMessageFormat = "%w %q (expected raw, json or xml)"
)

// ErrUnsupportedFormat reports an output format name that is not known.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Document is the structured form of one render.
type Document struct {
	XMLName   xml.Name         `json:"-" xml:"stitch"`
	Root      string           `json:"root" xml:"root,attr"`
	Mode      string           `json:"mode" xml:"mode,attr"`
	Hierarchy string           `json:"hierarchy" xml:"hierarchy"`
	Notes     string           `json:"notes,omitempty" xml:"notes,omitempty"`
	Files     []File           `json:"files,omitempty" xml:"files>file,omitempty"`
	Warnings  []Warning        `json:"warnings,omitempty" xml:"warnings>warning,omitempty"`
	Stats     *tokenizer.Stats `json:"stats,omitempty" xml:"stats,omitempty"`
	Text      string           `json:"-" xml:"-"`
}

// File is one rendered file.
type File struct {
	Path       string `json:"path" xml:"path,attr"`
	Unreadable bool   `json:"unreadable,omitempty" xml:"unreadable,attr,omitempty"`
	Content    string `json:"content" xml:",chardata"`
}

// Warning is a non-fatal problem in structured form.
type Warning struct {
	Kind    string `json:"kind" xml:"kind,attr"`
	Path    string `json:"path" xml:"path,attr"`
	Message string `json:"message,omitempty" xml:",chardata"`
}

// NewDocument converts a render result. stats may be nil.
func NewDocument(rootName string, mode types.OutputMode, result render.Result, stats *tokenizer.Stats) Document {
	document := Document{
		XMLName:   xml.Name{Local: xmlRootElement},
		Root:      rootName,
		Mode:      mode.String(),
		Hierarchy: result.Hierarchy,
		Notes:     result.Notes,
		Stats:     stats,
		Text:      result.Text,
	}
	for _, block := range result.Files {
		document.Files = append(document.Files, File{Path: block.Path, Unreadable: block.Unreadable, Content: block.Content})
	}
	for _, warning := range result.Warnings {
		converted := Warning{Kind: string(warning.Kind), Path: warning.Path}
		if warning.Err != nil {
			converted.Message = warning.Err.Error()
		}
		document.Warnings = append(document.Warnings, converted)
	}
	return document
}

// ParseFormat normalizes a format name.
func ParseFormat(value string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "":
		return types.FormatRaw, nil
	case types.FormatRaw, types.FormatJSON, types.FormatXML:
		return normalized, nil
	default:
		return "", fmt.Errorf(unsupportedFormatMessageFormat, ErrUnsupportedFormat, value)
	}
}

// Render encodes document in the requested format. Raw output is the text
// envelope unchanged.
func Render(format string, document Document) (string, error) {
	normalized, formatError := ParseFormat(format)
	if formatError != nil {
		return "", formatError
	}
	switch normalized {
	case types.FormatJSON:
		return RenderJSON(document)
	case types.FormatXML:
		return RenderXML(document)
	default:
		return RenderRaw(document), nil
	}
}

// RenderRaw returns the text envelope.
func RenderRaw(document Document) string {
	return document.Text
}

// RenderJSON marshals the document as indented JSON.
func RenderJSON(document Document) (string, error) {
	encoded, jsonEncodeError := json.MarshalIndent(document, indentPrefix, indentSpacer)
	if jsonEncodeError != nil {
		return "", jsonEncodeError
	}
	return string(encoded) + "\n", nil
}

// RenderXML marshals the document as an indented XML document.
func RenderXML(document Document) (string, error) {
	encoded, xmlMarshalError := xml.MarshalIndent(document, indentPrefix, indentSpacer)
	if xmlMarshalError != nil {
		return "", xmlMarshalError
	}
	return xml.Header + string(encoded) + "\n", nil
}
