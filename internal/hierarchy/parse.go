package hierarchy

import (
	"errors"
	"fmt"
	"strings"
)

const (
	hierarchySectionHeader = "=== FILE HIERARCHY ==="
	sectionHeaderMarker    = "=== "
	sectionHeaderClosing   = " ==="
	directoryNameSuffix    = "/"

	malformedMessageFormat = "%v at line %d: %s: %q"

	reasonEmpty            = "no root line"
	reasonRootIsEntry      = "first line is a tree entry, expected the root name"
	reasonMissingConnector = "line is not a tree entry"
	reasonDepthJump        = "indentation skips a level"
	reasonEmptyName        = "entry has no name"
)

// ErrMalformedHierarchy is wrapped by every parse failure.
var ErrMalformedHierarchy = errors.New("malformed hierarchy")

// MalformedError describes the first line that could not be parsed.
// Line is 1-based; it is 0 when the text has no lines at all.
type MalformedError struct {
	Line   int
	Text   string
	Reason string
}

func (malformedError *MalformedError) Error() string {
	return fmt.Sprintf(malformedMessageFormat, ErrMalformedHierarchy, malformedError.Line, malformedError.Reason, malformedError.Text)
}

// Unwrap allows errors.Is(err, ErrMalformedHierarchy).
func (malformedError *MalformedError) Unwrap() error {
	return ErrMalformedHierarchy
}

// Document is a parsed hierarchy: the root name and the entry paths in order
// of appearance, relative to the root and joined with "/".
type Document struct {
	RootName string
	Paths    []string
}

var (
	continuationGroups = []string{continuationOpen, continuationClosed, asciiContinuationOn}
	entryConnectors    = []string{connectorMiddle, connectorLast, asciiConnectorPipe, asciiConnectorTick, asciiConnectorPlus}
)

// Parse reads hierarchy text as produced by Render. It also accepts the ASCII
// connectors of the tree(1) command, CRLF line endings, trailing whitespace,
// blank lines and a leading FILE HIERARCHY section header. Parsing stops at the
// next section header so a complete rendered output can be fed back.
func Parse(text string) (Document, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	lineIndex := 0
	skipBlank := func() {
		for lineIndex < len(lines) && strings.TrimSpace(lines[lineIndex]) == "" {
			lineIndex++
		}
	}
	skipBlank()
	if lineIndex < len(lines) && strings.TrimSpace(lines[lineIndex]) == hierarchySectionHeader {
		lineIndex++
		skipBlank()
	}
	if lineIndex >= len(lines) {
		return Document{}, &MalformedError{Line: 0, Reason: reasonEmpty}
	}

	rootLine := strings.TrimRight(lines[lineIndex], " \t")
	if _, _, isEntry := splitEntry(rootLine); isEntry {
		return Document{}, &MalformedError{Line: lineIndex + 1, Text: rootLine, Reason: reasonRootIsEntry}
	}
	document := Document{RootName: strings.TrimSpace(rootLine)}
	lineIndex++

	var ancestors []string
	seen := make(map[string]struct{})
	for ; lineIndex < len(lines); lineIndex++ {
		line := strings.TrimRight(lines[lineIndex], " \t")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if isSectionHeader(line) {
			break
		}
		depth, name, isEntry := splitEntry(line)
		if !isEntry {
			return Document{}, &MalformedError{Line: lineIndex + 1, Text: line, Reason: reasonMissingConnector}
		}
		if depth > len(ancestors) {
			return Document{}, &MalformedError{Line: lineIndex + 1, Text: line, Reason: reasonDepthJump}
		}
		name = strings.TrimSuffix(strings.TrimSpace(name), directoryNameSuffix)
		if name == "" {
			return Document{}, &MalformedError{Line: lineIndex + 1, Text: line, Reason: reasonEmptyName}
		}
		ancestors = append(ancestors[:depth], name)
		relativePath := strings.Join(ancestors, pathSegmentDivider)
		if _, duplicate := seen[relativePath]; duplicate {
			continue
		}
		seen[relativePath] = struct{}{}
		document.Paths = append(document.Paths, relativePath)
	}
	return document, nil
}

// splitEntry consumes continuation groups followed by one connector.
// Glyphs are matched as whole strings so multi-byte characters never skew the depth.
func splitEntry(line string) (int, string, bool) {
	depth := 0
	remainder := line
	for {
		if connector, found := matchPrefix(remainder, entryConnectors); found {
			return depth, remainder[len(connector):], true
		}
		group, found := matchPrefix(remainder, continuationGroups)
		if !found {
			return 0, "", false
		}
		remainder = remainder[len(group):]
		depth++
	}
}

func matchPrefix(text string, candidates []string) (string, bool) {
	for _, candidate := range candidates {
		if strings.HasPrefix(text, candidate) {
			return candidate, true
		}
	}
	return "", false
}

func isSectionHeader(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, sectionHeaderMarker) && strings.HasSuffix(trimmed, sectionHeaderClosing)
}
