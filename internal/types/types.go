// Package types defines every cross‑package data structure used by the stitch CLI.
package types

import (
	"errors"
	"fmt"
	"strings"
)

const (
	NodeTypeFile      = "file"
	NodeTypeDirectory = "directory"

	CommandRender  = "render"
	CommandTree    = "tree"
	CommandSelect  = "select"
	CommandWatch   = "watch"
	CommandProfile = "profile"

	FormatRaw  = "raw"
	FormatJSON = "json"
	FormatXML  = "xml"

	OutputModeFullName            = "full"
	OutputModeHierarchyOnlyName   = "hierarchy"
	OutputModeDirectoriesOnlyName = "dirs"

	unknownOutputModeMessageFormat = "%w %q (expected full, hierarchy or dirs)"
)

// ErrUnknownOutputMode reports an output mode name that cannot be parsed.
var ErrUnknownOutputMode = errors.New("unknown output mode")

// NodeKind distinguishes files from directories.
type NodeKind int

const (
	KindFile NodeKind = iota
	KindDirectory
)

// String returns the node type label used in structured output.
func (kind NodeKind) String() string {
	if kind == KindDirectory {
		return NodeTypeDirectory
	}
	return NodeTypeFile
}

// OutputMode selects which sections a render produces.
type OutputMode int

const (
	// OutputModeFull renders the hierarchy followed by file contents.
	OutputModeFull OutputMode = iota
	// OutputModeHierarchyOnly renders the hierarchy of selected files and directories.
	OutputModeHierarchyOnly
	// OutputModeDirectoriesOnly renders the hierarchy restricted to directories.
	OutputModeDirectoriesOnly
)

var outputModeAliases = map[string]OutputMode{
	OutputModeFullName:            OutputModeFull,
	"":                            OutputModeFull,
	OutputModeHierarchyOnlyName:   OutputModeHierarchyOnly,
	"hierarchy-only":              OutputModeHierarchyOnly,
	OutputModeDirectoriesOnlyName: OutputModeDirectoriesOnly,
	"directories":                 OutputModeDirectoriesOnly,
	"dirs-only":                   OutputModeDirectoriesOnly,
}

// ParseOutputMode converts a configuration or flag value into an OutputMode.
func ParseOutputMode(value string) (OutputMode, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	mode, known := outputModeAliases[normalized]
	if !known {
		return OutputModeFull, fmt.Errorf(unknownOutputModeMessageFormat, ErrUnknownOutputMode, value)
	}
	return mode, nil
}

// String returns the canonical name of the mode.
func (mode OutputMode) String() string {
	switch mode {
	case OutputModeHierarchyOnly:
		return OutputModeHierarchyOnlyName
	case OutputModeDirectoriesOnly:
		return OutputModeDirectoriesOnlyName
	default:
		return OutputModeFullName
	}
}

// FilterConfig describes which entries of a project tree are visible.
// Extensions are normalized: lowercase with a leading dot.
type FilterConfig struct {
	IncludeExtensions     []string
	ExcludeExtensions     []string
	ExcludeDirectoryNames []string
	ExcludeFileNames      []string
}

// ScrubConfig describes how file contents are cleaned before rendering.
type ScrubConfig struct {
	LinePrefixes  []string
	RemovePattern string
}

// Enabled reports whether the configuration changes any text.
func (config ScrubConfig) Enabled() bool {
	return len(config.LinePrefixes) > 0 || strings.TrimSpace(config.RemovePattern) != ""
}

// WarningKind classifies a non-fatal problem encountered while scanning or rendering.
type WarningKind string

const (
	WarningPermissionDenied WarningKind = "permission_denied"
	WarningUnreadableEntry  WarningKind = "unreadable_entry"
	WarningSymlinkCycle     WarningKind = "symlink_cycle"
	WarningUnreadableFile   WarningKind = "unreadable_file"
	WarningUnmatchedPath    WarningKind = "unmatched_path"
)

// Warning is a non-fatal problem reported alongside a successful result.
type Warning struct {
	Kind WarningKind
	Path string
	Err  error
}

// Error renders the warning for logs.
func (warning Warning) Error() string {
	if warning.Err == nil {
		return fmt.Sprintf("%s: %s", warning.Kind, warning.Path)
	}
	return fmt.Sprintf("%s: %s: %v", warning.Kind, warning.Path, warning.Err)
}

// Unwrap exposes the underlying cause.
func (warning Warning) Unwrap() error {
	return warning.Err
}
