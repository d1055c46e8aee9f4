// Package profile persists named selections and workspace settings under
// <root>/.stitchworkspace. Shared profiles live in profiles/, per-user ones in
// local/profiles/; a local profile shadows a shared one with the same name.
package profile

import (
	"errors"
	"strings"

	"github.com/temirov/stitch/internal/filter"
	"github.com/temirov/stitch/internal/types"
)

const (
	// WorkspaceDirectoryName is the directory created at the project root.
	WorkspaceDirectoryName = filter.WorkspaceDirectoryName
	// LocalDirectoryName holds per-user state inside the workspace directory.
	LocalDirectoryName    = "local"
	profilesDirectoryName = "profiles"
	workspaceFileName     = "workspace.yaml"
	recordExtension       = ".yaml"
	temporarySuffix       = ".tmp"
	unnamedProfileName    = "unnamed"
	sanitizedReplacement  = '_'
	currentRecordVersion  = 1
)

var (
	// ErrProfileNotFound reports a profile missing from both scopes.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrCorruptRecord reports a record that exists but cannot be decoded.
	ErrCorruptRecord = errors.New("corrupt workspace record")
)

// Scope selects where a profile is stored.
type Scope int

const (
	ScopeShared Scope = iota
	ScopeLocal
)

// String returns the scope label used in listings.
func (scope Scope) String() string {
	if scope == ScopeLocal {
		return "local"
	}
	return "shared"
}

// Settings are the render settings remembered by a profile or by the workspace.
type Settings struct {
	IncludeExtensions  []string `yaml:"include_extensions,omitempty"`
	ExcludeExtensions  []string `yaml:"exclude_extensions,omitempty"`
	ExcludeDirectories []string `yaml:"exclude_dirs,omitempty"`
	ExcludeFiles       []string `yaml:"exclude_files,omitempty"`
	RemovePrefixes     []string `yaml:"remove_prefixes,omitempty"`
	RemoveRegex        string   `yaml:"remove_regex,omitempty"`
	Mode               string   `yaml:"mode,omitempty"`
}

// NewSettings captures the given configuration.
func NewSettings(filterConfig types.FilterConfig, scrubConfig types.ScrubConfig, mode types.OutputMode) Settings {
	return Settings{
		IncludeExtensions:  filterConfig.IncludeExtensions,
		ExcludeExtensions:  filterConfig.ExcludeExtensions,
		ExcludeDirectories: filterConfig.ExcludeDirectoryNames,
		ExcludeFiles:       filterConfig.ExcludeFileNames,
		RemovePrefixes:     scrubConfig.LinePrefixes,
		RemoveRegex:        scrubConfig.RemovePattern,
		Mode:               mode.String(),
	}
}

// FilterConfig returns the normalized filter stored in the settings.
func (settings Settings) FilterConfig() types.FilterConfig {
	return filter.Normalize(types.FilterConfig{
		IncludeExtensions:     settings.IncludeExtensions,
		ExcludeExtensions:     settings.ExcludeExtensions,
		ExcludeDirectoryNames: settings.ExcludeDirectories,
		ExcludeFileNames:      settings.ExcludeFiles,
	})
}

// ScrubConfig returns the scrub settings.
func (settings Settings) ScrubConfig() types.ScrubConfig {
	return types.ScrubConfig{LinePrefixes: settings.RemovePrefixes, RemovePattern: settings.RemoveRegex}
}

// OutputMode parses the stored mode; an empty mode is Full.
func (settings Settings) OutputMode() (types.OutputMode, error) {
	return types.ParseOutputMode(settings.Mode)
}

// Profile is a named selection plus the settings it was made with.
type Profile struct {
	Name      string   `yaml:"name"`
	Settings  Settings `yaml:"settings"`
	Selection []string `yaml:"selection,omitempty"`
}

// Meta describes one listed profile.
type Meta struct {
	Name  string
	Scope Scope
}

// Workspace is the per-project state kept in workspace.yaml.
type Workspace struct {
	Version        int      `yaml:"version"`
	Settings       Settings `yaml:"settings"`
	CurrentProfile string   `yaml:"current_profile,omitempty"`
}

// SanitizeName maps a profile name to a file name stem. Letters, digits,
// '-', '_' and spaces are kept; everything else becomes '_'.
func SanitizeName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return unnamedProfileName
	}
	var builder strings.Builder
	for _, character := range trimmed {
		switch {
		case character >= 'a' && character <= 'z',
			character >= 'A' && character <= 'Z',
			character >= '0' && character <= '9',
			character == '-', character == '_', character == ' ':
			builder.WriteRune(character)
		default:
			builder.WriteRune(sanitizedReplacement)
		}
	}
	return builder.String()
}
