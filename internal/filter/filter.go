// Package filter decides which filesystem entries of a project are visible.
package filter

import (
	"path/filepath"
	"strings"

	"github.com/temirov/stitch/internal/types"
)

const (
	// WorkspaceDirectoryName holds saved profiles and is hidden from every scan.
	WorkspaceDirectoryName = ".stitchworkspace"

	extensionSeparator     = "."
	exclusionMarker        = "-"
	listSeparator          = ","
	wildcardExtensionStart = "*."
)

// DefaultExcludedDirectoryNames lists directory names hidden unless configured otherwise.
var DefaultExcludedDirectoryNames = []string{
	".git", "node_modules", "target", "_target", ".elan", ".lake", ".idea", ".vscode",
	"_app", ".svelte-kit", ".sqlx", "venv", ".venv", "__pycache__", "LICENSES", "fixtures",
}

// DefaultExcludedFileNames lists file names hidden unless configured otherwise.
var DefaultExcludedFileNames = []string{
	"LICENSE", "Cargo.lock", "package-lock.json", "yarn.lock", ".DS_Store", ".dockerignore",
	".gitignore", ".npmignore", ".pre-commit-config.yaml", ".prettierignore", ".prettierrc",
	"eslint.config.js", ".env", "Thumbs.db",
}

// Verdict explains why an entry is visible or hidden.
type Verdict int

const (
	Visible Verdict = iota
	HiddenDirectoryName
	HiddenFileName
	HiddenExtension
	NotIncluded
	HiddenWorkspace
)

// Classify evaluates one entry. Name exclusions are exact and case-sensitive and
// take precedence over extension rules. A non-empty include set admits only
// matching files and overrides the exclude set.
func Classify(name string, kind types.NodeKind, config types.FilterConfig) Verdict {
	if kind == types.KindDirectory {
		if name == WorkspaceDirectoryName {
			return HiddenWorkspace
		}
		if containsExact(config.ExcludeDirectoryNames, name) {
			return HiddenDirectoryName
		}
		return Visible
	}
	if containsExact(config.ExcludeFileNames, name) {
		return HiddenFileName
	}
	extension := ExtensionOf(name)
	if len(config.IncludeExtensions) > 0 {
		if containsExact(config.IncludeExtensions, extension) {
			return Visible
		}
		return NotIncluded
	}
	if containsExact(config.ExcludeExtensions, extension) {
		return HiddenExtension
	}
	return Visible
}

// IsVisible reports whether an entry with the given base name and kind passes the filter.
func IsVisible(name string, kind types.NodeKind, config types.FilterConfig) bool {
	return Classify(name, kind, config) == Visible
}

// ExtensionOf returns the lowercase extension of name with a leading dot, or "" when name has no dot.
// Only the last dot counts: "archive.tar.gz" yields ".gz" and ".env" yields ".env".
func ExtensionOf(name string) string {
	separatorIndex := strings.LastIndex(name, extensionSeparator)
	if separatorIndex < 0 {
		return ""
	}
	return strings.ToLower(name[separatorIndex:])
}

// NormalizeExtension converts "rs", ".RS" or "*.rs" into ".rs". Blank input yields "".
func NormalizeExtension(value string) string {
	trimmed := strings.TrimSpace(value)
	trimmed = strings.TrimPrefix(trimmed, wildcardExtensionStart)
	trimmed = strings.TrimLeft(trimmed, extensionSeparator)
	if trimmed == "" {
		return ""
	}
	return extensionSeparator + strings.ToLower(trimmed)
}

// ParseExtensionFilters splits a comma separated list such as "rs, .go, -lock" into
// include and exclude sets. A leading "-" marks an exclusion.
func ParseExtensionFilters(value string) (include []string, exclude []string) {
	for _, token := range strings.Split(value, listSeparator) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		excluded := strings.HasPrefix(token, exclusionMarker)
		normalized := NormalizeExtension(strings.TrimPrefix(token, exclusionMarker))
		if normalized == "" {
			continue
		}
		if excluded {
			exclude = appendUnique(exclude, normalized)
		} else {
			include = appendUnique(include, normalized)
		}
	}
	return include, exclude
}

// FormatExtensionFilters is the inverse of ParseExtensionFilters.
func FormatExtensionFilters(include []string, exclude []string) string {
	tokens := make([]string, 0, len(include)+len(exclude))
	tokens = append(tokens, include...)
	for _, extension := range exclude {
		tokens = append(tokens, exclusionMarker+extension)
	}
	return strings.Join(tokens, listSeparator)
}

// SplitList splits a comma separated list of names, dropping blanks and duplicates.
func SplitList(value string) []string {
	var result []string
	for _, token := range strings.Split(value, listSeparator) {
		token = strings.TrimSpace(token)
		if token != "" {
			result = appendUnique(result, token)
		}
	}
	return result
}

// Normalize returns a copy of config with extensions normalized and duplicates removed.
func Normalize(config types.FilterConfig) types.FilterConfig {
	return types.FilterConfig{
		IncludeExtensions:     normalizeExtensions(config.IncludeExtensions),
		ExcludeExtensions:     normalizeExtensions(config.ExcludeExtensions),
		ExcludeDirectoryNames: dedupeNames(config.ExcludeDirectoryNames),
		ExcludeFileNames:      dedupeNames(config.ExcludeFileNames),
	}
}

// Default returns the filter applied when nothing is configured.
func Default() types.FilterConfig {
	return types.FilterConfig{
		ExcludeDirectoryNames: append([]string(nil), DefaultExcludedDirectoryNames...),
		ExcludeFileNames:      append([]string(nil), DefaultExcludedFileNames...),
	}
}

// IsRelativePathVisible reports whether a slash separated root-relative path
// would appear in a tree built with config: every parent directory and the
// final entry must be visible.
func IsRelativePathVisible(relativePath string, kind types.NodeKind, config types.FilterConfig) bool {
	components := strings.Split(strings.Trim(relativePath, "/"), "/")
	for _, component := range components[:len(components)-1] {
		if !IsVisible(component, types.KindDirectory, config) {
			return false
		}
	}
	return IsVisible(components[len(components)-1], kind, config)
}

// IsEventPathRelevant reports whether a change at absolutePath can affect the visible tree under root.
// isDirectory should be true when the changed path is known to be a directory.
func IsEventPathRelevant(root string, absolutePath string, isDirectory bool, config types.FilterConfig) bool {
	cleanRoot := filepath.Clean(root)
	cleanPath := filepath.Clean(absolutePath)
	if cleanPath == cleanRoot {
		return true
	}
	relativePath, relativeError := filepath.Rel(cleanRoot, cleanPath)
	if relativeError != nil || relativePath == ".." || strings.HasPrefix(relativePath, ".."+string(filepath.Separator)) {
		return false
	}
	components := strings.Split(filepath.ToSlash(relativePath), "/")
	for _, component := range components[:len(components)-1] {
		if isHiddenDirectoryName(component, config) {
			return false
		}
	}
	baseName := components[len(components)-1]
	if isDirectory {
		return !isHiddenDirectoryName(baseName, config)
	}
	if containsExact(config.ExcludeFileNames, baseName) || isHiddenDirectoryName(baseName, config) {
		return false
	}
	// removed directories arrive without kind information and usually carry no extension
	return ExtensionOf(baseName) == "" || extensionAllowed(ExtensionOf(baseName), config)
}

func extensionAllowed(extension string, config types.FilterConfig) bool {
	if len(config.IncludeExtensions) > 0 {
		return containsExact(config.IncludeExtensions, extension)
	}
	return !containsExact(config.ExcludeExtensions, extension)
}

func normalizeExtensions(values []string) []string {
	var result []string
	for _, value := range values {
		if normalized := NormalizeExtension(value); normalized != "" {
			result = appendUnique(result, normalized)
		}
	}
	return result
}

func dedupeNames(values []string) []string {
	var result []string
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			result = appendUnique(result, trimmed)
		}
	}
	return result
}

func containsExact(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}

func appendUnique(values []string, value string) []string {
	if containsExact(values, value) {
		return values
	}
	return append(values, value)
}

func isHiddenDirectoryName(name string, config types.FilterConfig) bool {
	return name == WorkspaceDirectoryName || containsExact(config.ExcludeDirectoryNames, name)
}
