package filter_test

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/temirov/stitch/internal/filter"
	"github.com/temirov/stitch/internal/types"
)

func TestIsVisible(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		entry    string
		kind     types.NodeKind
		config   types.FilterConfig
		expected bool
	}{
		{
			name:     "excluded_directory",
			entry:    ".git",
			kind:     types.KindDirectory,
			config:   types.FilterConfig{ExcludeDirectoryNames: []string{".git"}},
			expected: false,
		},
		{
			name:     "workspace_directory_always_hidden",
			entry:    filter.WorkspaceDirectoryName,
			kind:     types.KindDirectory,
			config:   types.FilterConfig{},
			expected: false,
		},
		{
			name:     "workspace_name_as_file_is_visible",
			entry:    filter.WorkspaceDirectoryName,
			kind:     types.KindFile,
			config:   types.FilterConfig{},
			expected: true,
		},
		{
			name:     "directory_name_match_is_case_sensitive",
			entry:    "Target",
			kind:     types.KindDirectory,
			config:   types.FilterConfig{ExcludeDirectoryNames: []string{"target"}},
			expected: true,
		},
		{
			name:     "directories_ignore_extension_rules",
			entry:    "pkg.rs",
			kind:     types.KindDirectory,
			config:   types.FilterConfig{IncludeExtensions: []string{".go"}},
			expected: true,
		},
		{
			name:     "excluded_file_name_beats_include",
			entry:    "main.rs",
			kind:     types.KindFile,
			config:   types.FilterConfig{IncludeExtensions: []string{".rs"}, ExcludeFileNames: []string{"main.rs"}},
			expected: false,
		},
		{
			name:     "include_wins_over_exclude",
			entry:    "lib.rs",
			kind:     types.KindFile,
			config:   types.FilterConfig{IncludeExtensions: []string{".rs"}, ExcludeExtensions: []string{".rs"}},
			expected: true,
		},
		{
			name:     "include_rejects_other_extensions",
			entry:    "README.md",
			kind:     types.KindFile,
			config:   types.FilterConfig{IncludeExtensions: []string{".rs"}},
			expected: false,
		},
		{
			name:     "include_rejects_files_without_extension",
			entry:    "Makefile",
			kind:     types.KindFile,
			config:   types.FilterConfig{IncludeExtensions: []string{".rs"}},
			expected: false,
		},
		{
			name:     "exclude_extension_is_case_insensitive",
			entry:    "yarn.LOCK",
			kind:     types.KindFile,
			config:   types.FilterConfig{ExcludeExtensions: []string{".lock"}},
			expected: false,
		},
		{
			name:     "dotfiles_visible_by_default",
			entry:    ".editorconfig",
			kind:     types.KindFile,
			config:   types.FilterConfig{},
			expected: true,
		},
		{
			name:     "only_last_extension_counts",
			entry:    "archive.tar.gz",
			kind:     types.KindFile,
			config:   types.FilterConfig{ExcludeExtensions: []string{".tar"}},
			expected: true,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			actual := filter.IsVisible(testCase.entry, testCase.kind, testCase.config)
			if actual != testCase.expected {
				t.Fatalf("IsVisible(%q) = %v, expected %v", testCase.entry, actual, testCase.expected)
			}
		})
	}
}

func TestExtensionOf(t *testing.T) {
	t.Parallel()

	testCases := map[string]string{
		"archive.tar.gz": ".gz",
		"main.RS":        ".rs",
		"Makefile":       "",
		".env":           ".env",
		"trailing.":      ".",
	}
	for name, expected := range testCases {
		if actual := filter.ExtensionOf(name); actual != expected {
			t.Fatalf("ExtensionOf(%q) = %q, expected %q", name, actual, expected)
		}
	}
}

func TestParseExtensionFilters(t *testing.T) {
	t.Parallel()

	include, exclude := filter.ParseExtensionFilters(" rs, .GO ,-lock,, *.md, -.txt, rs")
	expectedInclude := []string{".rs", ".go", ".md"}
	expectedExclude := []string{".lock", ".txt"}
	if !reflect.DeepEqual(include, expectedInclude) {
		t.Fatalf("include = %v, expected %v", include, expectedInclude)
	}
	if !reflect.DeepEqual(exclude, expectedExclude) {
		t.Fatalf("exclude = %v, expected %v", exclude, expectedExclude)
	}
	if formatted := filter.FormatExtensionFilters(include, exclude); formatted != ".rs,.go,.md,-.lock,-.txt" {
		t.Fatalf("unexpected formatted filters %q", formatted)
	}
}

func TestSplitList(t *testing.T) {
	t.Parallel()

	actual := filter.SplitList("target, .git ,, target,node_modules")
	expected := []string{"target", ".git", "node_modules"}
	if !reflect.DeepEqual(actual, expected) {
		t.Fatalf("SplitList = %v, expected %v", actual, expected)
	}
}

func TestIsEventPathRelevant(t *testing.T) {
	t.Parallel()

	root := filepath.Join(string(filepath.Separator), "work", "proj")
	config := types.FilterConfig{
		IncludeExtensions:     []string{".rs"},
		ExcludeDirectoryNames: []string{"target"},
		ExcludeFileNames:      []string{"skip.rs"},
	}

	testCases := []struct {
		name        string
		path        string
		isDirectory bool
		expected    bool
	}{
		{name: "root_itself", path: root, expected: true},
		{name: "outside_root", path: filepath.Join(string(filepath.Separator), "work", "other", "a.rs"), expected: false},
		{name: "included_file", path: filepath.Join(root, "src", "a.rs"), expected: true},
		{name: "filtered_extension", path: filepath.Join(root, "notes.md"), expected: false},
		{name: "inside_excluded_directory", path: filepath.Join(root, "target", "debug", "a.rs"), expected: false},
		{name: "excluded_file_name", path: filepath.Join(root, "skip.rs"), expected: false},
		{name: "new_directory", path: filepath.Join(root, "src.d"), isDirectory: true, expected: true},
		{name: "removed_directory_without_extension", path: filepath.Join(root, "src"), expected: true},
		{name: "workspace_directory", path: filepath.Join(root, filter.WorkspaceDirectoryName), isDirectory: true, expected: false},
		{name: "inside_workspace_directory", path: filepath.Join(root, filter.WorkspaceDirectoryName, "profiles", "a.rs"), expected: false},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			actual := filter.IsEventPathRelevant(root, testCase.path, testCase.isDirectory, config)
			if actual != testCase.expected {
				t.Fatalf("IsEventPathRelevant(%q) = %v, expected %v", testCase.path, actual, testCase.expected)
			}
		})
	}
}

func TestIsRelativePathVisible(t *testing.T) {
	t.Parallel()

	config := types.FilterConfig{
		IncludeExtensions:     []string{".go"},
		ExcludeDirectoryNames: []string{"vendor"},
	}

	testCases := []struct {
		name         string
		relativePath string
		expected     bool
	}{
		{name: "visible_file", relativePath: "cmd/main.go", expected: true},
		{name: "hidden_extension", relativePath: "cmd/readme.md", expected: false},
		{name: "inside_excluded_directory", relativePath: "vendor/lib/a.go", expected: false},
		{name: "inside_workspace", relativePath: filter.WorkspaceDirectoryName + "/profiles/a.go", expected: false},
		{name: "top_level_file", relativePath: "main.go", expected: true},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			if actual := filter.IsRelativePathVisible(testCase.relativePath, types.KindFile, config); actual != testCase.expected {
				t.Fatalf("IsRelativePathVisible(%q) = %v, expected %v", testCase.relativePath, actual, testCase.expected)
			}
		})
	}
}
