package selection_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/temirov/stitch/internal/selection"
	"github.com/temirov/stitch/internal/tree"
	"github.com/temirov/stitch/internal/types"
)

func buildFixtureTree(testingHandle *testing.T, files []string, directories []string) *tree.Tree {
	testingHandle.Helper()
	root := filepath.Join(testingHandle.TempDir(), "proj")
	for _, directory := range directories {
		if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(directory)), 0o755); err != nil {
			testingHandle.Fatalf("mkdir: %v", err)
		}
	}
	for _, file := range files {
		absolutePath := filepath.Join(root, filepath.FromSlash(file))
		if err := os.MkdirAll(filepath.Dir(absolutePath), 0o755); err != nil {
			testingHandle.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(absolutePath, []byte(file), 0o644); err != nil {
			testingHandle.Fatalf("write: %v", err)
		}
	}
	builtTree, _, err := tree.Build(root, types.FilterConfig{})
	if err != nil {
		testingHandle.Fatalf("Build error: %v", err)
	}
	return builtTree
}

func expectState(testingHandle *testing.T, model *selection.Model, relativePath string, expected selection.State) {
	testingHandle.Helper()
	actual, err := model.StateOf(relativePath)
	if err != nil {
		testingHandle.Fatalf("StateOf(%q) error: %v", relativePath, err)
	}
	if actual != expected {
		testingHandle.Fatalf("StateOf(%q) = %s, expected %s", relativePath, actual, expected)
	}
}

func TestToggleDirectoryCascades(t *testing.T) {
	t.Parallel()

	builtTree := buildFixtureTree(t, []string{"src/a.go", "src/inner/b.go", "src/inner/c.go", "main.go"}, nil)
	model := selection.New(builtTree)

	if err := model.Toggle("src", true); err != nil {
		t.Fatalf("Toggle error: %v", err)
	}
	expectState(t, model, "src", selection.Checked)
	expectState(t, model, "src/inner", selection.Checked)
	expectState(t, model, "", selection.PartiallyChecked)
	expected := []string{"src/inner/b.go", "src/inner/c.go", "src/a.go"}
	if actual := model.SelectedFiles(); !reflect.DeepEqual(actual, expected) {
		t.Fatalf("SelectedFiles = %v, expected %v", actual, expected)
	}

	if err := model.Toggle("src/inner/b.go", false); err != nil {
		t.Fatalf("Toggle error: %v", err)
	}
	expectState(t, model, "src/inner", selection.PartiallyChecked)
	expectState(t, model, "src", selection.PartiallyChecked)
	expectState(t, model, "src/inner/c.go", selection.Checked)

	// the last directory toggle wins over earlier per-file choices
	if err := model.Toggle("src", true); err != nil {
		t.Fatalf("Toggle error: %v", err)
	}
	expectState(t, model, "src/inner/b.go", selection.Checked)

	if err := model.Toggle("main.go", true); err != nil {
		t.Fatalf("Toggle error: %v", err)
	}
	expectState(t, model, "", selection.Checked)
	if err := model.Toggle("src", false); err != nil {
		t.Fatalf("Toggle error: %v", err)
	}
	expectState(t, model, "main.go", selection.Checked)
	expectState(t, model, "src/inner", selection.Unchecked)
	expectState(t, model, "", selection.PartiallyChecked)
}

func TestToggleUnknownPath(t *testing.T) {
	t.Parallel()

	model := selection.New(buildFixtureTree(t, []string{"a.go"}, nil))
	if err := model.Toggle("missing.go", true); !errors.Is(err, selection.ErrUnknownPath) {
		t.Fatalf("expected ErrUnknownPath, got %v", err)
	}
	if _, err := model.StateOf("missing.go"); !errors.Is(err, selection.ErrUnknownPath) {
		t.Fatalf("expected ErrUnknownPath, got %v", err)
	}
}

func TestEmptyDirectoryIsALeaf(t *testing.T) {
	t.Parallel()

	model := selection.New(buildFixtureTree(t, []string{"a.go"}, []string{"empty"}))
	expectState(t, model, "empty", selection.Unchecked)
	if err := model.Toggle("empty", true); err != nil {
		t.Fatalf("Toggle error: %v", err)
	}
	expectState(t, model, "empty", selection.Checked)
	expectState(t, model, "", selection.PartiallyChecked)
	if actual := model.SelectedDirectories(); !reflect.DeepEqual(actual, []string{"empty"}) {
		t.Fatalf("SelectedDirectories = %v", actual)
	}
	if actual := model.CheckedLeaves(); !reflect.DeepEqual(actual, []string{"empty"}) {
		t.Fatalf("CheckedLeaves = %v", actual)
	}
	if len(model.SelectedFiles()) != 0 {
		t.Fatalf("empty directory must not produce files")
	}
}

func TestClearAndSelectAll(t *testing.T) {
	t.Parallel()

	builtTree := buildFixtureTree(t, []string{"a.go", "pkg/b.go"}, nil)
	model := selection.New(builtTree)
	model.SelectAll()
	expectState(t, model, "", selection.Checked)
	if actual := model.SelectedFiles(); !reflect.DeepEqual(actual, builtTree.Files()) {
		t.Fatalf("SelectedFiles = %v", actual)
	}
	model.Clear()
	expectState(t, model, "", selection.Unchecked)
	if len(model.SelectedFiles()) != 0 {
		t.Fatalf("expected no selected files after Clear")
	}
}

func TestApplyPaths(t *testing.T) {
	t.Parallel()

	builtTree := buildFixtureTree(t, []string{"src/a.go", "src/b.go", "docs/x.md", "docs/y.md", "main.go"}, []string{"empty"})

	testCases := []struct {
		name              string
		paths             []string
		expectedFiles     []string
		expectedUnmatched []string
		expectedStates    map[string]selection.State
	}{
		{
			name:          "explicit_files_keep_siblings_unchecked",
			paths:         []string{"src", "src/a.go"},
			expectedFiles: []string{"src/a.go"},
			expectedStates: map[string]selection.State{
				"src": selection.PartiallyChecked,
				"":    selection.PartiallyChecked,
			},
		},
		{
			name:          "directory_without_listed_children_cascades",
			paths:         []string{"docs", "empty"},
			expectedFiles: []string{"docs/x.md", "docs/y.md"},
			expectedStates: map[string]selection.State{
				"docs":  selection.Checked,
				"empty": selection.Checked,
				"src":   selection.Unchecked,
			},
		},
		{
			name:              "unmatched_paths_reported",
			paths:             []string{"main.go", "gone.go", "gone.go"},
			expectedFiles:     []string{"main.go"},
			expectedUnmatched: []string{"gone.go"},
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			model := selection.New(builtTree)
			model.SelectAll()
			unmatched := model.ApplyPaths(testCase.paths)
			if !reflect.DeepEqual(unmatched, testCase.expectedUnmatched) {
				t.Fatalf("unmatched = %v, expected %v", unmatched, testCase.expectedUnmatched)
			}
			if actual := model.SelectedFiles(); !reflect.DeepEqual(actual, testCase.expectedFiles) {
				t.Fatalf("SelectedFiles = %v, expected %v", actual, testCase.expectedFiles)
			}
			for relativePath, expected := range testCase.expectedStates {
				expectState(t, model, relativePath, expected)
			}
		})
	}
}

func TestApplyPathsNestedDirectories(t *testing.T) {
	t.Parallel()

	builtTree := buildFixtureTree(t, []string{"pkg/a/b/c.go", "pkg/a/d.go", "pkg/e.go"}, nil)

	testCases := []struct {
		name          string
		paths         []string
		expectedFiles []string
	}{
		{
			name:          "listed_descendants_stop_every_ancestor_cascade",
			paths:         []string{".", "pkg", "pkg/a", "pkg/a/b/c.go", "pkg/e.go"},
			expectedFiles: []string{"pkg/a/b/c.go", "pkg/e.go"},
		},
		{
			name:          "deepest_listed_directory_cascades",
			paths:         []string{"pkg/a", "pkg/a/b"},
			expectedFiles: []string{"pkg/a/b/c.go"},
		},
		{
			name:          "root_alone_selects_everything",
			paths:         []string{""},
			expectedFiles: []string{"pkg/a/b/c.go", "pkg/a/d.go", "pkg/e.go"},
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			model := selection.New(builtTree)
			if unmatched := model.ApplyPaths(testCase.paths); len(unmatched) != 0 {
				t.Fatalf("unexpected unmatched %v", unmatched)
			}
			if actual := model.SelectedFiles(); !reflect.DeepEqual(actual, testCase.expectedFiles) {
				t.Fatalf("SelectedFiles = %v, expected %v", actual, testCase.expectedFiles)
			}
		})
	}
}

func TestSubscribeReceivesChanges(t *testing.T) {
	t.Parallel()

	model := selection.New(buildFixtureTree(t, []string{"a.go"}, nil))
	var received []selection.Change
	unsubscribe := model.Subscribe(func(change selection.Change) {
		received = append(received, change)
	})
	if err := model.Toggle("a.go", true); err != nil {
		t.Fatalf("Toggle error: %v", err)
	}
	model.Clear()
	unsubscribe()
	model.SelectAll()

	expected := []selection.Change{
		{Kind: selection.ChangeToggle, Path: "a.go", Checked: true},
		{Kind: selection.ChangeClear},
	}
	if !reflect.DeepEqual(received, expected) {
		t.Fatalf("received = %v, expected %v", received, expected)
	}
}
