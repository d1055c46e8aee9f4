package render_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/temirov/stitch/internal/render"
	"github.com/temirov/stitch/internal/scrub"
	"github.com/temirov/stitch/internal/selection"
	"github.com/temirov/stitch/internal/tree"
	"github.com/temirov/stitch/internal/types"
)

func writeProject(testingHandle *testing.T, files map[string]string) string {
	testingHandle.Helper()
	root := filepath.Join(testingHandle.TempDir(), "proj")
	for relativePath, content := range files {
		absolutePath := filepath.Join(root, filepath.FromSlash(relativePath))
		if err := os.MkdirAll(filepath.Dir(absolutePath), 0o755); err != nil {
			testingHandle.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(absolutePath, []byte(content), 0o644); err != nil {
			testingHandle.Fatalf("write: %v", err)
		}
	}
	return root
}

func loadSelection(testingHandle *testing.T, root string, config types.FilterConfig) (*tree.Tree, *selection.Model) {
	testingHandle.Helper()
	builtTree, _, err := tree.Build(root, config)
	if err != nil {
		testingHandle.Fatalf("Build error: %v", err)
	}
	model := selection.New(builtTree)
	model.SelectAll()
	return builtTree, model
}

func TestRenderScenario(t *testing.T) {
	t.Parallel()

	root := writeProject(t, map[string]string{
		"a.rs":        "fn main() {} // entry\n",
		"b.lock":      "lock",
		".git/config": "[core]",
	})
	config := types.FilterConfig{ExcludeExtensions: []string{".lock"}, ExcludeDirectoryNames: []string{".git"}}
	builtTree, model := loadSelection(t, root, config)

	result, err := render.Render(context.Background(), builtTree, model, render.Options{
		Mode:   types.OutputModeFull,
		Scrub:  types.ScrubConfig{LinePrefixes: []string{"//"}},
		Filter: config,
	})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	expected := "=== FILE HIERARCHY ===\n\n" +
		"proj\n" +
		"└── a.rs\n" +
		"\n=== FILE CONTENTS ===\n\n" +
		"--- Start of file: a.rs ---\n" +
		"fn main() {}\n" +
		"--- End of file: a.rs ---\n\n"
	if result.Text != expected {
		t.Fatalf("unexpected output\nactual:\n%q\nexpected:\n%q", result.Text, expected)
	}
	if len(result.Files) != 1 || result.Files[0].Path != "a.rs" {
		t.Fatalf("unexpected file blocks %v", result.Files)
	}
}

func TestRenderNotesSection(t *testing.T) {
	t.Parallel()

	root := writeProject(t, map[string]string{
		"src/a.rs":      "a",
		"src/b.md":      "b",
		"target/out.rs": "out",
		"LICENSE":       "mit",
	})
	config := types.FilterConfig{
		IncludeExtensions:     []string{".rs", ".go"},
		ExcludeDirectoryNames: []string{"target"},
		ExcludeFileNames:      []string{"LICENSE"},
	}
	builtTree, model := loadSelection(t, root, config)

	result, err := render.Render(context.Background(), builtTree, model, render.Options{
		Mode:         types.OutputModeHierarchyOnly,
		Scrub:        types.ScrubConfig{LinePrefixes: []string{"#", "//"}, RemovePattern: "'x'"},
		Filter:       config,
		IncludeNotes: true,
	})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	expected := "=== FILE HIERARCHY ===\n\n" +
		"proj\n" +
		"└── src\n" +
		"    └── a.rs\n" +
		"\n=== NOTES ===\n\n" +
		"Excluded directories: target\n" +
		"Excluded files: LICENSE\n" +
		"Included extensions: .rs\n" +
		"Removed lines starting with: #, //\n" +
		"Applied remove-regex\n"
	if result.Text != expected {
		t.Fatalf("unexpected output\nactual:\n%s\nexpected:\n%s", result.Text, expected)
	}
	if len(result.Files) != 0 {
		t.Fatalf("hierarchy-only render must not read files")
	}
}

func TestRenderUnreadableFileBecomesPlaceholder(t *testing.T) {
	t.Parallel()

	root := writeProject(t, map[string]string{"a.txt": "alpha\n", "b.txt": "beta\n"})
	builtTree, model := loadSelection(t, root, types.FilterConfig{})
	if err := os.Remove(filepath.Join(root, "a.txt")); err != nil {
		t.Fatalf("remove: %v", err)
	}

	result, err := render.Render(context.Background(), builtTree, model, render.Options{Mode: types.OutputModeFull})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Kind != types.WarningUnreadableFile || result.Warnings[0].Path != "a.txt" {
		t.Fatalf("unexpected warnings %v", result.Warnings)
	}
	if !strings.Contains(result.Text, "--- Start of file: a.txt ---\n[unreadable file: ") {
		t.Fatalf("missing placeholder in output:\n%s", result.Text)
	}
	if !strings.Contains(result.Text, "--- Start of file: b.txt ---\nbeta\n--- End of file: b.txt ---\n") {
		t.Fatalf("readable file missing from output:\n%s", result.Text)
	}
}

func TestRenderInvalidPatternFailsBeforeReading(t *testing.T) {
	t.Parallel()

	root := writeProject(t, map[string]string{"a.txt": "alpha"})
	builtTree, model := loadSelection(t, root, types.FilterConfig{})
	_, err := render.Render(context.Background(), builtTree, model, render.Options{
		Mode:  types.OutputModeFull,
		Scrub: types.ScrubConfig{RemovePattern: "(unclosed"},
	})
	if !errors.Is(err, scrub.ErrInvalidPattern) {
		t.Fatalf("expected ErrInvalidPattern, got %v", err)
	}
}

func TestRenderKeepsHierarchyOrderUnderConcurrency(t *testing.T) {
	t.Parallel()

	files := make(map[string]string)
	for index := 0; index < 40; index++ {
		files[fmt.Sprintf("pkg%02d/file%02d.txt", index%5, index)] = fmt.Sprintf("content %d", index)
	}
	root := writeProject(t, files)
	builtTree, model := loadSelection(t, root, types.FilterConfig{})

	result, err := render.Render(context.Background(), builtTree, model, render.Options{Mode: types.OutputModeFull, Concurrency: 4})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	expectedOrder := model.SelectedFiles()
	if len(result.Files) != len(expectedOrder) {
		t.Fatalf("expected %d blocks, got %d", len(expectedOrder), len(result.Files))
	}
	previousIndex := -1
	for index, block := range result.Files {
		if block.Path != expectedOrder[index] {
			t.Fatalf("block %d = %s, expected %s", index, block.Path, expectedOrder[index])
		}
		position := strings.Index(result.Text, "--- Start of file: "+block.Path+" ---")
		if position <= previousIndex {
			t.Fatalf("block %s out of order", block.Path)
		}
		previousIndex = position
	}
}

func TestRenderCancelledContext(t *testing.T) {
	t.Parallel()

	root := writeProject(t, map[string]string{"a.txt": "alpha"})
	builtTree, model := loadSelection(t, root, types.FilterConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := render.Render(ctx, builtTree, model, render.Options{Mode: types.OutputModeFull}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
