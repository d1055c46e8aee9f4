// Package session keeps one loaded project root together with its filter,
// tree and selection, and rebuilds them when the filter or the filesystem changes.
package session

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/temirov/stitch/internal/filter"
	"github.com/temirov/stitch/internal/hierarchy"
	"github.com/temirov/stitch/internal/render"
	"github.com/temirov/stitch/internal/selection"
	"github.com/temirov/stitch/internal/tree"
	"github.com/temirov/stitch/internal/types"
)

const selectMessageFormat = "select %s: %w"

// Session is a loaded root. It is not safe for concurrent use.
type Session struct {
	rootPath    string
	filter      types.FilterConfig
	tree        *tree.Tree
	model       *selection.Model
	warnings    []types.Warning
	missing     []string
	unsubscribe func()
}

// Open scans rootPath with config and starts with nothing selected.
func Open(rootPath string, config types.FilterConfig) (*Session, error) {
	normalized := filter.Normalize(config)
	builtTree, warnings, buildError := tree.Build(rootPath, normalized)
	if buildError != nil {
		return nil, buildError
	}
	session := &Session{
		rootPath: builtTree.RootPath(),
		filter:   normalized,
		tree:     builtTree,
		warnings: warnings,
	}
	session.attach(selection.New(builtTree))
	return session, nil
}

// RootPath returns the absolute root directory.
func (session *Session) RootPath() string {
	return session.rootPath
}

// Filter returns the normalized filter the tree was built with.
func (session *Session) Filter() types.FilterConfig {
	return session.filter
}

// Tree returns the current tree.
func (session *Session) Tree() *tree.Tree {
	return session.tree
}

// Selection returns the current selection model. A reload replaces it.
func (session *Session) Selection() *selection.Model {
	return session.model
}

// Missing returns the selected files that were deleted since they were
// selected. They stay selected until the selection is replaced, an ancestor
// is unchecked or a filter change hides them.
func (session *Session) Missing() []string {
	return append([]string(nil), session.missing...)
}

// Warnings returns the problems reported by the last scan.
func (session *Session) Warnings() []types.Warning {
	return session.warnings
}

// Select checks each listed path, cascading into directories.
func (session *Session) Select(relativePaths []string) error {
	for _, relativePath := range relativePaths {
		if toggleError := session.model.Toggle(relativePath, true); toggleError != nil {
			return fmt.Errorf(selectMessageFormat, relativePath, toggleError)
		}
	}
	return nil
}

// ApplyPaths replaces the selection with relativePaths and reports unmatched entries as warnings.
func (session *Session) ApplyPaths(relativePaths []string) []types.Warning {
	unmatched := session.model.ApplyPaths(relativePaths)
	warnings := make([]types.Warning, 0, len(unmatched))
	for _, relativePath := range unmatched {
		warnings = append(warnings, types.Warning{Kind: types.WarningUnmatchedPath, Path: relativePath})
	}
	return warnings
}

// ApplyHierarchy parses a rendered hierarchy and makes it the selection.
func (session *Session) ApplyHierarchy(text string) ([]types.Warning, error) {
	document, parseError := hierarchy.Parse(text)
	if parseError != nil {
		return nil, parseError
	}
	return session.ApplyPaths(document.Paths), nil
}

// Reload rescans the root with the current filter, carrying the checked leaves over by relative path.
func (session *Session) Reload() error {
	return session.SetFilter(session.filter)
}

// SetFilter rebuilds the tree with config. Selected files and checked empty
// directories are carried over by relative path. A selected file that no
// longer exists stays selected as missing unless config hides it; an empty
// directory that gained children is not carried over.
func (session *Session) SetFilter(config types.FilterConfig) error {
	normalized := filter.Normalize(config)
	builtTree, warnings, buildError := tree.Build(session.rootPath, normalized)
	if buildError != nil {
		return buildError
	}

	selectedFiles := append(session.model.SelectedFiles(), session.missing...)
	carried := append([]string(nil), selectedFiles...)
	for _, directoryPath := range session.checkedEmptyDirectories() {
		if id, found := builtTree.Lookup(directoryPath); found && len(builtTree.Node(id).Children) > 0 {
			continue
		}
		carried = append(carried, directoryPath)
	}

	model := selection.New(builtTree)
	var missing []string
	if len(carried) > 0 {
		unmatched := make(map[string]struct{})
		for _, relativePath := range model.ApplyPaths(carried) {
			unmatched[relativePath] = struct{}{}
		}
		seen := make(map[string]struct{})
		for _, relativePath := range selectedFiles {
			if _, gone := unmatched[relativePath]; !gone {
				continue
			}
			if _, duplicate := seen[relativePath]; duplicate {
				continue
			}
			seen[relativePath] = struct{}{}
			if filter.IsRelativePathVisible(relativePath, types.KindFile, normalized) {
				missing = append(missing, relativePath)
			}
		}
	}

	session.unsubscribe()
	session.filter = normalized
	session.tree = builtTree
	session.warnings = warnings
	session.attach(model)
	session.missing = missing
	return nil
}

// attach makes model the current selection. Replacing or clearing the
// selection forgets missing files, and unchecking a directory forgets the
// missing files below it.
func (session *Session) attach(model *selection.Model) {
	session.model = model
	session.missing = nil
	session.unsubscribe = model.Subscribe(func(change selection.Change) {
		switch change.Kind {
		case selection.ChangeClear, selection.ChangeReset:
			session.missing = nil
		case selection.ChangeToggle:
			if !change.Checked {
				session.forgetMissingUnder(change.Path)
			}
		}
	})
}

func (session *Session) forgetMissingUnder(relativePath string) {
	kept := session.missing[:0]
	for _, missingPath := range session.missing {
		if relativePath == "" || missingPath == relativePath || strings.HasPrefix(missingPath, relativePath+"/") {
			continue
		}
		kept = append(kept, missingPath)
	}
	session.missing = kept
}

func (session *Session) checkedEmptyDirectories() []string {
	var directories []string
	for _, leafPath := range session.model.CheckedLeaves() {
		if id, found := session.tree.Lookup(leafPath); found && session.tree.Node(id).IsDirectory() {
			directories = append(directories, leafPath)
		}
	}
	return directories
}

// Affects reports whether a change at absolutePath can alter the tree or a selected file.
func (session *Session) Affects(absolutePath string) bool {
	if session.tree.Contains(absolutePath) {
		return true
	}
	isDirectory := false
	if info, statError := os.Stat(absolutePath); statError == nil {
		isDirectory = info.IsDir()
	}
	return filter.IsEventPathRelevant(session.rootPath, absolutePath, isDirectory, session.filter)
}

// Render produces the output for the current selection. The session filter
// replaces options.Filter and missing files are rendered as unreadable.
func (session *Session) Render(ctx context.Context, options render.Options) (render.Result, error) {
	options.Filter = session.filter
	options.Missing = session.Missing()
	result, renderError := render.Render(ctx, session.tree, session.model, options)
	if renderError != nil {
		return render.Result{}, renderError
	}
	result.Warnings = append(append([]types.Warning(nil), session.warnings...), result.Warnings...)
	return result, nil
}
