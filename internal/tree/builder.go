package tree

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/temirov/stitch/internal/filter"
	"github.com/temirov/stitch/internal/types"
)

const (
	rootUnreadableMessageFormat = "%w: %s: %v"
	notADirectoryMessageFormat  = "%w: %s"
)

var (
	// ErrRootUnreadable reports that the root directory could not be accessed.
	ErrRootUnreadable = errors.New("root directory unreadable")
	// ErrNotADirectory reports that the root path is not a directory.
	ErrNotADirectory = errors.New("root path is not a directory")
)

type candidate struct {
	name         string
	absolutePath string
	kind         types.NodeKind
}

type builder struct {
	tree             *Tree
	config           types.FilterConfig
	warnings         []types.Warning
	activeDirectory  map[string]struct{}
	pruneEmptyFolder bool
}

// Build walks rootPath depth-first and returns the visible entries as a Tree.
// Problems with individual entries are returned as warnings; only failures on
// the root itself are errors.
func Build(rootPath string, config types.FilterConfig) (*Tree, []types.Warning, error) {
	absoluteRoot, absoluteError := filepath.Abs(rootPath)
	if absoluteError != nil {
		return nil, nil, fmt.Errorf(rootUnreadableMessageFormat, ErrRootUnreadable, rootPath, absoluteError)
	}
	absoluteRoot = filepath.Clean(absoluteRoot)

	rootInfo, statError := os.Stat(absoluteRoot)
	if statError != nil {
		return nil, nil, fmt.Errorf(rootUnreadableMessageFormat, ErrRootUnreadable, absoluteRoot, statError)
	}
	if !rootInfo.IsDir() {
		return nil, nil, fmt.Errorf(notADirectoryMessageFormat, ErrNotADirectory, absoluteRoot)
	}
	canonicalRoot, canonicalError := filepath.EvalSymlinks(absoluteRoot)
	if canonicalError != nil {
		return nil, nil, fmt.Errorf(rootUnreadableMessageFormat, ErrRootUnreadable, absoluteRoot, canonicalError)
	}

	walker := &builder{
		tree:             newTree(),
		config:           config,
		activeDirectory:  map[string]struct{}{canonicalRoot: {}},
		pruneEmptyFolder: len(config.IncludeExtensions) > 0,
	}
	rootEntries, readError := walker.readVisibleEntries(absoluteRoot)
	if readError != nil {
		return nil, nil, fmt.Errorf(rootUnreadableMessageFormat, ErrRootUnreadable, absoluteRoot, readError)
	}
	rootID := walker.tree.add(NoParent, rootName(absoluteRoot), absoluteRoot, types.KindDirectory)
	walker.populate(rootID, rootEntries)
	return walker.tree, walker.warnings, nil
}

func rootName(absoluteRoot string) string {
	name := filepath.Base(absoluteRoot)
	if name == string(filepath.Separator) || name == "." || name == "" {
		return absoluteRoot
	}
	return name
}

func (walker *builder) populate(parent NodeID, entries []candidate) {
	for _, entry := range entries {
		if entry.kind == types.KindFile {
			walker.tree.add(parent, entry.name, entry.absolutePath, types.KindFile)
			continue
		}

		canonicalPath, canonicalError := filepath.EvalSymlinks(entry.absolutePath)
		if canonicalError != nil {
			walker.warn(types.WarningUnreadableEntry, entry.absolutePath, canonicalError)
			continue
		}
		if _, active := walker.activeDirectory[canonicalPath]; active {
			walker.warn(types.WarningSymlinkCycle, entry.absolutePath, nil)
			continue
		}
		children, readError := walker.readVisibleEntries(entry.absolutePath)
		if readError != nil {
			walker.warnRead(entry.absolutePath, readError)
			continue
		}

		directoryID := walker.tree.add(parent, entry.name, entry.absolutePath, types.KindDirectory)
		walker.activeDirectory[canonicalPath] = struct{}{}
		walker.populate(directoryID, children)
		delete(walker.activeDirectory, canonicalPath)

		if walker.pruneEmptyFolder && len(walker.tree.nodes[directoryID].Children) == 0 {
			walker.tree.removeLast(directoryID)
		}
	}
}

// readVisibleEntries lists a directory, resolves symlinks, filters and sorts the result.
func (walker *builder) readVisibleEntries(directoryPath string) ([]candidate, error) {
	directoryEntries, readError := os.ReadDir(directoryPath)
	if readError != nil {
		return nil, readError
	}
	entries := make([]candidate, 0, len(directoryEntries))
	for _, directoryEntry := range directoryEntries {
		entryPath := filepath.Join(directoryPath, directoryEntry.Name())
		kind := types.KindFile
		if directoryEntry.IsDir() {
			kind = types.KindDirectory
		} else if directoryEntry.Type()&fs.ModeSymlink != 0 {
			targetInfo, targetError := os.Stat(entryPath)
			if targetError != nil {
				walker.warn(types.WarningUnreadableEntry, entryPath, targetError)
				continue
			}
			if targetInfo.IsDir() {
				kind = types.KindDirectory
			}
		}
		verdict := filter.Classify(directoryEntry.Name(), kind, walker.config)
		if verdict != filter.Visible {
			walker.tree.recordHidden(verdict, directoryEntry.Name())
			continue
		}
		entries = append(entries, candidate{name: directoryEntry.Name(), absolutePath: entryPath, kind: kind})
	}
	sort.SliceStable(entries, func(left, right int) bool {
		return lessEntry(entries[left], entries[right])
	})
	return entries, nil
}

func lessEntry(left candidate, right candidate) bool {
	if left.kind != right.kind {
		return left.kind == types.KindDirectory
	}
	leftFolded := strings.ToLower(left.name)
	rightFolded := strings.ToLower(right.name)
	if leftFolded != rightFolded {
		return leftFolded < rightFolded
	}
	return left.name < right.name
}

func (walker *builder) warnRead(path string, readError error) {
	if errors.Is(readError, fs.ErrPermission) {
		walker.warn(types.WarningPermissionDenied, path, readError)
		return
	}
	walker.warn(types.WarningUnreadableEntry, path, readError)
}

func (walker *builder) warn(kind types.WarningKind, path string, cause error) {
	walker.warnings = append(walker.warnings, types.Warning{Kind: kind, Path: path, Err: cause})
}
