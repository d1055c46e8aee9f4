// Package selection tracks which nodes of a project tree are checked.
//
// Only leaves carry stored state: files and directories without visible
// children. The state of every other directory is derived from its children
// and cached; a mutation invalidates the cache of the touched subtree and of
// its ancestor chain only. A Model is not safe for concurrent use.
package selection

import (
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/stitch/internal/tree"
)

// State is the checkbox state of one node.
type State int

const (
	Unchecked State = iota
	Checked
	PartiallyChecked
)

const (
	unknownPathMessageFormat = "%w: %q"
	relativePathSeparator    = "/"
)

// String returns a lowercase label for the state.
func (state State) String() string {
	switch state {
	case Checked:
		return "checked"
	case PartiallyChecked:
		return "partial"
	default:
		return "unchecked"
	}
}

// ErrUnknownPath reports a path that does not exist in the tree.
var ErrUnknownPath = errors.New("path is not part of the tree")

// ChangeKind identifies the mutation that produced a Change.
type ChangeKind string

const (
	ChangeToggle    ChangeKind = "toggle"
	ChangeClear     ChangeKind = "clear"
	ChangeSelectAll ChangeKind = "select_all"
	ChangeReset     ChangeKind = "reset"
)

// Change is delivered to subscribers after every mutation.
type Change struct {
	Kind    ChangeKind
	Path    string
	Checked bool
}

type subscription struct {
	id       int
	observer func(Change)
}

// Model holds the selection over one tree.
type Model struct {
	tree          *tree.Tree
	checked       []bool
	derived       []State
	derivedValid  []bool
	subscriptions []subscription
	nextID        int
}

// New returns a model with every node unchecked.
func New(builtTree *tree.Tree) *Model {
	nodeCount := builtTree.Len()
	return &Model{
		tree:         builtTree,
		checked:      make([]bool, nodeCount),
		derived:      make([]State, nodeCount),
		derivedValid: make([]bool, nodeCount),
	}
}

// Tree returns the tree the model was built for.
func (model *Model) Tree() *tree.Tree {
	return model.tree
}

// Toggle sets the checked state of a path. A directory cascades the value to
// every descendant, overwriting earlier per-file choices.
func (model *Model) Toggle(relativePath string, checked bool) error {
	id, found := model.tree.Lookup(relativePath)
	if !found {
		return fmt.Errorf(unknownPathMessageFormat, ErrUnknownPath, relativePath)
	}
	model.cascade(id, checked)
	model.notify(Change{Kind: ChangeToggle, Path: model.tree.Node(id).RelativePath, Checked: checked})
	return nil
}

// StateOf returns the state of a path.
func (model *Model) StateOf(relativePath string) (State, error) {
	id, found := model.tree.Lookup(relativePath)
	if !found {
		return Unchecked, fmt.Errorf(unknownPathMessageFormat, ErrUnknownPath, relativePath)
	}
	return model.StateOfNode(id), nil
}

// StateOfNode returns the state of a node, recomputing invalidated directory states on demand.
func (model *Model) StateOfNode(id tree.NodeID) State {
	node := model.tree.Node(id)
	if len(node.Children) == 0 {
		if model.checked[id] {
			return Checked
		}
		return Unchecked
	}
	if model.derivedValid[id] {
		return model.derived[id]
	}
	checkedChildren := 0
	uncheckedChildren := 0
	for _, childID := range node.Children {
		switch model.StateOfNode(childID) {
		case Checked:
			checkedChildren++
		case Unchecked:
			uncheckedChildren++
		}
	}
	state := PartiallyChecked
	if checkedChildren == len(node.Children) {
		state = Checked
	} else if uncheckedChildren == len(node.Children) {
		state = Unchecked
	}
	model.derived[id] = state
	model.derivedValid[id] = true
	return state
}

// IsIncluded reports whether a node is Checked or PartiallyChecked.
func (model *Model) IsIncluded(id tree.NodeID) bool {
	return model.StateOfNode(id) != Unchecked
}

// SelectedFiles returns the checked files in tree order.
func (model *Model) SelectedFiles() []string {
	var result []string
	model.tree.Walk(func(node tree.Node) {
		if !node.IsDirectory() && model.checked[node.ID] {
			result = append(result, node.RelativePath)
		}
	})
	return result
}

// SelectedDirectories returns the non-root directories that are checked or partially checked.
func (model *Model) SelectedDirectories() []string {
	var result []string
	model.tree.Walk(func(node tree.Node) {
		if node.IsDirectory() && node.ID != model.tree.Root() && model.IsIncluded(node.ID) {
			result = append(result, node.RelativePath)
		}
	})
	return result
}

// CheckedLeaves returns the stored ground truth: checked files and checked empty directories.
func (model *Model) CheckedLeaves() []string {
	var result []string
	model.tree.Walk(func(node tree.Node) {
		if len(node.Children) == 0 && node.ID != model.tree.Root() && model.checked[node.ID] {
			result = append(result, node.RelativePath)
		}
	})
	return result
}

// Clear unchecks every node.
func (model *Model) Clear() {
	model.cascade(model.tree.Root(), false)
	model.notify(Change{Kind: ChangeClear})
}

// SelectAll checks every node.
func (model *Model) SelectAll() {
	model.cascade(model.tree.Root(), true)
	model.notify(Change{Kind: ChangeSelectAll, Checked: true})
}

// ApplyPaths replaces the whole selection. Listed files become checked; a
// listed directory with no other listed path beneath it is checked with all
// of its descendants. Paths missing from the tree are returned unchanged.
func (model *Model) ApplyPaths(relativePaths []string) []string {
	for index := range model.checked {
		model.checked[index] = false
		model.derivedValid[index] = false
	}

	normalizedPaths := make([]string, 0, len(relativePaths))
	for _, relativePath := range relativePaths {
		normalizedPaths = append(normalizedPaths, tree.NormalizeRelativePath(relativePath))
	}

	listedAncestors := ancestorDirectories(normalizedPaths)
	var unmatched []string
	seenUnmatched := make(map[string]struct{})
	for index, normalizedPath := range normalizedPaths {
		id, found := model.tree.Lookup(normalizedPath)
		if !found {
			if _, seen := seenUnmatched[normalizedPath]; !seen {
				seenUnmatched[normalizedPath] = struct{}{}
				unmatched = append(unmatched, relativePaths[index])
			}
			continue
		}
		node := model.tree.Node(id)
		if _, hasListedDescendant := listedAncestors[node.RelativePath]; node.IsDirectory() && hasListedDescendant {
			continue
		}
		for _, leafID := range model.leavesOf(id) {
			model.checked[leafID] = true
		}
	}
	model.notify(Change{Kind: ChangeReset})
	return unmatched
}

// Subscribe registers an observer called synchronously after every mutation.
// The returned function removes it.
func (model *Model) Subscribe(observer func(Change)) func() {
	model.nextID++
	subscriptionID := model.nextID
	model.subscriptions = append(model.subscriptions, subscription{id: subscriptionID, observer: observer})
	return func() {
		for index, existing := range model.subscriptions {
			if existing.id == subscriptionID {
				model.subscriptions = append(model.subscriptions[:index], model.subscriptions[index+1:]...)
				return
			}
		}
	}
}

func (model *Model) notify(change Change) {
	for _, existing := range append([]subscription(nil), model.subscriptions...) {
		existing.observer(change)
	}
}

func (model *Model) cascade(id tree.NodeID, checked bool) {
	model.checked[id] = checked
	model.derivedValid[id] = false
	for _, descendantID := range model.tree.Descendants(id) {
		model.checked[descendantID] = checked
		model.derivedValid[descendantID] = false
	}
	for parent := model.tree.Node(id).Parent; parent != tree.NoParent; parent = model.tree.Node(parent).Parent {
		model.derivedValid[parent] = false
	}
}

func (model *Model) leavesOf(id tree.NodeID) []tree.NodeID {
	if len(model.tree.Node(id).Children) == 0 {
		return []tree.NodeID{id}
	}
	var leaves []tree.NodeID
	for _, descendantID := range model.tree.Descendants(id) {
		if len(model.tree.Node(descendantID).Children) == 0 {
			leaves = append(leaves, descendantID)
		}
	}
	return leaves
}

// ancestorDirectories returns every proper ancestor of the listed paths,
// with "" standing for the root.
func ancestorDirectories(listedPaths []string) map[string]struct{} {
	ancestors := make(map[string]struct{})
	for _, listedPath := range listedPaths {
		if listedPath == "" {
			continue
		}
		ancestors[""] = struct{}{}
		for index := strings.LastIndex(listedPath, relativePathSeparator); index > 0; index = strings.LastIndex(listedPath[:index], relativePathSeparator) {
			if _, seen := ancestors[listedPath[:index]]; seen {
				break
			}
			ancestors[listedPath[:index]] = struct{}{}
		}
	}
	return ancestors
}
