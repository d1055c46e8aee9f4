// Package tree builds the filtered, ordered model of a project directory.
package tree

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/temirov/stitch/internal/filter"
	"github.com/temirov/stitch/internal/types"
)

// NodeID addresses a node inside a Tree.
type NodeID int

// NoParent is the parent of the root node.
const NoParent NodeID = -1

const (
	rootNodeID            NodeID = 0
	relativePathSeparator        = "/"
	currentDirectoryPath         = "."
)

// Node is one visible filesystem entry. Children are ordered directories first,
// then by case-insensitive name. Callers must treat Children as read-only.
type Node struct {
	ID           NodeID
	Parent       NodeID
	Name         string
	Path         string
	RelativePath string
	Kind         types.NodeKind
	Children     []NodeID
}

// IsDirectory reports whether the node is a directory.
func (node Node) IsDirectory() bool {
	return node.Kind == types.KindDirectory
}

// Tree is an arena of nodes rooted at a single directory.
type Tree struct {
	nodes  []Node
	index  map[string]NodeID
	hidden map[filter.Verdict]map[string]struct{}
}

func newTree() *Tree {
	return &Tree{
		index:  make(map[string]NodeID),
		hidden: make(map[filter.Verdict]map[string]struct{}),
	}
}

// Hidden returns the sorted names (or extensions, for filter.HiddenExtension)
// that the filter removed during the walk for the given verdict.
func (tree *Tree) Hidden(verdict filter.Verdict) []string {
	values := make([]string, 0, len(tree.hidden[verdict]))
	for value := range tree.hidden[verdict] {
		values = append(values, value)
	}
	sort.Strings(values)
	return values
}

func (tree *Tree) recordHidden(verdict filter.Verdict, name string) {
	value := name
	if verdict == filter.HiddenExtension {
		value = filter.ExtensionOf(name)
	}
	if tree.hidden[verdict] == nil {
		tree.hidden[verdict] = make(map[string]struct{})
	}
	tree.hidden[verdict][value] = struct{}{}
}

// Root returns the identifier of the root directory.
func (tree *Tree) Root() NodeID {
	return rootNodeID
}

// Len returns the number of nodes including the root.
func (tree *Tree) Len() int {
	return len(tree.nodes)
}

// Node returns the node stored under id.
func (tree *Tree) Node(id NodeID) Node {
	return tree.nodes[id]
}

// RootName returns the base name of the root directory.
func (tree *Tree) RootName() string {
	return tree.nodes[rootNodeID].Name
}

// RootPath returns the absolute path of the root directory.
func (tree *Tree) RootPath() string {
	return tree.nodes[rootNodeID].Path
}

// Lookup resolves a root-relative path. "", "." and "./" address the root;
// backslashes and trailing separators are tolerated.
func (tree *Tree) Lookup(relativePath string) (NodeID, bool) {
	id, found := tree.index[NormalizeRelativePath(relativePath)]
	return id, found
}

// Walk visits every node in tree order, parents before children.
func (tree *Tree) Walk(visit func(node Node)) {
	tree.walkFrom(rootNodeID, visit)
}

func (tree *Tree) walkFrom(id NodeID, visit func(node Node)) {
	node := tree.nodes[id]
	visit(node)
	for _, childID := range node.Children {
		tree.walkFrom(childID, visit)
	}
}

// Descendants returns every node below id in tree order, excluding id itself.
func (tree *Tree) Descendants(id NodeID) []NodeID {
	var result []NodeID
	for _, childID := range tree.nodes[id].Children {
		tree.walkFrom(childID, func(node Node) {
			result = append(result, node.ID)
		})
	}
	return result
}

// Files returns the relative paths of every file in tree order.
func (tree *Tree) Files() []string {
	var result []string
	tree.Walk(func(node Node) {
		if !node.IsDirectory() {
			result = append(result, node.RelativePath)
		}
	})
	return result
}

// AbsolutePath converts a root-relative path to an absolute filesystem path.
func (tree *Tree) AbsolutePath(relativePath string) string {
	normalized := NormalizeRelativePath(relativePath)
	if normalized == "" {
		return tree.RootPath()
	}
	return filepath.Join(tree.RootPath(), filepath.FromSlash(normalized))
}

// RelativePath converts an absolute path under the root into the tree's relative form.
// The second result is false for paths outside the root.
func (tree *Tree) RelativePath(absolutePath string) (string, bool) {
	relativePath, relativeError := filepath.Rel(tree.RootPath(), filepath.Clean(absolutePath))
	if relativeError != nil {
		return "", false
	}
	if relativePath == ".." || strings.HasPrefix(relativePath, ".."+string(filepath.Separator)) {
		return "", false
	}
	return NormalizeRelativePath(relativePath), true
}

// Contains reports whether absolutePath addresses a node of the tree.
func (tree *Tree) Contains(absolutePath string) bool {
	relativePath, inside := tree.RelativePath(absolutePath)
	if !inside {
		return false
	}
	_, found := tree.index[relativePath]
	return found
}

// NormalizeRelativePath converts user supplied relative paths into the tree's key form.
func NormalizeRelativePath(relativePath string) string {
	normalized := strings.TrimSpace(strings.ReplaceAll(relativePath, "\\", relativePathSeparator))
	for strings.HasPrefix(normalized, currentDirectoryPath+relativePathSeparator) {
		normalized = strings.TrimPrefix(normalized, currentDirectoryPath+relativePathSeparator)
	}
	normalized = strings.Trim(normalized, relativePathSeparator)
	if normalized == currentDirectoryPath {
		return ""
	}
	return normalized
}

func (tree *Tree) add(parent NodeID, name string, absolutePath string, kind types.NodeKind) NodeID {
	id := NodeID(len(tree.nodes))
	relativePath := ""
	if parent != NoParent {
		parentRelativePath := tree.nodes[parent].RelativePath
		if parentRelativePath == "" {
			relativePath = name
		} else {
			relativePath = parentRelativePath + relativePathSeparator + name
		}
		tree.nodes[parent].Children = append(tree.nodes[parent].Children, id)
	}
	tree.nodes = append(tree.nodes, Node{
		ID:           id,
		Parent:       parent,
		Name:         name,
		Path:         absolutePath,
		RelativePath: relativePath,
		Kind:         kind,
	})
	tree.index[relativePath] = id
	return id
}

// removeLast drops the most recently added node. It must be a leaf.
func (tree *Tree) removeLast(id NodeID) {
	node := tree.nodes[id]
	delete(tree.index, node.RelativePath)
	if node.Parent != NoParent {
		siblings := tree.nodes[node.Parent].Children
		tree.nodes[node.Parent].Children = siblings[:len(siblings)-1]
	}
	tree.nodes = tree.nodes[:id]
}
