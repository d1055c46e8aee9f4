// Package hierarchy converts between a selection and its box-drawing text form.
package hierarchy

import (
	"sort"
	"strings"

	"github.com/temirov/stitch/internal/selection"
	"github.com/temirov/stitch/internal/tree"
	"github.com/temirov/stitch/internal/types"
)

const (
	connectorMiddle     = "├── "
	connectorLast       = "└── "
	continuationOpen    = "│   "
	continuationClosed  = "    "
	lineTerminator      = "\n"
	pathSegmentDivider  = "/"
	asciiConnectorPipe  = "|-- "
	asciiConnectorTick  = "`-- "
	asciiConnectorPlus  = "+-- "
	asciiContinuationOn = "|   "
)

// Render writes the root name followed by one line per included node. A node
// is included when it is checked or partially checked; DirectoriesOnly keeps
// directory lines only.
func Render(builtTree *tree.Tree, model *selection.Model, mode types.OutputMode) string {
	include := func(node tree.Node) bool {
		if mode == types.OutputModeDirectoriesOnly && !node.IsDirectory() {
			return false
		}
		return model.IsIncluded(node.ID)
	}
	var builder strings.Builder
	builder.WriteString(builtTree.RootName())
	builder.WriteString(lineTerminator)
	renderChildren(builtTree, builtTree.Root(), include, "", &builder)
	return builder.String()
}

// RenderAll writes every node of the tree regardless of selection.
func RenderAll(builtTree *tree.Tree, mode types.OutputMode) string {
	include := func(node tree.Node) bool {
		return mode != types.OutputModeDirectoriesOnly || node.IsDirectory()
	}
	var builder strings.Builder
	builder.WriteString(builtTree.RootName())
	builder.WriteString(lineTerminator)
	renderChildren(builtTree, builtTree.Root(), include, "", &builder)
	return builder.String()
}

func renderChildren(builtTree *tree.Tree, parent tree.NodeID, include func(tree.Node) bool, prefix string, builder *strings.Builder) {
	var visible []tree.Node
	for _, childID := range builtTree.Node(parent).Children {
		child := builtTree.Node(childID)
		if include(child) {
			visible = append(visible, child)
		}
	}
	for index, child := range visible {
		last := index == len(visible)-1
		builder.WriteString(prefix)
		if last {
			builder.WriteString(connectorLast)
		} else {
			builder.WriteString(connectorMiddle)
		}
		builder.WriteString(child.Name)
		builder.WriteString(lineTerminator)
		if child.IsDirectory() {
			childPrefix := prefix + continuationOpen
			if last {
				childPrefix = prefix + continuationClosed
			}
			renderChildren(builtTree, child.ID, include, childPrefix, builder)
		}
	}
}

type pathNode struct {
	name     string
	children map[string]*pathNode
}

// RenderPaths draws a hierarchy for a bare list of relative paths. Entries with
// children sort before leaves, then by case-insensitive name.
func RenderPaths(rootName string, relativePaths []string) string {
	root := &pathNode{children: map[string]*pathNode{}}
	for _, relativePath := range relativePaths {
		current := root
		for _, segment := range strings.Split(tree.NormalizeRelativePath(relativePath), pathSegmentDivider) {
			if segment == "" {
				continue
			}
			next, exists := current.children[segment]
			if !exists {
				next = &pathNode{name: segment, children: map[string]*pathNode{}}
				current.children[segment] = next
			}
			current = next
		}
	}
	var builder strings.Builder
	builder.WriteString(rootName)
	builder.WriteString(lineTerminator)
	renderPathNode(root, "", &builder)
	return builder.String()
}

func renderPathNode(node *pathNode, prefix string, builder *strings.Builder) {
	children := make([]*pathNode, 0, len(node.children))
	for _, child := range node.children {
		children = append(children, child)
	}
	sort.Slice(children, func(left, right int) bool {
		leftHasChildren := len(children[left].children) > 0
		rightHasChildren := len(children[right].children) > 0
		if leftHasChildren != rightHasChildren {
			return leftHasChildren
		}
		leftFolded := strings.ToLower(children[left].name)
		rightFolded := strings.ToLower(children[right].name)
		if leftFolded != rightFolded {
			return leftFolded < rightFolded
		}
		return children[left].name < children[right].name
	})
	for index, child := range children {
		last := index == len(children)-1
		connector, continuation := connectorMiddle, continuationOpen
		if last {
			connector, continuation = connectorLast, continuationClosed
		}
		builder.WriteString(prefix + connector + child.name + lineTerminator)
		renderPathNode(child, prefix+continuation, builder)
	}
}
