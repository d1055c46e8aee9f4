// Package render produces the text artifact for a selection: the hierarchy,
// an optional notes section and the scrubbed contents of selected files.
package render

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/temirov/stitch/internal/filter"
	"github.com/temirov/stitch/internal/hierarchy"
	"github.com/temirov/stitch/internal/scrub"
	"github.com/temirov/stitch/internal/selection"
	"github.com/temirov/stitch/internal/tree"
	"github.com/temirov/stitch/internal/types"
)

const (
	hierarchyHeader          = "=== FILE HIERARCHY ===\n\n"
	notesHeader              = "\n=== NOTES ===\n\n"
	contentsHeader           = "\n=== FILE CONTENTS ===\n\n"
	fileStartFormat          = "--- Start of file: %s ---\n"
	fileEndFormat            = "--- End of file: %s ---\n\n"
	unreadablePlaceholder    = "[unreadable file: %v]\n"
	notesSeparator           = "\n"
	notesListSeparator       = ", "
	excludedDirectoriesNote  = "Excluded directories: "
	excludedFilesNote        = "Excluded files: "
	includedExtensionsNote   = "Included extensions: "
	excludedExtensionsNote   = "Excluded extensions: "
	removedPrefixesNote      = "Removed lines starting with: "
	appliedRemovePatternNote = "Applied remove-regex"
)

// Options configures one render.
type Options struct {
	Mode         types.OutputMode
	Scrub        types.ScrubConfig
	Filter       types.FilterConfig
	IncludeNotes bool
	// Concurrency bounds parallel file reads; zero means runtime.NumCPU().
	Concurrency int
	// Missing lists selected files that are no longer part of the tree. In
	// full mode they follow the selected files and render as unreadable.
	Missing []string
}

// FileBlock is one selected file as it appears in the contents section.
type FileBlock struct {
	Path       string
	Content    string
	Unreadable bool
}

// Result carries the rendered text and its parts.
type Result struct {
	Text      string
	Hierarchy string
	Notes     string
	Files     []FileBlock
	Warnings  []types.Warning
}

// Render assembles the output for the current selection. The remove pattern is
// compiled before any file is read; an invalid pattern fails the whole render.
// Files that cannot be read are rendered with a placeholder and reported as warnings.
func Render(ctx context.Context, builtTree *tree.Tree, model *selection.Model, options Options) (Result, error) {
	scrubber, scrubberError := scrub.New(options.Scrub)
	if scrubberError != nil {
		return Result{}, scrubberError
	}

	result := Result{Hierarchy: hierarchy.Render(builtTree, model, options.Mode)}
	selectedFiles := model.SelectedFiles()
	if options.IncludeNotes {
		result.Notes = buildNotes(builtTree, selectedFiles, options, scrubber.HasPattern())
	}

	if options.Mode == types.OutputModeFull {
		filesToRead := append(append([]string(nil), selectedFiles...), options.Missing...)
		blocks, warnings, readError := readSelectedFiles(ctx, builtTree, filesToRead, scrubber, options.Concurrency)
		if readError != nil {
			return Result{}, readError
		}
		result.Files = blocks
		result.Warnings = warnings
	}

	result.Text = assemble(result, options.Mode)
	return result, nil
}

type fileOutcome struct {
	block     FileBlock
	readError error
}

func readSelectedFiles(ctx context.Context, builtTree *tree.Tree, selectedFiles []string, scrubber *scrub.Scrubber, concurrency int) ([]FileBlock, []types.Warning, error) {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	outcomes := make([]fileOutcome, len(selectedFiles))
	group, groupContext := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)
	for index, relativePath := range selectedFiles {
		index, relativePath := index, relativePath
		group.Go(func() error {
			if contextError := groupContext.Err(); contextError != nil {
				return contextError
			}
			contents, readError := os.ReadFile(builtTree.AbsolutePath(relativePath))
			if readError != nil {
				outcomes[index] = fileOutcome{
					block:     FileBlock{Path: relativePath, Content: fmt.Sprintf(unreadablePlaceholder, readError), Unreadable: true},
					readError: readError,
				}
				return nil
			}
			outcomes[index] = fileOutcome{block: FileBlock{Path: relativePath, Content: scrubber.Scrub(string(contents))}}
			return nil
		})
	}
	if waitError := group.Wait(); waitError != nil {
		return nil, nil, waitError
	}

	blocks := make([]FileBlock, len(outcomes))
	var warnings []types.Warning
	for index, outcome := range outcomes {
		blocks[index] = outcome.block
		if outcome.readError != nil {
			warnings = append(warnings, types.Warning{
				Kind: types.WarningUnreadableFile,
				Path: outcome.block.Path,
				Err:  outcome.readError,
			})
		}
	}
	return blocks, warnings, nil
}

func assemble(result Result, mode types.OutputMode) string {
	var builder strings.Builder
	builder.WriteString(hierarchyHeader)
	builder.WriteString(result.Hierarchy)
	if result.Notes != "" {
		builder.WriteString(notesHeader)
		builder.WriteString(result.Notes)
		builder.WriteString(notesSeparator)
	}
	if mode != types.OutputModeFull {
		return builder.String()
	}
	builder.WriteString(contentsHeader)
	for _, block := range result.Files {
		builder.WriteString(fmt.Sprintf(fileStartFormat, block.Path))
		builder.WriteString(block.Content)
		if !strings.HasSuffix(block.Content, "\n") {
			builder.WriteString("\n")
		}
		builder.WriteString(fmt.Sprintf(fileEndFormat, block.Path))
	}
	return builder.String()
}

// buildNotes describes the filters and scrubbing that shaped the output.
// Only filters that removed something during the walk, or that matched a
// rendered file, are mentioned.
func buildNotes(builtTree *tree.Tree, selectedFiles []string, options Options, patternApplied bool) string {
	var lines []string
	if names := builtTree.Hidden(filter.HiddenDirectoryName); len(names) > 0 {
		lines = append(lines, excludedDirectoriesNote+strings.Join(names, notesListSeparator))
	}
	if names := builtTree.Hidden(filter.HiddenFileName); len(names) > 0 {
		lines = append(lines, excludedFilesNote+strings.Join(names, notesListSeparator))
	}
	if included := presentExtensions(selectedFiles, options.Filter.IncludeExtensions); len(included) > 0 {
		lines = append(lines, includedExtensionsNote+strings.Join(included, notesListSeparator))
	}
	if extensions := builtTree.Hidden(filter.HiddenExtension); len(extensions) > 0 {
		lines = append(lines, excludedExtensionsNote+strings.Join(extensions, notesListSeparator))
	}
	if len(options.Scrub.LinePrefixes) > 0 {
		lines = append(lines, removedPrefixesNote+strings.Join(options.Scrub.LinePrefixes, notesListSeparator))
	}
	if patternApplied {
		lines = append(lines, appliedRemovePatternNote)
	}
	return strings.Join(lines, notesSeparator)
}

func presentExtensions(relativePaths []string, extensions []string) []string {
	if len(extensions) == 0 {
		return nil
	}
	wanted := make(map[string]struct{}, len(extensions))
	for _, extension := range extensions {
		wanted[extension] = struct{}{}
	}
	present := make(map[string]struct{})
	for _, relativePath := range relativePaths {
		extension := filter.ExtensionOf(relativePath[strings.LastIndex(relativePath, "/")+1:])
		if _, match := wanted[extension]; match {
			present[extension] = struct{}{}
		}
	}
	result := make([]string, 0, len(present))
	for extension := range present {
		result = append(result, extension)
	}
	sort.Strings(result)
	return result
}
