package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/stitch/internal/output"
	"github.com/temirov/stitch/internal/profile"
	"github.com/temirov/stitch/internal/render"
	"github.com/temirov/stitch/internal/session"
	"github.com/temirov/stitch/internal/tokenizer"
	"github.com/temirov/stitch/internal/types"
	"github.com/temirov/stitch/internal/utils"
)

const (
	selectFlagName        = "select"
	hierarchyFileFlagName = "hierarchy-file"
	profileFlagName       = "profile"
	modeFlagName          = "mode"
	extensionsFlagName    = "ext"
	excludeDirFlagName    = "exclude-dir"
	excludeFileFlagName   = "exclude-file"
	removePrefixFlagName  = "remove-prefix"
	removeRegexFlagName   = "remove-regex"
	notesFlagName         = "notes"
	formatFlagName        = "format"
	copyFlagName          = "copy"
	tokensFlagName        = "tokens"
	modelFlagName         = "model"
	concurrencyFlagName   = "concurrency"
	directoriesFlagName   = "dirs"

	selectFlagDescription        = "select a relative path; directories select everything below them (repeatable)"
	hierarchyFileFlagDescription = "select the files listed in a hierarchy text file, or - for standard input"
	profileFlagDescription       = "load selection and settings from a saved profile"
	modeFlagDescription          = "output mode (full, hierarchy, dirs)"
	extensionsFlagDescription    = "extension filter, e.g. \"rs,go,-lock\"; a leading - excludes"
	excludeDirFlagDescription    = "hide directories with this name in addition to the configured ones (repeatable)"
	excludeFileFlagDescription   = "hide files with this name in addition to the configured ones (repeatable)"
	removePrefixFlagDescription  = "drop lines that start with this prefix after indentation (repeatable)"
	removeRegexFlagDescription   = "remove every match of this pattern from file contents"
	notesFlagDescription         = "append a notes section describing the filters"
	formatFlagDescription        = "output format (raw, json, xml)"
	copyFlagDescription          = "copy the output to the clipboard"
	tokensFlagDescription        = "count tokens of the rendered output"
	modelFlagDescription         = "tokenizer model to use for token counting"
	concurrencyFlagDescription   = "number of files read in parallel; 0 uses all CPUs"
	directoriesFlagDescription   = "list directories only"

	renderUse              = "render [root]"
	renderAlias            = "r"
	renderShortDescription = "render selected files for an LLM prompt (" + renderAlias + ")"
	// renderLongDescription provides detailed help for the render command.
	renderLongDescription = `Scan a project root, select files and print the file hierarchy followed by the
scrubbed contents of every selected file. Without --select, --hierarchy-file or --profile
every visible file is selected. Use --format to select raw, json, or xml output.`
	// renderUsageExample demonstrates render command usage.
	renderUsageExample = `  # Render the whole project with Rust files only
  stitch render --ext rs .

  # Render two directories, dropping comment lines, and copy the result
  stitch render --select src --select docs --remove-prefix "//" --copy

  # Re-apply a hierarchy pasted from an earlier prompt
  pbpaste | stitch render --hierarchy-file -`

	treeUse              = "tree [root]"
	treeAlias            = "t"
	treeShortDescription = "display the visible project tree (" + treeAlias + ")"
	// treeLongDescription provides detailed help for the tree command.
	treeLongDescription = `List every visible directory and file below the root in hierarchy format.
Use --dirs to list directories only and --format to select raw, json, or xml output.`
	// treeUsageExample demonstrates tree command usage.
	treeUsageExample = `  # Show the tree without the docs directory
  stitch tree --exclude-dir docs

  # Directories only, as JSON
  stitch tree --dirs --format json ./service`

	selectUse              = "select [root]"
	selectShortDescription = "resolve a hierarchy text into selected files"
	// selectLongDescription provides detailed help for the select command.
	selectLongDescription = `Parse a hierarchy text, apply it to the project tree and print the selected
files one per line. Lines that match nothing in the tree are reported as warnings.`
	// selectUsageExample demonstrates select command usage.
	selectUsageExample = `  # Check which files a saved hierarchy still matches
  stitch select --hierarchy-file prompt.txt .`

	tokenCountMessage      = "token count"
	clipboardFailedMessage = "clipboard copy failed"
	profileLoadedMessage   = "loaded profile"
	rememberFailedMessage  = "cannot remember current profile"
	hierarchyRequiredError = "--" + hierarchyFileFlagName + " is required"
	loadProfileFormat      = "load profile %s: %w"
	readHierarchyFormat    = "read hierarchy: %w"
)

// filterFlags stores flags that change visibility and scrubbing.
type filterFlags struct {
	extensions     string
	excludeDirs    []string
	excludeFiles   []string
	removePrefixes []string
	removeRegex    string
	mode           string
}

// selectionFlags stores flags that choose the selected files.
type selectionFlags struct {
	selectPaths   []string
	hierarchyFile string
	profileName   string
}

// outputFlags stores flags that shape and deliver the rendered text.
type outputFlags struct {
	format      string
	notes       bool
	copyOutput  bool
	tokens      bool
	model       string
	concurrency int
}

// renderSettings is the configuration after flags and profiles were applied.
type renderSettings struct {
	filter      types.FilterConfig
	scrub       types.ScrubConfig
	mode        types.OutputMode
	format      string
	notes       bool
	copyOutput  bool
	tokens      bool
	model       string
	concurrency int
}

// addFilterFlags registers visibility flags on the command.
func addFilterFlags(command *cobra.Command, options *filterFlags) {
	command.Flags().StringVar(&options.extensions, extensionsFlagName, "", extensionsFlagDescription)
	command.Flags().StringArrayVar(&options.excludeDirs, excludeDirFlagName, nil, excludeDirFlagDescription)
	command.Flags().StringArrayVar(&options.excludeFiles, excludeFileFlagName, nil, excludeFileFlagDescription)
}

// addScrubFlags registers scrubbing and mode flags on the command.
func addScrubFlags(command *cobra.Command, options *filterFlags) {
	command.Flags().StringArrayVar(&options.removePrefixes, removePrefixFlagName, nil, removePrefixFlagDescription)
	command.Flags().StringVar(&options.removeRegex, removeRegexFlagName, "", removeRegexFlagDescription)
	command.Flags().StringVar(&options.mode, modeFlagName, "", modeFlagDescription)
}

// addSelectionFlags registers selection flags on the command.
func addSelectionFlags(command *cobra.Command, options *selectionFlags) {
	command.Flags().StringArrayVar(&options.selectPaths, selectFlagName, nil, selectFlagDescription)
	command.Flags().StringVar(&options.hierarchyFile, hierarchyFileFlagName, "", hierarchyFileFlagDescription)
	command.Flags().StringVar(&options.profileName, profileFlagName, "", profileFlagDescription)
}

// addOutputFlags registers output flags on the command.
func addOutputFlags(command *cobra.Command, options *outputFlags) {
	command.Flags().StringVar(&options.format, formatFlagName, types.FormatRaw, formatFlagDescription)
	registerBooleanFlag(command.Flags(), &options.notes, notesFlagName, false, notesFlagDescription)
	registerBooleanFlag(command.Flags(), &options.copyOutput, copyFlagName, false, copyFlagDescription)
	registerBooleanFlag(command.Flags(), &options.tokens, tokensFlagName, false, tokensFlagDescription)
	command.Flags().StringVar(&options.model, modelFlagName, "", modelFlagDescription)
	command.Flags().IntVar(&options.concurrency, concurrencyFlagName, 0, concurrencyFlagDescription)
}

// resolveSettings overlays the flags that were set on the loaded configuration.
func (app *application) resolveSettings(command *cobra.Command, filters filterFlags, outputs outputFlags) (renderSettings, error) {
	configuration := app.configuration
	flags := command.Flags()
	if flags.Changed(extensionsFlagName) {
		configuration.Filters.Extensions = []string{filters.extensions}
	}
	configuration.Filters.ExcludeDirs = append(append([]string(nil), configuration.Filters.ExcludeDirs...), filters.excludeDirs...)
	configuration.Filters.ExcludeFiles = append(append([]string(nil), configuration.Filters.ExcludeFiles...), filters.excludeFiles...)
	if flags.Changed(removePrefixFlagName) {
		configuration.Scrub.Prefixes = filters.removePrefixes
	}
	if flags.Changed(removeRegexFlagName) {
		configuration.Scrub.Regex = filters.removeRegex
	}
	if flags.Changed(modeFlagName) {
		configuration.Output.Mode = filters.mode
	}
	if flags.Changed(formatFlagName) {
		configuration.Output.Format = outputs.format
	}
	if flags.Changed(notesFlagName) {
		configuration.Output.Notes = &outputs.notes
	}
	if flags.Changed(copyFlagName) {
		configuration.Output.Clipboard = &outputs.copyOutput
	}
	if flags.Changed(tokensFlagName) {
		configuration.Output.Tokens.Enabled = &outputs.tokens
	}
	if flags.Changed(modelFlagName) {
		configuration.Output.Tokens.Model = outputs.model
	}
	if flags.Changed(concurrencyFlagName) {
		configuration.Output.Concurrency = &outputs.concurrency
	}

	mode, modeError := configuration.Output.OutputMode()
	if modeError != nil {
		return renderSettings{}, modeError
	}
	format, formatError := output.ParseFormat(configuration.Output.FormatOrDefault())
	if formatError != nil {
		return renderSettings{}, formatError
	}
	return renderSettings{
		filter:      configuration.Filters.FilterConfig(),
		scrub:       configuration.Scrub.ScrubConfig(),
		mode:        mode,
		format:      format,
		notes:       configuration.Output.NotesEnabled(),
		copyOutput:  configuration.Output.ClipboardEnabled(),
		tokens:      configuration.Output.Tokens.TokensEnabled(),
		model:       configuration.Output.Tokens.ModelOrDefault(),
		concurrency: configuration.Output.ConcurrencyOrDefault(),
	}, nil
}

// openSelectedSession scans rootPath and applies the requested selection. A
// profile replaces the filter, scrub and mode settings. Without any selection
// flag every visible file is selected.
func (app *application) openSelectedSession(command *cobra.Command, rootPath string, settings *renderSettings, selections selectionFlags) (*session.Session, error) {
	var loadedProfile *profile.Profile
	if selections.profileName != "" {
		store := profile.NewStore(rootPath)
		stored, scope, loadError := store.Load(selections.profileName)
		if loadError != nil {
			return nil, fmt.Errorf(loadProfileFormat, selections.profileName, loadError)
		}
		mode, modeError := stored.Settings.OutputMode()
		if modeError != nil {
			return nil, fmt.Errorf(loadProfileFormat, selections.profileName, modeError)
		}
		settings.filter = stored.Settings.FilterConfig()
		settings.scrub = stored.Settings.ScrubConfig()
		settings.mode = mode
		loadedProfile = &stored
		app.logger.Debug(profileLoadedMessage, zap.String(profileFieldName, stored.Name), zap.String(kindFieldName, scope.String()))
		if rememberError := store.SetCurrentProfile(stored.Name); rememberError != nil {
			app.logger.Warn(rememberFailedMessage, zap.Error(rememberError))
		}
	}

	projectSession, openError := session.Open(rootPath, settings.filter)
	if openError != nil {
		return nil, openError
	}

	switch {
	case selections.hierarchyFile != "":
		text, readError := utils.ReadFileOrStandardInput(selections.hierarchyFile, command.InOrStdin())
		if readError != nil {
			return nil, fmt.Errorf(readHierarchyFormat, readError)
		}
		warnings, applyError := projectSession.ApplyHierarchy(text)
		if applyError != nil {
			return nil, applyError
		}
		app.logWarnings(warnings)
	case loadedProfile != nil:
		app.logWarnings(projectSession.ApplyPaths(loadedProfile.Selection))
	case len(selections.selectPaths) == 0:
		projectSession.Selection().SelectAll()
	}
	if selectError := projectSession.Select(utils.DeduplicateStrings(selections.selectPaths)); selectError != nil {
		return nil, selectError
	}
	return projectSession, nil
}

// renderSession renders the session and delivers the result to stdout and,
// when requested, to the clipboard.
func (app *application) renderSession(ctx context.Context, command *cobra.Command, projectSession *session.Session, settings renderSettings) error {
	started := time.Now()
	result, renderError := projectSession.Render(ctx, render.Options{
		Mode:         settings.mode,
		Scrub:        settings.scrub,
		IncludeNotes: settings.notes,
		Concurrency:  settings.concurrency,
	})
	if renderError != nil {
		return renderError
	}
	app.logWarnings(result.Warnings)

	var stats *tokenizer.Stats
	if settings.tokens {
		counter, model := tokenizer.NewCounter(tokenizer.Config{Model: settings.model})
		measured, measureError := tokenizer.Measure(counter, result.Text)
		if measureError != nil {
			return measureError
		}
		stats = &measured
		app.logger.Info(tokenCountMessage, zap.Int(tokensFieldName, measured.Tokens), zap.String(modelFieldName, model))
	}

	document := output.NewDocument(projectSession.Tree().RootName(), settings.mode, result, stats)
	text, formatError := output.Render(settings.format, document)
	if formatError != nil {
		return formatError
	}
	if writeError := app.write(command, text); writeError != nil {
		return writeError
	}
	if settings.copyOutput {
		if copyError := app.dependencies.Clipboard.Copy(text); copyError != nil {
			app.logger.Warn(clipboardFailedMessage, zap.Error(copyError))
		} else {
			app.logger.Info(copiedMessage)
		}
	}
	app.logger.Debug(renderedMessage, zap.Int(countFieldName, len(result.Files)), zap.Duration(durationField, time.Since(started)))
	return nil
}

// createRenderCommand returns the render subcommand.
func createRenderCommand(app *application) *cobra.Command {
	var filters filterFlags
	var selections selectionFlags
	var outputs outputFlags

	renderCommand := &cobra.Command{
		Use:     renderUse,
		Aliases: []string{renderAlias},
		Short:   renderShortDescription,
		Long:    renderLongDescription,
		Example: renderUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			settings, settingsError := app.resolveSettings(command, filters, outputs)
			if settingsError != nil {
				return settingsError
			}
			rootPath, rootError := app.resolveRoot(arguments)
			if rootError != nil {
				return rootError
			}
			projectSession, sessionError := app.openSelectedSession(command, rootPath, &settings, selections)
			if sessionError != nil {
				return sessionError
			}
			return app.renderSession(command.Context(), command, projectSession, settings)
		},
	}

	addSelectionFlags(renderCommand, &selections)
	addFilterFlags(renderCommand, &filters)
	addScrubFlags(renderCommand, &filters)
	addOutputFlags(renderCommand, &outputs)
	return renderCommand
}

// createTreeCommand returns the tree subcommand.
func createTreeCommand(app *application) *cobra.Command {
	var filters filterFlags
	var outputs outputFlags
	var directoriesOnly bool

	treeCommand := &cobra.Command{
		Use:     treeUse,
		Aliases: []string{treeAlias},
		Short:   treeShortDescription,
		Long:    treeLongDescription,
		Example: treeUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			settings, settingsError := app.resolveSettings(command, filters, outputs)
			if settingsError != nil {
				return settingsError
			}
			settings.mode = types.OutputModeHierarchyOnly
			if directoriesOnly {
				settings.mode = types.OutputModeDirectoriesOnly
			}
			rootPath, rootError := app.resolveRoot(arguments)
			if rootError != nil {
				return rootError
			}
			projectSession, sessionError := session.Open(rootPath, settings.filter)
			if sessionError != nil {
				return sessionError
			}
			projectSession.Selection().SelectAll()
			return app.renderSession(command.Context(), command, projectSession, settings)
		},
	}

	addFilterFlags(treeCommand, &filters)
	registerBooleanFlag(treeCommand.Flags(), &directoriesOnly, directoriesFlagName, false, directoriesFlagDescription)
	addOutputFlags(treeCommand, &outputs)
	return treeCommand
}

// createSelectCommand returns the select subcommand.
func createSelectCommand(app *application) *cobra.Command {
	var filters filterFlags
	var selections selectionFlags

	selectCommand := &cobra.Command{
		Use:     selectUse,
		Short:   selectShortDescription,
		Long:    selectLongDescription,
		Example: selectUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			if selections.hierarchyFile == "" {
				return errors.New(hierarchyRequiredError)
			}
			settings, settingsError := app.resolveSettings(command, filters, outputFlags{})
			if settingsError != nil {
				return settingsError
			}
			rootPath, rootError := app.resolveRoot(arguments)
			if rootError != nil {
				return rootError
			}
			projectSession, sessionError := app.openSelectedSession(command, rootPath, &settings, selections)
			if sessionError != nil {
				return sessionError
			}
			app.logWarnings(projectSession.Warnings())
			selectedFiles := projectSession.Selection().SelectedFiles()
			if len(selectedFiles) == 0 {
				return nil
			}
			return app.write(command, strings.Join(selectedFiles, "\n")+"\n")
		},
	}

	selectCommand.Flags().StringVar(&selections.hierarchyFile, hierarchyFileFlagName, "", hierarchyFileFlagDescription)
	addFilterFlags(selectCommand, &filters)
	return selectCommand
}
