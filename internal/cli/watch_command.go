package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/stitch/internal/services/watch"
	"github.com/temirov/stitch/internal/session"
)

const (
	debounceFlagName        = "debounce"
	debounceFlagDescription = "quiet period after the last change before re-rendering"

	watchUse              = "watch [root]"
	watchAlias            = "w"
	watchShortDescription = "render, then re-render whenever relevant files change (" + watchAlias + ")"
	// watchLongDescription provides detailed help for the watch command.
	watchLongDescription = `Render like the render command, then keep watching the root. Changes to visible
files and directories are coalesced and trigger a fresh scan and render; the selection is
carried over by path. Every render is written to stdout and, with --copy, to the clipboard.`
	// watchUsageExample demonstrates watch command usage.
	watchUsageExample = `  # Keep the clipboard in sync with the src directory
  stitch watch --select src --copy`

	changeDetectedMessage = "change detected"
	changeIgnoredMessage  = "change ignored"
	renderFailedMessage   = "render failed"
)

// createWatchCommand returns the watch subcommand.
func createWatchCommand(app *application) *cobra.Command {
	var filters filterFlags
	var selections selectionFlags
	var outputs outputFlags
	var debounce time.Duration

	watchCommand := &cobra.Command{
		Use:     watchUse,
		Aliases: []string{watchAlias},
		Short:   watchShortDescription,
		Long:    watchLongDescription,
		Example: watchUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			settings, settingsError := app.resolveSettings(command, filters, outputs)
			if settingsError != nil {
				return settingsError
			}
			if !command.Flags().Changed(debounceFlagName) {
				debounce = app.configuration.Watch.DebounceOrDefault()
			}
			rootPath, rootError := app.resolveRoot(arguments)
			if rootError != nil {
				return rootError
			}
			projectSession, sessionError := app.openSelectedSession(command, rootPath, &settings, selections)
			if sessionError != nil {
				return sessionError
			}
			watchError := app.watchSession(command, projectSession, settings, debounce)
			if errors.Is(watchError, context.Canceled) {
				return nil
			}
			return watchError
		},
	}

	addSelectionFlags(watchCommand, &selections)
	addFilterFlags(watchCommand, &filters)
	addScrubFlags(watchCommand, &filters)
	addOutputFlags(watchCommand, &outputs)
	watchCommand.Flags().DurationVar(&debounce, debounceFlagName, 0, debounceFlagDescription)
	return watchCommand
}

// watchSession renders once and re-renders after every debounced burst of
// relevant changes until the command context ends.
func (app *application) watchSession(command *cobra.Command, projectSession *session.Session, settings renderSettings, debounce time.Duration) error {
	watcher, watcherError := watch.New(projectSession.RootPath(), projectSession.Filter(), app.logger)
	if watcherError != nil {
		return watcherError
	}
	defer watcher.Close()

	ctx := command.Context()
	if renderError := app.renderSession(ctx, command, projectSession, settings); renderError != nil {
		return renderError
	}

	requests := make(chan watch.Request)
	group, groupContext := errgroup.WithContext(ctx)
	group.Go(func() error {
		return watcher.Run(groupContext, debounce, requests)
	})
	group.Go(func() error {
		for request := range requests {
			if !affectsAny(projectSession, request.Paths) {
				app.logger.Debug(changeIgnoredMessage, zap.Strings(pathFieldName, request.Paths))
				continue
			}
			app.logger.Info(changeDetectedMessage, zap.Int(countFieldName, len(request.Paths)))
			if reloadError := projectSession.Reload(); reloadError != nil {
				return reloadError
			}
			if renderError := app.renderSession(groupContext, command, projectSession, settings); renderError != nil {
				if groupContext.Err() != nil {
					return groupContext.Err()
				}
				app.logger.Error(renderFailedMessage, zap.Error(renderError))
			}
		}
		return nil
	})
	return group.Wait()
}

func affectsAny(projectSession *session.Session, absolutePaths []string) bool {
	for _, absolutePath := range absolutePaths {
		if projectSession.Affects(absolutePath) {
			return true
		}
	}
	return false
}
