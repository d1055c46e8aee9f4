package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/temirov/stitch/internal/output"
	"github.com/temirov/stitch/internal/profile"
)

const (
	localFlagName        = "local"
	localFlagDescription = "use the per-user profile directory instead of the shared one"

	profileUse              = "profile"
	profileAlias            = "p"
	profileShortDescription = "manage saved selections (" + profileAlias + ")"
	// profileLongDescription provides detailed help for the profile command.
	profileLongDescription = `Profiles remember a selection together with its filter, scrub and mode settings.
Shared profiles live in .stitchworkspace/profiles and are meant to be committed; local
profiles live in .stitchworkspace/local/profiles and win when both scopes hold a name.`

	profileListUse              = "list [root]"
	profileListShortDescription = "list profiles, newest first"
	profileSaveUse              = "save <name> [root]"
	profileSaveShortDescription = "save the current selection and settings as a profile"
	// profileSaveUsageExample demonstrates profile save usage.
	profileSaveUsageExample = `  # Save the backend selection for the whole team
  stitch profile save backend --select internal --select cmd --ext go

  # Keep a personal profile out of version control
  stitch profile save scratch --local --hierarchy-file prompt.txt`
	profileShowUse                = "show <name> [root]"
	profileShowShortDescription   = "print a profile record"
	profileDeleteUse              = "delete <name> [root]"
	profileDeleteShortDescription = "delete a profile"

	profileSavedTemplate   = "Saved profile %s (%s)\n"
	profileDeletedTemplate = "Deleted profile %s (%s)\n"
	profileScopeTemplate   = "# scope: %s\n"
	noProfilesMessage      = "No profiles saved.\n"
	staleProfileMessage    = "cleared stale current profile"
	encodeProfileFormat    = "encode profile %s: %w"
	saveProfileFormat      = "save profile %s: %w"
	deleteProfileFormat    = "delete profile %s: %w"
)

// createProfileCommand returns the profile command group.
func createProfileCommand(app *application) *cobra.Command {
	profileCommand := &cobra.Command{
		Use:     profileUse,
		Aliases: []string{profileAlias},
		Short:   profileShortDescription,
		Long:    profileLongDescription,
		Args:    cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}
	profileCommand.AddCommand(
		createProfileListCommand(app),
		createProfileSaveCommand(app),
		createProfileShowCommand(app),
		createProfileDeleteCommand(app),
	)
	return profileCommand
}

// profileStore opens the store of the root given after the first positionals.
func (app *application) profileStore(arguments []string, skip int) (*profile.Store, error) {
	var rootArguments []string
	if len(arguments) > skip {
		rootArguments = arguments[skip:]
	}
	rootPath, rootError := app.resolveRoot(rootArguments)
	if rootError != nil {
		return nil, rootError
	}
	return profile.NewStore(rootPath), nil
}

func (app *application) clearStaleCurrentProfile(store *profile.Store) {
	cleared, clearError := store.ClearStaleCurrentProfile()
	if clearError != nil {
		app.logger.Warn(rememberFailedMessage, zap.Error(clearError))
		return
	}
	if cleared {
		app.logger.Info(staleProfileMessage)
	}
}

func createProfileListCommand(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   profileListUse,
		Short: profileListShortDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			store, storeError := app.profileStore(arguments, 0)
			if storeError != nil {
				return storeError
			}
			app.clearStaleCurrentProfile(store)
			metas, listError := store.List()
			if listError != nil {
				return listError
			}
			if len(metas) == 0 {
				return app.write(command, noProfilesMessage)
			}
			workspace, _, workspaceError := store.LoadWorkspace()
			if workspaceError != nil {
				app.logger.Warn(warningMessage, zap.Error(workspaceError))
			}
			return app.write(command, output.RenderProfileTable(metas, workspace.CurrentProfile))
		},
	}
}

func createProfileSaveCommand(app *application) *cobra.Command {
	var filters filterFlags
	var selections selectionFlags
	var local bool

	saveCommand := &cobra.Command{
		Use:     profileSaveUse,
		Short:   profileSaveShortDescription,
		Example: profileSaveUsageExample,
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(command *cobra.Command, arguments []string) error {
			name := arguments[0]
			settings, settingsError := app.resolveSettings(command, filters, outputFlags{})
			if settingsError != nil {
				return settingsError
			}
			rootPath, rootError := app.resolveRoot(arguments[1:])
			if rootError != nil {
				return rootError
			}
			projectSession, sessionError := app.openSelectedSession(command, rootPath, &settings, selections)
			if sessionError != nil {
				return sessionError
			}
			scope := profile.ScopeShared
			if local {
				scope = profile.ScopeLocal
			}
			store := profile.NewStore(rootPath)
			saved := profile.Profile{
				Name:      name,
				Settings:  profile.NewSettings(settings.filter, settings.scrub, settings.mode),
				Selection: projectSession.Selection().CheckedLeaves(),
			}
			if saveError := store.Save(saved, scope); saveError != nil {
				return fmt.Errorf(saveProfileFormat, name, saveError)
			}
			if rememberError := store.SetCurrentProfile(name); rememberError != nil {
				app.logger.Warn(rememberFailedMessage, zap.Error(rememberError))
			}
			return app.write(command, fmt.Sprintf(profileSavedTemplate, name, scope))
		},
	}

	addSelectionFlags(saveCommand, &selections)
	addFilterFlags(saveCommand, &filters)
	addScrubFlags(saveCommand, &filters)
	registerBooleanFlag(saveCommand.Flags(), &local, localFlagName, false, localFlagDescription)
	return saveCommand
}

func createProfileShowCommand(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   profileShowUse,
		Short: profileShowShortDescription,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(command *cobra.Command, arguments []string) error {
			store, storeError := app.profileStore(arguments, 1)
			if storeError != nil {
				return storeError
			}
			stored, scope, loadError := store.Load(arguments[0])
			if loadError != nil {
				return fmt.Errorf(loadProfileFormat, arguments[0], loadError)
			}
			encoded, encodeError := yaml.Marshal(stored)
			if encodeError != nil {
				return fmt.Errorf(encodeProfileFormat, arguments[0], encodeError)
			}
			return app.write(command, fmt.Sprintf(profileScopeTemplate, scope)+string(encoded))
		},
	}
}

func createProfileDeleteCommand(app *application) *cobra.Command {
	var local bool

	deleteCommand := &cobra.Command{
		Use:   profileDeleteUse,
		Short: profileDeleteShortDescription,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(command *cobra.Command, arguments []string) error {
			name := arguments[0]
			store, storeError := app.profileStore(arguments, 1)
			if storeError != nil {
				return storeError
			}
			scope := profile.ScopeLocal
			if !local {
				_, resolvedScope, loadError := store.Load(name)
				if loadError != nil {
					return fmt.Errorf(deleteProfileFormat, name, loadError)
				}
				scope = resolvedScope
			}
			if deleteError := store.Delete(name, scope); deleteError != nil {
				return fmt.Errorf(deleteProfileFormat, name, deleteError)
			}
			app.clearStaleCurrentProfile(store)
			return app.write(command, fmt.Sprintf(profileDeletedTemplate, name, scope))
		},
	}

	registerBooleanFlag(deleteCommand.Flags(), &local, localFlagName, false, localFlagDescription)
	return deleteCommand
}
