package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/stitch/internal/config"
)

const (
	initUse              = "init"
	initShortDescription = "write a default configuration file"
	// initLongDescription provides detailed help for the init command.
	initLongDescription = `Write the default configuration template to ./.stitch.yaml, or to
~/.stitch/config.yaml with --global. An existing file is kept unless --force is given.`
	globalFlagName        = "global"
	globalFlagDescription = "write the global configuration in ~/.stitch"
	forceFlagName         = "force"
	forceFlagDescription  = "overwrite an existing configuration file"
	initWrittenTemplate   = "Configuration written to %s\n"
)

// createInitCommand returns the init subcommand.
func createInitCommand(app *application) *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			destinationPath, initError := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: app.dependencies.WorkingDirectory,
			})
			if initError != nil {
				return initError
			}
			return app.write(command, fmt.Sprintf(initWrittenTemplate, destinationPath))
		},
	}

	registerBooleanFlag(initCommand.Flags(), &global, globalFlagName, false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &force, forceFlagName, false, forceFlagDescription)
	return initCommand
}
