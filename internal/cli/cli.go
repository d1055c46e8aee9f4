// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/stitch/internal/config"
	"github.com/temirov/stitch/internal/services/clipboard"
	"github.com/temirov/stitch/internal/types"
	"github.com/temirov/stitch/internal/utils"
)

const (
	configFlagName       = "config"
	logLevelFlagName     = "log-level"
	versionTemplate      = "stitch version: {{.Version}}\n"
	rootUse              = "stitch"
	rootShortDescription = "stitch command line interface"
	rootLongDescription  = `stitch selects files from a project tree, scrubs comments and secrets from them,
and renders one text block for pasting into an LLM conversation.
Configuration is read from ~/.stitch/config.yaml and ./.stitch.yaml; flags override both.`
	configFlagDescription   = "configuration file to use instead of ./.stitch.yaml"
	logLevelFlagDescription = "log level (debug, info, warn, error)"

	workingDirectoryErrorFormat = "unable to determine working directory: %w"
	loadConfigurationFormat     = "load configuration: %w"
	createLoggerFormat          = "create logger: %w"
	resolveRootFormat           = "resolve root %s: %w"
	writeOutputFormat           = "write output: %w"

	pathFieldName    = "path"
	kindFieldName    = "kind"
	reasonFieldName  = "reason"
	warningMessage   = "warning"
	countFieldName   = "count"
	modelFieldName   = "model"
	tokensFieldName  = "tokens"
	renderedMessage  = "rendered"
	copiedMessage    = "copied output to clipboard"
	durationField    = "duration"
	profileFieldName = "profile"
)

// Dependencies lets callers replace the process streams and collaborators.
// Zero values fall back to the process defaults.
type Dependencies struct {
	Arguments        []string
	Input            io.Reader
	Output           io.Writer
	Clipboard        clipboard.Copier
	Logger           *zap.Logger
	WorkingDirectory string
}

// application is the state shared by all commands of one invocation.
type application struct {
	dependencies  Dependencies
	configuration config.ApplicationConfiguration
	logger        *zap.Logger
	ownsLogger    bool
}

// Execute runs the stitch application.
func Execute(ctx context.Context, dependencies Dependencies) error {
	if dependencies.Arguments == nil {
		dependencies.Arguments = os.Args[1:]
	}
	if dependencies.Input == nil {
		dependencies.Input = os.Stdin
	}
	if dependencies.Output == nil {
		dependencies.Output = os.Stdout
	}
	if dependencies.Clipboard == nil {
		dependencies.Clipboard = clipboard.NewService()
	}
	if dependencies.WorkingDirectory == "" {
		workingDirectory, err := os.Getwd()
		if err != nil {
			return fmt.Errorf(workingDirectoryErrorFormat, err)
		}
		dependencies.WorkingDirectory = workingDirectory
	}

	app := &application{dependencies: dependencies, logger: zap.NewNop()}
	rootCommand := createRootCommand(app)
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, dependencies.Arguments))
	rootCommand.SetIn(dependencies.Input)
	rootCommand.SetOut(dependencies.Output)
	return rootCommand.ExecuteContext(ctx)
}

// createRootCommand builds the root Cobra command.
func createRootCommand(app *application) *cobra.Command {
	var configFilePath string
	var logLevel string

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		Version:       utils.GetApplicationVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return app.prepare(command, configFilePath, logLevel)
		},
		PersistentPostRun: func(command *cobra.Command, arguments []string) {
			if app.ownsLogger {
				_ = app.logger.Sync()
			}
		},
	}
	rootCommand.SetVersionTemplate(versionTemplate)
	rootCommand.PersistentFlags().StringVar(&configFilePath, configFlagName, "", configFlagDescription)
	rootCommand.PersistentFlags().StringVar(&logLevel, logLevelFlagName, "", logLevelFlagDescription)
	rootCommand.AddCommand(
		createRenderCommand(app),
		createTreeCommand(app),
		createSelectCommand(app),
		createWatchCommand(app),
		createProfileCommand(app),
		createInitCommand(app),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// prepare loads configuration and builds the logger before a command runs.
// The init command runs without loading configuration.
func (app *application) prepare(command *cobra.Command, configFilePath string, logLevel string) error {
	if command.Name() != initUse {
		configuration, err := config.LoadApplicationConfiguration(config.LoadOptions{
			WorkingDirectory: app.dependencies.WorkingDirectory,
			ExplicitFilePath: configFilePath,
		})
		if err != nil {
			return fmt.Errorf(loadConfigurationFormat, err)
		}
		app.configuration = configuration
	}
	if app.dependencies.Logger != nil {
		app.logger = app.dependencies.Logger
		return nil
	}
	loggerOptions := app.configuration.Logging.LoggerOptions()
	if logLevel != "" {
		loggerOptions.Level = logLevel
	}
	logger, err := utils.NewApplicationLogger(loggerOptions)
	if err != nil {
		return fmt.Errorf(createLoggerFormat, err)
	}
	app.logger = logger
	app.ownsLogger = true
	return nil
}

// resolveRoot returns the absolute project root named by the positional argument.
func (app *application) resolveRoot(arguments []string) (string, error) {
	root := utils.ExpandHomePath(utils.ResolveRootArgument(arguments))
	if !filepath.IsAbs(root) {
		root = filepath.Join(app.dependencies.WorkingDirectory, root)
	}
	absoluteRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf(resolveRootFormat, root, err)
	}
	return absoluteRoot, nil
}

// logWarnings reports non-fatal problems without touching stdout.
func (app *application) logWarnings(warnings []types.Warning) {
	for _, warning := range warnings {
		fields := []zap.Field{zap.String(kindFieldName, string(warning.Kind)), zap.String(pathFieldName, warning.Path)}
		if warning.Err != nil {
			fields = append(fields, zap.String(reasonFieldName, warning.Err.Error()))
		}
		app.logger.Warn(warningMessage, fields...)
	}
}

func (app *application) write(command *cobra.Command, text string) error {
	if _, err := io.WriteString(command.OutOrStdout(), text); err != nil {
		return fmt.Errorf(writeOutputFormat, err)
	}
	return nil
}
