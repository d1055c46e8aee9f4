package utils

// Configuration file locations.
const (
	// GlobalConfigDirectoryName is the directory under the user's home holding the global configuration.
	GlobalConfigDirectoryName = ".stitch"
	// ConfigFileName is the global configuration file name.
	ConfigFileName = "config.yaml"
	// LocalConfigFileName is the per-project configuration file name.
	LocalConfigFileName = ".stitch.yaml"
	// DefaultRootArgument is the project root used when none is given.
	DefaultRootArgument = "."
	// StandardStreamArgument stands for standard input in file arguments.
	StandardStreamArgument = "-"
)

// Messages reported by the command entry point.
const (
	// LoggerInitializationFailedMessageFormat reports a logger that could not be built.
	LoggerInitializationFailedMessageFormat = "failed to initialize logger: %w"
	// ApplicationExecutionFailedMessage prefixes a command failure.
	ApplicationExecutionFailedMessage = "application execution failed"
)
