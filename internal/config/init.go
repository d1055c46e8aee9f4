package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/temirov/stitch/internal/utils"
)

// InitTarget identifies where configuration should be initialized.
type InitTarget string

const (
	// InitTargetLocal writes ./.stitch.yaml in the working directory.
	InitTargetLocal InitTarget = "local"
	// InitTargetGlobal writes ~/.stitch/config.yaml.
	InitTargetGlobal InitTarget = "global"

	configurationDirectoryPermissions = 0o755
	configurationFilePermissions      = 0o600

	defaultConfigurationTemplate = `filters:
  # extensions: [rs, go, -lock]
  extensions: []
  exclude_dirs: []
  exclude_files: []
  use_defaults: true
scrub:
  prefixes: []
  regex: ""
output:
  mode: full
  format: raw
  notes: false
  clipboard: false
  tokens:
    enabled: false
    model: gpt-4o
  concurrency: 0
watch:
  debounce: 300ms
logging:
  file: ""
  level: info
  max_size: 10
  max_backups: 3
  max_age: 28
  compress: false
`
)

var (
	// ErrConfigurationExists is returned when the destination file is present and Force is unset.
	ErrConfigurationExists = errors.New("configuration file already exists")
	// ErrUnsupportedInitTarget is returned for targets other than local and global.
	ErrUnsupportedInitTarget = errors.New("unsupported init target")
)

// InitOptions controls how configuration initialization behaves.
type InitOptions struct {
	Target           InitTarget
	Force            bool
	WorkingDirectory string
}

// InitializeConfiguration writes the default configuration template to the
// requested target and returns the written path.
func InitializeConfiguration(options InitOptions) (string, error) {
	destinationPath, destinationError := initDestination(options)
	if destinationError != nil {
		return "", destinationError
	}

	_, statError := os.Stat(destinationPath)
	switch {
	case statError == nil && !options.Force:
		return "", fmt.Errorf("%w at %s", ErrConfigurationExists, destinationPath)
	case statError != nil && !errors.Is(statError, fs.ErrNotExist):
		return "", fmt.Errorf("inspect configuration path %s: %w", destinationPath, statError)
	}

	if err := os.MkdirAll(filepath.Dir(destinationPath), configurationDirectoryPermissions); err != nil {
		return "", fmt.Errorf("create configuration directory %s: %w", filepath.Dir(destinationPath), err)
	}
	if err := os.WriteFile(destinationPath, []byte(defaultConfigurationTemplate), configurationFilePermissions); err != nil {
		return "", fmt.Errorf("write configuration to %s: %w", destinationPath, err)
	}
	return destinationPath, nil
}

func initDestination(options InitOptions) (string, error) {
	switch options.Target {
	case InitTargetLocal, "":
		workingDirectory := options.WorkingDirectory
		if workingDirectory == "" {
			current, err := os.Getwd()
			if err != nil {
				return "", fmt.Errorf("determine working directory for configuration: %w", err)
			}
			workingDirectory = current
		}
		return filepath.Join(workingDirectory, utils.LocalConfigFileName), nil
	case InitTargetGlobal:
		homeDirectory, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory for configuration: %w", err)
		}
		return filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName), nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnsupportedInitTarget, options.Target)
	}
}
