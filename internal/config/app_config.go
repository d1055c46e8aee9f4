// Package config loads the application configuration from the global and local YAML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/temirov/stitch/internal/filter"
	"github.com/temirov/stitch/internal/types"
	"github.com/temirov/stitch/internal/utils"
)

const (
	defaultTokenModel    = "gpt-4o"
	defaultDebounce      = 300 * time.Millisecond
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds every configurable default.
type ApplicationConfiguration struct {
	Filters FilterConfiguration  `mapstructure:"filters"`
	Scrub   ScrubConfiguration   `mapstructure:"scrub"`
	Output  OutputConfiguration  `mapstructure:"output"`
	Watch   WatchConfiguration   `mapstructure:"watch"`
	Logging LoggingConfiguration `mapstructure:"logging"`
}

// FilterConfiguration configures which entries are visible.
type FilterConfiguration struct {
	Extensions   []string `mapstructure:"extensions"`
	ExcludeDirs  []string `mapstructure:"exclude_dirs"`
	ExcludeFiles []string `mapstructure:"exclude_files"`
	UseDefaults  *bool    `mapstructure:"use_defaults"`
}

// ScrubConfiguration configures content scrubbing.
type ScrubConfiguration struct {
	Prefixes []string `mapstructure:"prefixes"`
	Regex    string   `mapstructure:"regex"`
}

// OutputConfiguration controls rendering and delivery.
type OutputConfiguration struct {
	Mode        string             `mapstructure:"mode"`
	Format      string             `mapstructure:"format"`
	Notes       *bool              `mapstructure:"notes"`
	Clipboard   *bool              `mapstructure:"clipboard"`
	Tokens      TokenConfiguration `mapstructure:"tokens"`
	Concurrency *int               `mapstructure:"concurrency"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

// WatchConfiguration controls the watch command.
type WatchConfiguration struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// LoggingConfiguration controls the optional rotating log file.
type LoggingConfiguration struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level"`
	MaxSize    *int   `mapstructure:"max_size"`
	MaxBackups *int   `mapstructure:"max_backups"`
	MaxAge     *int   `mapstructure:"max_age"`
	Compress   *bool  `mapstructure:"compress"`
}

// LoadApplicationConfiguration loads configuration from global and local files.
// Local values override global ones field by field.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath, resolveErr := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveErr != nil {
		return ApplicationConfiguration{}, resolveErr
	}
	if localPath != "" {
		localConfig, loadErr := loadConfigurationFromPath(localPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(localConfig)
	}

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolute, err := filepath.Abs(explicitPath)
			if err != nil {
				return "", fmt.Errorf("resolve configuration path %s: %w", explicitPath, err)
			}
			return absolute, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	if workingDirectory == "" {
		return "", nil
	}
	return filepath.Join(workingDirectory, utils.LocalConfigFileName), nil
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	reader.SetConfigType("yaml")
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	result.Filters = result.Filters.merge(override.Filters)
	result.Scrub = result.Scrub.merge(override.Scrub)
	result.Output = result.Output.merge(override.Output)
	if override.Watch.Debounce > 0 {
		result.Watch.Debounce = override.Watch.Debounce
	}
	result.Logging = result.Logging.merge(override.Logging)
	return result
}

func (config FilterConfiguration) merge(override FilterConfiguration) FilterConfiguration {
	result := config
	if len(override.Extensions) > 0 {
		result.Extensions = append([]string{}, override.Extensions...)
	}
	if len(override.ExcludeDirs) > 0 {
		result.ExcludeDirs = append([]string{}, override.ExcludeDirs...)
	}
	if len(override.ExcludeFiles) > 0 {
		result.ExcludeFiles = append([]string{}, override.ExcludeFiles...)
	}
	if override.UseDefaults != nil {
		result.UseDefaults = cloneBool(override.UseDefaults)
	}
	return result
}

func (config ScrubConfiguration) merge(override ScrubConfiguration) ScrubConfiguration {
	result := config
	if len(override.Prefixes) > 0 {
		result.Prefixes = append([]string{}, override.Prefixes...)
	}
	if override.Regex != "" {
		result.Regex = override.Regex
	}
	return result
}

func (config OutputConfiguration) merge(override OutputConfiguration) OutputConfiguration {
	result := config
	if override.Mode != "" {
		result.Mode = override.Mode
	}
	if override.Format != "" {
		result.Format = override.Format
	}
	if override.Notes != nil {
		result.Notes = cloneBool(override.Notes)
	}
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	result.Tokens = result.Tokens.merge(override.Tokens)
	if override.Concurrency != nil {
		result.Concurrency = cloneInt(override.Concurrency)
	}
	return result
}

func (config TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := config
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	return result
}

func (config LoggingConfiguration) merge(override LoggingConfiguration) LoggingConfiguration {
	result := config
	if override.File != "" {
		result.File = override.File
	}
	if override.Level != "" {
		result.Level = override.Level
	}
	if override.MaxSize != nil {
		result.MaxSize = cloneInt(override.MaxSize)
	}
	if override.MaxBackups != nil {
		result.MaxBackups = cloneInt(override.MaxBackups)
	}
	if override.MaxAge != nil {
		result.MaxAge = cloneInt(override.MaxAge)
	}
	if override.Compress != nil {
		result.Compress = cloneBool(override.Compress)
	}
	return result
}

// FilterConfig resolves the filter section. The built-in exclude lists are
// included unless use_defaults is false; configured names are added to them.
func (config FilterConfiguration) FilterConfig() types.FilterConfig {
	var resolved types.FilterConfig
	if boolValue(config.UseDefaults, true) {
		resolved = filter.Default()
	}
	include, exclude := filter.ParseExtensionFilters(strings.Join(config.Extensions, ","))
	resolved.IncludeExtensions = include
	resolved.ExcludeExtensions = exclude
	resolved.ExcludeDirectoryNames = append(resolved.ExcludeDirectoryNames, config.ExcludeDirs...)
	resolved.ExcludeFileNames = append(resolved.ExcludeFileNames, config.ExcludeFiles...)
	return filter.Normalize(resolved)
}

// ScrubConfig resolves the scrub section.
func (config ScrubConfiguration) ScrubConfig() types.ScrubConfig {
	return types.ScrubConfig{LinePrefixes: append([]string(nil), config.Prefixes...), RemovePattern: config.Regex}
}

// OutputMode parses the configured mode; an empty value is Full.
func (config OutputConfiguration) OutputMode() (types.OutputMode, error) {
	return types.ParseOutputMode(config.Mode)
}

// FormatOrDefault returns the configured output format or raw.
func (config OutputConfiguration) FormatOrDefault() string {
	if config.Format == "" {
		return types.FormatRaw
	}
	return strings.ToLower(config.Format)
}

// NotesEnabled reports whether the notes section is rendered.
func (config OutputConfiguration) NotesEnabled() bool {
	return boolValue(config.Notes, false)
}

// ClipboardEnabled reports whether output is copied to the clipboard.
func (config OutputConfiguration) ClipboardEnabled() bool {
	return boolValue(config.Clipboard, false)
}

// ConcurrencyOrDefault returns the configured read concurrency; zero lets the renderer decide.
func (config OutputConfiguration) ConcurrencyOrDefault() int {
	if config.Concurrency == nil || *config.Concurrency < 0 {
		return 0
	}
	return *config.Concurrency
}

// TokensEnabled reports whether token counting is on.
func (config TokenConfiguration) TokensEnabled() bool {
	return boolValue(config.Enabled, false)
}

// ModelOrDefault returns the configured tokenizer model.
func (config TokenConfiguration) ModelOrDefault() string {
	if config.Model == "" {
		return defaultTokenModel
	}
	return config.Model
}

// DebounceOrDefault returns the configured debounce window.
func (config WatchConfiguration) DebounceOrDefault() time.Duration {
	if config.Debounce <= 0 {
		return defaultDebounce
	}
	return config.Debounce
}

// LoggerOptions converts the logging section into logger construction options.
func (config LoggingConfiguration) LoggerOptions() utils.LoggerOptions {
	return utils.LoggerOptions{
		Level:          config.Level,
		FilePath:       config.File,
		FileMaxSize:    intValue(config.MaxSize, defaultLogMaxSize),
		FileMaxBackups: intValue(config.MaxBackups, defaultLogMaxBackups),
		FileMaxAge:     intValue(config.MaxAge, defaultLogMaxAge),
		FileCompress:   boolValue(config.Compress, false),
	}
}

func boolValue(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

func intValue(value *int, fallback int) int {
	if value == nil {
		return fallback
	}
	return *value
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
