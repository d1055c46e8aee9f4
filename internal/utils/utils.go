// Package utils contains general helper functions used across the stitch tool.
package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const homeDirectoryPrefix = "~"

// DeduplicateStrings removes blank and duplicate values while preserving order.
// The first occurrence of each unique value is kept.
func DeduplicateStrings(values []string) []string {
	encounteredValues := make(map[string]struct{})
	result := make([]string, 0, len(values))
	for _, value := range values {
		trimmedValue := strings.TrimSpace(value)
		if trimmedValue == "" {
			continue
		}
		if _, exists := encounteredValues[trimmedValue]; !exists {
			encounteredValues[trimmedValue] = struct{}{}
			result = append(result, trimmedValue)
		}
	}
	return result
}

// ResolveRootArgument returns the first positional argument or the current directory.
func ResolveRootArgument(arguments []string) string {
	if len(arguments) == 0 || strings.TrimSpace(arguments[0]) == "" {
		return DefaultRootArgument
	}
	return arguments[0]
}

// ExpandHomePath replaces a leading "~" with the user's home directory.
func ExpandHomePath(path string) string {
	if path != homeDirectoryPrefix && !strings.HasPrefix(path, homeDirectoryPrefix+string(filepath.Separator)) && !strings.HasPrefix(path, homeDirectoryPrefix+"/") {
		return path
	}
	homeDirectory, err := os.UserHomeDir()
	if err != nil || homeDirectory == "" {
		return path
	}
	return filepath.Join(homeDirectory, strings.TrimPrefix(path, homeDirectoryPrefix))
}

// ReadFileOrStandardInput reads path, or input when path is "-".
func ReadFileOrStandardInput(path string, input io.Reader) (string, error) {
	if path == StandardStreamArgument {
		contents, readError := io.ReadAll(input)
		if readError != nil {
			return "", fmt.Errorf("read standard input: %w", readError)
		}
		return string(contents), nil
	}
	// #nosec G304
	contents, readError := os.ReadFile(path)
	if readError != nil {
		return "", fmt.Errorf("read %s: %w", path, readError)
	}
	return string(contents), nil
}
