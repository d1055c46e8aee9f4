package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/temirov/stitch/internal/types"
)

func TestInitializeConfigurationCreatesLocalFile(t *testing.T) {
	workingDirectory := t.TempDir()
	options := InitOptions{WorkingDirectory: workingDirectory, Target: InitTargetLocal}
	path, err := InitializeConfiguration(options)
	if err != nil {
		t.Fatalf("InitializeConfiguration error: %v", err)
	}
	expectedPath := filepath.Join(workingDirectory, ".stitch.yaml")
	if path != expectedPath {
		t.Fatalf("expected path %s, got %s", expectedPath, path)
	}
	content, readErr := os.ReadFile(path)
	if readErr != nil {
		t.Fatalf("read config: %v", readErr)
	}
	if !strings.Contains(string(content), "filters:") {
		t.Fatalf("unexpected configuration content: %s", string(content))
	}
}

func TestInitializedTemplateLoads(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)
	t.Setenv("USERPROFILE", homeDir)
	workingDirectory := t.TempDir()
	if _, err := InitializeConfiguration(InitOptions{WorkingDirectory: workingDirectory}); err != nil {
		t.Fatalf("InitializeConfiguration error: %v", err)
	}

	loaded, err := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: workingDirectory})
	if err != nil {
		t.Fatalf("LoadApplicationConfiguration error: %v", err)
	}
	if loaded.Watch.DebounceOrDefault() != 300*time.Millisecond {
		t.Fatalf("unexpected debounce %v", loaded.Watch.Debounce)
	}
	if loaded.Output.FormatOrDefault() != types.FormatRaw {
		t.Fatalf("unexpected format %q", loaded.Output.Format)
	}
	mode, modeErr := loaded.Output.OutputMode()
	if modeErr != nil || mode != types.OutputModeFull {
		t.Fatalf("unexpected mode %v (%v)", mode, modeErr)
	}
	if loaded.Output.Tokens.ModelOrDefault() != "gpt-4o" {
		t.Fatalf("unexpected model %q", loaded.Output.Tokens.Model)
	}
	filterConfig := loaded.Filters.FilterConfig()
	if len(filterConfig.ExcludeDirectoryNames) == 0 || filterConfig.ExcludeDirectoryNames[0] != ".git" {
		t.Fatalf("expected default exclusions, got %v", filterConfig.ExcludeDirectoryNames)
	}
}

func TestInitializeConfigurationHonorsGlobalTarget(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)
	t.Setenv("USERPROFILE", homeDir)
	path, err := InitializeConfiguration(InitOptions{Target: InitTargetGlobal, Force: true})
	if err != nil {
		t.Fatalf("InitializeConfiguration error: %v", err)
	}
	if !strings.HasPrefix(path, homeDir) {
		t.Fatalf("expected configuration under home dir, got %s", path)
	}
	if filepath.Base(filepath.Dir(path)) != ".stitch" {
		t.Fatalf("expected configuration in .stitch directory, got %s", path)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Fatalf("expected file to exist at %s: %v", path, statErr)
	}
}

func TestInitializeConfigurationPreventsOverwriteWithoutForce(t *testing.T) {
	workingDirectory := t.TempDir()
	path := filepath.Join(workingDirectory, ".stitch.yaml")
	if err := os.WriteFile(path, []byte("existing"), 0o600); err != nil {
		t.Fatalf("write seed config: %v", err)
	}
	_, err := InitializeConfiguration(InitOptions{WorkingDirectory: workingDirectory, Target: InitTargetLocal, Force: false})
	if !errors.Is(err, ErrConfigurationExists) {
		t.Fatalf("expected ErrConfigurationExists, got %v", err)
	}
	content, readErr := os.ReadFile(path)
	if readErr != nil || string(content) != "existing" {
		t.Fatalf("existing configuration was modified: %q (%v)", content, readErr)
	}
}

func TestInitializeConfigurationRejectsUnknownTarget(t *testing.T) {
	_, err := InitializeConfiguration(InitOptions{WorkingDirectory: t.TempDir(), Target: InitTarget("project")})
	if !errors.Is(err, ErrUnsupportedInitTarget) {
		t.Fatalf("expected ErrUnsupportedInitTarget, got %v", err)
	}
}
