package profile

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	createDirectoryMessageFormat = "create %s: %w"
	writeRecordMessageFormat     = "write %s: %w"
	readRecordMessageFormat      = "read %s: %w"
	decodeRecordMessageFormat    = "%w: %s: %v"
	profileNotFoundMessageFormat = "%w: %q"
	gitignoreFileName            = ".gitignore"
	gitignoreComment             = "# Stitch workspace (per-user)"
	gitignoreCommentMarker       = "#"
	gitignoreLocalEntry          = WorkspaceDirectoryName + "/" + LocalDirectoryName + "/"
	windowsLineTerminator        = "\r\n"
	unixLineTerminator           = "\n"
	directoryPermissions         = 0o755
	filePermissions              = 0o644
)

// Store reads and writes the workspace records of one project root.
type Store struct {
	projectRoot string
}

// NewStore returns a store for projectRoot. Nothing is created until the first write.
func NewStore(projectRoot string) *Store {
	return &Store{projectRoot: projectRoot}
}

// WorkspaceDirectory returns <root>/.stitchworkspace.
func (store *Store) WorkspaceDirectory() string {
	return filepath.Join(store.projectRoot, WorkspaceDirectoryName)
}

func (store *Store) workspaceFile() string {
	return filepath.Join(store.WorkspaceDirectory(), workspaceFileName)
}

func (store *Store) profilesDirectory(scope Scope) string {
	if scope == ScopeLocal {
		return filepath.Join(store.WorkspaceDirectory(), LocalDirectoryName, profilesDirectoryName)
	}
	return filepath.Join(store.WorkspaceDirectory(), profilesDirectoryName)
}

func (store *Store) profilePath(scope Scope, name string) string {
	return filepath.Join(store.profilesDirectory(scope), SanitizeName(name)+recordExtension)
}

// Save writes profile into scope, replacing a profile with the same name.
func (store *Store) Save(profile Profile, scope Scope) error {
	if ensureError := store.ensureWorkspaceDirectory(); ensureError != nil {
		return ensureError
	}
	directory := store.profilesDirectory(scope)
	if mkdirError := os.MkdirAll(directory, directoryPermissions); mkdirError != nil {
		return fmt.Errorf(createDirectoryMessageFormat, directory, mkdirError)
	}
	return writeRecord(store.profilePath(scope, profile.Name), profile)
}

// Load returns the named profile, preferring the local scope.
func (store *Store) Load(name string) (Profile, Scope, error) {
	var corruptError error
	for _, scope := range []Scope{ScopeLocal, ScopeShared} {
		var loaded Profile
		found, readError := readRecord(store.profilePath(scope, name), &loaded)
		switch {
		case errors.Is(readError, ErrCorruptRecord):
			if corruptError == nil {
				corruptError = readError
			}
		case readError != nil:
			return Profile{}, scope, readError
		case found:
			return loaded, scope, nil
		}
	}
	if corruptError != nil {
		return Profile{}, ScopeShared, corruptError
	}
	return Profile{}, ScopeShared, fmt.Errorf(profileNotFoundMessageFormat, ErrProfileNotFound, name)
}

// Delete removes the named profile from scope.
func (store *Store) Delete(name string, scope Scope) error {
	removeError := os.Remove(store.profilePath(scope, name))
	if errors.Is(removeError, fs.ErrNotExist) {
		return fmt.Errorf(profileNotFoundMessageFormat, ErrProfileNotFound, name)
	}
	return removeError
}

type listedProfile struct {
	meta     Meta
	modified time.Time
}

// List returns every profile once, newest first. A local profile hides a
// shared one with the same name; records that cannot be decoded are listed
// under their file name.
func (store *Store) List() ([]Meta, error) {
	byName := make(map[string]listedProfile)
	for _, scope := range []Scope{ScopeShared, ScopeLocal} {
		directory := store.profilesDirectory(scope)
		entries, readError := os.ReadDir(directory)
		if errors.Is(readError, fs.ErrNotExist) {
			continue
		}
		if readError != nil {
			return nil, fmt.Errorf(readRecordMessageFormat, directory, readError)
		}
		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != recordExtension {
				continue
			}
			recordPath := filepath.Join(directory, entry.Name())
			displayName := strings.TrimSuffix(entry.Name(), recordExtension)
			var loaded Profile
			if found, _ := readRecord(recordPath, &loaded); found && strings.TrimSpace(loaded.Name) != "" {
				displayName = loaded.Name
			}
			var modified time.Time
			if info, infoError := entry.Info(); infoError == nil {
				modified = info.ModTime()
			}
			candidate := listedProfile{meta: Meta{Name: displayName, Scope: scope}, modified: modified}
			previous, exists := byName[displayName]
			if !exists ||
				(previous.meta.Scope == ScopeShared && scope == ScopeLocal) ||
				(previous.meta.Scope == scope && modified.After(previous.modified)) {
				byName[displayName] = candidate
			}
		}
	}

	listed := make([]listedProfile, 0, len(byName))
	for _, candidate := range byName {
		listed = append(listed, candidate)
	}
	sort.Slice(listed, func(left, right int) bool {
		if !listed[left].modified.Equal(listed[right].modified) {
			return listed[left].modified.After(listed[right].modified)
		}
		return listed[left].meta.Name < listed[right].meta.Name
	})
	result := make([]Meta, 0, len(listed))
	for _, candidate := range listed {
		result = append(result, candidate.meta)
	}
	return result, nil
}

// LoadWorkspace returns the workspace record. The boolean is false when none exists.
func (store *Store) LoadWorkspace() (Workspace, bool, error) {
	var workspace Workspace
	found, readError := readRecord(store.workspaceFile(), &workspace)
	if readError != nil || !found {
		return Workspace{}, false, readError
	}
	return workspace, true, nil
}

// SaveWorkspace writes the workspace record.
func (store *Store) SaveWorkspace(workspace Workspace) error {
	if ensureError := store.ensureWorkspaceDirectory(); ensureError != nil {
		return ensureError
	}
	if workspace.Version == 0 {
		workspace.Version = currentRecordVersion
	}
	return writeRecord(store.workspaceFile(), workspace)
}

// SetCurrentProfile remembers name as the current profile; an empty name forgets it.
func (store *Store) SetCurrentProfile(name string) error {
	workspace, _, loadError := store.LoadWorkspace()
	if loadError != nil && !errors.Is(loadError, ErrCorruptRecord) {
		return loadError
	}
	workspace.CurrentProfile = name
	return store.SaveWorkspace(workspace)
}

// ClearStaleCurrentProfile forgets a current profile that no longer exists in either scope.
// It reports whether anything was cleared.
func (store *Store) ClearStaleCurrentProfile() (bool, error) {
	workspace, found, loadError := store.LoadWorkspace()
	if loadError != nil || !found || workspace.CurrentProfile == "" {
		return false, loadError
	}
	if _, _, profileError := store.Load(workspace.CurrentProfile); profileError == nil || !errors.Is(profileError, ErrProfileNotFound) {
		return false, nil
	}
	workspace.CurrentProfile = ""
	if saveError := store.SaveWorkspace(workspace); saveError != nil {
		return false, saveError
	}
	return true, nil
}

// ensureWorkspaceDirectory creates the workspace directory. On first creation
// the local directory is added to an existing root .gitignore.
func (store *Store) ensureWorkspaceDirectory() error {
	directory := store.WorkspaceDirectory()
	if _, statError := os.Stat(directory); statError == nil {
		return nil
	}
	if mkdirError := os.MkdirAll(directory, directoryPermissions); mkdirError != nil {
		return fmt.Errorf(createDirectoryMessageFormat, directory, mkdirError)
	}
	// a failing .gitignore update must not block saving
	_ = EnsureGitignoreEntry(store.projectRoot)
	return nil
}

// EnsureGitignoreEntry appends the local workspace directory to <root>/.gitignore
// unless an existing rule already covers it. A missing .gitignore is left alone.
func EnsureGitignoreEntry(projectRoot string) error {
	gitignorePath := filepath.Join(projectRoot, gitignoreFileName)
	contents, readError := os.ReadFile(gitignorePath)
	if errors.Is(readError, fs.ErrNotExist) {
		return nil
	}
	if readError != nil {
		return readError
	}
	text := string(contents)
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		rule := strings.TrimSpace(scanner.Text())
		if rule == "" || strings.HasPrefix(rule, gitignoreCommentMarker) {
			continue
		}
		if strings.HasSuffix(strings.TrimRight(rule, "/"), WorkspaceDirectoryName+"/"+LocalDirectoryName) {
			return nil
		}
	}

	lineTerminator := unixLineTerminator
	if strings.Contains(text, windowsLineTerminator) {
		lineTerminator = windowsLineTerminator
	}
	if text != "" && !strings.HasSuffix(text, unixLineTerminator) {
		text += lineTerminator
	}
	text += lineTerminator + gitignoreComment + lineTerminator + gitignoreLocalEntry + lineTerminator
	return os.WriteFile(gitignorePath, []byte(text), filePermissions)
}

// writeRecord encodes value as YAML and replaces path atomically.
func writeRecord(path string, value any) error {
	encoded, marshalError := yaml.Marshal(value)
	if marshalError != nil {
		return fmt.Errorf(writeRecordMessageFormat, path, marshalError)
	}
	temporaryPath := path + temporarySuffix
	if writeError := os.WriteFile(temporaryPath, encoded, filePermissions); writeError != nil {
		return fmt.Errorf(writeRecordMessageFormat, path, writeError)
	}
	if renameError := os.Rename(temporaryPath, path); renameError != nil {
		_ = os.Remove(temporaryPath)
		return fmt.Errorf(writeRecordMessageFormat, path, renameError)
	}
	return nil
}

// readRecord decodes path into value. A missing file is reported as not found without error.
func readRecord(path string, value any) (bool, error) {
	contents, readError := os.ReadFile(path)
	if errors.Is(readError, fs.ErrNotExist) {
		return false, nil
	}
	if readError != nil {
		return false, fmt.Errorf(readRecordMessageFormat, path, readError)
	}
	if decodeError := yaml.Unmarshal(contents, value); decodeError != nil {
		return false, fmt.Errorf(decodeRecordMessageFormat, ErrCorruptRecord, path, decodeError)
	}
	return true, nil
}
