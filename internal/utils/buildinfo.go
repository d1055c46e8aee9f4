package utils

import (
	"runtime/debug"
	"strings"
)

const (
	unknownVersion         = "unknown"
	developmentVersion     = "(devel)"
	developmentPrefix      = "devel"
	vcsRevisionSetting     = "vcs.revision"
	vcsModifiedSetting     = "vcs.modified"
	shortRevisionLength    = 12
	modifiedRevisionSuffix = "-dirty"
)

// Version is set at link time with
// -ldflags "-X github.com/temirov/stitch/internal/utils.Version=v1.2.3".
var Version string

var readBuildInfo = debug.ReadBuildInfo

// GetApplicationVersion reports the linked version, the module version of an
// installed binary, or the VCS revision a development build was made from.
// The working directory is never consulted.
func GetApplicationVersion() string {
	if trimmed := strings.TrimSpace(Version); trimmed != "" {
		return trimmed
	}
	buildInfo, available := readBuildInfo()
	if !available || buildInfo == nil {
		return unknownVersion
	}
	if buildInfo.Main.Version != "" && buildInfo.Main.Version != developmentVersion {
		return buildInfo.Main.Version
	}
	return versionFromSettings(buildInfo.Settings)
}

func versionFromSettings(settings []debug.BuildSetting) string {
	var revision string
	var modified bool
	for _, setting := range settings {
		switch setting.Key {
		case vcsRevisionSetting:
			revision = setting.Value
		case vcsModifiedSetting:
			modified = setting.Value == "true"
		}
	}
	if revision == "" {
		return unknownVersion
	}
	if len(revision) > shortRevisionLength {
		revision = revision[:shortRevisionLength]
	}
	version := developmentPrefix + "+" + revision
	if modified {
		version += modifiedRevisionSuffix
	}
	return version
}
