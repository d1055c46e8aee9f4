package utils

import (
	"runtime/debug"
	"testing"
)

func TestGetApplicationVersion(testingInstance *testing.T) {
	originalReader := readBuildInfo
	originalVersion := Version
	testingInstance.Cleanup(func() {
		readBuildInfo = originalReader
		Version = originalVersion
	})

	testCases := []struct {
		name          string
		linkedVersion string
		buildInfo     *debug.BuildInfo
		expected      string
	}{
		{
			name:          "linked_version_wins",
			linkedVersion: "v1.4.0",
			buildInfo:     &debug.BuildInfo{Main: debug.Module{Version: "v0.9.0"}},
			expected:      "v1.4.0",
		},
		{
			name:      "module_version",
			buildInfo: &debug.BuildInfo{Main: debug.Module{Version: "v0.9.0"}},
			expected:  "v0.9.0",
		},
		{
			name: "dirty_development_build",
			buildInfo: &debug.BuildInfo{
				Main: debug.Module{Version: "(devel)"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "0123456789abcdef0123"},
					{Key: "vcs.modified", Value: "true"},
				},
			},
			expected: "devel+0123456789ab-dirty",
		},
		{
			name:      "nothing_known",
			buildInfo: &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}},
			expected:  "unknown",
		},
		{
			name:     "no_build_info",
			expected: "unknown",
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testingInstance.Run(testCase.name, func(testingInstance *testing.T) {
			Version = testCase.linkedVersion
			readBuildInfo = func() (*debug.BuildInfo, bool) {
				return testCase.buildInfo, testCase.buildInfo != nil
			}
			if actual := GetApplicationVersion(); actual != testCase.expected {
				testingInstance.Fatalf("GetApplicationVersion() = %q, expected %q", actual, testCase.expected)
			}
		})
	}
}
