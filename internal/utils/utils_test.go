package utils_test

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/temirov/stitch/internal/utils"
)

func TestDeduplicateStrings(testingInstance *testing.T) {
	testCases := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "empty", input: nil, expected: []string{}},
		{name: "duplicates and blanks", input: []string{"a", " ", "b", "a ", "c"}, expected: []string{"a", "b", "c"}},
	}
	for _, testCase := range testCases {
		testCase := testCase
		testingInstance.Run(testCase.name, func(testingInstance *testing.T) {
			actual := utils.DeduplicateStrings(testCase.input)
			if !reflect.DeepEqual(actual, testCase.expected) {
				testingInstance.Fatalf("DeduplicateStrings(%v) = %v, expected %v", testCase.input, actual, testCase.expected)
			}
		})
	}
}

func TestResolveRootArgument(testingInstance *testing.T) {
	if actual := utils.ResolveRootArgument(nil); actual != "." {
		testingInstance.Fatalf("expected current directory, got %q", actual)
	}
	if actual := utils.ResolveRootArgument([]string{"project"}); actual != "project" {
		testingInstance.Fatalf("expected project, got %q", actual)
	}
}

func TestExpandHomePath(testingInstance *testing.T) {
	homeDirectory := testingInstance.TempDir()
	testingInstance.Setenv("HOME", homeDirectory)
	testingInstance.Setenv("USERPROFILE", homeDirectory)

	expected := filepath.Join(homeDirectory, "logs", "stitch.log")
	if actual := utils.ExpandHomePath("~/logs/stitch.log"); actual != expected {
		testingInstance.Fatalf("ExpandHomePath = %q, expected %q", actual, expected)
	}
	if actual := utils.ExpandHomePath("relative/~file"); actual != "relative/~file" {
		testingInstance.Fatalf("unexpected expansion %q", actual)
	}
}

func TestReadFileOrStandardInput(testingInstance *testing.T) {
	filePath := filepath.Join(testingInstance.TempDir(), "hierarchy.txt")
	if err := os.WriteFile(filePath, []byte("from file"), 0o644); err != nil {
		testingInstance.Fatalf("write: %v", err)
	}
	fromFile, err := utils.ReadFileOrStandardInput(filePath, strings.NewReader("ignored"))
	if err != nil || fromFile != "from file" {
		testingInstance.Fatalf("unexpected file read %q %v", fromFile, err)
	}
	fromInput, err := utils.ReadFileOrStandardInput("-", strings.NewReader("from input"))
	if err != nil || fromInput != "from input" {
		testingInstance.Fatalf("unexpected input read %q %v", fromInput, err)
	}
	if _, err := utils.ReadFileOrStandardInput(filepath.Join(testingInstance.TempDir(), "missing"), nil); err == nil {
		testingInstance.Fatalf("expected error for missing file")
	}
}
