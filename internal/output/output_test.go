package output_test

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"strings"
	"testing"

	"github.com/temirov/stitch/internal/output"
	"github.com/temirov/stitch/internal/profile"
	"github.com/temirov/stitch/internal/render"
	"github.com/temirov/stitch/internal/tokenizer"
	"github.com/temirov/stitch/internal/types"
)

func sampleResult() render.Result {
	return render.Result{
		Text:      "=== FILE HIERARCHY ===\n\nproj\n└── a.rs\n",
		Hierarchy: "proj\n└── a.rs\n",
		Files: []render.FileBlock{
			{Path: "a.rs", Content: "fn main() {}\n"},
			{Path: "b.rs", Content: "[unreadable file: gone]\n", Unreadable: true},
		},
		Warnings: []types.Warning{{Kind: types.WarningUnreadableFile, Path: "b.rs", Err: errors.New("gone")}},
	}
}

func TestRenderFormats(t *testing.T) {
	t.Parallel()

	stats := &tokenizer.Stats{Characters: 10, Lines: 2, Tokens: 3, Model: "stub"}
	document := output.NewDocument("proj", types.OutputModeFull, sampleResult(), stats)

	testCases := []struct {
		name   string
		format string
		check  func(t *testing.T, rendered string)
	}{
		{
			name:   "raw",
			format: "",
			check: func(t *testing.T, rendered string) {
				if rendered != sampleResult().Text {
					t.Fatalf("raw output should be the text envelope, got %q", rendered)
				}
			},
		},
		{
			name:   "json",
			format: "JSON",
			check: func(t *testing.T, rendered string) {
				var decoded struct {
					Root     string `json:"root"`
					Mode     string `json:"mode"`
					Files    []output.File
					Warnings []output.Warning
					Stats    tokenizer.Stats
				}
				if err := json.Unmarshal([]byte(rendered), &decoded); err != nil {
					t.Fatalf("invalid JSON: %v", err)
				}
				if decoded.Root != "proj" || decoded.Mode != "full" || len(decoded.Files) != 2 || decoded.Stats.Tokens != 3 {
					t.Fatalf("unexpected document %+v", decoded)
				}
				if len(decoded.Warnings) != 1 || decoded.Warnings[0].Message != "gone" || decoded.Warnings[0].Kind != "unreadable_file" {
					t.Fatalf("unexpected warnings %+v", decoded.Warnings)
				}
			},
		},
		{
			name:   "xml",
			format: "xml",
			check: func(t *testing.T, rendered string) {
				if !strings.HasPrefix(rendered, xml.Header) {
					t.Fatalf("missing XML header")
				}
				var decoded output.Document
				if err := xml.Unmarshal([]byte(strings.TrimPrefix(rendered, xml.Header)), &decoded); err != nil {
					t.Fatalf("invalid XML: %v", err)
				}
				if decoded.Root != "proj" || len(decoded.Files) != 2 || decoded.Files[0].Content != "fn main() {}\n" || !decoded.Files[1].Unreadable {
					t.Fatalf("unexpected document %+v", decoded)
				}
				if decoded.Stats == nil || decoded.Stats.Model != "stub" {
					t.Fatalf("unexpected stats %+v", decoded.Stats)
				}
			},
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			rendered, err := output.Render(testCase.format, document)
			if err != nil {
				t.Fatalf("Render error: %v", err)
			}
			testCase.check(t, rendered)
		})
	}
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	if _, err := output.Render("toon", output.Document{}); !errors.Is(err, output.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestRenderProfileTable(t *testing.T) {
	t.Parallel()

	rendered := output.RenderProfileTable([]profile.Meta{
		{Name: "backend", Scope: profile.ScopeLocal},
		{Name: "docs", Scope: profile.ScopeShared},
	}, "docs")
	lines := strings.Split(strings.TrimRight(rendered, "\n"), "\n")
	var backendLine, docsLine string
	for _, line := range lines {
		switch {
		case strings.Contains(line, "backend"):
			backendLine = line
		case strings.Contains(line, "docs"):
			docsLine = line
		}
	}
	if !strings.Contains(backendLine, "local") || strings.Contains(backendLine, "*") {
		t.Fatalf("unexpected backend row %q", backendLine)
	}
	if !strings.Contains(docsLine, "shared") || !strings.Contains(docsLine, "*") {
		t.Fatalf("unexpected docs row %q", docsLine)
	}
}
