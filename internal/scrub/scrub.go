// Package scrub removes comment lines and unwanted spans from file contents.
package scrub

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/temirov/stitch/internal/types"
)

const (
	patternFlags                = "(?ms)"
	invalidPatternMessageFormat = "%w %q: %v"
	lineFeed                    = '\n'
	carriageReturn              = "\r"
)

// ErrInvalidPattern reports a remove pattern that does not compile.
var ErrInvalidPattern = errors.New("invalid remove pattern")

var patternQuotes = []string{`"""`, `'''`, `"`, `'`}

// CleanPattern trims whitespace and one layer of surrounding quotes: """, ''', " or '.
func CleanPattern(raw string) string {
	trimmed := strings.TrimSpace(raw)
	for _, quote := range patternQuotes {
		if len(trimmed) >= 2*len(quote) && strings.HasPrefix(trimmed, quote) && strings.HasSuffix(trimmed, quote) {
			return trimmed[len(quote) : len(trimmed)-len(quote)]
		}
	}
	return trimmed
}

// CompilePattern compiles a cleaned pattern with multi-line and dot-all semantics.
// A blank pattern yields a nil regexp.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, nil
	}
	compiled, compileError := regexp.Compile(patternFlags + pattern)
	if compileError != nil {
		return nil, fmt.Errorf(invalidPatternMessageFormat, ErrInvalidPattern, pattern, compileError)
	}
	return compiled, nil
}

// StripPrefixes deletes lines whose first non-blank text starts with one of the
// prefixes and truncates lines at an inline prefix preceded by whitespace.
// Prefixes inside string literals are ignored, and whole lines inside
// multi-line literals are kept. Line terminators are preserved as found.
func StripPrefixes(text string, prefixes []string) string {
	activePrefixes := make([]string, 0, len(prefixes))
	for _, prefix := range prefixes {
		if prefix != "" {
			activePrefixes = append(activePrefixes, prefix)
		}
	}
	if len(activePrefixes) == 0 || text == "" {
		return text
	}

	var builder strings.Builder
	builder.Grow(len(text))
	lexer := &literalLexer{}
	remaining := text
	for remaining != "" {
		line, terminator := nextLine(remaining)
		remaining = remaining[len(line)+len(terminator):]

		lexer.startLine()
		contentStart := firstContentIndex(line)
		if !lexer.insideMultilineLiteral() && contentStart < len(line) && hasAnyPrefix(line[contentStart:], activePrefixes) {
			continue
		}
		if cut := lexer.scanLine(line, activePrefixes, contentStart); cut != noCut {
			line = strings.TrimRight(line[:cut], " \t")
		}
		builder.WriteString(line)
		builder.WriteString(terminator)
	}
	return builder.String()
}

// nextLine splits off the first line and its terminator ("\n", "\r\n" or "").
func nextLine(text string) (string, string) {
	newlineIndex := strings.IndexByte(text, lineFeed)
	if newlineIndex < 0 {
		return text, ""
	}
	line := text[:newlineIndex]
	if strings.HasSuffix(line, carriageReturn) {
		return line[:len(line)-1], text[newlineIndex-1 : newlineIndex+1]
	}
	return line, text[newlineIndex : newlineIndex+1]
}

// RemovePattern deletes every non-overlapping match of pattern.
func RemovePattern(text string, pattern *regexp.Regexp) string {
	if pattern == nil {
		return text
	}
	return pattern.ReplaceAllLiteralString(text, "")
}

// Scrubber applies one compiled ScrubConfig. It is safe for concurrent use.
type Scrubber struct {
	prefixes []string
	pattern  *regexp.Regexp
}

// New compiles config once for repeated use.
func New(config types.ScrubConfig) (*Scrubber, error) {
	pattern, compileError := CompilePattern(CleanPattern(config.RemovePattern))
	if compileError != nil {
		return nil, compileError
	}
	return &Scrubber{prefixes: append([]string(nil), config.LinePrefixes...), pattern: pattern}, nil
}

// HasPattern reports whether a remove pattern is configured.
func (scrubber *Scrubber) HasPattern() bool {
	return scrubber.pattern != nil
}

// Scrub runs the prefix stage then the pattern stage until the text stops
// changing, so scrubbing an already scrubbed text returns it unchanged.
// Each pass that changes the text makes it shorter, which bounds the loop.
func (scrubber *Scrubber) Scrub(text string) string {
	current := text
	for {
		next := RemovePattern(StripPrefixes(current, scrubber.prefixes), scrubber.pattern)
		if next == current {
			return current
		}
		current = next
	}
}

// Scrub compiles config and scrubs text. An invalid pattern produces no output.
func Scrub(text string, config types.ScrubConfig) (string, error) {
	scrubber, compileError := New(config)
	if compileError != nil {
		return "", compileError
	}
	return scrubber.Scrub(text), nil
}
