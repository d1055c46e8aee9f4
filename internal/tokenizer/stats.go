package tokenizer

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Stats summarizes a rendered output.
type Stats struct {
	Characters int    `json:"characters" xml:"characters,attr"`
	Lines      int    `json:"lines" xml:"lines,attr"`
	Tokens     int    `json:"tokens" xml:"tokens,attr"`
	Model      string `json:"model,omitempty" xml:"model,attr,omitempty"`
}

// Measure counts characters, lines and, when counter is not nil, tokens of text.
// A final line without terminator counts as a line.
func Measure(counter Counter, text string) (Stats, error) {
	stats := Stats{
		Characters: utf8.RuneCountInString(text),
		Lines:      strings.Count(text, "\n"),
	}
	if text != "" && !strings.HasSuffix(text, "\n") {
		stats.Lines++
	}
	if counter == nil {
		return stats, nil
	}
	tokens, err := counter.CountString(text)
	if err != nil {
		return Stats{}, fmt.Errorf("count tokens with %s: %w", counter.Name(), err)
	}
	stats.Tokens = tokens
	stats.Model = counter.Name()
	return stats, nil
}
