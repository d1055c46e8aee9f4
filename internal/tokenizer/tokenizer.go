// Package tokenizer estimates how many model tokens a rendered output takes.
package tokenizer

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates token counts for text content.
type Counter interface {
	Name() string
	CountString(input string) (int, error)
}

// Config captures tokenizer selection parameters provided by the CLI.
type Config struct {
	Model string
}

const (
	defaultModel        = "gpt-4o"
	defaultEncodingName = "cl100k_base"
)

var (
	loadEncodingForModel = tiktoken.EncodingForModel
	loadEncoding         = tiktoken.GetEncoding
)

// NewCounter returns a Counter for the requested model and the name it resolved to.
// Unknown models use cl100k_base; when no encoding can be loaded the counter
// falls back to counting whitespace separated words.
func NewCounter(cfg Config) (Counter, string) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	lowerModel := strings.ToLower(model)

	if encoding, err := loadEncodingForModel(lowerModel); err == nil && encoding != nil {
		return openAICounter{encoding: encoding, name: lowerModel}, model
	}
	if fallback, err := loadEncoding(defaultEncodingName); err == nil && fallback != nil {
		return openAICounter{encoding: fallback, name: defaultEncodingName}, defaultEncodingName
	}
	return wordCounter{}, wordCounterName
}
