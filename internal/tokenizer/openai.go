package tokenizer

import (
	"errors"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

const wordCounterName = "words"

type openAICounter struct {
	encoding *tiktoken.Tiktoken
	name     string
}

func (counter openAICounter) Name() string {
	return counter.name
}

func (counter openAICounter) CountString(input string) (int, error) {
	if counter.encoding == nil {
		return 0, errors.New("nil tiktoken encoder")
	}
	tokenIDs := counter.encoding.Encode(input, nil, nil)
	return len(tokenIDs), nil
}

// wordCounter approximates tokens as whitespace separated words.
type wordCounter struct{}

func (wordCounter) Name() string {
	return wordCounterName
}

func (wordCounter) CountString(input string) (int, error) {
	return len(strings.Fields(input)), nil
}
