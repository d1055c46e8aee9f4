package tokenizer

import (
	"errors"
	"testing"

	"github.com/pkoukk/tiktoken-go"
)

type testCounter struct{}

func (testCounter) Name() string { return "stub" }

func (testCounter) CountString(input string) (int, error) { return len([]rune(input)), nil }

type failingCounter struct{}

func (failingCounter) Name() string { return "failing" }

func (failingCounter) CountString(string) (int, error) { return 0, errors.New("boom") }

func TestMeasure(t *testing.T) {
	testCases := []struct {
		name     string
		counter  Counter
		text     string
		expected Stats
	}{
		{name: "empty", counter: testCounter{}, text: "", expected: Stats{Model: "stub"}},
		{name: "terminated", counter: testCounter{}, text: "ab\ncd\n", expected: Stats{Characters: 6, Lines: 2, Tokens: 6, Model: "stub"}},
		{name: "unterminated", counter: testCounter{}, text: "ab\ncd", expected: Stats{Characters: 5, Lines: 2, Tokens: 5, Model: "stub"}},
		{name: "multibyte", counter: wordCounter{}, text: "└── a.rs\n", expected: Stats{Characters: 9, Lines: 1, Tokens: 2, Model: "words"}},
		{name: "no counter", counter: nil, text: "x", expected: Stats{Characters: 1, Lines: 1}},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			actual, err := Measure(testCase.counter, testCase.text)
			if err != nil {
				t.Fatalf("Measure error: %v", err)
			}
			if actual != testCase.expected {
				t.Fatalf("Measure(%q) = %+v, expected %+v", testCase.text, actual, testCase.expected)
			}
		})
	}
}

func TestMeasurePropagatesCounterError(t *testing.T) {
	if _, err := Measure(failingCounter{}, "text"); err == nil {
		t.Fatalf("expected counter error")
	}
}

func TestNewCounterFallsBackToWords(t *testing.T) {
	originalForModel, originalEncoding := loadEncodingForModel, loadEncoding
	t.Cleanup(func() {
		loadEncodingForModel, loadEncoding = originalForModel, originalEncoding
	})
	unavailable := errors.New("offline")
	loadEncodingForModel = func(string) (*tiktoken.Tiktoken, error) { return nil, unavailable }
	loadEncoding = func(string) (*tiktoken.Tiktoken, error) { return nil, unavailable }

	counter, model := NewCounter(Config{Model: "gpt-4o"})
	if model != "words" || counter.Name() != "words" {
		t.Fatalf("expected word counter, got %q", model)
	}
	tokens, err := counter.CountString("fn main() {\n}\n")
	if err != nil || tokens != 4 {
		t.Fatalf("CountString = %d (%v), expected 4", tokens, err)
	}
}
