package scrub

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type lexerMode int

const (
	modeNormal lexerMode = iota
	modeDoubleQuoted
	modeSingleQuoted
	modeRaw
	modeTripleDouble
	modeTripleSingle
)

const (
	tripleDoubleQuote = `"""`
	tripleSingleQuote = `'''`
	rawStringMarker   = 'r'
	rawStringHash     = '#'
	noCut             = -1
)

// literalLexer tracks string literal state across the lines of one text.
// Quoted strings end with their line; raw and triple-quoted strings span lines.
type literalLexer struct {
	mode      lexerMode
	escaped   bool
	rawHashes int
}

func (lexer *literalLexer) startLine() {
	if lexer.mode == modeDoubleQuoted || lexer.mode == modeSingleQuoted {
		lexer.mode = modeNormal
		lexer.escaped = false
	}
}

func (lexer *literalLexer) insideMultilineLiteral() bool {
	return lexer.mode == modeRaw || lexer.mode == modeTripleDouble || lexer.mode == modeTripleSingle
}

// scanLine advances the lexer over line and returns the byte offset of the
// first inline comment prefix, or noCut. A prefix counts only in code, after
// the indentation and directly after a whitespace rune.
func (lexer *literalLexer) scanLine(line string, prefixes []string, contentStart int) int {
	previousWasSpace := false
	position := 0
	for position < len(line) {
		character, width := utf8.DecodeRuneInString(line[position:])
		remainder := line[position:]

		switch lexer.mode {
		case modeNormal:
			if strings.HasPrefix(remainder, tripleDoubleQuote) {
				lexer.mode = modeTripleDouble
				position += len(tripleDoubleQuote)
				previousWasSpace = false
				continue
			}
			if strings.HasPrefix(remainder, tripleSingleQuote) {
				lexer.mode = modeTripleSingle
				position += len(tripleSingleQuote)
				previousWasSpace = false
				continue
			}
			if character == rawStringMarker && startsToken(line, position) {
				if hashes, quoteEnd, isRaw := rawStringOpening(line, position+width); isRaw {
					lexer.mode = modeRaw
					lexer.rawHashes = hashes
					position = quoteEnd
					previousWasSpace = false
					continue
				}
			}
			if character == '"' || character == '\'' {
				lexer.mode = modeDoubleQuoted
				if character == '\'' {
					lexer.mode = modeSingleQuoted
				}
				lexer.escaped = false
				position += width
				previousWasSpace = false
				continue
			}
			if position >= contentStart && previousWasSpace && hasAnyPrefix(remainder, prefixes) {
				return position
			}
			previousWasSpace = unicode.IsSpace(character)

		case modeDoubleQuoted, modeSingleQuoted:
			closing := '"'
			if lexer.mode == modeSingleQuoted {
				closing = '\''
			}
			if !lexer.escaped && character == closing {
				lexer.mode = modeNormal
			}
			lexer.escaped = character == '\\' && !lexer.escaped
			previousWasSpace = false

		case modeRaw:
			if character == '"' {
				closingEnd := position + 1 + lexer.rawHashes
				if closingEnd <= len(line) && strings.Count(line[position+1:closingEnd], string(rawStringHash)) == lexer.rawHashes {
					lexer.mode = modeNormal
					position = closingEnd
					previousWasSpace = false
					continue
				}
			}
			previousWasSpace = false

		case modeTripleDouble, modeTripleSingle:
			closing := tripleDoubleQuote
			if lexer.mode == modeTripleSingle {
				closing = tripleSingleQuote
			}
			if strings.HasPrefix(remainder, closing) {
				lexer.mode = modeNormal
				position += len(closing)
				previousWasSpace = false
				continue
			}
			previousWasSpace = false
		}
		position += width
	}
	return noCut
}

// rawStringOpening recognizes the `#*"` part of a raw string opener starting at offset.
func rawStringOpening(line string, offset int) (int, int, bool) {
	hashes := 0
	cursor := offset
	for cursor < len(line) && line[cursor] == rawStringHash {
		hashes++
		cursor++
	}
	if cursor < len(line) && line[cursor] == '"' {
		return hashes, cursor + 1, true
	}
	return 0, 0, false
}

func startsToken(line string, position int) bool {
	if position == 0 {
		return true
	}
	previous, _ := utf8.DecodeLastRuneInString(line[:position])
	return !(unicode.IsLetter(previous) || unicode.IsDigit(previous) || previous == '_')
}

func hasAnyPrefix(text string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(text, prefix) {
			return true
		}
	}
	return false
}

func firstContentIndex(line string) int {
	for index, character := range line {
		if !unicode.IsSpace(character) {
			return index
		}
	}
	return len(line)
}
