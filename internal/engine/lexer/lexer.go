// Package lexer splits Java source text into an exhaustive, lossless token
// stream. It is not a parser: malformed input never fails, unknown bytes
// become OTHER tokens and concatenating the token texts always yields the
// input unchanged.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenize returns the token stream for src.
func Tokenize(src string) []Token {
	s := &scanner{src: src, line: 1, col: 1}
	for s.pos < len(s.src) {
		s.scan()
	}
	return s.tokens
}

type scanner struct {
	src    string
	pos    int
	line   int
	col    int
	tokens []Token
}

func (s *scanner) peek(n int) byte {
	if s.pos+n < len(s.src) {
		return s.src[s.pos+n]
	}
	return 0
}

func (s *scanner) scan() {
	start := s.pos
	c := s.src[s.pos]
	switch {
	case c == '\n':
		s.pos++
		s.emit(Newline, start)
	case c == '\r':
		s.pos++
		if s.peek(0) == '\n' {
			s.pos++
		}
		s.emit(Newline, start)
	case isBlank(c):
		for s.pos < len(s.src) && isBlank(s.src[s.pos]) {
			s.pos++
		}
		s.emit(Whitespace, start)
	case c == '/' && s.peek(1) == '/':
		s.scanLineComment(start)
	case c == '/' && s.peek(1) == '*':
		s.scanBlockComment(start)
	case c == '"' && strings.HasPrefix(s.src[s.pos:], `"""`):
		s.scanTextBlock(start)
	case c == '"':
		s.scanQuoted(start, '"', StringLiteral)
	case c == '\'':
		s.scanQuoted(start, '\'', CharLiteral)
	case isDigit(c) || (c == '.' && isDigit(s.peek(1))):
		s.scanNumber(start)
	case c < utf8.RuneSelf && strings.IndexByte(punctuationChars, c) >= 0:
		s.scanPunctuation(start)
	default:
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		if isIdentStart(r) {
			s.scanIdentifier(start)
			return
		}
		// Anything else, including a byte that is not valid UTF-8, is kept
		// as a single OTHER token.
		s.pos += size
		s.emit(Other, start)
	}
}

func (s *scanner) scanLineComment(start int) {
	for s.pos < len(s.src) && s.src[s.pos] != '\n' && s.src[s.pos] != '\r' {
		s.pos++
	}
	s.emit(LineComment, start)
}

// scanBlockComment runs to the first "*/" after the opener. Block comments
// do not nest, so an inner "/*" is plain comment text.
func (s *scanner) scanBlockComment(start int) {
	body := s.pos + 2
	end := strings.Index(s.src[body:], "*/")
	if end < 0 {
		s.pos = len(s.src)
	} else {
		s.pos = body + end + 2
	}
	s.emit(BlockComment, start)
}

// scanQuoted consumes a string or char literal. An unterminated literal
// stops before the line break.
func (s *scanner) scanQuoted(start int, quote byte, kind Kind) {
	s.pos++
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if c == '\n' || c == '\r' {
			break
		}
		if c == '\\' {
			s.pos++
			if s.pos < len(s.src) && s.src[s.pos] != '\n' && s.src[s.pos] != '\r' {
				s.pos++
			}
			continue
		}
		s.pos++
		if c == quote {
			break
		}
	}
	s.emit(kind, start)
}

func (s *scanner) scanTextBlock(start int) {
	s.pos += 3
	for s.pos < len(s.src) {
		if s.src[s.pos] == '\\' {
			s.pos = min(s.pos+2, len(s.src))
			continue
		}
		if strings.HasPrefix(s.src[s.pos:], `"""`) {
			s.pos += 3
			break
		}
		s.pos++
	}
	s.emit(StringLiteral, start)
}

func (s *scanner) scanNumber(start int) {
	c := s.src[s.pos]
	if c == '0' && (s.peek(1) == 'x' || s.peek(1) == 'X') {
		s.pos += 2
		s.skipWhile(func(b byte) bool { return isHexDigit(b) || b == '_' })
	} else if c == '0' && (s.peek(1) == 'b' || s.peek(1) == 'B') {
		s.pos += 2
		s.skipWhile(func(b byte) bool { return b == '0' || b == '1' || b == '_' })
	} else {
		s.skipWhile(isDigitOrUnderscore)
		if s.peek(0) == '.' && !isIdentStartByte(s.peek(1)) && s.peek(1) != '.' {
			s.pos++
			s.skipWhile(isDigitOrUnderscore)
		}
		if e := s.peek(0); e == 'e' || e == 'E' {
			sign := s.peek(1) == '+' || s.peek(1) == '-'
			if isDigit(s.peek(1)) || (sign && isDigit(s.peek(2))) {
				s.pos += 2
				s.skipWhile(isDigitOrUnderscore)
			}
		}
	}
	if strings.IndexByte("lLfFdD", s.peek(0)) >= 0 {
		s.pos++
	}
	s.emit(Number, start)
}

func (s *scanner) scanPunctuation(start int) {
	rest := s.src[s.pos:]
	for _, op := range operators {
		if strings.HasPrefix(rest, op) {
			s.pos += len(op)
			s.emit(Punctuation, start)
			return
		}
	}
	s.pos++
	s.emit(Punctuation, start)
}

func (s *scanner) scanIdentifier(start int) {
	for s.pos < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		if !isIdentPart(r) {
			break
		}
		s.pos += size
	}
	if keywords[s.src[start:s.pos]] {
		s.emit(Keyword, start)
		return
	}
	s.emit(Identifier, start)
}

func (s *scanner) skipWhile(accept func(byte) bool) {
	for s.pos < len(s.src) && accept(s.src[s.pos]) {
		s.pos++
	}
}

// emit records src[start:pos] and advances the line/column cursor past it.
func (s *scanner) emit(kind Kind, start int) {
	text := s.src[start:s.pos]
	s.tokens = append(s.tokens, Token{Kind: kind, Text: text, Line: s.line, Column: s.col})
	for i := 0; i < len(text); i++ {
		switch b := text[i]; {
		case b == '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			s.line++
			s.col = 1
		case b == '\n':
			s.line++
			s.col = 1
		case b&0xC0 != 0x80:
			s.col++
		}
	}
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\f'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isDigitOrUnderscore(c byte) bool {
	return isDigit(c) || c == '_'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(r rune) bool {
	if r == utf8.RuneError {
		return false
	}
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentStartByte(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= utf8.RuneSelf
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}
