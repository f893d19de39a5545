package lexer

import "strings"

// Kind classifies a token.
type Kind int

const (
	Other Kind = iota
	Keyword
	Identifier
	StringLiteral
	CharLiteral
	Number
	LineComment
	BlockComment
	Whitespace
	Newline
	Punctuation
)

var kindNames = [...]string{
	Other:         "OTHER",
	Keyword:       "KEYWORD",
	Identifier:    "IDENTIFIER",
	StringLiteral: "STRING_LITERAL",
	CharLiteral:   "CHAR_LITERAL",
	Number:        "NUMBER",
	LineComment:   "LINE_COMMENT",
	BlockComment:  "BLOCK_COMMENT",
	Whitespace:    "WHITESPACE",
	Newline:       "NEWLINE",
	Punctuation:   "PUNCTUATION",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "UNKNOWN"
	}
	return kindNames[k]
}

// Token is a verbatim slice of the source. Line and Column are 1-based and
// refer to the first character of Text.
type Token struct {
	Kind   Kind
	Text   string
	Line   int
	Column int
}

// IsTrivia reports whether the token carries no code: whitespace, line
// breaks and comments.
func (t Token) IsTrivia() bool {
	switch t.Kind {
	case Whitespace, Newline, LineComment, BlockComment:
		return true
	default:
		return false
	}
}

// Is reports whether the token has the given kind and text.
func (t Token) Is(kind Kind, text string) bool {
	return t.Kind == kind && t.Text == text
}

// Join concatenates the text of every token.
func Join(tokens []Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(tok.Text)
	}
	return b.String()
}

// Lines groups tokens by source line. NEWLINE tokens are dropped and tokens
// spanning several lines (block comments, text blocks) are cut into one
// fragment per line, keeping their kind. A line break at the very end of
// the input does not open an extra, empty line.
func Lines(tokens []Token) [][]Token {
	var lines [][]Token
	var current []Token
	for _, tok := range tokens {
		if tok.Kind == Newline {
			lines = append(lines, current)
			current = nil
			continue
		}
		if !strings.ContainsAny(tok.Text, "\r\n") {
			current = append(current, tok)
			continue
		}
		for i, segment := range splitLines(tok.Text) {
			if i > 0 {
				lines = append(lines, current)
				current = nil
			}
			if segment == "" {
				continue
			}
			frag := Token{Kind: tok.Kind, Text: segment, Line: tok.Line + i, Column: 1}
			if i == 0 {
				frag.Column = tok.Column
			}
			current = append(current, frag)
		}
	}
	if len(current) > 0 {
		lines = append(lines, current)
	}
	return lines
}

// splitLines splits on \r\n, \n and \r without keeping the separators.
func splitLines(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			out = append(out, text[start:i])
			start = i + 1
		case '\r':
			out = append(out, text[start:i])
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	return append(out, text[start:])
}
