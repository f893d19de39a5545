package symbols

import (
	"xref/internal/engine/lexer"
)

// Extractor reads the header of one source file.
type Extractor interface {
	ExtractHeader(source []byte, tokens []lexer.Token) (Header, error)
}

// TokenExtractor scans the token stream. It never fails.
type TokenExtractor struct{}

func (TokenExtractor) ExtractHeader(_ []byte, tokens []lexer.Token) (Header, error) {
	return ScanHeader(tokens), nil
}

var declarationKinds = map[string]TypeKind{
	"class":     KindClass,
	"interface": KindInterface,
	"enum":      KindEnum,
}

// ScanHeader finds the package declaration, the imports and the type
// declarations at brace depth zero. Class literals (Foo.class) inside
// top-level annotations are not declarations.
func ScanHeader(tokens []lexer.Token) Header {
	code := make([]lexer.Token, 0, len(tokens))
	for _, tok := range tokens {
		if !tok.IsTrivia() {
			code = append(code, tok)
		}
	}

	var h Header
	depth := 0
	for i := 0; i < len(code); i++ {
		tok := code[i]
		switch {
		case tok.Is(lexer.Punctuation, "{"):
			depth++
		case tok.Is(lexer.Punctuation, "}"):
			if depth > 0 {
				depth--
			}
		case depth > 0:
		case tok.Is(lexer.Keyword, "package"):
			name, next, _ := qualifiedName(code, i+1)
			if h.Package == "" && name != "" {
				h.Package = name
			}
			i = next - 1
		case tok.Is(lexer.Keyword, "import"):
			imp, next := scanImport(code, i+1)
			if imp.Path != "" {
				imp.Line = tok.Line
				h.Imports = append(h.Imports, imp)
			}
			i = next - 1
		case tok.Kind == lexer.Keyword && declarationKinds[tok.Text] != "":
			if i > 0 && code[i-1].Is(lexer.Punctuation, ".") {
				continue
			}
			if i+1 >= len(code) || code[i+1].Kind != lexer.Identifier {
				continue
			}
			kind := declarationKinds[tok.Text]
			if kind == KindInterface && i > 0 && code[i-1].Is(lexer.Punctuation, "@") {
				kind = KindAnnotation
			}
			h.Types = append(h.Types, Declaration{Name: code[i+1].Text, Kind: kind, Line: code[i+1].Line})
			i++
		case tok.Is(lexer.Identifier, "record"):
			if i+2 >= len(code) || code[i+1].Kind != lexer.Identifier {
				continue
			}
			if !code[i+2].Is(lexer.Punctuation, "(") && !code[i+2].Is(lexer.Punctuation, "<") {
				continue
			}
			h.Types = append(h.Types, Declaration{Name: code[i+1].Text, Kind: KindRecord, Line: code[i+1].Line})
			i++
		}
	}
	return h
}

func scanImport(code []lexer.Token, i int) (Import, int) {
	var imp Import
	if i < len(code) && code[i].Is(lexer.Keyword, "static") {
		imp.Static = true
		i++
	}
	name, next, wildcard := qualifiedName(code, i)
	imp.Path = name
	imp.Wildcard = wildcard
	return imp, next
}

// qualifiedName reads IDENT ('.' IDENT)* with an optional trailing ".*"
// starting at code[i]. It returns the name, the index after it and whether
// it ended in a wildcard.
func qualifiedName(code []lexer.Token, i int) (string, int, bool) {
	if i >= len(code) || code[i].Kind != lexer.Identifier {
		return "", i, false
	}
	name := code[i].Text
	i++
	for i+1 < len(code) && code[i].Is(lexer.Punctuation, ".") {
		next := code[i+1]
		switch {
		case next.Kind == lexer.Identifier:
			name += "." + next.Text
			i += 2
		case next.Is(lexer.Punctuation, "*"):
			return name, i + 2, true
		default:
			return name, i, false
		}
	}
	return name, i, false
}
