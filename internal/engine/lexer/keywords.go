package lexer

// keywords is the closed set of Java reserved words, including the literal
// words true, false and null. Contextual words (var, record, yield, sealed,
// permits) are identifiers.
var keywords = map[string]bool{
	"abstract": true, "assert": true, "boolean": true, "break": true,
	"byte": true, "case": true, "catch": true, "char": true,
	"class": true, "const": true, "continue": true, "default": true,
	"do": true, "double": true, "else": true, "enum": true,
	"extends": true, "final": true, "finally": true, "float": true,
	"for": true, "goto": true, "if": true, "implements": true,
	"import": true, "instanceof": true, "int": true, "interface": true,
	"long": true, "native": true, "new": true, "package": true,
	"private": true, "protected": true, "public": true, "return": true,
	"short": true, "static": true, "strictfp": true, "super": true,
	"switch": true, "synchronized": true, "this": true, "throw": true,
	"throws": true, "transient": true, "try": true, "void": true,
	"volatile": true, "while": true,
	"true": true, "false": true, "null": true,
}

// IsKeyword reports whether word is reserved.
func IsKeyword(word string) bool {
	return keywords[word]
}

// operators lists multi-character punctuation, longest first.
var operators = []string{
	">>>=",
	"<<=", ">>=", ">>>", "...",
	"->", "::", "++", "--", "&&", "||", "==", "!=", "<=", ">=",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<", ">>",
}

const punctuationChars = "(){}[];,.@=+-*/%<>!~?:&|^"
