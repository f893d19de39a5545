package symbols

import (
	"fmt"

	"xref/internal/engine/lexer"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
)

var treeSitterDeclarations = map[string]TypeKind{
	"class_declaration":           KindClass,
	"interface_declaration":       KindInterface,
	"enum_declaration":            KindEnum,
	"annotation_type_declaration": KindAnnotation,
	"record_declaration":          KindRecord,
}

// TreeSitterExtractor reads headers from the tree-sitter Java syntax tree
// instead of the token stream. Only direct children of the program node
// are inspected, which is the same "depth zero" rule the token scanner
// applies. A tree with syntax errors falls back to the token scanner, since
// error recovery can bury declarations inside ERROR nodes.
type TreeSitterExtractor struct {
	pool *ParserPool
}

func NewTreeSitterExtractor() *TreeSitterExtractor {
	lang := sitter.NewLanguage(tree_sitter_java.Language())
	return &TreeSitterExtractor{pool: NewParserPool(lang)}
}

func (e *TreeSitterExtractor) ExtractHeader(source []byte, tokens []lexer.Token) (Header, error) {
	sp := e.pool.Get()
	defer e.pool.Put(sp)

	tree := sp.Parse(source, nil)
	if tree == nil {
		return Header{}, fmt.Errorf("tree-sitter: no syntax tree produced")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		if tokens == nil {
			tokens = lexer.Tokenize(string(source))
		}
		return ScanHeader(tokens), nil
	}

	var h Header
	for i := uint(0); i < root.ChildCount(); i++ {
		node := root.Child(i)
		if node == nil {
			continue
		}
		switch kind := node.Kind(); kind {
		case "package_declaration":
			if h.Package == "" {
				h.Package = nameText(node, source)
			}
		case "import_declaration":
			imp := importFromNode(node, source)
			if imp.Path != "" {
				h.Imports = append(h.Imports, imp)
			}
		default:
			declKind, ok := treeSitterDeclarations[kind]
			if !ok {
				continue
			}
			name := node.ChildByFieldName("name")
			if name == nil {
				continue
			}
			h.Types = append(h.Types, Declaration{
				Name: nodeText(name, source),
				Kind: declKind,
				Line: int(name.StartPosition().Row) + 1,
			})
		}
	}
	return h, nil
}

func importFromNode(node *sitter.Node, source []byte) Import {
	imp := Import{Line: int(node.StartPosition().Row) + 1}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "static":
			imp.Static = true
		case "asterisk":
			imp.Wildcard = true
		case "identifier", "scoped_identifier":
			imp.Path = nodeText(child, source)
		}
	}
	return imp
}

func nameText(node *sitter.Node, source []byte) string {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		if child.Kind() == "identifier" || child.Kind() == "scoped_identifier" {
			return nodeText(child, source)
		}
	}
	return ""
}

func nodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}
