package xref

import (
	"fmt"
	"html"
	"path/filepath"
	"strconv"
	"strings"

	"xref/internal/engine/lexer"
	"xref/internal/engine/linkpath"
	"xref/internal/engine/resolver"
	"xref/internal/engine/symbols"
)

// Document is one source file ready to be rendered.
type Document struct {
	SourcePath string
	OutputPath string
	Context    resolver.FileContext
	Tokens     []lexer.Token
	// PrimaryType is the qualified name of the first type the file
	// declares, if any. It is the target of the "View Javadoc" link.
	PrimaryType string
}

// AmbiguousRef is an identifier that matched types in several
// wildcard-imported packages and was therefore left unlinked.
type AmbiguousRef struct {
	SourcePath string
	Line       int
	Name       string
	Candidates []string
}

// RenderStats summarises the links of one rendered document.
type RenderStats struct {
	Rows      int
	Links     int
	External  int
	Ambiguous []AmbiguousRef
}

// Emitter renders documents against one immutable symbol table. It holds
// no per-document state and may be used from several goroutines.
type Emitter struct {
	table symbols.SymbolLookupTable
	opts  Options
}

func NewEmitter(table symbols.SymbolLookupTable, opts Options) *Emitter {
	return &Emitter{table: table, opts: opts}
}

// decoration is how one token is rendered beyond its escaped text.
type decoration struct {
	href     string
	external bool
	// closeAt is the column of the last token covered by the link that
	// opens at this token.
	closeAt int
}

type position struct{ line, column int }

// Render produces the complete HTML page for doc. Nothing is written; a
// failing link computation fails the whole document.
func (e *Emitter) Render(doc Document) (string, RenderStats, error) {
	var stats RenderStats
	decorations, err := e.decorate(doc, &stats)
	if err != nil {
		return "", stats, err
	}

	docDir := filepath.Dir(doc.OutputPath)
	toRoot, err := linkpath.Relative(docDir, e.opts.DestRoot)
	if err != nil {
		return "", stats, fmt.Errorf("stylesheet link for %s: %w", doc.SourcePath, err)
	}

	var b strings.Builder
	b.Grow(len(doc.Tokens) * 24)
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	fmt.Fprintf(&b, "<meta charset=\"%s\">\n", html.EscapeString(e.opts.charset()))
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(e.documentTitle(doc)))
	fmt.Fprintf(&b, "<link type=\"text/css\" rel=\"stylesheet\" href=\"%s%s\">\n", toRoot, stylesheetName)
	b.WriteString("</head>\n<body>\n")

	if e.opts.Page.ShowHeader && e.opts.Page.Header != "" {
		b.WriteString(e.opts.Page.Header)
		b.WriteString("\n")
	}
	if href, ok, err := e.javadocLink(doc); err != nil {
		return "", stats, err
	} else if ok {
		fmt.Fprintf(&b, "<div id=\"overview\"><a href=\"%s\">View Javadoc</a></div>\n", href)
	}

	b.WriteString("<table class=\"xref-source\">\n")
	for i, row := range lexer.Lines(doc.Tokens) {
		n := strconv.Itoa(i + 1)
		b.WriteString("<tr id=\"line" + n + "\"><td class=\"xref-lineno\"><a href=\"#line" + n + "\">" + n + "</a></td><td class=\"xref-code\">")
		writeRow(&b, row, decorations)
		b.WriteString("</td></tr>\n")
		stats.Rows++
	}
	b.WriteString("</table>\n")

	if e.opts.Page.Revision != "" {
		fmt.Fprintf(&b, "<p class=\"xref-revision\">Revision: %s</p>\n", html.EscapeString(e.opts.Page.Revision))
	}
	if e.opts.Page.ShowFooter && e.opts.Page.Footer != "" {
		b.WriteString(e.opts.Page.Footer)
		b.WriteString("\n")
	}
	b.WriteString("</body>\n</html>\n")
	return b.String(), stats, nil
}

func (e *Emitter) documentTitle(doc Document) string {
	name := filepath.Base(doc.SourcePath)
	if e.opts.Page.WindowTitle == "" {
		return name
	}
	return name + " - " + e.opts.Page.WindowTitle
}

func (e *Emitter) javadocLink(doc Document) (string, bool, error) {
	if !e.opts.External.Enabled || doc.PrimaryType == "" {
		return "", false, nil
	}
	href, err := e.externalHref(doc.OutputPath, doc.PrimaryType)
	if err != nil {
		return "", false, fmt.Errorf("javadoc link for %s: %w", doc.SourcePath, err)
	}
	return href, true, nil
}

func (e *Emitter) externalHref(outputPath, qualified string) (string, error) {
	rel, err := linkpath.Relative(filepath.Dir(outputPath), e.opts.External.BaseDirectory)
	if err != nil {
		return "", err
	}
	return rel + strings.ReplaceAll(qualified, ".", "/") + ".html", nil
}

// decorate walks the code tokens once and decides which of them open a
// link. Decorations are keyed by token position, which survives the
// per-line split done for rendering.
func (e *Emitter) decorate(doc Document, stats *RenderStats) (map[position]decoration, error) {
	res := resolver.New(e.table, doc.Context)
	decorations := make(map[position]decoration)
	hrefs := make(map[string]string)
	toks := doc.Tokens

	prevCode := -1
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		if tok.IsTrivia() {
			continue
		}
		afterDot := prevCode >= 0 && toks[prevCode].Is(lexer.Punctuation, ".")
		prevCode = i
		if tok.Kind != lexer.Identifier || afterDot {
			continue
		}

		parts, idx := chainAt(toks, i)
		link, n := res.ResolveChain(parts)
		// Later parts of the chain are member accesses; skip them.
		last := idx[len(idx)-1]
		prevCode = last
		i = last

		switch {
		case link.Ambiguous():
			stats.Ambiguous = append(stats.Ambiguous, AmbiguousRef{
				SourcePath: doc.SourcePath,
				Line:       tok.Line,
				Name:       parts[0],
				Candidates: link.Candidates,
			})
			continue
		case n == 0:
			continue
		}

		var d decoration
		switch {
		case link.Resolved:
			href, ok := hrefs[link.Entry.QualifiedName]
			if !ok {
				rel, err := linkpath.RelativeFile(doc.OutputPath, link.Entry.OutputPath)
				if err != nil {
					return nil, fmt.Errorf("link %s -> %s: %w", doc.SourcePath, link.Entry.QualifiedName, err)
				}
				if link.Entry.OutputPath == doc.OutputPath {
					rel = ""
				}
				href = rel + "#line" + strconv.Itoa(link.Entry.Line)
				hrefs[link.Entry.QualifiedName] = href
			}
			d.href = href
			stats.Links++
		case link.External != "" && e.opts.External.Enabled:
			href, err := e.externalHref(doc.OutputPath, link.External)
			if err != nil {
				return nil, fmt.Errorf("external link %s -> %s: %w", doc.SourcePath, link.External, err)
			}
			d.href = href
			d.external = true
			stats.External++
		default:
			continue
		}
		end := toks[idx[n-1]]
		d.closeAt = end.Column
		decorations[position{tok.Line, tok.Column}] = d
	}
	return decorations, nil
}

// chainAt collects IDENT ('.' IDENT)* starting at toks[i] with no trivia
// in between. It returns the identifier texts and their token indexes.
func chainAt(toks []lexer.Token, i int) ([]string, []int) {
	parts := []string{toks[i].Text}
	idx := []int{i}
	for j := i; j+2 < len(toks); j += 2 {
		if !toks[j+1].Is(lexer.Punctuation, ".") || toks[j+2].Kind != lexer.Identifier {
			break
		}
		parts = append(parts, toks[j+2].Text)
		idx = append(idx, j+2)
	}
	return parts, idx
}

var kindClass = map[lexer.Kind]string{
	lexer.Keyword:       "keyword",
	lexer.Identifier:    "identifier",
	lexer.StringLiteral: "string",
	lexer.CharLiteral:   "char",
	lexer.Number:        "number",
	lexer.LineComment:   "comment",
	lexer.BlockComment:  "comment",
	lexer.Other:         "other",
}

func writeRow(b *strings.Builder, row []lexer.Token, decorations map[position]decoration) {
	closeAt := 0
	for _, tok := range row {
		if closeAt == 0 {
			if d, ok := decorations[position{tok.Line, tok.Column}]; ok {
				class := "xref"
				if d.external {
					class = "xref external"
				}
				fmt.Fprintf(b, "<a class=\"%s\" href=\"%s\">", class, html.EscapeString(d.href))
				closeAt = d.closeAt
			}
		}

		text := html.EscapeString(tok.Text)
		if closeAt != 0 {
			b.WriteString(text)
			if tok.Column == closeAt {
				b.WriteString("</a>")
				closeAt = 0
			}
			continue
		}
		class := kindClass[tok.Kind]
		if tok.Kind == lexer.BlockComment && strings.HasPrefix(tok.Text, "/**") {
			class = "javadoc"
		}
		if class == "" {
			b.WriteString(text)
			continue
		}
		b.WriteString("<span class=\"" + class + "\">" + text + "</span>")
	}
	if closeAt != 0 {
		b.WriteString("</a>")
	}
}
